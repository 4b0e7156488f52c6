/*
Package fungible implements a fungible token contract with storage
management.

Every account holding tokens must be registered first: registration locks a
storage deposit (Bond) covering the records the account can occupy.
Registered accounts transfer tokens with ft_transfer or, to notify a
receiving contract, with ft_transfer_call. The latter is completed by the
ft_resolve_transfer continuation which returns tokens the receiver did not
use back to the sender.

# Contract events

Events are logged as EVENT_JSON: prefixed JSON documents.

ft_mint event. Produced once at initialization when the total supply is
credited to the owner.

	ft_mint:
	  - name: owner_id
	    type: String
	  - name: amount
	    type: String
	  - name: memo
	    type: String (optional)

ft_transfer event. Produced by ft_transfer, ft_transfer_call and by the
refund of ft_resolve_transfer (memo "refund").

	ft_transfer:
	  - name: old_owner_id
	    type: String
	  - name: new_owner_id
	    type: String
	  - name: amount
	    type: String
	  - name: memo
	    type: String (optional)

ft_burn event. Produced when an account holding tokens is unregistered with
force. Burnt tokens are not subtracted from the total supply.

	ft_burn:
	  - name: owner_id
	    type: String
	  - name: amount
	    type: String
*/
package fungible
