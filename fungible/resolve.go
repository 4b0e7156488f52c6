package fungible

import (
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/ft-contract/common"
	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
)

var refundMemo = "refund"

// ResolutionHandler settles notifying transfers after the receiver
// reported how much it did not use.
type ResolutionHandler struct {
	env      Env
	ledger   *Ledger
	registry *AccountRegistry
}

// NewResolutionHandler returns ResolutionHandler working over ledger and
// registry.
func NewResolutionHandler(env Env, ledger *Ledger, registry *AccountRegistry) *ResolutionHandler {
	return &ResolutionHandler{env: env, ledger: ledger, registry: registry}
}

// unused extracts unused amount from the receiver outcome. Failures and
// malformed values mean nothing was used, values above amount are clamped.
func (h *ResolutionHandler) unused(amount u128.Int) u128.Int {
	res, err := h.env.PromiseResult(0)
	if err != nil || res.Status != host.PromiseSuccessful {
		return amount
	}
	var v u128.Int
	if err := json.Unmarshal(res.Value, &v); err != nil {
		return amount
	}
	return u128.Min(v, amount)
}

// Resolve returns unused tokens from receiver back to sender and reports the
// amount kept by receiver. Only the contract itself can call it.
func (h *ResolutionHandler) Resolve(sender, receiver string, amount u128.Int) (u128.Int, error) {
	if err := common.AssertPrivate(h.env, MethodResolveTransfer); err != nil {
		return u128.Zero(), err
	}
	if n := h.env.PromiseResultsCount(); n != 1 {
		return u128.Zero(), fmt.Errorf("%w: expected 1 promise result, got %d", ErrInvalidArguments, n)
	}

	unused := h.unused(amount)
	if unused.IsZero() {
		return amount, nil
	}

	ok, err := h.registry.IsRegistered(receiver)
	if err != nil {
		return u128.Zero(), err
	}
	if !ok {
		h.env.Log(fmt.Sprintf("Receiver @%s is not registered, no refund", receiver))
		return amount, nil
	}
	rb, err := h.ledger.BalanceOf(receiver)
	if err != nil {
		return u128.Zero(), err
	}
	refund := u128.Min(unused, rb)
	if refund.IsZero() {
		return amount, nil
	}

	ok, err = h.registry.IsRegistered(sender)
	if err != nil {
		return u128.Zero(), err
	}
	if !ok {
		// Refund is not burnt: tokens stay with receiver and the supply still adds up.
		h.env.Log(fmt.Sprintf("Sender @%s is not registered, %s stays with @%s", sender, refund, receiver))
		return amount, nil
	}
	if err := h.ledger.Transfer(receiver, sender, refund); err != nil {
		return u128.Zero(), fmt.Errorf("refund: %w", err)
	}
	emitTransfer(h.env, receiver, sender, refund, &refundMemo)

	kept, _ := amount.Sub(refund)
	return kept, nil
}
