package fungible

import (
	"encoding/json"
	"fmt"

	"github.com/nspcc-dev/ft-contract/common"
	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
)

const (
	// GasForResolveTransfer is attached to the ft_resolve_transfer
	// continuation.
	GasForResolveTransfer = 5 * host.TGas
	// GasForFtTransferCall is the minimum prepaid gas of ft_transfer_call.
	// Everything above it is given to the receiver.
	GasForFtTransferCall = 25*host.TGas + GasForResolveTransfer

	// MethodOnTransfer is called on the receiver by ft_transfer_call.
	MethodOnTransfer = "ft_on_transfer"
	// MethodResolveTransfer is the continuation of ft_transfer_call.
	MethodResolveTransfer = "ft_resolve_transfer"
)

// OnTransferArgs are arguments of the receiver notification. The receiver
// returns the unused amount as a JSON string.
type OnTransferArgs struct {
	Sender string   `json:"sender_id"`
	Amount u128.Int `json:"amount"`
	Msg    string   `json:"msg"`
}

// ResolveTransferArgs is the state bound to the resolve continuation.
type ResolveTransferArgs struct {
	Sender   string   `json:"sender_id"`
	Receiver string   `json:"receiver_id"`
	Amount   u128.Int `json:"amount"`
}

// TransferEngine performs plain and notifying transfers on behalf of the
// predecessor.
type TransferEngine struct {
	env    Env
	ledger *Ledger
}

// NewTransferEngine returns TransferEngine moving tokens in ledger.
func NewTransferEngine(env Env, ledger *Ledger) *TransferEngine {
	return &TransferEngine{env: env, ledger: ledger}
}

func (e *TransferEngine) transfer(receiver string, amount u128.Int, memo *string) (string, error) {
	if err := common.AssertOneUnit(e.env); err != nil {
		return "", err
	}
	sender := e.env.Predecessor()
	if err := e.ledger.Transfer(sender, receiver, amount); err != nil {
		return "", err
	}
	emitTransfer(e.env, sender, receiver, amount, memo)
	return sender, nil
}

// FtTransfer moves amount from the predecessor to receiver.
func (e *TransferEngine) FtTransfer(receiver string, amount u128.Int, memo *string) error {
	_, err := e.transfer(receiver, amount, memo)
	return err
}

// FtTransferCall moves amount from the predecessor to receiver and notifies
// receiver with msg. The call result becomes the result of the resolve
// continuation, i.e. the amount finally kept by receiver.
func (e *TransferEngine) FtTransferCall(receiver string, amount u128.Int, memo *string, msg string) error {
	if prepaid := e.env.PrepaidGas(); prepaid < GasForFtTransferCall {
		return fmt.Errorf("%w: %d < %d", ErrInsufficientGas, prepaid, GasForFtTransferCall)
	}
	sender, err := e.transfer(receiver, amount, memo)
	if err != nil {
		return err
	}

	notify, err := json.Marshal(OnTransferArgs{Sender: sender, Amount: amount, Msg: msg})
	if err != nil {
		return err
	}
	receiverGas := e.env.PrepaidGas() - GasForFtTransferCall
	if left := e.env.PrepaidGas() - e.env.UsedGas(); left < receiverGas+GasForResolveTransfer+2*host.CostDispatch {
		return fmt.Errorf("%w: %d left for %d attached to %s", ErrInsufficientGas, left, receiverGas, MethodOnTransfer)
	}
	p, err := e.env.Dispatch(receiver, MethodOnTransfer, notify, u128.Zero(), receiverGas)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", MethodOnTransfer, err)
	}

	bound, err := json.Marshal(ResolveTransferArgs{Sender: sender, Receiver: receiver, Amount: amount})
	if err != nil {
		return err
	}
	cb, err := e.env.RegisterContinuation(p, MethodResolveTransfer, bound, GasForResolveTransfer)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", MethodResolveTransfer, err)
	}
	return e.env.ReturnPromise(cb)
}
