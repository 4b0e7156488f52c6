// Package ftrecv is a token receiver contract used in tests. The msg of
// ft_on_transfer selects how the notification is handled:
//
//	""                          keep everything
//	"refund-all"                return the whole amount as unused
//	"refund:N"                  return N as unused
//	"garbage"                   return a value which is not an amount
//	"fail"                      abort with an error
//	"panic"                     panic
//	"spend:ACCOUNT:N:UNUSED"    transfer N tokens to ACCOUNT, return UNUSED
package ftrecv

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nspcc-dev/ft-contract/host"
	"github.com/nspcc-dev/ft-contract/u128"
)

// Call is a recorded notification.
type Call struct {
	Token  string   `json:"token"`
	Sender string   `json:"sender_id"`
	Amount u128.Int `json:"amount"`
	Msg    string   `json:"msg"`
}

var lastCallKey = []byte("last")

// Contract is the receiver code.
type Contract struct{}

// Invoke implements host.Contract.
func (Contract) Invoke(ctx *host.Context, method string, args []byte) ([]byte, error) {
	switch method {
	case "ft_on_transfer":
		return onTransfer(ctx, args)
	case "get":
		v, err := ctx.Get(lastCallKey)
		if errors.Is(err, host.ErrNotFound) {
			return []byte("null"), nil
		}
		return v, err
	}
	return nil, fmt.Errorf("unknown method %s", method)
}

func onTransfer(ctx *host.Context, args []byte) ([]byte, error) {
	var c Call
	if err := json.Unmarshal(args, &c); err != nil {
		return nil, err
	}
	c.Token = ctx.Predecessor()
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	if err := ctx.Put(lastCallKey, data); err != nil {
		return nil, err
	}

	switch {
	case c.Msg == "":
		return json.Marshal(u128.Zero())
	case c.Msg == "refund-all":
		return json.Marshal(c.Amount)
	case c.Msg == "garbage":
		return []byte(`"not a number"`), nil
	case c.Msg == "fail":
		return nil, errors.New("receiver rejected the transfer")
	case c.Msg == "panic":
		panic("receiver panicked")
	case strings.HasPrefix(c.Msg, "refund:"):
		return []byte(strconv.Quote(strings.TrimPrefix(c.Msg, "refund:"))), nil
	case strings.HasPrefix(c.Msg, "spend:"):
		parts := strings.Split(c.Msg, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid spend message %q", c.Msg)
		}
		transfer, err := json.Marshal(map[string]string{
			"receiver_id": parts[1],
			"amount":      parts[2],
		})
		if err != nil {
			return nil, err
		}
		if _, err := ctx.Dispatch(c.Token, "ft_transfer", transfer, u128.From(1), 10*host.TGas); err != nil {
			return nil, err
		}
		return []byte(strconv.Quote(parts[3])), nil
	}
	return nil, fmt.Errorf("unknown message %q", c.Msg)
}
