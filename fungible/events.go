package fungible

import (
	"encoding/json"
	"strings"

	"github.com/nspcc-dev/ft-contract/u128"
)

const (
	// EventPrefix starts every event log line.
	EventPrefix = "EVENT_JSON:"

	eventStandard = "nep141"
	eventVersion  = "1.0.0"
)

// Event names.
const (
	EventMint     = "ft_mint"
	EventTransfer = "ft_transfer"
	EventBurn     = "ft_burn"
)

// Event is a standard event envelope.
type Event struct {
	Standard string          `json:"standard"`
	Version  string          `json:"version"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
}

// MintData is a single ft_mint event record.
type MintData struct {
	Owner  string   `json:"owner_id"`
	Amount u128.Int `json:"amount"`
	Memo   *string  `json:"memo,omitempty"`
}

// BurnData is a single ft_burn event record.
type BurnData struct {
	Owner  string   `json:"owner_id"`
	Amount u128.Int `json:"amount"`
	Memo   *string  `json:"memo,omitempty"`
}

// TransferData is a single ft_transfer event record.
type TransferData struct {
	OldOwner string   `json:"old_owner_id"`
	NewOwner string   `json:"new_owner_id"`
	Amount   u128.Int `json:"amount"`
	Memo     *string  `json:"memo,omitempty"`
}

func emit(l Logger, name string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		panic(err)
	}
	line, err := json.Marshal(Event{
		Standard: eventStandard,
		Version:  eventVersion,
		Event:    name,
		Data:     raw,
	})
	if err != nil {
		panic(err)
	}
	l.Log(EventPrefix + string(line))
}

func emitMint(l Logger, owner string, amount u128.Int, memo *string) {
	emit(l, EventMint, []MintData{{Owner: owner, Amount: amount, Memo: memo}})
}

func emitBurn(l Logger, owner string, amount u128.Int, memo *string) {
	emit(l, EventBurn, []BurnData{{Owner: owner, Amount: amount, Memo: memo}})
}

func emitTransfer(l Logger, from, to string, amount u128.Int, memo *string) {
	emit(l, EventTransfer, []TransferData{{OldOwner: from, NewOwner: to, Amount: amount, Memo: memo}})
}

// ParseEvent parses the log line into an event. It returns false if the line
// is not an event.
func ParseEvent(line string) (Event, bool) {
	var ev Event
	body, ok := strings.CutPrefix(line, EventPrefix)
	if !ok {
		return ev, false
	}
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		return ev, false
	}
	return ev, true
}
