package nft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Instruction is the decoded memo of a payment. The set of variants is
// closed, DecodeInstruction never returns anything else.
type Instruction interface {
	Kind() string
}

type Mint struct {
	Quantity uint64 `json:"quantity"`
}

type Prepay struct {
	Account string `json:"account,omitempty"`
}

type Withdraw struct{}

type WhitelistAdd struct {
	Account string          `json:"account"`
	Start   time.Time       `json:"start"`
	Price   decimal.Decimal `json:"price"`
	Cap     uint64          `json:"cap"`
}

type WhitelistRemove struct {
	Account string `json:"account"`
}

type Collect struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
}

func (Mint) Kind() string            { return "mint" }
func (Prepay) Kind() string          { return "prepay" }
func (Withdraw) Kind() string        { return "withdraw" }
func (WhitelistAdd) Kind() string    { return "whitelist_add" }
func (WhitelistRemove) Kind() string { return "whitelist_remove" }
func (Collect) Kind() string         { return "collect" }

// DecodeInstruction parses a memo of the form {"<kind>":{...}}. An empty
// memo decodes to a nil instruction without error.
func DecodeInstruction(memo string) (Instruction, error) {
	if strings.TrimSpace(memo) == "" {
		return nil, nil
	}
	var envelope map[string]json.RawMessage
	err := decodeStrict([]byte(memo), &envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInstruction, err)
	}
	if len(envelope) != 1 {
		return nil, fmt.Errorf("%w: %d keys", ErrMalformedInstruction, len(envelope))
	}

	for kind, raw := range envelope {
		switch kind {
		case "mint":
			var m Mint
			err = decodeStrict(raw, &m)
			if err == nil && m.Quantity == 0 {
				return nil, ErrZeroQuantity
			}
			return m, wrapMalformed(kind, err)
		case "prepay":
			var p Prepay
			err = decodeStrict(raw, &p)
			return p, wrapMalformed(kind, err)
		case "withdraw":
			var w Withdraw
			err = decodeStrict(raw, &w)
			return w, wrapMalformed(kind, err)
		case "whitelist_add":
			var w WhitelistAdd
			err = decodeStrict(raw, &w)
			return w, wrapMalformed(kind, err)
		case "whitelist_remove":
			var w WhitelistRemove
			err = decodeStrict(raw, &w)
			return w, wrapMalformed(kind, err)
		case "collect":
			var c Collect
			err = decodeStrict(raw, &c)
			return c, wrapMalformed(kind, err)
		default:
			return nil, fmt.Errorf("%w: unknown kind %s", ErrMalformedInstruction, kind)
		}
	}
	panic(memo)
}

func decodeStrict(data []byte, v interface{}) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("null value")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("trailing data")
	}
	return nil
}

func wrapMalformed(kind string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s %v", ErrMalformedInstruction, kind, err)
}
