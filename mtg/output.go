package mtg

import (
	"fmt"
	"time"

	"github.com/fox-one/mixin-sdk-go"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

const (
	OutputStateUnspent = 10
	OutputStateSpent   = 12
)

type Output struct {
	UTXOID    string
	AssetID   string
	Sender    string
	Amount    decimal.Decimal
	Memo      string
	State     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (out *Output) StateName() string {
	switch out.State {
	case OutputStateUnspent:
		return mixin.UTXOStateUnspent
	case OutputStateSpent:
		return mixin.UTXOStateSpent
	}
	panic(out.State)
}

var minimumAmount = decimal.New(1, -8)

// validAmount accepts the amounts a transfer can carry, at least 1e-8 with
// no more than 8 decimal places.
func validAmount(amount decimal.Decimal) bool {
	return amount.Cmp(minimumAmount) >= 0 && amount.Truncate(8).Equal(amount)
}

func (out *Output) validate() error {
	for _, id := range []string{out.UTXOID, out.AssetID, out.Sender} {
		uid, err := uuid.FromString(id)
		if err != nil || uid == uuid.Nil {
			return fmt.Errorf("invalid output id %s", id)
		}
	}
	if !validAmount(out.Amount) {
		return fmt.Errorf("invalid output amount %s", out.Amount)
	}
	if out.CreatedAt.IsZero() {
		return fmt.Errorf("invalid output time %s", out.UTXOID)
	}
	return nil
}
