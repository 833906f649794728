package mtg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

const (
	TransactionStateInitial = 10
	TransactionStateDone    = 11
)

// ErrInvalidTransaction marks a transaction that can never be built, an
// output whose worker fails with it is parked instead of retried.
var ErrInvalidTransaction = errors.New("invalid transaction")

type Transaction struct {
	TraceId   string
	State     int
	AssetId   string
	Receiver  string
	Amount    string
	Memo      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// the app should decide a unique trace id so that the group will not double spend
func (grp *Group) BuildTransaction(ctx context.Context, assetId, receiver, amount, memo string, traceId string) error {
	for _, id := range []string{assetId, receiver, traceId} {
		uid, err := uuid.FromString(id)
		if err != nil || uid == uuid.Nil {
			return fmt.Errorf("%w: id %s", ErrInvalidTransaction, id)
		}
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil || !validAmount(amt) {
		return fmt.Errorf("%w: amount %s", ErrInvalidTransaction, amount)
	}
	if len(memo) > 200 {
		return fmt.Errorf("%w: memo %s", ErrInvalidTransaction, memo)
	}

	old, err := grp.store.ReadTransaction(traceId)
	if err != nil || old != nil {
		return err
	}
	now := time.Now()
	tx := &Transaction{
		TraceId:   traceId,
		State:     TransactionStateInitial,
		AssetId:   assetId,
		Receiver:  receiver,
		Amount:    amt.String(),
		Memo:      memo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return grp.store.WriteTransaction(tx)
}

// publishTransactions sends the initial transactions in update order. A
// failed transfer is moved to the back of the queue so it never holds up
// the others, the last failure is returned.
func (grp *Group) publishTransactions(ctx context.Context) (int, error) {
	txs, err := grp.store.ListTransactions(TransactionStateInitial, 16)
	if err != nil || len(txs) == 0 {
		return 0, err
	}
	var published int
	var failed error
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return published, err
		}
		err := grp.transferer.Transfer(ctx, tx)
		if err != nil {
			logger.Printf("Transfer(%s, %s, %s) => %v\n", tx.TraceId, tx.AssetId, tx.Amount, err)
			failed = err
			tx.UpdatedAt = time.Now()
			err = grp.store.WriteTransaction(tx)
			if err != nil {
				return published, err
			}
			continue
		}
		tx.State = TransactionStateDone
		tx.UpdatedAt = time.Now()
		err = grp.store.WriteTransaction(tx)
		if err != nil {
			return published, err
		}
		published += 1
		logger.Verbosef("Transfer(%s, %s, %s, %s) done\n", tx.TraceId, tx.AssetId, tx.Receiver, tx.Amount)
	}
	return published, failed
}
