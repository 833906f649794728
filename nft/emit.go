package nft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
)

// ProcessBatches emits up to limit reserved batches to the issuer in
// dispatch order and settles each batch whose outcome is known. A batch
// with an item in unknown state stays reserved and is resumed from its
// first unacknowledged item on the next call. It returns the number of
// batches settled.
func (m *Minter) ProcessBatches(ctx context.Context, issuer Issuer, limit int) (int, error) {
	batches, err := m.store.ListBatches(BatchStateReserved, limit)
	if err != nil {
		return 0, err
	}
	var settled int
	for _, b := range batches {
		outcome, known := m.emit(ctx, issuer, b)
		if err := ctx.Err(); err != nil {
			return settled, err
		}
		if !known {
			continue
		}
		_, err := m.Settle(ctx, b.Id, b.Quantity, []Outcome{outcome}, time.Now())
		if err != nil && !errors.Is(err, ErrRemoteBatchFailed) {
			logger.Printf("Minter.Settle(%d) => %v\n", b.Id, err)
			continue
		}
		settled += 1
	}
	return settled, nil
}

// emit sends the unacknowledged items in order and records every item the
// issuer confirms. The outcome is known only when all items are confirmed
// or the issuer definitely rejected one of them.
func (m *Minter) emit(ctx context.Context, issuer Issuer, b *Batch) (Outcome, bool) {
	for i := b.Acknowledged; i < uint64(len(b.Items)); i++ {
		item := b.Items[i]
		err := issuer.CreateItem(ctx, m.sale.Collection, item)
		if errors.Is(err, ErrIssuerRejected) {
			logger.Printf("Issuer.CreateItem(%d, %d) => %v\n", b.Id, item.Sequence, err)
			return OutcomeFailure, true
		} else if err != nil {
			logger.Verbosef("Issuer.CreateItem(%d, %d) => %v\n", b.Id, item.Sequence, err)
			return 0, false
		}
		err = m.acknowledge(ctx, b.Id, i+1)
		if err != nil {
			logger.Printf("Minter.acknowledge(%d, %d) => %v\n", b.Id, i+1, err)
			return 0, false
		}
		b.Acknowledged = i + 1
	}
	return OutcomeSuccess, true
}

func (m *Minter) acknowledge(ctx context.Context, id, count uint64) error {
	return m.step(ctx, func(txn Txn) error {
		b, err := txn.ReadBatch(id)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%w: batch %d", ErrNotFound, id)
		}
		if b.State != BatchStateReserved || b.Acknowledged >= count {
			return nil
		}
		b.Acknowledged = count
		return txn.WriteBatch(b)
	})
}
