package nft

import (
	"context"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/logger"
)

// Settle is the continuation of a dispatched batch. results must hold
// exactly the one aggregate outcome of the batch. A batch settles at most
// once; later calls fail with ErrAlreadySettled.
//
// On failure ErrRemoteBatchFailed is returned. A failed batch with no
// acknowledged item is voided, otherwise it settles partially and only the
// acknowledged items leave the supply. The sequence ids of the items never
// created are burned into Inventory.Unsellable. In the optimistic mode the
// quota and escrow consumed at admission stay consumed, in the pessimistic
// mode the holds of the unacknowledged items are released.
func (m *Minter) Settle(ctx context.Context, id, quantity uint64, results []Outcome, now time.Time) (*Batch, error) {
	if len(results) != 1 {
		panic(fmt.Errorf("batch %d settled with %d outcomes", id, len(results)))
	}
	outcome := results[0]
	if outcome != OutcomeSuccess && outcome != OutcomeFailure {
		panic(outcome)
	}

	var batch *Batch
	err := m.step(ctx, func(txn Txn) error {
		b, err := txn.ReadBatch(id)
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("%w: batch %d", ErrNotFound, id)
		}
		if b.State != BatchStateReserved {
			return fmt.Errorf("%w: batch %d %s", ErrAlreadySettled, id, b.StateName())
		}
		if b.Quantity != quantity {
			return fmt.Errorf("%w: batch %d quantity %d, settled %d", ErrInconsistent, id, b.Quantity, quantity)
		}
		err = m.settle(txn, b, outcome)
		if err != nil {
			return err
		}
		b.UpdatedAt = now
		batch = b
		return txn.WriteBatch(b)
	})
	if err != nil {
		return nil, err
	}

	logger.Printf("Minter.Settle(%d, %d) => %s\n", id, quantity, batch.StateName())
	if batch.State == BatchStateVoided || batch.State == BatchStatePartial {
		return batch, fmt.Errorf("%w: batch %d", ErrRemoteBatchFailed, id)
	}
	return batch, nil
}

func (m *Minter) settle(txn Txn, b *Batch, outcome Outcome) error {
	escrow, err := txn.ReadEscrow(b.Account)
	if err != nil {
		return err
	}
	if escrow == nil || escrow.Outstanding == 0 {
		return fmt.Errorf("%w: batch %d without outstanding escrow", ErrInconsistent, b.Id)
	}
	minted, err := txn.ReadMinted(b.Account)
	if err != nil {
		return err
	}
	pessimistic := b.Mode == CommitPessimistic
	if pessimistic && (minted == nil || minted.Pending < b.Quantity || escrow.Held.LessThan(b.Cost)) {
		return fmt.Errorf("%w: batch %d without holds", ErrInconsistent, b.Id)
	}

	inv, err := txn.ReadInventory()
	if err != nil {
		return err
	}
	switch outcome {
	case OutcomeSuccess:
		if inv.Supply < b.Quantity {
			return fmt.Errorf("%w: supply %d, batch %d", ErrUnderflow, inv.Supply, b.Quantity)
		}
		inv.Supply -= b.Quantity
		if pessimistic {
			minted.Pending -= b.Quantity
			minted.Count += b.Quantity
			escrow.Held = escrow.Held.Sub(b.Cost)
			escrow.Balance = escrow.Balance.Sub(b.Cost)
		}
		b.State = BatchStateSettled
	case OutcomeFailure:
		acked := b.Acknowledged
		if acked > b.Quantity || acked > uint64(len(b.Items)) {
			return fmt.Errorf("%w: batch %d acknowledged %d of %d", ErrInconsistent, b.Id, acked, b.Quantity)
		}
		if inv.Supply < acked {
			return fmt.Errorf("%w: supply %d, acknowledged %d", ErrUnderflow, inv.Supply, acked)
		}
		inv.Supply -= acked
		inv.Unsellable += b.Quantity - acked
		if pessimistic {
			minted.Pending -= b.Quantity
			minted.Count += acked
			escrow.Held = escrow.Held.Sub(b.Cost)
			for _, item := range b.Items[:acked] {
				escrow.Balance = escrow.Balance.Sub(item.Attached)
			}
		}
		b.State = BatchStateVoided
		if acked > 0 {
			b.State = BatchStatePartial
		}
	}
	err = txn.WriteInventory(inv)
	if err != nil {
		return err
	}

	if pessimistic {
		err = txn.WriteMinted(minted)
		if err != nil {
			return err
		}
	}
	escrow.Outstanding -= 1
	return txn.WriteEscrow(escrow)
}
