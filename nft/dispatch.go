package nft

import (
	"fmt"
	"strconv"
	"time"

	"github.com/MixinNetwork/mixin/crypto"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/fox-one/mixin-sdk-go"
)

// dispatch reserves escrow and inventory for quantity items and records
// the batch. The batch is emitted to the issuer once the step commits, see
// ProcessBatches.
func (m *Minter) dispatch(txn Txn, origin, account, recipient string, quantity uint64, now time.Time) (*Batch, error) {
	cost := m.sale.StorageCost.Mul(decimalFromUint(quantity))
	escrow, err := txn.ReadEscrow(account)
	if err != nil {
		return nil, err
	}
	if escrow == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoEscrow, account)
	}
	if escrow.Available().LessThan(cost) {
		return nil, fmt.Errorf("%w: minimum required %s, available %s", ErrInsufficientEscrow, cost, escrow.Available())
	}
	inv, err := txn.ReadInventory()
	if err != nil {
		return nil, err
	}
	if quantity > inv.Cursor {
		return nil, fmt.Errorf("%w: requested %d", ErrSupplyExhausted, quantity)
	}

	id, err := txn.NextBatchId()
	if err != nil {
		return nil, err
	}
	batch := &Batch{
		Id:        id,
		TraceId:   mixin.UniqueConversationID(origin, "mint"),
		Account:   account,
		Recipient: recipient,
		Quantity:  quantity,
		Cost:      cost,
		Mode:      m.sale.Mode,
		State:     BatchStateReserved,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for n := uint64(0); n < quantity; n++ {
		seq := inv.Cursor - n - 1
		item := &Item{
			TraceId:   mixin.UniqueConversationID(batch.TraceId, strconv.FormatUint(seq, 10)),
			Sequence:  seq,
			Recipient: recipient,
			Metadata:  m.sale.Template,
			Hash:      crypto.NewHash([]byte(m.sale.Collection + ":" + strconv.FormatUint(seq, 10))).String(),
			Attached:  m.sale.StorageCost,
		}
		if n == quantity-1 {
			item.ResidualRecipient = recipient
		}
		batch.Items = append(batch.Items, item)
	}
	inv.Cursor -= quantity

	switch m.sale.Mode {
	case CommitOptimistic:
		escrow.Balance = escrow.Balance.Sub(cost)
	case CommitPessimistic:
		escrow.Held = escrow.Held.Add(cost)
	}
	escrow.Outstanding += 1

	err = txn.WriteEscrow(escrow)
	if err != nil {
		return nil, err
	}
	err = txn.WriteInventory(inv)
	if err != nil {
		return nil, err
	}
	err = txn.WriteBatch(batch)
	if err != nil {
		return nil, err
	}
	logger.Verbosef("Minter.dispatch(%d, %s, %d, %s)\n", batch.Id, account, quantity, cost)
	return batch, nil
}
