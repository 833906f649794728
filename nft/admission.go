package nft

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Decision struct {
	Phase     Phase
	UnitPrice decimal.Decimal
	Approved  bool
}

// Authorize evaluates admission for a mint request against the current
// state without changing it. Only OnPayment commits the quota update.
func (m *Minter) Authorize(ctx context.Context, caller string, quantity uint64, paid decimal.Decimal, now time.Time) (*Decision, error) {
	var d *Decision
	err := m.store.View(ctx, func(txn Txn) error {
		r, _, err := m.evaluate(txn, caller, quantity, paid, now)
		d = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// UnitPrice is the whitelist price during the private phase and the base
// price otherwise.
func (m *Minter) UnitPrice(entry *WhitelistEntry, phase Phase) decimal.Decimal {
	if phase == PhasePrivate && entry != nil {
		return entry.Price
	}
	return m.sale.Price
}

func (m *Minter) authorize(txn Txn, caller string, quantity uint64, paid decimal.Decimal, now time.Time) (*Decision, error) {
	decision, minted, err := m.evaluate(txn, caller, quantity, paid, now)
	if err != nil || !decision.Approved {
		return decision, err
	}
	switch m.sale.Mode {
	case CommitOptimistic:
		minted.Count += quantity
	case CommitPessimistic:
		minted.Pending += quantity
	}
	err = txn.WriteMinted(minted)
	if err != nil {
		return nil, err
	}
	return decision, nil
}

func (m *Minter) evaluate(txn Txn, caller string, quantity uint64, paid decimal.Decimal, now time.Time) (*Decision, *Minted, error) {
	if quantity == 0 {
		return nil, nil, ErrZeroQuantity
	}
	phase := m.sale.Phase(now)
	entry, err := txn.ReadWhitelistEntry(caller)
	if err != nil {
		return nil, nil, err
	}
	price := m.UnitPrice(entry, phase)
	expected := price.Mul(decimalFromUint(quantity))
	if !paid.Equal(expected) {
		return nil, nil, fmt.Errorf("%w: minting price %s, paid %s", ErrPaymentMismatch, expected, paid)
	}

	inv, err := txn.ReadInventory()
	if err != nil {
		return nil, nil, err
	}
	if inv == nil || quantity > inv.Cursor {
		return nil, nil, fmt.Errorf("%w: requested %d", ErrSupplyExhausted, quantity)
	}
	escrow, err := txn.ReadEscrow(caller)
	if err != nil {
		return nil, nil, err
	}
	if escrow == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoEscrow, caller)
	}

	decision := &Decision{Phase: phase, UnitPrice: price}
	if phase == PhaseNotStarted {
		return decision, nil, nil
	}

	minted, err := txn.ReadMinted(caller)
	if err != nil {
		return nil, nil, err
	}
	if minted == nil {
		minted = &Minted{Account: caller}
	}
	if phase == PhasePrivate {
		if entry == nil {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotWhitelisted, caller)
		}
		if !entry.Start.IsZero() && now.Before(entry.Start) {
			return nil, nil, fmt.Errorf("%w: %s eligible from %s", ErrNotWhitelisted, caller, entry.Start)
		}
		used := minted.Count + minted.Pending
		if used > entry.Cap || quantity > entry.Cap-used {
			return nil, nil, fmt.Errorf("%w: minted %d, requested %d, cap %d", ErrQuotaExceeded, used, quantity, entry.Cap)
		}
	}

	decision.Approved = true
	return decision, minted, nil
}
