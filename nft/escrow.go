package nft

import (
	"context"
	"fmt"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/shopspring/decimal"
)

// Prepay credits the storage deposit of account. A deposit must cover at
// least one item.
func (m *Minter) Prepay(ctx context.Context, account string, amount decimal.Decimal) (*Escrow, error) {
	var e *Escrow
	err := m.step(ctx, func(txn Txn) error {
		r, err := m.prepay(txn, account, amount)
		e = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// WithdrawAll clears the deposit of account and returns the amount owed
// back to it.
func (m *Minter) WithdrawAll(ctx context.Context, account string) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := m.step(ctx, func(txn Txn) error {
		r, err := m.withdrawAll(txn, account)
		amount = r
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func (m *Minter) prepay(txn Txn, account string, amount decimal.Decimal) (*Escrow, error) {
	if !validId(account) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccount, account)
	}
	if amount.LessThan(m.sale.StorageCost) {
		return nil, fmt.Errorf("%w: requires minimum deposit of %s", ErrDepositTooSmall, m.sale.StorageCost)
	}
	e, err := txn.ReadEscrow(account)
	if err != nil {
		return nil, err
	}
	if e == nil {
		e = &Escrow{Account: account}
	}
	e.Balance = e.Balance.Add(amount)
	err = txn.WriteEscrow(e)
	if err != nil {
		return nil, err
	}
	logger.Verbosef("Minter.prepay(%s, %s) => %s\n", account, amount, e.Balance)
	return e, nil
}

func (m *Minter) withdrawAll(txn Txn, account string) (decimal.Decimal, error) {
	e, err := txn.ReadEscrow(account)
	if err != nil {
		return decimal.Zero, err
	}
	if e == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoEscrow, account)
	}
	if e.Outstanding > 0 {
		return decimal.Zero, fmt.Errorf("%w: %d batches", ErrDispatchOutstanding, e.Outstanding)
	}
	if !e.Balance.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrEmptyBalance, account)
	}
	err = txn.DeleteEscrow(account)
	if err != nil {
		return decimal.Zero, err
	}
	logger.Printf("Minter.withdrawAll(%s) => %s\n", account, e.Balance)
	return e.Balance, nil
}

// Collect releases collected sale revenue of a payment asset to the admin.
func (m *Minter) Collect(ctx context.Context, caller, asset string, amount decimal.Decimal) error {
	return m.step(ctx, func(txn Txn) error {
		return m.collect(txn, caller, asset, amount)
	})
}

func (m *Minter) collect(txn Txn, caller, asset string, amount decimal.Decimal) error {
	if caller != m.sale.Admin {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, caller)
	}
	if !m.sale.IsPaymentAsset(asset) {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, asset)
	}
	if !validAmount(amount) {
		return fmt.Errorf("%w: collect amount %s", ErrMalformedInstruction, amount)
	}
	revenue, err := txn.ReadRevenue(asset)
	if err != nil {
		return err
	}
	if revenue.LessThan(amount) {
		return fmt.Errorf("%w: collect %s of %s", ErrInsufficientRevenue, amount, revenue)
	}
	return txn.WriteRevenue(asset, revenue.Sub(amount))
}

func (m *Minter) Revenue(ctx context.Context, asset string) (decimal.Decimal, error) {
	var r decimal.Decimal
	err := m.store.View(ctx, func(txn Txn) error {
		v, err := txn.ReadRevenue(asset)
		r = v
		return err
	})
	return r, err
}
