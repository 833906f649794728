package nft

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/MixinNetwork/mixin/logger"
	"github.com/shopspring/decimal"
)

// Minter owns the sale state. Every exported mutation is one atomic step
// and steps never interleave.
type Minter struct {
	mu    sync.Mutex
	store Store
	sale  *SaleConfig
}

func NewMinter(ctx context.Context, store Store, sale *SaleConfig) (*Minter, error) {
	err := sale.Validate()
	if err != nil {
		return nil, err
	}
	m := &Minter{store: store, sale: sale}
	err = m.step(ctx, func(txn Txn) error {
		fp, err := txn.ReadSaleFingerprint()
		if err != nil {
			return err
		}
		if fp != "" && fp != sale.Fingerprint() {
			return fmt.Errorf("sale configuration changed %s %s", fp, sale.Fingerprint())
		}
		if fp != "" {
			return nil
		}
		logger.Printf("Minter.NewMinter(%s, %d, %s)\n", sale.Collection, sale.Supply, sale.Mode)
		err = txn.WriteSaleFingerprint(sale.Fingerprint())
		if err != nil {
			return err
		}
		return txn.WriteInventory(&Inventory{Supply: sale.Supply, Cursor: sale.Supply})
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Minter) Sale() *SaleConfig {
	return m.sale
}

func (m *Minter) step(ctx context.Context, fn func(Txn) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.store.Step(ctx, fn)
}

// Payment is an incoming transfer notification.
type Payment struct {
	TraceId string
	Sender  string
	Asset   string
	Amount  decimal.Decimal
	Memo    string
}

// OnPayment handles one payment notification. A rejected payment yields a
// receipt refunding the full amount together with the rejection error;
// a nil receipt means the step failed for reasons other than the payment
// itself and may be retried. Replaying a processed payment returns the
// recorded receipt.
func (m *Minter) OnPayment(ctx context.Context, pay *Payment, now time.Time) (*Receipt, error) {
	var old *Receipt
	err := m.store.View(ctx, func(txn Txn) error {
		r, err := txn.ReadReceipt(pay.TraceId)
		old = r
		return err
	})
	if err != nil {
		return nil, err
	}
	if old != nil {
		return old, old.Err()
	}

	var receipt *Receipt
	err = m.step(ctx, func(txn Txn) error {
		r, err := m.handlePayment(txn, pay, now)
		if err != nil {
			return err
		}
		r.TraceId = pay.TraceId
		receipt = r
		return txn.WriteReceipt(r)
	})
	if err == nil {
		return receipt, nil
	}
	if !IsRejection(err) {
		return nil, err
	}

	logger.Verbosef("Minter.OnPayment(%s, %s, %s) => %v\n", pay.TraceId, pay.Sender, pay.Amount, err)
	receipt = &Receipt{
		TraceId: pay.TraceId,
		Kind:    "rejected",
		Phase:   m.sale.Phase(now),
		Reason:  rejectionCode(err),
		Detail:  err.Error(),
	}
	receipt.refund(pay)
	serr := m.step(ctx, func(txn Txn) error {
		return txn.WriteReceipt(receipt)
	})
	if serr != nil {
		return nil, serr
	}
	return receipt, err
}

func (m *Minter) handlePayment(txn Txn, pay *Payment, now time.Time) (*Receipt, error) {
	if !validId(pay.Sender) {
		return nil, fmt.Errorf("%w: sender %s", ErrInvalidAccount, pay.Sender)
	}
	isEscrow := pay.Asset == m.sale.EscrowAsset
	if !isEscrow && !m.sale.IsPaymentAsset(pay.Asset) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, pay.Asset)
	}
	inst, err := DecodeInstruction(pay.Memo)
	if err != nil {
		return nil, err
	}

	receipt := &Receipt{Phase: m.sale.Phase(now)}
	if inst == nil && isEscrow {
		inst = Prepay{}
	}
	if inst == nil {
		logger.Verbosef("Minter.OnPayment(%s) empty instruction\n", pay.TraceId)
		receipt.Kind = "refund"
		receipt.refund(pay)
		return receipt, nil
	}
	receipt.Kind = inst.Kind()

	switch inst := inst.(type) {
	case Mint:
		if isEscrow {
			return nil, fmt.Errorf("%w: mint paid with escrow asset", ErrUnknownAsset)
		}
		return receipt, m.mint(txn, receipt, pay, inst.Quantity, now)
	case Prepay:
		if !isEscrow {
			return nil, fmt.Errorf("%w: prepay with %s", ErrUnknownAsset, pay.Asset)
		}
		account := inst.Account
		if account == "" {
			account = pay.Sender
		}
		_, err := m.prepay(txn, account, pay.Amount)
		return receipt, err
	case Withdraw:
		amount, err := m.withdrawAll(txn, pay.Sender)
		if err != nil {
			return nil, err
		}
		receipt.refund(pay)
		receipt.Transfers = append(receipt.Transfers, &Transfer{
			Purpose:  "withdraw",
			Asset:    m.sale.EscrowAsset,
			Receiver: pay.Sender,
			Amount:   amount,
		})
		return receipt, nil
	case WhitelistAdd:
		err := m.addEntry(txn, pay.Sender, &WhitelistEntry{
			Account: inst.Account,
			Start:   inst.Start,
			Price:   inst.Price,
			Cap:     inst.Cap,
		})
		if err != nil {
			return nil, err
		}
		receipt.refund(pay)
		return receipt, nil
	case WhitelistRemove:
		err := m.removeEntry(txn, pay.Sender, inst.Account)
		if err != nil {
			return nil, err
		}
		receipt.refund(pay)
		return receipt, nil
	case Collect:
		err := m.collect(txn, pay.Sender, inst.Asset, inst.Amount)
		if err != nil {
			return nil, err
		}
		receipt.refund(pay)
		receipt.Transfers = append(receipt.Transfers, &Transfer{
			Purpose:  "collect",
			Asset:    inst.Asset,
			Receiver: m.sale.Admin,
			Amount:   inst.Amount,
		})
		return receipt, nil
	}
	panic(inst.Kind())
}

func (m *Minter) mint(txn Txn, receipt *Receipt, pay *Payment, quantity uint64, now time.Time) error {
	decision, err := m.authorize(txn, pay.Sender, quantity, pay.Amount, now)
	if err != nil {
		return err
	}
	if !decision.Approved {
		logger.Verbosef("Minter.mint(%s) sale not started\n", pay.TraceId)
		receipt.refund(pay)
		return nil
	}
	batch, err := m.dispatch(txn, pay.TraceId, pay.Sender, pay.Sender, quantity, now)
	if err != nil {
		return err
	}
	revenue, err := txn.ReadRevenue(pay.Asset)
	if err != nil {
		return err
	}
	err = txn.WriteRevenue(pay.Asset, revenue.Add(pay.Amount))
	if err != nil {
		return err
	}
	receipt.BatchId = batch.Id
	return nil
}

func (r *Receipt) refund(pay *Payment) {
	if !pay.Amount.IsPositive() {
		return
	}
	r.Transfers = append(r.Transfers, &Transfer{
		Purpose:  "refund",
		Asset:    pay.Asset,
		Receiver: pay.Sender,
		Amount:   pay.Amount,
	})
}

// BalanceOf returns nil when the account never prepaid.
func (m *Minter) BalanceOf(ctx context.Context, account string) (*Escrow, error) {
	var e *Escrow
	err := m.store.View(ctx, func(txn Txn) error {
		r, err := txn.ReadEscrow(account)
		e = r
		return err
	})
	return e, err
}

// MintedOf returns nil when the account never minted.
func (m *Minter) MintedOf(ctx context.Context, account string) (*Minted, error) {
	var mt *Minted
	err := m.store.View(ctx, func(txn Txn) error {
		r, err := txn.ReadMinted(account)
		mt = r
		return err
	})
	return mt, err
}

func (m *Minter) Inventory(ctx context.Context) (*Inventory, error) {
	var inv *Inventory
	err := m.store.View(ctx, func(txn Txn) error {
		r, err := txn.ReadInventory()
		inv = r
		return err
	})
	return inv, err
}

func (m *Minter) ReadBatch(ctx context.Context, id uint64) (*Batch, error) {
	var b *Batch
	err := m.store.View(ctx, func(txn Txn) error {
		r, err := txn.ReadBatch(id)
		b = r
		return err
	})
	return b, err
}

func decimalFromUint(n uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0)
}
