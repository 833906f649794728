package nft

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Txn is the view of the keyed stores inside one atomic step. Reads
// return nil without error for absent records.
type Txn interface {
	ReadSaleFingerprint() (string, error)
	WriteSaleFingerprint(fp string) error

	ReadInventory() (*Inventory, error)
	WriteInventory(inv *Inventory) error

	ReadWhitelistEntry(account string) (*WhitelistEntry, error)
	WriteWhitelistEntry(e *WhitelistEntry) error
	DeleteWhitelistEntry(account string) error
	ListWhitelistEntries(offset, limit int) ([]*WhitelistEntry, error)

	ReadMinted(account string) (*Minted, error)
	WriteMinted(m *Minted) error

	ReadEscrow(account string) (*Escrow, error)
	WriteEscrow(e *Escrow) error
	DeleteEscrow(account string) error

	NextBatchId() (uint64, error)
	ReadBatch(id uint64) (*Batch, error)
	WriteBatch(b *Batch) error

	ReadRevenue(asset string) (decimal.Decimal, error)
	WriteRevenue(asset string, amount decimal.Decimal) error

	ReadReceipt(traceId string) (*Receipt, error)
	WriteReceipt(r *Receipt) error
}

type Store interface {
	// Step runs fn in one read-write transaction. Nothing fn wrote is
	// kept when it returns an error.
	Step(ctx context.Context, fn func(Txn) error) error
	View(ctx context.Context, fn func(Txn) error) error
	ListBatches(state int, limit int) ([]*Batch, error)
}

// Issuer is the remote actor creating the items. Only an error wrapping
// ErrIssuerRejected is a definite refusal of the item, any other error
// leaves the item state unknown and the item is sent again later with the
// same trace id.
type Issuer interface {
	CreateItem(ctx context.Context, collection string, item *Item) error
}

type WhitelistEntry struct {
	Account  string
	Start    time.Time
	Price    decimal.Decimal
	Cap      uint64
	Sequence uint64
}

type Minted struct {
	Account string
	Count   uint64
	Pending uint64
}

type Escrow struct {
	Account     string
	Balance     decimal.Decimal
	Held        decimal.Decimal
	Outstanding uint64
}

// Available is the part of the balance not held by an unsettled batch.
func (e *Escrow) Available() decimal.Decimal {
	return e.Balance.Sub(e.Held)
}

// Inventory tracks the supply not minted successfully, the next free
// sequence id, and the ids burned by failed batches. Supply always equals
// Cursor plus Unsellable plus the quantity of reserved batches.
type Inventory struct {
	Supply     uint64
	Cursor     uint64
	Unsellable uint64
}

const (
	BatchStateReserved = 10
	BatchStateSettled  = 11
	BatchStateVoided   = 12
	BatchStatePartial  = 13
)

type Item struct {
	TraceId           string
	Sequence          uint64
	Recipient         string
	Metadata          Metadata
	Hash              string
	ResidualRecipient string
	Attached          decimal.Decimal
}

type Batch struct {
	Id        uint64
	TraceId   string
	Account   string
	Recipient string
	Quantity  uint64
	Cost      decimal.Decimal
	Mode      CommitMode
	Items     []*Item
	State     int
	CreatedAt time.Time
	UpdatedAt time.Time

	// Acknowledged counts the leading items the issuer confirmed.
	Acknowledged uint64
}

func (b *Batch) StateName() string {
	switch b.State {
	case BatchStateReserved:
		return "reserved"
	case BatchStateSettled:
		return "settled"
	case BatchStateVoided:
		return "voided"
	case BatchStatePartial:
		return "partial"
	}
	panic(b.State)
}

type Outcome int

const (
	OutcomeSuccess Outcome = iota + 1
	OutcomeFailure
)

// Transfer is value this service owes to someone as the result of a
// payment. Purpose is unique within a receipt.
type Transfer struct {
	Purpose  string
	Asset    string
	Receiver string
	Amount   decimal.Decimal
}

type Receipt struct {
	TraceId   string
	Kind      string
	Phase     Phase
	BatchId   uint64
	Reason    string
	Detail    string
	Transfers []*Transfer
}

// Err returns the rejection the receipt was recorded for, if any.
func (r *Receipt) Err() error {
	if r.Reason == "" {
		return nil
	}
	err := rejectionFromCode(r.Reason)
	if err == nil || r.Detail == "" || r.Detail == r.Reason {
		return err
	}
	return fmt.Errorf("%w: %s", err, strings.TrimPrefix(r.Detail, r.Reason+": "))
}
