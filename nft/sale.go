package nft

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MixinNetwork/mixin/crypto"
	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

type Phase int

const (
	PhaseNotStarted Phase = iota
	PhasePrivate
	PhasePublic
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not-started"
	case PhasePrivate:
		return "private"
	case PhasePublic:
		return "public"
	}
	panic(int(p))
}

// CommitMode decides when quota and escrow are consumed for a batch.
//
// CommitOptimistic consumes both at admission and never gives them back,
// even when the remote batch fails. CommitPessimistic only holds them at
// admission; settlement converts the hold on success and releases it on
// failure.
type CommitMode string

const (
	CommitOptimistic  CommitMode = "optimistic"
	CommitPessimistic CommitMode = "pessimistic"
)

type Metadata struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Media       string `json:"media,omitempty"`
	Reference   string `json:"reference,omitempty"`
}

// SaleConfig is fixed for the lifetime of a sale.
type SaleConfig struct {
	Admin         string
	PaymentAssets []string
	EscrowAsset   string
	Price         decimal.Decimal
	StorageCost   decimal.Decimal
	PrivateStart  time.Time
	PublicStart   time.Time
	Supply        uint64
	Collection    string
	Template      Metadata
	Mode          CommitMode
}

func (s *SaleConfig) Validate() error {
	if !s.PrivateStart.Before(s.PublicStart) {
		return fmt.Errorf("private sale %s should start before public sale %s", s.PrivateStart, s.PublicStart)
	}
	if n := len(s.PaymentAssets); n < 2 || n > 3 {
		return fmt.Errorf("invalid payment assets count %d", n)
	}
	ids := append([]string{s.Admin, s.EscrowAsset}, s.PaymentAssets...)
	seen := make(map[string]bool)
	for _, id := range ids {
		if !validId(id) {
			return fmt.Errorf("invalid id %s", id)
		}
	}
	for _, a := range s.PaymentAssets {
		if seen[a] || a == s.EscrowAsset {
			return fmt.Errorf("duplicated asset %s", a)
		}
		seen[a] = true
	}
	if !validAmount(s.Price) {
		return fmt.Errorf("invalid price %s", s.Price)
	}
	if !validAmount(s.StorageCost) {
		return fmt.Errorf("invalid storage cost %s", s.StorageCost)
	}
	if s.Supply == 0 {
		return fmt.Errorf("empty supply")
	}
	if s.Collection == "" {
		return fmt.Errorf("empty collection")
	}
	switch s.Mode {
	case CommitOptimistic, CommitPessimistic:
	default:
		return fmt.Errorf("invalid commit mode %s", s.Mode)
	}
	return nil
}

// Phase evaluates the public boundary first, so a time past both
// boundaries is always public.
func (s *SaleConfig) Phase(now time.Time) Phase {
	if now.After(s.PublicStart) {
		return PhasePublic
	}
	if now.After(s.PrivateStart) {
		return PhasePrivate
	}
	return PhaseNotStarted
}

func (s *SaleConfig) IsPaymentAsset(id string) bool {
	for _, a := range s.PaymentAssets {
		if a == id {
			return true
		}
	}
	return false
}

// Fingerprint identifies the configuration a store was initialized with.
func (s *SaleConfig) Fingerprint() string {
	norm := *s
	norm.PrivateStart = s.PrivateStart.UTC()
	norm.PublicStart = s.PublicStart.UTC()
	b, err := json.Marshal(norm)
	if err != nil {
		panic(err)
	}
	return crypto.NewHash(b).String()
}

var minimumAmount = decimal.New(1, -8)

// validAmount accepts the amounts a transfer can carry.
func validAmount(amount decimal.Decimal) bool {
	return amount.Cmp(minimumAmount) >= 0 && amount.Truncate(8).Equal(amount)
}

func validId(id string) bool {
	u, err := uuid.FromString(id)
	return err == nil && u != uuid.Nil
}
