package nft

import "errors"

// Rejections. A payment rejected with any of these is refunded in full and
// leaves quota, escrow and inventory untouched.
var (
	ErrPaymentMismatch      = errors.New("payment mismatch")
	ErrSupplyExhausted      = errors.New("supply exhausted")
	ErrNoEscrow             = errors.New("no escrow")
	ErrNotWhitelisted       = errors.New("not whitelisted")
	ErrQuotaExceeded        = errors.New("quota exceeded")
	ErrInsufficientEscrow   = errors.New("insufficient escrow")
	ErrMalformedInstruction = errors.New("malformed instruction")
	ErrZeroQuantity         = errors.New("zero quantity")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrDuplicateEntry       = errors.New("duplicate entry")
	ErrNotFound             = errors.New("not found")
	ErrEmptyBalance         = errors.New("empty balance")
	ErrUnknownAsset         = errors.New("unknown asset")
	ErrInvalidAccount       = errors.New("invalid account")
	ErrDepositTooSmall      = errors.New("deposit too small")
	ErrDispatchOutstanding  = errors.New("dispatch outstanding")
	ErrInsufficientRevenue  = errors.New("insufficient revenue")
)

// Settlement faults.
var (
	ErrUnderflow         = errors.New("inventory underflow")
	ErrRemoteBatchFailed = errors.New("remote batch failed")
	ErrAlreadySettled    = errors.New("batch already settled")
	ErrInconsistent      = errors.New("inconsistent settlement")
	ErrIssuerRejected    = errors.New("issuer rejected item")
)

var rejections = []error{
	ErrPaymentMismatch,
	ErrSupplyExhausted,
	ErrNoEscrow,
	ErrNotWhitelisted,
	ErrQuotaExceeded,
	ErrInsufficientEscrow,
	ErrMalformedInstruction,
	ErrZeroQuantity,
	ErrNotAuthorized,
	ErrDuplicateEntry,
	ErrNotFound,
	ErrEmptyBalance,
	ErrUnknownAsset,
	ErrInvalidAccount,
	ErrDepositTooSmall,
	ErrDispatchOutstanding,
	ErrInsufficientRevenue,
}

// IsRejection reports whether err is a recoverable rejection of the
// triggering call rather than a storage or internal failure.
func IsRejection(err error) bool {
	return rejectionCode(err) != ""
}

func rejectionCode(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range rejections {
		if errors.Is(err, r) {
			return r.Error()
		}
	}
	return ""
}

func rejectionFromCode(code string) error {
	for _, r := range rejections {
		if r.Error() == code {
			return r
		}
	}
	return nil
}
