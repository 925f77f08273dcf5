// internal/royalty/errors.go
package royalty

import "errors"

// Claim validation failures. These are rejected locally and never reach the
// ledger gateway; each maps to a distinct user-facing message.
var (
	ErrUnknownRecord   = errors.New("royalty: no record for asset")
	ErrNotOwner        = errors.New("royalty: active account does not own asset")
	ErrNothingPending  = errors.New("royalty: no pending royalty balance")
	ErrClaimInFlight   = errors.New("royalty: a claim for this asset is already in flight")
	ErrBadConfirmation = errors.New("royalty: unknown or expired claim confirmation")
	ErrNoActiveAccount = errors.New("royalty: no active account")
)
