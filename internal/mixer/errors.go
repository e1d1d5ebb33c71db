// errors.go - Error taxonomy for the mixer pool.
//
// Every error is terminal for the operation that raised it; the pool never
// retries internally. Validation errors leave all state untouched. The two
// payment errors are raised after the nullifier is already marked spent
// (see pool.go for the ordering rationale).

package mixer

import "errors"

// Construction errors.
var (
	ErrInvalidDenomination = errors.New("mixer: denomination must be positive")
	ErrNilCapability       = errors.New("mixer: hasher, verifier and transfer must be non-nil")
)

// ErrNilArgument is returned when a required scalar argument is nil.
var ErrNilArgument = errors.New("mixer: nil argument")

// Deposit errors.
var (
	ErrWrongAmount         = errors.New("mixer: attached value does not match denomination")
	ErrDuplicateCommitment = errors.New("mixer: commitment already submitted")
	ErrCapacityExceeded    = errors.New("mixer: deposit tree is full")
)

// Withdraw errors.
var (
	ErrFeeExceedsDenomination = errors.New("mixer: fee exceeds denomination")
	ErrAlreadySpent           = errors.New("mixer: nullifier already spent")
	ErrUnknownRoot            = errors.New("mixer: root is not known")
	ErrInvalidProof           = errors.New("mixer: proof verification failed")
	ErrRecipientPaymentFailed = errors.New("mixer: payment to recipient failed")
	ErrRelayerPaymentFailed   = errors.New("mixer: payment to relayer failed")
)

// ErrReentrantCall is returned when a mutating operation is invoked while
// another mutating operation on the same pool is still in flight, e.g. from
// code run by the ValueTransfer capability.
var ErrReentrantCall = errors.New("mixer: reentrant call")
