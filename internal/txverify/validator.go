// Package txverify decides which transactions are admissible against an
// unspent-output set.
//
// Validator checks a single transaction against a read-only snapshot. Acceptor
// resolves an unordered batch of possibly interdependent transactions into a
// maximal mutually-consistent subset, mutating the snapshot as it goes.
package txverify

import (
	"errors"
	"fmt"
	"math"

	"github.com/gabapcia/blockledger/internal/ledger"
	"github.com/gabapcia/blockledger/internal/pkg/types"
	"github.com/gabapcia/blockledger/internal/utxo"

	"github.com/btcsuite/btcd/btcutil"
)

// Rejection reasons returned (wrapped) by Validator.Validate.
var (
	// ErrNotFinalized means the transaction has no content hash yet, so its
	// outputs cannot be referenced.
	ErrNotFinalized = errors.New("transaction not finalized")

	// ErrMissingOutput means an input references an output absent from the snapshot.
	ErrMissingOutput = errors.New("referenced output is not unspent")

	// ErrInvalidSignature means an input's signature does not verify under the
	// owner key of the output it spends.
	ErrInvalidSignature = errors.New("invalid input signature")

	// ErrDuplicateInput means two inputs of the same transaction spend the same output.
	ErrDuplicateInput = errors.New("output claimed more than once")

	// ErrNegativeOutput means an output carries a negative amount.
	ErrNegativeOutput = errors.New("negative output amount")

	// ErrInsufficientInput means the outputs are worth more than the inputs.
	ErrInsufficientInput = errors.New("input value is less than output value")

	// ErrAmountOverflow means the input or output total does not fit in an Amount.
	ErrAmountOverflow = errors.New("amount total overflows")
)

// Validator checks transactions against an unspent-output snapshot.
type Validator struct {
	verifier SignatureVerifier
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithSignatureVerifier replaces the default ECDSA signature verifier.
func WithSignatureVerifier(v SignatureVerifier) ValidatorOption {
	return func(val *Validator) {
		val.verifier = v
	}
}

// NewValidator returns a Validator using ECDSAVerifier unless overridden.
func NewValidator(opts ...ValidatorOption) *Validator {
	v := &Validator{verifier: ECDSAVerifier{}}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns nil if tx may be applied to set, or the first rejection
// reason found. set is only read.
//
// Inputs are checked one by one: the referenced output must exist, the signature
// must verify under that output's owner, and the output must not have been
// claimed by an earlier input. Outputs are then checked for negative amounts,
// and finally the input total must cover the output total. Totals that do not
// fit in an Amount are rejected with ErrAmountOverflow. Unfinalized
// transactions are rejected before anything else.
func (v *Validator) Validate(tx *ledger.Transaction, set *utxo.Set) error {
	if !tx.IsFinalized() {
		return ErrNotFinalized
	}

	var (
		claimed = types.NewSet[ledger.OutputRef]()
		totalIn btcutil.Amount
	)

	for i, in := range tx.Inputs {
		out, ok := set.Get(in.Prev)
		if !ok {
			return fmt.Errorf("%w: input %d spends %s", ErrMissingOutput, i, in.Prev)
		}

		payload, err := tx.SigningPayload(i)
		if err != nil {
			return err
		}

		if !v.verifier.Verify(out.Owner, payload, in.Signature) {
			return fmt.Errorf("%w: input %d", ErrInvalidSignature, i)
		}

		if claimed.Contains(in.Prev) {
			return fmt.Errorf("%w: input %d spends %s", ErrDuplicateInput, i, in.Prev)
		}
		claimed.Add(in.Prev)

		if totalIn, ok = addAmount(totalIn, out.Amount); !ok {
			return fmt.Errorf("%w: input %d", ErrAmountOverflow, i)
		}
	}

	var totalOut btcutil.Amount
	for i, out := range tx.Outputs {
		if out.Amount < 0 {
			return fmt.Errorf("%w: output %d is %d", ErrNegativeOutput, i, int64(out.Amount))
		}

		var ok bool
		if totalOut, ok = addAmount(totalOut, out.Amount); !ok {
			return fmt.Errorf("%w: output %d", ErrAmountOverflow, i)
		}
	}

	if totalIn < totalOut {
		return fmt.Errorf("%w: in=%d out=%d", ErrInsufficientInput, int64(totalIn), int64(totalOut))
	}

	return nil
}

// addAmount returns total+a, or false if a is negative or the sum exceeds
// math.MaxInt64.
func addAmount(total, a btcutil.Amount) (btcutil.Amount, bool) {
	if a < 0 || total > math.MaxInt64-a {
		return total, false
	}
	return total + a, true
}

// IsValid reports whether Validate accepts tx.
func (v *Validator) IsValid(tx *ledger.Transaction, set *utxo.Set) bool {
	return v.Validate(tx, set) == nil
}
