package txverify

import (
	"github.com/gabapcia/blockledger/internal/ledger"
	"github.com/gabapcia/blockledger/internal/utxo"
)

// Rejection pairs a transaction left out of a batch with the reason it failed
// on the last pass.
type Rejection struct {
	Tx  *ledger.Transaction
	Err error
}

// Result is the outcome of accepting a batch.
type Result struct {
	Accepted []*ledger.Transaction // In acceptance order
	Rejected []Rejection           // In candidate order
}

// Acceptor selects a mutually-consistent subset of a transaction batch.
type Acceptor struct {
	validator *Validator
}

// NewAcceptor returns an Acceptor backed by v. A nil v uses NewValidator().
func NewAcceptor(v *Validator) *Acceptor {
	if v == nil {
		v = NewValidator()
	}
	return &Acceptor{validator: v}
}

// Validator returns the validator used by the acceptor.
func (a *Acceptor) Validator() *Validator {
	return a.validator
}

// Accept runs repeated passes over candidates in their given order, validating
// each remaining transaction against the current state of set and applying it
// to set as soon as it is accepted. Later transactions, in the same or a later
// pass, may therefore spend outputs created earlier in the batch. It stops when
// a pass accepts nothing or no candidates remain.
//
// set is mutated in place and there is no rollback. Callers that need isolation
// must pass a clone.
func (a *Acceptor) Accept(candidates []*ledger.Transaction, set *utxo.Set) Result {
	var (
		pending  = candidates
		accepted = make([]*ledger.Transaction, 0, len(candidates))
	)

	for len(pending) > 0 {
		var (
			remaining []*ledger.Transaction
			reasons   []error
		)

		for _, tx := range pending {
			if err := a.validator.Validate(tx, set); err != nil {
				remaining = append(remaining, tx)
				reasons = append(reasons, err)
				continue
			}

			set.Apply(tx)
			accepted = append(accepted, tx)
		}

		if len(remaining) == len(pending) {
			rejected := make([]Rejection, len(remaining))
			for i, tx := range remaining {
				rejected[i] = Rejection{Tx: tx, Err: reasons[i]}
			}
			return Result{Accepted: accepted, Rejected: rejected}
		}

		pending = remaining
	}

	return Result{Accepted: accepted}
}
