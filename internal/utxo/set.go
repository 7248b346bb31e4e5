// Package utxo provides the unspent-output set: a mutable mapping from output
// references to the outputs they identify.
//
// A Set is not safe for concurrent mutation. Chain state gives every block its
// own Set, built once by cloning the parent's and never shared for writing.
package utxo

import (
	"iter"
	"maps"
	"slices"

	"github.com/gabapcia/blockledger/internal/ledger"
)

// Set maps output references to unspent outputs. The zero value is not usable;
// create one with New.
type Set struct {
	outputs map[ledger.OutputRef]ledger.Output
}

// New returns an empty Set.
func New() *Set {
	return &Set{outputs: make(map[ledger.OutputRef]ledger.Output)}
}

// Clone returns an independent copy of s. Mutating the copy never affects s.
func (s *Set) Clone() *Set {
	return &Set{outputs: maps.Clone(s.outputs)}
}

// Add stores out under ref, replacing any previous entry.
func (s *Set) Add(ref ledger.OutputRef, out ledger.Output) {
	s.outputs[ref] = out
}

// Remove deletes ref from the set. Removing an absent ref is a no-op.
func (s *Set) Remove(ref ledger.OutputRef) {
	delete(s.outputs, ref)
}

// Contains reports whether ref is unspent in s.
func (s *Set) Contains(ref ledger.OutputRef) bool {
	_, ok := s.outputs[ref]
	return ok
}

// Get returns the output stored under ref.
func (s *Set) Get(ref ledger.OutputRef) (ledger.Output, bool) {
	out, ok := s.outputs[ref]
	return out, ok
}

// Len returns the number of unspent outputs.
func (s *Set) Len() int {
	return len(s.outputs)
}

// All iterates over every (ref, output) pair in unspecified order.
func (s *Set) All() iter.Seq2[ledger.OutputRef, ledger.Output] {
	return maps.All(s.outputs)
}

// Refs returns every unspent reference in unspecified order.
func (s *Set) Refs() []ledger.OutputRef {
	return slices.Collect(maps.Keys(s.outputs))
}

// Apply spends the outputs referenced by tx's inputs and adds tx's outputs
// keyed by (tx.Hash(), index). It does not validate tx; callers validate first.
func (s *Set) Apply(tx *ledger.Transaction) {
	for _, in := range tx.Inputs {
		s.Remove(in.Prev)
	}

	for i, out := range tx.Outputs {
		s.Add(tx.OutputRef(uint32(i)), out)
	}
}
