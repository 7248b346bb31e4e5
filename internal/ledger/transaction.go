// Package ledger defines the immutable data carriers of the ledger: output
// references, outputs, transactions and blocks, together with their canonical
// encoding and content hashes.
//
// Values are built with plain struct literals or the helper constructors, then
// sealed with Finalize. After Finalize the hash is fixed and the value must not
// be mutated.
package ledger

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// ErrInputOutOfRange is returned when an input index does not exist in a transaction.
var ErrInputOutOfRange = errors.New("input index out of range")

// OutputRef identifies a single output by the hash of the transaction that
// produced it and its position in that transaction's output list.
//
// OutputRef is comparable and is used directly as a map key.
type OutputRef struct {
	TxHash chainhash.Hash // Hash of the producing transaction
	Index  uint32         // Position of the output in the producing transaction
}

// String returns the "<hash>:<index>" form of the reference.
func (r OutputRef) String() string {
	return fmt.Sprintf("%s:%d", r.TxHash, r.Index)
}

// Output is a claimable amount locked to an owner key.
type Output struct {
	Amount btcutil.Amount    // Value carried by the output
	Owner  *btcec.PublicKey // Key whose signature is required to spend the output
}

// Input spends a previously created output.
type Input struct {
	Prev      OutputRef // Output being spent
	Signature []byte    // DER-encoded signature of the owner over the input's signing payload
}

// Transaction moves value from spent outputs to newly created outputs.
//
// A transaction with no inputs is a coinbase. Tag is free-form data committed
// into the hash; coinbases use it to stay unique across blocks.
type Transaction struct {
	Inputs  []Input
	Outputs []Output
	Tag     []byte

	hash      chainhash.Hash
	finalized bool
}

// NewCoinbase returns a finalized zero-input transaction minting reward to owner.
func NewCoinbase(tag []byte, reward btcutil.Amount, owner *btcec.PublicKey) *Transaction {
	tx := &Transaction{
		Outputs: []Output{{Amount: reward, Owner: owner}},
		Tag:     bytes.Clone(tag),
	}
	tx.Finalize()
	return tx
}

// AddInput appends an unsigned input spending ref.
func (tx *Transaction) AddInput(ref OutputRef) {
	tx.Inputs = append(tx.Inputs, Input{Prev: ref})
}

// AddOutput appends an output paying amount to owner.
func (tx *Transaction) AddOutput(amount btcutil.Amount, owner *btcec.PublicKey) {
	tx.Outputs = append(tx.Outputs, Output{Amount: amount, Owner: owner})
}

// IsCoinbase reports whether the transaction has no inputs.
func (tx *Transaction) IsCoinbase() bool {
	return len(tx.Inputs) == 0
}

// SigningPayload returns the canonical bytes the owner of input i signs.
//
// The payload commits to the output being spent by input i, every output of the
// transaction and the tag. Signatures of other inputs are not covered, so inputs
// can be signed in any order.
func (tx *Transaction) SigningPayload(i int) ([]byte, error) {
	if i < 0 || i >= len(tx.Inputs) {
		return nil, fmt.Errorf("%w: %d", ErrInputOutOfRange, i)
	}

	var buf bytes.Buffer
	writeOutputRef(&buf, tx.Inputs[i].Prev)
	writeOutputs(&buf, tx.Outputs)
	writeBytes(&buf, tx.Tag)
	return buf.Bytes(), nil
}

// Sign signs input i with key and stores the DER signature on the input.
func (tx *Transaction) Sign(i int, key *btcec.PrivateKey) error {
	payload, err := tx.SigningPayload(i)
	if err != nil {
		return err
	}

	digest := chainhash.DoubleHashB(payload)
	tx.Inputs[i].Signature = ecdsa.Sign(key, digest).Serialize()
	return nil
}

// Finalize computes and fixes the transaction hash. Calling it again
// recomputes the hash, which is only correct if nothing was mutated in between.
func (tx *Transaction) Finalize() {
	tx.hash = chainhash.DoubleHashH(tx.encode())
	tx.finalized = true
}

// Hash returns the content hash fixed by Finalize. It returns the zero hash
// for a transaction that was never finalized.
func (tx *Transaction) Hash() chainhash.Hash {
	return tx.hash
}

// IsFinalized reports whether Finalize has been called.
func (tx *Transaction) IsFinalized() bool {
	return tx.finalized
}

// OutputRef returns the reference to output index of this transaction.
func (tx *Transaction) OutputRef(index uint32) OutputRef {
	return OutputRef{TxHash: tx.hash, Index: index}
}

// encode returns the full canonical encoding used for hashing.
func (tx *Transaction) encode() []byte {
	var buf bytes.Buffer

	writeVarInt(&buf, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		writeOutputRef(&buf, in.Prev)
		writeBytes(&buf, in.Signature)
	}

	writeOutputs(&buf, tx.Outputs)
	writeBytes(&buf, tx.Tag)
	return buf.Bytes()
}
