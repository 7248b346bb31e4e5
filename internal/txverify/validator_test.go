package txverify

import (
	"math"
	"testing"

	"github.com/gabapcia/blockledger/internal/ledger"
	"github.com/gabapcia/blockledger/internal/utxo"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fixture holds three keys and a snapshot seeded with a 100 unit coinbase to alice.
type fixture struct {
	alice, bob, cal *btcec.PrivateKey
	genesis         *ledger.Transaction
	set             *utxo.Set
}

func newKey(t testing.TB) *btcec.PrivateKey {
	t.Helper()

	key, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	return key
}

func newFixture(t testing.TB) fixture {
	t.Helper()

	f := fixture{alice: newKey(t), bob: newKey(t), cal: newKey(t)}
	f.genesis = ledger.NewCoinbase(nil, 100, f.alice.PubKey())
	f.set = utxo.New()
	f.set.Apply(f.genesis)
	return f
}

type payment struct {
	amount btcutil.Amount
	to     *btcec.PrivateKey
}

// spend builds a finalized transaction spending refs, signing input i with signers[i].
func spend(t testing.TB, refs []ledger.OutputRef, signers []*btcec.PrivateKey, pays ...payment) *ledger.Transaction {
	t.Helper()

	tx := &ledger.Transaction{}
	for _, ref := range refs {
		tx.AddInput(ref)
	}
	for _, p := range pays {
		tx.AddOutput(p.amount, p.to.PubKey())
	}
	for i, signer := range signers {
		require.NoError(t, tx.Sign(i, signer))
	}
	tx.Finalize()
	return tx
}

func TestValidator_Validate(t *testing.T) {
	t.Run("valid at exact input and output equality", func(t *testing.T) {
		f := newFixture(t)
		tx := spend(t, []ledger.OutputRef{f.genesis.OutputRef(0)}, []*btcec.PrivateKey{f.alice},
			payment{60, f.bob}, payment{40, f.cal})

		v := NewValidator()
		assert.NoError(t, v.Validate(tx, f.set))
		assert.True(t, v.IsValid(tx, f.set))
	})

	t.Run("valid when inputs exceed outputs", func(t *testing.T) {
		f := newFixture(t)
		tx := spend(t, []ledger.OutputRef{f.genesis.OutputRef(0)}, []*btcec.PrivateKey{f.alice},
			payment{10, f.bob})

		assert.NoError(t, NewValidator().Validate(tx, f.set))
	})

	t.Run("missing output is reported before any signature check", func(t *testing.T) {
		f := newFixture(t)
		verifier := NewSignatureVerifierMock(t)

		missing := ledger.OutputRef{TxHash: f.genesis.Hash(), Index: 7}
		tx := spend(t, []ledger.OutputRef{missing}, []*btcec.PrivateKey{f.alice}, payment{1, f.bob})

		err := NewValidator(WithSignatureVerifier(verifier)).Validate(tx, f.set)
		assert.ErrorIs(t, err, ErrMissingOutput)
		verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("signature by a key other than the owner", func(t *testing.T) {
		f := newFixture(t)
		tx := spend(t, []ledger.OutputRef{f.genesis.OutputRef(0)}, []*btcec.PrivateKey{f.bob},
			payment{10, f.bob})

		assert.ErrorIs(t, NewValidator().Validate(tx, f.set), ErrInvalidSignature)
	})

	t.Run("unsigned input", func(t *testing.T) {
		f := newFixture(t)
		tx := spend(t, []ledger.OutputRef{f.genesis.OutputRef(0)}, nil, payment{10, f.bob})

		assert.ErrorIs(t, NewValidator().Validate(tx, f.set), ErrInvalidSignature)
	})

	t.Run("signature invalidated by a changed output", func(t *testing.T) {
		f := newFixture(t)
		tx := spend(t, []ledger.OutputRef{f.genesis.OutputRef(0)}, []*btcec.PrivateKey{f.alice},
			payment{10, f.bob})
		tx.Outputs[0].Amount = 20
		tx.Finalize()

		assert.ErrorIs(t, NewValidator().Validate(tx, f.set), ErrInvalidSignature)
	})

	t.Run("duplicate input with valid signatures", func(t *testing.T) {
		f := newFixture(t)
		ref := f.genesis.OutputRef(0)
		tx := spend(t, []ledger.OutputRef{ref, ref}, []*btcec.PrivateKey{f.alice, f.alice},
			payment{150, f.bob})

		assert.ErrorIs(t, NewValidator().Validate(tx, f.set), ErrDuplicateInput)
	})

	t.Run("negative output even if inputs cover the absolute sum", func(t *testing.T) {
		f := newFixture(t)
		tx := spend(t, []ledger.OutputRef{f.genesis.OutputRef(0)}, []*btcec.PrivateKey{f.alice},
			payment{-10, f.bob}, payment{20, f.cal})

		assert.ErrorIs(t, NewValidator().Validate(tx, f.set), ErrNegativeOutput)
	})

	t.Run("outputs exceed inputs", func(t *testing.T) {
		f := newFixture(t)
		tx := spend(t, []ledger.OutputRef{f.genesis.OutputRef(0)}, []*btcec.PrivateKey{f.alice},
			payment{60, f.bob}, payment{41, f.cal})

		assert.ErrorIs(t, NewValidator().Validate(tx, f.set), ErrInsufficientInput)
	})

	t.Run("output total past the Amount range", func(t *testing.T) {
		f := newFixture(t)
		tx := spend(t, []ledger.OutputRef{f.genesis.OutputRef(0)}, []*btcec.PrivateKey{f.alice},
			payment{math.MaxInt64, f.bob}, payment{2, f.cal})

		err := NewValidator().Validate(tx, f.set)
		assert.ErrorIs(t, err, ErrAmountOverflow)

		res := NewAcceptor(nil).Accept([]*ledger.Transaction{tx}, f.set)
		assert.Empty(t, res.Accepted)
		assert.True(t, f.set.Contains(f.genesis.OutputRef(0)))
	})

	t.Run("input total past the Amount range", func(t *testing.T) {
		f := newFixture(t)
		big1 := ledger.NewCoinbase([]byte("one"), math.MaxInt64, f.alice.PubKey())
		big2 := ledger.NewCoinbase([]byte("two"), math.MaxInt64, f.alice.PubKey())
		f.set.Apply(big1)
		f.set.Apply(big2)

		tx := spend(t, []ledger.OutputRef{big1.OutputRef(0), big2.OutputRef(0)},
			[]*btcec.PrivateKey{f.alice, f.alice}, payment{1, f.bob})

		assert.ErrorIs(t, NewValidator().Validate(tx, f.set), ErrAmountOverflow)
	})

	t.Run("unfinalized transaction", func(t *testing.T) {
		f := newFixture(t)
		verifier := NewSignatureVerifierMock(t)

		tx := &ledger.Transaction{}
		tx.AddInput(f.genesis.OutputRef(0))
		tx.AddOutput(10, f.bob.PubKey())
		require.NoError(t, tx.Sign(0, f.alice))

		err := NewValidator(WithSignatureVerifier(verifier)).Validate(tx, f.set)
		assert.ErrorIs(t, err, ErrNotFinalized)
		verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("snapshot is not mutated", func(t *testing.T) {
		f := newFixture(t)
		tx := spend(t, []ledger.OutputRef{f.genesis.OutputRef(0)}, []*btcec.PrivateKey{f.alice},
			payment{60, f.bob})

		require.NoError(t, NewValidator().Validate(tx, f.set))
		assert.True(t, f.set.Contains(f.genesis.OutputRef(0)))
		assert.Equal(t, 1, f.set.Len())
	})

	t.Run("custom verifier decides signatures", func(t *testing.T) {
		f := newFixture(t)
		verifier := NewSignatureVerifierMock(t)
		isAlice := mock.MatchedBy(func(k *btcec.PublicKey) bool { return k.IsEqual(f.alice.PubKey()) })
		verifier.EXPECT().Verify(isAlice, mock.Anything, mock.Anything).Return(true).Once()

		tx := spend(t, []ledger.OutputRef{f.genesis.OutputRef(0)}, nil, payment{10, f.bob})
		assert.NoError(t, NewValidator(WithSignatureVerifier(verifier)).Validate(tx, f.set))
	})
}

func TestECDSAVerifier_Verify(t *testing.T) {
	alice := newKey(t)
	tx := &ledger.Transaction{}
	tx.AddInput(ledger.OutputRef{Index: 1})
	require.NoError(t, tx.Sign(0, alice))

	payload, err := tx.SigningPayload(0)
	require.NoError(t, err)

	var v ECDSAVerifier
	assert.True(t, v.Verify(alice.PubKey(), payload, tx.Inputs[0].Signature))
	assert.False(t, v.Verify(nil, payload, tx.Inputs[0].Signature))
	assert.False(t, v.Verify(alice.PubKey(), payload, nil))
	assert.False(t, v.Verify(alice.PubKey(), payload, []byte{0x30, 0x01}))
	assert.False(t, v.Verify(alice.PubKey(), append(payload, 0), tx.Inputs[0].Signature))
}
