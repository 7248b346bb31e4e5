package ledger

import (
	"bytes"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// DefaultCoinbaseReward is the amount minted to the proposer of each block
// unless the caller picks another reward.
const DefaultCoinbaseReward btcutil.Amount = 25

// Block groups a coinbase and an ordered list of ordinary transactions on top
// of a parent block. Only the genesis block has a nil PrevHash.
type Block struct {
	PrevHash     *chainhash.Hash
	Coinbase     *Transaction
	Transactions []*Transaction

	hash      chainhash.Hash
	finalized bool
}

// NewBlock returns an unfinalized block on top of prev whose coinbase pays
// reward to proposer. Pass a nil prev to build a genesis block.
//
// The coinbase is tagged with the parent hash, so two blocks on the same branch
// never mint outputs under the same transaction hash.
func NewBlock(prev *chainhash.Hash, proposer *btcec.PublicKey, reward btcutil.Amount) *Block {
	var tag []byte
	if prev != nil {
		p := *prev
		prev = &p
		tag = p[:]
	}

	return &Block{
		PrevHash: prev,
		Coinbase: NewCoinbase(tag, reward, proposer),
	}
}

// AddTransaction appends tx to the block's ordinary transactions.
func (b *Block) AddTransaction(tx *Transaction) {
	b.Transactions = append(b.Transactions, tx)
}

// IsGenesis reports whether the block declares no parent.
func (b *Block) IsGenesis() bool {
	return b.PrevHash == nil
}

// Finalize computes and fixes the block hash from the parent hash, the coinbase
// hash and the hashes of every ordinary transaction.
func (b *Block) Finalize() {
	var buf bytes.Buffer

	if b.PrevHash != nil {
		buf.WriteByte(1)
		writeHash(&buf, *b.PrevHash)
	} else {
		buf.WriteByte(0)
	}

	if b.Coinbase != nil {
		writeHash(&buf, b.Coinbase.Hash())
	}

	writeVarInt(&buf, uint64(len(b.Transactions)))
	for _, tx := range b.Transactions {
		writeHash(&buf, tx.Hash())
	}

	b.hash = chainhash.DoubleHashH(buf.Bytes())
	b.finalized = true
}

// Hash returns the content hash fixed by Finalize.
func (b *Block) Hash() chainhash.Hash {
	return b.hash
}

// IsFinalized reports whether Finalize has been called.
func (b *Block) IsFinalized() bool {
	return b.finalized
}
