// Package proposer assembles candidate blocks from the pending pool of a chain
// and submits them back to it.
package proposer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/gabapcia/blockledger/internal/chainstate"
	"github.com/gabapcia/blockledger/internal/ledger"
	"github.com/gabapcia/blockledger/internal/pkg/logger"
	"github.com/gabapcia/blockledger/internal/txverify"
	"github.com/gabapcia/blockledger/internal/utxo"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var ErrUnknownParent = errors.New("parent block not retained")

// Chain is the part of chainstate.Chain a proposer reads from and submits to.
type Chain interface {
	TipBlock() *ledger.Block
	Snapshot(hash chainhash.Hash) (*utxo.Set, bool)
	PendingPool() map[chainhash.Hash]*ledger.Transaction
	AddBlock(ctx context.Context, block *ledger.Block) error
}

var _ Chain = (*chainstate.Chain)(nil)

type Proposer struct {
	chain    Chain
	key      *btcec.PrivateKey
	reward   btcutil.Amount
	acceptor *txverify.Acceptor
}

type config struct {
	reward   btcutil.Amount
	acceptor *txverify.Acceptor
}

type Option func(*config)

// WithReward sets the coinbase amount paid to the proposer.
func WithReward(reward btcutil.Amount) Option {
	return func(c *config) {
		c.reward = reward
	}
}

// WithAcceptor replaces the acceptor used to pick pool transactions.
func WithAcceptor(a *txverify.Acceptor) Option {
	return func(c *config) {
		if a != nil {
			c.acceptor = a
		}
	}
}

// New returns a proposer that builds blocks on chain, paying the coinbase to
// the public key of key.
func New(chain Chain, key *btcec.PrivateKey, opts ...Option) *Proposer {
	cfg := config{
		reward:   ledger.DefaultCoinbaseReward,
		acceptor: txverify.NewAcceptor(nil),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Proposer{
		chain:    chain,
		key:      key,
		reward:   cfg.reward,
		acceptor: cfg.acceptor,
	}
}

// Propose builds a finalized block on top of the current tip.
func (p *Proposer) Propose(ctx context.Context) (*ledger.Block, error) {
	return p.ProposeOn(ctx, p.chain.TipBlock().Hash())
}

// ProposeOn builds a finalized block extending parent with every pending
// transaction that is valid against the parent's snapshot. Pool transactions
// are tried in hash order so the same pool always yields the same block.
func (p *Proposer) ProposeOn(ctx context.Context, parent chainhash.Hash) (*ledger.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot, ok := p.chain.Snapshot(parent)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParent, parent)
	}

	pool := p.chain.PendingPool()
	candidates := make([]*ledger.Transaction, 0, len(pool))
	for _, hash := range slices.SortedFunc(maps.Keys(pool), compareHash) {
		candidates = append(candidates, pool[hash])
	}

	result := p.acceptor.Accept(candidates, snapshot)

	block := ledger.NewBlock(&parent, p.key.PubKey(), p.reward)
	for _, tx := range result.Accepted {
		block.AddTransaction(tx)
	}
	block.Finalize()

	logger.Debug(ctx, "block proposed",
		"block.hash", block.Hash().String(),
		"block.parent", parent.String(),
		"block.transactions", len(result.Accepted),
		"pool.skipped", len(result.Rejected),
	)

	return block, nil
}

// ProposeAndSubmit proposes a block on the tip and submits it to the chain.
// The block is returned even if the chain rejects it.
func (p *Proposer) ProposeAndSubmit(ctx context.Context) (*ledger.Block, error) {
	block, err := p.Propose(ctx)
	if err != nil {
		return nil, err
	}

	return block, p.chain.AddBlock(ctx, block)
}

func compareHash(a, b chainhash.Hash) int {
	return bytes.Compare(a[:], b[:])
}
