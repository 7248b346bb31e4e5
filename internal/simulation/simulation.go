// Package simulation drives a chain with a fixed set of participants: each
// round some participants pay each other out of the tip snapshot, one of
// them proposes a block, and every few rounds a sibling block is proposed on
// the tip's parent to exercise fork handling.
package simulation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/gabapcia/blockledger/internal/chainstate"
	"github.com/gabapcia/blockledger/internal/ledger"
	"github.com/gabapcia/blockledger/internal/pkg/logger"
	"github.com/gabapcia/blockledger/internal/proposer"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

var ErrNotEnoughParticipants = errors.New("simulation needs at least two participants")

// ChainFactory builds the chain under simulation from its genesis block.
type ChainFactory func(genesis *ledger.Block) *chainstate.Chain

// Summary describes the chain after a run.
type Summary struct {
	Submitted    int
	Accepted     int
	Rejected     int
	Transactions int // Transfers added to the pending pool
	TipHash      chainhash.Hash
	TipHeight    int
	OldestHeight int
	Retained     int
	Leaves       int
}

type config struct {
	blocks       int
	forkEvery    int
	txPerBlock   int
	participants int
	reward       btcutil.Amount
	seed         uint64
}

type Option func(*config)

// WithBlocks sets how many blocks are proposed.
func WithBlocks(n int) Option {
	return func(c *config) {
		c.blocks = max(n, 0)
	}
}

// WithForkEvery makes every n-th block a sibling of the tip instead of its
// child. Zero disables forks.
func WithForkEvery(n int) Option {
	return func(c *config) {
		c.forkEvery = max(n, 0)
	}
}

// WithTxPerBlock sets how many transfers are added to the pool per round.
func WithTxPerBlock(n int) Option {
	return func(c *config) {
		c.txPerBlock = max(n, 0)
	}
}

func WithParticipants(n int) Option {
	return func(c *config) {
		c.participants = n
	}
}

// WithReward sets the coinbase paid to proposers. The genesis block mints
// four times this amount.
func WithReward(r btcutil.Amount) Option {
	return func(c *config) {
		c.reward = r
	}
}

// WithSeed seeds the source that picks spent outputs, recipients and amounts.
func WithSeed(seed uint64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

type participant struct {
	key      *btcec.PrivateKey
	proposer *proposer.Proposer
}

type Simulator struct {
	cfg          config
	chain        *chainstate.Chain
	participants []participant
	byOwner      map[string]*btcec.PrivateKey
	rng          *rand.Rand
}

// New creates the participants, mints the genesis block to the first of them
// and builds the chain with newChain.
func New(newChain ChainFactory, opts ...Option) (*Simulator, error) {
	cfg := config{
		blocks:       20,
		txPerBlock:   2,
		participants: 3,
		reward:       ledger.DefaultCoinbaseReward,
		seed:         1,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.participants < 2 {
		return nil, ErrNotEnoughParticipants
	}

	keys := make([]*btcec.PrivateKey, cfg.participants)
	byOwner := make(map[string]*btcec.PrivateKey, cfg.participants)
	for i := range keys {
		key, err := btcec.NewPrivateKey()
		if err != nil {
			return nil, fmt.Errorf("generate participant key: %w", err)
		}
		keys[i] = key
		byOwner[string(key.PubKey().SerializeCompressed())] = key
	}

	genesis := ledger.NewBlock(nil, keys[0].PubKey(), 4*cfg.reward)
	genesis.Finalize()
	chain := newChain(genesis)

	participants := make([]participant, len(keys))
	for i, key := range keys {
		participants[i] = participant{
			key:      key,
			proposer: proposer.New(chain, key, proposer.WithReward(cfg.reward)),
		}
	}

	return &Simulator{
		cfg:          cfg,
		chain:        chain,
		participants: participants,
		byOwner:      byOwner,
		rng:          rand.New(rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Chain returns the chain under simulation.
func (s *Simulator) Chain() *chainstate.Chain {
	return s.chain
}

// Run proposes the configured number of blocks. Rejected blocks are counted,
// not returned as errors; Run only fails if ctx is done.
func (s *Simulator) Run(ctx context.Context) (Summary, error) {
	var summary Summary

	for round := 1; round <= s.cfg.blocks; round++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		summary.Transactions += s.addTransfers(ctx)

		block, err := s.propose(ctx, round)
		if err != nil {
			return summary, err
		}

		summary.Submitted++
		if err := s.chain.AddBlock(ctx, block); err != nil {
			summary.Rejected++
			continue
		}
		summary.Accepted++
	}

	tip := s.chain.TipBlock()
	summary.TipHash = tip.Hash()
	summary.TipHeight = s.chain.TipHeight()
	summary.OldestHeight = s.chain.OldestHeight()
	summary.Retained = s.chain.Len()
	summary.Leaves = len(s.chain.Leaves())

	logger.Info(ctx, "simulation finished",
		"blocks.submitted", summary.Submitted,
		"blocks.accepted", summary.Accepted,
		"blocks.rejected", summary.Rejected,
		"tip.hash", summary.TipHash.String(),
		"tip.height", summary.TipHeight,
		"chain.oldestHeight", summary.OldestHeight,
		"chain.retained", summary.Retained,
	)

	return summary, nil
}

// propose builds the block for round. Fork rounds put a sibling of the tip
// on the tip's parent, signed by the next participant so its coinbase differs.
func (s *Simulator) propose(ctx context.Context, round int) (*ledger.Block, error) {
	idx := round % len(s.participants)

	tip := s.chain.TipBlock()
	if s.cfg.forkEvery > 0 && round%s.cfg.forkEvery == 0 && !tip.IsGenesis() {
		next := s.participants[(idx+1)%len(s.participants)]
		return next.proposer.ProposeOn(ctx, *tip.PrevHash)
	}

	return s.participants[idx].proposer.Propose(ctx)
}

// addTransfers adds up to txPerBlock signed transfers to the pending pool,
// each spending a distinct output of the tip snapshot. It returns how many
// were added.
func (s *Simulator) addTransfers(ctx context.Context) int {
	snapshot := s.chain.TipSnapshot()

	refs := snapshot.Refs()
	slices.SortFunc(refs, compareRefs)
	s.rng.Shuffle(len(refs), func(i, j int) { refs[i], refs[j] = refs[j], refs[i] })

	added := 0
	for _, ref := range refs {
		if added == s.cfg.txPerBlock {
			break
		}

		out, _ := snapshot.Get(ref)
		from, ok := s.byOwner[string(out.Owner.SerializeCompressed())]
		if !ok || out.Amount <= 0 {
			continue
		}

		to := s.participants[s.rng.IntN(len(s.participants))].key
		tx, err := s.transfer(ref, out.Amount, from, to)
		if err != nil {
			logger.Warn(ctx, "transfer signing failed", "output.ref", ref.String(), "error", err)
			continue
		}

		s.chain.AddPendingTransaction(tx)
		added++
	}

	return added
}

// transfer pays a random part of amount to to and returns the change to from.
func (s *Simulator) transfer(ref ledger.OutputRef, amount btcutil.Amount, from, to *btcec.PrivateKey) (*ledger.Transaction, error) {
	pay := amount
	if amount > 1 {
		pay = 1 + btcutil.Amount(s.rng.Int64N(int64(amount)))
	}

	tx := &ledger.Transaction{}
	tx.AddInput(ref)
	tx.AddOutput(pay, to.PubKey())
	if change := amount - pay; change > 0 {
		tx.AddOutput(change, from.PubKey())
	}

	if err := tx.Sign(0, from); err != nil {
		return nil, err
	}
	tx.Finalize()
	return tx, nil
}

func compareRefs(a, b ledger.OutputRef) int {
	if c := slices.Compare(a.TxHash[:], b.TxHash[:]); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}
