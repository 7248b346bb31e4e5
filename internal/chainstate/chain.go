// Package chainstate maintains a fork-aware view of the block chain.
//
// Chain keeps a bounded forest of recent blocks, each paired with the unspent
// output set that results from applying it on top of its parent. The highest
// node is the canonical tip; blocks whose height falls out of the retention
// window are garbage-collected as the tip advances. Chain also hosts the pool
// of pending transactions a proposer draws from when building the next block.
package chainstate

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/gabapcia/blockledger/internal/ledger"
	"github.com/gabapcia/blockledger/internal/pkg/logger"
	"github.com/gabapcia/blockledger/internal/pkg/types"
	"github.com/gabapcia/blockledger/internal/txverify"
	"github.com/gabapcia/blockledger/internal/utxo"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRetentionWindow is the cutoff age used when no WithRetentionWindow
// option is given.
const DefaultRetentionWindow = 10

// MinRetentionWindow is the smallest window for which the sweep never removes
// the tip itself.
const MinRetentionWindow = 2

// Block rejection reasons returned (wrapped) by AddBlock.
var (
	ErrMissingParentHash    = errors.New("block declares no parent hash")
	ErrUnknownParent        = errors.New("parent block is unknown or no longer retained")
	ErrDuplicateBlock       = errors.New("block is already part of the chain")
	ErrInvalidTransactions  = errors.New("block contains transactions that cannot be accepted")
	ErrBelowRetentionCutoff = errors.New("block height is below the retention cutoff")
)

// node is one retained block. Parent and children are stored as hashes into
// Chain.nodes; a parent hash may point to a node that was already pruned.
type node struct {
	block    *ledger.Block
	snapshot *utxo.Set // state after applying block
	height   int
	parent   *chainhash.Hash
	children types.Set[chainhash.Hash]
}

// Chain is the fork-aware chain state. It is safe for concurrent use: AddBlock
// and pool mutations are serialized, accessors may run concurrently with each
// other.
type Chain struct {
	mu sync.RWMutex

	nodes        map[chainhash.Hash]*node
	byHeight     types.DefaultMap[int, types.Set[chainhash.Hash]]
	tip          *node
	oldestHeight int
	pending      map[chainhash.Hash]*ledger.Transaction

	retentionWindow int
	acceptor        *txverify.Acceptor
	observer        Observer
	tracer          trace.Tracer
	metrics         *metrics
}

// New returns a Chain holding only genesis. The genesis block is trusted: it
// is not validated, and only its coinbase outputs seed the genesis snapshot.
func New(genesis *ledger.Block, opts ...Option) *Chain {
	cfg := config{
		retentionWindow: DefaultRetentionWindow,
		acceptor:        txverify.NewAcceptor(nil),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	snapshot := utxo.New()
	if genesis.Coinbase != nil {
		snapshot.Apply(genesis.Coinbase)
	}

	root := &node{
		block:    genesis,
		snapshot: snapshot,
		height:   1,
		children: types.NewSet[chainhash.Hash](),
	}

	c := &Chain{
		nodes:           map[chainhash.Hash]*node{genesis.Hash(): root},
		byHeight:        types.NewDefaultMap[int](func() types.Set[chainhash.Hash] { return types.NewSet[chainhash.Hash]() }),
		tip:             root,
		oldestHeight:    1,
		pending:         make(map[chainhash.Hash]*ledger.Transaction),
		retentionWindow: cfg.retentionWindow,
		acceptor:        cfg.acceptor,
		observer:        cfg.observer,
		tracer:          newTracer(),
		metrics:         newMetrics(),
	}
	c.byHeight.Get(root.height).Add(genesis.Hash())

	return c
}

// AddBlock validates block against the snapshot of its declared parent and, if
// every check passes, adds it to the forest. A nil error means the block was
// accepted. On rejection the forest, tip and pending pool are left untouched
// and the error wraps one of ErrMissingParentHash, ErrUnknownParent,
// ErrDuplicateBlock, ErrInvalidTransactions or ErrBelowRetentionCutoff.
//
// A block becomes the tip only if it is strictly higher than the current tip;
// on equal height the block seen first keeps the tip.
func (c *Chain) AddBlock(ctx context.Context, block *ledger.Block) error {
	hash := block.Hash()

	ctx, span := c.tracer.Start(ctx, "chainstate.AddBlock",
		trace.WithAttributes(attribute.String("block.hash", hash.String())),
	)
	defer span.End()

	c.mu.Lock()
	event, err := c.addBlock(block)
	c.mu.Unlock()

	event.SubmissionID = uuid.Must(uuid.NewV7()).String()
	event.At = time.Now().UTC()

	span.SetAttributes(
		attribute.String("submission.id", event.SubmissionID),
		attribute.Int("block.height", event.Height),
		attribute.Int("chain.tip.height", event.TipHeight),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "block rejected")
		c.metrics.recordRejected(ctx, err)

		logger.Warn(ctx, "block rejected",
			"submission.id", event.SubmissionID,
			"block.hash", hash.String(),
			"block.height", event.Height,
			"reason", rejectionReason(err),
			"error", err,
		)
	} else {
		c.metrics.recordAccepted(ctx, event)

		logger.Info(ctx, "block accepted",
			"submission.id", event.SubmissionID,
			"block.hash", hash.String(),
			"block.height", event.Height,
			"block.transactions", len(block.Transactions),
			"chain.tip.hash", event.TipHash.String(),
			"chain.tip.height", event.TipHeight,
			"chain.pruned", event.Pruned,
		)
	}

	if c.observer != nil {
		c.observer(ctx, event)
	}

	return err
}

// addBlock runs the admission checks and mutates state. Callers hold c.mu.
func (c *Chain) addBlock(block *ledger.Block) (BlockEvent, error) {
	hash := block.Hash()
	event := BlockEvent{
		Kind:      EventRejected,
		BlockHash: hash,
		PrevHash:  block.PrevHash,
		TipHash:   c.tip.block.Hash(),
		TipHeight: c.tip.height,
	}

	reject := func(err error) (BlockEvent, error) {
		event.Err = err
		return event, err
	}

	if block.PrevHash == nil {
		return reject(ErrMissingParentHash)
	}

	parent, ok := c.nodes[*block.PrevHash]
	if !ok {
		return reject(fmt.Errorf("%w: %s", ErrUnknownParent, block.PrevHash))
	}

	height := parent.height + 1
	event.Height = height

	if _, ok := c.nodes[hash]; ok {
		return reject(fmt.Errorf("%w: %s", ErrDuplicateBlock, hash))
	}

	snapshot := parent.snapshot.Clone()
	result := c.acceptor.Accept(block.Transactions, snapshot)
	if len(result.Accepted) < len(block.Transactions) {
		errs := []error{ErrInvalidTransactions}
		for _, r := range result.Rejected {
			errs = append(errs, fmt.Errorf("transaction %s: %w", r.Tx.Hash(), r.Err))
		}
		return reject(errors.Join(errs...))
	}

	if c.belowCutoff(height) {
		return reject(fmt.Errorf("%w: height %d, tip height %d, window %d",
			ErrBelowRetentionCutoff, height, c.tip.height, c.retentionWindow))
	}

	if block.Coinbase != nil {
		snapshot.Apply(block.Coinbase)
	}

	for _, tx := range block.Transactions {
		delete(c.pending, tx.Hash())
	}

	child := &node{
		block:    block,
		snapshot: snapshot,
		height:   height,
		parent:   block.PrevHash,
		children: types.NewSet[chainhash.Hash](),
	}
	c.nodes[hash] = child
	c.byHeight.Get(height).Add(hash)
	parent.children.Add(hash)

	if child.height > c.tip.height {
		c.tip = child
	}

	event.Kind = EventAccepted
	event.Pruned = c.sweep()
	event.TipHash = c.tip.block.Hash()
	event.TipHeight = c.tip.height
	return event, nil
}

// belowCutoff reports whether a block at height would extend the chain from a
// point older than the retention window allows.
func (c *Chain) belowCutoff(height int) bool {
	return height <= c.tip.height-c.retentionWindow
}

// sweep drops every node at or below tip-(W-1) once the retained span reaches
// W-1 levels, leaving the oldest retained height at tip-(W-2). It returns the
// number of nodes removed. Callers hold c.mu.
func (c *Chain) sweep() int {
	span := c.retentionWindow - 1
	if c.tip.height-c.oldestHeight < span {
		return 0
	}

	var (
		cutoff = c.tip.height - span
		pruned int
	)

	for height := c.oldestHeight; height <= cutoff; height++ {
		level, _ := c.byHeight.Peek(height)
		for hash := range level {
			n := c.nodes[hash]
			if n.parent != nil {
				if parent, ok := c.nodes[*n.parent]; ok {
					parent.children.Delete(hash)
				}
			}

			delete(c.nodes, hash)
			pruned++
		}
		c.byHeight.Delete(height)
	}

	c.oldestHeight = c.tip.height - (c.retentionWindow - 2)
	return pruned
}

// AddPendingTransaction stores tx in the pending pool without validating it.
// Validation happens only when a block embedding tx is submitted.
func (c *Chain) AddPendingTransaction(tx *ledger.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending[tx.Hash()] = tx
}

// PendingPool returns a copy of the pending pool keyed by transaction hash.
func (c *Chain) PendingPool() map[chainhash.Hash]*ledger.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return maps.Clone(c.pending)
}

// TipBlock returns the block at the canonical tip.
func (c *Chain) TipBlock() *ledger.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.tip.block
}

// TipSnapshot returns a copy of the unspent output set at the canonical tip.
func (c *Chain) TipSnapshot() *utxo.Set {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.tip.snapshot.Clone()
}

// TipHeight returns the height of the canonical tip. Genesis has height 1.
func (c *Chain) TipHeight() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.tip.height
}

// OldestHeight returns the height of the oldest retained level.
func (c *Chain) OldestHeight() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.oldestHeight
}

// RetentionWindow returns the configured cutoff age.
func (c *Chain) RetentionWindow() int {
	return c.retentionWindow
}

// Len returns the number of retained blocks.
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.nodes)
}

// Contains reports whether the block with the given hash is retained.
func (c *Chain) Contains(hash chainhash.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.nodes[hash]
	return ok
}

// Height returns the height of a retained block.
func (c *Chain) Height(hash chainhash.Hash) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.nodes[hash]
	if !ok {
		return 0, false
	}
	return n.height, true
}

// Snapshot returns a copy of the unspent output set after the retained block
// with the given hash. Proposers use it to extend a branch other than the tip.
func (c *Chain) Snapshot(hash chainhash.Hash) (*utxo.Set, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n, ok := c.nodes[hash]
	if !ok {
		return nil, false
	}
	return n.snapshot.Clone(), true
}

// Leaves returns the hashes of every retained block without retained
// children, highest first. The canonical tip is always among them.
func (c *Chain) Leaves() []chainhash.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var leaves []*node
	for _, n := range c.nodes {
		if n.children.Len() == 0 {
			leaves = append(leaves, n)
		}
	}

	slices.SortFunc(leaves, func(a, b *node) int {
		if a.height != b.height {
			return b.height - a.height
		}
		ha, hb := a.block.Hash(), b.block.Hash()
		return slices.Compare(ha[:], hb[:])
	})

	hashes := make([]chainhash.Hash, len(leaves))
	for i, n := range leaves {
		hashes[i] = n.block.Hash()
	}
	return hashes
}
