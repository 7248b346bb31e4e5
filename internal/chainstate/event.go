package chainstate

import (
	"context"
	"errors"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// EventKind tells whether a submitted block was accepted or rejected.
type EventKind string

const (
	EventAccepted EventKind = "accepted"
	EventRejected EventKind = "rejected"
)

// BlockEvent describes the outcome of a single AddBlock call.
type BlockEvent struct {
	SubmissionID string          // UUIDv7 assigned to the submission
	Kind         EventKind       // Accepted or rejected
	BlockHash    chainhash.Hash  // Hash of the submitted block
	PrevHash     *chainhash.Hash // Declared parent (nil if missing)
	Height       int             // Height the block has or would have had; 0 if the parent is unknown
	TipHash      chainhash.Hash  // Canonical tip after the decision
	TipHeight    int             // Height of the canonical tip after the decision
	Pruned       int             // Nodes removed by the retention sweep
	Err          error           // Rejection reason, nil when accepted
	At           time.Time       // When the decision was made
}

// Reason returns a short, stable label for the rejection reason, or an empty
// string for accepted blocks.
func (e BlockEvent) Reason() string {
	if e.Err == nil {
		return ""
	}
	return rejectionReason(e.Err)
}

// Observer receives every AddBlock decision.
type Observer func(ctx context.Context, event BlockEvent)

// rejectionReason maps a rejection error to a low-cardinality label used in
// logs, metrics and events.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrMissingParentHash):
		return "missing_parent_hash"
	case errors.Is(err, ErrUnknownParent):
		return "unknown_parent"
	case errors.Is(err, ErrDuplicateBlock):
		return "duplicate_block"
	case errors.Is(err, ErrInvalidTransactions):
		return "invalid_transactions"
	case errors.Is(err, ErrBelowRetentionCutoff):
		return "below_retention_cutoff"
	default:
		return "unknown"
	}
}
