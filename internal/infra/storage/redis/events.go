package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/gabapcia/blockledger/internal/chainevents"
	"github.com/gabapcia/blockledger/internal/chainstate"

	"github.com/redis/go-redis/v9"
)

const (
	// defaultEventStream is the stream key block events are appended to.
	defaultEventStream = "blockledger:events"

	// defaultEventStreamMaxLen bounds the stream so it does not grow forever.
	defaultEventStreamMaxLen = 10000
)

// eventValues flattens a block event into stream entry fields. Hashes are the
// usual byte-reversed hex form; prev_hash and reason are empty when absent.
func eventValues(event chainstate.BlockEvent) map[string]any {
	var prev string
	if event.PrevHash != nil {
		prev = event.PrevHash.String()
	}

	var errText string
	if event.Err != nil {
		errText = event.Err.Error()
	}

	return map[string]any{
		"submission_id": event.SubmissionID,
		"kind":          string(event.Kind),
		"block_hash":    event.BlockHash.String(),
		"prev_hash":     prev,
		"height":        strconv.Itoa(event.Height),
		"tip_hash":      event.TipHash.String(),
		"tip_height":    strconv.Itoa(event.TipHeight),
		"pruned":        strconv.Itoa(event.Pruned),
		"reason":        event.Reason(),
		"error":         errText,
		"at":            event.At.UTC().Format(time.RFC3339Nano),
	}
}

// Publish appends event to the configured stream.
func (c *client) Publish(ctx context.Context, event chainstate.BlockEvent) error {
	args := &redis.XAddArgs{
		Stream: c.stream,
		Values: eventValues(event),
	}
	if c.streamMaxLen > 0 {
		args.MaxLen = c.streamMaxLen
		args.Approx = true
	}

	return c.conn.XAdd(ctx, args).Err()
}

// Compile-time assertion to ensure client implements the chainevents.Sink interface.
var _ chainevents.Sink = new(client)
