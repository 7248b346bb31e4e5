// Package chainevents forwards chainstate block decisions to an external sink
// without holding up block submission. Events are queued on a buffered
// channel and published by a background worker, optionally through a retry
// policy.
package chainevents

import (
	"context"
	"errors"
	"sync"

	"github.com/gabapcia/blockledger/internal/chainstate"
	"github.com/gabapcia/blockledger/internal/pkg/logger"
	"github.com/gabapcia/blockledger/internal/pkg/resilience/retry"
	"github.com/gabapcia/blockledger/internal/pkg/x/chflow"
)

var ErrServiceAlreadyStarted = errors.New("service already started")

const defaultEventBufferSize = 64

// Sink is where block events end up (a stream, a queue, a log).
type Sink interface {
	Publish(ctx context.Context, event chainstate.BlockEvent) error
}

type nopSink struct{}

func (nopSink) Publish(context.Context, chainstate.BlockEvent) error { return nil }

// PublishFailure is handed to the failure handler when an event could not be
// published, after retries if any.
type PublishFailure struct {
	Event chainstate.BlockEvent
	Err   error
}

type Service interface {
	Start(ctx context.Context) error
	Observe(ctx context.Context, event chainstate.BlockEvent)
	Close()
}

type closeFunc func()
type publishFailureHandler func(ctx context.Context, failure PublishFailure)

type service struct {
	mu        sync.RWMutex
	isStarted bool
	closeFunc closeFunc

	ctx      context.Context
	eventsCh chan chainstate.BlockEvent
	wg       sync.WaitGroup

	sink                  Sink
	bufferSize            int
	retry                 retry.Retry
	publishFailureHandler publishFailureHandler
}

var _ Service = (*service)(nil)

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	eventsCh := make(chan chainstate.BlockEvent, s.bufferSize)

	s.closeFunc = func() {
		cancel()
		s.wg.Wait()
		s.drain(context.WithoutCancel(ctx), eventsCh)
	}

	s.ctx = ctx
	s.eventsCh = eventsCh

	s.wg.Add(1)
	go s.publishEvents(ctx, eventsCh)

	s.isStarted = true
	return nil
}

// Observe queues event for publication. It has the chainstate.Observer
// signature so it can be passed straight to chainstate.WithObserver. Events
// observed while the service is stopped are dropped. When the buffer is full
// Observe blocks until the worker catches up, ctx is done or the service
// stops; Close waits for blocked calls to return.
func (s *service) Observe(ctx context.Context, event chainstate.BlockEvent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isStarted {
		logger.Debug(ctx, "block event dropped, service not started",
			"submission.id", event.SubmissionID,
		)
		return
	}

	sendCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(s.ctx, cancel)
	defer stop()

	if !chflow.Send(sendCtx, s.eventsCh, event) {
		logger.Warn(ctx, "block event dropped",
			"submission.id", event.SubmissionID,
			"event.kind", string(event.Kind),
			"error", context.Cause(sendCtx),
		)
	}
}

func (s *service) publishEvents(ctx context.Context, eventsCh <-chan chainstate.BlockEvent) {
	defer s.wg.Done()

	for {
		event, ok := chflow.Receive(ctx, eventsCh)
		if !ok {
			s.drain(context.WithoutCancel(ctx), eventsCh)
			return
		}

		s.handle(ctx, event)
	}
}

// drain publishes whatever is still buffered once the worker is stopping.
func (s *service) drain(ctx context.Context, eventsCh <-chan chainstate.BlockEvent) {
	for {
		event, ok := chflow.TryReceive(eventsCh)
		if !ok {
			return
		}
		s.handle(ctx, event)
	}
}

func (s *service) handle(ctx context.Context, event chainstate.BlockEvent) {
	if err := s.publish(ctx, event); err != nil {
		s.publishFailureHandler(ctx, PublishFailure{Event: event, Err: err})
	}
}

func (s *service) publish(ctx context.Context, event chainstate.BlockEvent) error {
	if s.retry == nil {
		return s.sink.Publish(ctx, event)
	}

	return s.retry.Execute(ctx, func() error {
		return s.sink.Publish(ctx, event)
	})
}

// Close waits for in-flight Observe calls, stops the worker and publishes
// every event still queued.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.isStarted = false
	s.closeFunc = nil
	s.ctx = nil
	s.eventsCh = nil
}

type config struct {
	sink                  Sink
	bufferSize            int
	retry                 retry.Retry
	publishFailureHandler publishFailureHandler
}

type Option func(*config)

func New(opts ...Option) *service {
	cfg := config{
		sink:                  nopSink{},
		bufferSize:            defaultEventBufferSize,
		retry:                 nil,
		publishFailureHandler: defaultOnPublishFailure,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		sink:                  cfg.sink,
		bufferSize:            cfg.bufferSize,
		retry:                 cfg.retry,
		publishFailureHandler: cfg.publishFailureHandler,
	}
}

func defaultOnPublishFailure(ctx context.Context, failure PublishFailure) {
	logger.Error(ctx, "block event publish failure",
		"submission.id", failure.Event.SubmissionID,
		"block.hash", failure.Event.BlockHash.String(),
		"event.kind", string(failure.Event.Kind),
		"error", failure.Err,
	)
}

func WithSink(sink Sink) Option {
	return func(c *config) {
		c.sink = sink
	}
}

func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

func WithPublishFailureHandler(f publishFailureHandler) Option {
	return func(c *config) {
		c.publishFailureHandler = f
	}
}

// WithBufferSize sets the event queue capacity. Non-positive values keep the
// default.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}
