// pkg/unarc/unarchiver.go
package unarc

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// State is an Unarchiver's lifecycle state
type State int

const (
	// StateIdle means constructed, no decode started
	StateIdle State = iota

	// StateRunning means the decode loop is active on the boundary
	StateRunning

	// StateFinished means the run ended with FINISH
	StateFinished

	// StateFailed means the run ended with ERROR
	StateFailed

	// StateCancelled means Cancel tore the run down
	StateCancelled
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateFinished:
		return "FINISHED"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// Unarchiver drives one extraction of one archive buffer.
//
// The decode loop runs on a worker goroutine; events are relayed back
// in emission order and dispatched synchronously to registered
// listeners. Every successful Run ends in exactly one terminal event,
// FINISH or ERROR, after which no further events are dispatched.
// Run may be called at most once per instance.
type Unarchiver interface {
	// AddEventListener registers l for the given event kind.
	// Ignored for unrecognized kinds and identity duplicates.
	AddEventListener(kind EventKind, l Listener)

	// RemoveEventListener unregisters l; no-op if not registered.
	// After it returns, l receives no further events of that kind,
	// including events already queued on the boundary.
	RemoveEventListener(kind EventKind, l Listener)

	// Run starts the decode loop and returns immediately. It fails
	// with *InvalidStateError unless the instance is idle. Expiry of
	// ctx without Cancel surfaces as a terminal ERROR event.
	Run(ctx context.Context) error

	// Cancel tears the running decode down without further events.
	// No-op outside the running state. Already-dispatched EXTRACT
	// events stand; partial work is not rolled back.
	Cancel()

	// Done is closed once the instance reaches a terminal state and
	// all event dispatch has completed.
	Done() <-chan struct{}

	// State returns the current lifecycle state
	State() State

	// Format returns the name of the archive format being decoded
	Format() string
}

type unarchiver struct {
	data   []byte
	dec    Decoder
	format string
	opts   *Options
	logger *zap.Logger

	registry *listenerRegistry

	mu        sync.Mutex
	state     State
	cancelRun context.CancelFunc
	cancelled atomic.Bool
	done      chan struct{}
}

// NewUnarchiver constructs an Unarchiver around data, driven by the
// given decoder. Most callers go through GetUnarchiver instead; this
// constructor is for decoder packages, tests, and callers that already
// know the format. The buffer is shared, not copied, and must not be
// mutated while the instance lives.
func NewUnarchiver(data []byte, dec Decoder, format string, opts *Options) (Unarchiver, error) {
	if len(data) == 0 {
		return nil, ErrNilBuffer
	}
	if dec == nil {
		return nil, ErrNilDecoder
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger.With(
		zap.String("run_id", uuid.NewString()),
		zap.String("format", format),
	)

	return &unarchiver{
		data:     data,
		dec:      dec,
		format:   format,
		opts:     opts,
		logger:   logger,
		registry: newListenerRegistry(logger),
		state:    StateIdle,
		done:     make(chan struct{}),
	}, nil
}

func (u *unarchiver) AddEventListener(kind EventKind, l Listener) {
	u.registry.add(kind, l)
}

func (u *unarchiver) RemoveEventListener(kind EventKind, l Listener) {
	u.registry.remove(kind, l)
}

func (u *unarchiver) Run(ctx context.Context) error {
	u.mu.Lock()
	if u.state != StateIdle {
		st := u.state
		u.mu.Unlock()
		return &InvalidStateError{State: st}
	}
	u.state = StateRunning

	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	u.cancelRun = cancel
	u.mu.Unlock()

	u.logger.Debug("run started", zap.Int("total_bytes", len(u.data)))

	events := make(chan Event, u.opts.EventBuffer)
	go u.decodeLoop(runCtx, events)
	go u.relay(events)

	return nil
}

func (u *unarchiver) Cancel() {
	u.mu.Lock()
	if u.state != StateRunning {
		u.mu.Unlock()
		return
	}
	u.state = StateCancelled
	u.cancelled.Store(true)
	cancel := u.cancelRun
	u.mu.Unlock()

	cancel()
	u.logger.Debug("run cancelled")
}

func (u *unarchiver) Done() <-chan struct{} {
	return u.done
}

func (u *unarchiver) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

func (u *unarchiver) Format() string {
	return u.format
}

// setTerminal records a terminal state unless Cancel won the race.
func (u *unarchiver) setTerminal(s State) {
	u.mu.Lock()
	if u.state == StateRunning {
		u.state = s
	}
	u.mu.Unlock()
}
