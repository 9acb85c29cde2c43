// pkg/unarc/boundary.go
package unarc

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeebo/blake3"
	"go.uber.org/zap"
)

// decodeLoop is the worker side of the execution boundary. It emits
// START, drives the decoder, and ends the stream with exactly one
// terminal event unless the run was cancelled. Closing the channel is
// the relay's signal that the worker is torn down.
func (u *unarchiver) decodeLoop(ctx context.Context, events chan<- Event) {
	defer close(events)

	em := &emitter{
		ctx:        ctx,
		events:     events,
		totalBytes: int64(len(u.data)),
		checksum:   u.opts.Checksum,
		skip:       u.opts.Skip,
	}

	// Terminal sends bypass ctx so a deadline-induced ERROR still gets
	// through; the relay always drains the channel to close, so these
	// cannot block forever.
	events <- Event{Kind: KindStart}

	err := u.decode(ctx, em)
	if err == nil {
		events <- Event{
			Kind:                KindFinish,
			TotalFilesExtracted: em.extracted,
		}
		return
	}

	if u.cancelled.Load() {
		// Cancelled runs end without a terminal event.
		return
	}

	offset := int64(-1)
	var de *DecodeError
	if errors.As(err, &de) {
		offset = de.Offset
	}
	events <- Event{
		Kind:    KindError,
		Message: err.Error(),
		Offset:  offset,
	}
}

// decode runs the decoder with panic recovery: a crashing decoder is a
// boundary failure and must surface as ERROR, never a silent hang.
func (u *unarchiver) decode(ctx context.Context, em *emitter) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("decoder panic: %v", rec)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return u.dec.Decode(ctx, u.data, em)
}

// relay is the caller side of the boundary: it drains the FIFO event
// channel in order and dispatches each event through the listener
// registry. After Cancel, queued events are drained but dropped.
func (u *unarchiver) relay(events <-chan Event) {
	for ev := range events {
		if u.cancelled.Load() {
			continue
		}

		u.registry.dispatch(ev)

		switch ev.Kind {
		case KindFinish:
			u.setTerminal(StateFinished)
			u.logger.Debug("run finished",
				zap.Int("files_extracted", ev.TotalFilesExtracted))
		case KindError:
			u.setTerminal(StateFailed)
			u.logger.Warn("run failed",
				zap.String("message", ev.Message),
				zap.Int64("offset", ev.Offset))
		}
	}

	u.mu.Lock()
	if u.state == StateRunning {
		// Channel closed without a terminal event; only reachable
		// when cancellation dropped it.
		u.state = StateCancelled
	}
	cancel := u.cancelRun
	u.mu.Unlock()

	cancel()
	close(u.done)
}

// emitter is the Sink implementation handed to decoders. It enforces
// the framework-level invariants (monotonic progress, skip filtering,
// checksums, extract counting) and forwards events into the boundary
// channel, dropping them once the run context is cancelled.
type emitter struct {
	ctx        context.Context
	events     chan<- Event
	totalBytes int64
	checksum   bool
	skip       func(name string) bool

	maxProcessed int64
	extracted    int
}

func (e *emitter) Progress(bytesProcessed int64, filename string) {
	if bytesProcessed < e.maxProcessed {
		bytesProcessed = e.maxProcessed
	}
	e.maxProcessed = bytesProcessed

	select {
	case e.events <- Event{
		Kind:                  KindProgress,
		CurrentBytesProcessed: bytesProcessed,
		TotalBytes:            e.totalBytes,
		CurrentFilename:       filename,
	}:
	case <-e.ctx.Done():
	}
}

func (e *emitter) Extract(file *UnarchivedFile) {
	if file == nil {
		return
	}
	if e.skip != nil && e.skip(file.Filename) {
		return
	}
	if e.checksum {
		sum := blake3.Sum256(file.FileData)
		file.Checksum = sum[:]
	}

	select {
	case e.events <- Event{Kind: KindExtract, File: file}:
		e.extracted++
	case <-e.ctx.Done():
	}
}
