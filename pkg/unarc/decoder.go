// pkg/unarc/decoder.go
package unarc

import (
	"context"
)

// Sink is the emission surface the boundary hands to a decoder.
// Decoders report per-entry results and cumulative progress through it;
// the framework itself emits START and the terminal FINISH/ERROR, so a
// decoder never produces those directly.
//
// Sink methods respect ctx cancellation: after the run is cancelled,
// emissions are dropped and the decoder should return promptly (its
// next emission will observe ctx.Done via the sink's internal select).
type Sink interface {
	// Progress reports the cumulative number of input bytes processed
	// so far, optionally naming the entry being worked on. Values are
	// clamped so that observed PROGRESS events never decrease.
	Progress(bytesProcessed int64, filename string)

	// Extract emits one decoded entry. The file must be fully decoded
	// and is owned by the receiving listener from this point on.
	Extract(file *UnarchivedFile)
}

// Decoder is the format-specific collaborator driven by an Unarchiver.
// Decode processes the whole input buffer, emitting entries and
// progress through sink, and returns nil once all entries are decoded
// or an error on the first unrecoverable fault. Return a *DecodeError
// to carry the failure byte offset into the ERROR event.
//
// The buffer is shared, not copied; decoders must treat it as
// read-only. Decode runs on a worker goroutine owned by the boundary
// and must honor ctx cancellation between entries.
//
// Bundled decoders emit EXTRACT events in the archive's physical entry
// order; a decoder that reorders for efficiency must document it.
type Decoder interface {
	Decode(ctx context.Context, data []byte, sink Sink) error
}
