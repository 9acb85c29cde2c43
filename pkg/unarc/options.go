// pkg/unarc/options.go
package unarc

import (
	"go.uber.org/zap"
)

// defaultEventBuffer is the event channel capacity between the worker
// and the relay. Large enough that decoders rarely block on a slow
// listener, small enough to bound memory for EXTRACT-heavy archives.
const defaultEventBuffer = 64

// Options configures an Unarchiver
type Options struct {
	// Logger receives framework diagnostics (state transitions,
	// recovered listener panics). Default: zap.NewNop().
	Logger *zap.Logger

	// Checksum enables BLAKE3-256 digests on every UnarchivedFile
	Checksum bool

	// Skip, when set, is consulted with each entry name before
	// emission; entries for which it returns true produce no EXTRACT
	// event and are not counted in the FINISH total.
	Skip func(name string) bool

	// EventBuffer is the boundary channel capacity.
	// Default: 64.
	EventBuffer int
}

// DefaultOptions returns options with sensible defaults
func DefaultOptions() *Options {
	return &Options{
		Logger:      zap.NewNop(),
		EventBuffer: defaultEventBuffer,
	}
}

// Validate checks options and fills in defaults
func (o *Options) Validate() error {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = defaultEventBuffer
	}
	return nil
}
