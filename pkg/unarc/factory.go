// pkg/unarc/factory.go
package unarc

import (
	"sort"
	"sync"
)

// Format describes one registered archive format: a human-readable
// name, a magic-byte matcher, and a decoder constructor. Adding a new
// format to the framework means registering one of these; nothing else
// changes.
type Format struct {
	// Name is a short lowercase identifier ("zip", "tar.gz", ...)
	Name string

	// Match reports whether the leading bytes of an input buffer
	// belong to this format. It is called with the whole buffer and
	// must not retain or mutate it.
	Match func(data []byte) bool

	// New constructs a fresh decoder for one run
	New func() Decoder
}

var (
	formatMu sync.RWMutex
	formats  []Format
)

// RegisterFormat makes a format available to GetUnarchiver. It is
// intended to be called from a decoder package's init; registering two
// formats with the same name panics. Buffers are matched against
// formats in registration order.
func RegisterFormat(f Format) {
	if f.Name == "" || f.Match == nil || f.New == nil {
		panic("unarc: RegisterFormat with incomplete format")
	}

	formatMu.Lock()
	defer formatMu.Unlock()

	for _, existing := range formats {
		if existing.Name == f.Name {
			panic("unarc: format already registered: " + f.Name)
		}
	}
	formats = append(formats, f)
}

// Formats returns the names of all registered formats, sorted.
func Formats() []string {
	formatMu.RLock()
	defer formatMu.RUnlock()

	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}
	sort.Strings(names)
	return names
}

// GetUnarchiver inspects the buffer's magic bytes and returns an
// Unarchiver for the matching registered format. It fails with
// *UnknownFormatError when no signature matches, starting no worker.
//
// Formats self-register from their packages; import the bundled ones
// via github.com/codedread/unarc/pkg/unarc/formats or individually:
//
//	import _ "github.com/codedread/unarc/pkg/unarc/zipdec"
func GetUnarchiver(data []byte, opts *Options) (Unarchiver, error) {
	if len(data) == 0 {
		return nil, ErrNilBuffer
	}

	formatMu.RLock()
	defer formatMu.RUnlock()

	for _, f := range formats {
		if f.Match(data) {
			return NewUnarchiver(data, f.New(), f.Name, opts)
		}
	}

	magic := data
	if len(magic) > 8 {
		magic = magic[:8]
	}
	return nil, &UnknownFormatError{Magic: magic}
}
