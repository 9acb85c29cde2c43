// pkg/unarc/event.go
package unarc

// EventKind identifies a moment in an extraction's lifecycle
type EventKind int

const (
	// KindStart is emitted exactly once, before any decoding happens
	KindStart EventKind = iota

	// KindProgress reports cumulative bytes processed so far
	KindProgress

	// KindExtract carries one successfully decoded entry
	KindExtract

	// KindFinish is the terminal event of a successful run
	KindFinish

	// KindError is the terminal event of a failed run
	KindError
)

// String returns the string representation of the event kind
func (k EventKind) String() string {
	switch k {
	case KindStart:
		return "START"
	case KindProgress:
		return "PROGRESS"
	case KindExtract:
		return "EXTRACT"
	case KindFinish:
		return "FINISH"
	case KindError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// valid reports whether k is one of the five recognized kinds
func (k EventKind) valid() bool {
	return k >= KindStart && k <= KindError
}

// UnarchivedFile is one decoded archive entry.
// Ownership transfers to the listener that receives it; the decoder
// does not touch FileData after emission.
type UnarchivedFile struct {
	// Filename is the entry path as stored in the archive
	Filename string

	// FileData is the fully decoded entry content
	FileData []byte

	// Checksum is the BLAKE3-256 digest of FileData.
	// Only set when Options.Checksum is enabled.
	Checksum []byte
}

// Event describes one moment in an extraction's lifecycle.
// Which fields are meaningful depends on Kind:
//
//	KindStart:    no payload
//	KindProgress: CurrentBytesProcessed, TotalBytes, CurrentFilename (optional)
//	KindExtract:  File
//	KindFinish:   TotalFilesExtracted
//	KindError:    Message, Offset (-1 when not determinable)
//
// Events are immutable once constructed; listeners must not modify them.
type Event struct {
	Kind EventKind

	// Progress payload
	CurrentBytesProcessed int64
	TotalBytes            int64
	CurrentFilename       string

	// Extract payload
	File *UnarchivedFile

	// Finish payload
	TotalFilesExtracted int

	// Error payload
	Message string
	Offset  int64
}
