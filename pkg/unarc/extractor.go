// pkg/unarc/extractor.go
package unarc

// Extractor is a configured unarchiver factory: one place to hold
// shared options (logger, checksums, skip filter) when a process
// extracts many archives over its lifetime.
type Extractor struct {
	opts *Options
}

// NewExtractor returns an Extractor applying opts to every unarchiver
// it creates. A nil opts means defaults.
func NewExtractor(opts *Options) (*Extractor, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{opts: opts}, nil
}

// Unarchive selects a format for data by magic bytes and returns an
// idle Unarchiver. See GetUnarchiver.
func (e *Extractor) Unarchive(data []byte) (Unarchiver, error) {
	return GetUnarchiver(data, e.opts)
}
