// pkg/unarc/collect.go
package unarc

import (
	"errors"
	"sync"
)

// Collector is a Listener that accumulates a run's results in memory:
// extracted files in emission order, the final counts, and the terminal
// error if any. Register it for the kinds you care about, or use
// Observe to attach it to everything:
//
//	c := unarc.NewCollector()
//	c.Observe(u)
//	_ = u.Run(ctx)
//	<-u.Done()
//	files, err := c.Files(), c.Err()
type Collector struct {
	mu        sync.Mutex
	files     []*UnarchivedFile
	finished  bool
	total     int
	lastBytes int64
	err       error
}

// NewCollector returns an empty Collector
func NewCollector() *Collector {
	return &Collector{}
}

// Observe registers the collector for every event kind on u
func (c *Collector) Observe(u Unarchiver) {
	for kind := KindStart; kind <= KindError; kind++ {
		u.AddEventListener(kind, c)
	}
}

// HandleEvent implements Listener
func (c *Collector) HandleEvent(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Kind {
	case KindProgress:
		c.lastBytes = ev.CurrentBytesProcessed
	case KindExtract:
		c.files = append(c.files, ev.File)
	case KindFinish:
		c.finished = true
		c.total = ev.TotalFilesExtracted
	case KindError:
		c.err = errors.New(ev.Message)
	}
}

// Files returns the extracted files in emission order
func (c *Collector) Files() []*UnarchivedFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*UnarchivedFile, len(c.files))
	copy(out, c.files)
	return out
}

// Finished reports whether a FINISH event was observed
func (c *Collector) Finished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finished
}

// TotalFilesExtracted returns the FINISH payload, 0 before FINISH
func (c *Collector) TotalFilesExtracted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// BytesProcessed returns the last observed PROGRESS byte count
func (c *Collector) BytesProcessed() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastBytes
}

// Err returns the terminal decode error, nil if none was observed
func (c *Collector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
