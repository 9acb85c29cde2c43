// pkg/unarc/progress.go
package unarc

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// NewProgressBarListener returns a Listener that renders a live byte
// progress bar with the current entry name from a run's event stream,
// and the progress container (call Wait() after the run's Done channel
// closes so the final frame renders). Container options are forwarded
// to mpb.New.
func NewProgressBarListener(opts ...mpb.ContainerOption) (Listener, *mpb.Progress) {
	opts = append([]mpb.ContainerOption{
		mpb.WithWidth(60),
		mpb.WithRefreshRate(100),
	}, opts...)
	progress := mpb.New(opts...)

	var bar *mpb.Bar
	var totalBytes int64

	// The current filename is read by mpb's render goroutine while the
	// relay goroutine updates it.
	var nameMu sync.Mutex
	var currentName string
	nameFn := func(decor.Statistics) string {
		nameMu.Lock()
		defer nameMu.Unlock()
		return currentName
	}

	listener := ListenerFunc(func(ev Event) {
		switch ev.Kind {
		case KindProgress:
			totalBytes = ev.TotalBytes
			if ev.CurrentFilename != "" {
				nameMu.Lock()
				currentName = TruncateLeft(ev.CurrentFilename, 30)
				nameMu.Unlock()
			}
			if bar == nil {
				bar = progress.AddBar(ev.TotalBytes,
					mpb.PrependDecorators(
						decor.Name("Extracting", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
						decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncWidth),
					),
					mpb.AppendDecorators(
						decor.Percentage(decor.WC{W: 5}),
						decor.Any(nameFn, decor.WC{C: decor.DindentRight | decor.DextraSpace, W: 32}),
					),
				)
			}
			bar.SetCurrent(ev.CurrentBytesProcessed)

		case KindFinish:
			// FINISH carries no byte counts; complete the bar with the
			// total captured from PROGRESS so Wait() can return.
			if bar != nil {
				bar.SetCurrent(totalBytes)
			}

		case KindError:
			if bar != nil {
				bar.Abort(true)
			}
		}
	})

	return listener, progress
}

// FormatSummary formats a completed run into a human-readable summary
func FormatSummary(format string, files []*UnarchivedFile, totalBytes int64) string {
	var sb strings.Builder

	var outBytes uint64
	for _, f := range files {
		outBytes += uint64(len(f.FileData))
	}

	sb.WriteString("Summary:\n")
	fmt.Fprintf(&sb, "  Format:          %s\n", format)
	fmt.Fprintf(&sb, "  Files extracted: %d\n", len(files))
	fmt.Fprintf(&sb, "  Archive size:    %s\n", FormatSize(uint64(totalBytes)))
	fmt.Fprintf(&sb, "  Extracted size:  %s\n", FormatSize(outBytes))

	return sb.String()
}

// FormatSize formats bytes into human-readable string
func FormatSize(bytes uint64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
		TB = 1024 * GB
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// TruncateLeft truncates a path from the left to fit maxLen, preserving the filename
func TruncateLeft(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	filename := filepath.Base(path)
	if len(filename) >= maxLen-3 {
		return "..." + filename[len(filename)-(maxLen-3):]
	}

	return "..." + path[len(path)-(maxLen-3):]
}
