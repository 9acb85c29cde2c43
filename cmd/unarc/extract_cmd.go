// cmd/unarc/extract_cmd.go

package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"go.uber.org/zap"

	"github.com/codedread/unarc/internal/pathutil"
	"github.com/codedread/unarc/pkg/unarc"
	_ "github.com/codedread/unarc/pkg/unarc/formats"
)

func init() {
	rootCmd.AddCommand(extractCmd())
}

func extractCmd() *cobra.Command {
	var inputPath, outputPath string
	var excludes []string
	var excludeFrom string
	var verbose bool
	var quiet bool
	var overwrite bool
	var checksum bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract an archive to a directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if quiet {
				verbose = false
			}

			data, err := os.ReadFile(inputPath)
			if err != nil {
				return fmt.Errorf("read archive: %w", err)
			}

			opts := unarc.DefaultOptions()
			opts.Checksum = checksum
			if verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer logger.Sync()
				opts.Logger = logger
			}

			skip, err := buildSkipFilter(excludes, excludeFrom)
			if err != nil {
				return err
			}
			opts.Skip = skip

			u, err := unarc.GetUnarchiver(data, opts)
			if err != nil {
				return err
			}

			log := func(format string, args ...interface{}) {
				if !quiet {
					fmt.Printf(format+"\n", args...)
				}
			}

			log("Starting extraction...")
			log("  Input:   %s", inputPath)
			log("  Output:  %s", outputPath)
			log("  Format:  %s", u.Format())
			if overwrite {
				log("  Mode:    OVERWRITE (replacing existing files)")
			}
			log("")

			if err := os.MkdirAll(outputPath, 0755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			writer := newDiskWriter(outputPath, overwrite)
			u.AddEventListener(unarc.KindExtract, writer)

			collector := unarc.NewCollector()
			collector.Observe(u)

			var progress *mpb.Progress
			if !quiet && !verbose {
				var bars unarc.Listener
				bars, progress = unarc.NewProgressBarListener()
				u.AddEventListener(unarc.KindProgress, bars)
				u.AddEventListener(unarc.KindFinish, bars)
				u.AddEventListener(unarc.KindError, bars)
			}

			if err := u.Run(cmd.Context()); err != nil {
				return err
			}
			<-u.Done()

			if progress != nil {
				progress.Wait()
			}

			if err := collector.Err(); err != nil {
				return fmt.Errorf("extraction failed: %w", err)
			}

			fmt.Println()
			fmt.Print(unarc.FormatSummary(u.Format(), collector.Files(), int64(len(data))))

			if checksum && !quiet {
				fmt.Println()
				for _, f := range collector.Files() {
					fmt.Printf("  %s  %s\n", hex.EncodeToString(f.Checksum), f.Filename)
				}
			}

			if errs := writer.errors(); len(errs) > 0 {
				fmt.Println()
				for _, e := range errs {
					fmt.Fprintf(os.Stderr, "  - %v\n", e)
				}
				return fmt.Errorf("finished with %d errors", len(errs))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input archive file (required)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", ".", "Output directory")
	cmd.Flags().StringArrayVar(&excludes, "exclude", nil, "Entry patterns to skip (gitignore syntax, repeatable)")
	cmd.Flags().StringVar(&excludeFrom, "exclude-from", "", "File with entry patterns to skip")
	cmd.Flags().BoolVar(&checksum, "checksum", false, "Print BLAKE3 digest of each extracted file")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Show detailed output")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Minimal output (overrides verbose)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing files")

	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// buildSkipFilter compiles --exclude patterns and an optional pattern
// file into a skip predicate for the extraction options.
func buildSkipFilter(patterns []string, fromFile string) (func(string) bool, error) {
	lines := append([]string(nil), patterns...)

	if fromFile != "" {
		content, err := os.ReadFile(fromFile)
		if err != nil {
			return nil, fmt.Errorf("read exclude file: %w", err)
		}
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				lines = append(lines, line)
			}
		}
	}

	if len(lines) == 0 {
		return nil, nil
	}

	matcher := ignore.CompileIgnoreLines(lines...)
	return func(name string) bool {
		return matcher.MatchesPath(filepath.ToSlash(name))
	}, nil
}

// diskWriter writes EXTRACT events to the output directory. Entry
// errors are collected, not fatal, so one bad entry does not abort the
// rest of the archive.
type diskWriter struct {
	destDir   string
	overwrite bool

	mu   sync.Mutex
	errs []error
}

func newDiskWriter(destDir string, overwrite bool) *diskWriter {
	return &diskWriter{destDir: destDir, overwrite: overwrite}
}

func (w *diskWriter) HandleEvent(ev unarc.Event) {
	if ev.Kind != unarc.KindExtract || ev.File == nil {
		return
	}

	outPath, err := pathutil.SafeJoin(w.destDir, ev.File.Filename)
	if err != nil {
		w.record(err)
		return
	}

	if !w.overwrite {
		if _, err := os.Stat(outPath); err == nil {
			w.record(fmt.Errorf("%s: file exists (use --overwrite to replace)", ev.File.Filename))
			return
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		w.record(fmt.Errorf("%s: mkdir: %w", ev.File.Filename, err))
		return
	}

	if err := os.WriteFile(outPath, ev.File.FileData, 0644); err != nil {
		w.record(fmt.Errorf("%s: write: %w", ev.File.Filename, err))
	}
}

func (w *diskWriter) record(err error) {
	w.mu.Lock()
	w.errs = append(w.errs, err)
	w.mu.Unlock()
}

func (w *diskWriter) errors() []error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]error(nil), w.errs...)
}
