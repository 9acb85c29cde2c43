// pkg/unarc/zipdec/zipdec.go

// Package zipdec registers a ZIP decoder with the unarc framework.
// Importing it (usually blank) makes GetUnarchiver recognize the ZIP
// local-file-header and empty-archive signatures.
package zipdec

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/codedread/unarc/pkg/unarc"
)

func init() {
	unarc.RegisterFormat(unarc.Format{
		Name:  "zip",
		Match: Match,
		New:   func() unarc.Decoder { return &Decoder{} },
	})
}

// Match reports whether data starts with a ZIP signature
// (PK\x03\x04 local file header, or PK\x05\x06 for an empty archive).
func Match(data []byte) bool {
	if len(data) < 4 || data[0] != 'P' || data[1] != 'K' {
		return false
	}
	return (data[2] == 0x03 && data[3] == 0x04) ||
		(data[2] == 0x05 && data[3] == 0x06)
}

// Decoder decodes ZIP archives via archive/zip. Entries are emitted in
// central-directory order, which for archives written front-to-back is
// the physical entry order.
type Decoder struct{}

// Decode implements unarc.Decoder
func (d *Decoder) Decode(ctx context.Context, data []byte, sink unarc.Sink) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	var processed int64
	sink.Progress(0, "")

	for _, zf := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		if zf.FileInfo().IsDir() {
			continue
		}

		sink.Progress(processed, zf.Name)

		offset, oerr := zf.DataOffset()
		if oerr != nil {
			offset = -1
		}

		rc, err := zf.Open()
		if err != nil {
			return &unarc.DecodeError{
				Offset: offset,
				Err:    fmt.Errorf("open entry %s: %w", zf.Name, err),
			}
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return &unarc.DecodeError{
				Offset: offset,
				Err:    fmt.Errorf("read entry %s: %w", zf.Name, err),
			}
		}

		processed += int64(zf.CompressedSize64)
		sink.Extract(&unarc.UnarchivedFile{
			Filename: zf.Name,
			FileData: content,
		})
		sink.Progress(processed, zf.Name)
	}

	return nil
}
