// pkg/unarc/rardec/rardec.go

// Package rardec registers a RAR decoder with the unarc framework.
// Importing it (usually blank) makes GetUnarchiver recognize the RAR4
// and RAR5 signatures. Decoding is delegated to nwaples/rardecode.
package rardec

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/nwaples/rardecode/v2"

	"github.com/codedread/unarc/pkg/unarc"
)

func init() {
	unarc.RegisterFormat(unarc.Format{
		Name:  "rar",
		Match: Match,
		New:   func() unarc.Decoder { return &Decoder{} },
	})
}

// Match reports whether data starts with a RAR signature:
// "Rar!\x1A\x07\x00" for RAR 1.5-4.x or "Rar!\x1A\x07\x01\x00" for RAR 5.
func Match(data []byte) bool {
	if len(data) < 7 || !bytes.HasPrefix(data, []byte("Rar!\x1A\x07")) {
		return false
	}
	switch data[6] {
	case 0x00:
		return true
	case 0x01:
		return len(data) >= 8 && data[7] == 0x00
	}
	return false
}

// countingReader tracks archive bytes consumed for progress reporting
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Decoder decodes RAR archives. Entries are emitted in physical
// archive order; solid archives decode sequentially, so that order is
// also the decode order.
type Decoder struct{}

// Decode implements unarc.Decoder
func (d *Decoder) Decode(ctx context.Context, data []byte, sink unarc.Sink) error {
	cr := &countingReader{r: bytes.NewReader(data)}

	rr, err := rardecode.NewReader(cr)
	if err != nil {
		return fmt.Errorf("open rar: %w", err)
	}

	sink.Progress(0, "")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &unarc.DecodeError{
				Offset: cr.n,
				Err:    fmt.Errorf("read rar header: %w", err),
			}
		}
		if header.IsDir {
			continue
		}

		sink.Progress(cr.n, header.Name)

		content, err := io.ReadAll(rr)
		if err != nil {
			return &unarc.DecodeError{
				Offset: cr.n,
				Err:    fmt.Errorf("read entry %s: %w", header.Name, err),
			}
		}

		sink.Extract(&unarc.UnarchivedFile{
			Filename: header.Name,
			FileData: content,
		})
		sink.Progress(cr.n, header.Name)
	}

	return nil
}
