// pkg/unarc/tardec/tardec.go

// Package tardec registers TAR decoders with the unarc framework:
// plain tar plus the gzip, zstd and xz compressed variants. Importing
// it (usually blank) makes GetUnarchiver recognize all four signatures.
package tardec

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"

	"github.com/codedread/unarc/pkg/unarc"
)

// wrapFunc turns the raw archive stream into a tar byte stream.
// The returned close func may be nil.
type wrapFunc func(r io.Reader) (io.Reader, func(), error)

func init() {
	unarc.RegisterFormat(unarc.Format{
		Name:  "tar",
		Match: MatchTar,
		New:   func() unarc.Decoder { return &Decoder{wrap: nil} },
	})
	unarc.RegisterFormat(unarc.Format{
		Name:  "tar.gz",
		Match: MatchGzip,
		New:   func() unarc.Decoder { return &Decoder{wrap: wrapGzip} },
	})
	unarc.RegisterFormat(unarc.Format{
		Name:  "tar.zst",
		Match: MatchZstd,
		New:   func() unarc.Decoder { return &Decoder{wrap: wrapZstd} },
	})
	unarc.RegisterFormat(unarc.Format{
		Name:  "tar.xz",
		Match: MatchXz,
		New:   func() unarc.Decoder { return &Decoder{wrap: wrapXz} },
	})
}

// MatchTar reports whether data carries the ustar magic at offset 257
func MatchTar(data []byte) bool {
	return len(data) >= 262 && string(data[257:262]) == "ustar"
}

// MatchGzip reports whether data starts with the gzip magic
func MatchGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1F && data[1] == 0x8B
}

// MatchZstd reports whether data starts with the zstd frame magic
func MatchZstd(data []byte) bool {
	return len(data) >= 4 &&
		data[0] == 0x28 && data[1] == 0xB5 && data[2] == 0x2F && data[3] == 0xFD
}

// MatchXz reports whether data starts with the xz stream magic
func MatchXz(data []byte) bool {
	return len(data) >= 6 &&
		data[0] == 0xFD && data[1] == '7' && data[2] == 'z' &&
		data[3] == 'X' && data[4] == 'Z' && data[5] == 0x00
}

func wrapGzip(r io.Reader) (io.Reader, func(), error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("create gzip reader: %w", err)
	}
	return gz, func() { gz.Close() }, nil
}

func wrapZstd(r io.Reader) (io.Reader, func(), error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return dec, dec.Close, nil
}

func wrapXz(r io.Reader) (io.Reader, func(), error) {
	xr, err := xz.NewReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("create xz reader: %w", err)
	}
	return xr, nil, nil
}

// countingReader tracks compressed input bytes consumed so progress
// reflects position in the archive buffer, not the inflated stream.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Decoder decodes tar streams, optionally decompressing first.
// Entries are emitted in physical archive order; a compressed input
// whose inner stream is not tar fails on the first header read.
type Decoder struct {
	wrap wrapFunc
}

// Decode implements unarc.Decoder
func (d *Decoder) Decode(ctx context.Context, data []byte, sink unarc.Sink) error {
	cr := &countingReader{r: bytes.NewReader(data)}

	var inner io.Reader = cr
	if d.wrap != nil {
		wrapped, closeFn, err := d.wrap(cr)
		if err != nil {
			return err
		}
		if closeFn != nil {
			defer closeFn()
		}
		inner = wrapped
	}

	tr := tar.NewReader(inner)
	sink.Progress(0, "")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &unarc.DecodeError{
				Offset: cr.n,
				Err:    fmt.Errorf("read tar header: %w", err),
			}
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		sink.Progress(cr.n, header.Name)

		content, err := io.ReadAll(tr)
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
