package cache

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"snapdiff/internal/memory"
)

const (
	codecZstd = "zstd"
	codecGzip = "gzip"
)

// encoderWindow sizes the zstd window against the host's memory, so
// compressing a large result set cannot itself pressure a small host
func encoderWindow() int {
	total, err := memory.TotalMemory()
	if err != nil {
		return 1 << 20
	}
	switch {
	case total >= 8<<30:
		return 8 << 20
	case total >= 4<<30:
		return 4 << 20
	default:
		return 1 << 20
	}
}

// probeCodec picks the codec for new entries, falling back to gzip
// when the zstd encoder cannot be constructed on this host
func probeCodec() string {
	zw, err := zstd.NewWriter(io.Discard, zstd.WithWindowSize(encoderWindow()))
	if err != nil {
		return codecGzip
	}
	zw.Close()
	return codecZstd
}

// newCompressor wraps w in the named codec
func newCompressor(w io.Writer, codec string) (io.WriteCloser, error) {
	switch codec {
	case codecZstd:
		return zstd.NewWriter(w, zstd.WithWindowSize(encoderWindow()))
	case codecGzip:
		return gzip.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown codec %q", codec)
	}
}

// newDecompressor opens the stream for the codec named in the header
func newDecompressor(codec string, r io.Reader) (io.ReadCloser, error) {
	switch codec {
	case codecZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case codecGzip:
		return gzip.NewReader(r)
	default:
		return nil, fmt.Errorf("unknown codec %q", codec)
	}
}

// splitHeader consumes the plaintext header line and returns it along
// with a reader positioned at the compressed payload
func splitHeader(r io.Reader) ([]byte, io.Reader, error) {
	br := bufio.NewReader(r)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("missing header line: %w", err)
	}
	return line[:len(line)-1], br, nil
}
