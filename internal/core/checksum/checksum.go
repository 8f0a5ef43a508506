package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"snapdiff/internal/domain"
)

// Algorithm represents the hashing algorithm to use
type Algorithm string

const (
	// SHA256 algorithm (collision resistant, recommended default)
	SHA256 Algorithm = Algorithm(domain.HashSHA256)
	// XXHash64 algorithm (fast, suitable for move detection on trusted trees)
	XXHash64 Algorithm = Algorithm(domain.HashXXHash64)
)

// Options configures the checksum calculator
type Options struct {
	// MaxSize: files larger than this will not be hashed (0 = unlimited)
	MaxSize int64

	// BufferSize: size of buffer for streaming reads
	// Default: 32KB
	BufferSize int
}

// DefaultOptions returns the recommended default options
func DefaultOptions() Options {
	return Options{
		MaxSize:    domain.DefaultMaxContentHashSize,
		BufferSize: 32 * 1024,
	}
}

// Calculator computes file content hashes
type Calculator interface {
	// Calculate computes a hash from an io.Reader
	Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error)

	// File computes the hash of a file on disk, enforcing MaxSize from
	// the stat size before any read happens
	File(ctx context.Context, path string, algo Algorithm) (string, error)
}

// DefaultCalculator implements Calculator with streaming support
type DefaultCalculator struct {
	opts Options
}

// NewCalculator creates a new calculator with the given options
func NewCalculator(opts Options) *DefaultCalculator {
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultOptions().BufferSize
	}
	return &DefaultCalculator{opts: opts}
}

// NewDefaultCalculator creates a calculator with default options
func NewDefaultCalculator() *DefaultCalculator {
	return NewCalculator(DefaultOptions())
}

// Calculate implements the Calculator interface
func (c *DefaultCalculator) Calculate(ctx context.Context, reader io.Reader, algo Algorithm) (string, error) {
	h, err := newHasher(algo)
	if err != nil {
		return "", err
	}

	var limitedReader io.Reader = reader
	if c.opts.MaxSize > 0 {
		limitedReader = io.LimitReader(reader, c.opts.MaxSize+1)
	}

	buffer := make([]byte, c.opts.BufferSize)
	totalBytes := int64(0)

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := limitedReader.Read(buffer)
		if n > 0 {
			totalBytes += int64(n)

			if c.opts.MaxSize > 0 && totalBytes > c.opts.MaxSize {
				return "", fmt.Errorf("%w: content exceeds maximum (%d bytes)",
					domain.ErrHash, c.opts.MaxSize)
			}

			if _, hashErr := h.Write(buffer[:n]); hashErr != nil {
				return "", fmt.Errorf("%w: %v", domain.ErrHash, hashErr)
			}
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrHash, err)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// File implements the Calculator interface
func (c *DefaultCalculator) File(ctx context.Context, path string, algo Algorithm) (string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrHash, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", domain.ErrHash, path)
	}
	if c.opts.MaxSize > 0 && info.Size() > c.opts.MaxSize {
		return "", fmt.Errorf("%w: %s exceeds maximum (%d bytes)",
			domain.ErrHash, path, c.opts.MaxSize)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrHash, err)
	}
	defer f.Close()

	return c.Calculate(ctx, f, algo)
}

func newHasher(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case SHA256:
		return sha256.New(), nil
	case XXHash64:
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported algorithm %q", domain.ErrHash, algo)
	}
}

// IsSupported checks if the given algorithm is supported
func IsSupported(algo Algorithm) bool {
	switch algo {
	case SHA256, XXHash64:
		return true
	default:
		return false
	}
}
