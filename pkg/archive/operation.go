// Package archive writes a bundle tree as a portable archive.
package archive

import (
	"compress/gzip"
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
)

// Operation is a stream compressor that can sit under a tar writer.
type Operation interface {
	Name() string
	Compress(w io.Writer) (io.WriteCloser, error)
	Decompress(r io.Reader) (io.ReadCloser, error)
}

var registry = map[string]Operation{}

// Register makes op available to format chains by name.
func Register(op Operation) {
	registry[op.Name()] = op
}

// Get looks up a registered operation.
func Get(name string) (Operation, error) {
	op, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", name)
	}
	return op, nil
}

func init() {
	Register(gzipOperation{})
	Register(bzip2Operation{})
}

type gzipOperation struct{}

func (gzipOperation) Name() string { return "gzip" }

func (gzipOperation) Compress(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriterLevel(w, gzip.BestCompression)
}

func (gzipOperation) Decompress(r io.Reader) (io.ReadCloser, error) {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return gr, nil
}

type bzip2Operation struct{}

func (bzip2Operation) Name() string { return "bzip2" }

func (bzip2Operation) Compress(w io.Writer) (io.WriteCloser, error) {
	bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	if err != nil {
		return nil, err
	}
	return bw, nil
}

func (bzip2Operation) Decompress(r io.Reader) (io.ReadCloser, error) {
	br, err := bzip2.NewReader(r, &bzip2.ReaderConfig{})
	if err != nil {
		return nil, err
	}
	return br, nil
}

// chainWriter closes its writers innermost first so each flushes into
// the next.
type chainWriter struct {
	io.Writer
	closers []io.Closer
}

func (c *chainWriter) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// applyChain stacks the named operations over w. The first name is the
// one written to directly.
func applyChain(w io.Writer, names []string) (io.WriteCloser, error) {
	writers := make([]io.WriteCloser, len(names))
	next := w
	for i := len(names) - 1; i >= 0; i-- {
		op, err := Get(names[i])
		if err != nil {
			return nil, err
		}
		cw, err := op.Compress(next)
		if err != nil {
			return nil, fmt.Errorf("applying %s: %w", op.Name(), err)
		}
		writers[i] = cw
		next = cw
	}
	closers := make([]io.Closer, len(writers))
	for i, cw := range writers {
		closers[i] = cw
	}
	return &chainWriter{Writer: next, closers: closers}, nil
}

// reverseChain unwraps r through the named operations, outermost last.
func reverseChain(r io.Reader, names []string) (io.Reader, []io.Closer, error) {
	var closers []io.Closer
	for i := len(names) - 1; i >= 0; i-- {
		op, err := Get(names[i])
		if err != nil {
			return nil, closers, err
		}
		rc, err := op.Decompress(r)
		if err != nil {
			return nil, closers, fmt.Errorf("reversing %s: %w", op.Name(), err)
		}
		closers = append(closers, rc)
		r = rc
	}
	return r, closers, nil
}
