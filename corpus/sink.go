package corpus

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Dir is the directory that stored samples are written to by default.
const Dir = "corpus"

// Sink hands out a writer for each sample, numbered from 1.
type Sink interface {
	Open(index int) (io.WriteCloser, error)
}

type streamSink struct {
	w io.Writer
}

// Stream writes every sample to w back to back, without separators.
func Stream(w io.Writer) Sink {
	return streamSink{w: w}
}

func (s streamSink) Open(int) (io.WriteCloser, error) {
	return nopCloser{s.w}, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

type dirSink struct {
	dir string
}

// Files writes sample i to dir/i, creating dir if needed.
func Files(dir string) (Sink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return dirSink{dir: dir}, nil
}

func (s dirSink) Open(index int) (io.WriteCloser, error) {
	return os.Create(filepath.Join(s.dir, strconv.Itoa(index)))
}
