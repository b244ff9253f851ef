// Package sink implements the rule output sink: a line-oriented stream
// that receives a header followed by one formatted rule per line, plus
// optional fan-out to a gzip-compressed file and/or a libp2p pubsub topic
// for real-time network consumers.
package sink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/multierr"
)

// Sink is the output contract the consumer writes to. No backpressure
// from the sink is propagated to the mining loop: WriteLine errors are
// logged by the caller (see core/consumer) and do not block publication.
type Sink interface {
	WriteLine(line string) error
	Flush() error
	Close() error
}

// FileSink appends lines to a file, gzip-compressing on the fly when the
// path ends in ".gz".
type FileSink struct {
	mu     sync.Mutex
	file   *os.File
	gz     *gzip.Writer
	writer *bufio.Writer
}

// NewFileSink opens path for appending (creating it if absent).
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("sink: open %s: %w", path, err)
	}
	fs := &FileSink{file: f}
	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		fs.gz = gzip.NewWriter(f)
		w = fs.gz
	}
	fs.writer = bufio.NewWriter(w)
	return fs, nil
}

func (s *FileSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.writer.WriteString(line + "\n")
	return err
}

func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writer.Flush(); err != nil {
		return err
	}
	if s.gz != nil {
		return s.gz.Flush()
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err error
	err = multierr.Append(err, s.writer.Flush())
	if s.gz != nil {
		err = multierr.Append(err, s.gz.Close())
	}
	err = multierr.Append(err, s.file.Close())
	return err
}

// WriterSink adapts any io.Writer (e.g. os.Stdout, or a test buffer) to
// Sink.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

func (s *WriterSink) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintln(s.w, line)
	return err
}

func (s *WriterSink) Flush() error { return nil }
func (s *WriterSink) Close() error { return nil }

// MultiSink fans out every line to each underlying sink in order,
// collecting (not masking) every independent failure.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink constructs a fan-out sink over the given sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) WriteLine(line string) error {
	var err error
	for _, s := range m.sinks {
		err = multierr.Append(err, s.WriteLine(line))
	}
	return err
}

func (m *MultiSink) Flush() error {
	var err error
	for _, s := range m.sinks {
		err = multierr.Append(err, s.Flush())
	}
	return err
}

func (m *MultiSink) Close() error {
	var err error
	for _, s := range m.sinks {
		err = multierr.Append(err, s.Close())
	}
	return err
}
