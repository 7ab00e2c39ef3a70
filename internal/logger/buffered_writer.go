package logger

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

const (
	// LogFilePermissions is the mode for newly created log files
	LogFilePermissions = 0o600

	defaultBufferSize    = 16 * 1024
	defaultFlushInterval = 2 * time.Second
)

// BufferedFileWriter appends log records to a file through a bufio.Writer and
// flushes on a fixed interval. Safe for concurrent use.
type BufferedFileWriter struct {
	mu       sync.Mutex
	file     *os.File
	writer   *bufio.Writer
	filePath string
	ticker   *time.Ticker
	stop     chan struct{}
	done     chan struct{}
	closed   bool
}

// NewBufferedFileWriter opens filePath in append mode and starts the flush loop.
// A flushInterval of zero selects the default.
func NewBufferedFileWriter(filePath string) (*BufferedFileWriter, error) {
	return newBufferedFileWriter(filePath, defaultFlushInterval)
}

func newBufferedFileWriter(filePath string, flushInterval time.Duration) (*BufferedFileWriter, error) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, LogFilePermissions) //nolint:gosec // path from user config
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filePath, err)
	}

	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	w := &BufferedFileWriter{
		file:     file,
		writer:   bufio.NewWriterSize(file, defaultBufferSize),
		filePath: filePath,
		ticker:   time.NewTicker(flushInterval),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.flushLoop()

	return w, nil
}

func (w *BufferedFileWriter) flushLoop() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-w.ticker.C:
			// errors resurface on the next Write
			_ = w.Flush()
		}
	}
}

// Write buffers p. Thread-safe.
func (w *BufferedFileWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer == nil {
		return 0, fmt.Errorf("log writer for %s is closed", w.filePath)
	}
	return w.writer.Write(p)
}

// Flush pushes buffered bytes to the OS without fsync.
func (w *BufferedFileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.writer == nil {
		return nil
	}
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush buffer: %w", err)
	}
	return nil
}

// Close stops the flush loop, syncs remaining data and closes the file.
// Calling Close more than once is a no-op.
func (w *BufferedFileWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	w.ticker.Stop()
	close(w.stop)
	<-w.done

	w.mu.Lock()
	defer w.mu.Unlock()

	var errs []error
	if err := w.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("failed to flush buffer: %w", err))
	}
	if err := w.file.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("failed to sync file: %w", err))
	}
	if err := w.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close file: %w", err))
	}
	w.writer = nil
	w.file = nil

	return errors.Join(errs...)
}

var _ io.WriteCloser = (*BufferedFileWriter)(nil)
