package statsfile

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/hellominers/statsupdater/internal/errors"
	"github.com/hellominers/statsupdater/internal/logger"
)

// Source is an ordered, exhaustible sequence of handles. It is consumed front
// to back and never rescanned.
type Source interface {
	// Next pops the next handle. ok is false once the source is exhausted.
	Next() (h Handle, ok bool)
	// HasNext reports whether another handle is available.
	HasNext() bool
	// Close releases the underlying enumeration resource. Safe to call more than once.
	Close() error
}

// DirSource enumerates a directory lazily, readAhead entries at a time.
// Not safe for concurrent use; Close may be called from any goroutine.
type DirSource struct {
	dir       string
	pattern   string
	readAhead int
	log       logger.Logger

	mu        sync.Mutex
	f         *os.File
	buf       []Handle
	seen      map[string]struct{}
	exhausted bool

	closeOnce sync.Once
	closeErr  error
}

// OpenDir opens dir for enumeration. The directory handle is held until the
// listing is drained or Close is called.
func OpenDir(dir, pattern string, readAhead int, log logger.Logger) (*DirSource, error) {
	if pattern == "" {
		pattern = "*.json"
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryValidation).
			Context("pattern", pattern).
			Build()
	}
	if readAhead < 1 {
		readAhead = 64
	}

	f, err := os.Open(dir) //nolint:gosec // directory comes from operator config
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "open-stats-dir").
			Context("dir", dir).
			Build()
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.New(err).
			Category(errors.CategoryFileIO).
			Context("operation", "stat-stats-dir").
			Context("dir", dir).
			Build()
	}
	if !info.IsDir() {
		_ = f.Close()
		return nil, errors.Newf("%s is not a directory", dir).
			Category(errors.CategoryValidation).
			Context("dir", dir).
			Build()
	}

	return &DirSource{
		dir:       dir,
		pattern:   pattern,
		readAhead: readAhead,
		log:       log,
		f:         f,
		seen:      make(map[string]struct{}),
	}, nil
}

// HasNext fills the read-ahead buffer if needed and reports whether a handle is available.
func (s *DirSource) HasNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fillLocked()
}

// Next pops the next matching handle.
func (s *DirSource) Next() (Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fillLocked() {
		return Handle{}, false
	}
	h := s.buf[0]
	s.buf = s.buf[1:]
	return h, true
}

// fillLocked reads directory chunks until at least one match is buffered or
// the listing ends. A listing error is logged and ends the enumeration.
func (s *DirSource) fillLocked() bool {
	for len(s.buf) == 0 {
		if s.exhausted || s.f == nil {
			return false
		}

		entries, err := s.f.ReadDir(s.readAhead)
		if err != nil && err != io.EOF {
			s.log.Warn("Failed to list stats directory, treating it as fully read",
				logger.String("dir", s.dir),
				logger.Error(err))
		}
		if len(entries) == 0 || (err != nil && err != io.EOF) {
			s.exhausted = true
		}

		// chunk order is filesystem dependent
		slices.SortFunc(entries, func(a, b os.DirEntry) int {
			return strings.Compare(a.Name(), b.Name())
		})
		for _, e := range entries {
			name := e.Name()
			// dotfiles include our own in-flight temp files
			if e.IsDir() || strings.HasPrefix(name, ".") {
				continue
			}
			if ok, _ := path.Match(s.pattern, name); !ok {
				continue
			}
			// a rewritten file gets a fresh directory entry and may be listed again
			if _, dup := s.seen[name]; dup {
				continue
			}
			s.seen[name] = struct{}{}
			s.buf = append(s.buf, NewHandle(filepath.Join(s.dir, name)))
		}
	}
	return true
}

// Close releases the directory handle exactly once; later calls return the first result.
func (s *DirSource) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.exhausted = true
		s.buf = nil
		if s.f != nil {
			if err := s.f.Close(); err != nil {
				s.closeErr = errors.New(err).
					Category(errors.CategoryFileIO).
					Context("operation", "close-stats-dir").
					Context("dir", s.dir).
					Build()
			}
			s.f = nil
		}
	})
	return s.closeErr
}

// SliceSource serves a fixed list of handles. Close counts its calls so
// callers can verify release semantics.
type SliceSource struct {
	handles []Handle
	closed  int
}

// NewSliceSource returns a Source over handles, in order.
func NewSliceSource(handles ...Handle) *SliceSource {
	return &SliceSource{handles: slices.Clone(handles)}
}

// Next pops the next handle.
func (s *SliceSource) Next() (Handle, bool) {
	if len(s.handles) == 0 || s.closed > 0 {
		return Handle{}, false
	}
	h := s.handles[0]
	s.handles = s.handles[1:]
	return h, true
}

// HasNext reports whether handles remain.
func (s *SliceSource) HasNext() bool {
	return len(s.handles) > 0 && s.closed == 0
}

// Remaining returns how many handles have not been popped.
func (s *SliceSource) Remaining() int {
	return len(s.handles)
}

// Close records the call.
func (s *SliceSource) Close() error {
	s.closed++
	return nil
}

// CloseCalls returns how many times Close was called.
func (s *SliceSource) CloseCalls() int {
	return s.closed
}

var (
	_ Source = (*DirSource)(nil)
	_ Source = (*SliceSource)(nil)
)
