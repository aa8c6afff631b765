package logsink

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Sink is the interface the Supervisor consumes (spec.md §4.5). Only
// Start, Emit and Stop are relevant to the core; everything about the
// concrete sink's rotation policy, file layout or format choice is
// opaque to it.
type Sink interface {
	Start() error
	Emit(text string, withTimestamp bool)
	Stop()
}

type record struct {
	text          string
	withTimestamp bool
}

// FileSink is the default Sink implementation: a single background
// goroutine drains an internal FIFO to a file, optionally prefixing each
// record with a formatted timestamp, and rotates the file by renaming it
// to a timestamped backup once it crosses Config.MaxSizeMiB (when
// Config.Backup is set). This reproduces CppLog::working/backup/write
// from the original implementation.
type FileSink struct {
	cfg Config

	mu      sync.Mutex
	queue   []record
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}

	file *os.File
	w    *bufio.Writer

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewFileSink constructs a FileSink from a log configuration document.
func NewFileSink(cfg Config) *FileSink {
	return &FileSink{
		cfg:     cfg,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (s *FileSink) fullPath() string {
	return filepath.Join(s.cfg.Path, s.cfg.Name)
}

// Start launches the background drainer. It is idempotent; calling it
// more than once only starts the goroutine on the first call.
func (s *FileSink) Start() error {
	var err error
	s.startOnce.Do(func() {
		if openErr := s.open(); openErr != nil {
			err = fmt.Errorf("logsink: opening %s: %w", s.fullPath(), openErr)
			return
		}
		go s.run()
	})
	return err
}

// Emit appends a record to the internal FIFO without blocking on I/O.
func (s *FileSink) Emit(text string, withTimestamp bool) {
	s.mu.Lock()
	s.queue = append(s.queue, record{text: text, withTimestamp: withTimestamp})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Stop flushes remaining entries then terminates the drainer.
func (s *FileSink) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
		<-s.stopped
	})
}

func (s *FileSink) run() {
	defer close(s.stopped)
	for {
		s.drain()
		select {
		case <-s.done:
			s.drain()
			s.close()
			return
		case <-s.wake:
		}
	}
}

func (s *FileSink) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		rec := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.rotateIfNeeded()
		if rec.withTimestamp {
			fmt.Fprintf(s.w, "%-20s --->  %s\n", s.now(), rec.text)
		} else {
			fmt.Fprintf(s.w, "%s\n", rec.text)
		}
		s.w.Flush()
	}
}

func (s *FileSink) now() string {
	return time.Now().Format(s.cfg.Format.layout())
}

func (s *FileSink) open() error {
	flags := os.O_CREATE | os.O_WRONLY
	if s.cfg.OpenMode == WriteOnly {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}

	if err := os.MkdirAll(s.cfg.Path, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(s.fullPath(), flags, 0o644)
	if err != nil {
		return err
	}
	s.file = f
	s.w = bufio.NewWriter(f)
	return nil
}

func (s *FileSink) close() {
	if s.w != nil {
		s.w.Flush()
	}
	if s.file != nil {
		s.file.Close()
	}
}

// rotateIfNeeded reproduces CppLog::backup(): once the file crosses
// MaxSizeMiB it is closed, renamed to "<name> <FULLA timestamp>", and a
// fresh file is reopened at the original path.
func (s *FileSink) rotateIfNeeded() {
	if !s.cfg.Backup {
		return
	}
	info, err := s.file.Stat()
	if err != nil {
		return
	}
	if info.Size() < s.cfg.MaxSizeMiB*1024*1024 {
		return
	}

	path := s.fullPath()
	backupName := fmt.Sprintf("%s %s", path, time.Now().Format(FullA.layout()))

	s.close()
	os.Rename(path, backupName)
	s.open()
}
