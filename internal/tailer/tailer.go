// Package tailer follows a growing chat log file line by line.
package tailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/nxadm/tail"
)

// tailerErrBuffer is the buffer size for the error channel.
// A small buffer prevents error loss during brief moments when the consumer
// is busy processing lines.
const tailerErrBuffer = 16

// ErrClosed is reported when the followed file stops delivering lines
// without Stop being called (file removed, renamed or unreadable).
var ErrClosed = errors.New("log file closed")

// Tailer wraps nxadm/tail for chat log tailing.
//
// Only complete lines are delivered: a line still being written without its
// trailing newline is held back until it is finished.
type Tailer struct {
	t      *tail.Tail
	ctx    context.Context
	cancel context.CancelFunc
	lines  chan string
	errors chan error
	doneCh chan struct{}

	mu      sync.Mutex
	stopped bool
}

// Config holds configuration for tailing.
type Config struct {
	// Poll uses polling instead of inotify/ReadDirectoryChangesW.
	Poll bool

	// FromStart reads from the beginning of the file instead of the end.
	FromStart bool

	// Offset, when positive and FromStart is false, starts reading at this
	// byte offset instead of wherever the end of file is once the
	// background reader opens it.
	Offset int64

	// Logger receives nxadm/tail's internal diagnostics at debug level.
	// Nil discards them.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration: notifications from the
// OS, starting at the current end of file.
func DefaultConfig() Config {
	return Config{}
}

// New creates a new Tailer for the specified file. The file must exist.
// The provided context controls the tailer's lifecycle.
func New(ctx context.Context, filepath string, cfg Config) (*Tailer, error) {
	location := &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	switch {
	case cfg.FromStart:
		location = &tail.SeekInfo{Offset: 0, Whence: io.SeekStart}
	case cfg.Offset > 0:
		location = &tail.SeekInfo{Offset: cfg.Offset, Whence: io.SeekStart}
	}

	tc := tail.Config{
		Follow:    true,
		ReOpen:    false,
		Poll:      cfg.Poll,
		MustExist: true,
		Location:  location,
		Logger:    tail.DiscardingLogger,
	}
	if cfg.Logger != nil {
		tc.Logger = slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelDebug)
	}

	t, err := tail.TailFile(filepath, tc)
	if err != nil {
		return nil, fmt.Errorf("opening tail: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)

	tailer := &Tailer{
		t:      t,
		ctx:    ctx,
		cancel: cancel,
		lines:  make(chan string),
		errors: make(chan error, tailerErrBuffer),
		doneCh: make(chan struct{}),
	}

	go tailer.run()

	return tailer, nil
}

// Filename returns the path being followed.
func (t *Tailer) Filename() string {
	return t.t.Filename
}

// Lines returns a channel that receives complete log lines in file order,
// without the trailing newline.
func (t *Tailer) Lines() <-chan string {
	return t.lines
}

// Errors returns a channel that receives errors from tailing.
// An error wrapping ErrClosed is the last one sent before the channels close.
func (t *Tailer) Errors() <-chan error {
	return t.errors
}

// Done is closed once the tailer has stopped delivering lines.
func (t *Tailer) Done() <-chan struct{} {
	return t.doneCh
}

// Stop stops tailing, releases the file and closes all channels.
// Safe to call multiple times.
func (t *Tailer) Stop() error {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return nil
	}
	t.stopped = true
	t.mu.Unlock()

	t.cancel()
	<-t.doneCh
	err := t.t.Stop()
	t.t.Cleanup()
	return err
}

func (t *Tailer) run() {
	defer close(t.doneCh)
	defer close(t.lines)
	defer close(t.errors)

	for {
		select {
		case <-t.ctx.Done():
			return
		case line, ok := <-t.t.Lines:
			if !ok {
				if t.ctx.Err() == nil {
					t.sendError(fmt.Errorf("%w: %s", ErrClosed, t.t.Filename))
				}
				return
			}
			if line.Err != nil {
				t.sendError(fmt.Errorf("tail: %w", line.Err))
				continue
			}
			select {
			case t.lines <- line.Text:
			case <-t.ctx.Done():
				return
			}
		}
	}
}

// sendError delivers err unless the buffer is full or the tailer is stopping.
func (t *Tailer) sendError(err error) {
	select {
	case t.errors <- err:
	case <-t.ctx.Done():
	default:
	}
}
