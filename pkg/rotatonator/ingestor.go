package rotatonator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/rotatonator/rotatonator-go/internal/chatlog"
	"github.com/rotatonator/rotatonator-go/internal/tailer"
)

// Handler receives what the ingestor recognizes in the chat log.
// *Engine implements it.
type Handler interface {
	HealerAt(slot int) (string, bool)
	OnCast(CastEvent) error
	ReplaceRoster(names []string, delay time.Duration) error
}

// Ingestor follows a chat log from its end and turns chain casts and
// roster imports into Handler calls.
type Ingestor struct {
	path    string
	parser  *chatlog.Parser
	handler Handler
	cfg     *config
	logger  *slog.Logger

	mu     sync.Mutex
	tailer *tailer.Tailer
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewIngestor creates an ingestor for the chat log at path recognizing
// casts announced with prefix.
func NewIngestor(path, prefix string, h Handler, opts ...Option) (*Ingestor, error) {
	if h == nil {
		return nil, errors.New("rotatonator: handler required")
	}
	p, err := chatlog.NewParser(prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}
	cfg := applyOptions(opts)
	return &Ingestor{
		path:    path,
		parser:  p,
		handler: h,
		cfg:     cfg,
		logger:  cfg.logger.With("log_file", path),
	}, nil
}

// Start begins following the log from its current end. History written
// before Start is never replayed. Calling Start while running is a no-op.
// After Stop, Start follows again from the then-current end.
func (i *Ingestor) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.tailer != nil {
		return nil
	}

	info, err := os.Stat(i.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLogFileNotFound, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	t, err := tailer.New(ctx, i.path, tailer.Config{
		Poll:   i.cfg.poll,
		Offset: info.Size(),
		Logger: i.logger,
	})
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %w", ErrIngestFailed, err)
	}

	i.tailer = t
	i.cancel = cancel
	i.doneCh = make(chan struct{})
	go i.run(t, i.doneCh)

	i.logger.Debug("ingestion started", "offset", info.Size())
	return nil
}

// Stop stops following the log and releases the file.
// Safe to call multiple times.
func (i *Ingestor) Stop() error {
	i.mu.Lock()
	t, cancel, done := i.tailer, i.cancel, i.doneCh
	i.tailer, i.cancel, i.doneCh = nil, nil, nil
	i.mu.Unlock()

	if t == nil {
		return nil
	}
	cancel()
	<-done
	err := t.Stop()
	i.logger.Debug("ingestion stopped")
	return err
}

// Running reports whether the ingestor is following the log.
func (i *Ingestor) Running() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.tailer != nil
}

func (i *Ingestor) run(t *tailer.Tailer, done chan struct{}) {
	defer close(done)

	lines, errs := t.Lines(), t.Errors()
	for lines != nil || errs != nil {
		select {
		case line, ok := <-lines:
			if !ok {
				lines = nil
				continue
			}
			i.processLine(line)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if errors.Is(err, tailer.ErrClosed) {
				i.logger.Error("chat log unreadable", "error", err)
				i.report(fmt.Errorf("%w: %w", ErrIngestFailed, err))
				return
			}
			i.logger.Warn("tail error", "error", err)
			i.report(err)
		}
	}
}

func (i *Ingestor) report(err error) {
	if i.cfg.onError != nil {
		i.cfg.onError(err)
	}
}

// processLine applies one complete log line. Import lines are checked
// before casts and unrecognized lines are ignored.
func (i *Ingestor) processLine(line string) {
	l := i.parser.Parse(line)
	if l == nil {
		return
	}

	switch l.Kind {
	case chatlog.KindImport:
		if len(l.Healers) == 0 {
			i.logger.Debug("import without valid healers discarded")
			return
		}
		delay := time.Duration(l.DelaySeconds) * time.Second
		if err := i.handler.ReplaceRoster(l.Healers, delay); err != nil {
			i.logger.Warn("roster import rejected", "healers", len(l.Healers), "delay", delay, "error", err)
		}

	case chatlog.KindCast:
		healer, ok := i.handler.HealerAt(l.Slot)
		if !ok {
			i.logger.Debug("cast slot outside roster", "slot", l.Slot, "code", l.Code)
			return
		}
		err := i.handler.OnCast(CastEvent{
			Healer:  healer,
			Target:  l.Target,
			Slot:    l.Slot,
			Time:    i.cfg.now(),
			LogTime: l.Timestamp,
		})
		if err != nil {
			i.logger.Debug("cast not applied", "healer", healer, "error", err)
		}
	}
}
