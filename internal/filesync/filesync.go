package filesync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dshills/coreview/internal/collab"
	"github.com/dshills/coreview/internal/workspace"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultDebounce = 50 * time.Millisecond

// Sync keeps a file and a workspace in step.
type Sync struct {
	path     string
	ws       *workspace.Workspace
	logger   *zap.Logger
	debounce time.Duration
	onEvent  func(collab.Event)

	running atomic.Bool

	writeMu sync.Mutex
	// lastWritten is the file content this Sync last loaded, read or wrote.
	lastWritten string
}

// Option configures a Sync.
type Option func(*Sync)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Sync) { s.logger = l } }

// WithDebounce sets how long to wait after the last file notification
// before re-reading the file.
func WithDebounce(d time.Duration) Option { return func(s *Sync) { s.debounce = d } }

// WithEventHook is called for every collaboration event after it has been
// applied.
func WithEventHook(fn func(collab.Event)) Option { return func(s *Sync) { s.onEvent = fn } }

// New binds path to ws. The workspace observer is registered immediately
// but only writes while Run is active.
func New(path string, ws *workspace.Workspace, opts ...Option) (*Sync, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	s := &Sync{
		path:     abs,
		ws:       ws,
		logger:   zap.NewNop(),
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(s)
	}
	ws.OnChange(s.changed)
	return s, nil
}

// Path returns the absolute path of the bound file.
func (s *Sync) Path() string { return s.path }

// Run loads the file into the workspace, creating it from the workspace
// when missing, then watches it and applies events until ctx is done or
// events is closed. events may be nil.
func (s *Sync) Run(ctx context.Context, events <-chan collab.Event) error {
	if err := s.load(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	// Editors often replace the file by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(s.path), err)
	}

	s.running.Store(true)
	defer s.running.Store(false)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.watch(gctx, watcher) })
	if events != nil {
		g.Go(func() error { return s.apply(gctx, events) })
	}
	err = g.Wait()
	if errors.Is(err, errEventsClosed) {
		return nil
	}
	return err
}

var errEventsClosed = errors.New("events closed")

func (s *Sync) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return s.write(s.ws.Snapshot().Code)
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}
	s.writeMu.Lock()
	s.lastWritten = string(data)
	s.writeMu.Unlock()
	s.ws.Edit(string(data))
	return nil
}

func (s *Sync) watch(ctx context.Context, w *fsnotify.Watcher) error {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != s.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			fire = timer.C

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("file watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			s.reload()

		case <-ctx.Done():
			return nil
		}
	}
}

// reload broadcasts the file when it differs from what Sync last saw
// there. A notification for our own write can fire after a remote update
// has moved the workspace on, so the file may briefly hold older content
// that must not be sent back to the room.
func (s *Sync) reload() {
	s.writeMu.Lock()
	data, err := os.ReadFile(s.path)
	seen := err == nil && string(data) == s.lastWritten
	if err == nil {
		s.lastWritten = string(data)
	}
	s.writeMu.Unlock()
	if err != nil {
		s.logger.Warn("reading file", zap.String("path", s.path), zap.Error(err))
		return
	}
	if seen {
		return
	}
	if s.ws.Edit(string(data)) {
		s.logger.Debug("file changed", zap.String("path", s.path), zap.Int("bytes", len(data)))
	}
}

func (s *Sync) apply(ctx context.Context, events <-chan collab.Event) error {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return errEventsClosed
			}
			switch ev.Kind {
			case collab.EventUpdate:
				if !s.ws.ApplyRemote(ev.Code, ev.Language) {
					s.logger.Debug("remote update ignored", zap.String("language", ev.Language))
				}
			case collab.EventState:
				fields := []zap.Field{zap.String("room", ev.Room), zap.Stringer("state", ev.State)}
				if ev.Err != nil {
					fields = append(fields, zap.Error(ev.Err))
				}
				s.logger.Info("collaboration state", fields...)
			case collab.EventParticipants:
				s.logger.Info("participants", zap.String("room", ev.Room), zap.Int("count", ev.Participants))
			}
			if s.onEvent != nil {
				s.onEvent(ev)
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// changed writes remote and restored content to the file.
func (s *Sync) changed(ch workspace.Change) {
	if !s.running.Load() {
		return
	}
	if ch.Origin != workspace.OriginRemote && ch.Origin != workspace.OriginRestore {
		return
	}
	if err := s.write(ch.State.Code); err != nil {
		s.logger.Error("writing file", zap.String("path", s.path), zap.Error(err))
	}
}

// write replaces the file atomically so the watcher never reads a partial
// file.
func (s *Sync) write(code string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".coreview-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(code); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return fmt.Errorf("setting file mode: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	s.lastWritten = code
	return nil
}
