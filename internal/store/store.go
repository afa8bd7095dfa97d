// Package store owns the in-memory project history, the live edit buffer, and
// the currently selected project for one namespace at a time. Every mutating
// operation keeps the buffer and its history entry synchronized, persists the
// full history, and — when a signed-in identity is active — schedules the
// matching remote operation on the outbox without blocking on it.
package store

import (
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hpungsan/shard/internal/chunk"
	"github.com/hpungsan/shard/internal/config"
	"github.com/hpungsan/shard/internal/db"
	"github.com/hpungsan/shard/internal/errors"
	"github.com/hpungsan/shard/internal/project"
	"github.com/hpungsan/shard/internal/remote"
)

// GuestNamespace is the persistence bucket used when no identity is signed in.
const GuestNamespace = "guest"

const userNamespacePrefix = "user:"

// NamespaceFor returns the persistence bucket for an identity, or the guest
// bucket for the empty identity.
func NamespaceFor(identity string) string {
	if identity == "" {
		return GuestNamespace
	}
	return userNamespacePrefix + identity
}

// IdentityFromNamespace is the inverse of NamespaceFor. The guest namespace
// maps to the empty identity.
func IdentityFromNamespace(namespace string) string {
	if !strings.HasPrefix(namespace, userNamespacePrefix) {
		return ""
	}
	return strings.TrimPrefix(namespace, userNamespacePrefix)
}

// Observer receives the rendered chunk sequence after every recompute.
type Observer func([]chunk.Piece)

// Store is the session context: exactly one namespace's history is active at
// a time. All methods are safe for concurrent use, though the design assumes
// a single logical caller; the lock exists for the timer and outbox goroutines.
type Store struct {
	database *sql.DB
	cfg      *config.Config
	logger   *slog.Logger
	outbox   *remote.Outbox // nil disables remote scheduling
	sched    Scheduler
	debounce time.Duration

	mu               sync.Mutex
	namespace        string
	current          string
	buffer           project.Project
	history          []project.Project
	observers        []Observer
	cancelRecompute  func()
	pendingRecompute bool
}

// New creates a store bound to the given database. logger may be nil (logs
// are discarded), outbox may be nil (no remote scheduling), sched may be nil
// (runtime timers). The store starts Uninitialized; call Open or Initialize.
func New(database *sql.DB, cfg *config.Config, logger *slog.Logger, outbox *remote.Outbox, sched Scheduler) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if sched == nil {
		sched = TimerScheduler{}
	}
	return &Store{
		database: database,
		cfg:      cfg,
		logger:   logger,
		outbox:   outbox,
		sched:    sched,
		debounce: time.Duration(cfg.DebounceMS) * time.Millisecond,
	}
}

// Subscribe registers an observer for recompute notifications.
func (s *Store) Subscribe(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Initialize resets the in-memory history and hydrates it from the persisted
// bucket for namespace. A missing or corrupt bucket degrades to an empty
// history. The first history entry (if any) becomes current. This is the only
// place history is replaced wholesale.
func (s *Store) Initialize(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initializeLocked(namespace)
}

func (s *Store) initializeLocked(namespace string) {
	history, err := db.LoadHistory(s.database, namespace)
	if err != nil {
		if errors.Is(err, errors.ErrCorruptState) {
			s.logger.Warn("persisted state corrupt, starting empty",
				slog.String("namespace", namespace), slog.String("error", err.Error()))
		} else {
			s.logger.Error("load history failed, starting empty",
				slog.String("namespace", namespace), slog.String("error", err.Error()))
		}
		history = nil
	}

	s.namespace = namespace
	s.history = history
	s.current = ""
	s.buffer = project.Project{Settings: s.defaultSettings()}

	if len(s.history) > 0 {
		s.current = s.history[0].ID
		s.buffer = s.history[0]
	}
}

// Open initializes the namespace and picks the working project: if the newest
// history entry is still an untouched clean slate it is reused (prevents
// empty duplicates), otherwise a fresh project is created on top, inheriting
// the last-used settings.
func (s *Store) Open(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initializeLocked(namespace)
	if len(s.history) > 0 && s.history[0].IsBlank() {
		s.loadLocked(s.history[0].ID)
		return
	}
	s.createLocked()
}

// SwitchNamespace is used when the active identity changes. The previously
// current project is reloaded when it also exists in the new namespace;
// otherwise the first entry is selected, or a fresh project is created when
// the new namespace is empty.
func (s *Store) SwitchNamespace(namespace string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	s.initializeLocked(namespace)

	if prev != "" && s.indexOf(prev) >= 0 {
		s.loadLocked(prev)
		return
	}
	if len(s.history) > 0 {
		s.loadLocked(s.history[0].ID)
		return
	}
	s.createLocked()
}

// Namespace returns the active persistence bucket.
func (s *Store) Namespace() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.namespace
}

// Current returns a copy of the live edit buffer and whether a project is
// selected.
func (s *Store) Current() (project.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buffer, s.current != ""
}

// History returns a copy of the active history, newest first by convention.
func (s *Store) History() []project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]project.Project, len(s.history))
	copy(out, s.history)
	return out
}

// Chunks renders the buffer's chunk sequence without notifying observers.
func (s *Store) Chunks() []chunk.Piece {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunksLocked()
}

// Close flushes any pending recompute and performs the final persist.
func (s *Store) Close() {
	s.flushRecompute()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.namespace != "" {
		s.persistLocked()
	}
}

// WatchAuth switches namespaces as identity-change events arrive. It returns
// after the events channel closes; run it in its own goroutine.
func (s *Store) WatchAuth(events <-chan remote.AuthEvent) {
	for ev := range events {
		if ev.SignedIn {
			s.SwitchNamespace(NamespaceFor(ev.Identity))
		} else {
			s.SwitchNamespace(GuestNamespace)
		}
	}
}

func (s *Store) chunksLocked() []chunk.Piece {
	if s.current == "" || s.buffer.Text == "" {
		return nil
	}
	st := s.buffer.Settings
	return chunk.Render(s.buffer.Text, project.ClampSplitLength(st.SplitLength), st.Prefix, st.Suffix)
}

func (s *Store) defaultSettings() project.Settings {
	st := project.DefaultSettings()
	if s.cfg.DefaultSplitLength > 0 {
		st.SplitLength = project.ClampSplitLength(s.cfg.DefaultSplitLength)
	}
	return st
}

// identity returns the active remote identity, or "" when the guest bucket is
// active (no remote scheduling).
func (s *Store) identity() string {
	if s.namespace == GuestNamespace {
		return ""
	}
	return IdentityFromNamespace(s.namespace)
}

func (s *Store) indexOf(id string) int {
	for i := range s.history {
		if s.history[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the full in-memory history to the active bucket.
// Failures are logged, never propagated: prior persisted state is retained
// and in-memory state stays authoritative for the session.
func (s *Store) persistLocked() {
	if err := db.SaveHistory(s.database, s.namespace, s.history); err != nil {
		s.logger.Error("persist failed",
			slog.String("namespace", s.namespace), slog.String("error", err.Error()))
	}
}

func (s *Store) scheduleUpsert(p project.Project) {
	if s.outbox == nil {
		return
	}
	if id := s.identity(); id != "" {
		s.outbox.EnqueueUpsert(id, p)
	}
}

func (s *Store) scheduleDelete(projectID string) {
	if s.outbox == nil {
		return
	}
	if id := s.identity(); id != "" {
		s.outbox.EnqueueDelete(id, projectID)
	}
}
