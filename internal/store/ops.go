package store

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/hpungsan/shard/internal/project"
)

// Patch carries the fields of an UpdateCurrent edit. Nil means "leave alone".
type Patch struct {
	Text        *string
	Title       *string
	SplitLength *int
	Prefix      *string
	Suffix      *string
}

// CreateProject builds a fresh project with empty text, the sentinel title,
// and a copy of the current settings (sticky-settings policy), inserts it at
// the front of history, and makes it current.
func (s *Store) CreateProject() project.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

func (s *Store) createLocked() project.Project {
	p := project.New(s.buffer.Settings)
	if p.Settings.SplitLength == 0 {
		p.Settings = s.defaultSettings()
	}

	s.history = append([]project.Project{p}, s.history...)
	s.current = p.ID
	s.buffer = p
	s.persistLocked()
	return p
}

// LoadProject selects the project with the given id, copying its fields into
// the live edit buffer and re-rendering its chunks. An unknown id is a no-op:
// it can legitimately occur during an in-flight namespace switch.
func (s *Store) LoadProject(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(id)
}

func (s *Store) loadLocked(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		s.logger.Debug("load skipped, unknown project", slog.String("id", id))
		return false
	}

	s.current = id
	s.buffer = s.history[i]
	s.persistLocked()
	s.scheduleRecompute()
	return true
}

// UpdateCurrent applies an edit to the live buffer and mirrors it into the
// matching history entry, bumping its timestamp. History order is never
// changed here. Text edits may auto-rename a still-untitled project, and text
// or settings edits arm the debounced recompute. With an active identity the
// updated entry is scheduled for a remote upsert.
func (s *Store) UpdateCurrent(patch Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(s.current)
	if i < 0 {
		// Should not normally happen; skip the write rather than crash.
		s.logger.Warn("update skipped, current project missing from history",
			slog.String("id", s.current))
		return
	}

	recompute := false

	if patch.Text != nil {
		s.buffer.Text = *patch.Text
		recompute = true
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			title = project.SentinelTitle
		}
		s.buffer.Title = title
	}
	if patch.SplitLength != nil {
		s.buffer.Settings.SplitLength = project.ClampSplitLength(*patch.SplitLength)
		recompute = true
	}
	if patch.Prefix != nil {
		s.buffer.Settings.Prefix = *patch.Prefix
		recompute = true
	}
	if patch.Suffix != nil {
		s.buffer.Settings.Suffix = *patch.Suffix
		recompute = true
	}

	// Auto-rename fires once: after the first successful rename the title is
	// no longer the sentinel.
	if patch.Text != nil && s.buffer.Title == project.SentinelTitle {
		if derived := project.DeriveTitle(s.buffer.Text); derived != "" {
			s.buffer.Title = derived
		}
	}

	s.buffer.Timestamp = bumpTimestamp(s.history[i].Timestamp)
	s.history[i] = s.buffer
	s.persistLocked()
	s.scheduleUpsert(s.history[i])

	if recompute {
		s.scheduleRecompute()
	}
}

// DeleteProject removes the entry from history. When the current project is
// deleted, the new first entry becomes current, or a fresh project is created
// if history is now empty: the current id always resolves. With an active
// identity a remote deletion is scheduled. Unknown ids are a no-op.
func (s *Store) DeleteProject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}

	s.history = append(s.history[:i], s.history[i+1:]...)
	s.scheduleDelete(id)

	if s.current == id {
		if len(s.history) > 0 {
			s.loadLocked(s.history[0].ID)
		} else {
			s.createLocked()
		}
		return
	}
	s.persistLocked()
}

// RenameProject sets the title on the matching history entry, falling back to
// the sentinel when the trimmed title is empty. The live buffer is kept in
// sync when the renamed project is current. Unknown ids are a no-op.
func (s *Store) RenameProject(id, newTitle string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return
	}

	title := strings.TrimSpace(newTitle)
	if title == "" {
		title = project.SentinelTitle
	}

	s.history[i].Title = title
	s.history[i].Timestamp = bumpTimestamp(s.history[i].Timestamp)
	if s.current == id {
		s.buffer = s.history[i]
	}
	s.persistLocked()
	s.scheduleUpsert(s.history[i])
}

// MergeRemote folds a remote snapshot into local history. Remote is
// additive-only: entries whose id already exists locally are left untouched
// (the local copy wins for content; reconciling diverged copies by timestamp
// is deliberately not implemented). New entries are appended, then the full
// history is re-sorted by timestamp descending and persisted.
func (s *Store) MergeRemote(entries []project.Project) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, e := range entries {
		if s.indexOf(e.ID) >= 0 {
			continue
		}
		s.history = append(s.history, e)
		added++
	}

	sort.SliceStable(s.history, func(a, b int) bool {
		return s.history[a].Timestamp > s.history[b].Timestamp
	})

	// A session that started empty may have no selection yet.
	if s.current == "" && len(s.history) > 0 {
		s.loadLocked(s.history[0].ID)
		return added
	}

	s.persistLocked()
	return added
}

// bumpTimestamp returns "now", clamped so a project's timestamp never goes
// backwards even across clock adjustments.
func bumpTimestamp(prev int64) int64 {
	return max(time.Now().UnixMilli(), prev)
}
