// Package observations implements the session-scoped, append-only log of
// raw events captured while an agent works.
package observations

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skillkit/skillkit/pkg/logger"
	"github.com/skillkit/skillkit/pkg/memory/filestore"
	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// DefaultRelevance is the relevance assigned when a caller has no score
const DefaultRelevance = 50

// FileName is the observation log file name inside the memory directory
const FileName = "observations.yaml"

// Store owns the observations of exactly one session
type Store struct {
	path string
	now  func() time.Time

	mu   sync.Mutex
	data memtypes.ObservationDocument
}

// Option configures a Store
type Option func(*Store)

// WithPath overrides the backing file location
func WithPath(path string) Option {
	return func(s *Store) {
		s.path = path
	}
}

// WithClock sets the time source used for observation timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// Path returns the default observation log path for a project directory
func Path(projectPath string) string {
	return filepath.Join(projectPath, ".skillkit", "memory", FileName)
}

// NewStore opens the observation log of projectPath for sessionID. A
// persisted log recorded under another session is discarded. An empty
// sessionID continues the persisted session, or starts a new one when
// nothing is persisted.
func NewStore(ctx context.Context, projectPath, sessionID string, opts ...Option) *Store {
	s := &Store{
		path: Path(projectPath),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	persisted := s.load(ctx)
	switch {
	case sessionID == "" && persisted.SessionID != "":
		s.data = persisted
	case sessionID == "":
		s.data = emptyDocument(uuid.NewString())
	case persisted.SessionID == sessionID:
		s.data = persisted
	default:
		if len(persisted.Observations) > 0 {
			logger.G(ctx).WithField("previous_session", persisted.SessionID).
				WithField("session_id", sessionID).
				Debug("discarding observations from previous session")
		}
		s.data = emptyDocument(sessionID)
	}

	return s
}

func emptyDocument(sessionID string) memtypes.ObservationDocument {
	return memtypes.ObservationDocument{
		Version:      memtypes.DocumentVersion,
		SessionID:    sessionID,
		Observations: []memtypes.Observation{},
	}
}

// load reads the backing file; any failure yields an empty document
func (s *Store) load(ctx context.Context) memtypes.ObservationDocument {
	var doc memtypes.ObservationDocument
	if err := filestore.Read(s.path, &doc); err != nil {
		if !errors.Is(err, filestore.ErrNotExist) {
			logger.G(ctx).WithError(err).Warn("ignoring unreadable observation log")
		}
		return memtypes.ObservationDocument{}
	}
	if doc.Observations == nil {
		doc.Observations = []memtypes.Observation{}
	}
	return doc
}

func (s *Store) save() error {
	return errors.Wrap(filestore.Write(s.path, s.data), "failed to persist observations")
}

// SessionID returns the session the store currently records
func (s *Store) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.SessionID
}

// SetSessionID switches the store to another session. Switching to a
// different id discards the current observations.
func (s *Store) SetSessionID(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID == s.data.SessionID {
		return
	}
	s.data = emptyDocument(sessionID)
}

// Add appends an observation and rewrites the log
func (s *Store) Add(obsType memtypes.ObservationType, content memtypes.ObservationContent, agent string, relevance int) (memtypes.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.add(memtypes.Observation{
		Type:      obsType,
		Content:   content,
		Agent:     agent,
		Relevance: relevance,
	})
}

// Append stores a prepared observation. ID, timestamp and session are
// always assigned by the store.
func (s *Store) Append(obs memtypes.Observation) (memtypes.Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.add(obs)
}

func (s *Store) add(obs memtypes.Observation) (memtypes.Observation, error) {
	if !obs.Type.Valid() {
		return memtypes.Observation{}, errors.Errorf("invalid observation type %q", obs.Type)
	}

	obs.ID = uuid.NewString()
	obs.Timestamp = s.now()
	obs.SessionID = s.data.SessionID
	obs.Relevance = clampRelevance(obs.Relevance)

	s.data.Observations = append(s.data.Observations, obs)
	if err := s.save(); err != nil {
		s.data.Observations = s.data.Observations[:len(s.data.Observations)-1]
		return memtypes.Observation{}, err
	}
	return obs, nil
}

func clampRelevance(r int) int {
	if r < 0 {
		return 0
	}
	if r > 100 {
		return 100
	}
	return r
}

// GetAll returns every observation in capture order
func (s *Store) GetAll() []memtypes.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filter(func(memtypes.Observation) bool { return true })
}

// GetByType returns the observations of one type
func (s *Store) GetByType(obsType memtypes.ObservationType) []memtypes.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filter(func(o memtypes.Observation) bool { return o.Type == obsType })
}

// GetByRelevance returns the observations scored at least minRelevance
func (s *Store) GetByRelevance(minRelevance int) []memtypes.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filter(func(o memtypes.Observation) bool { return o.Relevance >= minRelevance })
}

// GetRecent returns the last n observations, oldest first
func (s *Store) GetRecent(n int) []memtypes.Observation {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.data.Observations
	if n <= 0 {
		return []memtypes.Observation{}
	}
	if n > len(all) {
		n = len(all)
	}
	out := make([]memtypes.Observation, n)
	copy(out, all[len(all)-n:])
	return out
}

// GetUncompressed returns the observations whose ids are not in excludedIDs
func (s *Store) GetUncompressed(excludedIDs []string) []memtypes.Observation {
	excluded := make(map[string]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.filter(func(o memtypes.Observation) bool {
		_, skip := excluded[o.ID]
		return !skip
	})
}

func (s *Store) filter(keep func(memtypes.Observation) bool) []memtypes.Observation {
	out := make([]memtypes.Observation, 0, len(s.data.Observations))
	for _, o := range s.data.Observations {
		if keep(o) {
			out = append(out, o)
		}
	}
	return out
}

// Count returns the number of observations in the current session
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.Observations)
}

// Exists reports whether the backing file is present
func (s *Store) Exists() bool {
	return filestore.Exists(s.path)
}

// Clear removes every observation of the session and rewrites the log
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = emptyDocument(s.data.SessionID)
	return s.save()
}

// Purge deletes the backing file. The session id is kept in memory, so a
// later Add recreates the log for the same session.
func (s *Store) Purge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := filestore.Remove(s.path); err != nil {
		return err
	}
	s.data = emptyDocument(s.data.SessionID)
	return nil
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}
