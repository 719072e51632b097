// Package learnings implements the durable knowledge base of curated
// learnings. One Store owns one scope: a project store lives beside the
// project and a global store lives in the user's home directory.
package learnings

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/skillkit/skillkit/pkg/logger"
	"github.com/skillkit/skillkit/pkg/memory/filestore"
	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// FileName is the learning document name inside a memory directory
const FileName = "learnings.yaml"

// ErrLearningNotFound is returned when an id is not present in the store
var ErrLearningNotFound = errors.New("learning not found")

// Store is a whole-document persisted collection of learnings of one scope
type Store struct {
	scope   memtypes.Scope
	project string
	path    string
	now     func() time.Time

	mu   sync.Mutex
	data memtypes.LearningDocument
}

// Option configures a Store
type Option func(*Store)

// WithClock sets the time source used for created/updated/used timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithProjectName overrides the project name recorded on new learnings
func WithProjectName(name string) Option {
	return func(s *Store) {
		s.project = name
	}
}

// ProjectPath returns the project-scoped learning file of projectPath
func ProjectPath(projectPath string) string {
	return filepath.Join(projectPath, ".skillkit", "memory", FileName)
}

// GlobalPath returns the user-wide learning file
func GlobalPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user home directory")
	}
	return filepath.Join(homeDir, ".skillkit", "memory", FileName), nil
}

// NewProjectStore opens the project-scoped store of projectPath
func NewProjectStore(ctx context.Context, projectPath string, opts ...Option) *Store {
	name := filepath.Base(projectPath)
	if abs, err := filepath.Abs(projectPath); err == nil {
		name = filepath.Base(abs)
	}
	opts = append([]Option{WithProjectName(name)}, opts...)
	return NewStore(ctx, memtypes.ScopeProject, ProjectPath(projectPath), opts...)
}

// NewGlobalStore opens the user-wide store
func NewGlobalStore(ctx context.Context, opts ...Option) (*Store, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return NewStore(ctx, memtypes.ScopeGlobal, path, opts...), nil
}

// NewStore opens a store of the given scope backed by path. An unreadable
// file yields an empty collection.
func NewStore(ctx context.Context, scope memtypes.Scope, path string, opts ...Option) *Store {
	s := &Store{
		scope: scope,
		path:  path,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.data = memtypes.LearningDocument{Version: memtypes.DocumentVersion, Learnings: []memtypes.Learning{}}
	var doc memtypes.LearningDocument
	if err := filestore.Read(path, &doc); err != nil {
		if !errors.Is(err, filestore.ErrNotExist) {
			logger.G(ctx).WithError(err).WithField("scope", scope).Warn("ignoring unreadable learning store")
		}
		return s
	}
	if doc.Learnings != nil {
		s.data.Learnings = doc.Learnings
	}
	// The store owns its learnings whatever scope the file records
	for i := range s.data.Learnings {
		s.data.Learnings[i].Scope = scope
	}
	return s
}

// Scope returns the scope this store owns
func (s *Store) Scope() memtypes.Scope {
	return s.scope
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

func (s *Store) save() error {
	s.data.Version = memtypes.DocumentVersion
	return errors.Wrapf(filestore.Write(s.path, s.data), "failed to persist %s learnings", s.scope)
}

// NewLearning holds the caller-supplied fields of a learning
type NewLearning struct {
	Title              string
	Content            string
	Source             memtypes.LearningSource
	SourceObservations []string
	Tags               []string
	Frameworks         []string
	Patterns           []string
	Effectiveness      *int
}

// Add validates and stores a new learning
func (s *Store) Add(in NewLearning) (memtypes.Learning, error) {
	if strings.TrimSpace(in.Title) == "" {
		return memtypes.Learning{}, errors.New("learning title is required")
	}
	if in.Effectiveness != nil && (*in.Effectiveness < 0 || *in.Effectiveness > 100) {
		return memtypes.Learning{}, errors.Errorf("effectiveness %d out of range 0-100", *in.Effectiveness)
	}

	source := in.Source
	if source == "" {
		source = memtypes.SourceManual
	}

	now := s.now()
	learning := memtypes.Learning{
		ID:                 uuid.NewString(),
		CreatedAt:          now,
		UpdatedAt:          now,
		Source:             source,
		SourceObservations: in.SourceObservations,
		Title:              strings.TrimSpace(in.Title),
		Content:            in.Content,
		Scope:              s.scope,
		Tags:               normalizeLabels(in.Tags),
		Frameworks:         normalizeLabels(in.Frameworks),
		Patterns:           normalizeLabels(in.Patterns),
		Effectiveness:      in.Effectiveness,
	}
	if s.scope == memtypes.ScopeProject {
		learning.Project = s.project
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Learnings = append(s.data.Learnings, learning)
	if err := s.save(); err != nil {
		s.data.Learnings = s.data.Learnings[:len(s.data.Learnings)-1]
		return memtypes.Learning{}, err
	}
	return learning, nil
}

// LearningUpdate describes an explicit edit. Nil fields are left unchanged.
type LearningUpdate struct {
	Title      *string
	Content    *string
	Tags       []string
	Frameworks []string
	Patterns   []string
}

// Update applies an explicit edit to a learning
func (s *Store) Update(id string, update LearningUpdate) (memtypes.Learning, error) {
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return memtypes.Learning{}, errors.New("learning title is required")
	}

	return s.mutate(id, func(l *memtypes.Learning) {
		if update.Title != nil {
			l.Title = strings.TrimSpace(*update.Title)
		}
		if update.Content != nil {
			l.Content = *update.Content
		}
		if update.Tags != nil {
			l.Tags = normalizeLabels(update.Tags)
		}
		if update.Frameworks != nil {
			l.Frameworks = normalizeLabels(update.Frameworks)
		}
		if update.Patterns != nil {
			l.Patterns = normalizeLabels(update.Patterns)
		}
		l.UpdatedAt = s.laterOf(l.CreatedAt)
	})
}

// IncrementUseCount records one more use of a learning
func (s *Store) IncrementUseCount(id string) error {
	_, err := s.mutate(id, func(l *memtypes.Learning) {
		l.UseCount++
		used := s.now()
		l.LastUsed = &used
	})
	return err
}

// SetEffectiveness stores an externally supplied feedback score
func (s *Store) SetEffectiveness(id string, score int) (memtypes.Learning, error) {
	if score < 0 || score > 100 {
		return memtypes.Learning{}, errors.Errorf("effectiveness %d out of range 0-100", score)
	}
	return s.mutate(id, func(l *memtypes.Learning) {
		l.Effectiveness = &score
		l.UpdatedAt = s.laterOf(l.CreatedAt)
	})
}

// laterOf keeps updatedAt from preceding createdAt under a skewed clock
func (s *Store) laterOf(created time.Time) time.Time {
	now := s.now()
	if now.Before(created) {
		return created
	}
	return now
}

func (s *Store) mutate(id string, fn func(*memtypes.Learning)) (memtypes.Learning, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return memtypes.Learning{}, errors.Wrapf(ErrLearningNotFound, "id %s", id)
	}

	previous := cloneLearning(s.data.Learnings[idx])
	fn(&s.data.Learnings[idx])
	if err := s.save(); err != nil {
		s.data.Learnings[idx] = previous
		return memtypes.Learning{}, err
	}
	return cloneLearning(s.data.Learnings[idx]), nil
}

// Delete removes a learning
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return errors.Wrapf(ErrLearningNotFound, "id %s", id)
	}

	previous := s.data.Learnings
	remaining := make([]memtypes.Learning, 0, len(previous)-1)
	remaining = append(remaining, previous[:idx]...)
	remaining = append(remaining, previous[idx+1:]...)
	s.data.Learnings = remaining
	if err := s.save(); err != nil {
		s.data.Learnings = previous
		return err
	}
	return nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.data.Learnings {
		if s.data.Learnings[i].ID == id {
			return i
		}
	}
	return -1
}

// GetAll returns every learning in insertion order
func (s *Store) GetAll() []memtypes.Learning {
	return s.filter(func(memtypes.Learning) bool { return true })
}

// GetByID returns the learning with the given id
func (s *Store) GetByID(id string) (memtypes.Learning, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return memtypes.Learning{}, false
	}
	return cloneLearning(s.data.Learnings[idx]), true
}

// Count returns the number of learnings
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.Learnings)
}

// Search returns learnings whose title, content or tags contain the whole
// query, or contain every whitespace-separated term of it
func (s *Store) Search(query string) []memtypes.Learning {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return s.GetAll()
	}
	terms := strings.Fields(q)

	return s.filter(func(l memtypes.Learning) bool {
		title := strings.ToLower(l.Title)
		body := strings.ToLower(l.Content)
		tags := strings.ToLower(strings.Join(l.Tags, " "))

		if strings.Contains(title, q) || strings.Contains(body, q) {
			return true
		}
		for _, tag := range l.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}

		haystack := title + "\n" + body + "\n" + tags
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				return false
			}
		}
		return true
	})
}

// GetByTags returns learnings carrying at least one of tags
func (s *Store) GetByTags(tags ...string) []memtypes.Learning {
	wanted := lowerSet(tags)
	return s.filter(func(l memtypes.Learning) bool { return intersects(l.Tags, wanted) })
}

// GetByFrameworks returns learnings declaring at least one of frameworks
func (s *Store) GetByFrameworks(frameworks ...string) []memtypes.Learning {
	wanted := lowerSet(frameworks)
	return s.filter(func(l memtypes.Learning) bool { return intersects(l.Frameworks, wanted) })
}

// GetRecent returns up to n learnings, most recently updated first
func (s *Store) GetRecent(n int) []memtypes.Learning {
	all := s.GetAll()
	sort.SliceStable(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	return head(all, n)
}

// GetMostUsed returns up to n learnings, most used first
func (s *Store) GetMostUsed(n int) []memtypes.Learning {
	all := s.GetAll()
	sort.SliceStable(all, func(i, j int) bool { return all[i].UseCount > all[j].UseCount })
	return head(all, n)
}

func (s *Store) filter(keep func(memtypes.Learning) bool) []memtypes.Learning {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]memtypes.Learning, 0, len(s.data.Learnings))
	for _, l := range s.data.Learnings {
		if keep(l) {
			out = append(out, cloneLearning(l))
		}
	}
	return out
}

func head(all []memtypes.Learning, n int) []memtypes.Learning {
	if n < 0 {
		n = 0
	}
	if n < len(all) {
		return all[:n]
	}
	return all
}

func cloneLearning(l memtypes.Learning) memtypes.Learning {
	l.Tags = cloneStrings(l.Tags)
	l.Frameworks = cloneStrings(l.Frameworks)
	l.Patterns = cloneStrings(l.Patterns)
	l.SourceObservations = cloneStrings(l.SourceObservations)
	if l.LastUsed != nil {
		used := *l.LastUsed
		l.LastUsed = &used
	}
	if l.Effectiveness != nil {
		eff := *l.Effectiveness
		l.Effectiveness = &eff
	}
	return l
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// normalizeLabels trims labels and drops empty or case-insensitive duplicates
func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		key := strings.ToLower(label)
		if label == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, label)
	}
	return out
}

func lowerSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return set
}

func intersects(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[strings.ToLower(v)]; ok {
			return true
		}
	}
	return false
}
