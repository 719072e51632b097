// Package injector selects the learnings most relevant to the current
// project and task, fits them into a token budget and renders them in the
// native format of the target agent.
package injector

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skillkit/skillkit/pkg/logger"
	"github.com/skillkit/skillkit/pkg/memory/keywords"
	"github.com/skillkit/skillkit/pkg/memory/stack"
	"github.com/skillkit/skillkit/pkg/telemetry"
	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// LearningSource is a scope's learning store as seen by the injector
type LearningSource interface {
	GetAll() []memtypes.Learning
	Search(query string) []memtypes.Learning
	IncrementUseCount(id string) error
}

// Injector ranks and renders learnings. It holds no state besides its
// store handles and the project context.
type Injector struct {
	project  LearningSource
	global   LearningSource
	weights  Weights
	keywords *keywords.Extractor
	now      func() time.Time

	formatters map[string]Formatter
	fallback   Formatter

	mu    sync.RWMutex
	stack *stack.ProjectStack
}

// Option configures an Injector
type Option func(*Injector)

// WithWeights replaces the scoring weights
func WithWeights(w Weights) Option {
	return func(i *Injector) {
		i.weights = w
	}
}

// WithKeywordExtractor replaces the keyword extractor used for task matching
func WithKeywordExtractor(e *keywords.Extractor) Option {
	return func(i *Injector) {
		i.keywords = e
	}
}

// WithClock sets the time source used for recency and last-used stamps
func WithClock(now func() time.Time) Option {
	return func(i *Injector) {
		i.now = now
	}
}

// WithProjectContext sets the detected project stack
func WithProjectContext(s *stack.ProjectStack) Option {
	return func(i *Injector) {
		i.stack = s
	}
}

// New creates an injector over a project store and an optional global
// store. A nil global store is treated as empty.
func New(project, global LearningSource, opts ...Option) *Injector {
	i := &Injector{
		project:    project,
		global:     global,
		weights:    DefaultWeights(),
		keywords:   keywords.New(),
		now:        time.Now,
		formatters: defaultFormatters(),
		fallback:   MarkdownFormatter{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// SetProjectContext replaces the project stack used for framework matching.
// A nil stack disables framework matching.
func (i *Injector) SetProjectContext(s *stack.ProjectStack) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.stack = s
}

// collect gathers the candidate learnings of every store in scope. Each
// learning is stamped with the scope of the store it came from, so use is
// recorded in that store.
func (i *Injector) collect(opts Options, query *string) []memtypes.Learning {
	var out []memtypes.Learning
	fetch := func(src LearningSource, scope memtypes.Scope) {
		if src == nil {
			return
		}
		var found []memtypes.Learning
		if query != nil {
			found = src.Search(*query)
		} else {
			found = src.GetAll()
		}
		for _, l := range found {
			l.Scope = scope
			out = append(out, l)
		}
	}

	fetch(i.project, memtypes.ScopeProject)
	if opts.IncludeGlobal {
		fetch(i.global, memtypes.ScopeGlobal)
	}
	return out
}

// scoreAll scores every learning against opts
func (i *Injector) scoreAll(learnings []memtypes.Learning, opts Options) []InjectedMemory {
	i.mu.RLock()
	stackNames := i.stack.Names()
	i.mu.RUnlock()

	taskKeywords := i.keywords.Extract(opts.CurrentTask)
	level := opts.disclosure()

	out := make([]InjectedMemory, 0, len(learnings))
	for _, l := range learnings {
		score, matched := i.score(l, opts, stackNames, taskKeywords)
		out = append(out, InjectedMemory{
			Learning:       l,
			RelevanceScore: score,
			MatchedBy:      matched,
			TokenEstimate:  EstimateTokens(l, level),
		})
	}
	return out
}

// rank drops memories under the relevance floor, orders the rest by
// descending score and keeps at most MaxLearnings
func rank(memories []InjectedMemory, opts Options) []InjectedMemory {
	kept := make([]InjectedMemory, 0, len(memories))
	for _, m := range memories {
		if m.RelevanceScore >= opts.MinRelevance {
			kept = append(kept, m)
		}
	}

	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].RelevanceScore > kept[b].RelevanceScore
	})

	limit := max(opts.MaxLearnings, 0)
	if len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// GetRelevantMemories returns the ranked memories for opts without a token
// budget and without recording use
func (i *Injector) GetRelevantMemories(opts Options) []InjectedMemory {
	return rank(i.scoreAll(i.collect(opts, nil), opts), opts)
}

// Inject selects memories for opts greedily in relevance order until the
// token budget is spent, records their use and renders them as Markdown
func (i *Injector) Inject(ctx context.Context, opts Options) (*Result, error) {
	ctx, span := telemetry.Tracer("").Start(ctx, "memory.inject")
	defer span.End()

	candidates := i.collect(opts, nil)
	ranked := rank(i.scoreAll(candidates, opts), opts)

	result := &Result{
		Memories: []InjectedMemory{},
		Stats: Stats{
			Considered: len(candidates),
			Matched:    len(ranked),
		},
	}

	for _, m := range ranked {
		if result.TotalTokens+m.TokenEstimate > opts.MaxTokens {
			result.Stats.Truncated++
			continue
		}

		if err := i.recordUse(m.Learning); err != nil {
			telemetry.RecordError(ctx, err)
			return nil, err
		}
		used := i.now()
		m.Learning.UseCount++
		m.Learning.LastUsed = &used

		result.TotalTokens += m.TokenEstimate
		result.Memories = append(result.Memories, m)
	}
	result.Stats.Injected = len(result.Memories)
	result.Formatted = i.fallback.Format(result.Memories, opts.disclosure())

	span.SetAttributes(
		attribute.Int("memory.considered", result.Stats.Considered),
		attribute.Int("memory.matched", result.Stats.Matched),
		attribute.Int("memory.injected", result.Stats.Injected),
		attribute.Int("memory.truncated", result.Stats.Truncated),
		attribute.Int("memory.tokens", result.TotalTokens),
	)
	logger.G(ctx).WithField("considered", result.Stats.Considered).
		WithField("matched", result.Stats.Matched).
		WithField("injected", result.Stats.Injected).
		WithField("truncated", result.Stats.Truncated).
		Debug("memories injected")

	return result, nil
}

// recordUse bumps the use count in the store owning the learning's scope
func (i *Injector) recordUse(l memtypes.Learning) error {
	src := i.project
	if l.Scope == memtypes.ScopeGlobal {
		src = i.global
	}
	if src == nil {
		return errors.Errorf("no %s store for learning %s", l.Scope, l.ID)
	}
	return errors.Wrapf(src.IncrementUseCount(l.ID), "failed to record use of learning %s", l.ID)
}

// InjectForAgent runs Inject and renders the selection in the native
// format of agent
func (i *Injector) InjectForAgent(ctx context.Context, agent string, opts Options) (*Result, error) {
	result, err := i.Inject(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Formatted = i.FormatterFor(agent).Format(result.Memories, opts.disclosure())
	return result, nil
}

// Search matches query against every store in scope and ranks the hits
// with query as the current task. No token budget is applied.
func (i *Injector) Search(ctx context.Context, query string, opts Options) []InjectedMemory {
	_, span := telemetry.Tracer("").Start(ctx, "memory.search")
	defer span.End()

	opts.CurrentTask = query
	ranked := rank(i.scoreAll(i.collect(opts, &query), opts), opts)

	span.SetAttributes(attribute.Int("memory.results", len(ranked)))
	return ranked
}
