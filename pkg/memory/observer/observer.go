// Package observer turns raw execution events into scored observation
// records. It is the producer side of the memory pipeline: accepted
// observations are appended to the session's observation store.
package observer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/skillkit/skillkit/pkg/logger"
	"github.com/skillkit/skillkit/pkg/memory/keywords"
	"github.com/skillkit/skillkit/pkg/telemetry"
	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// Recorder persists accepted observations
type Recorder interface {
	Append(obs memtypes.Observation) (memtypes.Observation, error)
}

// PendingError is a recorded error that no solution has matched yet
type PendingError struct {
	ObservationID string
	Text          string
}

// Observer classifies events into observations
type Observer struct {
	store    Recorder
	cfg      Config
	keywords *keywords.Extractor

	mu      sync.Mutex
	agent   string
	skill   string
	pending []PendingError
}

// Option configures an Observer
type Option func(*Observer)

// WithKeywordExtractor sets the extractor used to pair solutions with
// pending errors
func WithKeywordExtractor(e *keywords.Extractor) Option {
	return func(o *Observer) {
		o.keywords = e
	}
}

// WithAgent sets the agent recorded on observations
func WithAgent(agent string) Option {
	return func(o *Observer) {
		o.agent = agent
	}
}

// WithPendingErrors seeds the errors awaiting a solution, for example with
// PendingFromHistory when a session spans several processes
func WithPendingErrors(pending ...PendingError) Option {
	return func(o *Observer) {
		o.pending = append(o.pending, pending...)
	}
}

// PendingFromHistory replays stored observations oldest first and returns
// the error observations that no later solution observation refers to
func PendingFromHistory(history []memtypes.Observation) []PendingError {
	var pending []PendingError
	for _, obs := range history {
		text := strings.TrimSpace(obs.Content.Error)
		if text == "" {
			continue
		}
		switch obs.Type {
		case memtypes.ObservationError:
			pending = append(pending, PendingError{ObservationID: obs.ID, Text: text})
		case memtypes.ObservationSolution:
			for i := len(pending) - 1; i >= 0; i-- {
				if strings.EqualFold(pending[i].Text, text) {
					pending = append(pending[:i], pending[i+1:]...)
					break
				}
			}
		}
	}
	return pending
}

// New creates an Observer writing into store
func New(store Recorder, cfg Config, opts ...Option) *Observer {
	if cfg.Scores == nil {
		cfg.Scores = DefaultScores()
	}
	o := &Observer{
		store:    store,
		cfg:      cfg,
		keywords: keywords.New(),
		agent:    "unknown",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SetAgent changes the agent recorded on subsequent observations
func (o *Observer) SetAgent(agent string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.agent = agent
}

// SetSkillName changes the skill recorded on subsequent observations
func (o *Observer) SetSkillName(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.skill = name
}

// Agent returns the current agent
func (o *Observer) Agent() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.agent
}

// SkillName returns the current skill name
func (o *Observer) SkillName() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.skill
}

// PendingErrors returns the errors still waiting for a solution, oldest first
func (o *Observer) PendingErrors() []PendingError {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]PendingError, len(o.pending))
	copy(out, o.pending)
	return out
}

// Observe scores ev and, when it is captured and relevant enough, records
// it. A nil observation with a nil error means the event was filtered out.
func (o *Observer) Observe(ctx context.Context, ev Event) (*memtypes.Observation, error) {
	if ev == nil {
		ev = UnknownEvent{}
	}

	ctx, span := telemetry.Tracer("").Start(ctx, "memory.observe")
	defer span.End()
	span.SetAttributes(attribute.String("memory.event", string(ev.Kind())))

	log := logger.G(ctx).WithField("event", ev.Kind())

	if !o.cfg.captures(ev.Kind()) {
		log.Debug("event kind not captured")
		return nil, nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	resolved := -1
	if sol, ok := ev.(SolutionApplied); ok {
		resolved = o.matchPendingError(sol)
	}

	relevance, err := o.score(ev, resolved >= 0)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, errors.Wrap(err, "relevance scorer failed")
	}
	span.SetAttributes(attribute.Int("memory.relevance", relevance))

	if relevance < o.cfg.MinRelevance {
		log.WithField("relevance", relevance).Debug("event below relevance threshold")
		return nil, nil
	}

	obs := o.buildObservation(ev, resolved)
	obs.Relevance = relevance

	stored, err := o.store.Append(obs)
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, errors.Wrap(err, "failed to record observation")
	}

	switch ev.(type) {
	case ErrorEncountered, TaskFailed, VerificationFailed:
		if text := strings.TrimSpace(errorText(ev)); text != "" {
			o.pending = append(o.pending, PendingError{ObservationID: stored.ID, Text: text})
		}
	case SolutionApplied:
		if resolved >= 0 {
			o.pending = append(o.pending[:resolved], o.pending[resolved+1:]...)
		}
	}

	log.WithField("relevance", relevance).WithField("observation_id", stored.ID).Debug("observation recorded")
	return &stored, nil
}

// score computes the relevance of ev. Callers hold o.mu.
func (o *Observer) score(ev Event, resolvesError bool) (int, error) {
	if o.cfg.Scorer != nil {
		score, err := o.cfg.Scorer(ev)
		if err != nil {
			return 0, err
		}
		return clamp(score), nil
	}

	score, ok := o.cfg.Scores[ev.Kind()]
	if !ok {
		score = o.cfg.Scores[KindUnknown]
	}
	if resolvesError && o.cfg.ResolvedSolutionScore > score {
		score = o.cfg.ResolvedSolutionScore
	}
	if len(files(ev)) > 3 {
		score += o.cfg.ManyFilesBonus
	}
	return clamp(score), nil
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// matchPendingError returns the index of the most recent pending error the
// solution refers to, or -1. A match is textual containment in either
// direction, or an overlap of at least half of the error's keywords.
func (o *Observer) matchPendingError(sol SolutionApplied) int {
	related := strings.ToLower(strings.TrimSpace(sol.RelatedError))
	text := strings.ToLower(strings.Join([]string{sol.RelatedError, sol.Solution, sol.Context}, "\n"))
	textKeywords := o.keywords.Set(text)

	for i := len(o.pending) - 1; i >= 0; i-- {
		pending := strings.ToLower(o.pending[i].Text)
		if related != "" && (strings.Contains(pending, related) || strings.Contains(related, pending)) {
			return i
		}
		if strings.Contains(text, pending) {
			return i
		}

		errKeywords := o.keywords.Extract(pending)
		if len(errKeywords) == 0 {
			continue
		}
		shared := 0
		for _, k := range errKeywords {
			if _, ok := textKeywords[k]; ok {
				shared++
			}
		}
		if shared >= 2 && shared*2 >= len(errKeywords) {
			return i
		}
	}
	return -1
}

// buildObservation maps an event onto an observation. Callers hold o.mu.
func (o *Observer) buildObservation(ev Event, resolved int) memtypes.Observation {
	obs := memtypes.Observation{
		Agent: o.agent,
		Skill: o.skill,
	}

	switch e := ev.(type) {
	case TaskStart:
		obs.Type = memtypes.ObservationToolUse
		obs.Content = memtypes.ObservationContent{
			Action:  "Started task: " + e.TaskName,
			Context: e.Context,
		}
	case TaskComplete:
		obs.Type = memtypes.ObservationToolUse
		obs.Content = memtypes.ObservationContent{
			Action:  "Completed task: " + e.TaskName,
			Context: e.Context,
			Result:  e.Output,
			Files:   e.Files,
		}
	case TaskFailed:
		obs.Type = memtypes.ObservationError
		obs.Content = memtypes.ObservationContent{
			Action:  "Task failed: " + e.TaskName,
			Context: e.Context,
			Error:   e.Error,
			Files:   e.Files,
		}
	case CheckpointReached:
		obs.Type = memtypes.ObservationCheckpoint
		obs.Content = memtypes.ObservationContent{
			Action:  "Checkpoint reached: " + e.Name,
			Context: joinNonEmpty(e.Message, e.Context),
		}
	case CheckpointDecision:
		obs.Type = memtypes.ObservationDecision
		obs.Content = memtypes.ObservationContent{
			Action:  "Decision: " + e.Decision,
			Context: e.Context,
		}
		if len(e.Options) > 0 {
			obs.Content.Result = "Options considered: " + strings.Join(e.Options, ", ")
		}
	case VerificationPassed:
		obs.Type = memtypes.ObservationCheckpoint
		obs.Content = memtypes.ObservationContent{
			Action:  "Verification passed: " + e.TaskName,
			Context: e.Context,
			Result:  e.Output,
		}
	case VerificationFailed:
		obs.Type = memtypes.ObservationError
		obs.Content = memtypes.ObservationContent{
			Action:  "Verification failed: " + e.TaskName,
			Context: e.Context,
			Result:  e.Output,
			Error:   e.Error,
		}
	case FileModified:
		obs.Type = memtypes.ObservationFileChange
		obs.Content = memtypes.ObservationContent{
			Action:  fmt.Sprintf("Modified %d file(s)", len(e.Files)),
			Context: joinNonEmpty(e.Change, e.Context),
			Files:   e.Files,
		}
	case ErrorEncountered:
		obs.Type = memtypes.ObservationError
		obs.Content = memtypes.ObservationContent{
			Action:  "Encountered error: " + summarize(e.Error),
			Context: e.Context,
			Error:   e.Error,
			Files:   e.Files,
		}
	case SolutionApplied:
		obs.Type = memtypes.ObservationSolution
		related := e.RelatedError
		if resolved >= 0 {
			related = o.pending[resolved].Text
		}
		obs.Content = memtypes.ObservationContent{
			Action:   "Applied solution: " + summarize(e.Solution),
			Context:  e.Context,
			Solution: e.Solution,
			Error:    related,
			Files:    e.Files,
		}
	case ExecutionStart:
		obs.Type = memtypes.ObservationCheckpoint
		name := e.SkillName
		if name == "" {
			name = o.skill
		}
		obs.Content = memtypes.ObservationContent{
			Action:  "Started execution: " + name,
			Context: e.Context,
		}
	case ExecutionPause:
		obs.Type = memtypes.ObservationCheckpoint
		obs.Content = memtypes.ObservationContent{
			Action:  "Paused execution: " + e.Reason,
			Context: e.Context,
		}
	case ExecutionComplete:
		obs.Type = memtypes.ObservationCheckpoint
		obs.Content = memtypes.ObservationContent{
			Action:  "Completed execution",
			Context: e.Context,
			Result:  e.Output,
			Files:   e.Files,
		}
	case UnknownEvent:
		obs.Type = memtypes.ObservationToolUse
		obs.Content = memtypes.ObservationContent{
			Action:  "Event: " + e.Type,
			Context: e.Context,
			Result:  e.Output,
		}
	default:
		obs.Type = memtypes.ObservationToolUse
		obs.Content = memtypes.ObservationContent{Action: "Event: " + string(ev.Kind())}
	}

	obs.Content.Tags = generateTags(ev)
	return obs
}

// summarize returns the first line of text, truncated to 100 characters
func summarize(text string) string {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(text), "\n", 2)[0])
	runes := []rune(line)
	if len(runes) > 100 {
		return string(runes[:97]) + "..."
	}
	return line
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
