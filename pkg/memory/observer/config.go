package observer

// RelevanceScorer replaces the built-in relevance scoring. It returns a
// score between 0 and 100; an error aborts the observation.
type RelevanceScorer func(ev Event) (int, error)

// Config controls which events are captured and how they are scored
type Config struct {
	MinRelevance        int  `mapstructure:"min_relevance"`
	CaptureTaskStart    bool `mapstructure:"capture_task_start"`
	CaptureTaskComplete bool `mapstructure:"capture_task_complete"`
	CaptureCheckpoints  bool `mapstructure:"capture_checkpoints"`
	CaptureFileChanges  bool `mapstructure:"capture_file_changes"`
	CaptureErrors       bool `mapstructure:"capture_errors"`
	CaptureSolutions    bool `mapstructure:"capture_solutions"`

	// Scores holds the base relevance of each event kind
	Scores map[EventKind]int `mapstructure:"-"`
	// ResolvedSolutionScore is assigned to a solution that matches a
	// pending error
	ResolvedSolutionScore int `mapstructure:"-"`
	// ManyFilesBonus is added when an event touches more than three files
	ManyFilesBonus int `mapstructure:"-"`

	Scorer RelevanceScorer `mapstructure:"-"`
}

// DefaultScores returns the built-in base score of every event kind
func DefaultScores() map[EventKind]int {
	return map[EventKind]int{
		KindTaskStart:          20,
		KindTaskComplete:       60,
		KindTaskFailed:         75,
		KindCheckpointReached:  50,
		KindCheckpointDecision: 70,
		KindVerificationPassed: 40,
		KindVerificationFailed: 80,
		KindFileModified:       50,
		KindErrorEncountered:   85,
		KindSolutionApplied:    80,
		KindExecutionStart:     30,
		KindExecutionPause:     45,
		KindExecutionComplete:  60,
		KindUnknown:            30,
	}
}

// DefaultConfig returns the default observer configuration
func DefaultConfig() Config {
	return Config{
		MinRelevance:          50,
		CaptureTaskStart:      false,
		CaptureTaskComplete:   true,
		CaptureCheckpoints:    true,
		CaptureFileChanges:    true,
		CaptureErrors:         true,
		CaptureSolutions:      true,
		Scores:                DefaultScores(),
		ResolvedSolutionScore: 95,
		ManyFilesBonus:        5,
	}
}

// captures reports whether the configuration captures events of kind
func (c Config) captures(kind EventKind) bool {
	switch kind {
	case KindTaskStart:
		return c.CaptureTaskStart
	case KindTaskComplete:
		return c.CaptureTaskComplete
	case KindCheckpointReached, KindCheckpointDecision, KindVerificationPassed,
		KindExecutionStart, KindExecutionPause, KindExecutionComplete:
		return c.CaptureCheckpoints
	case KindFileModified:
		return c.CaptureFileChanges
	case KindTaskFailed, KindVerificationFailed, KindErrorEncountered:
		return c.CaptureErrors
	case KindSolutionApplied:
		return c.CaptureSolutions
	default:
		return true
	}
}
