package observer

// EventKind names a raw execution event
type EventKind string

const (
	KindTaskStart          EventKind = "task_start"
	KindTaskComplete       EventKind = "task_complete"
	KindTaskFailed         EventKind = "task_failed"
	KindCheckpointReached  EventKind = "checkpoint_reached"
	KindCheckpointDecision EventKind = "checkpoint_decision"
	KindVerificationPassed EventKind = "verification_passed"
	KindVerificationFailed EventKind = "verification_failed"
	KindFileModified       EventKind = "file_modified"
	KindErrorEncountered   EventKind = "error_encountered"
	KindSolutionApplied    EventKind = "solution_applied"
	KindExecutionStart     EventKind = "execution_start"
	KindExecutionPause     EventKind = "execution_pause"
	KindExecutionComplete  EventKind = "execution_complete"
	KindUnknown            EventKind = "unknown"
)

// Event is a raw execution event. The set of implementations is closed;
// each variant carries only the fields relevant to its kind.
type Event interface {
	Kind() EventKind
	isEvent()
}

// TaskStart is emitted when an executor begins a task
type TaskStart struct {
	TaskName string `mapstructure:"taskName"`
	TaskID   string `mapstructure:"taskId"`
	Context  string `mapstructure:"context"`
}

// TaskComplete is emitted when a task finishes successfully
type TaskComplete struct {
	TaskName string   `mapstructure:"taskName"`
	TaskID   string   `mapstructure:"taskId"`
	Output   string   `mapstructure:"output"`
	Context  string   `mapstructure:"context"`
	Files    []string `mapstructure:"files"`
}

// TaskFailed is emitted when a task ends with an error
type TaskFailed struct {
	TaskName string   `mapstructure:"taskName"`
	TaskID   string   `mapstructure:"taskId"`
	Error    string   `mapstructure:"error"`
	Context  string   `mapstructure:"context"`
	Files    []string `mapstructure:"files"`
}

// CheckpointReached is emitted at a plan checkpoint
type CheckpointReached struct {
	Name    string `mapstructure:"name"`
	Message string `mapstructure:"message"`
	Context string `mapstructure:"context"`
}

// CheckpointDecision records a choice made at a checkpoint
type CheckpointDecision struct {
	Decision string   `mapstructure:"decision"`
	Context  string   `mapstructure:"context"`
	Options  []string `mapstructure:"options"`
}

// VerificationPassed is emitted when a verification step succeeds
type VerificationPassed struct {
	TaskName string `mapstructure:"taskName"`
	Output   string `mapstructure:"output"`
	Context  string `mapstructure:"context"`
}

// VerificationFailed is emitted when a verification step fails
type VerificationFailed struct {
	TaskName string `mapstructure:"taskName"`
	Error    string `mapstructure:"error"`
	Output   string `mapstructure:"output"`
	Context  string `mapstructure:"context"`
}

// FileModified records files changed by the agent
type FileModified struct {
	Files   []string `mapstructure:"files"`
	Change  string   `mapstructure:"change"`
	Context string   `mapstructure:"context"`
}

// ErrorEncountered records an error seen during work
type ErrorEncountered struct {
	Error   string   `mapstructure:"error"`
	Context string   `mapstructure:"context"`
	Files   []string `mapstructure:"files"`
}

// SolutionApplied records a fix. RelatedError optionally names the error
// it resolves.
type SolutionApplied struct {
	Solution     string   `mapstructure:"solution"`
	Context      string   `mapstructure:"context"`
	RelatedError string   `mapstructure:"relatedError"`
	Files        []string `mapstructure:"files"`
}

// ExecutionStart is emitted when a skill execution begins
type ExecutionStart struct {
	SkillName string `mapstructure:"skillName"`
	Context   string `mapstructure:"context"`
}

// ExecutionPause is emitted when execution is paused
type ExecutionPause struct {
	Reason  string `mapstructure:"reason"`
	Context string `mapstructure:"context"`
}

// ExecutionComplete is emitted when a skill execution ends
type ExecutionComplete struct {
	Output  string   `mapstructure:"output"`
	Context string   `mapstructure:"context"`
	Files   []string `mapstructure:"files"`
}

// UnknownEvent carries an unrecognized or malformed event
type UnknownEvent struct {
	Type    string `mapstructure:"type"`
	Context string `mapstructure:"context"`
	Output  string `mapstructure:"output"`
}

func (TaskStart) Kind() EventKind          { return KindTaskStart }
func (TaskComplete) Kind() EventKind       { return KindTaskComplete }
func (TaskFailed) Kind() EventKind         { return KindTaskFailed }
func (CheckpointReached) Kind() EventKind  { return KindCheckpointReached }
func (CheckpointDecision) Kind() EventKind { return KindCheckpointDecision }
func (VerificationPassed) Kind() EventKind { return KindVerificationPassed }
func (VerificationFailed) Kind() EventKind { return KindVerificationFailed }
func (FileModified) Kind() EventKind       { return KindFileModified }
func (ErrorEncountered) Kind() EventKind   { return KindErrorEncountered }
func (SolutionApplied) Kind() EventKind    { return KindSolutionApplied }
func (ExecutionStart) Kind() EventKind     { return KindExecutionStart }
func (ExecutionPause) Kind() EventKind     { return KindExecutionPause }
func (ExecutionComplete) Kind() EventKind  { return KindExecutionComplete }
func (UnknownEvent) Kind() EventKind       { return KindUnknown }

func (TaskStart) isEvent()          {}
func (TaskComplete) isEvent()       {}
func (TaskFailed) isEvent()         {}
func (CheckpointReached) isEvent()  {}
func (CheckpointDecision) isEvent() {}
func (VerificationPassed) isEvent() {}
func (VerificationFailed) isEvent() {}
func (FileModified) isEvent()       {}
func (ErrorEncountered) isEvent()   {}
func (SolutionApplied) isEvent()    {}
func (ExecutionStart) isEvent()     {}
func (ExecutionPause) isEvent()     {}
func (ExecutionComplete) isEvent()  {}
func (UnknownEvent) isEvent()       {}

// files returns the files an event touches
func files(ev Event) []string {
	switch e := ev.(type) {
	case TaskComplete:
		return e.Files
	case TaskFailed:
		return e.Files
	case FileModified:
		return e.Files
	case ErrorEncountered:
		return e.Files
	case SolutionApplied:
		return e.Files
	case ExecutionComplete:
		return e.Files
	default:
		return nil
	}
}

// errorText returns the error text an event carries
func errorText(ev Event) string {
	switch e := ev.(type) {
	case TaskFailed:
		return e.Error
	case VerificationFailed:
		return e.Error
	case ErrorEncountered:
		return e.Error
	case SolutionApplied:
		return e.RelatedError
	default:
		return ""
	}
}
