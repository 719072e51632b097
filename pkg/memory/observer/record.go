package observer

import (
	"context"

	"github.com/skillkit/skillkit/pkg/logger"
	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// RecordError observes an encountered error
func (o *Observer) RecordError(ctx context.Context, errText, details string, files ...string) (*memtypes.Observation, error) {
	return o.Observe(ctx, ErrorEncountered{Error: errText, Context: details, Files: files})
}

// RecordSolution observes an applied solution. relatedError may be empty;
// the solution is then matched against pending errors by its text.
func (o *Observer) RecordSolution(ctx context.Context, solution, details, relatedError string, files ...string) (*memtypes.Observation, error) {
	return o.Observe(ctx, SolutionApplied{Solution: solution, Context: details, RelatedError: relatedError, Files: files})
}

// RecordDecision observes a checkpoint decision
func (o *Observer) RecordDecision(ctx context.Context, decision, details string, options ...string) (*memtypes.Observation, error) {
	return o.Observe(ctx, CheckpointDecision{Decision: decision, Context: details, Options: options})
}

// RecordFileModification observes changed files
func (o *Observer) RecordFileModification(ctx context.Context, files []string, change string) (*memtypes.Observation, error) {
	return o.Observe(ctx, FileModified{Files: files, Change: change})
}

// RecordExecutionStart observes the start of a skill execution and makes
// skillName the current skill
func (o *Observer) RecordExecutionStart(ctx context.Context, skillName, details string) (*memtypes.Observation, error) {
	if skillName != "" {
		o.SetSkillName(skillName)
	}
	return o.Observe(ctx, ExecutionStart{SkillName: skillName, Context: details})
}

// RecordExecutionPause observes a paused execution
func (o *Observer) RecordExecutionPause(ctx context.Context, reason string) (*memtypes.Observation, error) {
	return o.Observe(ctx, ExecutionPause{Reason: reason})
}

// RecordExecutionComplete observes a finished execution
func (o *Observer) RecordExecutionComplete(ctx context.Context, output string, files ...string) (*memtypes.Observation, error) {
	return o.Observe(ctx, ExecutionComplete{Output: output, Files: files})
}

// ProgressEventType names the events of an execution progress stream
type ProgressEventType string

const (
	ProgressTaskStart    ProgressEventType = "task_start"
	ProgressTaskComplete ProgressEventType = "task_complete"
	ProgressCheckpoint   ProgressEventType = "checkpoint"
	ProgressError        ProgressEventType = "error"
	ProgressComplete     ProgressEventType = "complete"
)

// ProgressEvent is one event of an executor's progress stream
type ProgressEvent struct {
	Type     ProgressEventType
	TaskName string
	TaskID   string
	Status   string
	Message  string
	Output   string
	Error    string
	Files    []string
}

// ProgressCallback receives progress events from an executor
type ProgressCallback func(ev ProgressEvent)

// CreateProgressCallback returns a callback that observes an executor's
// progress stream. The executor needs no knowledge of memory; failures to
// record are logged and never reach the executor.
func (o *Observer) CreateProgressCallback(ctx context.Context) ProgressCallback {
	return func(p ProgressEvent) {
		ev := progressToEvent(p)
		if _, err := o.Observe(ctx, ev); err != nil {
			logger.G(ctx).WithError(err).WithField("progress_event", p.Type).Warn("failed to observe progress event")
		}
	}
}

func progressToEvent(p ProgressEvent) Event {
	switch p.Type {
	case ProgressTaskStart:
		return TaskStart{TaskName: p.TaskName, TaskID: p.TaskID, Context: p.Message}
	case ProgressTaskComplete:
		if p.Status == "failed" || p.Status == "error" || p.Error != "" {
			return TaskFailed{TaskName: p.TaskName, TaskID: p.TaskID, Error: p.Error, Context: p.Message, Files: p.Files}
		}
		return TaskComplete{TaskName: p.TaskName, TaskID: p.TaskID, Output: p.Output, Context: p.Message, Files: p.Files}
	case ProgressCheckpoint:
		return CheckpointReached{Name: p.TaskName, Message: p.Message}
	case ProgressError:
		return ErrorEncountered{Error: p.Error, Context: joinNonEmpty(p.TaskName, p.Message), Files: p.Files}
	case ProgressComplete:
		return ExecutionComplete{Output: p.Output, Context: p.Message, Files: p.Files}
	default:
		return UnknownEvent{Type: string(p.Type), Context: p.Message, Output: p.Output}
	}
}
