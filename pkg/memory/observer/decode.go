package observer

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"

	"github.com/skillkit/skillkit/pkg/logger"
)

// DecodeEvent converts a loosely-typed event map, such as a JSON payload
// from an agent hook, into its typed variant. The "type" key selects the
// variant; an unrecognized type, or fields that do not fit the variant,
// decode to UnknownEvent.
func DecodeEvent(raw map[string]any) (Event, error) {
	kind, _ := raw["type"].(string)

	var target Event
	switch EventKind(kind) {
	case KindTaskStart:
		target = &TaskStart{}
	case KindTaskComplete:
		target = &TaskComplete{}
	case KindTaskFailed:
		target = &TaskFailed{}
	case KindCheckpointReached:
		target = &CheckpointReached{}
	case KindCheckpointDecision:
		target = &CheckpointDecision{}
	case KindVerificationPassed:
		target = &VerificationPassed{}
	case KindVerificationFailed:
		target = &VerificationFailed{}
	case KindFileModified:
		target = &FileModified{}
	case KindErrorEncountered:
		target = &ErrorEncountered{}
	case KindSolutionApplied:
		target = &SolutionApplied{}
	case KindExecutionStart:
		target = &ExecutionStart{}
	case KindExecutionPause:
		target = &ExecutionPause{}
	case KindExecutionComplete:
		target = &ExecutionComplete{}
	default:
		target = &UnknownEvent{}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create event decoder")
	}
	if err := decoder.Decode(raw); err != nil {
		logger.L.WithError(err).WithField("event", kind).Debug("malformed event, recording as unknown")
		return malformed(kind, raw), nil
	}

	return deref(target), nil
}

// malformed keeps the string fields of an event whose fields do not match
// its kind, so it still flows through default scoring
func malformed(kind string, raw map[string]any) UnknownEvent {
	str := func(key string) string {
		v, _ := raw[key].(string)
		return v
	}
	ev := UnknownEvent{Type: kind, Context: str("context"), Output: str("output")}
	if ev.Output == "" {
		ev.Output = str("error")
	}
	return ev
}

// deref returns the value form of a decoded variant so that type switches
// over Event only need value cases
func deref(ev Event) Event {
	switch e := ev.(type) {
	case *TaskStart:
		return *e
	case *TaskComplete:
		return *e
	case *TaskFailed:
		return *e
	case *CheckpointReached:
		return *e
	case *CheckpointDecision:
		return *e
	case *VerificationPassed:
		return *e
	case *VerificationFailed:
		return *e
	case *FileModified:
		return *e
	case *ErrorEncountered:
		return *e
	case *SolutionApplied:
		return *e
	case *ExecutionStart:
		return *e
	case *ExecutionPause:
		return *e
	case *ExecutionComplete:
		return *e
	case *UnknownEvent:
		return *e
	default:
		return ev
	}
}
