package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillkit/skillkit/pkg/logger"
	"github.com/skillkit/skillkit/pkg/memory/filestore"
	"github.com/skillkit/skillkit/pkg/memory/injector"
	"github.com/skillkit/skillkit/pkg/memory/learnings"
	"github.com/skillkit/skillkit/pkg/memory/observations"
	"github.com/skillkit/skillkit/pkg/memory/observer"
	"github.com/skillkit/skillkit/pkg/memory/stack"
	"github.com/skillkit/skillkit/pkg/presenter"
	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Record observations and manage learnings",
	Long: `Record observations during an agent session, manage project and global
learnings, and inject the most relevant learnings into an agent's context.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

// memoryEnv holds the learning stores of one project
type memoryEnv struct {
	projectPath string
	project     *learnings.Store
	global      *learnings.Store
	p           presenter.Presenter
}

func openMemory(ctx context.Context, projectPath string, p presenter.Presenter) (*memoryEnv, error) {
	abs, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve project path")
	}

	env := &memoryEnv{
		projectPath: abs,
		project:     learnings.NewProjectStore(ctx, abs),
		p:           p,
	}
	global, err := learnings.NewGlobalStore(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Debug("global learnings unavailable")
		p.Warning("Global learning store unavailable, using project learnings only")
	} else {
		env.global = global
	}
	return env, nil
}

// store returns the store of scope
func (e *memoryEnv) store(global bool) (*learnings.Store, error) {
	if !global {
		return e.project, nil
	}
	if e.global == nil {
		return nil, errors.New("global learning store is unavailable")
	}
	return e.global, nil
}

// find looks a learning up in the project store, then the global store
func (e *memoryEnv) find(id string) (*learnings.Store, memtypes.Learning, error) {
	for _, s := range []*learnings.Store{e.project, e.global} {
		if s == nil {
			continue
		}
		if l, ok := s.GetByID(id); ok {
			return s, l, nil
		}
	}
	return nil, memtypes.Learning{}, errors.Wrapf(learnings.ErrLearningNotFound, "id %s", id)
}

// injector builds an injector over the project's stores and detected stack.
// A missing default stack file is expected; a configured one that is
// missing or unreadable is reported.
func (e *memoryEnv) injector(ctx context.Context, stackFile string) *injector.Injector {
	var global injector.LearningSource
	if e.global != nil {
		global = e.global
	}

	inj := injector.New(e.project, global)

	if stackFile == "" {
		return inj
	}
	configured := stackFile != stack.DefaultFile
	if !filepath.IsAbs(stackFile) {
		stackFile = filepath.Join(e.projectPath, stackFile)
	}
	detected, err := stack.Load(stackFile)
	if err != nil {
		logger.G(ctx).WithError(err).WithField("stack_file", stackFile).Debug("no project stack, framework matching disabled")
		if configured || !errors.Is(err, filestore.ErrNotExist) {
			e.p.Warning(fmt.Sprintf("Stack file %s not loaded, framework matching disabled", stackFile))
		}
		return inj
	}
	inj.SetProjectContext(detected)
	return inj
}

func projectFlag() string {
	return viper.GetString("project")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "failed to encode JSON")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ObserveConfig holds the flags of memory observe
type ObserveConfig struct {
	Kind         string
	Message      string
	Context      string
	TaskName     string
	RelatedError string
	Files        []string
	Options      []string
	EventJSON    string
	Skill        string
	Agent        string
	SessionID    string
}

// primaryField names the event field --message fills for each kind
var primaryField = map[observer.EventKind]string{
	observer.KindTaskStart:          "taskName",
	observer.KindTaskComplete:       "output",
	observer.KindTaskFailed:         "error",
	observer.KindCheckpointReached:  "message",
	observer.KindCheckpointDecision: "decision",
	observer.KindVerificationPassed: "output",
	observer.KindVerificationFailed: "error",
	observer.KindFileModified:       "change",
	observer.KindErrorEncountered:   "error",
	observer.KindSolutionApplied:    "solution",
	observer.KindExecutionStart:     "skillName",
	observer.KindExecutionPause:     "reason",
	observer.KindExecutionComplete:  "output",
}

// event builds the event described by the flags or the JSON payload
func (c *ObserveConfig) event() (observer.Event, error) {
	raw := map[string]any{}
	if c.EventJSON != "" {
		if err := json.Unmarshal([]byte(c.EventJSON), &raw); err != nil {
			return nil, errors.Wrap(err, "invalid event JSON")
		}
		return observer.DecodeEvent(raw)
	}

	kind := observer.EventKind(c.Kind)
	field, ok := primaryField[kind]
	if !ok {
		return nil, errors.Errorf("unknown event kind %q", c.Kind)
	}

	raw["type"] = c.Kind
	set := func(key string, value any) {
		switch v := value.(type) {
		case string:
			if v != "" {
				raw[key] = v
			}
		case []string:
			if len(v) > 0 {
				raw[key] = v
			}
		}
	}
	set(field, c.Message)
	set("context", c.Context)
	set("relatedError", c.RelatedError)
	set("files", c.Files)
	set("options", c.Options)
	if field != "taskName" {
		set("taskName", c.TaskName)
	}
	if field == "message" {
		set("name", c.TaskName)
	}
	return observer.DecodeEvent(raw)
}

var memoryObserveCmd = &cobra.Command{
	Use:   "observe [kind]",
	Short: "Record an execution event as an observation",
	Long: `Record an execution event. The event is scored and stored in the session's
observation log when its relevance reaches memory.observer.min_relevance.

Kinds: task_start, task_complete, task_failed, checkpoint_reached,
checkpoint_decision, verification_passed, verification_failed, file_modified,
error_encountered, solution_applied, execution_start, execution_pause,
execution_complete.

Examples:
  skillkit memory observe error_encountered -m "TypeError: x is not a function" -f src/app.ts
  skillkit memory observe solution_applied -m "Export the helper" --related-error "TypeError: x is not a function"
  echo '{"type":"file_modified","files":["go.mod"]}' | skillkit memory observe --event-json -`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := getObserveConfigFromFlags(cmd, args)
		if err != nil {
			return err
		}
		obsCfg, err := observerConfig(viper.GetViper())
		if err != nil {
			return err
		}
		return runObserve(cmd.Context(), config, obsCfg, projectFlag(), presenter.Default())
	},
}

func getObserveConfigFromFlags(cmd *cobra.Command, args []string) (*ObserveConfig, error) {
	config := &ObserveConfig{
		Agent:     viper.GetString("memory.agent"),
		SessionID: viper.GetString("memory.session_id"),
	}
	if len(args) > 0 {
		config.Kind = args[0]
	}

	flags := cmd.Flags()
	config.Message, _ = flags.GetString("message")
	config.Context, _ = flags.GetString("context")
	config.TaskName, _ = flags.GetString("task")
	config.RelatedError, _ = flags.GetString("related-error")
	config.Files, _ = flags.GetStringSlice("file")
	config.Options, _ = flags.GetStringSlice("option")
	config.Skill, _ = flags.GetString("skill")
	if agent, _ := flags.GetString("agent"); agent != "" {
		config.Agent = agent
	}
	if session, _ := flags.GetString("session"); session != "" {
		config.SessionID = session
	}

	eventJSON, _ := flags.GetString("event-json")
	if eventJSON == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, errors.Wrap(err, "failed to read event from stdin")
		}
		eventJSON = string(b)
	}
	config.EventJSON = strings.TrimSpace(eventJSON)

	if config.Kind == "" && config.EventJSON == "" {
		return nil, errors.New("an event kind or --event-json is required")
	}
	return config, nil
}

func runObserve(ctx context.Context, config *ObserveConfig, obsCfg observer.Config, projectPath string, p presenter.Presenter) error {
	ev, err := config.event()
	if err != nil {
		return err
	}

	store := observations.NewStore(ctx, projectPath, config.SessionID)
	ctx = logger.WithFields(ctx, logrus.Fields{"session_id": store.SessionID(), "agent": config.Agent})

	o := observer.New(store, obsCfg,
		observer.WithAgent(config.Agent),
		observer.WithPendingErrors(observer.PendingFromHistory(store.GetAll())...),
	)
	if config.Skill != "" {
		o.SetSkillName(config.Skill)
	}

	got, err := o.Observe(ctx, ev)
	if err != nil {
		return err
	}
	if got == nil {
		p.Info(fmt.Sprintf("%s event not recorded (not captured or below relevance %d)", ev.Kind(), obsCfg.MinRelevance))
		return nil
	}

	p.Success(fmt.Sprintf("Recorded %s observation %s (relevance %d)", got.Type, shortID(got.ID), got.Relevance))
	return nil
}

// ObservationsConfig holds the flags of memory observations
type ObservationsConfig struct {
	Type         string
	MinRelevance int
	Limit        int
	JSON         bool
}

var memoryObservationsCmd = &cobra.Command{
	Use:   "observations",
	Short: "List the observations of the current session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config := &ObservationsConfig{}
		config.Type, _ = cmd.Flags().GetString("type")
		config.MinRelevance, _ = cmd.Flags().GetInt("min-relevance")
		config.Limit, _ = cmd.Flags().GetInt("limit")
		config.JSON, _ = cmd.Flags().GetBool("json")
		return runObservations(cmd.Context(), config, projectFlag(), cmd.OutOrStdout(), presenter.Default())
	},
}

func runObservations(ctx context.Context, config *ObservationsConfig, projectPath string, out io.Writer, p presenter.Presenter) error {
	store := observations.NewStore(ctx, projectPath, "")

	var list []memtypes.Observation
	switch {
	case config.Type != "":
		t := memtypes.ObservationType(config.Type)
		if !t.Valid() {
			return errors.Errorf("unknown observation type %q", config.Type)
		}
		list = store.GetByType(t)
	case config.Limit > 0:
		list = store.GetRecent(config.Limit)
	default:
		list = store.GetAll()
	}

	filtered := list[:0]
	for _, o := range list {
		if o.Relevance >= config.MinRelevance {
			filtered = append(filtered, o)
		}
	}
	if config.Limit > 0 && len(filtered) > config.Limit {
		filtered = filtered[len(filtered)-config.Limit:]
	}

	if config.JSON {
		return writeJSON(out, filtered)
	}
	if len(filtered) == 0 {
		p.Info("No observations recorded for session " + store.SessionID())
		return nil
	}

	rows := make([][]string, 0, len(filtered))
	for _, o := range filtered {
		rows = append(rows, []string{
			shortID(o.ID),
			o.Timestamp.Format("15:04:05"),
			string(o.Type),
			strconv.Itoa(o.Relevance),
			o.Content.Action,
		})
	}
	p.Section("Session " + store.SessionID())
	p.Table([]string{"ID", "TIME", "TYPE", "RELEVANCE", "ACTION"}, rows)
	return nil
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the observations of the current session",
	Long: `Delete the observations of the current session. The log file is kept with
the session id unless --purge is given, which removes the file entirely.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		purge, _ := cmd.Flags().GetBool("purge")
		return runClear(cmd.Context(), purge, projectFlag(), presenter.Default())
	},
}

func runClear(ctx context.Context, purge bool, projectPath string, p presenter.Presenter) error {
	store := observations.NewStore(ctx, projectPath, "")
	if purge {
		if err := store.Purge(); err != nil {
			return err
		}
		p.Success("Observation log removed")
		return nil
	}

	if err := store.Clear(); err != nil {
		return err
	}
	p.Success("Observation log cleared")
	return nil
}

var memoryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the session and the learning stores",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStatus(cmd.Context(), projectFlag(), presenter.Default())
	},
}

func runStatus(ctx context.Context, projectPath string, p presenter.Presenter) error {
	env, err := openMemory(ctx, projectPath, p)
	if err != nil {
		return err
	}
	store := observations.NewStore(ctx, env.projectPath, "")

	stats := &presenter.MemoryStats{
		SessionID:       store.SessionID(),
		Observations:    store.Count(),
		PendingErrors:   len(observer.PendingFromHistory(store.GetAll())),
		ProjectLearning: env.project.Count(),
	}
	rows := [][]string{
		{"observations", store.Path()},
		{"project", env.project.Path()},
	}
	if env.global != nil {
		stats.GlobalLearning = env.global.Count()
		rows = append(rows, []string{"global", env.global.Path()})
	}
	p.Stats(stats)
	p.Separator()
	p.Table([]string{"STORE", "PATH"}, rows)
	return nil
}

func init() {
	f := memoryObserveCmd.Flags()
	f.StringP("message", "m", "", "Main text of the event (error, solution, decision, output...)")
	f.String("context", "", "Additional context")
	f.String("task", "", "Task or checkpoint name")
	f.String("related-error", "", "Error a solution resolves")
	f.StringSliceP("file", "f", nil, "File touched by the event (repeatable)")
	f.StringSlice("option", nil, "Option considered for a decision (repeatable)")
	f.String("event-json", "", "Event as a JSON object with a \"type\" key, or - to read stdin")
	f.String("skill", "", "Skill being executed")
	f.String("agent", "", "Agent recording the event (defaults to memory.agent)")
	f.String("session", "", "Session id (defaults to memory.session_id or the persisted session)")

	of := memoryObservationsCmd.Flags()
	of.String("type", "", "Only observations of this type")
	of.Int("min-relevance", 0, "Minimum relevance")
	of.IntP("limit", "n", 0, "Show only the most recent n observations")
	of.Bool("json", false, "Output JSON")

	memoryClearCmd.Flags().Bool("purge", false, "Remove the observation log file")

	memoryCmd.AddCommand(memoryObserveCmd)
	memoryCmd.AddCommand(memoryObservationsCmd)
	memoryCmd.AddCommand(memoryClearCmd)
	memoryCmd.AddCommand(memoryStatusCmd)
}
