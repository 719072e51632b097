package main

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skillkit/skillkit/pkg/logger"
	"github.com/skillkit/skillkit/pkg/memory/injector"
	"github.com/skillkit/skillkit/pkg/memory/stack"
	"github.com/skillkit/skillkit/pkg/presenter"
	"github.com/skillkit/skillkit/pkg/skills"
	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// InjectConfig holds the flags of memory inject that are not injection
// options
type InjectConfig struct {
	Agent     string
	Skill     string
	StackFile string
	JSON      bool
}

// applyOptionFlags overrides opts with the injection flags the user set
func applyOptionFlags(cmd *cobra.Command, opts *injector.Options) error {
	f := cmd.Flags()
	if f.Changed("tag") {
		opts.Tags, _ = f.GetStringSlice("tag")
	}
	if f.Changed("task") {
		opts.CurrentTask, _ = f.GetString("task")
	}
	if f.Changed("min-relevance") {
		opts.MinRelevance, _ = f.GetInt("min-relevance")
	}
	if f.Changed("max-learnings") {
		opts.MaxLearnings, _ = f.GetInt("max-learnings")
	}
	if f.Changed("max-tokens") {
		opts.MaxTokens, _ = f.GetInt("max-tokens")
	}
	if f.Changed("disclosure") {
		level, _ := f.GetString("disclosure")
		opts.Disclosure = injector.DisclosureLevel(level)
		if !opts.Disclosure.Valid() {
			return errors.Errorf("invalid disclosure level %q", level)
		}
	}
	if noGlobal, _ := f.GetBool("no-global"); noGlobal {
		opts.IncludeGlobal = false
	}
	return nil
}

func addOptionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSlice("tag", nil, "Tag to match (repeatable)")
	f.String("task", "", "Description of the current task")
	f.Int("min-relevance", 0, "Minimum relevance score (defaults to memory.injector.min_relevance)")
	f.Int("max-learnings", 0, "Maximum number of learnings (defaults to memory.injector.max_learnings)")
	f.Int("max-tokens", 0, "Token budget (defaults to memory.injector.max_tokens)")
	f.String("disclosure", "", "summary, preview or full (defaults to memory.injector.disclosure)")
	f.Bool("no-global", false, "Ignore the global learning store")
}

func optionsFromCommand(cmd *cobra.Command) (injector.Options, error) {
	opts, err := injectorOptions(viper.GetViper())
	if err != nil {
		return injector.Options{}, err
	}
	if err := applyOptionFlags(cmd, &opts); err != nil {
		return injector.Options{}, err
	}
	return opts, nil
}

var memoryInjectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Render the most relevant learnings for an agent",
	Long: `Select the learnings most relevant to the project stack, the given tags and
the current task, fit them into the token budget and print them in the
agent's native format. Selected learnings have their use count increased.

Examples:
  skillkit memory inject --agent claude --tag react --task "fix the list rendering"
  skillkit memory inject --agent cursor --skill react-debugging > .cursor/rules/memories.mdc`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts, err := optionsFromCommand(cmd)
		if err != nil {
			return err
		}
		config := &InjectConfig{
			Agent:     viper.GetString("memory.agent"),
			StackFile: viper.GetString("memory.stack_file"),
		}
		if agent, _ := cmd.Flags().GetString("agent"); agent != "" {
			config.Agent = agent
		}
		config.Skill, _ = cmd.Flags().GetString("skill")
		config.JSON, _ = cmd.Flags().GetBool("json")
		return runInject(cmd.Context(), config, opts, projectFlag(), cmd.OutOrStdout(), presenter.Default())
	},
}

// applySkill folds the tags and description of a discovered skill into opts
func applySkill(projectPath, name string, opts *injector.Options) error {
	discovery, err := skills.NewDiscovery(skills.WithProjectDirs(projectPath))
	if err != nil {
		return err
	}
	skill, err := discovery.GetSkill(name)
	if err != nil {
		return err
	}

	opts.Tags = append(opts.Tags, skill.Tags...)
	if opts.CurrentTask == "" {
		opts.CurrentTask = skill.Description
	}
	return nil
}

func runInject(ctx context.Context, config *InjectConfig, opts injector.Options, projectPath string, out io.Writer, p presenter.Presenter) error {
	env, err := openMemory(ctx, projectPath, p)
	if err != nil {
		return err
	}
	if config.Skill != "" {
		if err := applySkill(env.projectPath, config.Skill, &opts); err != nil {
			return err
		}
	}

	result, err := env.injector(ctx, config.StackFile).InjectForAgent(ctx, config.Agent, opts)
	if err != nil {
		return err
	}

	logger.G(ctx).WithField("agent", config.Agent).
		WithField("injected", result.Stats.Injected).
		WithField("truncated", result.Stats.Truncated).
		WithField("tokens", result.TotalTokens).
		Info("memories selected")

	if config.JSON {
		return writeJSON(out, result)
	}
	p.Raw(result.Formatted)
	return nil
}

var memorySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search learnings and rank the matches",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := optionsFromCommand(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		return runSearch(cmd.Context(), strings.Join(args, " "), opts, asJSON, projectFlag(), cmd.OutOrStdout(), presenter.Default())
	},
}

func runSearch(ctx context.Context, query string, opts injector.Options, asJSON bool, projectPath string, out io.Writer, p presenter.Presenter) error {
	env, err := openMemory(ctx, projectPath, p)
	if err != nil {
		return err
	}

	results := env.injector(ctx, viper.GetString("memory.stack_file")).Search(ctx, query, opts)
	if asJSON {
		return writeJSON(out, results)
	}
	if len(results) == 0 {
		p.Info("No learnings match " + strconv.Quote(query))
		return nil
	}

	rows := make([][]string, 0, len(results))
	for _, m := range results {
		rows = append(rows, []string{
			shortID(m.Learning.ID),
			string(m.Learning.Scope),
			strconv.Itoa(m.RelevanceScore),
			m.Learning.Title,
			strings.Join(append(append([]string{}, m.MatchedBy.Tags...), m.MatchedBy.Keywords...), ","),
		})
	}
	p.Table([]string{"ID", "SCOPE", "SCORE", "TITLE", "MATCHED"}, rows)
	return nil
}

var memoryDiscloseCmd = &cobra.Command{
	Use:   "disclose [id...]",
	Short: "Print learnings progressively: summaries, previews or full content",
	Long: `Print learnings as JSON at the requested level of detail without consuming the
token budget or recording use. Without ids, summaries of the ranked learnings
are printed; with ids, previews (--level preview) or full learnings
(--level full) of those learnings are printed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := optionsFromCommand(cmd)
		if err != nil {
			return err
		}
		level, _ := cmd.Flags().GetString("level")
		return runDisclose(cmd.Context(), args, injector.DisclosureLevel(level), opts, projectFlag(), cmd.OutOrStdout(), presenter.Default())
	},
}

func runDisclose(ctx context.Context, ids []string, level injector.DisclosureLevel, opts injector.Options, projectPath string, out io.Writer, p presenter.Presenter) error {
	env, err := openMemory(ctx, projectPath, p)
	if err != nil {
		return err
	}
	inj := env.injector(ctx, viper.GetString("memory.stack_file"))

	switch {
	case len(ids) == 0 || level == injector.DisclosureSummary:
		return writeJSON(out, inj.GetSummaries(opts))
	case level == injector.DisclosurePreview:
		return writeJSON(out, inj.GetPreviews(ids, opts))
	case level == injector.DisclosureFull:
		return writeJSON(out, inj.GetFullMemories(ids, opts))
	default:
		return errors.Errorf("invalid disclosure level %q", level)
	}
}

var schemaTargets = map[string]any{
	"learnings":    &memtypes.LearningDocument{},
	"observations": &memtypes.ObservationDocument{},
	"stack":        &stack.ProjectStack{},
}

var memorySchemaCmd = &cobra.Command{
	Use:       "schema <learnings|observations|stack>",
	Short:     "Print the JSON Schema of a persisted memory document",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"learnings", "observations", "stack"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSchema(args[0], cmd.OutOrStdout())
	},
}

func runSchema(target string, out io.Writer) error {
	v, ok := schemaTargets[target]
	if !ok {
		return errors.Errorf("unknown document %q", target)
	}
	r := &jsonschema.Reflector{DoNotReference: true}
	return writeJSON(out, r.Reflect(v))
}

func init() {
	addOptionFlags(memoryInjectCmd)
	memoryInjectCmd.Flags().StringP("agent", "a", "", "Target agent (claude, cursor, copilot, codex...)")
	memoryInjectCmd.Flags().String("skill", "", "Use the tags and description of a discovered skill")
	memoryInjectCmd.Flags().Bool("json", false, "Output the full result as JSON")

	addOptionFlags(memorySearchCmd)
	memorySearchCmd.Flags().Bool("json", false, "Output JSON")

	addOptionFlags(memoryDiscloseCmd)
	memoryDiscloseCmd.Flags().String("level", string(injector.DisclosureSummary), "summary, preview or full")

	memoryCmd.AddCommand(memoryInjectCmd)
	memoryCmd.AddCommand(memorySearchCmd)
	memoryCmd.AddCommand(memoryDiscloseCmd)
	memoryCmd.AddCommand(memorySchemaCmd)
}
