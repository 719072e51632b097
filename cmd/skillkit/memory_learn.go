package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/skillkit/skillkit/pkg/memory/learnings"
	"github.com/skillkit/skillkit/pkg/presenter"
	memtypes "github.com/skillkit/skillkit/pkg/types/memory"
)

// LearnConfig holds the flags of memory learn
type LearnConfig struct {
	Title         string
	Content       string
	Tags          []string
	Frameworks    []string
	Patterns      []string
	Effectiveness int
	Global        bool
}

// NewLearnConfig returns the defaults of memory learn
func NewLearnConfig() *LearnConfig {
	return &LearnConfig{Effectiveness: -1}
}

var memoryLearnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Add a learning",
	Long: `Add a learning to the project store, or to the global store with --global.

Examples:
  skillkit memory learn -t "Memoize list rows" -c "Wrap heavy rows in React.memo" --tag react --framework react
  skillkit memory learn -t "Prefer errors.Wrap" --tag go -g`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		config := NewLearnConfig()
		f := cmd.Flags()
		config.Title, _ = f.GetString("title")
		config.Content, _ = f.GetString("content")
		config.Tags, _ = f.GetStringSlice("tag")
		config.Frameworks, _ = f.GetStringSlice("framework")
		config.Patterns, _ = f.GetStringSlice("pattern")
		config.Effectiveness, _ = f.GetInt("effectiveness")
		config.Global, _ = f.GetBool("global")
		return runLearn(cmd.Context(), config, projectFlag(), presenter.Default())
	},
}

func runLearn(ctx context.Context, config *LearnConfig, projectPath string, p presenter.Presenter) error {
	env, err := openMemory(ctx, projectPath, p)
	if err != nil {
		return err
	}
	store, err := env.store(config.Global)
	if err != nil {
		return err
	}

	in := learnings.NewLearning{
		Title:      config.Title,
		Content:    config.Content,
		Source:     memtypes.SourceManual,
		Tags:       config.Tags,
		Frameworks: config.Frameworks,
		Patterns:   config.Patterns,
	}
	if config.Effectiveness >= 0 {
		eff := config.Effectiveness
		in.Effectiveness = &eff
	}

	l, err := store.Add(in)
	if err != nil {
		return err
	}
	p.Success(fmt.Sprintf("Added %s learning %s: %s", l.Scope, shortID(l.ID), l.Title))
	return nil
}

var memoryImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Import learnings from a Markdown file or directory",
	Long: `Import learnings from Markdown. A directory is searched recursively for *.md
files. Frontmatter may set title, tags, frameworks, patterns and effectiveness.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		global, _ := cmd.Flags().GetBool("global")
		return runImport(cmd.Context(), args[0], global, projectFlag(), presenter.Default())
	},
}

func runImport(ctx context.Context, path string, global bool, projectPath string, p presenter.Presenter) error {
	env, err := openMemory(ctx, projectPath, p)
	if err != nil {
		return err
	}
	store, err := env.store(global)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrap(err, "failed to stat import path")
	}

	if !info.IsDir() {
		l, err := store.ImportMarkdown(path)
		if err != nil {
			return err
		}
		p.Success(fmt.Sprintf("Imported %s", l.Title))
		return nil
	}

	imported, err := store.ImportDir(path)
	p.Success(fmt.Sprintf("Imported %d learnings", len(imported)))
	return err
}

var memoryExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Print a learning as Markdown with frontmatter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openMemory(cmd.Context(), projectFlag(), presenter.Default())
		if err != nil {
			return err
		}
		store, _, err := env.find(args[0])
		if err != nil {
			return err
		}
		out, err := store.ExportMarkdown(args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

// ListConfig holds the flags of memory list
type ListConfig struct {
	Scope      string
	Tags       []string
	Frameworks []string
	Recent     int
	MostUsed   int
	JSON       bool
}

var memoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List learnings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config := &ListConfig{}
		f := cmd.Flags()
		config.Scope, _ = f.GetString("scope")
		config.Tags, _ = f.GetStringSlice("tag")
		config.Frameworks, _ = f.GetStringSlice("framework")
		config.Recent, _ = f.GetInt("recent")
		config.MostUsed, _ = f.GetInt("most-used")
		config.JSON, _ = f.GetBool("json")
		return runList(cmd.Context(), config, projectFlag(), cmd.OutOrStdout(), presenter.Default())
	},
}

func (c *ListConfig) pick(s *learnings.Store) []memtypes.Learning {
	switch {
	case len(c.Tags) > 0:
		return s.GetByTags(c.Tags...)
	case len(c.Frameworks) > 0:
		return s.GetByFrameworks(c.Frameworks...)
	case c.Recent > 0:
		return s.GetRecent(c.Recent)
	case c.MostUsed > 0:
		return s.GetMostUsed(c.MostUsed)
	default:
		return s.GetAll()
	}
}

func runList(ctx context.Context, config *ListConfig, projectPath string, out io.Writer, p presenter.Presenter) error {
	env, err := openMemory(ctx, projectPath, p)
	if err != nil {
		return err
	}

	var stores []*learnings.Store
	switch config.Scope {
	case "", "all":
		stores = []*learnings.Store{env.project, env.global}
	case string(memtypes.ScopeProject):
		stores = []*learnings.Store{env.project}
	case string(memtypes.ScopeGlobal):
		stores = []*learnings.Store{env.global}
	default:
		return errors.Errorf("unknown scope %q", config.Scope)
	}

	list := []memtypes.Learning{}
	for _, s := range stores {
		if s != nil {
			list = append(list, config.pick(s)...)
		}
	}

	if config.JSON {
		return writeJSON(out, list)
	}
	if len(list) == 0 {
		p.Info("No learnings found")
		return nil
	}

	p.Table([]string{"ID", "SCOPE", "USES", "EFFECTIVENESS", "TITLE", "TAGS"}, learningRows(list))
	return nil
}

func learningRows(list []memtypes.Learning) [][]string {
	rows := make([][]string, 0, len(list))
	for _, l := range list {
		eff := "-"
		if l.Effectiveness != nil {
			eff = strconv.Itoa(*l.Effectiveness)
		}
		rows = append(rows, []string{
			shortID(l.ID),
			string(l.Scope),
			strconv.Itoa(l.UseCount),
			eff,
			l.Title,
			strings.Join(l.Tags, ","),
		})
	}
	return rows
}

var memoryRateCmd = &cobra.Command{
	Use:   "rate <id> <0-100>",
	Short: "Record how effective a learning was",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Wrapf(err, "invalid effectiveness %q", args[1])
		}
		return runRate(cmd.Context(), args[0], score, projectFlag(), presenter.Default())
	},
}

func runRate(ctx context.Context, id string, score int, projectPath string, p presenter.Presenter) error {
	env, err := openMemory(ctx, projectPath, p)
	if err != nil {
		return err
	}
	store, _, err := env.find(id)
	if err != nil {
		return err
	}
	l, err := store.SetEffectiveness(id, score)
	if err != nil {
		return err
	}
	p.Success(fmt.Sprintf("Rated %s at %d", l.Title, score))
	return nil
}

var memoryForgetCmd = &cobra.Command{
	Use:   "forget <id>",
	Short: "Delete a learning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openMemory(cmd.Context(), projectFlag(), presenter.Default())
		if err != nil {
			return err
		}
		store, l, err := env.find(args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(l.ID); err != nil {
			return err
		}
		presenter.Success("Forgot " + l.Title)
		return nil
	},
}

func init() {
	lf := memoryLearnCmd.Flags()
	defaults := NewLearnConfig()
	lf.StringP("title", "t", "", "Title of the learning")
	lf.StringP("content", "c", "", "Body of the learning")
	lf.StringSlice("tag", nil, "Tag (repeatable)")
	lf.StringSlice("framework", nil, "Framework the learning applies to (repeatable)")
	lf.StringSlice("pattern", nil, "Pattern the learning captures (repeatable)")
	lf.Int("effectiveness", defaults.Effectiveness, "Initial effectiveness 0-100")
	lf.BoolP("global", "g", defaults.Global, "Store in the global store instead of the project")
	memoryLearnCmd.MarkFlagRequired("title")

	memoryImportCmd.Flags().BoolP("global", "g", false, "Import into the global store")

	ls := memoryListCmd.Flags()
	ls.String("scope", "all", "project, global or all")
	ls.StringSlice("tag", nil, "Only learnings with one of these tags")
	ls.StringSlice("framework", nil, "Only learnings for one of these frameworks")
	ls.Int("recent", 0, "Only the n most recently updated learnings per store")
	ls.Int("most-used", 0, "Only the n most used learnings per store")
	ls.Bool("json", false, "Output JSON")

	memoryCmd.AddCommand(memoryLearnCmd)
	memoryCmd.AddCommand(memoryImportCmd)
	memoryCmd.AddCommand(memoryExportCmd)
	memoryCmd.AddCommand(memoryListCmd)
	memoryCmd.AddCommand(memoryRateCmd)
	memoryCmd.AddCommand(memoryForgetCmd)
}
