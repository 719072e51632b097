package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillkit/skillkit/pkg/presenter"
	"github.com/skillkit/skillkit/pkg/skills"
)

var skillCmd = &cobra.Command{
	Use:   "skill",
	Short: "Inspect skills installed for the supported agents",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Help()
	},
}

var skillListCmd = &cobra.Command{
	Use:   "list",
	Short: "List skills found in the project and home agent directories",
	Long: `List skills found in the agent skill directories of the project and the home
directory (.skillkit, .claude, .cursor, .codex and .github). --dir searches
only the given directories.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := cmd.Flags()
		asJSON, _ := f.GetBool("json")
		allowed, _ := f.GetStringSlice("allow")
		dirs, _ := f.GetStringSlice("dir")

		opt := skills.WithProjectDirs(projectFlag())
		if len(dirs) > 0 {
			opt = skills.WithSkillDirs(dirs...)
		}
		discovery, err := skills.NewDiscovery(opt)
		if err != nil {
			return err
		}
		return listSkills(discovery, allowed, asJSON, cmd.OutOrStdout(), presenter.Default())
	},
}

func listSkills(discovery *skills.Discovery, allowed []string, asJSON bool, out io.Writer, p presenter.Presenter) error {
	list := discovery.List(allowed...)
	if asJSON {
		return writeJSON(out, list)
	}
	if len(list) == 0 {
		searched := make([]string, 0, len(discovery.Dirs()))
		for _, dir := range discovery.Dirs() {
			searched = append(searched, dir.Path)
		}
		p.Info("No skills found in " + strings.Join(searched, ", "))
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{s.Name, s.Agent, strings.Join(s.Tags, ","), s.Description})
	}
	p.Table([]string{"NAME", "AGENT", "TAGS", "DESCRIPTION"}, rows)
	return nil
}

func init() {
	f := skillListCmd.Flags()
	f.Bool("json", false, "Output JSON")
	f.StringSlice("allow", nil, "Only list these skills (repeatable)")
	f.StringSlice("dir", nil, "Search only this skills directory (repeatable)")
	skillCmd.AddCommand(skillListCmd)
}
