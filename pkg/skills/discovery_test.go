package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, name, content string) string {
	t.Helper()
	skillDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, skillFileName), []byte(content), 0o644))
	return skillDir
}

func TestNewDiscovery(t *testing.T) {
	t.Run("project and home agent dirs", func(t *testing.T) {
		t.Setenv("HOME", "/home/dev")
		discovery, err := NewDiscovery(WithProjectDirs("/work/app"))
		require.NoError(t, err)

		dirs := discovery.Dirs()
		require.Len(t, dirs, 2*len(agentDirs))
		assert.Equal(t, Dir{Path: "/work/app/.skillkit/skills", Agent: "skillkit"}, dirs[0])
		assert.Equal(t, Dir{Path: "/work/app/.claude/skills", Agent: "claude"}, dirs[1])
		assert.Equal(t, Dir{Path: "/home/dev/.skillkit/skills", Agent: "skillkit"}, dirs[len(agentDirs)])
	})

	t.Run("custom dirs", func(t *testing.T) {
		discovery, err := NewDiscovery(WithSkillDirs("/tmp/skills1", "/tmp/skills2"))
		require.NoError(t, err)
		assert.Equal(t, []Dir{{Path: "/tmp/skills1"}, {Path: "/tmp/skills2"}}, discovery.Dirs())
	})
}

func TestDiscoverSkills(t *testing.T) {
	tmpDir := t.TempDir()
	testDir := writeSkill(t, tmpDir, "test-skill", `---
name: test-skill
description: A test skill for unit testing
tags: [react, testing]
---

# Test Skill

This is a test skill.
`)
	writeSkill(t, tmpDir, "another-skill", `---
name: another-skill
description: Another test skill
---

Some content here.
`)

	discovery, err := NewDiscovery(WithSkillDirs(tmpDir))
	require.NoError(t, err)

	skills := discovery.DiscoverSkills()
	require.Len(t, skills, 2)

	skill := skills["test-skill"]
	require.NotNil(t, skill)
	assert.Equal(t, "A test skill for unit testing", skill.Description)
	assert.Equal(t, []string{"react", "testing"}, skill.Tags)
	assert.Equal(t, testDir, skill.Directory)
	assert.Equal(t, "# Test Skill\n\nThis is a test skill.\n", skill.Content)

	list := discovery.List()
	require.Len(t, list, 2)
	assert.Equal(t, "another-skill", list[0].Name)
	assert.Equal(t, "test-skill", list[1].Name)

	list = discovery.List("test-skill", "missing")
	require.Len(t, list, 1)
	assert.Equal(t, "test-skill", list[0].Name)
}

func TestDiscoverSkillsRecordsAgent(t *testing.T) {
	project := t.TempDir()
	t.Setenv("HOME", t.TempDir())

	writeSkill(t, filepath.Join(project, ".cursor", "skills"), "lint", `---
name: lint
description: Lint the project
---
`)

	discovery, err := NewDiscovery(WithProjectDirs(project))
	require.NoError(t, err)

	skill, err := discovery.GetSkill("lint")
	require.NoError(t, err)
	assert.Equal(t, "cursor", skill.Agent)
}

func TestDiscoverSkillsSymlinks(t *testing.T) {
	tmpDir := t.TempDir()
	skillsDir := filepath.Join(tmpDir, "skills")
	require.NoError(t, os.MkdirAll(skillsDir, 0o755))

	actual := writeSkill(t, filepath.Join(tmpDir, "actual"), "linked", `---
name: linked-skill
description: A skill accessed via symlink
---
`)
	linkPath := filepath.Join(skillsDir, "linked")
	require.NoError(t, os.Symlink(actual, linkPath))

	targetFile := filepath.Join(tmpDir, "file.txt")
	require.NoError(t, os.WriteFile(targetFile, []byte("just a file"), 0o644))
	require.NoError(t, os.Symlink(targetFile, filepath.Join(skillsDir, "file-link")))
	require.NoError(t, os.Symlink("/non/existent/path", filepath.Join(skillsDir, "broken-link")))

	discovery, err := NewDiscovery(WithSkillDirs(skillsDir))
	require.NoError(t, err)

	skills := discovery.DiscoverSkills()
	require.Len(t, skills, 1)
	assert.Equal(t, linkPath, skills["linked-skill"].Directory)
}

func TestDiscoveryPrecedence(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	writeSkill(t, first, "shared", "---\nname: shared\ndescription: From first directory\n---\n")
	writeSkill(t, second, "shared", "---\nname: shared\ndescription: From second directory\n---\n")

	discovery, err := NewDiscovery(WithSkillDirs(first, second))
	require.NoError(t, err)

	skills := discovery.DiscoverSkills()
	require.Len(t, skills, 1)
	assert.Equal(t, "From first directory", skills["shared"].Description)
}

func TestSkillValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "---\ndescription: Missing name\n---\n\nContent.\n"},
		{"missing description", "---\nname: no-desc\n---\n\nContent.\n"},
		{"no frontmatter", "# Just content\nNo frontmatter here.\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSkill(t, dir, "skill", tt.content)

			discovery, err := NewDiscovery(WithSkillDirs(dir))
			require.NoError(t, err)
			assert.Empty(t, discovery.DiscoverSkills())
		})
	}
}

func TestFilterByAllowlist(t *testing.T) {
	skills := map[string]*Skill{
		"skill-a": {Name: "skill-a"},
		"skill-b": {Name: "skill-b"},
		"skill-c": {Name: "skill-c"},
	}

	assert.Len(t, FilterByAllowlist(skills, nil), 3)

	result := FilterByAllowlist(skills, []string{"skill-a", "skill-c", "unknown"})
	assert.Len(t, result, 2)
	assert.Contains(t, result, "skill-a")
	assert.Contains(t, result, "skill-c")
}

func TestGetSkillNotFound(t *testing.T) {
	discovery, err := NewDiscovery(WithSkillDirs("/non/existent/path"))
	require.NoError(t, err)

	assert.Empty(t, discovery.DiscoverSkills())
	_, err = discovery.GetSkill("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
