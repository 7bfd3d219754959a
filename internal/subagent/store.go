package subagent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/flynn-ai/jarvis/internal/errors"
)

// ErrNotFound means a specialist has no skill content.
var ErrNotFound = errors.New(errors.CodeSkillNotFound, "skill content not found", errors.CategoryPermanent)

// ContentStore looks up a specialist's skill text.
type ContentStore interface {
	Load(ctx context.Context, s Specialist) (string, error)
}

// FileStore reads skills from disk. Lookup order:
//
//	<skills>/<prompt_ref>/SKILL.md
//	<skills>/<id>/SKILL.md
//	<skills>/<id>-*/SKILL.md   (only when prompt_ref is unset)
//	<legacy>/<id>.md
type FileStore struct {
	SkillsDir string
	LegacyDir string
}

// NewFileStore creates a store over the given directories.
func NewFileStore(skillsDir, legacyDir string) *FileStore {
	return &FileStore{SkillsDir: skillsDir, LegacyDir: legacyDir}
}

// Load returns the first non-empty skill file for sp.
func (s *FileStore) Load(ctx context.Context, sp Specialist) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	for _, path := range s.candidates(sp) {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", errors.NewBuilder(errors.CodeSkillReadFailed, "failed to read skill").
				System().
				Wrap(err).
				WithContext("path", path).
				Build()
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		return string(data), nil
	}
	return "", fmt.Errorf("specialist %q: %w", sp.ID, ErrNotFound)
}

// Path returns the first existing file Load would consider for sp, or ""
// if none exists.
func (s *FileStore) Path(sp Specialist) string {
	for _, path := range s.candidates(sp) {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func (s *FileStore) candidates(sp Specialist) []string {
	id := cleanName(sp.ID)
	if id == "" {
		return nil
	}
	ref := cleanName(sp.PromptRef)

	var out []string
	if s.SkillsDir != "" {
		if ref != "" {
			out = append(out, filepath.Join(s.SkillsDir, ref, "SKILL.md"))
		}
		out = append(out, filepath.Join(s.SkillsDir, id, "SKILL.md"))
		if ref == "" {
			matches, _ := filepath.Glob(filepath.Join(s.SkillsDir, id+"-*", "SKILL.md"))
			sort.Strings(matches)
			out = append(out, matches...)
		}
	}
	if s.LegacyDir != "" {
		out = append(out, filepath.Join(s.LegacyDir, id+".md"))
	}
	return out
}

// cleanName reduces a locator to a single path element.
func cleanName(name string) string {
	name = filepath.Base(strings.ToLower(strings.TrimSpace(name)))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
