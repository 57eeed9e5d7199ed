// Package walk produces the deterministic, finite file sequence that
// feeds both the language layer and the index builder: a filesystem
// traversal honoring .gitignore rules, hidden-file conventions,
// include/exclude globs, and an optional language filter (spec §4.3).
package walk

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"symgrep/internal/errors"
	"symgrep/internal/language"
)

// Options configures one walk.
type Options struct {
	Roots     []string
	Includes  []string // glob patterns; a file must match at least one if non-empty
	Excludes  []string // glob patterns; a file matching any is skipped
	Language  string   // logical language id; empty means "any resolvable language"
}

// File is one entry in the walk's result sequence.
type File struct {
	Path       string
	LanguageID string
}

// Walk returns every regular file under opts.Roots whose extension
// resolves to a known language backend, in a deterministic
// (lexicographic, root-then-path) order, filtered by .gitignore rules,
// hidden-directory conventions, opts.Includes/Excludes, and language.
// Parallelism, if introduced later for I/O-bound stats, must not change
// this ordering (spec §4.3).
func Walk(registry *language.Registry, opts Options) ([]File, error) {
	paths, err := WalkAll(opts)
	if err != nil {
		return nil, err
	}

	var results []File
	for _, path := range paths {
		backend, ok := resolveBackend(registry, opts.Language, path)
		if !ok {
			continue
		}
		results = append(results, File{Path: path, LanguageID: backend})
	}
	return results, nil
}

// WalkAll returns every regular file under opts.Roots in deterministic
// order, honoring .gitignore, hidden/VCS directories, and
// opts.Includes/Excludes, without any language filtering. Used by text
// mode search, which scans every file regardless of whether any
// language backend recognizes it. Each returned path is the
// caller-supplied root joined with the file's path relative to that
// root, so a root given as "." yields "a.txt", not an absolutized
// path — matching spec.md's path convention (relative to search root).
func WalkAll(opts Options) ([]string, error) {
	var includeSet, excludeSet globSet
	var err error
	if includeSet, err = newGlobSet(opts.Includes); err != nil {
		return nil, err
	}
	if excludeSet, err = newGlobSet(opts.Excludes); err != nil {
		return nil, err
	}

	var results []string
	for _, root := range opts.Roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, errors.NewIoError("could not resolve root path", err)
		}
		gi := loadGitignore(absRoot)

		walkErr := filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return errors.NewIoError("could not walk "+path, err)
			}
			rel, relErr := filepath.Rel(absRoot, path)
			if relErr != nil {
				rel = path
			}
			if info.IsDir() {
				if path != absRoot && isHiddenOrVCS(info.Name()) {
					return filepath.SkipDir
				}
				if gi != nil && rel != "." && gi.MatchesPath(rel) {
					return filepath.SkipDir
				}
				return nil
			}
			if isHiddenOrVCS(info.Name()) {
				return nil
			}
			if gi != nil && gi.MatchesPath(rel) {
				return nil
			}
			if !includeSet.emptyOrMatches(rel) {
				return nil
			}
			if excludeSet.matches(rel) {
				return nil
			}
			results = append(results, filepath.Join(root, rel))
			return nil
		})
		if walkErr != nil {
			return nil, errors.Wrap(walkErr)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	return results, nil
}

func resolveBackend(registry *language.Registry, wantLanguage, path string) (string, bool) {
	backend, ok := registry.ByPath(path)
	if !ok {
		return "", false
	}
	if wantLanguage != "" && !strings.EqualFold(backend.ID(), wantLanguage) {
		return "", false
	}
	return backend.ID(), true
}

func isHiddenOrVCS(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "node_modules", "vendor", "__pycache__", "target", "dist", "build":
		return true
	}
	return false
}

// loadGitignore compiles the repository's .gitignore, if present.
// Grounded on the teacher's loadGitignore (brian-lai-repo-search
// internal/daemon/daemon.go): local .gitignore only, no global
// ~/.gitignore — a search tool operating on an arbitrary root should
// not silently apply the operator's personal ignore rules.
func loadGitignore(root string) *ignore.GitIgnore {
	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if len(patterns) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(patterns...)
}
