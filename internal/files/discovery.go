package files

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	ignore "github.com/sabhiram/go-gitignore"
)

// alwaysIgnored is the depsplit working directory, never part of a snapshot.
const alwaysIgnored = ".depsplit"

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern    string
	glob       glob.Glob
	simplified glob.Glob // pattern without a leading **/, nil if none
}

// Discovery finds project files with include and exclude glob patterns.
type Discovery struct {
	rootDir         string
	includePatterns []compiledPattern
	excludePatterns []compiledPattern
	gitignore       *ignore.GitIgnore
}

// NewDiscovery compiles the patterns for rootDir.
func NewDiscovery(rootDir string, include, exclude []string) (*Discovery, error) {
	d := &Discovery{rootDir: rootDir}

	var err error
	if d.includePatterns, err = compilePatterns(include); err != nil {
		return nil, err
	}
	if d.excludePatterns, err = compilePatterns(exclude); err != nil {
		return nil, err
	}
	return d, nil
}

// UseGitignore makes discovery skip paths matched by the root .gitignore.
// A missing .gitignore is not an error.
func (d *Discovery) UseGitignore() error {
	path := filepath.Join(d.rootDir, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return err
	}
	d.gitignore = gi
	return nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		cp := compiledPattern{pattern: pattern, glob: g}
		if strings.HasPrefix(pattern, "**/") {
			if s, err := glob.Compile(strings.TrimPrefix(pattern, "**/"), '/'); err == nil {
				cp.simplified = s
			}
		}
		compiled = append(compiled, cp)
	}
	return compiled, nil
}

// Discover walks the root and returns matching files as sorted,
// slash-separated paths relative to the root.
func (d *Discovery) Discover() ([]string, error) {
	paths := []string{}

	err := filepath.WalkDir(d.rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if entry.IsDir() {
			if d.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.shouldIgnore(relPath) {
			return nil
		}
		if matchesAnyPattern(relPath, d.includePatterns) {
			paths = append(paths, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// shouldIgnore checks if a path matches any exclude pattern.
func (d *Discovery) shouldIgnore(relPath string) bool {
	if relPath == alwaysIgnored || strings.HasPrefix(relPath, alwaysIgnored+"/") {
		return true
	}

	if matchesAnyPattern(relPath, d.excludePatterns) {
		return true
	}

	if d.gitignore != nil && d.gitignore.MatchesPath(relPath) {
		return true
	}

	// A directory "venv" matches the pattern "venv/**"
	return matchesAnyPattern(relPath+"/**", d.excludePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
// Patterns starting with **/ also match at the root, so "**/*.py" covers
// both "main.py" and "pkg/mod.py".
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
		if cp.simplified != nil && cp.simplified.Match(path) {
			return true
		}
	}
	return false
}
