package analysis

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var readmeNames = []string{"README.md", "README.txt", "README.rst", "readme.md", "Readme.md", "README"}

var packageFiles = []string{
	"package.json", "requirements.txt", "Cargo.toml", "go.mod",
	"pom.xml", "build.gradle", "setup.py", "pyproject.toml",
	"composer.json", "Gemfile", "mix.exs",
}

var configFiles = []string{
	".gitignore", "LICENSE", "CONTRIBUTING.md", "CHANGELOG.md",
	"docker-compose.yml", "Dockerfile", "Makefile", ".env.example",
}

var codeExtensions = map[string]struct{}{
	".py": {}, ".js": {}, ".ts": {}, ".java": {}, ".cpp": {}, ".c": {},
	".go": {}, ".rs": {}, ".php": {}, ".rb": {}, ".swift": {}, ".kt": {},
}

var skipDirs = map[string]struct{}{
	"node_modules": {}, "__pycache__": {}, "venv": {}, "env": {},
	"dist": {}, "build": {}, "target": {}, "vendor": {},
	".git": {}, ".github": {}, ".vscode": {},
}

const (
	readmeContentLimit = 4000
	configContentLimit = 1000
)

// buildCorpus walks the extracted repository and assembles a text corpus of
// the README, package manifests, a bounded sample of code files, and common
// config files.
func buildCorpus(repoPath string, maxCodeFiles, maxContentBytes int) string {
	var sections []string

	for _, name := range readmeNames {
		if content, ok := readLimited(filepath.Join(repoPath, name), readmeContentLimit); ok {
			sections = append(sections, fmt.Sprintf("=== README Content (%s) ===\n%s\n", name, content))
			break
		}
	}

	for _, name := range packageFiles {
		if content, ok := readLimited(filepath.Join(repoPath, name), maxContentBytes); ok {
			sections = append(sections, fmt.Sprintf("=== Package File (%s) ===\n%s\n", name, content))
		}
	}

	count := 0
	_ = filepath.WalkDir(repoPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if entry.IsDir() {
			name := entry.Name()
			if strings.HasPrefix(name, ".") && path != repoPath {
				return fs.SkipDir
			}
			if _, skip := skipDirs[name]; skip {
				return fs.SkipDir
			}
			return nil
		}
		if count >= maxCodeFiles {
			return fs.SkipAll
		}
		if !isCodeFile(entry.Name()) {
			return nil
		}
		if content, ok := readLimited(path, maxContentBytes); ok {
			rel, relErr := filepath.Rel(repoPath, path)
			if relErr != nil {
				rel = entry.Name()
			}
			sections = append(sections, fmt.Sprintf("=== File: %s ===\n%s\n", rel, content))
			count++
		}
		return nil
	})

	for _, name := range configFiles {
		if content, ok := readLimited(filepath.Join(repoPath, name), configContentLimit); ok {
			sections = append(sections, fmt.Sprintf("=== Config: %s ===\n%s\n", name, content))
		}
	}

	return strings.Join(sections, "\n")
}

func isCodeFile(name string) bool {
	switch name {
	case "Dockerfile", "docker-compose.yml", "Makefile":
		return true
	}
	_, ok := codeExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

func readLimited(path string, limit int) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	if len(data) > limit {
		data = data[:limit]
	}
	return string(data), true
}
