package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Collection limits for API submission.
const (
	MaxFiles     = 50
	MaxFileSize  = 50 * 1024  // per file
	MaxTotalSize = 500 * 1024 // whole payload
)

var codeExtensions = map[string]bool{
	".py": true, ".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".mjs": true, ".cjs": true, ".go": true, ".java": true, ".rs": true,
	".rb": true, ".php": true, ".kt": true, ".kts": true, ".swift": true,
	".scala": true, ".cs": true, ".cpp": true, ".c": true, ".h": true,
	".hpp": true, ".lua": true, ".ex": true, ".exs": true, ".clj": true,
	".zig": true, ".nim": true, ".r": true, ".yaml": true, ".yml": true,
	".toml": true, ".json": true, ".jsonc": true,
}

var ignoredDirs = map[string]bool{
	"node_modules": true, ".git": true, "__pycache__": true, "dist": true,
	"build": true, ".next": true, ".nuxt": true, ".venv": true,
	"venv": true, "env": true, ".env": true, ".tox": true,
	".mypy_cache": true, ".pytest_cache": true, ".ruff_cache": true,
	"target": true, "out": true, "bin": true, ".gradle": true,
	".idea": true, ".vscode": true, "vendor": true, "coverage": true,
	".turbo": true, ".cache": true,
}

var ignoredFiles = map[string]bool{
	".env": true, ".env.local": true, ".env.production": true,
	".env.development": true, "credentials.json": true,
	"secrets.yaml": true, "secrets.json": true,
	".DS_Store": true, "Thumbs.db": true,
}

// CollectFiles gathers code files under target (a file or a directory),
// skipping dependency/build directories and secret-bearing files, and
// stopping once the file-count or payload-size limits are hit.
// Unreadable entries are skipped silently; an empty result is an error.
func CollectFiles(target string) ([]File, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, fmt.Errorf("path not found: %s", target)
	}

	var files []File

	if !info.IsDir() {
		if info.Size() > MaxFileSize {
			return nil, fmt.Errorf("file too large: %s (%d bytes, max %d)", target, info.Size(), MaxFileSize)
		}
		content, err := os.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", target, err)
		}
		return []File{{Path: target, Content: string(content)}}, nil
	}

	totalSize := int64(0)
	err = filepath.WalkDir(target, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			if path != target && shouldIgnoreDir(entry.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(files) >= MaxFiles || totalSize >= MaxTotalSize {
			return filepath.SkipAll
		}
		name := entry.Name()
		if ignoredFiles[name] || !codeExtensions[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		fi, err := entry.Info()
		if err != nil || fi.Size() > MaxFileSize || totalSize+fi.Size() > MaxTotalSize {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(target, path)
		if err != nil {
			rel = path
		}
		files = append(files, File{Path: rel, Content: string(content)})
		totalSize += fi.Size()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", target, err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no code files found in: %s", target)
	}
	return files, nil
}

func shouldIgnoreDir(name string) bool {
	return ignoredDirs[name] || strings.HasPrefix(name, ".")
}

// EstimateTokens counts cl100k_base tokens across the payload, giving a
// rough sense of analysis cost before submission. Returns 0 when the
// encoding is unavailable (offline without a cached BPE file).
func EstimateTokens(files []File) int {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return 0
	}
	total := 0
	for _, f := range files {
		total += len(enc.Encode(f.Content, nil, nil))
	}
	return total
}
