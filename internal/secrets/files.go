package secrets

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
)

// SealedSuffix is appended to a file's name when it is sealed into an envelope.
const SealedSuffix = ".sealed"

// SealedPath returns where the envelope for path is written.
func SealedPath(path string) string {
	return path + SealedSuffix
}

// UnsealedPath returns where the plaintext for a sealed file is restored.
func UnsealedPath(sealedPath string) string {
	return strings.TrimSuffix(sealedPath, SealedSuffix)
}

// ResolveFiles takes user-provided paths, directories or globs and returns
// matching files. forSealing=true finds plaintext files, forSealing=false
// finds *.sealed files. Relative patterns are taken from baseDir.
func ResolveFiles(patterns []string, baseDir string, forSealing bool) ([]string, error) {
	if len(patterns) == 0 {
		return nil, kerrors.Newf(kerrors.ErrInvalidArgument, "no files given")
	}

	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		resolved, err := resolvePattern(pattern, baseDir, forSealing)
		if err != nil {
			return nil, err
		}

		for _, f := range resolved {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	if len(files) == 0 {
		return nil, kerrors.Newf(kerrors.ErrFileAccess, "no matching files found")
	}

	return files, nil
}

func resolvePattern(pattern string, baseDir string, forSealing bool) ([]string, error) {
	absPattern := pattern
	if !filepath.IsAbs(pattern) {
		absPattern = filepath.Join(baseDir, pattern)
	}

	info, err := os.Stat(absPattern)
	if err == nil && info.IsDir() {
		files, err := findFilesInDir(absPattern, forSealing)
		if err != nil {
			return nil, kerrors.New(kerrors.ErrFileAccess, err)
		}
		return files, nil
	}

	if strings.ContainsAny(pattern, "*?[{") {
		return expandGlob(absPattern, pattern, forSealing)
	}

	if err != nil {
		if os.IsNotExist(err) {
			return nil, kerrors.Newf(kerrors.ErrFileAccess, "file not found: %s", pattern)
		}
		return nil, kerrors.New(kerrors.ErrFileAccess, err)
	}

	if forSealing && isSealedFile(absPattern) {
		return nil, kerrors.Newf(kerrors.ErrInvalidArgument, "file is already sealed: %s", pattern)
	}
	if !forSealing && !isSealedFile(absPattern) {
		return nil, kerrors.Newf(kerrors.ErrInvalidArgument, "file is not a %s file: %s", SealedSuffix, pattern)
	}

	return []string{absPattern}, nil
}

func expandGlob(absPattern, pattern string, forSealing bool) ([]string, error) {
	matches, err := doublestar.FilepathGlob(absPattern)
	if err != nil {
		return nil, kerrors.Newf(kerrors.ErrInvalidArgument, "invalid glob pattern %q: %v", pattern, err)
	}

	var filtered []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if isSealedFile(m) != forSealing {
			filtered = append(filtered, m)
		}
	}

	return filtered, nil
}

func findFilesInDir(dir string, forSealing bool) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip irregular files.
		if !d.Type().IsRegular() {
			return nil
		}

		if isSealedFile(path) != forSealing {
			files = append(files, path)
		}
		return nil
	})

	return files, err
}

func isSealedFile(path string) bool {
	return strings.HasSuffix(filepath.Base(path), SealedSuffix)
}
