package secrets

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	kerrors "github.com/PolarWolf314/keyward/internal/errors"
	logger "github.com/PolarWolf314/keyward/internal/logging"
)

func tempSibling(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
}

// ReplaceFiles moves temps[i] onto targets[i] for every i, all or nothing.
//
// Every target must be missing or a regular file. Targets that already exist
// are moved aside first and only deleted once the last rename succeeded. On
// failure the files already moved in are removed, the displaced originals are
// restored, and all remaining temporaries are deleted.
func ReplaceFiles(temps, targets []string) error {
	if len(temps) != len(targets) {
		return kerrors.Newf(kerrors.ErrInvalidArgument, "got %d temporary files for %d targets", len(temps), len(targets))
	}

	for _, target := range targets {
		info, err := os.Lstat(target)
		switch {
		case err == nil && !info.Mode().IsRegular():
			removeFiles(temps)
			return kerrors.Newf(kerrors.ErrFileAccess, "cannot replace %s: not a regular file", target)
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			removeFiles(temps)
			return kerrors.New(kerrors.ErrFileAccess, err)
		}
	}

	backups := make([]string, len(targets))
	committed := 0
	rollback := func() {
		for i := committed - 1; i >= 0; i-- {
			_ = os.Remove(targets[i])
			restore(backups[i], targets[i])
		}
		removeFiles(temps[committed:])
	}

	for i, target := range targets {
		if _, err := os.Lstat(target); err == nil {
			backup := tempSibling(target)
			if err := os.Rename(target, backup); err != nil {
				rollback()
				return kerrors.New(kerrors.ErrFileAccess, err)
			}
			backups[i] = backup
		}

		if err := os.Rename(temps[i], target); err != nil {
			restore(backups[i], target)
			rollback()
			return kerrors.New(kerrors.ErrFileAccess, err)
		}
		committed++
	}

	removeFiles(backups)
	return nil
}

func restore(backup, target string) {
	if backup == "" {
		return
	}
	if err := os.Rename(backup, target); err != nil {
		logger.L().Warnf("Failed to restore %s from %s: %v", target, backup, err)
	}
}

func removeFiles(paths []string) {
	for _, p := range paths {
		if p != "" {
			_ = os.Remove(p)
		}
	}
}
