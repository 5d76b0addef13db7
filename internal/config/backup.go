package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
)

const (
	// MaxBackups is the number of backups kept per config file.
	MaxBackups = 3

	// BackupSuffix separates the config name from the backup timestamp.
	BackupSuffix = ".bak"
)

// backupClock is replaced in tests.
var backupClock = time.Now

// Backup copies path to "<path>.bak.<timestamp>" and prunes old backups.
// It returns "" when path doesn't exist.
func Backup(path string) (string, error) {
	if !fileExists(path) {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", lerrors.IOError("read config for backup", err).WithDetail("path", path)
	}

	backupPath := path + BackupSuffix + "." + backupClock().Format("20060102-150405")
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", lerrors.IOError("write config backup", err).WithDetail("path", backupPath)
	}

	// Pruning is best effort; the backup itself succeeded.
	_ = pruneBackups(path)
	return backupPath, nil
}

// ListBackups returns the backups of path, newest first.
func ListBackups(path string) ([]string, error) {
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, lerrors.IOError("list config directory", err).WithDetail("dir", dir)
	}

	prefix := filepath.Base(path) + BackupSuffix + "."
	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}

	// Timestamps sort lexically.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))
	return backups, nil
}

func pruneBackups(path string) error {
	backups, err := ListBackups(path)
	if err != nil {
		return err
	}
	if len(backups) <= MaxBackups {
		return nil
	}
	for _, old := range backups[MaxBackups:] {
		_ = os.Remove(old)
	}
	return nil
}

// Restore replaces path with the contents of backupPath, backing up the
// current file first.
func Restore(path, backupPath string) error {
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return lerrors.New(lerrors.ErrCodeFileNotFound, "read config backup", err).
			WithDetail("path", backupPath)
	}
	if _, err := Backup(path); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return lerrors.New(lerrors.ErrCodeDirCreate, "create config directory", err).
			WithDetail("dir", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return lerrors.IOError("write restored config", err).WithDetail("path", path)
	}
	return nil
}
