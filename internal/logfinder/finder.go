// Package logfinder provides EverQuest log directory and file detection.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// EnvLogDir is the environment variable name for specifying log directory.
const EnvLogDir = "ROTATONATOR_LOGDIR"

// logPattern matches per-character chat logs: eqlog_<Character>_<server>.txt.
const logPattern = "eqlog_*.txt"

// Sentinel errors.
var (
	ErrLogDirNotFound = errors.New("log directory not found")
	ErrNoLogFiles     = errors.New("no log files found")
)

// DefaultLogDirs returns candidate EverQuest log directories in priority order.
func DefaultLogDirs() []string {
	return []string{
		`C:\Program Files (x86)\Sony\EverQuest\Logs`,
		`C:\Program Files\Sony\EverQuest\Logs`,
		`C:\EverQuest\Logs`,
		`C:\Games\EverQuest\Logs`,
		`C:\Users\Public\Daybreak Game Company\Installed Games\EverQuest\Logs`,
	}
}

// FindLogDir returns the EverQuest log directory.
//
// Priority:
//  1. explicit (if non-empty)
//  2. ROTATONATOR_LOGDIR environment variable
//  3. Auto-detect from DefaultLogDirs()
//
// Returns ErrLogDirNotFound if no valid directory is found.
// The returned path has symlinks resolved for consistency.
func FindLogDir(explicit string) (string, error) {
	if explicit != "" {
		if resolved := resolveAndValidateLogDir(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: specified directory is invalid or contains no log files", ErrLogDirNotFound)
	}

	if envDir := os.Getenv(EnvLogDir); envDir != "" {
		if resolved := resolveAndValidateLogDir(envDir); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to invalid directory", ErrLogDirNotFound, EnvLogDir)
	}

	for _, dir := range DefaultLogDirs() {
		if resolved := resolveAndValidateLogDir(dir); resolved != "" {
			return resolved, nil
		}
	}

	return "", ErrLogDirNotFound
}

// FindLatestLogFile returns the path to the most recently modified
// eqlog file in the given directory.
//
// Returns ErrNoLogFiles if no log files are found.
func FindLatestLogFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, logPattern))
	if err != nil {
		return "", fmt.Errorf("globbing log files: %w", err)
	}

	type candidate struct {
		path    string
		modTime int64
	}
	files := make([]candidate, 0, len(matches))
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, candidate{path: path, modTime: info.ModTime().UnixNano()})
	}
	if len(files) == 0 {
		return "", ErrNoLogFiles
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime > files[j].modTime
	})

	return files[0].path, nil
}

// CharacterName extracts the character from a log file name of the form
// eqlog_<Character>_<server>.txt. It returns "" for other names.
func CharacterName(logFile string) string {
	name := strings.TrimSuffix(filepath.Base(logFile), filepath.Ext(logFile))
	if len(name) < len("eqlog_") || !strings.EqualFold(name[:len("eqlog_")], "eqlog_") {
		return ""
	}
	parts := strings.Split(name[len("eqlog_"):], "_")
	return strings.TrimSpace(parts[0])
}

// resolveAndValidateLogDir resolves symlinks and validates the directory.
// Returns the resolved path if valid, empty string otherwise.
func resolveAndValidateLogDir(dir string) string {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ""
	}

	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		resolved = dir
	}

	matches, err := filepath.Glob(filepath.Join(resolved, logPattern))
	if err != nil || len(matches) == 0 {
		return ""
	}

	return resolved
}
