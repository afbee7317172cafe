package rotatonator

import (
	"errors"

	"github.com/rotatonator/rotatonator-go/internal/logfinder"
	"github.com/rotatonator/rotatonator-go/internal/position"
)

// Sentinel errors returned by this package.
var (
	// ErrInvalidRoster is returned when a roster or roster replacement
	// cannot drive a chain (no healers, non-positive interval, empty prefix).
	ErrInvalidRoster = errors.New("invalid roster")

	// ErrClosed is returned by operations on a closed engine or session.
	ErrClosed = errors.New("closed")

	// ErrAlreadyWatching is returned when Watch is called twice on a session.
	ErrAlreadyWatching = errors.New("session already watching")

	// ErrLogFileNotFound is returned when the chat log to follow does not exist.
	ErrLogFileNotFound = errors.New("log file not found")

	// ErrIngestFailed is delivered on a session's error channel when the
	// followed log becomes unreadable. The session stops after reporting it.
	ErrIngestFailed = errors.New("log ingestion failed")

	// ErrSlotOutOfRange is returned when encoding a slot outside 1..35.
	ErrSlotOutOfRange = position.ErrSlotOutOfRange

	// ErrLogDirNotFound is returned when the EverQuest log directory
	// cannot be found or accessed.
	ErrLogDirNotFound = logfinder.ErrLogDirNotFound

	// ErrNoLogFiles is returned when no eqlog files are found
	// in the specified directory.
	ErrNoLogFiles = logfinder.ErrNoLogFiles
)
