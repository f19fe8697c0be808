package main

import (
	"errors"
	"os"

	"firerisk/internal/catalog"
	"firerisk/internal/loader"
	"firerisk/internal/merge"
	"firerisk/internal/sink"
)

// Exit codes
const (
	ExitSuccess      = 0  // Merge and load completed
	ExitGeneralError = 1  // Unknown or unclassified error
	ExitUsageError   = 2  // CLI usage error (help, missing or odd arguments, bad flags)
	ExitPanic        = 3  // Internal panic
	ExitInputError   = 10 // Bad catalog, unknown source, unreadable or unjoinable input
	ExitStoreError   = 11 // Database connect or load failed; the CSV was written
)

var (
	errUsage  = errors.New("usage error")
	errConfig = errors.New("invalid configuration")
)

// exitCodeForError maps an error returned by Execute to a process exit code.
func exitCodeForError(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errUsage):
		return ExitUsageError
	case errors.Is(err, sink.ErrStore):
		return ExitStoreError
	case errors.Is(err, errConfig),
		errors.Is(err, catalog.ErrUnknownSource),
		errors.Is(err, catalog.ErrDuplicateColumn),
		errors.Is(err, merge.ErrNoInputs),
		errors.Is(err, merge.ErrMissingKey),
		errors.Is(err, merge.ErrColumnCollision),
		errors.Is(err, loader.ErrMalformedInput),
		errors.Is(err, os.ErrNotExist):
		return ExitInputError
	}
	return ExitGeneralError
}
