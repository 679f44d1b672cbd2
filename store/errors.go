package store

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTrack is returned when forward data for a required numeric
	// track is absent on load.
	ErrMissingTrack = errors.New("store: required track missing")

	// ErrSchemaMismatch is returned when a required group or dataset is
	// absent, typically because the archive carries the legacy layout.
	ErrSchemaMismatch = errors.New("store: schema mismatch")
)

// MissingTrackError names the absent track.
type MissingTrackError struct {
	Track string
}

func (e *MissingTrackError) Error() string {
	return fmt.Sprintf("store: required track %q missing", e.Track)
}

func (e *MissingTrackError) Unwrap() error { return ErrMissingTrack }

// SchemaMismatchError names the absent required entry.
type SchemaMismatchError struct {
	Entry string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("store: required entry %q missing", e.Entry)
}

func (e *SchemaMismatchError) Unwrap() error { return ErrSchemaMismatch }
