package modisco

import (
	"errors"
	"fmt"

	"github.com/seqlab/modisco/coord"
	"github.com/seqlab/modisco/schema"
	"github.com/seqlab/modisco/store"
)

// The five error kinds a caller can receive from Save, Load, Upgrade and
// Downgrade. Use errors.Is against these sentinels; the underlying package
// errors (with their detail fields) remain reachable via errors.As.
var (
	// ErrMalformedCoordinate: a seqlet token fails the canonical grammar.
	ErrMalformedCoordinate = coord.ErrMalformedCoordinate

	// ErrMissingTrack: forward data for a required numeric track is absent.
	ErrMissingTrack = store.ErrMissingTrack

	// ErrSchemaMismatch: a required group is absent, usually a legacy
	// archive given to a current-layout load or vice versa.
	ErrSchemaMismatch = store.ErrSchemaMismatch

	// ErrLossyConversion: a downgrade completed but dropped information.
	ErrLossyConversion = schema.ErrLossyConversion

	// ErrIOFailure: the underlying storage is unreachable, truncated or
	// corrupt.
	ErrIOFailure = errors.New("io failure")
)

// translateError folds backend errors into the IO-failure class while
// leaving the structural error kinds untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrMalformedCoordinate) ||
		errors.Is(err, ErrMissingTrack) ||
		errors.Is(err, ErrSchemaMismatch) ||
		errors.Is(err, ErrLossyConversion) {
		return err
	}
	// Everything else (archive.ErrCorrupt, archive.ErrNotExist, raw fs
	// errors) is an IO-class failure.
	return fmt.Errorf("%w: %w", ErrIOFailure, err)
}
