// Package schema supports the two incompatible archive layouts: the current
// nested layout written by package store, and the legacy flat layout of older
// producers (tracks keyed directly on the pattern group in hyp_scores/
// input_seqs style, a single metacluster-index array, no merge hierarchy).
//
// Upgrade and Downgrade translate archive-to-archive through the shared
// in-memory model; the model itself never branches on schema version. Pattern
// content (tracks, seqlets) is preserved exactly in both directions; only
// structural bookkeeping is synthesized (upgrade) or dropped (downgrade).
// Downgrade is explicitly lossy: it completes the conversion and then reports
// what was dropped through a LossyConversionError.
package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/seqlab/modisco/archive"
	"github.com/seqlab/modisco/store"
)

// ErrLossyConversion marks a completed downgrade that dropped information.
var ErrLossyConversion = errors.New("schema: lossy conversion")

// LossyConversionError lists the fields a downgrade dropped. The target
// archive is fully written when this error is returned; callers decide
// whether to keep it.
type LossyConversionError struct {
	Dropped []string
}

func (e *LossyConversionError) Error() string {
	return fmt.Sprintf("schema: lossy conversion dropped: %s", strings.Join(e.Dropped, ", "))
}

func (e *LossyConversionError) Unwrap() error { return ErrLossyConversion }

// Version identifies an archive layout.
type Version int

const (
	VersionUnknown Version = iota
	VersionLegacy
	VersionCurrent
)

func (v Version) String() string {
	switch v {
	case VersionLegacy:
		return "legacy"
	case VersionCurrent:
		return "current"
	default:
		return "unknown"
	}
}

// Detect classifies an archive by layout. The current layout is marked by the
// metaclusters group; the legacy layout by its flat top-level seqlets
// dataset. An archive matching neither fails with a schema mismatch.
func Detect(g *archive.Group) (Version, error) {
	if g.HasGroup(groupMetaclusters) {
		return VersionCurrent, nil
	}
	if g.HasDataset(legacySeqlets) {
		return VersionLegacy, nil
	}
	return VersionUnknown, fmt.Errorf("%w: archive matches neither current nor legacy layout", store.ErrSchemaMismatch)
}

// Upgrade reads a legacy archive and writes the current layout. Missing
// structure is synthesized: every final pattern becomes a childless root of a
// trivial merge hierarchy, and fields the legacy layout never carried
// (rounds, remaining patterns, cluster indices) come out empty.
func Upgrade(src, dst *archive.Group) error {
	r, err := ReadLegacy(src)
	if err != nil {
		return fmt.Errorf("schema: read legacy: %w", err)
	}
	if err := store.SaveResult(dst, r); err != nil {
		return fmt.Errorf("schema: write current: %w", err)
	}
	return nil
}

// Downgrade reads a current archive and writes the legacy layout, flattening
// the merge hierarchy to the final pattern list. The conversion always
// completes; when information representable only in the current layout was
// present, Downgrade returns a LossyConversionError naming the dropped
// fields.
func Downgrade(src, dst *archive.Group) error {
	r, err := store.LoadResult(src)
	if err != nil {
		return fmt.Errorf("schema: read current: %w", err)
	}
	dropped, err := WriteLegacy(dst, r)
	if err != nil {
		return fmt.Errorf("schema: write legacy: %w", err)
	}
	if len(dropped) > 0 {
		return &LossyConversionError{Dropped: dropped}
	}
	return nil
}

// groupMetaclusters is the current-layout marker group, as written by
// store.SaveResult.
const groupMetaclusters = "metaclusters"
