package store

import (
	"errors"
	"fmt"

	"github.com/seqlab/modisco/archive"
	"github.com/seqlab/modisco/coord"
	"github.com/seqlab/modisco/model"
)

// Archive entry names of a pattern group.
const (
	trackSequence             = "sequence"
	trackContribScores        = "contrib_scores"
	trackHypotheticalContribs = "hypothetical_contribs"

	datasetFwd        = "fwd"
	datasetRev        = "rev"
	datasetSeqlets    = "seqlets"
	datasetAlignments = "alignments"
	datasetNames      = "names"

	groupSubclusters     = "subclusters"
	datasetSubclusterIDs = "ids"
)

func patternName(i int) string    { return fmt.Sprintf("pattern_%d", i) }
func subclusterName(id int) string { return fmt.Sprintf("subcluster_%d", id) }

// SavePattern writes one pattern as a self-contained group: each track as a
// forward/reverse-complement dataset pair, the seqlet token list, one
// alignment value per seqlet, and subclusters recursively with an explicit id
// list. The pattern is not mutated.
func SavePattern(g *archive.Group, p *model.Pattern) error {
	tracks := []struct {
		name string
		fwd  [][]float64
	}{
		{trackSequence, p.Sequence},
		{trackContribScores, p.ContribScores},
		{trackHypotheticalContribs, p.HypotheticalContribs},
	}
	for _, track := range tracks {
		tg, err := g.Group(track.name)
		if err != nil {
			return err
		}
		if err := tg.PutMatrix(datasetFwd, track.fwd); err != nil {
			return err
		}
		if err := tg.PutMatrix(datasetRev, model.ReverseComplementMatrix(track.fwd)); err != nil {
			return err
		}
	}

	if err := g.PutStrings(datasetSeqlets, coord.EncodeAll(p.Seqlets)); err != nil {
		return err
	}

	alignments := p.Alignments
	if alignments == nil {
		alignments = make([]float64, len(p.Seqlets))
	}
	if err := g.PutFloats(datasetAlignments, alignments); err != nil {
		return err
	}

	if p.Subclusters != nil {
		sg, err := g.Group(groupSubclusters)
		if err != nil {
			return err
		}
		ids := p.SubclusterIDs()
		if err := sg.PutInts(datasetSubclusterIDs, ids); err != nil {
			return err
		}
		for _, id := range ids {
			cg, err := sg.Group(subclusterName(id))
			if err != nil {
				return err
			}
			if err := SavePattern(cg, p.Subclusters[id]); err != nil {
				return fmt.Errorf("subcluster %d: %w", id, err)
			}
		}
	}
	return nil
}

// LoadPattern is the inverse of SavePattern. Only forward tracks are read;
// reverse-complement orientation is always re-derived by the caller via
// Pattern.ReverseComplement, never trusted from storage. Absent forward data
// for any required track fails with a MissingTrackError.
func LoadPattern(g *archive.Group) (*model.Pattern, error) {
	p := &model.Pattern{}

	tracks := []struct {
		name string
		dst  *[][]float64
	}{
		{trackSequence, &p.Sequence},
		{trackContribScores, &p.ContribScores},
		{trackHypotheticalContribs, &p.HypotheticalContribs},
	}
	for _, track := range tracks {
		tg, err := g.OpenGroup(track.name)
		if err != nil {
			if errors.Is(err, archive.ErrNotExist) {
				return nil, &MissingTrackError{Track: track.name}
			}
			return nil, err
		}
		fwd, err := tg.Matrix(datasetFwd)
		if err != nil {
			if errors.Is(err, archive.ErrNotExist) {
				return nil, &MissingTrackError{Track: track.name + "/" + datasetFwd}
			}
			return nil, err
		}
		*track.dst = fwd
	}

	tokens, err := g.Strings(datasetSeqlets)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &SchemaMismatchError{Entry: datasetSeqlets}
		}
		return nil, err
	}
	if p.Seqlets, err = coord.DecodeAll(tokens); err != nil {
		return nil, err
	}

	if g.HasDataset(datasetAlignments) {
		if p.Alignments, err = g.Floats(datasetAlignments); err != nil {
			return nil, err
		}
	} else {
		p.Alignments = make([]float64, len(p.Seqlets))
	}

	if g.HasGroup(groupSubclusters) {
		sg, err := g.OpenGroup(groupSubclusters)
		if err != nil {
			return nil, err
		}
		ids, err := sg.Ints(datasetSubclusterIDs)
		if err != nil {
			if errors.Is(err, archive.ErrNotExist) {
				return nil, &SchemaMismatchError{Entry: groupSubclusters + "/" + datasetSubclusterIDs}
			}
			return nil, err
		}
		p.Subclusters = make(map[int]*model.Pattern, len(ids))
		for _, id := range ids {
			cg, err := sg.OpenGroup(subclusterName(id))
			if err != nil {
				if errors.Is(err, archive.ErrNotExist) {
					return nil, &SchemaMismatchError{Entry: groupSubclusters + "/" + subclusterName(id)}
				}
				return nil, err
			}
			sub, err := LoadPattern(cg)
			if err != nil {
				return nil, fmt.Errorf("subcluster %d: %w", id, err)
			}
			p.Subclusters[id] = sub
		}
	}
	return p, nil
}

// SavePatterns writes an ordered pattern sequence under deterministically
// named child groups plus an explicit ordered name list, so order is
// recoverable independent of the archive's enumeration order.
func SavePatterns(g *archive.Group, patterns []*model.Pattern) error {
	names := make([]string, len(patterns))
	for i := range patterns {
		names[i] = patternName(i)
	}
	if err := g.PutStrings(datasetNames, names); err != nil {
		return err
	}
	for i, p := range patterns {
		pg, err := g.Group(names[i])
		if err != nil {
			return err
		}
		if err := SavePattern(pg, p); err != nil {
			return fmt.Errorf("%s: %w", names[i], err)
		}
	}
	return nil
}

// LoadPatterns is the inverse of SavePatterns.
func LoadPatterns(g *archive.Group) ([]*model.Pattern, error) {
	names, err := g.Strings(datasetNames)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &SchemaMismatchError{Entry: datasetNames}
		}
		return nil, err
	}
	patterns := make([]*model.Pattern, len(names))
	for i, name := range names {
		pg, err := g.OpenGroup(name)
		if err != nil {
			if errors.Is(err, archive.ErrNotExist) {
				return nil, &SchemaMismatchError{Entry: name}
			}
			return nil, err
		}
		if patterns[i], err = LoadPattern(pg); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	return patterns, nil
}
