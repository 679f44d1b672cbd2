package schema

import (
	"errors"
	"fmt"

	"github.com/seqlab/modisco/archive"
	"github.com/seqlab/modisco/coord"
	"github.com/seqlab/modisco/model"
	"github.com/seqlab/modisco/store"
)

// Legacy layout entry names. Everything sits flat: metacluster groups at the
// top level, pattern groups directly inside them, and track matrices keyed
// directly on the pattern group.
const (
	legacyTaskNames          = "task_names"
	legacySeqlets            = "seqlets"
	legacyMetaclusterIndices = "metacluster_indices"
	legacyMetaclusterIDs     = "metacluster_ids"
	legacyTaskSeqletsPrefix  = "seqlets_"

	legacyMetaclusterSize = "metacluster_size"
	legacySuccess         = "success"
	legacyOtherConfig     = "other_config"
	legacyPatternNames    = "all_pattern_names"

	legacyInputSeqsFwd     = "input_seqs_fwd"
	legacyInputSeqsRev     = "input_seqs_rev"
	legacyContribScoresFwd = "contrib_scores_fwd"
	legacyContribScoresRev = "contrib_scores_rev"
	legacyHypScoresFwd     = "hyp_scores_fwd"
	legacyHypScoresRev     = "hyp_scores_rev"
)

func legacyMetaclusterName(id int) string { return fmt.Sprintf("metacluster_%d", id) }
func legacyPatternName(i int) string      { return fmt.Sprintf("pattern_%d", i) }

// ReadLegacy reconstructs a result from a legacy archive. Structure the
// legacy layout cannot express is synthesized: a trivial merge hierarchy with
// each final pattern as a childless root, nil rounds, empty remaining
// patterns and cluster indices.
func ReadLegacy(g *archive.Group) (*model.TopLevelResult, error) {
	r := &model.TopLevelResult{}

	var err error
	if r.TaskNames, err = legacyRequiredStrings(g, legacyTaskNames); err != nil {
		return nil, err
	}

	tokens, err := legacyRequiredStrings(g, legacySeqlets)
	if err != nil {
		return nil, err
	}
	if r.FinalSeqlets, err = coord.DecodeAll(tokens); err != nil {
		return nil, err
	}

	r.PerTaskSeqlets = make(map[string][]model.Seqlet, len(r.TaskNames))
	for _, task := range r.TaskNames {
		name := legacyTaskSeqletsPrefix + task
		if !g.HasDataset(name) {
			continue
		}
		tokens, err := g.Strings(name)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", task, err)
		}
		if r.PerTaskSeqlets[task], err = coord.DecodeAll(tokens); err != nil {
			return nil, fmt.Errorf("task %q: %w", task, err)
		}
	}

	if r.MetaclusterIndices, err = g.Ints(legacyMetaclusterIndices); err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &store.SchemaMismatchError{Entry: legacyMetaclusterIndices}
		}
		return nil, err
	}

	ids, err := g.Ints(legacyMetaclusterIDs)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &store.SchemaMismatchError{Entry: legacyMetaclusterIDs}
		}
		return nil, err
	}
	r.Metaclusters = make(map[int]*model.MetaclusterResult, len(ids))
	for _, id := range ids {
		mcg, err := g.OpenGroup(legacyMetaclusterName(id))
		if err != nil {
			if errors.Is(err, archive.ErrNotExist) {
				return nil, &store.SchemaMismatchError{Entry: legacyMetaclusterName(id)}
			}
			return nil, err
		}
		mc, err := readLegacyMetacluster(mcg)
		if err != nil {
			return nil, fmt.Errorf("metacluster %d: %w", id, err)
		}
		r.Metaclusters[id] = mc
	}
	return r, nil
}

func readLegacyMetacluster(g *archive.Group) (*model.MetaclusterResult, error) {
	mc := &model.MetaclusterResult{}

	var err error
	if mc.Size, err = g.Int(legacyMetaclusterSize); err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &store.SchemaMismatchError{Entry: legacyMetaclusterSize}
		}
		return nil, err
	}
	tokens, err := legacyRequiredStrings(g, legacySeqlets)
	if err != nil {
		return nil, err
	}
	if mc.Seqlets, err = coord.DecodeAll(tokens); err != nil {
		return nil, err
	}

	if mc.Submetacluster.Success, err = g.Bool(legacySuccess); err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &store.SchemaMismatchError{Entry: legacySuccess}
		}
		return nil, err
	}
	if err = g.JSON(legacyOtherConfig, &mc.Submetacluster.OtherConfig); err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &store.SchemaMismatchError{Entry: legacyOtherConfig}
		}
		return nil, err
	}
	if !mc.Submetacluster.Success {
		return mc, nil
	}

	names, err := legacyRequiredStrings(g, legacyPatternNames)
	if err != nil {
		return nil, err
	}
	patterns := make([]*model.Pattern, len(names))
	for i, name := range names {
		pg, err := g.OpenGroup(name)
		if err != nil {
			if errors.Is(err, archive.ErrNotExist) {
				return nil, &store.SchemaMismatchError{Entry: name}
			}
			return nil, err
		}
		if patterns[i], err = readLegacyPattern(pg); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	mc.Submetacluster.Patterns = patterns
	mc.Submetacluster.RemainingPatterns = []*model.Pattern{}
	mc.Submetacluster.ClusterIndices = []int{}
	mc.Submetacluster.PatternMergeHierarchy = synthesizeHierarchy(patterns)
	return mc, nil
}

func readLegacyPattern(g *archive.Group) (*model.Pattern, error) {
	p := &model.Pattern{}

	tracks := []struct {
		name string
		dst  *[][]float64
	}{
		{legacyInputSeqsFwd, &p.Sequence},
		{legacyContribScoresFwd, &p.ContribScores},
		{legacyHypScoresFwd, &p.HypotheticalContribs},
	}
	for _, track := range tracks {
		m, err := g.Matrix(track.name)
		if err != nil {
			if errors.Is(err, archive.ErrNotExist) {
				return nil, &store.MissingTrackError{Track: track.name}
			}
			return nil, err
		}
		*track.dst = m
	}

	tokens, err := legacyRequiredStrings(g, legacySeqlets)
	if err != nil {
		return nil, err
	}
	if p.Seqlets, err = coord.DecodeAll(tokens); err != nil {
		return nil, err
	}
	p.Alignments = make([]float64, len(p.Seqlets))
	return p, nil
}

// synthesizeHierarchy builds the trivial forest the legacy layout implies:
// each final pattern is a childless root without merge data.
func synthesizeHierarchy(patterns []*model.Pattern) model.Hierarchy {
	roots := make([]*model.MergeHierarchyNode, len(patterns))
	for i, p := range patterns {
		roots[i] = &model.MergeHierarchyNode{Pattern: p}
	}
	return model.Hierarchy{Roots: roots}
}

// WriteLegacy writes a result into the legacy flat layout and returns the
// names of the fields that could not be represented there. The archive is
// always fully written; the caller decides what to do about the loss.
func WriteLegacy(g *archive.Group, r *model.TopLevelResult) ([]string, error) {
	var dropped droppedSet

	if err := g.PutStrings(legacyTaskNames, r.TaskNames); err != nil {
		return nil, err
	}
	if err := g.PutStrings(legacySeqlets, coord.EncodeAll(r.FinalSeqlets)); err != nil {
		return nil, err
	}
	for _, task := range r.TaskNames {
		seqlets, ok := r.PerTaskSeqlets[task]
		if !ok {
			continue
		}
		if err := g.PutStrings(legacyTaskSeqletsPrefix+task, coord.EncodeAll(seqlets)); err != nil {
			return nil, fmt.Errorf("task %q: %w", task, err)
		}
	}
	if err := g.PutInts(legacyMetaclusterIndices, r.MetaclusterIndices); err != nil {
		return nil, err
	}

	ids := r.MetaclusterIDs()
	if err := g.PutInts(legacyMetaclusterIDs, ids); err != nil {
		return nil, err
	}
	for _, id := range ids {
		mcg, err := g.Group(legacyMetaclusterName(id))
		if err != nil {
			return nil, err
		}
		if err := writeLegacyMetacluster(mcg, r.Metaclusters[id], &dropped); err != nil {
			return nil, fmt.Errorf("metacluster %d: %w", id, err)
		}
	}
	return dropped.list, nil
}

func writeLegacyMetacluster(g *archive.Group, mc *model.MetaclusterResult, dropped *droppedSet) error {
	if err := g.PutInt(legacyMetaclusterSize, mc.Size); err != nil {
		return err
	}
	if err := g.PutStrings(legacySeqlets, coord.EncodeAll(mc.Seqlets)); err != nil {
		return err
	}
	sub := mc.Submetacluster
	if err := g.PutBool(legacySuccess, sub.Success); err != nil {
		return err
	}
	if err := g.PutJSON(legacyOtherConfig, sub.OtherConfig); err != nil {
		return err
	}
	if !sub.Success {
		return nil
	}

	names := make([]string, len(sub.Patterns))
	for i := range sub.Patterns {
		names[i] = legacyPatternName(i)
	}
	if err := g.PutStrings(legacyPatternNames, names); err != nil {
		return err
	}
	for i, p := range sub.Patterns {
		pg, err := g.Group(names[i])
		if err != nil {
			return err
		}
		if err := writeLegacyPattern(pg, p, dropped); err != nil {
			return fmt.Errorf("%s: %w", names[i], err)
		}
	}

	if sub.EachRoundInitclusterMotifs != nil {
		dropped.add("rounds")
	}
	if len(sub.RemainingPatterns) > 0 {
		dropped.add("remaining_patterns")
	}
	if len(sub.ClusterIndices) > 0 {
		dropped.add("cluster_indices")
	}
	noteHierarchyLoss(sub.PatternMergeHierarchy, sub.Patterns, dropped)
	return nil
}

func writeLegacyPattern(g *archive.Group, p *model.Pattern, dropped *droppedSet) error {
	pairs := []struct {
		fwd, rev string
		m        [][]float64
	}{
		{legacyInputSeqsFwd, legacyInputSeqsRev, p.Sequence},
		{legacyContribScoresFwd, legacyContribScoresRev, p.ContribScores},
		{legacyHypScoresFwd, legacyHypScoresRev, p.HypotheticalContribs},
	}
	for _, pair := range pairs {
		if err := g.PutMatrix(pair.fwd, pair.m); err != nil {
			return err
		}
		if err := g.PutMatrix(pair.rev, model.ReverseComplementMatrix(pair.m)); err != nil {
			return err
		}
	}
	if err := g.PutStrings(legacySeqlets, coord.EncodeAll(p.Seqlets)); err != nil {
		return err
	}

	if p.Subclusters != nil {
		dropped.add("subclusters")
	}
	for _, a := range p.Alignments {
		if a != 0 {
			dropped.add("alignments")
			break
		}
	}
	return nil
}

// noteHierarchyLoss records which merge-hierarchy information the legacy
// layout discards. A trivial forest (one childless, merge-data-free root per
// final pattern, carrying that pattern, in order) loses nothing: upgrade
// resynthesizes it exactly.
func noteHierarchyLoss(h model.Hierarchy, patterns []*model.Pattern, dropped *droppedSet) {
	if len(h.Roots) != len(patterns) {
		dropped.add("merge_hierarchy")
	} else {
		for i, root := range h.Roots {
			if root.Pattern != patterns[i] && !root.Pattern.Equal(patterns[i]) {
				dropped.add("merge_hierarchy")
				break
			}
		}
	}
	var walk func(n *model.MergeHierarchyNode, depth int)
	walk = func(n *model.MergeHierarchyNode, depth int) {
		if depth > 0 {
			dropped.add("merge_hierarchy intermediate nodes")
		}
		if n.IndicesMerged != nil {
			dropped.add("merged_indices")
		}
		if n.CrossContamination != nil {
			dropped.add("contamination_matrix")
		}
		if n.AlignerSimilarity != nil {
			dropped.add("similarity_matrix")
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, root := range h.Roots {
		walk(root, 0)
	}
}

// droppedSet collects dropped-field names, first occurrence order, no dupes.
type droppedSet struct {
	list []string
	seen map[string]bool
}

func (d *droppedSet) add(name string) {
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	if d.seen[name] {
		return
	}
	d.seen[name] = true
	d.list = append(d.list, name)
}

func legacyRequiredStrings(g *archive.Group, name string) ([]string, error) {
	v, err := g.Strings(name)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &store.SchemaMismatchError{Entry: name}
		}
		return nil, err
	}
	return v, nil
}
