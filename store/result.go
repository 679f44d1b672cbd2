package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/seqlab/modisco/archive"
	"github.com/seqlab/modisco/coord"
	"github.com/seqlab/modisco/model"
)

// Archive entry names of the top-level result layout.
const (
	datasetTaskNames          = "task_names"
	datasetFinalSeqlets       = "final_seqlets"
	groupPerTaskSeqlets       = "per_task_seqlets"
	datasetMetaclusterIndices = "metacluster_indices"

	groupMetaclusters     = "metaclusters"
	datasetMetaclusterIDs = "ids"
	datasetSize           = "size"

	groupSubmetacluster   = "submetacluster_result"
	datasetSuccess        = "success"
	datasetOtherConfig    = "other_config"
	groupRounds           = "rounds"
	groupPatterns         = "patterns"
	groupRemaining        = "remaining_patterns"
	datasetClusterIndices = "cluster_indices"
	groupMergeHierarchy   = "merge_hierarchy"
)

func metaclusterName(id int) string { return fmt.Sprintf("metacluster_%d", id) }
func roundName(i int) string        { return fmt.Sprintf("round_%d", i) }

// SaveResult writes a whole run result into the current archive layout. For a
// fixed result the output is byte-for-byte reproducible: every collection is
// written in a deterministic order and nothing wall-clock-derived is emitted.
func SaveResult(g *archive.Group, r *model.TopLevelResult) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid result: %w", err)
	}

	if err := g.PutStrings(datasetTaskNames, r.TaskNames); err != nil {
		return err
	}
	if err := g.PutStrings(datasetFinalSeqlets, coord.EncodeAll(r.FinalSeqlets)); err != nil {
		return err
	}

	ptg, err := g.Group(groupPerTaskSeqlets)
	if err != nil {
		return err
	}
	tasks := make([]string, 0, len(r.PerTaskSeqlets))
	for task := range r.PerTaskSeqlets {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)
	for _, task := range tasks {
		if err := ptg.PutStrings(task, coord.EncodeAll(r.PerTaskSeqlets[task])); err != nil {
			return fmt.Errorf("task %q: %w", task, err)
		}
	}

	if err := g.PutInts(datasetMetaclusterIndices, r.MetaclusterIndices); err != nil {
		return err
	}

	mg, err := g.Group(groupMetaclusters)
	if err != nil {
		return err
	}
	ids := r.MetaclusterIDs()
	if err := mg.PutInts(datasetMetaclusterIDs, ids); err != nil {
		return err
	}
	for _, id := range ids {
		mcg, err := mg.Group(metaclusterName(id))
		if err != nil {
			return err
		}
		if err := saveMetacluster(mcg, r.Metaclusters[id]); err != nil {
			return fmt.Errorf("metacluster %d: %w", id, err)
		}
	}
	return nil
}

func saveMetacluster(g *archive.Group, mc *model.MetaclusterResult) error {
	if err := g.PutInt(datasetSize, mc.Size); err != nil {
		return err
	}
	if err := g.PutStrings(datasetSeqlets, coord.EncodeAll(mc.Seqlets)); err != nil {
		return err
	}
	sg, err := g.Group(groupSubmetacluster)
	if err != nil {
		return err
	}
	return saveSubmetacluster(sg, mc.Submetacluster)
}

func saveSubmetacluster(g *archive.Group, r model.SubmetaclusterResult) error {
	if err := g.PutBool(datasetSuccess, r.Success); err != nil {
		return err
	}
	if err := g.PutJSON(datasetOtherConfig, r.OtherConfig); err != nil {
		return err
	}
	if !r.Success {
		// A failed submetacluster carries nothing beyond success + config.
		return nil
	}

	if r.EachRoundInitclusterMotifs != nil {
		rg, err := g.Group(groupRounds)
		if err != nil {
			return err
		}
		names := make([]string, len(r.EachRoundInitclusterMotifs))
		for i := range r.EachRoundInitclusterMotifs {
			names[i] = roundName(i)
		}
		// The name list is written even for zero rounds so that "rounds were
		// recorded" survives the round-trip.
		if err := rg.PutStrings(datasetNames, names); err != nil {
			return err
		}
		for i, motifs := range r.EachRoundInitclusterMotifs {
			g2, err := rg.Group(names[i])
			if err != nil {
				return err
			}
			if err := SavePatterns(g2, motifs); err != nil {
				return fmt.Errorf("%s: %w", names[i], err)
			}
		}
	}

	pg, err := g.Group(groupPatterns)
	if err != nil {
		return err
	}
	if err := SavePatterns(pg, r.Patterns); err != nil {
		return fmt.Errorf("patterns: %w", err)
	}

	rg, err := g.Group(groupRemaining)
	if err != nil {
		return err
	}
	if err := SavePatterns(rg, r.RemainingPatterns); err != nil {
		return fmt.Errorf("remaining patterns: %w", err)
	}

	if err := g.PutInts(datasetClusterIndices, r.ClusterIndices); err != nil {
		return err
	}

	hg, err := g.Group(groupMergeHierarchy)
	if err != nil {
		return err
	}
	if err := SaveHierarchy(hg, r.PatternMergeHierarchy); err != nil {
		return fmt.Errorf("merge hierarchy: %w", err)
	}
	return nil
}

// LoadResult is the full inverse of SaveResult. A required top-level entry
// that is absent fails with a SchemaMismatchError; nothing partial is ever
// returned.
func LoadResult(g *archive.Group) (*model.TopLevelResult, error) {
	r := &model.TopLevelResult{}

	var err error
	if r.TaskNames, err = requiredStrings(g, datasetTaskNames); err != nil {
		return nil, err
	}

	tokens, err := requiredStrings(g, datasetFinalSeqlets)
	if err != nil {
		return nil, err
	}
	if r.FinalSeqlets, err = coord.DecodeAll(tokens); err != nil {
		return nil, err
	}

	ptg, err := g.OpenGroup(groupPerTaskSeqlets)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &SchemaMismatchError{Entry: groupPerTaskSeqlets}
		}
		return nil, err
	}
	tasks, err := ptg.Datasets()
	if err != nil {
		return nil, err
	}
	r.PerTaskSeqlets = make(map[string][]model.Seqlet, len(tasks))
	for _, task := range tasks {
		tokens, err := ptg.Strings(task)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", task, err)
		}
		if r.PerTaskSeqlets[task], err = coord.DecodeAll(tokens); err != nil {
			return nil, fmt.Errorf("task %q: %w", task, err)
		}
	}

	if r.MetaclusterIndices, err = g.Ints(datasetMetaclusterIndices); err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &SchemaMismatchError{Entry: datasetMetaclusterIndices}
		}
		return nil, err
	}

	mg, err := g.OpenGroup(groupMetaclusters)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &SchemaMismatchError{Entry: groupMetaclusters}
		}
		return nil, err
	}
	ids, err := mg.Ints(datasetMetaclusterIDs)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &SchemaMismatchError{Entry: groupMetaclusters + "/" + datasetMetaclusterIDs}
		}
		return nil, err
	}
	r.Metaclusters = make(map[int]*model.MetaclusterResult, len(ids))
	for _, id := range ids {
		mcg, err := mg.OpenGroup(metaclusterName(id))
		if err != nil {
			if errors.Is(err, archive.ErrNotExist) {
				return nil, &SchemaMismatchError{Entry: groupMetaclusters + "/" + metaclusterName(id)}
			}
			return nil, err
		}
		mc, err := loadMetacluster(mcg)
		if err != nil {
			return nil, fmt.Errorf("metacluster %d: %w", id, err)
		}
		r.Metaclusters[id] = mc
	}
	return r, nil
}

func loadMetacluster(g *archive.Group) (*model.MetaclusterResult, error) {
	mc := &model.MetaclusterResult{}

	var err error
	if mc.Size, err = g.Int(datasetSize); err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &SchemaMismatchError{Entry: datasetSize}
		}
		return nil, err
	}
	tokens, err := requiredStrings(g, datasetSeqlets)
	if err != nil {
		return nil, err
	}
	if mc.Seqlets, err = coord.DecodeAll(tokens); err != nil {
		return nil, err
	}

	sg, err := g.OpenGroup(groupSubmetacluster)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &SchemaMismatchError{Entry: groupSubmetacluster}
		}
		return nil, err
	}
	if mc.Submetacluster, err = loadSubmetacluster(sg); err != nil {
		return nil, err
	}
	return mc, nil
}

func loadSubmetacluster(g *archive.Group) (model.SubmetaclusterResult, error) {
	var r model.SubmetaclusterResult

	var err error
	if r.Success, err = g.Bool(datasetSuccess); err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return r, &SchemaMismatchError{Entry: datasetSuccess}
		}
		return r, err
	}
	if err = g.JSON(datasetOtherConfig, &r.OtherConfig); err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return r, &SchemaMismatchError{Entry: datasetOtherConfig}
		}
		return r, err
	}
	if !r.Success {
		return r, nil
	}

	if g.HasGroup(groupRounds) {
		rg, err := g.OpenGroup(groupRounds)
		if err != nil {
			return r, err
		}
		names, err := rg.Strings(datasetNames)
		if err != nil {
			if errors.Is(err, archive.ErrNotExist) {
				return r, &SchemaMismatchError{Entry: groupRounds + "/" + datasetNames}
			}
			return r, err
		}
		r.EachRoundInitclusterMotifs = make([][]*model.Pattern, len(names))
		for i, name := range names {
			g2, err := rg.OpenGroup(name)
			if err != nil {
				if errors.Is(err, archive.ErrNotExist) {
					return r, &SchemaMismatchError{Entry: groupRounds + "/" + name}
				}
				return r, err
			}
			if r.EachRoundInitclusterMotifs[i], err = LoadPatterns(g2); err != nil {
				return r, fmt.Errorf("%s: %w", name, err)
			}
		}
	}

	pg, err := g.OpenGroup(groupPatterns)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return r, &SchemaMismatchError{Entry: groupPatterns}
		}
		return r, err
	}
	if r.Patterns, err = LoadPatterns(pg); err != nil {
		return r, fmt.Errorf("patterns: %w", err)
	}

	rg, err := g.OpenGroup(groupRemaining)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return r, &SchemaMismatchError{Entry: groupRemaining}
		}
		return r, err
	}
	if r.RemainingPatterns, err = LoadPatterns(rg); err != nil {
		return r, fmt.Errorf("remaining patterns: %w", err)
	}

	if r.ClusterIndices, err = g.Ints(datasetClusterIndices); err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return r, &SchemaMismatchError{Entry: datasetClusterIndices}
		}
		return r, err
	}

	hg, err := g.OpenGroup(groupMergeHierarchy)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return r, &SchemaMismatchError{Entry: groupMergeHierarchy}
		}
		return r, err
	}
	if r.PatternMergeHierarchy, err = LoadHierarchy(hg); err != nil {
		return r, fmt.Errorf("merge hierarchy: %w", err)
	}
	return r, nil
}

func requiredStrings(g *archive.Group, name string) ([]string, error) {
	v, err := g.Strings(name)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &SchemaMismatchError{Entry: name}
		}
		return nil, err
	}
	return v, nil
}
