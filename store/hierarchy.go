package store

import (
	"errors"
	"fmt"

	"github.com/seqlab/modisco/archive"
	"github.com/seqlab/modisco/model"
)

// Archive entry names of a merge-hierarchy group.
const (
	datasetMergedIndices = "merged_indices"
	datasetContamination = "contamination_matrix"
	datasetSimilarity    = "similarity_matrix"

	groupNodePattern = "pattern"
	groupChildren    = "children"
)

func rootName(i int) string  { return fmt.Sprintf("root_%d", i) }
func childName(i int) string { return fmt.Sprintf("child_%d", i) }

// SaveHierarchy writes the merge forest: each root under a deterministically
// named child group plus an explicit root-name list. Merge matrices and the
// merged-index list are written only when present, so leaf nodes stay free of
// merge bookkeeping.
func SaveHierarchy(g *archive.Group, h model.Hierarchy) error {
	names := make([]string, len(h.Roots))
	for i := range h.Roots {
		names[i] = rootName(i)
	}
	if err := g.PutStrings(datasetNames, names); err != nil {
		return err
	}
	for i, root := range h.Roots {
		rg, err := g.Group(names[i])
		if err != nil {
			return err
		}
		if err := saveNode(rg, root); err != nil {
			return fmt.Errorf("%s: %w", names[i], err)
		}
	}
	return nil
}

func saveNode(g *archive.Group, n *model.MergeHierarchyNode) error {
	pg, err := g.Group(groupNodePattern)
	if err != nil {
		return err
	}
	if err := SavePattern(pg, n.Pattern); err != nil {
		return err
	}

	if n.IndicesMerged != nil {
		if err := g.PutInts(datasetMergedIndices, n.IndicesMerged); err != nil {
			return err
		}
	}
	if n.CrossContamination != nil {
		if err := g.PutMatrix(datasetContamination, n.CrossContamination); err != nil {
			return err
		}
	}
	if n.AlignerSimilarity != nil {
		if err := g.PutMatrix(datasetSimilarity, n.AlignerSimilarity); err != nil {
			return err
		}
	}

	if len(n.Children) > 0 {
		cg, err := g.Group(groupChildren)
		if err != nil {
			return err
		}
		names := make([]string, len(n.Children))
		for i := range n.Children {
			names[i] = childName(i)
		}
		if err := cg.PutStrings(datasetNames, names); err != nil {
			return err
		}
		for i, child := range n.Children {
			chg, err := cg.Group(names[i])
			if err != nil {
				return err
			}
			if err := saveNode(chg, child); err != nil {
				return fmt.Errorf("%s: %w", names[i], err)
			}
		}
	}
	return nil
}

// LoadHierarchy is the inverse of SaveHierarchy. Tree shape (root count,
// per-node child count and order) round-trips bit-identically, and absence of
// merge data is preserved as nil, never coerced to empty.
func LoadHierarchy(g *archive.Group) (model.Hierarchy, error) {
	var h model.Hierarchy
	names, err := g.Strings(datasetNames)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return h, &SchemaMismatchError{Entry: datasetNames}
		}
		return h, err
	}
	h.Roots = make([]*model.MergeHierarchyNode, len(names))
	for i, name := range names {
		rg, err := g.OpenGroup(name)
		if err != nil {
			if errors.Is(err, archive.ErrNotExist) {
				return model.Hierarchy{}, &SchemaMismatchError{Entry: name}
			}
			return model.Hierarchy{}, err
		}
		if h.Roots[i], err = loadNode(rg); err != nil {
			return model.Hierarchy{}, fmt.Errorf("%s: %w", name, err)
		}
	}
	return h, nil
}

func loadNode(g *archive.Group) (*model.MergeHierarchyNode, error) {
	n := &model.MergeHierarchyNode{}

	pg, err := g.OpenGroup(groupNodePattern)
	if err != nil {
		if errors.Is(err, archive.ErrNotExist) {
			return nil, &SchemaMismatchError{Entry: groupNodePattern}
		}
		return nil, err
	}
	if n.Pattern, err = LoadPattern(pg); err != nil {
		return nil, err
	}

	if g.HasDataset(datasetMergedIndices) {
		if n.IndicesMerged, err = g.Ints(datasetMergedIndices); err != nil {
			return nil, err
		}
	}
	if g.HasDataset(datasetContamination) {
		if n.CrossContamination, err = g.Matrix(datasetContamination); err != nil {
			return nil, err
		}
	}
	if g.HasDataset(datasetSimilarity) {
		if n.AlignerSimilarity, err = g.Matrix(datasetSimilarity); err != nil {
			return nil, err
		}
	}

	if g.HasGroup(groupChildren) {
		cg, err := g.OpenGroup(groupChildren)
		if err != nil {
			return nil, err
		}
		names, err := cg.Strings(datasetNames)
		if err != nil && !errors.Is(err, archive.ErrNotExist) {
			return nil, err
		}
		n.Children = make([]*model.MergeHierarchyNode, len(names))
		for i, name := range names {
			chg, err := cg.OpenGroup(name)
			if err != nil {
				if errors.Is(err, archive.ErrNotExist) {
					return nil, &SchemaMismatchError{Entry: groupChildren + "/" + name}
				}
				return nil, err
			}
			if n.Children[i], err = loadNode(chg); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return n, nil
}
