package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seqlab/modisco/archive"
	"github.com/seqlab/modisco/model"
)

// fullResult builds a representative run output: one metacluster of size 3
// with two final 20x4 patterns and the two-root merge forest.
func fullResult(t *testing.T) *model.TopLevelResult {
	t.Helper()

	cfg := model.NewConfig()
	require.NoError(t, cfg.Set("trim_to_window_size", 30))
	require.NoError(t, cfg.Set("threshold", 0.3))

	seqlets := []model.Seqlet{
		{Example: 0, Start: 100, End: 130, Strand: model.Forward},
		{Example: 1, Start: 250, End: 280, Strand: model.Reverse},
		{Example: 2, Start: 40, End: 70, Strand: model.Forward},
	}

	return &model.TopLevelResult{
		TaskNames:    []string{"task0", "task1"},
		FinalSeqlets: seqlets,
		PerTaskSeqlets: map[string][]model.Seqlet{
			"task0": seqlets[:2],
			"task1": seqlets[2:],
		},
		MetaclusterIndices: []int{0, 0, 0},
		Metaclusters: map[int]*model.MetaclusterResult{
			0: {
				Size:    3,
				Seqlets: seqlets,
				Submetacluster: model.SubmetaclusterResult{
					Success:     true,
					OtherConfig: cfg,
					EachRoundInitclusterMotifs: [][]*model.Pattern{
						{testPattern(t, 20, 2)},
						{testPattern(t, 20, 1), testPattern(t, 20, 1)},
					},
					Patterns:              []*model.Pattern{testPattern(t, 20, 2), testPattern(t, 20, 1)},
					RemainingPatterns:     []*model.Pattern{testPattern(t, 20, 1)},
					ClusterIndices:        []int{0, 1, 0},
					PatternMergeHierarchy: twoRootForest(t),
				},
			},
		},
	}
}

func TestResultRoundTrip(t *testing.T) {
	a := archive.NewMem()
	r := fullResult(t)

	require.NoError(t, SaveResult(a.Group, r))
	got, err := LoadResult(a.Group)
	require.NoError(t, err)
	require.True(t, r.Equal(got))
}

func TestResultRoundTripOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "result")
	r := fullResult(t)

	a, err := archive.Create(dir)
	require.NoError(t, err)
	require.NoError(t, SaveResult(a.Group, r))
	require.NoError(t, a.Close())

	in, err := archive.Open(dir)
	require.NoError(t, err)
	defer in.Close()

	got, err := LoadResult(in.Group)
	require.NoError(t, err)
	require.True(t, r.Equal(got))
}

func TestResultFailedMetacluster(t *testing.T) {
	cfg := model.NewConfig()
	require.NoError(t, cfg.Set("reason", "below min size"))

	r := &model.TopLevelResult{
		TaskNames:          []string{"task0"},
		FinalSeqlets:       []model.Seqlet{{Example: 0, Start: 0, End: 10, Strand: model.Forward}},
		PerTaskSeqlets:     map[string][]model.Seqlet{},
		MetaclusterIndices: []int{1},
		Metaclusters: map[int]*model.MetaclusterResult{
			1: {
				Size:           1,
				Seqlets:        []model.Seqlet{{Example: 0, Start: 0, End: 10, Strand: model.Forward}},
				Submetacluster: model.SubmetaclusterResult{Success: false, OtherConfig: cfg},
			},
		},
	}

	a := archive.NewMem()
	require.NoError(t, SaveResult(a.Group, r))

	// A failed submetacluster carries nothing beyond success + config.
	sg, err := a.OpenGroup("metaclusters")
	require.NoError(t, err)
	mcg, err := sg.OpenGroup("metacluster_1")
	require.NoError(t, err)
	sub, err := mcg.OpenGroup("submetacluster_result")
	require.NoError(t, err)
	require.False(t, sub.HasGroup("patterns"))
	require.False(t, sub.HasGroup("merge_hierarchy"))
	require.False(t, sub.HasDataset("cluster_indices"))

	got, err := LoadResult(a.Group)
	require.NoError(t, err)
	require.True(t, r.Equal(got))
	require.False(t, got.Metaclusters[1].Submetacluster.Success)

	var reason string
	ok, err := got.Metaclusters[1].Submetacluster.OtherConfig.Get("reason", &reason)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "below min size", reason)
}

func TestResultRoundsPresence(t *testing.T) {
	base := func(rounds [][]*model.Pattern) *model.TopLevelResult {
		return &model.TopLevelResult{
			TaskNames:          []string{"t"},
			FinalSeqlets:       []model.Seqlet{{Example: 0, Start: 0, End: 5, Strand: model.Forward}},
			PerTaskSeqlets:     map[string][]model.Seqlet{},
			MetaclusterIndices: []int{0},
			Metaclusters: map[int]*model.MetaclusterResult{
				0: {
					Size:    1,
					Seqlets: []model.Seqlet{{Example: 0, Start: 0, End: 5, Strand: model.Forward}},
					Submetacluster: model.SubmetaclusterResult{
						Success:                    true,
						EachRoundInitclusterMotifs: rounds,
						Patterns:                   []*model.Pattern{testPattern(t, 5, 1)},
					},
				},
			},
		}
	}

	t.Run("nil stays nil", func(t *testing.T) {
		a := archive.NewMem()
		require.NoError(t, SaveResult(a.Group, base(nil)))
		got, err := LoadResult(a.Group)
		require.NoError(t, err)
		require.Nil(t, got.Metaclusters[0].Submetacluster.EachRoundInitclusterMotifs)
	})

	t.Run("empty stays empty", func(t *testing.T) {
		a := archive.NewMem()
		require.NoError(t, SaveResult(a.Group, base([][]*model.Pattern{})))
		got, err := LoadResult(a.Group)
		require.NoError(t, err)
		rounds := got.Metaclusters[0].Submetacluster.EachRoundInitclusterMotifs
		require.NotNil(t, rounds)
		require.Empty(t, rounds)
	})
}

func TestResultEmptyCollections(t *testing.T) {
	r := &model.TopLevelResult{
		TaskNames:          []string{},
		FinalSeqlets:       nil,
		PerTaskSeqlets:     map[string][]model.Seqlet{},
		MetaclusterIndices: nil,
		Metaclusters:       map[int]*model.MetaclusterResult{},
	}

	a := archive.NewMem()
	require.NoError(t, SaveResult(a.Group, r))
	got, err := LoadResult(a.Group)
	require.NoError(t, err)
	require.True(t, r.Equal(got))
	require.Empty(t, got.Metaclusters)
}

func TestResultValidatesBeforeWriting(t *testing.T) {
	r := fullResult(t)
	r.MetaclusterIndices = r.MetaclusterIndices[:1]

	a := archive.NewMem()
	err := SaveResult(a.Group, r)
	require.Error(t, err)

	// Nothing was written.
	require.False(t, a.HasDataset("task_names"))
}

func TestResultSchemaMismatch(t *testing.T) {
	t.Run("empty archive", func(t *testing.T) {
		a := archive.NewMem()
		_, err := LoadResult(a.Group)
		require.ErrorIs(t, err, ErrSchemaMismatch)

		var serr *SchemaMismatchError
		require.ErrorAs(t, err, &serr)
		require.Equal(t, "task_names", serr.Entry)
	})

	t.Run("listed metacluster group absent", func(t *testing.T) {
		a := archive.NewMem()
		r := fullResult(t)
		require.NoError(t, SaveResult(a.Group, r))

		mg, err := a.OpenGroup("metaclusters")
		require.NoError(t, err)
		require.NoError(t, mg.PutInts("ids", []int{0, 5}))

		_, err = LoadResult(a.Group)
		require.ErrorIs(t, err, ErrSchemaMismatch)
	})
}
