package archive

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seqlab/modisco/codec"
	"github.com/seqlab/modisco/internal/fs"
)

func TestMemDatasetRoundTrip(t *testing.T) {
	a := NewMem()

	t.Run("matrix", func(t *testing.T) {
		m := [][]float64{{1, 2, 3, 4}, {5, 6, 7, 8}, {-1, 0, math.Inf(1), math.SmallestNonzeroFloat64}}
		require.NoError(t, a.PutMatrix("track", m))

		got, err := a.Matrix("track")
		require.NoError(t, err)
		require.Equal(t, m, got)
	})

	t.Run("empty matrix", func(t *testing.T) {
		require.NoError(t, a.PutMatrix("empty", [][]float64{}))
		got, err := a.Matrix("empty")
		require.NoError(t, err)
		require.Empty(t, got)
	})

	t.Run("ragged matrix rejected", func(t *testing.T) {
		require.Error(t, a.PutMatrix("ragged", [][]float64{{1, 2}, {3}}))
	})

	t.Run("floats", func(t *testing.T) {
		v := []float64{0, -0.5, 1e300}
		require.NoError(t, a.PutFloats("aln", v))
		got, err := a.Floats("aln")
		require.NoError(t, err)
		require.Equal(t, v, got)
	})

	t.Run("ints", func(t *testing.T) {
		v := []int{-1, 0, 1, 1 << 40}
		require.NoError(t, a.PutInts("indices", v))
		got, err := a.Ints("indices")
		require.NoError(t, err)
		require.Equal(t, v, got)
	})

	t.Run("scalars", func(t *testing.T) {
		require.NoError(t, a.PutInt("size", 42))
		n, err := a.Int("size")
		require.NoError(t, err)
		require.Equal(t, 42, n)

		require.NoError(t, a.PutBool("success", true))
		b, err := a.Bool("success")
		require.NoError(t, err)
		require.True(t, b)
	})

	t.Run("strings", func(t *testing.T) {
		v := []string{"task0", "task1"}
		require.NoError(t, a.PutStrings("task_names", v))
		got, err := a.Strings("task_names")
		require.NoError(t, err)
		require.Equal(t, v, got)

		// nil writes as an empty list and reads back non-nil.
		require.NoError(t, a.PutStrings("none", nil))
		got, err = a.Strings("none")
		require.NoError(t, err)
		require.Equal(t, []string{}, got)
	})

	t.Run("json", func(t *testing.T) {
		in := map[string]int{"k": 3}
		require.NoError(t, a.PutJSON("doc", in))
		var out map[string]int
		require.NoError(t, a.JSON("doc", &out))
		require.Equal(t, in, out)
	})
}

func TestGroupNesting(t *testing.T) {
	a := NewMem()

	mc, err := a.Group.Group("metaclusters")
	require.NoError(t, err)
	inner, err := mc.Group("metacluster_0")
	require.NoError(t, err)
	require.NoError(t, inner.PutInt("size", 3))

	require.True(t, a.HasGroup("metaclusters"))
	require.False(t, a.HasGroup("missing"))
	require.False(t, a.HasDataset("metaclusters"))
	require.True(t, inner.HasDataset("size"))

	reopened, err := a.OpenGroup("metaclusters")
	require.NoError(t, err)
	names, err := reopened.Groups()
	require.NoError(t, err)
	require.Equal(t, []string{"metacluster_0"}, names)

	_, err = a.OpenGroup("missing")
	require.ErrorIs(t, err, ErrNotExist)

	_, err = a.Ints("absent")
	require.ErrorIs(t, err, ErrNotExist)
}

func TestTypeMismatch(t *testing.T) {
	a := NewMem()
	require.NoError(t, a.PutInts("v", []int{1, 2}))

	_, err := a.Floats("v")
	require.ErrorIs(t, err, ErrCorrupt)

	var terr *TypeError
	require.ErrorAs(t, err, &terr)
	require.Equal(t, "v", terr.Name)
}

func TestCompressionModes(t *testing.T) {
	// Repetitive payload so both codecs actually shrink it.
	m := make([][]float64, 64)
	for i := range m {
		m[i] = []float64{1, 1, 1, 1}
	}

	for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		a := NewMem(WithCompression(comp))
		require.NoError(t, a.PutMatrix("track", m))
		got, err := a.Matrix("track")
		require.NoError(t, err)
		require.Equal(t, m, got)
	}
}

func TestMixedCompressionReads(t *testing.T) {
	// Datasets are self-describing, so a reader with different options still
	// decodes them.
	dir := filepath.Join(t.TempDir(), "archive")

	a, err := Create(dir, WithCompression(CompressionLZ4))
	require.NoError(t, err)
	require.NoError(t, a.PutFloats("v", []float64{1, 2, 3}))
	require.NoError(t, a.Close())

	in, err := Open(dir, WithCompression(CompressionZSTD))
	require.NoError(t, err)
	defer in.Close()

	got, err := in.Floats("v")
	require.NoError(t, err)
	require.Equal(t, []float64{1, 2, 3}, got)
}

func TestCodecOption(t *testing.T) {
	a := NewMem(WithCodec(codec.JSON{}))
	require.NoError(t, a.PutStrings("names", []string{"a", "b"}))

	// The dataset records its codec; a go-json reader still decodes it.
	b := &Group{n: a.Group.n, opts: applyOptions([]Option{WithCodec(codec.GoJSON{})})}
	got, err := b.Strings("names")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, got)
}

func TestDirArchiveAtomicPublish(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "result")

	a, err := Create(dir)
	require.NoError(t, err)
	require.NoError(t, a.PutStrings("task_names", []string{"t"}))

	// Not yet published.
	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, a.Close())
	_, err = os.Stat(dir)
	require.NoError(t, err)

	// Close is idempotent.
	require.NoError(t, a.Close())

	// Replacing an existing archive swaps content wholesale.
	b, err := Create(dir)
	require.NoError(t, err)
	require.NoError(t, b.PutStrings("task_names", []string{"u", "v"}))
	require.NoError(t, b.Close())

	in, err := Open(dir)
	require.NoError(t, err)
	defer in.Close()
	got, err := in.Strings("task_names")
	require.NoError(t, err)
	require.Equal(t, []string{"u", "v"}, got)
}

func TestDirArchiveDiscard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "result")

	a, err := Create(dir)
	require.NoError(t, err)
	require.NoError(t, a.PutInt("size", 1))
	require.NoError(t, a.Discard())

	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir + ".tmp")
	require.True(t, os.IsNotExist(err))

	// Close after Discard does not resurrect the output.
	require.NoError(t, a.Close())
	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent"))
	require.ErrorIs(t, err, ErrNotExist)

	file := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = Open(file)
	require.Error(t, err)
}

func TestOpenIsReadOnly(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "result")
	a, err := Create(dir)
	require.NoError(t, err)
	require.NoError(t, a.PutInt("size", 1))
	require.NoError(t, a.Close())

	in, err := Open(dir)
	require.NoError(t, err)
	defer in.Close()

	require.ErrorIs(t, in.PutInt("size", 2), ErrReadOnly)
	_, err = in.Group.Group("new")
	require.ErrorIs(t, err, ErrReadOnly)

	// Existing groups still open through Group.
	n, err := in.Int("size")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestCorruptionDetected(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "result")
	a, err := Create(dir, WithCompression(CompressionNone))
	require.NoError(t, err)
	require.NoError(t, a.PutFloats("v", []float64{1, 2, 3}))
	require.NoError(t, a.Close())

	path := filepath.Join(dir, "v")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	t.Run("payload bit flip", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[len(bad)-1] ^= 0xff
		require.NoError(t, os.WriteFile(path, bad, 0o644))

		in, err := Open(dir)
		require.NoError(t, err)
		defer in.Close()

		_, err = in.Floats("v")
		require.ErrorIs(t, err, ErrCorrupt)
		var cerr *CorruptError
		require.ErrorAs(t, err, &cerr)
		require.Equal(t, "v", cerr.Name)
	})

	t.Run("bad magic", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[0] ^= 0xff
		require.NoError(t, os.WriteFile(path, bad, 0o644))

		in, err := Open(dir)
		require.NoError(t, err)
		defer in.Close()

		_, err = in.Floats("v")
		require.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("truncated", func(t *testing.T) {
		require.NoError(t, os.WriteFile(path, data[:10], 0o644))

		in, err := Open(dir)
		require.NoError(t, err)
		defer in.Close()

		_, err = in.Floats("v")
		require.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestCreateFSWriteFault(t *testing.T) {
	faulty := fs.NewFaultyFS(nil)
	faulty.AddRule("task_names", fs.Fault{FailAfterBytes: 0, Err: os.ErrClosed})

	dir := filepath.Join(t.TempDir(), "result")
	a, err := CreateFS(faulty, dir)
	require.NoError(t, err)
	defer a.Discard()

	require.NoError(t, a.PutInt("size", 1))
	err = a.PutStrings("task_names", []string{"t"})
	require.ErrorIs(t, err, os.ErrClosed)
}

func TestCreateFSWriteBudget(t *testing.T) {
	faulty := fs.NewFaultyFS(nil)
	faulty.SetLimit(64)

	dir := filepath.Join(t.TempDir(), "result")
	a, err := CreateFS(faulty, dir)
	require.NoError(t, err)
	defer a.Discard()

	// Keep writing until the budget runs out; the failure must surface as an
	// error instead of silent truncation.
	var failed bool
	for i := 0; i < 16; i++ {
		if err := a.PutFloats("v", make([]float64, 16)); err != nil {
			failed = true
			break
		}
	}
	require.True(t, failed)
	require.LessOrEqual(t, faulty.Written(), int64(64))
}
