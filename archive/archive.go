package archive

import (
	"errors"
	"fmt"

	"github.com/seqlab/modisco/codec"
)

var (
	// ErrNotExist is returned when a named group or dataset is absent.
	ErrNotExist = errors.New("archive: entry does not exist")

	// ErrCorrupt is returned when a dataset frame fails validation
	// (bad magic, unsupported version, checksum mismatch, truncation).
	ErrCorrupt = errors.New("archive: corrupt dataset")

	// ErrReadOnly is returned on writes to an archive opened for reading.
	ErrReadOnly = errors.New("archive: read-only")
)

// CorruptError reports which dataset failed validation and why.
type CorruptError struct {
	Name   string
	Reason string
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("archive: corrupt dataset %q: %s", e.Name, e.Reason)
}

func (e *CorruptError) Unwrap() error { return ErrCorrupt }

func corrupt(name, reason string) error {
	return &CorruptError{Name: name, Reason: reason}
}

// TypeError reports a dataset read with the wrong accessor.
type TypeError struct {
	Name string
	Want dtype
	Got  dtype
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("archive: dataset %q holds type %d, requested %d", e.Name, e.Got, e.Want)
}

func (e *TypeError) Unwrap() error { return ErrCorrupt }

// Options configure how an archive encodes datasets.
type Options struct {
	// Compression applies to every dataset payload. Datasets are
	// self-describing, so mixed-compression archives read fine.
	Compression Compression

	// Codec encodes structured payloads (string lists, JSON documents).
	Codec codec.Codec
}

// Option mutates Options.
type Option func(*Options)

// WithCompression selects the dataset payload compression.
func WithCompression(c Compression) Option {
	return func(o *Options) { o.Compression = c }
}

// WithCodec selects the structured-payload codec.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

func applyOptions(opts []Option) *Options {
	o := &Options{
		Compression: CompressionZSTD,
		Codec:       codec.Default,
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

// node is the backend contract: a named tree of byte datasets.
type node interface {
	group(name string, create bool) (node, error)
	hasGroup(name string) bool
	groups() ([]string, error)

	put(name string, data []byte) error
	get(name string) ([]byte, error)
	hasDataset(name string) bool
	datasets() ([]string, error)
}

// Group is one level of the named hierarchical container. Groups hold
// subgroups and typed datasets; enumeration order is always sorted by name, so
// callers needing a semantic order persist an explicit name list.
type Group struct {
	name string
	n    node
	opts *Options
}

// Name returns the group's own name ("" for the root).
func (g *Group) Name() string { return g.name }

// Group returns the named subgroup, creating it if missing.
func (g *Group) Group(name string) (*Group, error) {
	n, err := g.n.group(name, true)
	if err != nil {
		return nil, err
	}
	return &Group{name: name, n: n, opts: g.opts}, nil
}

// OpenGroup returns the named subgroup or ErrNotExist.
func (g *Group) OpenGroup(name string) (*Group, error) {
	n, err := g.n.group(name, false)
	if err != nil {
		return nil, err
	}
	return &Group{name: name, n: n, opts: g.opts}, nil
}

// HasGroup reports whether the named subgroup exists.
func (g *Group) HasGroup(name string) bool { return g.n.hasGroup(name) }

// HasDataset reports whether the named dataset exists.
func (g *Group) HasDataset(name string) bool { return g.n.hasDataset(name) }

// Groups returns the subgroup names, sorted.
func (g *Group) Groups() ([]string, error) { return g.n.groups() }

// Datasets returns the dataset names, sorted.
func (g *Group) Datasets() ([]string, error) { return g.n.datasets() }

// PutMatrix writes a rows x cols float64 dataset. Ragged input is rejected.
func (g *Group) PutMatrix(name string, m [][]float64) error {
	rows := len(m)
	cols := 0
	if rows > 0 {
		cols = len(m[0])
	}
	flat := make([]float64, 0, rows*cols)
	for i, row := range m {
		if len(row) != cols {
			return fmt.Errorf("archive: matrix %q row %d has %d columns, want %d", name, i, len(row), cols)
		}
		flat = append(flat, row...)
	}
	return g.putDataset(name, dtypeMatrix, rows, cols, encodeFloats(flat), codecIDNone)
}

// Matrix reads a float64 matrix dataset.
func (g *Group) Matrix(name string) ([][]float64, error) {
	hdr, payload, err := g.getDataset(name, dtypeMatrix)
	if err != nil {
		return nil, err
	}
	rows, cols := int(hdr.rows), int(hdr.cols)
	if len(payload) != 8*rows*cols {
		return nil, corrupt(name, "matrix payload size mismatch")
	}
	flat := decodeFloats(payload, rows*cols)
	out := make([][]float64, rows)
	for i := range out {
		out[i] = flat[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return out, nil
}

// PutFloats writes a float64 vector dataset.
func (g *Group) PutFloats(name string, v []float64) error {
	return g.putDataset(name, dtypeFloats, len(v), 0, encodeFloats(v), codecIDNone)
}

// Floats reads a float64 vector dataset.
func (g *Group) Floats(name string) ([]float64, error) {
	hdr, payload, err := g.getDataset(name, dtypeFloats)
	if err != nil {
		return nil, err
	}
	if len(payload) != 8*int(hdr.rows) {
		return nil, corrupt(name, "vector payload size mismatch")
	}
	return decodeFloats(payload, int(hdr.rows)), nil
}

// PutInts writes an int vector dataset (encoded as int64).
func (g *Group) PutInts(name string, v []int) error {
	return g.putDataset(name, dtypeInts, len(v), 0, encodeInts(v), codecIDNone)
}

// Ints reads an int vector dataset.
func (g *Group) Ints(name string) ([]int, error) {
	hdr, payload, err := g.getDataset(name, dtypeInts)
	if err != nil {
		return nil, err
	}
	if len(payload) != 8*int(hdr.rows) {
		return nil, corrupt(name, "vector payload size mismatch")
	}
	return decodeInts(payload, int(hdr.rows)), nil
}

// PutInt writes a scalar int dataset.
func (g *Group) PutInt(name string, v int) error {
	return g.putDataset(name, dtypeInt, 1, 0, encodeInts([]int{v}), codecIDNone)
}

// Int reads a scalar int dataset.
func (g *Group) Int(name string) (int, error) {
	_, payload, err := g.getDataset(name, dtypeInt)
	if err != nil {
		return 0, err
	}
	if len(payload) != 8 {
		return 0, corrupt(name, "scalar payload size mismatch")
	}
	return decodeInts(payload, 1)[0], nil
}

// PutBool writes a scalar bool dataset.
func (g *Group) PutBool(name string, v bool) error {
	payload := []byte{0}
	if v {
		payload[0] = 1
	}
	return g.putDataset(name, dtypeBool, 1, 0, payload, codecIDNone)
}

// Bool reads a scalar bool dataset.
func (g *Group) Bool(name string) (bool, error) {
	_, payload, err := g.getDataset(name, dtypeBool)
	if err != nil {
		return false, err
	}
	if len(payload) != 1 {
		return false, corrupt(name, "scalar payload size mismatch")
	}
	return payload[0] != 0, nil
}

// PutStrings writes an ordered string-list dataset.
func (g *Group) PutStrings(name string, v []string) error {
	if v == nil {
		v = []string{}
	}
	payload, err := g.opts.Codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("archive: dataset %q: %w", name, err)
	}
	return g.putDataset(name, dtypeStrings, len(v), 0, payload, codecID(g.opts.Codec))
}

// Strings reads an ordered string-list dataset.
func (g *Group) Strings(name string) ([]string, error) {
	hdr, payload, err := g.getDataset(name, dtypeStrings)
	if err != nil {
		return nil, err
	}
	c, ok := codecByID(hdr.codecID)
	if !ok {
		return nil, corrupt(name, "unknown payload codec")
	}
	out := []string{}
	if err := c.Unmarshal(payload, &out); err != nil {
		return nil, corrupt(name, err.Error())
	}
	if len(out) != int(hdr.rows) {
		return nil, corrupt(name, "string list length mismatch")
	}
	return out, nil
}

// PutJSON writes an arbitrary document dataset via the archive codec.
func (g *Group) PutJSON(name string, v any) error {
	payload, err := g.opts.Codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("archive: dataset %q: %w", name, err)
	}
	return g.putDataset(name, dtypeJSON, 0, 0, payload, codecID(g.opts.Codec))
}

// JSON reads a document dataset into out.
func (g *Group) JSON(name string, out any) error {
	hdr, payload, err := g.getDataset(name, dtypeJSON)
	if err != nil {
		return err
	}
	c, ok := codecByID(hdr.codecID)
	if !ok {
		return corrupt(name, "unknown payload codec")
	}
	if err := c.Unmarshal(payload, out); err != nil {
		return corrupt(name, err.Error())
	}
	return nil
}

func (g *Group) putDataset(name string, dt dtype, rows, cols int, payload []byte, cID uint8) error {
	data, err := encodeDataset(dt, rows, cols, payload, g.opts.Compression, cID)
	if err != nil {
		return fmt.Errorf("archive: dataset %q: %w", name, err)
	}
	return g.n.put(name, data)
}

func (g *Group) getDataset(name string, want dtype) (datasetHeader, []byte, error) {
	data, err := g.n.get(name)
	if err != nil {
		return datasetHeader{}, nil, err
	}
	hdr, payload, err := decodeDataset(name, data)
	if err != nil {
		return hdr, nil, err
	}
	if hdr.dtype != want {
		return hdr, nil, &TypeError{Name: name, Want: want, Got: hdr.dtype}
	}
	return hdr, payload, nil
}

// Archive is a root group plus the lifecycle of its backing storage. The
// embedded Group field shadows the promoted Group method, so subgroups of the
// root open via a.Group.Group(name). Writable directory archives stage into a
// temporary location and publish atomically on Close; Discard drops the
// staged output instead.
type Archive struct {
	*Group
	publish func() error
	discard func() error
	done    bool
}

// Close flushes and publishes the archive. It is a no-op after Close or
// Discard.
func (a *Archive) Close() error {
	if a.done {
		return nil
	}
	a.done = true
	if a.publish != nil {
		return a.publish()
	}
	return nil
}

// Discard abandons a writable archive, removing any staged output.
func (a *Archive) Discard() error {
	if a.done {
		return nil
	}
	a.done = true
	if a.discard != nil {
		return a.discard()
	}
	return nil
}
