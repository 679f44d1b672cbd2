package modisco

import (
	"github.com/seqlab/modisco/archive"
	"github.com/seqlab/modisco/codec"
)

// Options configure the top-level save/load/convert calls.
type Options struct {
	// Compression selects the per-dataset payload compression of newly
	// written archives. Existing archives are self-describing.
	Compression archive.Compression

	// Codec encodes structured payloads (name lists, other_config).
	Codec codec.Codec

	// Logger receives operation logs. Defaults to a noop logger.
	Logger *Logger
}

// Option mutates Options.
type Option func(*Options)

// WithCompression selects the dataset payload compression.
func WithCompression(c archive.Compression) Option {
	return func(o *Options) { o.Compression = c }
}

// WithCodec selects the structured-payload codec.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) { o.Codec = c }
}

// WithLogger injects a logger.
func WithLogger(l *Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func applyOptions(opts []Option) *Options {
	o := &Options{
		Compression: archive.CompressionZSTD,
		Codec:       codec.Default,
		Logger:      NoopLogger(),
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

func (o *Options) archiveOptions() []archive.Option {
	return []archive.Option{
		archive.WithCompression(o.Compression),
		archive.WithCodec(o.Codec),
	}
}
