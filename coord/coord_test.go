package coord

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seqlab/modisco/model"
)

func score(v float64) *float64 { return &v }

func TestEncode(t *testing.T) {
	tests := []struct {
		name   string
		seqlet model.Seqlet
		want   string
	}{
		{
			name:   "forward without score",
			seqlet: model.Seqlet{Example: 12, Start: 100, End: 130, Strand: model.Forward},
			want:   "12:100-130(+)",
		},
		{
			name:   "reverse with score",
			seqlet: model.Seqlet{Example: 12, Start: 100, End: 130, Strand: model.Reverse, Score: score(0.5321)},
			want:   "12:100-130(-)@0.5321",
		},
		{
			name:   "zero score is still present",
			seqlet: model.Seqlet{Example: 0, Start: 0, End: 0, Strand: model.Forward, Score: score(0)},
			want:   "0:0-0(+)@0",
		},
		{
			name:   "negative score",
			seqlet: model.Seqlet{Example: 3, Start: 7, End: 9, Strand: model.Forward, Score: score(-1.25)},
			want:   "3:7-9(+)@-1.25",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Encode(tt.seqlet))
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	seqlets := []model.Seqlet{
		{Example: 0, Start: 0, End: 1, Strand: model.Forward},
		{Example: 42, Start: 1000, End: 1070, Strand: model.Reverse},
		{Example: 7, Start: 15, End: 15, Strand: model.Forward, Score: score(0.1)},
		{Example: 1, Start: 2, End: 3, Strand: model.Reverse, Score: score(1e-300)},
		{Example: 9, Start: 5, End: 99, Strand: model.Forward, Score: score(0.1 + 0.2)},
	}

	tokens := EncodeAll(seqlets)
	decoded, err := DecodeAll(tokens)
	require.NoError(t, err)
	require.True(t, model.SeqletsEqual(seqlets, decoded))

	// The token is the identity: re-encoding reproduces it byte for byte.
	require.Equal(t, tokens, EncodeAll(decoded))
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"missing colon", "12.100-130(+)"},
		{"missing dash", "12:100130(+)"},
		{"missing strand", "12:100-130"},
		{"bad strand", "12:100-130(*)"},
		{"two char strand", "12:100-130(+-)"},
		{"end precedes start", "12:130-100(+)"},
		{"negative example", "-1:100-130(+)"},
		{"leading zero start", "12:0100-130(+)"},
		{"non numeric end", "12:100-abc(+)"},
		{"empty score", "12:100-130(+)@"},
		{"bad score", "12:100-130(+)@x"},
		{"padded score", "12:100-130(+)@0.50"},
		{"exponent alias score", "12:100-130(+)@1e5"},
		{"hex score", "12:100-130(+)@0x1p-2"},
		{"signed score", "12:100-130(+)@+0.5"},
		{"whitespace", "12: 100-130(+)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.token)
			require.ErrorIs(t, err, ErrMalformedCoordinate)

			var merr *MalformedCoordinateError
			require.ErrorAs(t, err, &merr)
			require.Equal(t, tt.token, merr.Token)
			require.NotEmpty(t, merr.Reason)
		})
	}
}

func TestDecodeAllAbortsOnFirstMalformed(t *testing.T) {
	_, err := DecodeAll([]string{"1:2-3(+)", "broken", "4:5-6(-)"})
	require.ErrorIs(t, err, ErrMalformedCoordinate)
}

func TestDecodeZeroLengthSpan(t *testing.T) {
	s, err := Decode("5:10-10(-)")
	require.NoError(t, err)
	require.Equal(t, 0, s.Len())
	require.Equal(t, model.Reverse, s.Strand)
}
