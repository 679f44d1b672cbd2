// Package coord encodes seqlet coordinates as canonical text tokens.
//
// The token grammar is
//
//	example:start-end(strand)[@score]
//
// e.g. "12:100-130(+)" or "12:100-130(-)@0.5321". The token is the single
// source of truth for seqlet identity: Encode and Decode are exact inverses,
// and the score (when present) is formatted with full float64 precision so
// that decode(encode(s)) == s for every valid seqlet.
package coord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/seqlab/modisco/model"
)

// ErrMalformedCoordinate is returned when a token does not match the canonical
// grammar. Errors wrap it; use errors.Is to test.
var ErrMalformedCoordinate = errors.New("malformed coordinate")

// MalformedCoordinateError reports the offending token and what was wrong
// with it.
type MalformedCoordinateError struct {
	Token  string
	Reason string
}

func (e *MalformedCoordinateError) Error() string {
	return fmt.Sprintf("malformed coordinate %q: %s", e.Token, e.Reason)
}

func (e *MalformedCoordinateError) Unwrap() error { return ErrMalformedCoordinate }

func malformed(token, reason string) error {
	return &MalformedCoordinateError{Token: token, Reason: reason}
}

// Encode renders a seqlet as its canonical token.
func Encode(s model.Seqlet) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(s.Example))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(s.Start))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(s.End))
	b.WriteByte('(')
	b.WriteByte(byte(s.Strand))
	b.WriteByte(')')
	if s.Score != nil {
		b.WriteByte('@')
		b.WriteString(strconv.FormatFloat(*s.Score, 'g', -1, 64))
	}
	return b.String()
}

// EncodeAll renders a seqlet list as tokens, preserving order.
func EncodeAll(seqlets []model.Seqlet) []string {
	out := make([]string, len(seqlets))
	for i, s := range seqlets {
		out[i] = Encode(s)
	}
	return out
}

// Decode parses a canonical token back into a seqlet. It fails with an error
// wrapping ErrMalformedCoordinate when the token does not match the grammar.
func Decode(token string) (model.Seqlet, error) {
	var s model.Seqlet

	rest := token
	var scorePart string
	if at := strings.IndexByte(rest, '@'); at >= 0 {
		scorePart = rest[at+1:]
		rest = rest[:at]
		if scorePart == "" {
			return s, malformed(token, "empty score after '@'")
		}
	}

	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return s, malformed(token, "missing ':' between example and span")
	}
	example, err := parseUint(rest[:colon])
	if err != nil {
		return s, malformed(token, "example index: "+err.Error())
	}

	rest = rest[colon+1:]
	open := strings.IndexByte(rest, '(')
	if open < 0 || !strings.HasSuffix(rest, ")") {
		return s, malformed(token, "missing '(strand)' suffix")
	}
	strandPart := rest[open+1 : len(rest)-1]
	if len(strandPart) != 1 || !model.Strand(strandPart[0]).Valid() {
		return s, malformed(token, fmt.Sprintf("strand must be '+' or '-', got %q", strandPart))
	}

	span := rest[:open]
	dash := strings.IndexByte(span, '-')
	if dash < 0 {
		return s, malformed(token, "missing '-' between start and end")
	}
	start, err := parseUint(span[:dash])
	if err != nil {
		return s, malformed(token, "start: "+err.Error())
	}
	end, err := parseUint(span[dash+1:])
	if err != nil {
		return s, malformed(token, "end: "+err.Error())
	}
	if end < start {
		return s, malformed(token, fmt.Sprintf("end %d precedes start %d", end, start))
	}

	s.Example = example
	s.Start = start
	s.End = end
	s.Strand = model.Strand(strandPart[0])

	if scorePart != "" {
		score, err := strconv.ParseFloat(scorePart, 64)
		if err != nil {
			return model.Seqlet{}, malformed(token, "score: not a valid float")
		}
		// ParseFloat admits spellings Encode never emits ("0.50", "1e5",
		// hex floats). Only the canonical form is a valid token.
		if strconv.FormatFloat(score, 'g', -1, 64) != scorePart {
			return model.Seqlet{}, malformed(token, "score: not in canonical form")
		}
		s.Score = &score
	}
	return s, nil
}

// DecodeAll parses a token list, preserving order. The first malformed token
// aborts the whole decode.
func DecodeAll(tokens []string) ([]model.Seqlet, error) {
	out := make([]model.Seqlet, len(tokens))
	for i, token := range tokens {
		s, err := Decode(token)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func parseUint(s string) (int, error) {
	if s == "" {
		return 0, errors.New("empty")
	}
	// Reject signs and whitespace that ParseUint would also reject, plus
	// leading zeros that would break canonical round-tripping.
	if len(s) > 1 && s[0] == '0' {
		return 0, errors.New("leading zero")
	}
	v, err := strconv.ParseUint(s, 10, 63)
	if err != nil {
		return 0, errors.New("not a non-negative integer")
	}
	return int(v), nil
}
