// Package codec encodes snapshot records as tab-separated text, the format
// shared by every snapshot store.
//
//	LCS: term1 \t term2 \t score \t lcsTerm
//	IC:  term \t ic
//
// Scores are written with the shortest representation that parses back to
// the same float64.
package codec

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/botirk38/semsim/types"
)

// ErrBadTerm indicates a term that cannot be written as a TSV field.
var ErrBadTerm = errors.New("term is empty or contains a tab or newline")

// FormatScore formats f for exact round-trip.
func FormatScore(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseScore parses a score written by FormatScore. NaN is rejected.
func ParseScore(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("score %q is NaN", s)
	}
	return f, nil
}

func checkTerms(terms ...types.Term) error {
	for _, t := range terms {
		if t == "" || strings.ContainsAny(string(t), "\t\r\n") {
			return fmt.Errorf("%w: %q", ErrBadTerm, t)
		}
	}
	return nil
}

// PairField returns the "a\tb" field naming an LCS record in key-value stores.
func PairField(r types.LCSRecord) string {
	return string(r.A) + "\t" + string(r.B)
}

// LCSValue returns the "score\tlcs" value of an LCS record in key-value stores.
func LCSValue(r types.LCSRecord) string {
	return FormatScore(r.Score) + "\t" + string(r.LCS)
}

// FormatLCS returns r as one TSV line without the newline.
func FormatLCS(r types.LCSRecord) (string, error) {
	if err := checkTerms(r.A, r.B, r.LCS); err != nil {
		return "", err
	}
	return PairField(r) + "\t" + LCSValue(r), nil
}

// ParseLCS parses one TSV line written by FormatLCS.
func ParseLCS(line string) (types.LCSRecord, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 4 {
		return types.LCSRecord{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}
	score, err := ParseScore(fields[2])
	if err != nil {
		return types.LCSRecord{}, err
	}
	r := types.LCSRecord{
		A:     types.Term(fields[0]),
		B:     types.Term(fields[1]),
		Score: score,
		LCS:   types.Term(fields[3]),
	}
	if err := checkTerms(r.A, r.B, r.LCS); err != nil {
		return types.LCSRecord{}, err
	}
	return r, nil
}

// FormatIC returns r as one TSV line without the newline.
func FormatIC(r types.ICRecord) (string, error) {
	if err := checkTerms(r.Term); err != nil {
		return "", err
	}
	return string(r.Term) + "\t" + FormatScore(r.IC), nil
}

// ParseIC parses one TSV line written by FormatIC.
func ParseIC(line string) (types.ICRecord, error) {
	term, value, ok := strings.Cut(line, "\t")
	if !ok || strings.Contains(value, "\t") {
		return types.ICRecord{}, errors.New("expected 2 fields")
	}
	ic, err := ParseScore(value)
	if err != nil {
		return types.ICRecord{}, err
	}
	if err := checkTerms(types.Term(term)); err != nil {
		return types.ICRecord{}, err
	}
	return types.ICRecord{Term: types.Term(term), IC: ic}, nil
}

// Rejects collects malformed lines so a load can report all of them at once.
type Rejects struct {
	source string
	lines  []int
	first  string
}

// NewRejects starts collecting rejects for source.
func NewRejects(source string) *Rejects {
	return &Rejects{source: source}
}

// Add records that line could not be parsed.
func (r *Rejects) Add(line int, err error) {
	if len(r.lines) == 0 {
		r.first = err.Error()
	}
	r.lines = append(r.lines, line)
}

// Len returns the number of rejected lines.
func (r *Rejects) Len() int {
	return len(r.lines)
}

// Err returns a *types.MalformedSnapshotError, or nil when nothing was rejected.
func (r *Rejects) Err() error {
	if len(r.lines) == 0 {
		return nil
	}
	return &types.MalformedSnapshotError{Source: r.source, Lines: r.lines, First: r.first}
}
