package codec

import (
	"errors"
	"math"
	"testing"

	"github.com/botirk38/semsim/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLCSLine(t *testing.T) {
	r := types.LCSRecord{A: "Bird", B: "Dog", Score: 0.4150374992788438, LCS: "Animal"}

	line, err := FormatLCS(r)
	require.NoError(t, err)
	assert.Equal(t, "Bird\tDog\t0.4150374992788438\tAnimal", line)

	got, err := ParseLCS(line)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestICLine(t *testing.T) {
	r := types.ICRecord{Term: "Dog", IC: 1.0 / 3.0}

	line, err := FormatIC(r)
	require.NoError(t, err)
	got, err := ParseIC(line)
	require.NoError(t, err)
	assert.Equal(t, r, got, "scores must round-trip exactly")
}

func TestRejectsBadLines(t *testing.T) {
	lcs := []string{
		"A\tB\t1",
		"A\tB\tx\tC",
		"A\tB\tNaN\tC",
		"\tB\t1\tC",
	}
	for _, line := range lcs {
		_, err := ParseLCS(line)
		assert.Error(t, err, line)
	}

	ic := []string{"Dog", "Dog\t1\t2", "Dog\tone", "\t1"}
	for _, line := range ic {
		_, err := ParseIC(line)
		assert.Error(t, err, line)
	}

	_, err := FormatLCS(types.LCSRecord{A: "a\tb", B: "c", LCS: "d"})
	assert.ErrorIs(t, err, ErrBadTerm)
}

func TestParseScoreInfinity(t *testing.T) {
	f, err := ParseScore(FormatScore(math.Inf(1)))
	require.NoError(t, err)
	assert.True(t, math.IsInf(f, 1))
}

func TestRejects(t *testing.T) {
	r := NewRejects("lcs.tsv")
	assert.NoError(t, r.Err())

	r.Add(3, errors.New("expected 4 fields, got 3"))
	r.Add(7, errors.New("bad score"))
	assert.Equal(t, 2, r.Len())

	err := r.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMalformedSnapshot)

	var malformed *types.MalformedSnapshotError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, []int{3, 7}, malformed.Lines)
	assert.Contains(t, err.Error(), "first at line 3: expected 4 fields")
}
