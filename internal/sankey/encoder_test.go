package sankey

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEncoder(t *testing.T) {
	tests := []struct {
		name       string
		labels     []any
		wantLabels []any
	}{
		{
			name:       "empty",
			labels:     nil,
			wantLabels: []any{},
		},
		{
			name:       "duplicates collapse",
			labels:     []any{"b", "a", "b", "a"},
			wantLabels: []any{"a", "b"},
		},
		{
			name:       "mixed kinds sort by kind then value",
			labels:     []any{"x", 3, 2.5, true, nil, false, -1},
			wantLabels: []any{nil, false, true, int64(-1), 2.5, int64(3), "x"},
		},
		{
			name:       "integer widths merge",
			labels:     []any{int8(7), uint16(7), 7.0, decimal.NewFromInt(7)},
			wantLabels: []any{int64(7)},
		},
		{
			name:       "byte slices become strings",
			labels:     []any{[]byte("B11"), "B11"},
			wantLabels: []any{"B11"},
		},
		{
			name:       "NaN is the null label",
			labels:     []any{math.NaN(), nil},
			wantLabels: []any{nil},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := NewEncoder(tt.labels)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabels, enc.Labels())
			assert.Equal(t, len(tt.wantLabels), enc.Len())

			for code, label := range enc.Labels() {
				got, ok := enc.Code(label)
				require.True(t, ok, "label %v has no code", label)
				assert.Equal(t, code, got)

				back, ok := enc.Label(code)
				require.True(t, ok)
				assert.Equal(t, label, back)
			}
		})
	}
}

func TestEncoder_UnknownLabel(t *testing.T) {
	enc, err := NewEncoder([]any{"a"})
	require.NoError(t, err)

	_, ok := enc.Code("b")
	assert.False(t, ok)
	_, ok = enc.Label(1)
	assert.False(t, ok)
	_, ok = enc.Label(-1)
	assert.False(t, ok)
}

func TestEncoder_LabelsIsACopy(t *testing.T) {
	enc, err := NewEncoder([]any{"a", "b"})
	require.NoError(t, err)

	labels := enc.Labels()
	labels[0] = "z"
	assert.Equal(t, []any{"a", "b"}, enc.Labels())
}

func TestNewEncoder_InvalidLabel(t *testing.T) {
	_, err := NewEncoder([]any{"a", map[string]int{"b": 1}})
	require.ErrorIs(t, err, ErrInvalidLabel)
}

type boxLabel struct{ N int }

func TestBuild_AlikePointerLabelsAreDeterministic(t *testing.T) {
	p1, p2 := &boxLabel{1}, &boxLabel{1}
	rows := []Row{
		{"a": p1, "b": "x", "n": 1},
		{"a": p2, "b": "x", "n": 2},
	}

	first, err := Build(rows, []string{"a", "b"}, "n")
	require.NoError(t, err)
	require.Len(t, first.Labels, 3)

	for i := 0; i < 100; i++ {
		g, err := Build(rows, []string{"a", "b"}, "n")
		require.NoError(t, err)
		require.Equal(t, first.Labels, g.Labels, "iteration %d", i)
		require.Equal(t, first.Links, g.Links, "iteration %d", i)
	}
}

func TestCompareLabels_AlikeValuesAreOrdered(t *testing.T) {
	p1, p2 := &boxLabel{1}, &boxLabel{1}
	assert.NotZero(t, compareLabels(p1, p2))
	assert.Equal(t, -compareLabels(p1, p2), compareLabels(p2, p1))
	assert.Zero(t, compareLabels(p1, p1))

	s1, s2 := wrapped{P: p1}, wrapped{P: p2}
	assert.NotZero(t, compareLabels(s1, s2))
	assert.Zero(t, compareLabels(s1, s1))
}

type wrapped struct{ P *boxLabel }

func TestEncoder_DenseCodes(t *testing.T) {
	labels := []any{"k", "c", "q", "a", "z", "c", "k"}
	enc, err := NewEncoder(labels)
	require.NoError(t, err)

	codes := make([]int, 0, enc.Len())
	for _, l := range labels {
		c, ok := enc.Code(l)
		require.True(t, ok)
		if !slices.Contains(codes, c) {
			codes = append(codes, c)
		}
	}
	slices.Sort(codes)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, codes)
}

func TestCompareLabels_Times(t *testing.T) {
	early := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	a, err := normalizeLabel(early)
	require.NoError(t, err)
	b, err := normalizeLabel(late.In(time.FixedZone("EST", -5*3600)))
	require.NoError(t, err)

	assert.Negative(t, compareLabels(a, b))
	assert.Positive(t, compareLabels(b, a))
	assert.Zero(t, compareLabels(a, a))
	assert.Positive(t, compareLabels(a, "2020"))
}

func TestNormalizeLabel_LargeUnsigned(t *testing.T) {
	got, err := normalizeLabel(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), got)

	big, err := normalizeLabel(int64(math.MaxInt64))
	require.NoError(t, err)
	assert.Negative(t, compareLabels(big, got))
}
