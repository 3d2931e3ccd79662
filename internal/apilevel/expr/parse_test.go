package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnoswap-labs/apigate/internal/apilevel"
)

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		src  string
		want apilevel.Set
	}{
		{
			name: "bare level",
			src:  "21",
			want: apilevel.SetOf(apilevel.AtLeast(apilevel.Platform, apilevel.Level(21))),
		},
		{
			name: "comparison",
			src:  "api >= 24",
			want: apilevel.SetOf(apilevel.AtLeast(apilevel.Platform, apilevel.Level(24))),
		},
		{
			name: "strict greater steps to next level",
			src:  "sdk > 23",
			want: apilevel.SetOf(apilevel.AtLeast(apilevel.Platform, apilevel.Level(24))),
		},
		{
			name: "minor aware",
			src:  "api >= 36.1",
			want: apilevel.SetOf(apilevel.AtLeast(apilevel.Platform, apilevel.Version{Major: 36, Minor: 1})),
		},
		{
			name: "any of",
			src:  "api >= 34 || ext(R) >= 4",
			want: apilevel.SetOf(
				apilevel.AtLeast(apilevel.Platform, apilevel.Level(34)),
				apilevel.AtLeast(30, apilevel.Level(4)),
			),
		},
		{
			name: "all of with numeric extension",
			src:  "api >= 30 && ext(1000000) >= 4",
			want: apilevel.SetOf(apilevel.And(
				apilevel.AtLeast(apilevel.Platform, apilevel.Level(30)),
				apilevel.AtLeast(apilevel.AdServices, apilevel.Level(4)),
			)),
		},
		{
			name: "grouping distributes",
			src:  "(api >= 30 || ext(S) >= 2) && api < 34",
			want: apilevel.SetOf(
				apilevel.Between(apilevel.Platform, apilevel.Level(30), apilevel.Level(34)),
				apilevel.And(
					apilevel.Below(apilevel.Platform, apilevel.Level(34)),
					apilevel.AtLeast(31, apilevel.Level(2)),
				),
			),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tt.src)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseKeepsEveryAlternative(t *testing.T) {
	t.Parallel()
	got, err := Parse("api == 21 || api == 23 || api == 25 || api == 27 || api == 29 || api == 31 || api == 33 || api == 35 || api == 37")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Len())
	met := func(level int) bool {
		ctx := apilevel.SetOf(apilevel.Exactly(apilevel.Platform, apilevel.Level(level), false))
		for _, alt := range got.Alternatives() {
			if ctx.Implies(alt) {
				return true
			}
		}
		return false
	}
	for _, level := range []int{22, 24, 36} {
		assert.False(t, met(level), "api %d", level)
	}
	assert.True(t, met(29))
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	_, err := Parse("  ")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse("api >=")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid requirement")

	_, err = Parse("ext(Q) >= 2")
	assert.EqualError(t, err, `unknown extension "Q"`)

	_, err = Parse("flavor >= 2")
	assert.EqualError(t, err, `unknown namespace "flavor"`)

	assert.Panics(t, func() { MustParse("&&") })
}
