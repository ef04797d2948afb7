package consent

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	tests := []struct {
		name string
		code string
		want Flags
	}{
		{
			name: "everything granted",
			code: "n=1;p=1;s=1;m=1",
			want: Flags{Preferences: true, Statistics: true, StatisticsAnonymous: true, Marketing: true},
		},
		{
			name: "only necessary",
			code: "n=1;p=0;s=0;m=0",
			want: Flags{},
		},
		{
			name: "statistics without marketing keeps anonymous statistics",
			code: "n=1;p=1;s=1;m=0",
			want: Flags{Preferences: true, Statistics: true, StatisticsAnonymous: true},
		},
		{
			name: "marketing only",
			code: "n=1;p=0;s=0;m=1",
			want: Flags{Marketing: true},
		},
		{
			name: "surrounding whitespace is ignored",
			code: "  n=1;p=1;s=0;m=0 ",
			want: Flags{Preferences: true},
		},
	}

	r := NewResolver(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.code)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Resolve(%q) mismatch (-want +got):\n%s", tt.code, diff)
			}
		})
	}
}

func TestResolveOverrideMergesPerFlag(t *testing.T) {
	r := NewResolver(Override{
		"n=1;p=1;s=1;m=1": {FlagMarketing: false},
	})

	got, err := r.Resolve("n=1;p=1;s=1;m=1")
	require.NoError(t, err)
	assert.Equal(t, Flags{Preferences: true, Statistics: true, StatisticsAnonymous: true, Marketing: false}, got)

	// Codes without an override keep the whole default entry.
	got, err = r.Resolve("n=1;p=0;s=1;m=0")
	require.NoError(t, err)
	assert.Equal(t, DefaultMapping["n=1;p=0;s=1;m=0"], got)
}

func TestResolveOverrideIgnoresUnknownFlags(t *testing.T) {
	r := NewResolver(Override{
		"n=1;p=0;s=0;m=0": {"functional": true, FlagPreferences: true},
	})

	got, err := r.Resolve("n=1;p=0;s=0;m=0")
	require.NoError(t, err)
	assert.Equal(t, Flags{Preferences: true}, got)
}

func TestResolveUnknownCode(t *testing.T) {
	r := NewResolver(nil)

	_, err := r.Resolve("n=1;p=2;s=0;m=0")
	require.ErrorIs(t, err, ErrUnknownSignature)

	assert.Equal(t, DenyAll, r.ResolveOrDenyAll("bogus"))
}

func TestResolveOverrideOnlyCode(t *testing.T) {
	r := NewResolver(Override{
		"custom": {FlagStatistics: true},
	})

	got, err := r.Resolve("custom")
	require.NoError(t, err)
	assert.Equal(t, Flags{Statistics: true}, got)
}

func TestMappingIsComplete(t *testing.T) {
	r := NewResolver(Override{
		"n=1;p=0;s=0;m=0": {FlagMarketing: true},
	})

	m := r.Mapping()
	assert.Len(t, m, len(DefaultMapping))
	assert.True(t, m["n=1;p=0;s=0;m=0"].Marketing)
	assert.Equal(t, DefaultMapping["n=1;p=1;s=0;m=1"], m["n=1;p=1;s=0;m=1"])
}

func TestResolverDoesNotAliasOverrides(t *testing.T) {
	o := Override{"n=1;p=1;s=1;m=1": {FlagMarketing: false}}
	r := NewResolver(o)
	o["n=1;p=1;s=1;m=1"][FlagMarketing] = true

	got, err := r.Resolve("n=1;p=1;s=1;m=1")
	require.NoError(t, err)
	assert.False(t, got.Marketing)
}
