package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveHeads_BucketsLinesNewestFirst(t *testing.T) {
	tags := []string{"2.0.0", "2.1.2", "2.1.3", "1.0.0", "1.1.0", "0.1.0", "0.0.1", "0.0.3"}

	heads := ResolveHeads(tags)

	require.Len(t, heads, 5)
	require.Equal(t, "v2", heads[0].Head)
	require.Equal(t, "2.1.3", heads[0].Version)
	require.True(t, heads[0].IsLatest)
	require.Equal(t, "v1", heads[1].Head)
	require.Equal(t, "1.1.0", heads[1].Version)
	require.Equal(t, "v0.1", heads[2].Head)
	require.Equal(t, "0.1.0", heads[2].Version)
	require.Equal(t, "v0.0.3", heads[3].Head)
	require.Equal(t, "0.0.3", heads[3].Version)
	require.Equal(t, "v0.0.1", heads[4].Head)
	require.Equal(t, "0.0.1", heads[4].Version)
}

func TestResolveHeads_ExactlyOneLatest(t *testing.T) {
	inputs := [][]string{
		{"1.0.0"},
		{"v1.0.0", "v2.0.0"},
		{"0.0.1", "0.1.0", "1.2.3", "3.0.0", "2.9.9"},
	}

	for _, tags := range inputs {
		heads := ResolveHeads(tags)
		require.NotEmpty(t, heads)

		latest := 0
		for _, h := range heads {
			if h.IsLatest {
				latest++
			}
		}
		require.Equal(t, 1, latest)
		require.True(t, heads[0].IsLatest)
	}
}

func TestResolveHeads_EmptyInput_YieldsEmptySlice(t *testing.T) {
	require.Empty(t, ResolveHeads(nil))
	require.Empty(t, ResolveHeads([]string{}))
}

func TestResolveHeads_FiltersMalformedTags(t *testing.T) {
	heads := ResolveHeads([]string{"not-a-version", "v1.2", "1.0.0-beta.1", "2.0.0"})

	require.Len(t, heads, 1)
	require.Equal(t, "v2", heads[0].Head)
	require.Equal(t, "2.0.0", heads[0].Version)
}

func TestResolveHeads_PreservesOriginalTagForPinning(t *testing.T) {
	heads := ResolveHeads([]string{"v2.1.3", "1.0.0"})

	require.Equal(t, "v2.1.3", heads[0].Tag)
	require.Equal(t, "1.0.0", heads[1].Tag)
}

func TestFind_KnownAndUnknownHeads(t *testing.T) {
	heads := ResolveHeads([]string{"1.0.0", "2.0.0"})

	head, ok := Find(heads, "v1")
	require.True(t, ok)
	require.Equal(t, "1.0.0", head.Version)

	_, ok = Find(heads, "v9")
	require.False(t, ok)
}
