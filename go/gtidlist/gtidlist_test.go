package gtidlist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	for _, text := range []string{"", "0-1-100", "0-1-100,1-1-50"} {
		list, err := Parse(text)
		require.NoError(t, err)
		other, err := Parse(list.String())
		require.NoError(t, err)
		require.True(t, list.Equals(other), "round trip mismatch for %q: got %q", text, list.String())
	}
}

func TestParseTwoEntries(t *testing.T) {
	list, err := Parse("0-1-100,1-1-50")
	require.NoError(t, err)
	require.Len(t, list.Domains(), 2)
	t0, ok := list.Get(0)
	require.True(t, ok)
	require.Equal(t, uint64(100), t0.Sequence)
}

func TestEventsAheadIgnore(t *testing.T) {
	a := MustParse("0-1-100")
	b := MustParse("0-1-90")
	require.Equal(t, uint64(10), a.EventsAhead(b, MissingDomainIgnore))
}

func TestEventsAheadZeroWhenBehind(t *testing.T) {
	a := MustParse("0-1-90")
	b := MustParse("0-1-100")
	require.Equal(t, uint64(0), a.EventsAhead(b, MissingDomainIgnore))
}

func TestEventsAheadMissingDomainPolicies(t *testing.T) {
	a := MustParse("0-1-100,2-1-30")
	b := MustParse("0-1-100")
	require.Equal(t, uint64(0), a.EventsAhead(b, MissingDomainIgnore))
	require.Equal(t, uint64(30), a.EventsAhead(b, MissingDomainSubtract))
}

func TestEventsAheadMonotoneProperty(t *testing.T) {
	// events_ahead(a, b, IGNORE) == 0 iff for every shared domain a.seq <= b.seq
	a := MustParse("0-1-10,1-1-5")
	b := MustParse("0-1-20,1-1-5")
	require.Equal(t, uint64(0), a.EventsAhead(b, MissingDomainIgnore))

	c := MustParse("0-1-21,1-1-5")
	require.NotEqual(t, uint64(0), c.EventsAhead(b, MissingDomainIgnore))
}

func TestEmptyStringParsesToEmptyList(t *testing.T) {
	list, err := Parse("")
	require.NoError(t, err)
	require.True(t, list.IsEmpty())
}

func TestCanReplicateFromEmptyAlwaysTrue(t *testing.T) {
	nonEmpty := MustParse("0-1-100")
	require.True(t, Empty().CanReplicateFrom(nonEmpty))
}

func TestCanReplicateFrom(t *testing.T) {
	self := MustParse("0-1-100,1-1-5")
	master := MustParse("0-1-100,1-1-10")
	require.True(t, self.CanReplicateFrom(master))

	behindMaster := MustParse("0-1-100,1-1-4")
	require.False(t, self.CanReplicateFrom(behindMaster))
}

func TestMalformedInputTolerated(t *testing.T) {
	list, err := Parse("not-a-gtid-list")
	require.Error(t, err)
	require.True(t, list.IsEmpty())

	// MustParse never errors; it degrades to empty.
	require.True(t, MustParse("garbage").IsEmpty())
}

func TestEqualsIgnoresInsertionOrder(t *testing.T) {
	a := MustParse("0-1-10,1-2-20")
	b := MustParse("1-2-20,0-1-10")
	require.True(t, a.Equals(b))
}
