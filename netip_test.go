package lpm

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixKey(t *testing.T) {
	tests := []struct {
		prefix  string
		masklen int
	}{
		// IPv4 prefixes land in the mapped-v6 key space.
		{prefix: "10.0.0.0/8", masklen: 104},
		{prefix: "0.0.0.0/0", masklen: 96},
		{prefix: "2001:db8::/32", masklen: 32},
		{prefix: "::/0", masklen: 0},
	}

	for _, tc := range tests {
		t.Run(tc.prefix, func(t *testing.T) {
			p := netip.MustParsePrefix(tc.prefix)
			addr, masklen, err := prefixKey(p)
			require.NoError(t, err)
			require.Equal(t, tc.masklen, masklen)
			require.Equal(t, p.Addr().As16(), addr)
		})
	}

	_, _, err := prefixKey(netip.Prefix{})
	require.ErrorIs(t, err, ErrInvalid)
}

func TestPrefixAPI(t *testing.T) {
	table := newTestTable(t)

	require.NoError(t, table.AddPrefix(netip.MustParsePrefix("10.0.0.0/8"), "X"))
	require.NoError(t, table.AddPrefix(netip.MustParsePrefix("10.1.0.0/16"), "Y"))
	require.NoError(t, table.AddPrefix(netip.MustParsePrefix("2001:db8::/32"), "six"))

	v, usedDefault, ok := table.LookupAddr(netip.MustParseAddr("10.1.2.3"))
	require.True(t, ok)
	require.False(t, usedDefault)
	require.Equal(t, "Y", v)

	v, _, ok = table.LookupAddr(netip.MustParseAddr("10.200.0.1"))
	require.True(t, ok)
	require.Equal(t, "X", v)

	v, _, ok = table.LookupAddr(netip.MustParseAddr("2001:db8::1"))
	require.True(t, ok)
	require.Equal(t, "six", v)

	_, _, ok = table.LookupAddr(netip.MustParseAddr("192.0.2.1"))
	require.False(t, ok)

	v, ok = table.FindPrefix(netip.MustParsePrefix("10.1.0.0/16"))
	require.True(t, ok)
	require.Equal(t, "Y", v)

	require.NoError(t, table.UpdatePrefix(netip.MustParsePrefix("10.1.0.0/16"), "Y2"))
	v, _, _ = table.LookupAddr(netip.MustParseAddr("10.1.2.3"))
	require.Equal(t, "Y2", v)

	require.NoError(t, table.DeletePrefix(netip.MustParsePrefix("10.1.0.0/16")))
	v, _, ok = table.LookupAddr(netip.MustParseAddr("10.1.2.3"))
	require.True(t, ok)
	require.Equal(t, "X", v)

	// A v4 default route is a /96 in the mapped key space: it matches every
	// v4-mapped address without touching the default slot.
	require.NoError(t, table.AddPrefix(netip.MustParsePrefix("0.0.0.0/0"), "gw"))
	v, usedDefault, ok = table.LookupAddr(netip.MustParseAddr("192.0.2.1"))
	require.True(t, ok)
	require.False(t, usedDefault)
	require.Equal(t, "gw", v)
}
