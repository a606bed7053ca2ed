package lpm

import "net/netip"

// netip convenience wrappers. IPv4 values are stored as IPv4-mapped IPv6,
// so a /24 becomes a /120 in the 128-bit key space and v4 and v6 routes can
// share one table.

func prefixKey(p netip.Prefix) (addr [LevelMax]byte, masklen int, err error) {
	if !p.IsValid() {
		return addr, 0, ErrInvalid
	}
	bits := p.Bits()
	if p.Addr().Is4() {
		bits += 96
	}
	return p.Addr().As16(), bits, nil
}

// AddPrefix inserts the prefix with the given payload. See Add.
func (t *Table[V]) AddPrefix(p netip.Prefix, value V) error {
	addr, masklen, err := prefixKey(p)
	if err != nil {
		return err
	}
	return t.Add(addr[:], masklen, value)
}

// UpdatePrefix overwrites the payload of an existing prefix. See Update.
func (t *Table[V]) UpdatePrefix(p netip.Prefix, value V) error {
	addr, masklen, err := prefixKey(p)
	if err != nil {
		return err
	}
	return t.Update(addr[:], masklen, value)
}

// DeletePrefix removes the prefix. See Delete.
func (t *Table[V]) DeletePrefix(p netip.Prefix) error {
	addr, masklen, err := prefixKey(p)
	if err != nil {
		return err
	}
	return t.Delete(addr[:], masklen)
}

// FindPrefix returns the payload stored exactly at the prefix.
func (t *Table[V]) FindPrefix(p netip.Prefix) (V, bool) {
	addr, masklen, err := prefixKey(p)
	if err != nil {
		var zero V
		return zero, false
	}
	return t.FindExact(addr[:], masklen)
}

// UpdateDefaultPrefix promotes the payload stored at the prefix into the
// default slot. See UpdateDefault.
func (t *Table[V]) UpdateDefaultPrefix(p netip.Prefix) error {
	addr, masklen, err := prefixKey(p)
	if err != nil {
		return err
	}
	return t.UpdateDefault(addr[:], masklen)
}

// LookupAddr returns the payload of the longest stored prefix matching the
// address. See Search.
func (t *Table[V]) LookupAddr(ip netip.Addr) (value V, usedDefault bool, ok bool) {
	if !ip.IsValid() {
		return value, false, false
	}
	addr := ip.As16()
	return t.Search(addr[:])
}
