package services

import (
	"net"
	"sync"
)

// AddressPool hands out mutually exclusive multicast group addresses for
// document chat channels from the organization-local scope
// (239.0.0.0 - 239.255.255.255) and reclaims them when the last editor
// of a document leaves.
type AddressPool struct {
	mu     sync.Mutex
	held   map[[4]byte]struct{}
	cursor int // offset of the last scan position into the space
	space  int // scan space size, 256^3 except in tests
}

// NewAddressPool creates an empty pool with the cursor at 239.0.0.0.
func NewAddressPool() *AddressPool {
	return &AddressPool{
		held:  make(map[[4]byte]struct{}),
		space: 256 * 256 * 256,
	}
}

// Allocate reserves and returns the first free group address at or after
// the cursor, wrapping around once. Returns ErrExhausted when every
// address in the space is already held.
func (p *AddressPool) Allocate() (net.IP, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < p.space; i++ {
		key := p.addressAt(p.cursor)
		p.cursor = (p.cursor + 1) % p.space
		if _, taken := p.held[key]; !taken {
			p.held[key] = struct{}{}
			return net.IPv4(key[0], key[1], key[2], key[3]), nil
		}
	}
	return nil, ErrExhausted
}

// Free releases an address back to the pool. Freeing an address that is
// not held is a no-op.
func (p *AddressPool) Free(addr net.IP) {
	ip4 := addr.To4()
	if ip4 == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.held, [4]byte{ip4[0], ip4[1], ip4[2], ip4[3]})
}

// Held returns the number of currently reserved addresses.
func (p *AddressPool) Held() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.held)
}

// addressAt maps an offset to its 239.c.b.a group address, least
// significant octet varying fastest.
func (p *AddressPool) addressAt(offset int) [4]byte {
	return [4]byte{239, byte(offset >> 16), byte(offset >> 8), byte(offset)}
}
