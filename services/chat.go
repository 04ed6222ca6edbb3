package services

import (
	"fmt"
	"net"
	"sync"

	"Turing/internal"
)

// GroupChannel is the ephemeral group-messaging endpoint of a document.
// It exists only while at least one user is editing the document and
// transmits chat datagrams to the document's multicast group. The
// socket is dialed on first send, so holding an address never depends
// on the local network setup.
type GroupChannel struct {
	addr net.IP

	mu   sync.Mutex
	conn *net.UDPConn
}

// NewGroupChannel creates a channel toward the group address on the
// chat port.
func NewGroupChannel(addr net.IP) *GroupChannel {
	return &GroupChannel{addr: addr}
}

// Send formats "<user>: <text>", truncates it to the transport MTU and
// transmits it as one datagram.
func (g *GroupChannel) Send(text, fromUsername string) error {
	msg := fromUsername + ": " + text
	if len(msg) > internal.MTU {
		msg = msg[:internal.MTU]
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: g.addr, Port: internal.ChatPort})
		if err != nil {
			return fmt.Errorf("failed to open group channel on %s: %w", g.addr, err)
		}
		g.conn = conn
	}
	if _, err := g.conn.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to send chat message: %w", err)
	}
	return nil
}

// Close releases the underlying socket, if one was dialed.
func (g *GroupChannel) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conn == nil {
		return nil
	}
	err := g.conn.Close()
	g.conn = nil
	return err
}
