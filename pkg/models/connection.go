package models

import (
	"net"
	"strconv"
)

// Protocol is the transport of a connection.
type Protocol string

const (
	ProtocolTCP Protocol = "TCP"
	ProtocolUDP Protocol = "UDP"
)

// UnknownProcess is reported when the owning process cannot be attributed.
const UnknownProcess = "unknown"

// Endpoint is one side of a connection.
type Endpoint struct {
	Address string `json:"address"`
	Port    int    `json:"port"`
}

// String renders the endpoint as host:port, bracketing IPv6 literals.
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Address, strconv.Itoa(e.Port))
}

// Connection is a single observation taken from the connection enumerator.
//
// Remote is nil for listening or otherwise unconnected sockets; those carry no
// remote risk signal and are dropped before classification.
type Connection struct {
	Protocol Protocol  `json:"protocol"`
	Local    Endpoint  `json:"local"`
	Remote   *Endpoint `json:"remote,omitempty"`
	State    string    `json:"state"`
	PID      int       `json:"pid,omitempty"`
	Process  string    `json:"process"`
}

// HasRemote reports whether the connection has a usable remote endpoint.
func (c Connection) HasRemote() bool {
	return c.Remote != nil && c.Remote.Address != ""
}

// ProcessName returns the attributed process name or the UnknownProcess sentinel.
func (c Connection) ProcessName() string {
	if c.Process == "" {
		return UnknownProcess
	}
	return c.Process
}
