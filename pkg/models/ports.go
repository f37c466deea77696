package models

import "sort"

// PortSet is a fixed table of remote ports used as a classification heuristic.
type PortSet map[int]struct{}

// NewPortSet builds a set from the given ports.
func NewPortSet(ports ...int) PortSet {
	s := make(PortSet, len(ports))
	for _, p := range ports {
		s[p] = struct{}{}
	}
	return s
}

// Contains reports membership.
func (s PortSet) Contains(port int) bool {
	_, ok := s[port]
	return ok
}

// Sorted returns the ports in ascending order.
func (s PortSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// DefaultSuspiciousPorts are ports historically associated with backdoors,
// malware and insecure remote-access services.
var DefaultSuspiciousPorts = []int{23, 69, 1337, 4444, 5555, 6667, 8081, 1433, 3389}

// DefaultSecurePorts are ports of services that are encrypted end to end.
var DefaultSecurePorts = []int{22, 443, 993, 995, 5061}
