package netstat

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/prometheus/procfs"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

type socketTable struct {
	name     string
	protocol models.Protocol
	read     func(procfs.FS) ([]socketLine, error)
}

// socketLine is the subset of a procfs socket row we use.
type socketLine struct {
	localAddr  net.IP
	localPort  uint64
	remoteAddr net.IP
	remotePort uint64
	state      uint64
	inode      uint64
}

var socketTables = []socketTable{
	{"tcp", models.ProtocolTCP, func(fs procfs.FS) ([]socketLine, error) {
		rows, err := fs.NetTCP()
		return tcpLines(rows), err
	}},
	{"tcp6", models.ProtocolTCP, func(fs procfs.FS) ([]socketLine, error) {
		rows, err := fs.NetTCP6()
		return tcpLines(rows), err
	}},
	{"udp", models.ProtocolUDP, func(fs procfs.FS) ([]socketLine, error) {
		rows, err := fs.NetUDP()
		return udpLines(rows), err
	}},
	{"udp6", models.ProtocolUDP, func(fs procfs.FS) ([]socketLine, error) {
		rows, err := fs.NetUDP6()
		return udpLines(rows), err
	}},
}

func tcpLines(rows procfs.NetTCP) []socketLine {
	out := make([]socketLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, socketLine{r.LocalAddr, r.LocalPort, r.RemAddr, r.RemPort, r.St, r.Inode})
	}
	return out
}

func udpLines(rows procfs.NetUDP) []socketLine {
	out := make([]socketLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, socketLine{r.LocalAddr, r.LocalPort, r.RemAddr, r.RemPort, r.St, r.Inode})
	}
	return out
}

// udpState is reported for datagram sockets, which have no connection state.
const udpState = "NONE"

// ProcEnumerator reads connections from the Linux /proc/net socket tables and
// attributes them to processes through /proc/<pid>/fd.
type ProcEnumerator struct {
	// Root is the procfs mount point. Empty means DefaultProcRoot.
	Root string
	// Limit caps the number of sockets returned. Zero or less means DefaultLimit.
	Limit int
}

// Connections implements Enumerator. Tables that are missing or unparsable
// are skipped; the call fails only when none of them can be read.
func (p *ProcEnumerator) Connections(ctx context.Context) ([]models.Connection, error) {
	root := p.Root
	if root == "" {
		root = DefaultProcRoot
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	if _, err := os.Stat(root); err != nil {
		return nil, wrapFSError(err)
	}
	fs, err := procfs.NewFS(root)
	if err != nil {
		return nil, &EnumerationError{Kind: ErrIO, Err: err}
	}

	owners := socketOwners(fs)
	names := make(map[int]string)

	var (
		conns    []models.Connection
		firstErr error
		readable int
	)
	for _, table := range socketTables {
		if err := ctx.Err(); err != nil {
			return nil, &EnumerationError{Kind: ErrIO, Err: err}
		}
		if len(conns) >= limit {
			break
		}

		lines, err := table.read(fs)
		if err != nil {
			enumErr := wrapFSError(fmt.Errorf("reading %s: %w", table.name, err))
			if enumErr.Kind == ErrPermission {
				return nil, enumErr
			}
			if firstErr == nil {
				firstErr = enumErr
			}
			continue
		}
		readable++

		for _, line := range lines {
			if len(conns) >= limit {
				break
			}
			c, ok := toConnection(line, table.protocol)
			if !ok {
				continue
			}
			if pid, ok := owners[line.inode]; ok {
				c.PID = pid
				c.Process = processName(fs, pid, names)
			} else {
				c.Process = models.UnknownProcess
			}
			conns = append(conns, c)
		}
	}

	if readable == 0 && firstErr != nil {
		var enumErr *EnumerationError
		if errors.As(firstErr, &enumErr) {
			return nil, enumErr
		}
		return nil, &EnumerationError{Kind: ErrIO, Err: firstErr}
	}
	return conns, nil
}

func toConnection(line socketLine, protocol models.Protocol) (models.Connection, bool) {
	local, ok := toAddr(line.localAddr)
	if !ok {
		return models.Connection{}, false
	}
	remote, ok := toAddr(line.remoteAddr)
	if !ok {
		return models.Connection{}, false
	}

	c := models.Connection{
		Protocol: protocol,
		Local:    models.Endpoint{Address: local.String(), Port: int(line.localPort)},
		State:    udpState,
	}
	if !remote.IsUnspecified() || line.remotePort != 0 {
		c.Remote = &models.Endpoint{Address: remote.String(), Port: int(line.remotePort)}
	}
	if protocol == models.ProtocolTCP {
		c.State = tcpState(line.state)
	}
	return c, true
}

func toAddr(ip net.IP) (netip.Addr, bool) {
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

var tcpStates = map[uint64]string{
	0x01: "ESTABLISHED",
	0x02: "SYN_SENT",
	0x03: "SYN_RECV",
	0x04: "FIN_WAIT1",
	0x05: "FIN_WAIT2",
	0x06: "TIME_WAIT",
	0x07: "CLOSE",
	0x08: "CLOSE_WAIT",
	0x09: "LAST_ACK",
	0x0A: "LISTEN",
	0x0B: "CLOSING",
	0x0C: "NEW_SYN_RECV",
}

func tcpState(code uint64) string {
	if s, ok := tcpStates[code]; ok {
		return s
	}
	return "UNKNOWN"
}

// socketOwners maps socket inodes to the pid holding them. Processes we are
// not allowed to inspect are silently skipped.
func socketOwners(fs procfs.FS) map[uint64]int {
	owners := make(map[uint64]int)
	procs, err := fs.AllProcs()
	if err != nil {
		return owners
	}
	for _, proc := range procs {
		targets, err := proc.FileDescriptorTargets()
		if err != nil {
			continue
		}
		for _, target := range targets {
			raw, ok := strings.CutPrefix(target, "socket:[")
			if !ok {
				continue
			}
			inode, err := strconv.ParseUint(strings.TrimSuffix(raw, "]"), 10, 64)
			if err != nil {
				continue
			}
			owners[inode] = proc.PID
		}
	}
	return owners
}

func processName(fs procfs.FS, pid int, cache map[int]string) string {
	if name, ok := cache[pid]; ok {
		return name
	}
	name := models.UnknownProcess
	if proc, err := fs.Proc(pid); err == nil {
		if comm, err := proc.Comm(); err == nil && comm != "" {
			name = comm
		}
	}
	cache[pid] = name
	return name
}
