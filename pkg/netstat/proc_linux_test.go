package netstat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gokaycavdar/go-netguard/pkg/models"
)

const tableHeader = "  sl  local_address rem_address   st tx_queue rx_queue tr tm->when retrnsmt   uid  timeout inode\n"

func row(local, remote, state, inode string) string {
	return "   0: " + local + " " + remote + " " + state +
		" 00000000:00000000 00:00000000 00000000  1000        0 " + inode + " 1 0000000000000000 100 0 0 10 0\n"
}

type fakeProc struct {
	t    *testing.T
	root string
}

func newFakeProc(t *testing.T) *fakeProc {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "net"), 0o755); err != nil {
		t.Fatal(err)
	}
	return &fakeProc{t: t, root: root}
}

func (f *fakeProc) table(name string, rows ...string) {
	f.t.Helper()
	content := tableHeader + strings.Join(rows, "")
	if err := os.WriteFile(filepath.Join(f.root, "net", name), []byte(content), 0o644); err != nil {
		f.t.Fatal(err)
	}
}

func (f *fakeProc) process(pid, comm string, inodes ...string) {
	f.t.Helper()
	fdDir := filepath.Join(f.root, pid, "fd")
	if err := os.MkdirAll(fdDir, 0o755); err != nil {
		f.t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(f.root, pid, "comm"), []byte(comm+"\n"), 0o644); err != nil {
		f.t.Fatal(err)
	}
	for i, inode := range inodes {
		link := filepath.Join(fdDir, string(rune('3'+i)))
		if err := os.Symlink("socket:["+inode+"]", link); err != nil {
			f.t.Fatal(err)
		}
	}
}

func TestProcEnumeratorParsesTables(t *testing.T) {
	fp := newFakeProc(t)
	fp.table("tcp",
		row("0100007F:1F90", "08080808:0D3D", "01", "12345"),
		row("00000000:0016", "00000000:0000", "0A", "222"),
		row("0501A8C0:C350", "0101A8C0:01BB", "08", "333"),
	)
	fp.table("tcp6",
		row("00000000000000000000000000000000:C350", "B80D0120000000000000000001000000:01BB", "06", "444"),
		row("00000000000000000000000000000000:C351", "0000000000000000FFFF000004030201:0050", "01", "555"),
	)
	fp.table("udp", row("0100007F:0035", "00000000:0000", "07", "666"))
	fp.process("4242", "curl", "12345")
	fp.process("99", "sshd", "222", "333")

	conns, err := (&ProcEnumerator{Root: fp.root}).Connections(context.Background())
	if err != nil {
		t.Fatalf("Connections: %v", err)
	}
	if len(conns) != 6 {
		t.Fatalf("got %d connections, want 6: %+v", len(conns), conns)
	}

	first := conns[0]
	if first.Protocol != models.ProtocolTCP || first.State != "ESTABLISHED" {
		t.Errorf("first = %+v", first)
	}
	if first.Local != (models.Endpoint{Address: "127.0.0.1", Port: 8080}) {
		t.Errorf("local = %+v", first.Local)
	}
	if first.Remote == nil || *first.Remote != (models.Endpoint{Address: "8.8.8.8", Port: 3389}) {
		t.Errorf("remote = %+v", first.Remote)
	}
	if first.PID != 4242 || first.Process != "curl" {
		t.Errorf("owner = %d/%s, want 4242/curl", first.PID, first.Process)
	}

	if listen := conns[1]; listen.Remote != nil || listen.State != "LISTEN" || listen.Process != "sshd" {
		t.Errorf("listening socket = %+v", listen)
	}
	if cw := conns[2]; cw.State != "CLOSE_WAIT" || cw.Remote.Address != "192.168.1.1" || cw.Remote.Port != 443 {
		t.Errorf("close_wait socket = %+v", cw)
	}
	if v6 := conns[3]; v6.Remote.Address != "2001:db8::1" || v6.State != "TIME_WAIT" {
		t.Errorf("ipv6 socket = %+v", v6)
	}
	if v6 := conns[3]; v6.Process != models.UnknownProcess || v6.PID != 0 {
		t.Errorf("unowned socket attributed to %d/%s", v6.PID, v6.Process)
	}
	if mapped := conns[4]; mapped.Remote.Address != "1.2.3.4" || mapped.Remote.Port != 80 {
		t.Errorf("mapped socket = %+v", mapped.Remote)
	}
	if udp := conns[5]; udp.Protocol != models.ProtocolUDP || udp.State != "NONE" || udp.Remote != nil {
		t.Errorf("udp socket = %+v", udp)
	}
}

func TestProcEnumeratorLimit(t *testing.T) {
	fp := newFakeProc(t)
	fp.table("tcp",
		row("0100007F:1F90", "08080808:01BB", "01", "1"),
		row("0100007F:1F91", "08080808:01BB", "01", "2"),
	)
	fp.table("udp",
		row("0100007F:0035", "08080808:0035", "07", "3"),
	)

	conns, err := (&ProcEnumerator{Root: fp.root, Limit: 2}).Connections(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(conns) != 2 {
		t.Fatalf("got %d connections, want 2", len(conns))
	}
	if conns[1].Local.Port != 0x1F91 {
		t.Errorf("limit kept the wrong rows: %+v", conns)
	}
}

func TestProcEnumeratorSkipsUnparsableTables(t *testing.T) {
	fp := newFakeProc(t)
	fp.table("tcp",
		"garbage\n",
		row("0100007F:1F90", "08080808:01BB", "01", "1"),
	)
	fp.table("udp", row("0100007F:0035", "08080808:0035", "07", "2"))

	conns, err := (&ProcEnumerator{Root: fp.root}).Connections(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(conns) != 1 || conns[0].Protocol != models.ProtocolUDP {
		t.Fatalf("got %+v, want only the udp socket", conns)
	}
}

func TestProcEnumeratorAllTablesUnparsable(t *testing.T) {
	fp := newFakeProc(t)
	fp.table("tcp", "garbage\n")

	_, err := (&ProcEnumerator{Root: fp.root}).Connections(context.Background())
	if KindOf(err) != ErrIO {
		t.Errorf("KindOf(%v) = %s, want io", err, KindOf(err))
	}
}

func TestProcEnumeratorMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "absent")
	_, err := NewDefault(root, 0).Connections(context.Background())
	if KindOf(err) != ErrUnsupported {
		t.Errorf("KindOf(%v) = %s, want unsupported", err, KindOf(err))
	}
}

func TestProcEnumeratorUnsupported(t *testing.T) {
	root := t.TempDir()
	_, err := (&ProcEnumerator{Root: root}).Connections(context.Background())

	var enumErr *EnumerationError
	if !errors.As(err, &enumErr) {
		t.Fatalf("expected EnumerationError, got %v", err)
	}
	if enumErr.Kind != ErrUnsupported {
		t.Errorf("kind = %s, want %s", enumErr.Kind, ErrUnsupported)
	}
	if KindOf(err) != ErrUnsupported {
		t.Errorf("KindOf = %s", KindOf(err))
	}
}

func TestProcEnumeratorPermission(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	fp := newFakeProc(t)
	fp.table("tcp", row("0100007F:1F90", "08080808:01BB", "01", "1"))
	if err := os.Chmod(filepath.Join(fp.root, "net", "tcp"), 0); err != nil {
		t.Fatal(err)
	}

	_, err := (&ProcEnumerator{Root: fp.root}).Connections(context.Background())
	if KindOf(err) != ErrPermission {
		t.Errorf("KindOf(%v) = %s, want permission", err, KindOf(err))
	}
}

func TestProcEnumeratorCanceled(t *testing.T) {
	fp := newFakeProc(t)
	fp.table("tcp", row("0100007F:1F90", "08080808:01BB", "01", "1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&ProcEnumerator{Root: fp.root}).Connections(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestTCPState(t *testing.T) {
	tests := map[uint64]string{
		0x01: "ESTABLISHED",
		0x08: "CLOSE_WAIT",
		0x0A: "LISTEN",
		0x0C: "NEW_SYN_RECV",
		0x00: "UNKNOWN",
		0x42: "UNKNOWN",
	}
	for code, want := range tests {
		if got := tcpState(code); got != want {
			t.Errorf("tcpState(%#x) = %s, want %s", code, got, want)
		}
	}
}
