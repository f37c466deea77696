package models

import "testing"

func TestRiskLevelRaise(t *testing.T) {
	tests := []struct {
		from, to, want RiskLevel
	}{
		{RiskInfo, RiskWarning, RiskWarning},
		{RiskWarning, RiskInfo, RiskWarning},
		{RiskDanger, RiskWarning, RiskDanger},
		{RiskWarning, RiskDanger, RiskDanger},
		{RiskInfo, RiskInfo, RiskInfo},
	}
	for _, tc := range tests {
		if got := tc.from.Raise(tc.to); got != tc.want {
			t.Errorf("%s.Raise(%s) = %s, want %s", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestGeoRecordStatus(t *testing.T) {
	var nilRecord *GeoRecord
	if nilRecord.OK() || nilRecord.Failed() {
		t.Error("nil record must be neither OK nor failed")
	}

	tests := []struct {
		rec        *GeoRecord
		ok, failed bool
	}{
		{&GeoRecord{Status: GeoSuccess}, true, false},
		{&GeoRecord{Status: GeoFail}, false, true},
		{&GeoRecord{Status: GeoError}, false, true},
		{NewGeoSkipped("1.2.3.4", FailureQuota, ""), false, false},
	}
	for _, tc := range tests {
		if tc.rec.OK() != tc.ok || tc.rec.Failed() != tc.failed {
			t.Errorf("%s: OK=%v Failed=%v", tc.rec.Status, tc.rec.OK(), tc.rec.Failed())
		}
	}
}

func TestEndpointString(t *testing.T) {
	if got := (Endpoint{Address: "8.8.8.8", Port: 53}).String(); got != "8.8.8.8:53" {
		t.Errorf("got %q", got)
	}
	if got := (Endpoint{Address: "2001:db8::1", Port: 443}).String(); got != "[2001:db8::1]:443" {
		t.Errorf("got %q", got)
	}
}

func TestConnectionProcessName(t *testing.T) {
	if got := (Connection{}).ProcessName(); got != UnknownProcess {
		t.Errorf("empty process = %q", got)
	}
	if (Connection{Remote: &Endpoint{}}).HasRemote() {
		t.Error("endpoint without address is not a remote")
	}
}

func TestPortSetSorted(t *testing.T) {
	s := NewPortSet(443, 22, 993)
	got := s.Sorted()
	if len(got) != 3 || got[0] != 22 || got[2] != 993 {
		t.Errorf("Sorted = %v", got)
	}
	if !s.Contains(22) || s.Contains(80) {
		t.Error("Contains mismatch")
	}
}
