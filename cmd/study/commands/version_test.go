// ABOUTME: Tests for version command
// ABOUTME: Verifies version info display and SetVersion functionality
package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestVersionCmd_Output(t *testing.T) {
	original := versionInfo
	defer func() { versionInfo = original }()

	SetVersion("1.2.3", "abc123", "2026-01-31")

	cmd := NewVersionCmd()
	var output bytes.Buffer
	cmd.SetOut(&output)
	cmd.SetErr(&output)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	for _, expected := range []string{"study 1.2.3", "Commit: abc123", "Built:  2026-01-31"} {
		if !strings.Contains(output.String(), expected) {
			t.Errorf("Output should contain %q, got:\n%s", expected, output.String())
		}
	}
}

func TestSetVersion(t *testing.T) {
	original := versionInfo
	defer func() { versionInfo = original }()

	testCases := []struct {
		version string
		commit  string
		date    string
	}{
		{"1.0.0", "deadbeef", "2026-01-01"},
		{"dev", "none", "unknown"},
		{"2.0.0-beta", "1234567890abcdef", "2026-06-15T10:30:00Z"},
	}

	for _, tc := range testCases {
		t.Run(tc.version, func(t *testing.T) {
			SetVersion(tc.version, tc.commit, tc.date)
			want := VersionInfo{Version: tc.version, Commit: tc.commit, Date: tc.date}
			if versionInfo != want {
				t.Errorf("versionInfo = %+v, want %+v", versionInfo, want)
			}
		})
	}
}
