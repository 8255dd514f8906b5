package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func restore(t *testing.T) {
	v, c, b := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = v, c, b })
}

func TestGet_LinkerFlags(t *testing.T) {
	restore(t)
	Version, GitCommit, BuildTime = "1.4.0", "abc1234def", "2024-01-15T10:30:00Z"

	info := Get()
	if info.Version != "1.4.0" || info.GitCommit != "abc1234" {
		t.Errorf("unexpected info %+v", info)
	}
	if !info.BuildDate.Equal(time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected build date %v", info.BuildDate)
	}
	if info.GoVersion == "" || !strings.Contains(info.Platform, "/") {
		t.Errorf("runtime fields missing: %+v", info)
	}
}

func TestApplyBuildSettings(t *testing.T) {
	info := Info{Version: "dev"}
	applyBuildSettings(&info, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.modified", Value: "true"},
		{Key: "vcs.time", Value: "2024-03-09T08:00:00Z"},
	})
	if info.GitCommit != "0123456789abcdef" || !info.Dirty || info.BuildDate.IsZero() {
		t.Errorf("unexpected info %+v", info)
	}

	pinned := Info{GitCommit: "feedbee", BuildDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	applyBuildSettings(&pinned, []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2024-03-09T08:00:00Z"},
	})
	if pinned.GitCommit != "feedbee" || pinned.BuildDate.Year() != 2020 {
		t.Errorf("linker values must win, got %+v", pinned)
	}
}

func TestInfo_Strings(t *testing.T) {
	tests := []struct {
		info    Info
		short   string
		release bool
	}{
		{Info{Version: "dev"}, "dev", false},
		{Info{Version: "1.4.0"}, "1.4.0", true},
		{Info{Version: "1.4.0", GitCommit: "abc1234"}, "1.4.0-abc1234", true},
		{Info{Version: "1.4.0", GitCommit: "abc1234", Dirty: true}, "1.4.0-abc1234-dirty", false},
	}
	for _, tc := range tests {
		if got := tc.info.Short(); got != tc.short {
			t.Errorf("Short() = %q, want %q", got, tc.short)
		}
		if got := tc.info.IsRelease(); got != tc.release {
			t.Errorf("%s: IsRelease() = %v", tc.short, got)
		}
	}

	full := Info{Version: "1.4.0", GoVersion: "go1.26.0", Platform: "linux/amd64",
		BuildDate: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}.String()
	if full != "flowforge 1.4.0 (go1.26.0, linux/amd64) built 2024-01-15T10:30:00Z" {
		t.Errorf("unexpected String() %q", full)
	}
}
