package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func withBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	prev := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = prev })
}

func TestGetFallsBackToModuleInfo(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	})

	got := Get()
	if got.Version != "v1.4.0" || got.Commit != "abc123" || got.Date != "2026-01-02T03:04:05Z" {
		t.Errorf("Get() = %+v", got)
	}
	if got.GoVersion == "" {
		t.Error("GoVersion is empty")
	}
}

func TestGetPrefersLdflags(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
	})
	Version, Commit = "v2.0.0", "fff"
	defer func() { Version, Commit = "dev", "none" }()

	if got := Get(); got.Version != "v2.0.0" || got.Commit != "fff" {
		t.Errorf("Get() = %+v, want ldflags values", got)
	}
}

func TestGetDevelBuild(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if got := Get(); got.Version != "dev" || got.Commit != "none" {
		t.Errorf("Get() = %+v", got)
	}

	withBuildInfo(t, nil)
	if got := Get(); got.Version != "dev" {
		t.Errorf("Get() without build info = %+v", got)
	}
}

func TestTemplate(t *testing.T) {
	withBuildInfo(t, nil)
	tmpl := Template()
	if !strings.HasPrefix(tmpl, "{{.Name}} version dev\n") || !strings.Contains(tmpl, "go: go") {
		t.Errorf("Template() = %q", tmpl)
	}
}
