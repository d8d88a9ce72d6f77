package web

import "sync"

// BuildInfo identifies the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

var (
	buildMu sync.RWMutex
	build   = BuildInfo{Version: "dev", Commit: "unknown", BuildTime: "unknown"}
)

// SetVersionInfo records the ldflags-injected build details for /api/status
func SetVersionInfo(version, commit, buildTime string) {
	buildMu.Lock()
	defer buildMu.Unlock()
	build = BuildInfo{Version: version, Commit: commit, BuildTime: buildTime}
}

// GetVersionInfo returns the build details last set
func GetVersionInfo() BuildInfo {
	buildMu.RLock()
	defer buildMu.RUnlock()
	return build
}
