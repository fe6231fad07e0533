package core

// Build metadata injected with ldflags, for example:
//
//	go build -ldflags "-X discharge_backend/core.Version=$(git describe --tags --always) \
//	  -X discharge_backend/core.GitCommit=$(git rev-parse --short HEAD) \
//	  -X discharge_backend/core.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" .
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the injected version, "dev" for local builds.
func GetVersion() string {
	return Version
}

func GetBuildTime() string {
	return BuildTime
}

func GetGitCommit() string {
	return GitCommit
}

// GetVersionInfo formats all build metadata on one line, e.g.
// "v1.0.0 (built 2024-01-15T10:30:00Z, commit abc1234)".
func GetVersionInfo() string {
	return Version + " (built " + BuildTime + ", commit " + GitCommit + ")"
}
