package version

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/guidebuilder/internal/version.Version=v0.3.0".
var Version = "dev"

// Build metadata, also set via ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String returns the version line printed by --version.
func String() string {
	return "guidebuilder " + Version + " (commit " + GitCommit + ", built " + BuildTime + ")"
}
