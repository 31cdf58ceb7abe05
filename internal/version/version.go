package version

// Set at build time with -ldflags "-X github.com/keshon/wraith/internal/version.Version=...".
var (
	AppName   = "wraith"
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// String is the one-line build description.
func String() string {
	return Version + " (" + Commit + ", " + BuildDate + ")"
}
