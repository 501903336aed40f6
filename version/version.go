package version

// Version is the glyphlink build version, set at build time via -ldflags
// (-X github.com/glyphlang/glyph/version.Version=...). Left at "dev" for
// local builds.
var Version = "dev"

// Get returns the version string printed by the glyphlink CLI's version
// subcommand.
func Get() string {
	return Version
}
