package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fatih/color"
)

// Version information for the cxxtweak CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorAttrs = []color.Attribute{color.FgYellow, color.Bold}
	minorAttrs = []color.Attribute{color.FgGreen, color.Bold}
	patchAttrs = []color.Attribute{color.FgBlue, color.Bold}
)

func paint(s string, attrs []color.Attribute) string {
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}

// Colored returns Version with major, minor and patch coloured.
// Versions that are not dotted triples are returned as is.
func Colored(enabled bool) string {
	core, suffix := Version, ""
	if i := strings.IndexAny(core, "-+"); i >= 0 {
		core, suffix = core[:i], core[i:]
	}
	parts := strings.Split(core, ".")
	if !enabled || len(parts) != 3 {
		return Version
	}
	return paint(parts[0], majorAttrs) + "." +
		paint(parts[1], minorAttrs) + "." +
		paint(parts[2], patchAttrs) + suffix
}

// Info is the build information printed by "cxxtweak version".
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// Current returns the build information of this binary.
func Current() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Banner renders info as the multi-line text of "cxxtweak version".
func Banner(info Info, colored bool) string {
	var sb strings.Builder
	v := info.Version
	if colored && v == Version {
		v = Colored(true)
	}
	fmt.Fprintf(&sb, "cxxtweak %s\n", v)
	if info.GitCommit != "" {
		fmt.Fprintf(&sb, "  commit: %s\n", info.GitCommit)
	}
	if info.BuildDate != "" {
		fmt.Fprintf(&sb, "  built:  %s\n", info.BuildDate)
	}
	fmt.Fprintf(&sb, "  go:     %s (%s)\n", info.GoVersion, info.Platform)
	return sb.String()
}
