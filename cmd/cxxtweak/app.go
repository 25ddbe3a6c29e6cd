package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cxxtweak/internal/diag"
	"cxxtweak/internal/diagfmt"
	"cxxtweak/internal/driver"
	"cxxtweak/internal/observ"
	"cxxtweak/internal/prof"
	"cxxtweak/internal/project"
	"cxxtweak/internal/source"
	"cxxtweak/internal/tweak"
)

// app is the state shared by the commands of one invocation.
type app struct {
	cfg      project.Config
	defines  map[string]string
	disabled []string
	timings  bool
	maxDiag  int
	cleanup  func()
	profile  *prof.Session
}

// setup loads the configuration, applies flag overrides and starts tracing.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()
	cfgPath, err := flags.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	if cfgPath != "" {
		a.cfg, err = project.LoadFile(cfgPath)
	} else {
		var wd string
		if wd, err = os.Getwd(); err == nil {
			a.cfg, _, err = project.Load(wd)
		}
	}
	if err != nil {
		return err
	}

	if flags.Changed("color") {
		a.cfg.Output.Color, _ = flags.GetString("color")
		if err := a.cfg.Validate(); err != nil {
			return err
		}
	}
	a.timings, _ = flags.GetBool("timings")
	a.maxDiag, _ = flags.GetInt("max-diagnostics")

	a.defines = make(map[string]string, len(a.cfg.Preprocessor.Defines))
	for name, body := range a.cfg.Preprocessor.Defines {
		a.defines[name] = body
	}
	defs, _ := flags.GetStringSlice("define")
	for _, d := range defs {
		name, body, _ := strings.Cut(d, "=")
		if name == "" {
			return fmt.Errorf("invalid --define %q", d)
		}
		a.defines[name] = body
	}

	a.disabled = append([]string(nil), a.cfg.Tweaks.Disabled...)
	extra, _ := flags.GetStringSlice("disable")
	for _, id := range extra {
		if _, ok := tweak.Default.New(id); !ok {
			return fmt.Errorf("--disable: unknown tweak %q", id)
		}
		a.disabled = append(a.disabled, id)
	}

	cleanup, err := setupTracing(cmd, a.cfg.Trace)
	if err != nil {
		return err
	}
	a.cleanup = cleanup

	var popts prof.Options
	popts.CPU, _ = flags.GetString("cpuprofile")
	popts.Mem, _ = flags.GetString("memprofile")
	popts.Trace, _ = flags.GetString("runtime-trace")
	if popts.Enabled() {
		if a.profile, err = prof.Start(popts); err != nil {
			return fmt.Errorf("profiling: %w", err)
		}
	}
	return nil
}

func (a *app) close() {
	if a.profile != nil {
		if err := a.profile.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "cxxtweak: profiling: %v\n", err)
		}
		a.profile = nil
	}
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
}

// useColor resolves [output].color for w; "auto" colours terminals only.
func (a *app) useColor(w io.Writer) bool {
	switch a.cfg.Output.Color {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

func (a *app) analyzeOptions() driver.AnalyzeOptions {
	return driver.AnalyzeOptions{
		MaxDiagnostics: a.maxDiag,
		Defines:        a.defines,
		EnableTimings:  a.timings,
		Validate:       true,
	}
}

func (a *app) pathMode() diagfmt.PathMode {
	mode, _ := diagfmt.ParsePathMode(a.cfg.Output.PathMode)
	return mode
}

// printDiagnostics writes the bag to stderr when it has anything to say.
func (a *app) printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) {
	if bag == nil || bag.Len() == 0 {
		return
	}
	bag.Sort()
	wd, _ := os.Getwd()
	errOut := cmd.ErrOrStderr()
	opts := diagfmt.PrettyOpts{
		Color:     a.useColor(errOut),
		PathMode:  a.pathMode(),
		BaseDir:   wd,
		ShowNotes: true,
	}
	if err := diagfmt.Pretty(errOut, bag, fs, opts); err != nil {
		warnf(cmd, "failed to print diagnostics: %v", err)
	}
}

func (a *app) printTimings(cmd *cobra.Command, report *observ.Report) {
	if !a.timings || report == nil {
		return
	}
	out := cmd.ErrOrStderr()
	fmt.Fprintln(out, "timings:")
	for _, p := range report.Phases {
		fmt.Fprintf(out, "  %-12s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			fmt.Fprintf(out, "  // %s", p.Note)
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "  %-12s %7.2f ms\n", "total", report.TotalMS)
}
