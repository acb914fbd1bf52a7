package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"h2w/common"
	"h2w/config"
	"h2w/convert"
	"h2w/misc"
	"h2w/state"
)

// initializeAppContext loads configuration, opens debug report and logs once
// arguments are parsed. Conversion and dumpconfig both find them in context
// environment.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	if cmd.NArg() == 0 {
		// bare invocation prints help
		return ctx, nil
	}

	env := state.EnvFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		if env.Rpt, err = env.Cfg.Reporting.Prepare(); err != nil {
			return ctx, fmt.Errorf("unable to prepare debug reporter: %w", err)
		}
		// report keeps user configuration next to conversion dumps
		if len(configFile) > 0 {
			if data, err := config.Dump(env.Cfg); err == nil {
				env.Rpt.StoreData(fmt.Sprintf("config/%s", filepath.Base(configFile)), data)
			}
		}
	}
	if env.Log, err = env.Cfg.Logging.Prepare(env.Rpt); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	env.RedirectStdLog()

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("ver", misc.GetVersion()), zap.String("runtime", runtime.Version()), zap.String("hash", misc.GetGitHash()))

	if env.Rpt != nil {
		env.Log.Info("Creating debug report", zap.String("location", env.Rpt.Name()))
	}
	if len(configFile) == 0 && env.Log != nil {
		env.Log.Info("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Debug("Program ended", zap.Duration("elapsed", env.Uptime()), zap.Strings("parsed args", cmd.Args().Slice()))
	}

	// stdlib log goes back to stderr before zap is flushed
	env.RestoreStdLog()

	// report archive includes the log file, anything after this point goes
	// to stderr
	if env.Rpt != nil {
		if er := env.Rpt.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close debug report: %w", er))
		}
	}
	// crash output is no longer needed, empty panic log is removed
	if env.Cfg != nil && len(env.Cfg.Logging.FileLogger.Destination) > 0 {
		debug.SetCrashOutput(nil, debug.CrashOptions{})
		fname := filepath.Join(filepath.Dir(env.Cfg.Logging.FileLogger.Destination), misc.GetAppName()+"-panic.log")
		if fi, er := os.Stat(fname); er == nil && fi.Size() == 0 {
			if er := os.Remove(fname); er != nil {
				err = multierr.Append(err, fmt.Errorf("unable to remove empty panic log file '%s': %w", fname, er))
			}
		}
	}
	return
}

// errWasHandled is set when the error is already logged, main does not
// repeat it on stderr.
var errWasHandled bool

// exitErrHandler runs before destroyAppContext, batch errors from convert
// land in the log and debug report.
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {

	env := state.EnvFromContext(ctx)

	if env.Log != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	// reported by exitErrHandler or by main
	return err
}

func subcommandNotFoundHandler(ctx context.Context, _ *cli.Command, name string) {
	state.EnvFromContext(ctx).Log.Warn("Unknown command, nothing to do", zap.String("command", name))
}

func main() {

	// conversion checks context between files, interrupt stops the batch
	ctx, stop := signal.NotifyContext(state.ContextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            misc.GetAppName(),
		Usage:           "conversion engine for HTML pages, produces Word (docx) documents",
		Version:         misc.GetVersion() + " (" + runtime.Version() + ") : " + misc.GetGitHash(),
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		CommandNotFound: subcommandNotFoundHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, DefaultText: "", Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "changes program behavior to help troubleshooting, produces report archive"},
		},
		Commands: []*cli.Command{
			convertCommand(),
			dumpConfigCommand(),
		},
	}

	var err error
	// exit code is set from this deferred function, it has to be the last one
	defer func() {
		stop()
		if err != nil {
			// argument errors happen before logs are ready
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:         "convert",
		Usage:        "Converts HTML file(s) to docx documents",
		OnUsageError: usageErrorHandler,
		Action:       convert.Run,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "template", Aliases: []string{"t"},
				Usage: "append converted content to a copy of existing docx `FILE` (styles and notes are taken from it)"},
			&cli.StringFlag{Name: "acronym-position", Value: common.AcronymPositionPageEnd.String(),
				Usage: "where to put acronym and abbreviation explanations: `POSITION` (" + strings.Join(common.AcronymPositionNames(), ", ") + ")"},
			&cli.StringFlag{Name: "caption-position", Value: common.CaptionPositionAbove.String(),
				Usage: "table caption `POSITION` (" + strings.Join(common.CaptionPositionNames(), ", ") + ")"},
			&cli.BoolFlag{Name: "pre-as-table", Usage: "render preformatted text as single cell table"},
			&cli.StringFlag{Name: "name-template",
				Usage: "output file name `TEMPLATE` (Go text/template, see output_name_template in configuration)"},
			&cli.BoolFlag{Name: "no-meta", Usage: "do not copy HTML head metadata into document properties"},
			&cli.BoolFlag{Name: "nodirs", Aliases: []string{"nd"}, Usage: "when producing output do not keep input directory structure"},
			&cli.BoolFlag{Name: "overwrite", Aliases: []string{"ow"}, Usage: "continue even if destination exists, overwrite files"},
			&cli.StringFlag{Name: "charset",
				Usage: "decode input files without BOM using `ENCODING` instead of detecting it from meta tags (see IANA.org for character set names)"},
			&cli.StringFlag{Name: "force-zip-cp",
				Usage: "Force `ENCODING` for ALL non UTF-8 file names in processed archives (see IANA.org for character set names)"},
		},
		ArgsUsage: "SOURCE [DESTINATION]",
		CustomHelpTemplate: fmt.Sprintf(`%s
SOURCE:
    path to HTML file(s) to process, following formats are supported:
        path to a file: "[path_to_file]page.html"
        path to a directory: "[path_to_directory]directory" - recursively process all files under directory (symbolic links are not followed)
        path to archive with path inside archive to a particular HTML file: "[path_to_archive]archive.zip[path_in_archive]/page.html"
        path to archive with path inside archive: "[path_to_archive]archive.zip[path_in_archive]" - recursively process all HTML files under archive path

Files are recognized as HTML by extension (.html, .htm, .xhtml, .shtml) or
by content. When working on archive recursively only HTML files will be
considered, processing of archives inside archives is not supported.

DESTINATION:
    always a path, output file name(s) will be derived from source names with .docx extension
    if absent - current working directory
`, cli.CommandHelpTemplate),
	}
}

func dumpConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "dumpconfig",
		Usage: "Dumps either default or actual configuration (YAML)",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
		},
		OnUsageError: usageErrorHandler,
		Action:       outputConfiguration,
		ArgsUsage:    "DESTINATION",
		CustomHelpTemplate: fmt.Sprintf(`%s

DESTINATION:
    file name to write configuration to, if absent - STDOUT

Produces file with actual "active" configuration values which is composition of
default values and values specified in configuration file. To see default
configuration embedded into the program use --default flag.
`, cli.CommandHelpTemplate),
	}
}

// outputConfiguration writes default or active configuration as YAML to a file
// or stdout.
func outputConfiguration(ctx context.Context, cmd *cli.Command) (err error) {
	env := state.EnvFromContext(ctx)
	if cmd.Args().Len() > 1 {
		env.Log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}

	kind, data := "actual", []byte(nil)
	if cmd.Bool("default") {
		kind = "default"
		data, err = config.Prepare()
	} else {
		data, err = config.Dump(env.Cfg)
	}
	if err != nil {
		return fmt.Errorf("unable to get %s configuration: %w", kind, err)
	}

	fname := cmd.Args().Get(0)
	if len(fname) == 0 {
		env.Log.Info("Outputting configuration", zap.String("state", kind), zap.String("file", "STDOUT"))
		if _, err := os.Stdout.Write(data); err != nil {
			return fmt.Errorf("unable to write configuration: %w", err)
		}
		return nil
	}

	env.Log.Info("Outputting configuration", zap.String("state", kind), zap.String("file", fname))
	if err := os.WriteFile(fname, data, 0o644); err != nil {
		return fmt.Errorf("unable to write configuration to '%s': %w", fname, err)
	}
	return nil
}
