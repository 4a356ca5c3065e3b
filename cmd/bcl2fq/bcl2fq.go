package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/seahurt/bcl2fq-local/internal/log"
	"github.com/seahurt/bcl2fq-local/internal/mask"
	"github.com/seahurt/bcl2fq-local/internal/metrics"
	"github.com/seahurt/bcl2fq-local/internal/model"
	"github.com/seahurt/bcl2fq-local/internal/runinfo"
	"github.com/seahurt/bcl2fq-local/internal/service"
	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configEnv = "BCL2FQCONFIG"

// flag name -> configuration key
var flagKeys = map[string]string{
	"input":         "input",
	"output":        "output",
	"sample-sheet":  "sample_sheet",
	"mismatch":      "mismatch",
	"process":       "process",
	"io-process":    "io_process",
	"binpath":       "binpath",
	"cmd-only":      "cmd_only",
	"poll-interval": "poll_interval",
	"wait-timeout":  "wait_timeout",
	"timeout":       "timeout",
	"metrics-file":  "metrics_file",
	"verbose":       "verbose",
}

type app struct {
	v          *viper.Viper
	config     model.Config
	configPath string // actual config file used (if loaded)

	flagConfigFilePath string
}

func newRootCmd() *cobra.Command {
	a := &app{
		v: viper.New(),
	}

	rootCmd := &cobra.Command{
		Use:   "bcl2fq -i <input dir> -o <output dir>",
		Short: "Run bcl2fastq on a sequencing run with a bases mask derived from RunInfo.xml",
		Long: `bcl2fq reads RunInfo.xml of a sequencing run, derives the --use-bases-mask
argument, waits for RTAComplete.txt, runs bcl2fastq and moves the undetermined
reads into UndeterminedReads/.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.doRun,
	}

	// root flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flagConfigFilePath, "config", "", "Config file to load - default is bcl2fq.yaml in current directory or in the user config dir")
	pf.StringP("input", "i", "", "Sequence run dir")
	pf.StringP("output", "o", "", "Output dir for fastq files")
	pf.String("sample-sheet", "", "Using custom sample sheet file, default: <input dir>/SampleSheet.csv")
	pf.Int("mismatch", 1, "Mismatch for barcode")
	pf.Int("process", 24, "Process number for demultiplexing and processing")
	pf.Int("io-process", 4, "Process number for reading and writing")
	pf.String("binpath", model.DefaultBinary, "bcl2fastq binary file path")
	pf.Bool("cmd-only", false, "Only print the cmd without running it")
	pf.String("poll-interval", "60s", "How often to check for RTAComplete.txt")
	pf.String("wait-timeout", "0", "Give up waiting for RTAComplete.txt after this long, 0 waits forever")
	pf.String("timeout", "0", "Kill bcl2fastq after this long, 0 means no limit")
	pf.String("metrics-file", "", "Write Prometheus metrics of the run to this file")
	pf.Bool("verbose", false, "verbose logging")

	// parse the configuration, setup logging
	rootCmd.PersistentPreRunE = a.init

	rootCmd.AddCommand(a.maskCmd())
	rootCmd.AddCommand(a.configCmd())
	rootCmd.AddCommand(a.versionCmd())
	return rootCmd
}

func (a *app) maskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mask",
		Short: "mask prints the bases mask of a run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := runinfo.Read(a.config.Input)
			if err != nil {
				return err
			}
			for _, r := range info.Reads {
				slog.DebugContext(cmd.Context(), "read", "number", r.Number, "cycles", r.Cycles, "indexed", string(r.Indexed))
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), mask.Generate(info.Reads))
			return err
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "config prints the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(a.config); err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			return enc.Close()
		},
	}
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "version provide version of a bcl2fq",
		Args:  cobra.NoArgs,
		// no configuration is needed
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			info, ok := debug.ReadBuildInfo()
			if !ok {
				fmt.Fprintln(out, "bcl2fq: version info not available")
				return
			}

			fmt.Fprintf(out, "bcl2fq: %s\n", info.Main.Version)
			fmt.Fprintf(out, "go:     %s\n", info.GoVersion)
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					fmt.Fprintf(out, "commit: %s\n", s.Value)
				case "vcs.time":
					fmt.Fprintf(out, "date:   %s\n", s.Value)
				case "vcs.modified":
					fmt.Fprintf(out, "dirty:  %s\n", s.Value)
				}
			}
		},
	}
}

func (a *app) doRun(cmd *cobra.Command, _ []string) error {
	ctx := log.ContextAttrs(cmd.Context(), slog.Group("bcl2fq",
		slog.String("cmd", "run"),
		slog.Int("pid", os.Getpid()),
	))

	binary, err := service.ResolveBinary(a.config.Binpath)
	if err != nil {
		return err
	}
	if binary != a.config.Binpath {
		slog.InfoContext(ctx, "using bcl2fastq found elsewhere", "requested", a.config.Binpath, "binary", binary)
	}

	runConfig, err := a.config.RunConfig(binary)
	if err != nil {
		return err
	}

	recorder := metrics.New()
	supervisor := service.NewSupervisor(runConfig, cmd.OutOrStdout()).
		WithLineFunc(logLine).
		WithTransitionFunc(recorder.Transition)

	err = supervisor.Do(ctx)

	if a.config.MetricsFile != "" && !runConfig.CmdOnly {
		recorder.Record(supervisor.Report())
		if werr := recorder.WriteTextfile(a.config.MetricsFile); werr != nil {
			slog.ErrorContext(ctx, "storing metrics failed", "error", werr)
		}
	}
	return err
}

func logLine(ctx context.Context, line string) {
	slog.InfoContext(ctx, "bcl2fastq", "line", line)
}

// init merges flags, BCL2FQ_* variables and the config file, validates the
// result and sets up logging.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	v := a.v
	v.SetEnvPrefix("BCL2FQ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	if bindErr != nil {
		return fmt.Errorf("binding flags: %w", bindErr)
	}

	a.configPath = a.lookupConfigPath()
	if a.configPath != "" {
		v.SetConfigFile(a.configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", a.configPath, err)
		}
	}

	settings := map[string]any{
		"input":         v.GetString("input"),
		"output":        v.GetString("output"),
		"sample_sheet":  v.GetString("sample_sheet"),
		"mismatch":      v.GetInt("mismatch"),
		"process":       v.GetInt("process"),
		"io_process":    v.GetInt("io_process"),
		"binpath":       v.GetString("binpath"),
		"cmd_only":      v.GetBool("cmd_only"),
		"poll_interval": v.GetString("poll_interval"),
		"wait_timeout":  v.GetString("wait_timeout"),
		"timeout":       v.GetString("timeout"),
		"metrics_file":  v.GetString("metrics_file"),
		"verbose":       v.GetBool("verbose"),
	}
	raw, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	config, err := model.LoadConfig(bytes.NewReader(raw))
	if err != nil {
		for _, d := range model.CueErrDetails(err) {
			slog.Error(d)
		}
		return fmt.Errorf("parsing config: %w", err)
	}
	a.config = *config

	// initialize logging
	slog.SetDefault(log.New(cmd.ErrOrStderr(), a.config.Verbose))

	slog.Debug("bcl2fq run", "configPath", a.configPath)
	slog.Debug("bcl2fq run", "config", a.config)
	return nil
}

// lookupConfigPath returns --config, then $BCL2FQCONFIG, then the first
// bcl2fq.yaml found in the user config dir or the current directory.
func (a *app) lookupConfigPath() string {
	if a.flagConfigFilePath != "" {
		return a.flagConfigFilePath
	}
	if envConfig := os.Getenv(configEnv); envConfig != "" {
		return envConfig
	}
	dirs := []string{"."}
	if d, err := os.UserConfigDir(); err == nil {
		dirs = append([]string{filepath.Join(d, "bcl2fq")}, dirs...)
	}
	for _, d := range dirs {
		path := filepath.Join(d, "bcl2fq.yaml")
		if exists(path) {
			return path
		}
	}
	return ""
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
