// cmd/dsq/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"dsq/cmd/dsq/commands"
	"dsq/internal/config"
	"dsq/internal/exec"
	"dsq/internal/format"
	"dsq/internal/ops"
	"dsq/internal/value"
)

const version = "0.1.0"

var (
	flagFilterFile   string
	flagRaw          bool
	flagCompact      bool
	flagNullInput    bool
	flagFrom         string
	flagTo           string
	flagOutput       string
	flagLimit        int
	flagInteractive  bool
	flagTest         bool
	flagConfigPath   string
	flagExitStatus   bool
	flagVerboseCount int
)

func main() {
	root := newRootCommand()
	root.AddCommand(
		commands.NewConvertCommand(),
		commands.NewInspectCommand(),
		commands.NewValidateCommand(),
		commands.NewMergeCommand(),
		commands.NewCompletionsCommand(),
		commands.NewConfigCommand(),
	)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "dsq [filter] [input_file...]",
		Short:   "Query structured data through a jq-like filter language",
		Version: version,
		Args:    cobra.ArbitraryArgs,
		RunE:    runFilter,
	}
	cmd.Flags().StringVarP(&flagFilterFile, "filter-file", "f", "", "read the filter from a file")
	cmd.Flags().BoolVarP(&flagRaw, "raw-output", "r", false, "emit unquoted strings")
	cmd.Flags().BoolVarP(&flagCompact, "compact-output", "c", false, "compact (single-line) output")
	cmd.Flags().BoolVarP(&flagNullInput, "null-input", "n", false, "run once with Null as input, ignoring input files")
	cmd.Flags().StringVar(&flagFrom, "from", "", "input format (overrides detection)")
	cmd.Flags().StringVar(&flagTo, "to", "", "output format")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output path (default: stdout)")
	cmd.Flags().IntVar(&flagLimit, "limit", 0, "stop after N results (0 = unlimited)")
	cmd.Flags().BoolVar(&flagInteractive, "interactive", false, "watch the filter/input files and re-run on change")
	cmd.Flags().BoolVar(&flagTest, "test", false, "validate the filter only, do not execute")
	cmd.Flags().StringVar(&flagConfigPath, "config", "", "path to the YAML config file")
	cmd.Flags().BoolVar(&flagExitStatus, "exit-status", false, "set the exit code from the final value's truthiness")
	cmd.Flags().CountVarP(&flagVerboseCount, "verbose", "v", "increase verbosity (stackable)")
	return cmd
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case flagVerboseCount >= 2:
		level = zerolog.DebugLevel
	case flagVerboseCount == 1:
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).Level(level).With().Timestamp().Logger()
}

func runFilter(cmd *cobra.Command, args []string) error {
	log := newLogger()
	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return err
	}

	filterSource, inputPaths, err := resolveFilterAndInputs(args)
	if err != nil {
		return err
	}

	executor := exec.NewWithCacheSize(cfg.Performance.CacheSize)

	if flagTest {
		if err := executor.ValidateFilter(filterSource); err != nil {
			return fmt.Errorf("invalid filter: %w", err)
		}
		return nil
	}

	mode := cfg.ErrorMode()
	outTag := format.Tag(flagTo)

	if flagInteractive {
		return runInteractive(log, executor, filterSource, inputPaths, mode)
	}

	var inputs []value.Value
	if flagNullInput {
		inputs = []value.Value{value.Null()}
	} else if len(inputPaths) == 0 {
		v, tag, err := commands.ReadInput("-", flagFrom)
		if err != nil {
			return err
		}
		inputs = []value.Value{v}
		if outTag == "" {
			outTag = commands.DefaultOutputTag(v, tag)
		}
	} else {
		for _, p := range inputPaths {
			v, tag, err := commands.ReadInput(p, flagFrom)
			if err != nil {
				return err
			}
			inputs = append(inputs, v)
			if outTag == "" {
				outTag = commands.DefaultOutputTag(v, tag)
			}
		}
	}
	if outTag == "" {
		outTag = format.JSON
	}

	start := time.Now()
	var results []value.Value
	opsExecuted := 0
	for _, in := range inputs {
		out, err := executor.ExecuteStr(context.Background(), filterSource, in, mode)
		if err != nil {
			return err
		}
		if flagLimit > 0 && len(results)+len(out) > flagLimit {
			out = out[:flagLimit-len(results)]
		}
		results = append(results, out...)
		opsExecuted += len(out)
		if flagLimit > 0 && len(results) >= flagLimit {
			break
		}
	}
	elapsed := time.Since(start)

	result := value.Array(results)
	if flagRaw && len(results) == 1 && results[0].Kind() == value.KindString {
		_, werr := fmt.Fprintln(os.Stdout, results[0].AsString())
		if werr != nil {
			return werr
		}
	} else {
		if err := commands.WriteOutput(result, outTag, flagOutput, outTag == format.JSONL); err != nil {
			return err
		}
	}

	if flagVerboseCount > 0 {
		log.Info().Dur("elapsed", elapsed).Int("ops", opsExecuted).Msg("execution finished")
	}

	if flagExitStatus {
		if len(results) == 0 || !results[len(results)-1].Truthy() {
			os.Exit(1)
		}
	}
	return nil
}

// runInteractive implements `--interactive`: it re-runs the filter every
// time the filter file or an input file's mtime changes, printing each
// result as it's produced, until the user interrupts with Ctrl-C.
func runInteractive(log zerolog.Logger, executor *exec.Executor, filterSource string, inputPaths []string, mode ops.ErrorMode) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var records chan commands.RunRecord
	if flagVerboseCount > 0 {
		records = make(chan commands.RunRecord, 16)
		addr := "127.0.0.1:7438"
		go func() {
			log.Info().Str("addr", addr).Msg("interactive stats websocket listening at /stats")
			if err := commands.ServeStatsSocket(ctx, addr, records); err != nil && ctx.Err() == nil {
				log.Warn().Err(err).Msg("stats websocket stopped")
			}
		}()
	}

	err := commands.Watch(ctx, executor, filterSource, flagFilterFile, inputPaths, mode, 500*time.Millisecond, func(rec commands.RunRecord) {
		if rec.Error != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", rec.Error)
		} else if rendered, err := commands.RenderRunValue(rec.Value); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintln(os.Stdout, rendered)
		}
		if records != nil {
			select {
			case records <- rec:
			default:
			}
		}
	})
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// resolveFilterAndInputs implements spec §6.3's positional resolution,
// including the query.dsq directory convention.
func resolveFilterAndInputs(args []string) (string, []string, error) {
	if flagFilterFile != "" {
		data, err := os.ReadFile(flagFilterFile)
		if err != nil {
			return "", nil, fmt.Errorf("reading filter file: %w", err)
		}
		return string(data), args, nil
	}
	if len(args) == 0 {
		return ".", nil, nil
	}
	if source, dataFiles, matched, err := commands.ResolveQueryDir(args[0]); err != nil {
		return "", nil, err
	} else if matched {
		return strings.TrimSpace(source), dataFiles, nil
	}
	return args[0], args[1:], nil
}
