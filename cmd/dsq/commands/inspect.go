package commands

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dsq/internal/value"
)

// NewInspectCommand implements `dsq inspect FILE [--schema --sample N --stats]`.
func NewInspectCommand() *cobra.Command {
	var showSchema, showStats bool
	var sample int

	cmd := &cobra.Command{
		Use:     "inspect FILE",
		Aliases: []string{"insp"},
		Short:   "Print schema, a sample of rows, and size statistics for a file",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			info, statErr := os.Stat(path)
			v, _, err := ReadInput(path, "")
			if err != nil {
				return err
			}
			rows := asRows(v)

			fmt.Fprintf(cmd.OutOrStdout(), "report: %s\n", uuid.NewString())
			if showSchema || (!showSchema && !showStats && sample == 0) {
				printSchema(cmd, rows)
			}
			if sample > 0 {
				printSample(cmd, rows, sample)
			}
			if showStats {
				size := int64(0)
				if statErr == nil {
					size = info.Size()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "rows: %s\nsize: %s\n", humanize.Comma(int64(len(rows))), humanize.Bytes(uint64(size)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showSchema, "schema", false, "print inferred field names")
	cmd.Flags().IntVar(&sample, "sample", 0, "print N sample rows")
	cmd.Flags().BoolVar(&showStats, "stats", false, "print row count and file size")
	return cmd
}

func asRows(v value.Value) []value.Value {
	if v.Kind() == value.KindArray {
		return v.AsArray()
	}
	return []value.Value{v}
}

func printSchema(cmd *cobra.Command, rows []value.Value) {
	seen := map[string]bool{}
	var order []string
	for _, row := range rows {
		if row.Kind() != value.KindObject {
			continue
		}
		for _, e := range row.AsObject() {
			if !seen[e.Key] {
				seen[e.Key] = true
				order = append(order, fmt.Sprintf("%s: %s", e.Key, e.Val.Kind()))
			}
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema:")
	for _, line := range order {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", line)
	}
}

func printSample(cmd *cobra.Command, rows []value.Value, n int) {
	if n > len(rows) {
		n = len(rows)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "sample:")
	for _, row := range rows[:n] {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", row.String())
	}
}
