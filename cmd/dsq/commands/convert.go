package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dsq/internal/format"
)

// NewConvertCommand implements `dsq convert INPUT OUTPUT [--from F --to F --overwrite]`.
func NewConvertCommand() *cobra.Command {
	var from, to string
	var overwrite bool

	cmd := &cobra.Command{
		Use:     "convert INPUT OUTPUT",
		Aliases: []string{"conv"},
		Short:   "Convert a file from one supported format to another",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := args[0], args[1]
			if !overwrite {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s already exists; pass --overwrite to replace it", output)
				}
			}
			v, inTag, err := ReadInput(input, from)
			if err != nil {
				return err
			}
			outTag := format.Tag(to)
			if outTag == "" {
				outTag = inTag
			}
			return WriteOutput(v, outTag, output, outTag == format.JSONL)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "input format (overrides detection)")
	cmd.Flags().StringVar(&to, "to", "", "output format")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace OUTPUT if it already exists")
	return cmd
}
