package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"dsq/internal/value"
)

// NewValidateCommand implements
// `dsq validate FILES... [--schema PATH --check-duplicates --check-nulls]`.
func NewValidateCommand() *cobra.Command {
	var schemaPath string
	var checkDuplicates, checkNulls bool

	cmd := &cobra.Command{
		Use:     "validate FILES...",
		Aliases: []string{"check"},
		Short:   "Validate one or more data files against structural checks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var requiredFields []string
			if schemaPath != "" {
				schema, _, err := ReadInput(schemaPath, "")
				if err != nil {
					return err
				}
				if schema.Kind() == value.KindArray {
					for _, f := range schema.AsArray() {
						requiredFields = append(requiredFields, f.AsString())
					}
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "report: %s\n", uuid.NewString())
			var problems []string
			for _, path := range args {
				v, _, err := ReadInput(path, "")
				if err != nil {
					return err
				}
				problems = append(problems, validateRows(path, asRows(v), requiredFields, checkDuplicates, checkNulls)...)
			}
			for _, p := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d validation issue(s) found", len(problems))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&schemaPath, "schema", "", "JSON array of required field names")
	cmd.Flags().BoolVar(&checkDuplicates, "check-duplicates", false, "flag duplicate rows")
	cmd.Flags().BoolVar(&checkNulls, "check-nulls", false, "flag null field values")
	return cmd
}

func validateRows(path string, rows []value.Value, requiredFields []string, checkDuplicates, checkNulls bool) []string {
	var problems []string
	seen := map[string]int{}
	for i, row := range rows {
		if row.Kind() != value.KindObject {
			continue
		}
		for _, field := range requiredFields {
			if _, ok := row.Get(field); !ok {
				problems = append(problems, fmt.Sprintf("%s: row %d missing field %q", path, i, field))
			}
		}
		if checkNulls {
			for _, e := range row.AsObject() {
				if e.Val.IsNull() {
					problems = append(problems, fmt.Sprintf("%s: row %d field %q is null", path, i, e.Key))
				}
			}
		}
		if checkDuplicates {
			key := row.String()
			seen[key]++
			if seen[key] == 2 {
				problems = append(problems, fmt.Sprintf("%s: duplicate row %q", path, key))
			}
		}
	}
	return problems
}
