package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dsq/internal/format"
	"dsq/internal/value"
)

// NewMergeCommand implements
// `dsq merge INPUTS... -o OUT --method concat|join [--on COL... --join-type inner|left|right|outer]`.
func NewMergeCommand() *cobra.Command {
	var output, method, joinType, from, to string
	var on []string

	cmd := &cobra.Command{
		Use:     "merge INPUTS...",
		Aliases: []string{"join"},
		Short:   "Concatenate or join two or more data files into one output",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tables []value.Value
			var outTag format.Tag
			for _, path := range args {
				v, tag, err := ReadInput(path, from)
				if err != nil {
					return err
				}
				tables = append(tables, v)
				if outTag == "" {
					outTag = tag
				}
			}
			if to != "" {
				outTag = format.Tag(to)
			}

			var merged value.Value
			var err error
			switch method {
			case "concat":
				merged = concatRows(tables)
			case "join":
				if len(on) == 0 {
					return fmt.Errorf("merge --method join requires --on COL")
				}
				merged, err = joinRows(tables, on, joinType)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown merge method %q (want concat or join)", method)
			}

			return WriteOutput(merged, outTag, output, outTag == format.JSONL)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: stdout)")
	cmd.Flags().StringVar(&method, "method", "concat", "merge method: concat or join")
	cmd.Flags().StringSliceVar(&on, "on", nil, "join column(s), required for --method join")
	cmd.Flags().StringVar(&joinType, "join-type", "inner", "join type: inner, left, right, or outer")
	cmd.Flags().StringVar(&from, "from", "", "input format (overrides detection)")
	cmd.Flags().StringVar(&to, "to", "", "output format (default: first input's detected format)")
	return cmd
}

func concatRows(tables []value.Value) value.Value {
	var out []value.Value
	for _, t := range tables {
		out = append(out, asRows(t)...)
	}
	return value.Array(out)
}

// joinRows implements a composite-key hash join across N tables, folded
// left to right, supporting inner/left/right/outer per --join-type.
func joinRows(tables []value.Value, on []string, joinType string) (value.Value, error) {
	switch joinType {
	case "inner", "left", "right", "outer":
	default:
		return value.Null(), fmt.Errorf("unknown join type %q", joinType)
	}

	rows := asRows(tables[0])
	for _, next := range tables[1:] {
		rows = joinPair(rows, asRows(next), on, joinType)
	}
	return value.Array(rows), nil
}

func joinPair(left, right []value.Value, on []string, joinType string) []value.Value {
	rightIndex := map[string][]value.Value{}
	rightMatched := map[string]bool{}
	for _, r := range right {
		k := mergeJoinKey(r, on)
		rightIndex[k] = append(rightIndex[k], r)
	}

	var out []value.Value
	for _, l := range left {
		k := mergeJoinKey(l, on)
		matches := rightIndex[k]
		if len(matches) == 0 {
			if joinType == "left" || joinType == "outer" {
				out = append(out, mergeRow(l, value.Null(), on))
			}
			continue
		}
		rightMatched[k] = true
		for _, r := range matches {
			out = append(out, mergeRow(l, r, on))
		}
	}

	if joinType == "right" || joinType == "outer" {
		for _, r := range right {
			k := mergeJoinKey(r, on)
			if rightMatched[k] {
				continue
			}
			out = append(out, mergeRow(value.Null(), r, on))
		}
	}
	return out
}

func mergeJoinKey(row value.Value, on []string) string {
	parts := make([]string, len(on))
	for i, field := range on {
		if v, ok := row.Get(field); ok {
			parts[i] = v.String()
		}
	}
	return strings.Join(parts, "\x1f")
}

func mergeRow(l, r value.Value, on []string) value.Value {
	b := value.NewObjectBuilder()
	if l.Kind() == value.KindObject {
		for _, e := range l.AsObject() {
			b.Set(e.Key, e.Val)
		}
	}
	if r.Kind() == value.KindObject {
		for _, e := range r.AsObject() {
			isOn := false
			for _, f := range on {
				if f == e.Key {
					isOn = true
					break
				}
			}
			if isOn {
				if _, exists := l.Get(e.Key); exists {
					continue
				}
			}
			b.Set(e.Key, e.Val)
		}
	}
	return b.Build()
}
