package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewCompletionsCommand implements `dsq completions bash|zsh|fish|powershell`,
// delegating to cobra's built-in generators.
func NewCompletionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "completions {bash|zsh|fish|powershell}",
		Aliases:   []string{"comp"},
		Short:     "Generate a shell completion script",
		Args:      cobra.ExactValidArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			switch args[0] {
			case "bash":
				return root.GenBashCompletion(os.Stdout)
			case "zsh":
				return root.GenZshCompletion(os.Stdout)
			case "fish":
				return root.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return fmt.Errorf("unsupported shell %q", args[0])
		},
	}
	return cmd
}
