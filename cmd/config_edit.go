package cmd

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/brogergvhs/mangadex-dl/internal/config"

	"github.com/spf13/cobra"
)

var configEditCmd = &cobra.Command{
	Use:   "edit [label]",
	Short: "Open the current or the given config in $EDITOR",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string

		if len(args) == 0 {
			var err error
			label, err = config.CurrentLabel()
			if err != nil {
				return fmt.Errorf("failed to get current config label: %w", err)
			}
		} else {
			label = args[0]
		}

		path, err := config.ConfigPathByLabel(label)
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "vi"
		}

		cmdExec := exec.Command(editor, path)
		cmdExec.Stdin = os.Stdin
		cmdExec.Stdout = os.Stdout
		cmdExec.Stderr = os.Stderr

		if err := cmdExec.Run(); err != nil {
			return fmt.Errorf("failed to open editor: %w", err)
		}

		// Catch typos such as an unknown renderer right away.
		if active, _ := config.CurrentLabel(); active == label {
			if _, _, err := config.LoadMerged(config.Options{}); err != nil {
				return fmt.Errorf("config %q saved but invalid: %w", label, err)
			}
		}

		return nil
	},
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
