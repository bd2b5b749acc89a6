package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brogergvhs/mangadex-dl/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the config profiles of mangadex-dl",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, used, err := config.LoadMerged(config.Options{
			IgnoreConfig: flagIgnoreConfig,
			Debug:        flagDebug,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Loaded config from:\n  %s\n\n", used)
		cfg.Print(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// confirm asks a yes/no question; anything but yes is a no.
func confirm(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}

	_, err := prompt.Run()
	return err == nil
}

// askLabel prompts for a profile label when none was given as argument.
func askLabel(args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}

	prompt := promptui.Prompt{
		Label: "Label for the new config",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("label cannot be empty")
			}
			return nil
		},
	}

	label, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("input cancelled")
	}

	return strings.TrimSpace(label), nil
}
