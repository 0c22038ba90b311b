package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/save-ai/save/internal/agent"
	"github.com/save-ai/save/internal/config"
	"github.com/save-ai/save/internal/log"
)

var askQuiet bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single product question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askQuiet, "quiet", "q", false, "suppress progress output")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := log.NewNop()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	question := strings.Join(args, " ")
	sessionID := uuid.NewString()

	for event := range app.orch.Run(ctx, sessionID, question) {
		switch event.Kind {
		case agent.KindProgress:
			if !askQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "… %s\n", event.Step)
			}
		case agent.KindFinal:
			fmt.Fprintln(cmd.OutOrStdout(), event.Answer)
		case agent.KindError:
			return fmt.Errorf("run failed: %w", event.Err)
		}
	}
	return nil
}
