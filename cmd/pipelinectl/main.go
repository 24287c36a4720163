package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pipelinectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipelinectl",
		Short: "Pipeline site data entry client",
		Long: `pipelinectl logs in to the pipeline API, shows the role dashboard and submits
site records prepared as YAML drafts, with optional photo and document attachments.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&username, "username", "u", os.Getenv("PIPELINE_USERNAME"), "Login username (env PIPELINE_USERNAME)")
	cmd.PersistentFlags().StringVarP(&password, "password", "p", os.Getenv("PIPELINE_PASSWORD"), "Login password (env PIPELINE_PASSWORD)")
	cmd.AddCommand(
		newLoginCmd(),
		newMenuCmd(),
		newTemplateCmd(),
		newSubmitCmd(),
	)
	return cmd
}
