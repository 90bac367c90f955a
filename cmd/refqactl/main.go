package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"refqa_backend/internals/configs"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "refqactl",
		Short:   "Admin tooling untuk RefQA sync server",
		Version: Version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configs.LoadEnv()
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(jobCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
