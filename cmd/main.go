package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/Tijndh/Mallow/internal/catalog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the shop HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}

	productsCmd := &cobra.Command{
		Use:   "products",
		Short: "Print the built-in product catalog as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(catalog.Default().ListProducts())
		},
	}

	rootCmd := &cobra.Command{
		Use:          "mallow",
		Short:        "Mallow shop backend",
		SilenceUsage: true,
		RunE:         serveCmd.RunE,
	}
	rootCmd.AddCommand(serveCmd, productsCmd)

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	return rootCmd
}
