// Package cmd defines the courier CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/courier/internal/build"
)

var rootCmd = &cobra.Command{
	Use:   "courier",
	Short: "Multi-provider message delivery service",
	Long:  "Courier delivers outbound messages through SendGrid, SMTP, or Gmail with priority failover between providers.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(NewUpdateCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(build.String())
		},
	})
}
