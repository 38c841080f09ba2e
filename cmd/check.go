package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/courier/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration of every provider",
	Long:  "Probe each configured provider's credentials or transport without sending a message.",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		return err
	}
	defer closeProviders(providers)

	failed := 0
	for _, p := range providers {
		start := time.Now()
		ok := p.ValidateConfig(cmd.Context())
		elapsed := time.Since(start).Round(time.Millisecond)

		status := successStyle.Render("ok")
		if !ok {
			status = failureStyle.Render("failed")
			failed++
		}
		fmt.Printf("  %-10s %s %s\n", p.Name(), status, detailStyle.Render(elapsed.String()))
	}

	if failed > 0 {
		fmt.Println(failureStyle.Render(fmt.Sprintf("%d provider(s) failed validation", failed)))
		os.Exit(1)
	}
	fmt.Println(successStyle.Render("all providers validated"))
	return nil
}
