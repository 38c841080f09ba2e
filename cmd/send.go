package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/courier/internal/config"
	"github.com/shaharia-lab/courier/internal/dispatch"
	"github.com/shaharia-lab/courier/internal/notification"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a single message from the command line",
	Long:  "Deliver one message through the configured providers without starting the HTTP service.",
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().StringSlice("to", nil, "Recipient address (repeatable)")
	sendCmd.Flags().StringSlice("cc", nil, "CC address (repeatable)")
	sendCmd.Flags().String("from", "", "Sender address (defaults to the provider's configured sender)")
	sendCmd.Flags().String("subject", "", "Message subject")
	sendCmd.Flags().String("text", "", "Plain-text body")
	sendCmd.Flags().String("html", "", "HTML body")
	sendCmd.Flags().StringSlice("attach", nil, "File to attach (repeatable)")
	sendCmd.Flags().String("provider", "", "Deliver through this provider only")
	_ = sendCmd.MarkFlagRequired("to")
}

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		return err
	}
	defer closeProviders(providers)

	policyFile, err := config.LoadRoutingPolicy(cfg.RoutingPath())
	if err != nil {
		return err
	}
	policy, err := buildPolicy(policyFile)
	if err != nil {
		return err
	}

	dispatcher, err := dispatch.New(dispatch.Config{Providers: providers, Policy: policy})
	if err != nil {
		return err
	}

	msg, err := messageFromFlags(cmd)
	if err != nil {
		return err
	}

	var names []string
	if p, _ := cmd.Flags().GetString("provider"); p != "" {
		names = append(names, p)
	}

	out, err := dispatcher.Dispatch(cmd.Context(), msg, names...)
	if err != nil {
		return err
	}

	printOutcome(out)
	if !out.Result.Success {
		os.Exit(1)
	}
	return nil
}

func messageFromFlags(cmd *cobra.Command) (notification.Message, error) {
	to, _ := cmd.Flags().GetStringSlice("to")
	cc, _ := cmd.Flags().GetStringSlice("cc")
	from, _ := cmd.Flags().GetString("from")
	subject, _ := cmd.Flags().GetString("subject")
	text, _ := cmd.Flags().GetString("text")
	html, _ := cmd.Flags().GetString("html")
	attach, _ := cmd.Flags().GetStringSlice("attach")

	msg := notification.Message{
		To:       to,
		CC:       cc,
		From:     from,
		Subject:  subject,
		TextBody: text,
		HTMLBody: html,
	}

	for _, path := range attach {
		content, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return notification.Message{}, fmt.Errorf("reading attachment %q: %w", path, err)
		}
		msg.Attachments = append(msg.Attachments, notification.Attachment{
			Filename: filepath.Base(path),
			Content:  content,
		})
	}
	return msg, nil
}

func printOutcome(out *dispatch.Outcome) {
	if out.Result.Success {
		fmt.Println(successStyle.Render("✓ delivered"),
			detailStyle.Render(fmt.Sprintf("provider=%s message_id=%s duration=%dms",
				out.Result.Provider, out.Result.MessageID, out.Result.DurationMS)))
	} else {
		fmt.Println(failureStyle.Render("✗ delivery failed"))
		fmt.Println(detailStyle.Render("  " + out.Result.ErrorMessage))
	}

	for _, a := range out.Attempts {
		status := successStyle.Render("ok")
		detail := a.MessageID
		if !a.Success {
			status = failureStyle.Render("failed")
			detail = a.ErrorMessage
		}
		fmt.Printf("  %-10s %s %s\n", a.Provider, status, detailStyle.Render(detail))
	}
}
