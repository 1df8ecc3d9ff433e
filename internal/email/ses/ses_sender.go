package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"docstracker/internal/port"
)

type sesNotifier struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
}

// NewSESNotifier creates a new SES-backed RunNotifier.
func NewSESNotifier(ctx context.Context, region, fromAddress, fromName string) (port.RunNotifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return &sesNotifier{
		client:      sesv2.NewFromConfig(cfg),
		fromAddress: fromAddress,
		fromName:    fromName,
	}, nil
}

func (s *sesNotifier) NotifyRunCompleted(ctx context.Context, recipients []string, notice port.RunNotice) error {
	if len(recipients) == 0 {
		return nil
	}

	subject := BuildSubject(notice)
	htmlBody := BuildHTML(notice)
	textBody := BuildText(notice)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

// BuildSubject renders the notice subject line.
func BuildSubject(n port.RunNotice) string {
	return fmt.Sprintf("Docs Tracker: %d/%d groups complete (%s)", n.CompleteGroups, n.Groups, n.RunID)
}

// BuildText renders the plain-text body.
func BuildText(n port.RunNotice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s finished at %s.\n\n", n.RunID, n.FinishedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Root: %s\nMode: %s\n", n.Root, n.Mode)
	fmt.Fprintf(&b, "Groups: %d (%d complete)\nFiles scanned: %d\nDiagnostics: %d\n", n.Groups, n.CompleteGroups, n.FilesScanned, n.Diagnostics)
	if len(n.Links) > 0 {
		b.WriteString("\nArtifacts:\n")
		for _, l := range n.Links {
			fmt.Fprintf(&b, "  %s: %s\n", l.Name, l.URL)
		}
	}
	return b.String()
}

// BuildHTML renders the HTML body.
func BuildHTML(n port.RunNotice) string {
	var links strings.Builder
	for _, l := range n.Links {
		fmt.Fprintf(&links, `<li><a href="%s">%s</a></li>`, html.EscapeString(l.URL), html.EscapeString(l.Name))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Reconciliation run finished</h2>
  <p>Run <code>%s</code> over <code>%s</code> (%s).</p>
  <table style="border-collapse: collapse;">
    <tr><td style="padding: 4px 12px 4px 0;">Groups</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Complete</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Files scanned</td><td>%d</td></tr>
    <tr><td style="padding: 4px 12px 4px 0;">Diagnostics</td><td>%d</td></tr>
  </table>
  <ul>%s</ul>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Docs Tracker - customs document reconciliation</p>
</body>
</html>`,
		html.EscapeString(n.RunID), html.EscapeString(n.Root), html.EscapeString(n.Mode),
		n.Groups, n.CompleteGroups, n.FilesScanned, n.Diagnostics, links.String())
}
