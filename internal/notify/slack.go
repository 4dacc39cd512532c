package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Notifier delivers a build report to people watching the build
type Notifier interface {
	Notify(ctx context.Context, title string, lines []string) error
}

// SlackNotifier posts reports to a Slack channel
type SlackNotifier struct {
	api     *slack.Client
	channel string
	log     *zap.Logger
}

// NewSlackNotifier creates a notifier posting to channel with a bot token
func NewSlackNotifier(token, channel string, log *zap.Logger, options ...slack.Option) *SlackNotifier {
	return &SlackNotifier{
		api:     slack.New(token, options...),
		channel: channel,
		log:     log,
	}
}

// Notify posts title followed by one quoted line per report line
func (n *SlackNotifier) Notify(ctx context.Context, title string, lines []string) error {
	_, ts, err := n.api.PostMessageContext(ctx,
		n.channel,
		slack.MsgOptionText(formatReport(title, lines), false))
	if err != nil {
		n.log.Error("failed to post build report", zap.String("channel", n.channel), zap.Error(err))
		return fmt.Errorf("failed to post build report: %w", err)
	}
	n.log.Debug("posted build report", zap.String("channel", n.channel), zap.String("ts", ts))
	return nil
}

func formatReport(title string, lines []string) string {
	out := make([]string, 0, len(lines)+1)
	out = append(out, "*"+title+"*")
	for _, line := range lines {
		if strings.HasPrefix(line, "FAILED") {
			out = append(out, ">:x: "+line)
			continue
		}
		out = append(out, ">"+line)
	}
	return strings.Join(out, "\n")
}

// Nop discards reports
type Nop struct{}

// Notify does nothing
func (Nop) Notify(context.Context, string, []string) error { return nil }
