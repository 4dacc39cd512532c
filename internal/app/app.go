// Package app wires the configured site into the components used by the
// binaries.
package app

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"youtrack_helper/internal/config"
	"youtrack_helper/internal/gateway"
	"youtrack_helper/internal/notify"
	"youtrack_helper/internal/storage"
	"youtrack_helper/internal/updater"
	"youtrack_helper/internal/youtrack"
)

// App holds the components built for one site
type App struct {
	Site    config.Site
	Client  *youtrack.Client
	Updater *updater.Updater
	Log     *zap.Logger
}

// New builds the components for the site called siteName. An empty name
// selects the default site.
func New(ctx context.Context, cfg *config.Config, siteName string, log *zap.Logger) (*App, error) {
	site := cfg.Site
	if siteName != "" {
		var ok bool
		if site, ok = cfg.SiteByName(siteName); !ok {
			return nil, fmt.Errorf("unknown site %q", siteName)
		}
	}

	log = log.With(zap.String("site", site.Name))
	client := youtrack.NewClient(site.URL, youtrack.WithLogger(log))

	store, err := newCommandStore(ctx, cfg.CommandBucket)
	if err != nil {
		return nil, err
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SlackBotToken != "" {
		notifier = notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannel, log)
	}

	return &App{
		Site:    site,
		Client:  client,
		Updater: updater.New(client, site, store, notifier, log),
		Log:     log,
	}, nil
}

// newCommandStore keeps command history in S3 when bucket is set and in
// memory otherwise
func newCommandStore(ctx context.Context, bucket string) (storage.CommandStore, error) {
	if bucket == "" {
		return storage.NewMemoryCommandStore(), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return storage.NewS3CommandStore(s3.NewFromConfig(awsCfg), bucket), nil
}

// Gateway returns the HTTP gateway of the site
func (a *App) Gateway() *gateway.Server {
	return gateway.New(a.Client, a.Site, a.Updater, a.Log)
}
