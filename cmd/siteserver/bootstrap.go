package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/remixweb/site/internal/auth"
	"github.com/remixweb/site/internal/checkout"
	"github.com/remixweb/site/internal/config"
	"github.com/remixweb/site/internal/docs"
	"github.com/remixweb/site/internal/docs/source"
	"github.com/remixweb/site/internal/jam"
	"github.com/remixweb/site/internal/license"
	"github.com/remixweb/site/internal/markdown"
	"github.com/remixweb/site/internal/metrics"
	"github.com/remixweb/site/internal/newsletter"
	"github.com/remixweb/site/internal/server/httpserver"
)

// buildSource constructs the content source selected by configuration.
// The choice happens exactly once, here; everything downstream works
// against the interface.
func buildSource(ctx context.Context, cfg *config.DocsConfig) (source.Source, error) {
	switch cfg.Mode {
	case "local":
		return source.NewLocal(cfg.ContentDir, cfg.DevTags), nil
	case "github":
		return source.NewGitHub(source.GitHubOptions{
			Owner:         cfg.Owner,
			Repo:          cfg.Repo,
			Token:         cfg.Token,
			DefaultBranch: cfg.DefaultBranch,
		})
	case "gitmirror":
		return source.NewGitMirror(ctx, source.GitMirrorOptions{
			URL:           cfg.RepoURL,
			Dir:           cfg.MirrorDir,
			Token:         cfg.Token,
			DefaultBranch: cfg.DefaultBranch,
		})
	default:
		return nil, fmt.Errorf("unknown docs mode %q", cfg.Mode)
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	recorder := metrics.NewPrometheusRecorder(prom.NewRegistry())
	renderer := markdown.NewRenderer()

	src, err := buildSource(ctx, &cfg.Docs)
	if err != nil {
		return err
	}
	docsService := docs.NewService(src, renderer, recorder, docs.Options{
		RootPath:  cfg.Docs.RootPath,
		CacheTTL:  cfg.Docs.CacheTTL,
		CacheSize: cfg.Docs.CacheSize,
	})
	jamService := jam.NewService(cfg.Jam.DataDir, renderer, recorder, cfg.Docs.CacheTTL)

	store, err := license.NewSQLiteStore(cfg.License.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	licenses := license.NewService(store)

	deps := httpserver.Deps{
		Docs:     docsService,
		Jam:      jamService,
		Licenses: licenses,
		Recorder: recorder,
		Metrics:  recorder.Handler(),
	}

	if cfg.Jam.StoreDomain != "" {
		deps.Tickets, err = jam.NewTicketClient(jam.TicketOptions{
			Domain:        cfg.Jam.StoreDomain,
			Token:         cfg.Jam.StoreToken,
			ProductID:     cfg.Jam.ProductID,
			DiscountTiers: cfg.Jam.DiscountTiers,
		})
		if err != nil {
			return err
		}
	}

	if cfg.Newsletter.APISecret != "" {
		deps.Newsletter, err = newsletter.NewClient(cfg.Newsletter.APIURL, cfg.Newsletter.APISecret, cfg.Newsletter.FormID)
		if err != nil {
			return err
		}
	}

	if cfg.Auth.SigningKey != "" {
		deps.Sessions, err = auth.NewSessions([]byte(cfg.Auth.SigningKey), cfg.Auth.SessionTTL)
		if err != nil {
			return err
		}
	}

	// Queued fulfillment when NATS is configured, inline otherwise.
	var queue *checkout.NATSQueue
	if cfg.NATS.URL != "" {
		queue, err = checkout.NewNATSQueue(ctx, cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		defer queue.Close()
	}
	var publisher checkout.Publisher
	if queue != nil {
		publisher = queue
	}
	deps.Fulfiller = checkout.NewFulfiller(licenses, store, publisher, recorder)
	if queue != nil {
		worker := checkout.NewFulfiller(licenses, store, nil, recorder)
		go func() {
			if err := queue.Consume(ctx, worker); err != nil {
				slog.Error("Fulfillment worker stopped", "error", err)
			}
		}()
	}

	if cfg.Billing.SecretKey != "" {
		deps.Billing, err = checkout.NewBillingClient(cfg.Billing.APIURL, cfg.Billing.SecretKey)
		if err != nil {
			return err
		}
	}

	// Dev convenience: flush docs caches when local content changes.
	if cfg.Docs.Mode == "local" && cfg.Docs.Watch {
		go func() {
			if err := docsService.Watch(ctx, cfg.Docs.ContentDir); err != nil {
				slog.Warn("Content watcher stopped", "error", err)
			}
		}()
	}

	if cfg.Docs.WarmInterval > 0 {
		scheduler, err := newWarmScheduler(ctx, cfg, src, docsService)
		if err != nil {
			return err
		}
		defer func() { _ = scheduler.Shutdown() }()
	}

	return httpserver.New(cfg, deps).Start(ctx)
}

// newWarmScheduler periodically refreshes the docs mirror (when in use)
// and re-warms version heads and menus ahead of cache expiry.
func newWarmScheduler(ctx context.Context, cfg *config.Config, src source.Source, docsService *docs.Service) (gocron.Scheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create warm scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Docs.WarmInterval),
		gocron.NewTask(func() {
			if mirror, ok := src.(*source.GitMirror); ok {
				if err := mirror.Refresh(ctx); err != nil {
					slog.Warn("Docs mirror refresh failed", "error", err)
				}
			}
			if err := docsService.Warm(ctx); err != nil {
				slog.Warn("Docs cache warm failed", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule warm job: %w", err)
	}

	scheduler.Start()
	slog.Info("Docs warm scheduler started", "interval", cfg.Docs.WarmInterval)
	return scheduler, nil
}

// runCheck validates the configuration and the conference data set.
func runCheck(ctx context.Context, cfg *config.Config) error {
	renderer := markdown.NewRenderer()
	jamService := jam.NewService(cfg.Jam.DataDir, renderer, nil, cfg.Docs.CacheTTL)
	if _, err := jamService.Lineup(ctx); err != nil {
		return fmt.Errorf("conference data invalid: %w", err)
	}
	return nil
}

// runWarm resolves heads and builds every menu once, printing a short
// summary.
func runWarm(ctx context.Context, cfg *config.Config) error {
	renderer := markdown.NewRenderer()
	src, err := buildSource(ctx, &cfg.Docs)
	if err != nil {
		return err
	}
	docsService := docs.NewService(src, renderer, nil, docs.Options{
		RootPath:  cfg.Docs.RootPath,
		CacheTTL:  cfg.Docs.CacheTTL,
		CacheSize: cfg.Docs.CacheSize,
	})

	heads, err := docsService.Heads(ctx)
	if err != nil {
		return err
	}
	if err := docsService.Warm(ctx); err != nil {
		return err
	}
	fmt.Printf("warmed %d version heads\n", len(heads))
	for _, head := range heads {
		marker := ""
		if head.IsLatest {
			marker = " (latest)"
		}
		fmt.Printf("  %s -> %s%s\n", head.Head, head.Version, marker)
	}
	return nil
}
