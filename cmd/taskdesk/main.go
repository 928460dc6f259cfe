package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/mfallon/taskdesk/internal/cli"
	"github.com/mfallon/taskdesk/internal/config"
	"github.com/mfallon/taskdesk/internal/db"
	"github.com/mfallon/taskdesk/internal/notify"
	"github.com/mfallon/taskdesk/internal/offline"
	"github.com/mfallon/taskdesk/internal/report"
	"github.com/mfallon/taskdesk/internal/repository"
	"github.com/mfallon/taskdesk/internal/server"
	"github.com/mfallon/taskdesk/internal/swcache"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	taskRepo := repository.NewSQLiteTaskRepo(database)
	assignmentRepo := repository.NewSQLiteAssignmentRepo(database)
	projectRepo := repository.NewSQLiteProjectRepo(database)
	userRepo := repository.NewSQLiteUserRepo(database)
	roleRepo := repository.NewSQLiteRoleRepo(database)
	reportLogRepo := repository.NewSQLiteReportLogRepo(database)
	queueRepo := repository.NewSQLiteQueueRepo(database)

	// Wire services
	reports := report.NewService(
		taskRepo, assignmentRepo, projectRepo, userRepo, roleRepo, reportLogRepo,
		report.NewSlogObserver(logger),
	)

	// Email delivery is optional: without a provider credential, dispatch
	// degrades to skipped outcomes.
	var emailClient notify.EmailClient
	if cfg.EmailAPIKey != "" {
		emailClient = notify.NewResendClient(cfg.EmailEndpoint, cfg.EmailAPIKey, notify.NewLogObserver(os.Stderr))
	}
	dispatcher := notify.NewDispatcher(userRepo, emailClient, notify.Config{
		ServiceKey: cfg.ServiceKey,
		AppBaseURL: cfg.AppBaseURL,
		From:       cfg.EmailFrom,
	})
	inbox := notify.NewInbox(db.NewSQLiteUnitOfWork(database))

	queue := offline.NewManager(
		queueRepo,
		offline.NewHTTPDispatcher(cfg.AppBaseURL, cfg.ServiceKey),
		offline.Config{
			MaxAttempts:   cfg.QueueMaxAttempts,
			DrainInterval: time.Duration(cfg.QueueDrainSeconds) * time.Second,
		},
		logger,
	)

	cache := swcache.NewManager(
		swcache.NewMemoryStore(),
		swcache.NewHTTPFetcher(cfg.AppBaseURL),
		swcache.Config{
			Version:     cfg.CacheVersion,
			BudgetBytes: cfg.CacheBudgetBytes,
		},
		logger,
	)

	auth := server.NewStaticTokenAuthenticator(cfg.TokenTable())
	srv := server.NewServer(server.Deps{
		Reports:   reports,
		Notifier:  dispatcher,
		Inbox:     inbox,
		Queue:     queue,
		Cache:     cache,
		Auth:      auth,
		PublicKey: cfg.PublicKey,
		Logger:    logger,
	})

	app := &cli.App{
		Reports: reports,
		Queue:   queue,
		Server:  srv,
		Addr:    cfg.Addr,
		Out:     os.Stdout,
	}
	return cli.NewRootCmd(app).Execute()
}

// newLogger picks text output on interactive terminals, JSON otherwise.
func newLogger(cfg *config.Config) *slog.Logger {
	interactive := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	if cfg.LogJSON || !interactive {
		return slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}
