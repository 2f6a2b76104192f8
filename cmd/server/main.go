package main

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/publisher/natspub"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

type App struct {
	config    *Config
	logger    *glog.BaseLogger
	bunDB     *bun.DB
	repo      accounts.RepositoryManager
	auther    *accounts.Auther
	httpAuth  *accounts.APIAuthenticator
	publisher *natspub.Publisher
	srv       router.Server[*fiber.App]
}

func (a *App) Config() *Config {
	return a.config
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg, err := LoadConfig()
	if err != nil {
		lgr.GetLogger("config").Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.GetLogger("persistence").Error("persistence setup failed", "error", err)
		os.Exit(1)
	}

	if err := WithPublisher(ctx, app); err != nil {
		lgr.GetLogger("broker").Error("broker setup failed", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		lgr.GetLogger("http").Error("http setup failed", "error", err)
		os.Exit(1)
	}

	app.srv.Serve(app.config.HTTPAddr)

	sig := WaitExitSignal()
	app.GetLogger("app").Info("shutting down", "signal", sig.String())

	app.publisher.Close()

	if err := app.bunDB.Close(); err != nil {
		app.GetLogger("persistence").Warn("database close error", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("unable to open database: %w", err)
	}

	bunDB := bun.NewDB(db, sqlitedialect.New())

	if err := runMigrations(ctx, bunDB); err != nil {
		return fmt.Errorf("unable to run migrations: %w", err)
	}

	repo := accounts.NewRepositoryManager(bunDB)
	if err := repo.Validate(); err != nil {
		return err
	}

	app.bunDB = bunDB
	app.repo = repo

	return nil
}

// runMigrations applies the embedded schema files in lexical order.
func runMigrations(ctx context.Context, db *bun.DB) error {
	migrations := accounts.GetMigrationsFS()

	var files []string
	err := fs.WalkDir(migrations, "data/sql/migrations", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	sort.Strings(files)

	for _, file := range files {
		contents, err := fs.ReadFile(migrations, file)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, string(contents)); err != nil {
			return fmt.Errorf("migration %s failed: %w", file, err)
		}
	}

	return nil
}

func WithPublisher(_ context.Context, app *App) error {
	publisher, err := natspub.Connect(natspub.Config{
		URL:      app.config.BrokerURL,
		ClientID: app.config.BrokerClientID,
		Topic:    app.config.BrokerTopic,
	}, app.GetLogger("broker"))
	if err != nil {
		return err
	}

	app.publisher = publisher
	return nil
}

func WithHTTPServer(_ context.Context, app *App) error {
	cfg := app.Config().GetAuth()

	userProvider := accounts.NewUserProvider(userFinderAdapter{users: app.repo.Users()})
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	auther := accounts.NewAuthenticator(userProvider, cfg)
	auther.WithLogger(app.GetLogger("auth:authz"))
	app.auther = auther

	httpAuth, err := accounts.NewHTTPAuthenticator(auther, cfg)
	if err != nil {
		return err
	}
	httpAuth.WithLogger(app.GetLogger("auth:http"))
	app.httpAuth = httpAuth

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
			AppName:       "go-accounts",
		}))
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	guard := httpAuth.ProtectedRoute(cfg, httpAuth.MakeAPIAuthErrorHandler(false))

	accounts.RegisterAuthRoutes(srv.Router(),
		accounts.WithControllerLogger(app.GetLogger("auth:ctrl")),
		accounts.WithControllerRepository(app.repo),
		accounts.WithControllerAuthenticator(auther),
		accounts.WithControllerPublisher(app.publisher),
		accounts.WithControllerMailer(accounts.NewLogMailer(app.GetLogger("mailer"))),
		accounts.WithControllerGuard(guard),
		accounts.WithControllerDebug(app.config.Debug),
	)

	app.srv = srv
	return nil
}

// userFinderAdapter narrows the repository to the lookup the identity
// provider needs.
type userFinderAdapter struct {
	users accounts.Users
}

func (a userFinderAdapter) GetByIdentifier(ctx context.Context, identifier string) (*accounts.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
