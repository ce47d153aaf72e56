package main

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	gconfig "github.com/goliatone/go-config/config"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	users "github.com/goliatone/go-users"
	"github.com/goliatone/go-users/cmd/server/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

type App struct {
	config *gconfig.Container[*config.BaseConfig]
	bunDB  *bun.DB
	repo   users.RepositoryManager
	auth   *users.Auther
	srv    *fiber.App
	logger *glog.BaseLogger
}

func (a *App) Config() *config.BaseConfig {
	return a.config.Raw()
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("users"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{}).
		WithLogger(lgr.GetLogger("config"))

	ctx := context.Background()
	if err := cfg.Load(ctx); err != nil {
		panic(err)
	}

	fmt.Println("============")
	fmt.Println(print.MaybeHighlightJSON(cfg.Raw()))
	fmt.Println("============")

	app := &App{
		config: cfg,
		logger: lgr,
	}

	if err := WithPersistence(ctx, app); err != nil {
		panic(err)
	}

	if err := WithHTTPServer(app); err != nil {
		panic(err)
	}

	go func() {
		if err := app.srv.Listen(app.Config().GetServer().GetAddr()); err != nil {
			app.GetLogger("server").Error("server stopped", "error", err)
		}
	}()

	WaitExitSignal()

	if err := app.srv.Shutdown(); err != nil {
		app.GetLogger("server").Error("shutdown error", "error", err)
	}

	if err := app.bunDB.Close(); err != nil {
		app.GetLogger("server").Error("db close error", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.Config().GetPersistence().GetDSN())
	if err != nil {
		log.Fatal(err)
		return err
	}

	persistence.RegisterModel((*users.User)(nil))
	persistence.RegisterModel((*users.RefreshSession)(nil))

	cfg := app.Config().GetPersistence()
	dialect := sqlitedialect.New()
	client, err := persistence.New(cfg, db, dialect)
	if err != nil {
		log.Fatal(err)
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(users.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)

	if err := client.ValidateDialects(context.Background()); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	client.RegisterFixtures(fixturesFS).AddOptions(persistence.WithTrucateTables())

	if err := client.Seed(ctx); err != nil {
		return err
	}

	if report := client.Report(); report != nil && !report.IsZero() {
		fmt.Printf("report: %s\n", report.String())
	}

	app.bunDB = client.DB()
	app.repo = users.NewRepositoryManager(client.DB())

	return nil
}

func WithHTTPServer(app *App) error {
	if err := app.repo.Validate(); err != nil {
		return err
	}

	authCfg := app.Config().GetAuth()

	auther := users.NewAuthenticator(app.repo, authCfg).
		WithLogger(app.GetLogger("auth"))
	app.auth = auther

	gate := users.NewGate(auther, authCfg).
		WithLogger(app.GetLogger("gate"))

	srv := fiber.New(fiber.Config{
		AppName:      app.Config().Name,
		ErrorHandler: users.NewErrorHandler(app.GetLogger("http")),
	})

	api := srv.Group("/api/v1")

	users.RegisterAuthRoutes(api,
		users.WithAuther(auther),
		users.WithAuthGate(gate),
		users.WithAuthLogger(app.GetLogger("auth:ctrl")),
	)

	users.RegisterUserRoutes(api,
		users.WithUserRepo(app.repo),
		users.WithUserGate(gate),
		users.WithUserLogger(app.GetLogger("user:ctrl")),
	)

	app.srv = srv

	return nil
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
