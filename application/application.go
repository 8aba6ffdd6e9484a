// Package application wires the bot, its database and its extensions together
// and runs them as one process.
package application

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/platforma-dev/yatb/bot"
	"github.com/platforma-dev/yatb/config"
	"github.com/platforma-dev/yatb/database"
	"github.com/platforma-dev/yatb/extension"
	"github.com/platforma-dev/yatb/log"
)

// ErrUnknownCommand is returned when an unknown CLI command is provided.
var ErrUnknownCommand = errors.New("unknown command")

// ErrDatabaseMigrationFailed is an error type that represents a failed database migration.
type ErrDatabaseMigrationFailed struct {
	err error
}

// Error returns the formatted error message for ErrDatabaseMigrationFailed.
func (e *ErrDatabaseMigrationFailed) Error() string {
	return fmt.Sprintf("failed to migrate database: %v", e.err)
}

// Unwrap returns the underlying error for ErrDatabaseMigrationFailed.
func (e *ErrDatabaseMigrationFailed) Unwrap() error {
	return e.err
}

type migrator interface {
	Migrate(ctx context.Context) (database.Report, error)
	MigrateForce(ctx context.Context) (database.Report, error)
}

// Application is the process-wide context: it owns the database, the bot and
// the extension loader and is handed to whatever needs them.
type Application struct {
	config *config.Config
	db     *database.Database
	bot    *bot.Bot

	migrationSource database.Source
	migrator        migrator
	loader          *extension.Loader
	extensions      []string

	startupTasks   []startupTask
	services       map[string]Runner
	healthcheckers map[string]Healthchecker
	health         *Health
}

// Option customizes an Application.
type Option func(*Application)

// WithMigrationSource replaces the migrations directory from the config.
func WithMigrationSource(source database.Source) Option {
	return func(a *Application) {
		a.migrationSource = source
	}
}

// New creates an Application. Migrations are read from cfg.MigrationsDir unless
// WithMigrationSource is given.
func New(cfg *config.Config, db *database.Database, b *bot.Bot, registry *extension.Registry, opts ...Option) *Application {
	a := &Application{
		config:         cfg,
		db:             db,
		bot:            b,
		loader:         extension.NewLoader(registry, b),
		services:       make(map[string]Runner),
		healthcheckers: make(map[string]Healthchecker),
		health:         NewHealth(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.migrationSource == nil {
		a.migrationSource = database.NewFSSource(os.DirFS(cfg.MigrationsDir))
	}

	a.migrator = database.NewMigrator(db.Store(cfg.MigrationsTable), a.migrationSource, cfg.AutomigrateEnabled())

	return a
}

// Config returns the application configuration.
func (a *Application) Config() *config.Config {
	return a.config
}

// Database returns the shared database pool.
func (a *Application) Database() *database.Database {
	return a.db
}

// Bot returns the command framework handle.
func (a *Application) Bot() *bot.Bot {
	return a.bot
}

// Health returns the current health status of the application.
func (a *Application) Health(ctx context.Context) *Health {
	for hcName, hc := range a.healthcheckers {
		a.health.SetServiceData(hcName, hc.Healthcheck(ctx))
	}
	return a.health
}

// LoadExtensions sets the extensions loaded, in order, when the application runs.
func (a *Application) LoadExtensions(names ...string) {
	a.extensions = append(a.extensions, names...)
}

// OnStart registers a new startup task with the given runner and configuration.
func (a *Application) OnStart(task Runner, config StartupTaskConfig) {
	a.startupTasks = append(a.startupTasks, startupTask{task, config})
}

// OnStartFunc registers a function as a startup task.
func (a *Application) OnStartFunc(task RunnerFunc, config StartupTaskConfig) {
	a.startupTasks = append(a.startupTasks, startupTask{task, config})
}

// RegisterService adds a named service to the application.
func (a *Application) RegisterService(serviceName string, service Runner) {
	a.services[serviceName] = service
	a.health.AddService(serviceName)

	healthcheckerService, ok := service.(Healthchecker)
	if ok {
		a.healthcheckers[serviceName] = healthcheckerService
	}
}

func (a *Application) printUsage() {
	fmt.Println("Usage: <binary> <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run       Start the bot")
	fmt.Println("  migrate   Run database migrations regardless of AUTOMIGRATE")
}

func (a *Application) migrate(ctx context.Context) error {
	report, err := a.migrator.MigrateForce(ctx)
	a.health.SetMigrations(report)
	if err != nil {
		log.ErrorContext(ctx, "error in database migration", "error", err)
		return &ErrDatabaseMigrationFailed{err: err}
	}

	return nil
}

// automigrate runs the startup migration pass. Failures are logged and the
// process keeps going with whatever schema it has.
func (a *Application) automigrate(ctx context.Context) {
	report, err := a.migrator.Migrate(ctx)
	a.health.SetMigrations(report)
	if err != nil {
		log.ErrorContext(ctx, "automigration failed, continuing without all migrations applied", "error", err, "version", report.Highest())
	}
}

func (a *Application) run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.InfoContext(ctx, "starting application", "startupTasks", len(a.startupTasks), "extensions", len(a.extensions))

	err := a.db.Ping(ctx)
	if err != nil {
		log.WarnContext(ctx, "database is not reachable", "error", err)
	}

	a.automigrate(ctx)

	result := a.loader.Load(ctx, a.extensions...)
	a.health.SetExtensions(result)

	for i, task := range a.startupTasks {
		log.InfoContext(ctx, "running task", "task", task.config.Name, "index", i)

		taskCtx := log.WithStartupTask(ctx, task.config.Name)

		err := task.runner.Run(taskCtx)
		if err != nil {
			log.ErrorContext(ctx, "error in startup task", "error", err, "task", task.config.Name)

			if task.config.AbortOnError {
				return &ErrStartupTaskFailed{err: err}
			}
		}
	}

	var wg sync.WaitGroup

	for serviceName, service := range a.services {
		wg.Add(1)

		serviceCtx := log.WithService(ctx, serviceName)

		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					a.health.FailService(serviceName, fmt.Errorf("service panicked: %v", r))
					log.ErrorContext(serviceCtx, "service panicked", "panic", r)
				}
			}()

			log.InfoContext(serviceCtx, "starting service")
			a.health.StartService(serviceName)

			err := service.Run(serviceCtx)
			if err != nil && !errors.Is(err, context.Canceled) {
				a.health.FailService(serviceName, err)
				log.ErrorContext(serviceCtx, "error in service", "error", err)
				return
			}
			a.health.StopService(serviceName)
		}()
	}

	a.health.StartApplication(time.Now())

	wg.Wait()

	return nil
}

// Run parses CLI arguments and executes the appropriate command.
// Supported commands: run (start the bot), migrate (run database migrations).
// Returns nil on success, ErrUnknownCommand for unknown commands.
func (a *Application) Run(ctx context.Context) error {
	return a.Execute(ctx, os.Args[1:])
}

// Execute runs the command named by args[0].
func (a *Application) Execute(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if len(args) < 1 {
		a.printUsage()
		return nil
	}

	command := args[0]
	switch command {
	case "run":
		return a.run(ctx)
	case "migrate":
		return a.migrate(ctx)
	case "--help", "-h":
		a.printUsage()
		return nil
	default:
		a.printUsage()
		return ErrUnknownCommand
	}
}
