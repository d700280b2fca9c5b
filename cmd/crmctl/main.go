package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/safar/crm-store/internal/app"
	"github.com/safar/crm-store/internal/config"
	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/crmclient"
	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/jobs"
	"github.com/safar/crm-store/internal/logging"
	"github.com/safar/crm-store/internal/seed"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type env struct {
	cfg *config.Config
	log *logrus.Logger
}

func load() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log}, nil
}

func (e *env) runner() *jobs.Runner {
	return jobs.NewRunner(crmclient.New(e.cfg.API), e.cfg.Jobs, e.log)
}

// withEnv loads configuration before running fn.
func withEnv(fn func(c *cli.Context, e *env) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		e, err := load()
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return fn(c, e)
	}
}

func migrateCommand(direction database.Direction) *cli.Command {
	return &cli.Command{
		Name:  string(direction),
		Usage: fmt.Sprintf("apply the %s migrations", direction),
		Action: withEnv(func(c *cli.Context, e *env) error {
			if err := database.Migrate(e.cfg.Database.URL, direction); err != nil {
				return err
			}
			e.log.WithField("direction", direction).Info("migrations applied")
			return nil
		}),
	}
}

func main() {
	cliApp := &cli.App{
		Name:  "crmctl",
		Usage: "CRM maintenance commands and scheduled jobs",
		Commands: []*cli.Command{
			{
				Name:        "migrate",
				Usage:       "manage the database schema",
				Subcommands: []*cli.Command{migrateCommand(database.Up), migrateCommand(database.Down)},
			},
			{
				Name:   "seed",
				Usage:  "create the demo customers and products",
				Action: withEnv(seedAction),
			},
			{
				Name:  "heartbeat",
				Usage: "append a heartbeat line",
				Action: withEnv(func(c *cli.Context, e *env) error {
					return e.runner().Heartbeat(c.Context)
				}),
			},
			{
				Name:  "report",
				Usage: "append the customer, order and revenue report",
				Action: withEnv(func(c *cli.Context, e *env) error {
					return e.runner().Report(c.Context)
				}),
			},
			{
				Name:  "reminders",
				Usage: "append reminders for recent orders",
				Action: withEnv(func(c *cli.Context, e *env) error {
					if err := e.runner().Reminders(c.Context); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Println("Order reminders processed!")
					return nil
				}),
			},
			{
				Name:   "schedule",
				Usage:  "run every job on its schedule until interrupted",
				Action: withEnv(scheduleAction),
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("crmctl")
	}
}

func seedAction(c *cli.Context, e *env) error {
	backend, closeBackend, err := app.Open(e.cfg.Database, e.log)
	if err != nil {
		return err
	}
	defer closeBackend()

	svc := crm.NewService(backend, e.log)
	sum, err := seed.Run(c.Context, svc, backend, e.log)
	if err != nil {
		return err
	}

	fmt.Printf("Seeded %d customers (%d skipped) and %d products (%d already present)\n",
		sum.CustomersCreated, len(sum.CustomerErrors), sum.ProductsCreated, sum.ProductsSkipped)
	return nil
}

func scheduleAction(c *cli.Context, e *env) error {
	s, err := jobs.NewScheduler(e.runner())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.log.WithField("jobs", s.Entries()).Info("scheduler started")
	s.Run(ctx)
	e.log.Info("scheduler stopped")
	return nil
}
