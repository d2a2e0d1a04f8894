package main

import (
	"context"
	"os"
	"time"

	bookingrepository "dispatch/internal/bookings/repository"
	bookingservice "dispatch/internal/bookings/service"
	bookingvalidator "dispatch/internal/bookings/validator"
	catalogrepository "dispatch/internal/catalog/repository"
	catalogservice "dispatch/internal/catalog/service"
	catalogvalidator "dispatch/internal/catalog/validator"
	"dispatch/internal/identity/bootstrap"
	identityrepository "dispatch/internal/identity/repository"
	"dispatch/internal/seed"
	technicianrepository "dispatch/internal/technicians/repository"
	technicianservice "dispatch/internal/technicians/service"
	technicianvalidator "dispatch/internal/technicians/validator"
	"dispatch/pkg/config"

	"github.com/urfave/cli/v2"
)

const (
	JobName = "admin-tool"

	commandTimeout = 60 * time.Second
)

func main() {
	app := &cli.App{
		Name:  JobName,
		Usage: "one-shot administrative scripts for the dispatch backend",
		Commands: []*cli.Command{
			{
				Name:   "create-admin",
				Usage:  "create an account (or reuse an existing one) and grant it the admin role",
				Flags:  credentialFlags(),
				Action: withConfig(createAdmin),
			},
			{
				Name:   "reset-password",
				Usage:  "set a new password, re-enable the account and re-assert the admin role",
				Flags:  credentialFlags(),
				Action: withConfig(resetPassword),
			},
			{
				Name:   "seed",
				Usage:  "insert sample services, technicians and pending bookings",
				Action: withConfig(seedData),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		// setup faults have already been logged by the failing command
		os.Exit(1)
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "email", Usage: "account email", Required: true, EnvVars: []string{"ADMIN_EMAIL"}},
		&cli.StringFlag{Name: "password", Usage: "account password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
	}
}

// withConfig connects to MongoDB for the duration of one command and exits
// non-zero when the command fails.
func withConfig(action func(ctx context.Context, c *cli.Context, cfg *config.Config) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg := config.Load(JobName)
		cfg.SetMongo()
		defer cfg.GracefulShutdown()

		ctx, cancel := context.WithTimeout(c.Context, commandTimeout)
		defer cancel()

		if err := action(ctx, c, cfg); err != nil {
			cfg.Log.Error("Command failed", "command", c.Command.Name, "error", err)
			return cli.Exit(err.Error(), 1)
		}
		return nil
	}
}

func newBootstrapper(cfg *config.Config) *bootstrap.Bootstrapper {
	return bootstrap.NewBootstrapper(
		identityrepository.NewMongoAccountRepository(cfg),
		identityrepository.NewMongoUserRepository(cfg),
		cfg.Log,
	)
}

func createAdmin(ctx context.Context, c *cli.Context, cfg *config.Config) error {
	account, created, err := newBootstrapper(cfg).CreateAdmin(ctx, c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	cfg.Log.Info("Admin ready", "uid", account.UID, "email", account.Email, "created", created)
	return nil
}

func resetPassword(ctx context.Context, c *cli.Context, cfg *config.Config) error {
	account, err := newBootstrapper(cfg).ResetPassword(ctx, c.String("email"), c.String("password"))
	if err != nil {
		return err
	}
	cfg.Log.Info("Password reset complete", "uid", account.UID, "email", account.Email)
	return nil
}

func seedData(ctx context.Context, _ *cli.Context, cfg *config.Config) error {
	services := catalogrepository.NewMongoServiceRepository(cfg)
	technicians := technicianrepository.NewMongoTechnicianRepository(cfg)

	seeder := seed.NewSeeder(
		catalogservice.NewCatalogService(services, catalogvalidator.NewServiceValidator(cfg.Log), cfg),
		technicianservice.NewTechnicianService(technicians, technicianvalidator.NewTechnicianValidator(cfg.Log), cfg),
		bookingservice.NewBookingService(
			bookingrepository.NewMongoBookingRepository(cfg),
			services,
			technicians,
			bookingvalidator.NewBookingValidator(cfg.Log),
			cfg,
		),
		cfg.Log,
	)

	result, err := seeder.Run(ctx)
	if err != nil {
		return err
	}
	cfg.Log.Info("Seed complete",
		"services", len(result.Services),
		"technicians", len(result.Technicians),
		"bookings", len(result.Bookings),
	)
	return nil
}
