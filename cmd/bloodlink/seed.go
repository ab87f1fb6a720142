package main

import (
	"context"
	"fmt"

	"bloodlink/internal/db"
	"bloodlink/internal/seed"
	"bloodlink/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with hospitals and donors",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := requireDatabase(cfg); err != nil {
			return err
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		logrus.Info("Seeding hospitals...")
		if err := seed.SeedHospitals(ctx, store.NewHospitalRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed hospitals: %w", err)
		}

		logrus.Info("Seeding donors...")
		if err := seed.SeedDonors(ctx, store.NewDonorRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed donors: %w", err)
		}

		logrus.Info("Seed data loaded successfully")

		return nil
	},
}
