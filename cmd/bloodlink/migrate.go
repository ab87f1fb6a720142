package main

import (
	"fmt"

	"bloodlink/internal/db"

	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:  "migrate",
	Usage: "Apply or roll back the database schema",
	Subcommands: []*cli.Command{
		{
			Name:  "up",
			Usage: "Apply all pending migrations",
			Action: func(c *cli.Context) error {
				return runMigrate(c, db.Up)
			},
		},
		{
			Name:  "down",
			Usage: "Roll back every migration",
			Action: func(c *cli.Context) error {
				return runMigrate(c, db.Down)
			},
		},
	},
}

func runMigrate(c *cli.Context, direction db.Direction) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := requireDatabase(cfg); err != nil {
		return err
	}

	return db.Migrate(cfg.DatabaseURL, direction, newLogger(cfg))
}
