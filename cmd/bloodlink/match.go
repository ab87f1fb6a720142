package main

import (
	"context"
	"fmt"

	"bloodlink/pkg/types"

	"github.com/k0kubun/pp/v3"
	"github.com/urfave/cli/v2"
)

var matchCommand = &cli.Command{
	Name:  "match",
	Usage: "Print the ranked eligible donors for a hypothetical request",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "hospital",
			Usage:    "Hospital ID used as the request origin",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "blood-type",
			Aliases:  []string{"b"},
			Usage:    "Blood type needed, e.g. O-",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "urgency",
			Aliases: []string{"u"},
			Usage:   "normal, urgent or critical",
			Value:   string(types.UrgencyNormal),
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		bloodType, err := types.ParseBloodType(c.String("blood-type"))
		if err != nil {
			return err
		}
		urgency, err := types.ParseUrgency(c.String("urgency"))
		if err != nil {
			return err
		}

		eng, err := newEngine(context.Background(), cfg, newLogger(cfg))
		if err != nil {
			return err
		}
		defer eng.close()

		hospital, err := eng.hospitals.Hospital(c.String("hospital"))
		if err != nil {
			return fmt.Errorf("hospital %s: %w", c.String("hospital"), err)
		}

		candidates, err := eng.matcher.Match(&types.BloodRequest{
			HospitalID: hospital.ID,
			BloodType:  bloodType,
			Urgency:    urgency,
			OriginLat:  hospital.Latitude,
			OriginLon:  hospital.Longitude,
		})
		if err != nil {
			return err
		}

		fmt.Printf("%d eligible donors for %s (%s) near %s, radius %v km\n",
			len(candidates), bloodType, urgency, hospital.Name, eng.matcher.Radius(urgency))
		pp.Println(candidates)

		return nil
	},
}
