package main

import (
	"context"
	"fmt"
	"time"

	"bloodlink/internal/db"
	"bloodlink/internal/lifecycle"
	"bloodlink/internal/matcher"
	"bloodlink/internal/metrics"
	"bloodlink/internal/registry"
	"bloodlink/internal/seed"
	"bloodlink/internal/store"
	"bloodlink/pkg/types"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

// engine holds the long-lived components shared by serve and match.
type engine struct {
	donors    *registry.Registry
	hospitals *registry.Hospitals
	requests  lifecycle.Store
	donations lifecycle.DonationStore
	matcher   *matcher.Matcher
	metrics   *metrics.Metrics
	promReg   *prometheus.Registry

	close func()
}

// newEngine wires the registry and request store to Postgres when
// DATABASE_URL is set, and to seeded in-memory state otherwise.
func newEngine(ctx context.Context, cfg *types.Config, logger *logrus.Logger) (*engine, error) {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	e := &engine{
		hospitals: registry.NewHospitals(),
		metrics:   metrics.New(promReg),
		promReg:   promReg,
		close:     func() {},
	}

	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, running in memory with seed fixtures")

		if err := e.hospitals.Load(seed.Hospitals()); err != nil {
			return nil, fmt.Errorf("failed to load seed hospitals: %w", err)
		}
		e.donors = registry.New(logger)
		e.donors.Load(seed.Donors())
		e.requests = lifecycle.NewMemoryStore()
		e.donations = lifecycle.NewMemoryDonationStore()
	} else {
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		e.close = pool.Close

		donorRepo := store.NewDonorRepository(pool)
		hospitalRepo := store.NewHospitalRepository(pool)

		donors, err := donorRepo.AllDonors(ctx)
		if err != nil {
			pool.Close()
			return nil, err
		}
		hospitals, err := hospitalRepo.Hospitals(ctx)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := e.hospitals.Load(hospitals); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to load hospitals: %w", err)
		}

		e.donors = registry.New(logger, registry.WithSaver(donorRepo))
		e.donors.Load(donors)
		e.requests = store.NewRequestRepository(pool)
		e.donations = store.NewDonationRepository(pool)

		logger.WithFields(logrus.Fields{
			"donors":    len(donors),
			"hospitals": len(hospitals),
		}).Info("registry hydrated from database")
	}

	e.matcher = matcher.New(e.donors, matcher.Policy{
		RadiusKm:           cfg.MatchRadiusKm,
		CriticalMultiplier: cfg.CriticalRadiusMultiplier,
		MaxLocationAge:     time.Duration(cfg.LocationMaxAgeMin) * time.Minute,
	}, e.metrics)

	return e, nil
}
