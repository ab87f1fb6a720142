// Package server exposes the matching and lifecycle engine over a JSON HTTP
// API. Authentication happens upstream; the caller identity arrives in the
// X-Actor-ID and X-Actor-Role headers.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"bloodlink/internal/lifecycle"
	"bloodlink/internal/notify"
	"bloodlink/internal/registry"
	"bloodlink/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var decoder = form.NewDecoder()

const handlerTimeout = 5 * time.Second

type Service struct {
	logger   *logrus.Logger
	config   *types.Config
	manager  *lifecycle.Manager
	donors   *registry.Registry
	inbox    *notify.Inbox
	gatherer prometheus.Gatherer

	handler http.Handler
	server  *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	manager *lifecycle.Manager,
	donors *registry.Registry,
	inbox *notify.Inbox,
	gatherer prometheus.Gatherer,
) *Service {
	mux := flow.New()

	s := &Service{
		logger:   logger,
		config:   config,
		manager:  manager,
		donors:   donors,
		inbox:    inbox,
		gatherer: gatherer,
		handler:  mux,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	s.buildRouter(mux)

	return s
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the routed handler without starting a listener.
func (s *Service) Handler() http.Handler {
	return s.handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.StripTrailingSlash)
	r.Use(s.LoggingMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}), http.MethodGet)

	r.Group(func(r *flow.Mux) {
		r.Use(s.RequireActor)

		r.HandleFunc("/requests", s.handleListRequests, http.MethodGet)
		r.HandleFunc("/requests", s.handleCreateRequest, http.MethodPost)
		r.HandleFunc("/requests/:requestID", s.handleGetRequest, http.MethodGet)
		r.HandleFunc("/requests/:requestID", s.handleUpdateRequest, http.MethodPatch)
		r.HandleFunc("/requests/:requestID/cancel", s.handleCancelRequest, http.MethodPost)
		r.HandleFunc("/requests/:requestID/expire", s.handleExpireRequest, http.MethodPost)
		r.HandleFunc("/requests/:requestID/donors", s.handleEligibleDonors, http.MethodGet)
		r.HandleFunc("/requests/:requestID/responses", s.handleRespond, http.MethodPost)
		r.HandleFunc("/requests/:requestID/responses/:responseID/accept", s.handleAccept, http.MethodPost)

		r.HandleFunc("/donors/me/availability", s.handleSetAvailability, http.MethodPut)
		r.HandleFunc("/donors/me/location", s.handleUpdateLocation, http.MethodPut)
		r.HandleFunc("/donors/me/requests", s.handleNearbyRequests, http.MethodGet)
		r.HandleFunc("/donors/me/donations", s.handleDonorDonations, http.MethodGet)

		r.HandleFunc("/hospitals/me/requests/fulfilled", s.handleFulfilledRequests, http.MethodGet)
		r.HandleFunc("/hospitals/me/donations", s.handleHospitalDonations, http.MethodGet)

		r.HandleFunc("/notifications", s.handleNotifications, http.MethodGet)
		r.HandleFunc("/notifications/:eventID/read", s.handleMarkNotificationRead, http.MethodPost)
		r.HandleFunc("/notifications/:eventID", s.handleDeleteNotification, http.MethodDelete)
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
