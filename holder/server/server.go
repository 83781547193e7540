package server

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-errors/errors"
	"github.com/minvws/eudcc-decoder/common"
	"github.com/minvws/eudcc-decoder/holder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"net/http"
	"time"
)

const (
	MAX_REQUEST_BODY_SIZE = 64 * 1024
	SHUTDOWN_TIMEOUT      = 10 * time.Second
	DECODE_RESULT_OK      = "ok"
)

type Configuration struct {
	ListenAddress string
	ListenPort    string
}

type server struct {
	config   *Configuration
	holder   *holder.Holder
	logger   zerolog.Logger
	registry *prometheus.Registry
	decodes  *prometheus.CounterVec
}

type decodeRequest struct {
	Credential string `json:"credential"`
}

type decodeResponse struct {
	Decoded           bool                      `json:"decoded"`
	ErrorKind         string                    `json:"errorKind,omitempty"`
	Error             string                    `json:"error,omitempty"`
	HealthCertificate *common.HealthCertificate `json:"healthCertificate,omitempty"`
}

func Run(ctx context.Context, config *Configuration, logger zerolog.Logger) error {
	s := newServer(config, logger)

	err := s.Serve(ctx)
	if err != nil {
		return errors.WrapPrefix(err, "Could not start server", 0)
	}

	return nil
}

func newServer(config *Configuration, logger zerolog.Logger) *server {
	registry := prometheus.NewRegistry()
	decodes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eudcc",
		Name:      "decode_total",
		Help:      "Number of decoded credentials by result.",
	}, []string{"result"})
	registry.MustRegister(decodes)

	return &server{
		config:   config,
		holder:   holder.New(),
		logger:   logger,
		registry: registry,
		decodes:  decodes,
	}
}

func (s *server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%s", s.config.ListenAddress, s.config.ListenPort)
	s.logger.Info().Str("addr", addr).Msg("Starting decode server")

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.buildHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			return errors.WrapPrefix(err, "Could not start listening", 0)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancel()

		s.logger.Info().Msg("Shutting down decode server")
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}

func (s *server) buildHandler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Post("/decode", s.handleDecode)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

func (s *server) handleDecode(w http.ResponseWriter, r *http.Request) {
	req := &decodeRequest{}
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MAX_REQUEST_BODY_SIZE)).Decode(req)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, errors.WrapPrefix(err, "Could not JSON unmarshal decode request", 0))
		return
	}

	var response *decodeResponse
	hcert, err := s.holder.ReadQREncoded(req.Credential)
	if err != nil {
		kind := common.KindOf(err)
		s.decodes.WithLabelValues(kind.String()).Inc()

		response = &decodeResponse{
			Decoded:   false,
			ErrorKind: kind.String(),
			Error:     err.Error(),
		}
	} else {
		s.decodes.WithLabelValues(DECODE_RESULT_OK).Inc()

		response = &decodeResponse{
			Decoded:           true,
			HealthCertificate: hcert,
		}
	}

	responseJson, err := json.Marshal(response)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, errors.WrapPrefix(err, "Could not JSON marshal decode response", 0))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(responseJson)
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("requestId", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Handled request")
	})
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	s.logger.Error().
		Err(err).
		Str("requestId", middleware.GetReqID(r.Context())).
		Msg("Request failed")

	http.Error(w, err.Error(), status)
}
