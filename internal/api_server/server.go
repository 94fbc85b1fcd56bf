package apiserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sitegrader/sitegrader/internal/config"
	handlers "github.com/sitegrader/sitegrader/internal/handlers/v1alpha1"
	"github.com/sitegrader/sitegrader/internal/service"
	"github.com/sitegrader/sitegrader/internal/store"
	"github.com/sitegrader/sitegrader/pkg/metrics"
	"github.com/sitegrader/sitegrader/pkg/middleware"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg           *config.Config
	store         store.Store
	listener      net.Listener
	assessmentSrv *service.AssessmentService
}

// New returns a new instance of the sitegrader API server.
func New(
	cfg *config.Config,
	store store.Store,
	listener net.Listener,
	assessmentSrv *service.AssessmentService,
) *Server {
	return &Server{
		cfg:           cfg,
		store:         store,
		listener:      listener,
		assessmentSrv: assessmentSrv,
	}
}

func (s *Server) Run(ctx context.Context) error {
	zap.S().Named("api_server").Info("Initializing API server")

	router := chi.NewRouter()

	metricMiddleware := metrics.NewMiddleware("api_server")
	metricMiddleware.MustRegisterDefault()

	router.Use(
		metricMiddleware.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: false,
			MaxAge:           300,
		}),
		middleware.RequestID,
		middleware.Logger(),
		chiMiddleware.Recoverer,
	)

	h := handlers.NewServiceHandler(s.assessmentSrv, service.NewReportService())
	router.Route("/api/v1alpha1", h.Routes)

	srv := http.Server{Addr: s.cfg.Service.Address, Handler: router}

	go func() {
		<-ctx.Done()
		zap.S().Named("api_server").Infof("Shutdown signal received: %s", ctx.Err())
		ctxTimeout, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
		defer cancel()

		srv.SetKeepAlivesEnabled(false)
		_ = srv.Shutdown(ctxTimeout)
		zap.S().Named("api_server").Info("api server terminated")
	}()

	zap.S().Named("api_server").Infof("Listening on %s...", s.listener.Addr().String())
	if err := srv.Serve(s.listener); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}

	return nil
}
