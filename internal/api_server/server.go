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

	"github.com/devbrief/devbrief/internal/config"
	"github.com/devbrief/devbrief/internal/dispatch"
	"github.com/devbrief/devbrief/internal/handlers"
	"github.com/devbrief/devbrief/internal/service"
	"github.com/devbrief/devbrief/internal/store"
	"github.com/devbrief/devbrief/pkg/log"
	"github.com/devbrief/devbrief/pkg/metrics"
	"github.com/devbrief/devbrief/pkg/middleware"
	"go.uber.org/zap"
)

const (
	gracefulShutdownTimeout = 5 * time.Second
)

type Server struct {
	cfg        *config.Config
	store      store.Store
	dispatcher *dispatch.Dispatcher
	listener   net.Listener
}

// New returns a new instance of the devbrief API server.
func New(
	cfg *config.Config,
	store store.Store,
	dispatcher *dispatch.Dispatcher,
	listener net.Listener,
) *Server {
	return &Server{
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		listener:   listener,
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
			AllowedOrigins:   []string{s.cfg.Service.BaseUrl},
			AllowedMethods:   []string{"GET", "PUT", "POST", "DELETE", "HEAD", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.RequestID,
		log.Logger(zap.L(), "http"),
		chiMiddleware.Recoverer,
	)

	h := handlers.New(s.dispatcher, service.NewJobService(s.store), service.NewRepositoryService(s.store), service.NewMeetingService(s.store))
	h.Routes(router)

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
