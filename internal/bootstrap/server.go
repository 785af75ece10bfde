package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/visitbooking/api"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SchedulerService is the gRPC health service name reporting whether this
// process runs the transition sweep.
const SchedulerService = "visits.v1.Scheduler"

const shutdownTimeout = 5 * time.Second

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
}

// Run starts the HTTP API, the gRPC health server and, when configured, the
// embedded transition scheduler. It blocks until ctx is canceled or one of
// them fails.
func Run(ctx context.Context, app *App) error {
	cfg := app.Config
	s := newServers(app)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.GRPC.Address != "" {
		lis, err := net.Listen("tcp", cfg.GRPC.Address)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
		}
		g.Go(func() error {
			app.Log.Info("grpc health server listening", zap.String("address", cfg.GRPC.Address))
			return s.grpcServer.Serve(lis)
		})
	}

	g.Go(func() error {
		app.Log.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if cfg.RunsEmbeddedScheduler() {
		g.Go(func() error { return app.Scheduler.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.health.Shutdown()
		s.grpcServer.GracefulStop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newServers(app *App) *Servers {
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	schedulerStatus := healthpb.HealthCheckResponse_NOT_SERVING
	if app.Config.RunsEmbeddedScheduler() {
		schedulerStatus = healthpb.HealthCheckResponse_SERVING
	}
	healthSrv.SetServingStatus(SchedulerService, schedulerStatus)

	return &Servers{
		grpcServer: grpcSrv,
		health:     healthSrv,
		httpServer: &http.Server{
			Addr:              app.Config.HTTP.Address,
			Handler:           NewRouter(app),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewRouter wires the REST API, health endpoint and swagger docs.
func NewRouter(app *App) *gin.Engine {
	cfg := app.Config

	router := gin.New()
	router.Use(api.RequestLogger(app.Log), gin.Recovery())

	router.GET("/healthz", healthHandler(app.Checks))

	v1 := router.Group("/api/v1")
	api.NewAvailabilityHandler(app.Availability).Register(v1)

	limiter := api.NewActorLimiter(cfg.HTTP.ActionRatePerSecond, cfg.HTTP.ActionBurst)
	api.NewBookingHandler(app.Bookings, cfg.Booking.CheckInWindow(), limiter).Register(v1.Group("/bookings"))

	if cfg.HTTP.SwaggerFile != "" {
		router.StaticFile("/docs/visits.swagger.json", cfg.HTTP.SwaggerFile)
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/docs/visits.swagger.json"))))
	}
	return router
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": result})
	}
}
