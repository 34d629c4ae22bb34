package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/oratio-labs/oratio-core/internal/asr"
	"github.com/oratio-labs/oratio-core/internal/assess"
	"github.com/oratio-labs/oratio-core/internal/bus"
	"github.com/oratio-labs/oratio-core/internal/config"
	"github.com/oratio-labs/oratio-core/internal/history"
	"github.com/oratio-labs/oratio-core/internal/media"
	"github.com/oratio-labs/oratio-core/internal/natsserver"
)

// assessor is the slice of the pipeline the HTTP layer depends on.
type assessor interface {
	Assess(ctx context.Context, req assess.Request) assess.Result
}

type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	assessor    assessor
	store       *history.Store
	busClient   *bus.Client
	embedded    *natsserver.EmbeddedServer
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup

	assessCounter  metric.Int64Counter
	assessDuration metric.Float64Histogram
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry
	if err := r.initInstruments(); err != nil {
		return fmt.Errorf("failed to create metric instruments: %w", err)
	}

	if r.cfg.Bus.Enabled {
		embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
		if err != nil {
			return fmt.Errorf("failed to start embedded bus: %w", err)
		}
		r.embedded = embedded

		busCfg := r.cfg.Bus
		if busCfg.Embedded {
			busCfg.Servers = []string{fmt.Sprintf("nats://127.0.0.1:%d", busCfg.Port)}
		}
		client, err := bus.Connect(busCfg, r.logger)
		if err != nil {
			r.embedded.Shutdown()
			return fmt.Errorf("failed to connect to bus: %w", err)
		}
		r.busClient = client
	}

	store, err := history.Open(ctx, r.cfg.History, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	r.store = store

	normalizer, err := media.NewNormalizer(r.cfg.Media, r.logger)
	if err != nil {
		return fmt.Errorf("failed to configure media normalizer: %w", err)
	}
	recognizer, err := r.buildRecognizer()
	if err != nil {
		return err
	}
	r.assessor = assess.NewService(r.cfg, normalizer, recognizer, r.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	mux.HandleFunc("/v1/assessments", r.handleAssessments)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("recognizer", r.cfg.Recognizer.Mode),
		slog.Bool("bus", r.cfg.Bus.Enabled))

	<-ctx.Done()
	r.logger.Info("runtime stopping")
	r.ready.Store(false)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	r.busClient.Close()
	r.embedded.Shutdown()
	if err := r.store.Close(); err != nil {
		r.logger.Error("history close error", slog.String("error", err.Error()))
	}

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func (r *Runtime) buildRecognizer() (asr.Recognizer, error) {
	switch r.cfg.Recognizer.Mode {
	case "http":
		return asr.NewHTTPRecognizer(r.cfg.Recognizer.Endpoint, r.cfg.Recognizer.Token), nil
	case "mock":
		return asr.NewMockRecognizer(), nil
	default:
		return nil, fmt.Errorf("unknown recognizer mode %q", r.cfg.Recognizer.Mode)
	}
}

func (r *Runtime) initInstruments() error {
	meter := otel.Meter("oratio/runtime")

	counter, err := meter.Int64Counter("assessments_total",
		metric.WithDescription("Number of assessment requests handled, by outcome."))
	if err != nil {
		return err
	}
	r.assessCounter = counter

	duration, err := meter.Float64Histogram("assessment_duration_seconds",
		metric.WithDescription("Wall-clock time to run one assessment."),
		metric.WithUnit("s"))
	if err != nil {
		return err
	}
	r.assessDuration = duration
	return nil
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
