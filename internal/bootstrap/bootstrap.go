package bootstrap

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/irwan019/GrkApp/config"
	"github.com/irwan019/GrkApp/internal/application"
	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/domain/ports"
	"github.com/irwan019/GrkApp/internal/infrastructure/api"
	"github.com/irwan019/GrkApp/internal/infrastructure/chart"
	"github.com/irwan019/GrkApp/internal/infrastructure/export"
	infrahttp "github.com/irwan019/GrkApp/internal/infrastructure/http"
	"github.com/irwan019/GrkApp/internal/infrastructure/messaging"
	"github.com/irwan019/GrkApp/internal/infrastructure/scheduler"
	"github.com/irwan019/GrkApp/internal/infrastructure/storage"
	"github.com/irwan019/GrkApp/internal/logger"
	"github.com/irwan019/GrkApp/internal/metrics"
)

type App struct {
	config   *config.Config
	logger   logger.Logger
	zone     *time.Location
	catalog  *entities.Catalog
	recorder *metrics.PrometheusRecorder

	fetcher   *infrahttp.OpenMeteoFetcher
	builder   *application.Builder
	exports   *application.ExportService
	chart     *chart.Renderer
	objects   *storage.MinioStorage
	scheduler *scheduler.CronScheduler
	publisher ports.SnapshotPublisher
	dashboard *application.Dashboard
	apiServer *api.APIServer
}

// New loads configuration and builds the components every command needs.
func New(configFile string) (*App, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(cfg.App.LogLevel, cfg.App.Env).WithField("service", cfg.App.Name)
	return NewWithConfig(cfg, log)
}

func NewWithConfig(cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{config: cfg, logger: log}
	if err := a.initCore(); err != nil {
		return nil, fmt.Errorf("failed to initialize components: %w", err)
	}
	return a, nil
}

func (a *App) initCore() error {
	zone, err := a.config.Dashboard.Zone()
	if err != nil {
		return fmt.Errorf("failed to load time zone: %w", err)
	}
	a.zone = zone

	catalog, err := entities.NewCatalog(a.config.Dashboard.Locations)
	if err != nil {
		return err
	}
	a.catalog = catalog
	a.recorder = metrics.NewPrometheusRecorder()

	a.fetcher = infrahttp.NewOpenMeteoFetcher(infrahttp.OpenMeteoOptions{
		BaseURL:           a.config.OpenMeteo.BaseURL,
		Timeout:           a.config.OpenMeteo.Timeout,
		PastDays:          a.config.OpenMeteo.PastDays,
		ForecastDays:      a.config.OpenMeteo.ForecastDays,
		RequestsPerSecond: a.config.OpenMeteo.RateLimit,
		Burst:             a.config.OpenMeteo.RateBurst,
		Probe:             catalog.Default(),
	}, a.recorder, a.logger)
	a.logger.Infof("Open-Meteo fetcher initialized for %s", a.config.OpenMeteo.BaseURL)

	a.builder = application.NewBuilder(a.fetcher, catalog, zone, a.config.Dashboard.PeriodMaxDays)

	var objects ports.ExportSink
	if a.config.Minio.Enabled {
		a.objects, err = storage.NewMinioStorage(storage.MinioOptions{
			Endpoint:  a.config.Minio.Endpoint,
			AccessKey: a.config.Minio.AccessKey,
			SecretKey: a.config.Minio.SecretKey,
			UseSSL:    a.config.Minio.UseSSL,
			Region:    a.config.Minio.Region,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create object storage: %w", err)
		}
		objects = a.objects
		a.logger.Infof("Minio storage initialized at %s", a.config.Minio.Endpoint)
	}

	exporters := export.NewRegistry(export.NewCSVExporter(a.logger), export.NewExcelExporter(a.logger))
	sink := storage.NewRouter(storage.NewFileStorage(a.logger), objects)
	a.exports = application.NewExportService(exporters, sink, a.recorder, a.logger)
	a.chart = chart.NewRenderer(a.config.Dashboard.ChartWidth, a.config.Dashboard.ChartHeight, a.logger)

	return nil
}

func (a *App) initServing() error {
	a.scheduler = scheduler.NewCronScheduler(a.config.Dashboard.JobTimeout, a.logger)

	if a.config.Kafka.Enabled {
		publisher, err := messaging.NewKafkaPublisher(messaging.KafkaOptions{
			Brokers:      a.config.Kafka.Brokers,
			Topic:        a.config.Kafka.Topic,
			RequiredAcks: a.config.Kafka.RequiredAcks,
			MaxRetries:   a.config.Kafka.MaxRetries,
			Timeout:      a.config.Kafka.Timeout,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("failed to create Kafka publisher: %w", err)
		}
		a.publisher = publisher
		a.logger.Infof("Kafka publisher initialized for topic: %s", a.config.Kafka.Topic)
	} else {
		a.publisher = messaging.NopPublisher{}
	}

	a.dashboard = application.NewDashboard(
		a.builder, a.scheduler, a.publisher, a.recorder, a.config.Dashboard.RefreshInterval, a.logger,
	)

	health := map[string]api.HealthChecker{
		"dashboard":  a.dashboard,
		"open_meteo": a.fetcher,
	}
	if a.objects != nil {
		health["object_storage"] = a.objects
	}

	handler := api.NewAPIHandler(a.dashboard, a.exports, a.chart, a.catalog, a.zone, a.config.Dashboard.PeriodMaxDays, health, a.logger)
	middleware := api.NewMiddleware(a.config.API.RateLimit, a.config.API.RateLimitWindow, a.config.API.CorsAllowedOrigins, a.logger)
	server, err := api.NewAPIServer(handler, middleware, a.recorder.Handler(), a.config, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}
	a.apiServer = server

	return nil
}

func (a *App) startupChecks() *HealthChecker {
	checks := []Check{
		{Name: "Open-Meteo API", Probe: a.fetcher.HealthCheck},
	}
	if a.config.Kafka.Enabled {
		checks = append(checks, Check{Name: "Kafka", Probe: a.publisher.HealthCheck, Required: true})
	}
	if a.objects != nil {
		checks = append(checks, Check{Name: "Minio", Probe: a.objects.HealthCheck, Required: true})
	}

	return NewHealthChecker(checks,
		a.config.HealthCheck.Timeout,
		a.config.HealthCheck.RetryInterval,
		a.config.HealthCheck.MaxRetries,
		a.logger,
	)
}

// Serve runs the dashboard and the HTTP server until ctx is cancelled or a
// termination signal arrives.
func (a *App) Serve(ctx context.Context) error {
	a.PrintConfigInfo()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.initServing(); err != nil {
		return err
	}
	defer a.shutdownComponents()

	a.logger.Info("Performing initial health checks...")
	if err := a.startupChecks().CheckAll(ctx); err != nil {
		return fmt.Errorf("initial health checks failed: %w", err)
	}

	if err := a.dashboard.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dashboard: %w", err)
	}

	if err := a.apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("Shutdown requested")
	case err := <-a.apiServer.Errors():
		return fmt.Errorf("API server failed: %w", err)
	}
	return nil
}

// ExportRequest describes one non-interactive render written to Out.
type ExportRequest struct {
	View     string
	Location string
	Start    string
	End      string
	Format   string
	Out      string
}

// Export runs a single fetch/filter/render cycle and saves the rows to
// req.Out, which may be a local path or an s3:// URL.
func (a *App) Export(ctx context.Context, req ExportRequest) (string, error) {
	view, err := entities.ParseView(req.View)
	if err != nil {
		return "", entities.ValidationError{Field: "view", Reason: err.Error()}
	}

	state := entities.ViewState{View: view, Location: req.Location}
	if state.Location == "" {
		state.Location = a.catalog.Default().Name
	}
	if view == entities.ViewPeriod {
		if state.Start, err = entities.ParseDate(req.Start, a.zone); err != nil {
			return "", err
		}
		if state.End, err = entities.ParseDate(req.End, a.zone); err != nil {
			return "", err
		}
	}

	if err := a.builder.Validate(state); err != nil {
		return "", err
	}

	snapshot, err := a.builder.Build(ctx, state)
	if err != nil {
		return "", err
	}
	if !snapshot.HasData() {
		return "", fmt.Errorf("%s / %s: %w", state.View, state.Location, entities.ErrNoData)
	}

	return a.exports.Save(ctx, snapshot, req.Format, req.Out)
}

func (a *App) About() application.AboutInfo {
	return application.About(a.catalog)
}

func (a *App) PrintConfigInfo() {
	a.logger.Infof("Service Name: %s", a.config.App.Name)
	a.logger.Infof("Environment: %s", a.config.App.Env)
	a.logger.Infof("Open-Meteo Base URL: %s", a.config.OpenMeteo.BaseURL)
	a.logger.Infof("Locations: %d, time zone: %s", len(a.catalog.All()), a.config.Dashboard.Timezone)
	a.logger.Infof("Refresh interval: %v", a.config.Dashboard.RefreshInterval)
	a.logger.Infof("Kafka enabled: %t, Minio enabled: %t", a.config.Kafka.Enabled, a.config.Minio.Enabled)
}

func (a *App) shutdownComponents() {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.App.ShutdownTimeout)
	defer cancel()

	if a.apiServer != nil {
		if err := a.apiServer.Stop(ctx); err != nil {
			a.logger.Errorf("Failed to stop API server: %v", err)
		}
	}

	if a.dashboard != nil {
		a.dashboard.Stop()
	}

	if a.scheduler != nil {
		a.logger.Info("Stopping scheduler...")
		a.scheduler.Stop()
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Errorf("Failed to close publisher: %v", err)
		}
	}

	a.logger.Info("Application shutdown completed")
}
