package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/locvowork/sheetexport/internal/config"
	"github.com/locvowork/sheetexport/internal/database"
	"github.com/locvowork/sheetexport/internal/handler"
	"github.com/locvowork/sheetexport/internal/logger"
	"github.com/locvowork/sheetexport/internal/metrics"
	"github.com/locvowork/sheetexport/internal/service"
	"github.com/locvowork/sheetexport/pkg/pgsource"
)

type App struct {
	Echo          *echo.Echo
	DB            *sql.DB
	Registry      *prometheus.Registry
	ExportService *service.ExportService
}

func NewApp() *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &App{
		Echo:     echo.New(),
		Registry: reg,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	// Load environment configuration
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	env := config.DefaultEnvConfig

	// Initialize logging
	logger.InitLogging(env.LOG_FILE_PATH, env.LOG_LEVEL)
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	exportCfg, err := config.LoadExportConfig(env.EXPORT_CONFIG_PATH)
	if err != nil {
		return fmt.Errorf("failed to load export config: %w", err)
	}
	logger.InfoLog(ctx, "Export config loaded: format=%s providers=%v", exportCfg.Format, exportCfg.ProviderNames())

	// The database only backs SQL-sourced exports
	var source *pgsource.Source
	if env.DB_ENABLED {
		dbConfig := database.Config{
			Host:            env.DB_HOST,
			Port:            env.DB_PORT,
			User:            env.DB_USER,
			Password:        env.DB_PASSWORD,
			DBName:          env.DB_NAME,
			SSLMode:         env.DB_SSL_MODE,
			MaxOpenConns:    env.DB_MAX_OPEN_CONNS,
			MaxIdleConns:    env.DB_MAX_IDLE_CONNS,
			ConnMaxLifetime: env.DB_CONN_MAX_LIFETIME,
		}

		db, err := database.NewPostgresDB(ctx, dbConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		source = pgsource.New(db)
		logger.InfoLog(ctx, "Database connection established successfully")
	}

	// Initialize dependencies
	a.ExportService = service.NewExportService(exportCfg, source, metrics.New(a.Registry))
	if err := a.ExportService.Validate(); err != nil {
		a.Close()
		return fmt.Errorf("invalid export config: %w", err)
	}
	exportHandler := handler.NewExportHandler(a.ExportService)

	// Register Middlewares
	a.RegisterMiddlewares()

	// Register Routes
	a.RegisterRoutes(exportHandler)

	return nil
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.Logger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORS())
}

func (a *App) RegisterRoutes(exportHandler *handler.ExportHandler) {
	exportGroup := a.Echo.Group("/export")
	exportGroup.POST("", exportHandler.ExportDocumentHandler)
	exportGroup.GET("/providers", exportHandler.ProvidersHandler)

	a.Echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{})))
}

func (a *App) Run() error {
	return a.Echo.Start(":" + config.DefaultEnvConfig.APP_PORT)
}

// Shutdown stops the HTTP server and releases the database.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	a.Close()
	return err
}

// Close releases the database connection, if any.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
	}
}
