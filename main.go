package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	apihttp "meterdesk/internal/api/http"
	"meterdesk/internal/audit"
	"meterdesk/internal/auth"
	billingapp "meterdesk/internal/billing/application"
	billingrepo "meterdesk/internal/billing/infrastructure/postgres"
	billinginterfaces "meterdesk/internal/billing/interfaces"
	"meterdesk/internal/logging"
	masterdatarepo "meterdesk/internal/masterdata/infrastructure/postgres"
	"meterdesk/internal/observability/metrics"
	"meterdesk/internal/ocr"
	readingsapp "meterdesk/internal/readings/application"
	readingsrepo "meterdesk/internal/readings/infrastructure/postgres"
	readingsinterfaces "meterdesk/internal/readings/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db open error")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("db ping error")
	}

	metrics.Init(db, logger)
	roomChecker := auth.NewRoomChecker(db)
	auditRepo := audit.NewRepository(db)

	roomRepo := masterdatarepo.NewRoomRepository(db)
	tenantRepo := masterdatarepo.NewTenantRepository(db)
	settingsRepo := masterdatarepo.NewSettingsRepository(db)
	groupRepo := readingsrepo.NewRepository(db)
	invoiceRepo := billingrepo.NewRepository(db)

	submitService, err := readingsapp.NewSubmitService(groupRepo, settingsRepo, readingsapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("submit service error")
	}
	invoiceService, err := billingapp.NewInvoiceService(invoiceRepo, groupRepo, roomRepo, tenantRepo, settingsRepo, billingapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invoice service error")
	}

	exportCfg, err := billinginterfaces.LoadExportConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("export config error")
	}

	readingHandler, err := readingsinterfaces.NewReadingHandler(submitService, roomChecker, auditRepo, apihttp.NewReadingGroupsHandler(db))
	if err != nil {
		logger.Fatal().Err(err).Msg("reading handler error")
	}
	invoiceHandler, err := billinginterfaces.NewInvoiceHandler(invoiceService, auditRepo, apihttp.NewInvoicesHandler(db), exportCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invoice handler error")
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/readings", readingHandler)
	mux.Handle("/api/v1/invoices", invoiceHandler)
	mux.Handle("/api/v1/invoices/", invoiceHandler)
	mux.Handle("/api/v1/invoices/generate", invoiceHandler)
	mux.Handle("/api/v1/exports/invoices.csv", apihttp.NewExportInvoicesCSVHandler(db))

	if cfg.OCREnabled {
		recognizer, err := ocr.NewGoogleVisionRecognizer(context.Background())
		if err != nil {
			logger.Warn().Err(err).Msg("ocr disabled: vision client init failed")
		} else {
			defer recognizer.Close()
			ocrHandler, err := ocr.NewHandler(recognizer)
			if err != nil {
				logger.Fatal().Err(err).Msg("ocr handler error")
			}
			mux.Handle("/api/v1/ocr/readings", ocrHandler)
		}
	}

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
	logger.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
	LogLevel    string
	LogFormat   string
	OCREnabled  bool
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		LogLevel:    getenvDefault("LOG_LEVEL", "info"),
		LogFormat:   getenvDefault("LOG_FORMAT", "json"),
		OCREnabled:  getenvBoolDefault("OCR_ENABLED", false),
	}
	if cfg.DatabaseURL == "" {
		fallbackLogger := logging.Setup("info", "json")
		fallbackLogger.Fatal().Msg("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		fallbackLogger := logging.Setup("info", "json")
		fallbackLogger.Fatal().Msg("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "yes":
		return true
	case "0", "false", "FALSE", "no":
		return false
	default:
		return fallback
	}
}

func loggingMiddleware(next http.Handler, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", resp.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
