// Command leadgend is the long-running daemon: it runs the ingestion
// scheduler, the shared validate/qualify/enrich/deliver pipeline, and the
// HTTP surfaces (health, metrics, webhooks, analytics), following the
// teacher's cmd/worker/main.go wiring idiom (pool-tuned DB connection,
// signal.Notify shutdown, fixed-size worker pool).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/rgangen24/leadgen/internal/analytics"
	"github.com/rgangen24/leadgen/internal/billing"
	"github.com/rgangen24/leadgen/internal/config"
	"github.com/rgangen24/leadgen/internal/delivery"
	"github.com/rgangen24/leadgen/internal/httpx"
	"github.com/rgangen24/leadgen/internal/ingest"
	"github.com/rgangen24/leadgen/internal/jobqueue"
	"github.com/rgangen24/leadgen/internal/logging"
	"github.com/rgangen24/leadgen/internal/metrics"
	"github.com/rgangen24/leadgen/internal/pipeline"
	"github.com/rgangen24/leadgen/internal/pipeline/enricher"
	"github.com/rgangen24/leadgen/internal/scheduler"
	"github.com/rgangen24/leadgen/internal/sender"
	"github.com/rgangen24/leadgen/internal/sender/mailgun"
	"github.com/rgangen24/leadgen/internal/sender/ses"
	"github.com/rgangen24/leadgen/internal/sender/sparkpost"
	"github.com/rgangen24/leadgen/internal/sender/twilio"
	"github.com/rgangen24/leadgen/internal/store"
	"github.com/rgangen24/leadgen/internal/store/postgres"
	"github.com/rgangen24/leadgen/internal/webhook"
)

func main() {
	logging.Info("leadgend_starting")

	cfg, err := config.LoadFromEnv(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logging.Error("leadgend_config_failed", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := postgres.Connect(ctx, cfg.Database.DSN())
	if err != nil {
		logging.Error("leadgend_db_unreachable", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	logging.Info("leadgend_db_connected")

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		if opts, err := redis.ParseURL(cfg.RedisURL); err == nil {
			redisClient = redis.NewClient(opts)
		} else {
			logging.Warn("leadgend_redis_url_invalid", "error", err.Error())
		}
	}

	leadRepo := postgres.NewLeadRepo(db)
	clientRepo := postgres.NewClientRepo(db)
	deliveryRepo := postgres.NewDeliveryRepo(db)
	billingRepo := postgres.NewBillingRepo(db)
	ruleRepo := postgres.NewIndustryRuleRepo(db)
	ingestRepo := postgres.NewIngestRepo(db)
	analyticsRepo := postgres.NewAnalyticsRepo(db)

	billingSvc := billing.NewService(clientRepo, billingRepo)
	emailSender := buildEmailSender(cfg.Sender)
	whatsappSender := twilio.New(cfg.Sender.TwilioAccountSID, cfg.Sender.TwilioAuthToken)

	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
	engine := delivery.New(leadRepo, clientRepo, deliveryRepo, billingRepo, billingSvc, emailSender, whatsappSender, reg)
	runner := pipeline.NewRunner(leadRepo, clientRepo, ruleRepo, enricher.NewHTTPClient(), engine)

	queue := jobqueue.New(cfg.WorkerCount, 256)
	queue.Start()
	defer queue.Stop()

	sched := buildScheduler(cfg, ingestRepo, runner, queue)
	sched.Start(ctx)
	defer sched.Stop()

	reconciler := webhook.NewReconciler(deliveryRepo)
	webhookHandler := webhook.NewHandler(cfg.Webhook, reconciler)
	health := httpx.NewHealthChecker(db, redisClient)
	analyticsSvc := analytics.NewService(analyticsRepo)
	analyticsHandler := httpx.NewAnalyticsHandler(analyticsSvc)
	router := httpx.NewRouter(health, webhookHandler, analyticsHandler)

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.WebhookPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logging.Info("leadgend_http_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("leadgend_http_failed", "error", err.Error())
		}
	}()

	logging.Info("leadgend_running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logging.Info("leadgend_shutting_down")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)

	logging.Info("leadgend_stopped")
}

// buildEmailSender picks one ESP from whichever credentials are present,
// preferring SES, then SparkPost, then Mailgun — a static, config-time
// version of the teacher's per-message ProfileBasedSender vendor switch
// (internal/worker/esp_profile.go), simplified because this daemon has
// no per-message sending-profile table to consult.
func buildEmailSender(cfg config.SenderConfig) sender.EmailSender {
	switch {
	case cfg.SESAccessKey != "" && cfg.SESSecretKey != "":
		return ses.New(context.Background(), cfg.SESAccessKey, cfg.SESSecretKey, cfg.SESRegion)
	case cfg.SparkPostAPIKey != "":
		return sparkpost.New(cfg.SparkPostAPIKey)
	case cfg.MailgunAPIKey != "":
		return mailgun.New(cfg.MailgunAPIKey, cfg.MailgunDomain)
	default:
		logging.Warn("leadgend_no_email_sender_configured")
		return ses.New(context.Background(), "", "", cfg.SESRegion)
	}
}

// buildScheduler constructs one scheduler.Cycle per configured ingestion
// source, each wrapping an ingest.Ingester with the shared pipeline Runner.
// A source with no credentials or import path configured is skipped
// entirely rather than scheduled to fail on every tick.
func buildScheduler(cfg *config.Config, ingestRepo store.IngestStore, runner *pipeline.Runner, queue *jobqueue.Queue) *scheduler.Scheduler {
	var cycles []scheduler.Cycle

	if cfg.Ingest.GoogleMapsAPIKey != "" && cfg.Ingest.MapsQuery != "" {
		mapsIngester := &ingest.Ingester{
			Store: ingestRepo, SourceName: "google_maps", PlatformType: "search",
			Industry: cfg.Ingest.MapsIndustry, Platform: "google_maps", RatePerMinute: cfg.Ingest.MapsRatePerMinute,
			Fetch: ingest.NewGoogleMapsFetcher(ingest.NewGoogleMapsHTTPClient(), cfg.Ingest.GoogleMapsAPIKey,
				cfg.Ingest.MapsQuery, cfg.Ingest.MapsLocation, cfg.Ingest.MapsIndustry),
		}
		cycles = append(cycles, scheduler.Cycle{Name: "google_maps", Interval: cfg.Ingest.MapsScrapeInterval, Run: runner.Cycle(mapsIngester)})
	}
	if cfg.Ingest.LinkedInImportPath != "" {
		liIngester := &ingest.Ingester{
			Store: ingestRepo, SourceName: "linkedin", PlatformType: "social",
			Platform: "linkedin", RatePerMinute: cfg.Ingest.LinkedInRatePerMinute,
			Fetch: ingest.NewJSONFileFetcher(cfg.Ingest.LinkedInImportPath, 200),
		}
		cycles = append(cycles, scheduler.Cycle{Name: "linkedin", Interval: cfg.Ingest.LinkedInScrapeInterval, Run: runner.Cycle(liIngester)})
	}
	if cfg.Ingest.InstagramImportPath != "" {
		igIngester := &ingest.Ingester{
			Store: ingestRepo, SourceName: "instagram", PlatformType: "social",
			Platform: "instagram", RatePerMinute: cfg.Ingest.InstagramRatePerMinute,
			Fetch: ingest.NewJSONFileFetcher(cfg.Ingest.InstagramImportPath, 200),
		}
		cycles = append(cycles, scheduler.Cycle{Name: "instagram", Interval: cfg.Ingest.InstagramScrapeInterval, Run: runner.Cycle(igIngester)})
	}

	return scheduler.New(queue, cycles...)
}
