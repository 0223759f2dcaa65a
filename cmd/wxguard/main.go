package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/base"
	"github.com/half-nothing/simple-wxguard/internal/database"
	"github.com/half-nothing/simple-wxguard/internal/dispatch"
	"github.com/half-nothing/simple-wxguard/internal/http_server"
	"github.com/half-nothing/simple-wxguard/internal/interfaces"
	c "github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/global"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	pi "github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
	"github.com/half-nothing/simple-wxguard/internal/pipeline"
	"github.com/half-nothing/simple-wxguard/internal/pipeline/detector"
	"github.com/half-nothing/simple-wxguard/internal/pipeline/notifier"
	"github.com/half-nothing/simple-wxguard/internal/pipeline/ranker"
	"github.com/half-nothing/simple-wxguard/internal/pipeline/slot"
	"github.com/half-nothing/simple-wxguard/internal/weather"
	"github.com/samber/lo"
)

func recoverFromError() {
	if r := recover(); r != nil {
		fmt.Printf("It looks like there are some serious errors, the details are as follows: %v", r)
	}
}

func main() {
	flag.Parse()

	defer recoverFromError()

	logger := base.NewLogger()
	logger.Init(*global.DebugMode)

	logger.Info("Application initializing...")

	cleaner := base.NewCleaner(logger)
	cleaner.Init()
	defer cleaner.Clean()

	configManager := base.NewManager(logger)
	config := configManager.Config()

	shutdownCallback, operations, err := database.ConnectDatabase(logger, config, *global.DebugMode)
	if err != nil {
		logger.FatalF("Error occurred while initializing operation, details: %v", err)
		return
	}
	cleaner.Add(shutdownCallback)

	dispatcher, err := dispatch.NewDispatcher(logger, config.Dispatch)
	if err != nil {
		logger.FatalF("Error occurred while initializing dispatcher, details: %v", err)
		return
	}
	cleaner.Add(dispatcher)

	location := config.Server.General.Location
	pipelineConfig := config.Pipeline

	provider := weather.NewOpenWeatherProvider(logger, config.Weather)
	gateway := weather.NewGateway(logger, provider, operations.WeatherCacheOperation(), config.Weather.CacheDuration)
	minima := weather.NewMinimaTable(config.Minima.Profiles)
	conflictDetector := detector.NewDetector(logger, operations.BookingOperation(), operations.ConflictOperation(),
		gateway, minima, dispatcher, pipelineConfig.DetectionLookaheadDuration, config.Weather.MaxConcurrentFetches)

	finder := slot.NewFinder(logger, operations.BookingOperation(), operations.AvailabilityOperation(),
		location, pipelineConfig.SlotStepDuration, pipelineConfig.MaxCandidates)
	reasoningClient := ranker.NewReasoningClient(logger, config.Reasoning)
	slotRanker := ranker.NewRanker(logger, reasoningClient, operations.ConflictOperation(), pipelineConfig.ProposalsPerConflict)

	conflictNotifier, err := newNotifier(logger, config.Server.HttpServer.Email, operations, location)
	if err != nil {
		logger.FatalF("Error occurred while loading email templates, details: %v", err)
		return
	}

	conflictPipeline := pipeline.NewPipeline(logger, operations, finder, slotRanker, conflictNotifier, dispatcher,
		pipelineConfig.SlotHorizonDays, pipelineConfig.StaleGraceDuration)
	conflictPipeline.Register()

	if *global.RunOnce {
		runOnce(logger, conflictDetector, conflictPipeline)
		return
	}

	if err := dispatcher.Start(); err != nil {
		logger.FatalF("Error occurred while starting dispatcher, details: %v", err)
		return
	}

	if pipelineConfig.DetectionIntervalDuration > 0 {
		task := pipeline.NewPeriodicTask(logger, "detection", pipelineConfig.DetectionIntervalDuration, func(ctx context.Context) error {
			_, err := conflictDetector.RunDetectionPass(ctx, time.Now().UTC())
			return err
		})
		task.Start()
		cleaner.Add(task)
	}

	if pipelineConfig.RedriveIntervalDuration > 0 {
		task := pipeline.NewPeriodicTask(logger, "redrive", pipelineConfig.RedriveIntervalDuration, func(ctx context.Context) error {
			_, err := conflictPipeline.RedriveStale(ctx, time.Now().UTC())
			return err
		})
		task.Start()
		cleaner.Add(task)
	}

	purge := pipeline.NewPeriodicTask(logger, "weather-cache-purge", time.Hour, func(_ context.Context) error {
		rows, err := operations.WeatherCacheOperation().PurgeExpired(time.Now().UTC())
		if rows > 0 {
			logger.DebugF("Purged %d expired weather cache entries", rows)
		}
		return err
	})
	purge.Start()
	cleaner.Add(purge)

	applicationContent := interfaces.NewApplicationContent(configManager, cleaner, logger, operations,
		dispatcher, conflictDetector, conflictPipeline)

	if config.Server.HttpServer.Enabled {
		http_server.StartHttpServer(applicationContent)
		return
	}

	logger.Info("Http server disabled, running scheduled tasks only")
	select {}
}

func newNotifier(logger log.LoggerInterface, emailConfig *c.EmailConfig, operations *operation.DatabaseOperations, location *time.Location) (*notifier.Notifier, error) {
	templates := emailConfig.Template.Templates
	if len(templates) == 0 {
		// in-app notifications are rendered from the bundled templates when email is off
		bundled, err := c.LoadBundledEmailTemplates()
		if err != nil {
			return nil, err
		}
		templates = bundled
	}
	var mailer notifier.MailSender
	if emailConfig.Enabled && emailConfig.EmailServer != nil {
		mailer = emailConfig.EmailServer
	}
	return notifier.NewNotifier(logger, operations.ConflictOperation(), operations.NotificationOperation(),
		mailer, emailConfig.From, templates, location), nil
}

func runOnce(logger log.LoggerInterface, conflictDetector pi.DetectorInterface, conflictPipeline *pipeline.Pipeline) {
	ctx := context.Background()
	report, err := conflictDetector.RunDetectionPass(ctx, time.Now().UTC())
	if err != nil {
		logger.ErrorF("Detection pass failed: %v", err)
		return
	}
	logger.InfoF("Detection pass checked %d bookings: %d clear, %d new conflicts, %d already held, %d failed",
		report.Checked, report.Clear, len(report.Created), report.Existing, len(report.Failed))

	conflictIds := lo.Map(report.Created, func(created *pi.ConflictCreated, _ int) uint { return created.ConflictId })
	if err := conflictPipeline.ProcessInline(ctx, conflictIds); err != nil {
		logger.ErrorF("Processing new conflicts failed: %v", err)
	}
}
