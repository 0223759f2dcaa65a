// Package interfaces
package interfaces

import (
	"github.com/half-nothing/simple-wxguard/internal/interfaces/dispatch"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/operation"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
)

// PipelineContent is the part of the pipeline the api exposes
type PipelineContent interface {
	pipeline.StalenessInterface
	pipeline.AcceptanceInterface
}

type ApplicationContent struct {
	configManager ConfigManagerInterface
	cleaner       CleanerInterface
	logger        log.LoggerInterface
	operations    *operation.DatabaseOperations
	dispatcher    dispatch.DispatcherInterface
	detector      pipeline.DetectorInterface
	pipeline      PipelineContent
}

func NewApplicationContent(
	configManager ConfigManagerInterface,
	cleaner CleanerInterface,
	logger log.LoggerInterface,
	db *operation.DatabaseOperations,
	dispatcher dispatch.DispatcherInterface,
	detector pipeline.DetectorInterface,
	pipeline PipelineContent,
) *ApplicationContent {
	return &ApplicationContent{
		configManager: configManager,
		cleaner:       cleaner,
		logger:        logger,
		operations:    db,
		dispatcher:    dispatcher,
		detector:      detector,
		pipeline:      pipeline,
	}
}

func (app *ApplicationContent) ConfigManager() ConfigManagerInterface {
	return app.configManager
}

func (app *ApplicationContent) Cleaner() CleanerInterface { return app.cleaner }

func (app *ApplicationContent) Logger() log.LoggerInterface { return app.logger }

func (app *ApplicationContent) Operations() *operation.DatabaseOperations { return app.operations }

func (app *ApplicationContent) Dispatcher() dispatch.DispatcherInterface { return app.dispatcher }

func (app *ApplicationContent) Detector() pipeline.DetectorInterface { return app.detector }

func (app *ApplicationContent) Pipeline() PipelineContent { return app.pipeline }
