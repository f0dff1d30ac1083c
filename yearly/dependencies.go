package yearly

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"

	"github.com/tidepool-org/yearly-summary/config"
	"github.com/tidepool-org/yearly-summary/logger"
	"github.com/tidepool-org/yearly-summary/outbox"
	"github.com/tidepool-org/yearly-summary/patients"
	"github.com/tidepool-org/yearly-summary/store"
	"github.com/tidepool-org/yearly-summary/summaries"
	"github.com/tidepool-org/yearly-summary/telemetry"
)

// Dependencies is the DI graph of a single job invocation. The mongo client
// is created when the graph starts and disconnected when it stops.
func Dependencies() []fx.Option {
	return []fx.Option{
		fx.Provide(
			logger.NewProductionLogger,
			logger.Suggar,
			config.NewFromEnv,
			store.NewConfig,
			store.GetConnectionString,
			store.NewLifecycleClient,
			store.NewDatabase,
			NewTransactor,
			patients.NewRepository,
			patients.NewMetricsRepository,
			summaries.NewRepository,
			outbox.NewConfiguredRepository,
			telemetry.NewRecorder,
			NewJob,
		),
	}
}

func NewTransactor(cfg *config.Config, client *mongo.Client) store.Transactor {
	return store.NewTransactor(client, cfg.TransactionsEnabled)
}
