package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"hermannm.dev/devlog"
	"hermannm.dev/devlog/log"
	"hermannm.dev/leadquery/api"
	"hermannm.dev/leadquery/config"
	"hermannm.dev/leadquery/db"
	"hermannm.dev/leadquery/db/clickhouse"
	"hermannm.dev/leadquery/db/elasticsearch"
	"hermannm.dev/leadquery/db/sqlite"
	"hermannm.dev/leadquery/dispatch"
	"hermannm.dev/leadquery/endpoints"
	"hermannm.dev/leadquery/generation"
	"hermannm.dev/leadquery/kpi"
	"hermannm.dev/leadquery/leaderboard"
	"hermannm.dev/leadquery/query"
	"hermannm.dev/wrap"
)

func main() {
	setLogger(slog.LevelInfo)

	conf, err := config.ReadFromEnv()
	if err != nil {
		log.ErrorCause(err, "failed to read config from env")
		os.Exit(1)
	}

	// Validated by ReadFromEnv.
	level, _ := conf.SlogLevel()
	setLogger(level)

	store, err := initializeStore(context.Background(), conf)
	if err != nil {
		log.ErrorCause(err, "failed to initialize database")
		os.Exit(1)
	}
	defer store.Close()

	generationService := generation.NewGeminiClient(conf.Generation)
	if !generationService.Available() {
		log.Info("GEMINI_API_KEY not set, only pre-built question strategies are available")
	}

	location := conf.Location()

	dispatcher := dispatch.NewDispatcher(dispatch.Dependencies{
		Leaderboards: leaderboard.NewEngine(store, conf.Leaderboard.Concurrency),
		KPIs:         kpi.NewEngine(store),
		Endpoints:    endpoints.NewClient(conf.Endpoints),
		Generator:    generation.NewGenerator(generationService),
		Executor:     query.NewExecutor(store),
		Formatter:    dispatch.NewFormatter(generationService, conf.Generation.MaxDataChars),
		Clock:        func() time.Time { return time.Now().In(location) },
	})

	queryAPI := api.NewQueryAPI(dispatcher, generationService, conf)
	if err := queryAPI.ListenAndServe(); err != nil {
		log.ErrorCause(err, "server stopped")
		os.Exit(1)
	}
}

func setLogger(level slog.Level) {
	logHandler := devlog.NewHandler(os.Stdout, &devlog.Options{Level: level})
	slog.SetDefault(slog.New(logHandler))
}

func initializeStore(ctx context.Context, conf config.Config) (db.Store, error) {
	bootstrap := conf.BootstrapSchema && !conf.IsProduction

	switch conf.DB {
	case config.DBSQLite:
		log.Infof("opening SQLite database at '%s'", conf.SQLite.Path)
		store, err := sqlite.NewSQLiteDB(ctx, conf.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if bootstrap {
			if err := store.CreateTables(ctx, db.CRMSchema); err != nil {
				store.Close()
				return nil, wrap.Error(err, "failed to create CRM tables")
			}
		}
		return store, nil
	case config.DBClickHouse:
		log.Info("connecting to ClickHouse...")
		store, err := clickhouse.NewClickHouseDB(ctx, conf.ClickHouse)
		if err != nil {
			return nil, err
		}
		if bootstrap {
			if err := store.CreateTables(ctx, db.CRMSchema); err != nil {
				store.Close()
				return nil, wrap.Error(err, "failed to create CRM tables")
			}
		}
		return store, nil
	case config.DBElasticsearch:
		log.Info("connecting to Elasticsearch...")
		if bootstrap {
			log.Info("BOOTSTRAP_SCHEMA ignored for Elasticsearch, as indices are created on first write")
		}
		store, err := elasticsearch.NewElasticsearchDB(ctx, conf.Elasticsearch)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database '%s'", conf.DB)
	}
}
