package cli

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/BartekS5/opinions-etl/internal/config"
	"github.com/BartekS5/opinions-etl/internal/etl"
	"github.com/BartekS5/opinions-etl/internal/loader"
	"github.com/BartekS5/opinions-etl/internal/staging"
	"github.com/BartekS5/opinions-etl/pkg/database"
	"github.com/BartekS5/opinions-etl/pkg/logger"
)

const disconnectTimeout = 5 * time.Second

// app holds the wired components for one command invocation.
type app struct {
	cfg          *config.Config
	store        *staging.Store
	analytical   *sql.DB
	sourceDB     *sql.DB
	mongoClient  *mongo.Client
	loader       *loader.Loader
	orchestrator *etl.Orchestrator
}

type wiring struct {
	extractors bool
	loader     bool
	// verify pings lazily connected sources while wiring.
	verify bool
}

func setup(ctx context.Context, configFile string, w wiring) (*app, error) {
	loadConfig := config.LoadLocalConfig
	if w.loader {
		loadConfig = config.LoadConfig
	}
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(cfg.LogFile, cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := staging.NewStore(cfg.StagingDir)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, store: store}

	if w.loader {
		if err := a.wireLoader(ctx); err != nil {
			a.close()
			return nil, err
		}
	}
	if w.extractors {
		if err := a.wireExtractors(ctx, w.verify); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

func (a *app) wireLoader(ctx context.Context) error {
	locale, err := loader.ParseLocale(a.cfg.CalendarLocale)
	if err != nil {
		return err
	}
	db, err := database.ConnectSQL(ctx, a.cfg.SQLConnString)
	if err != nil {
		return err
	}
	a.analytical = db
	a.loader = loader.NewLoader(db, a.store, loader.Config{Locale: locale})
	if err := a.loader.WarmCache(ctx); err != nil {
		logger.Warn("Starting with a cold key cache: %v", err)
	}
	return nil
}

func (a *app) wireExtractors(ctx context.Context, verify bool) error {
	var extractors []etl.Extractor

	if len(a.cfg.FileSources) > 0 {
		profiles, err := config.LoadMapping(a.cfg.MappingFile)
		if err != nil {
			return err
		}
		extractors = append(extractors, etl.NewFileExtractor(a.cfg.FileSources, profiles, etl.FileOptions{
			Delimiter: a.cfg.FileDelimiter,
		}))
	}

	if a.cfg.SourceSQLConnString != "" {
		db, err := database.OpenSQL(a.cfg.SourceSQLConnString)
		if err != nil {
			return err
		}
		a.sourceDB = db
		extractors = append(extractors, etl.NewDatabaseExtractor(db, etl.DatabaseOptions{
			Window:  a.cfg.DBWindow,
			Timeout: a.cfg.DBTimeout,
		}))
	}

	if a.cfg.APIBaseURL != "" {
		extractors = append(extractors, etl.NewAPIExtractor(etl.APIOptions{
			BaseURL:  a.cfg.APIBaseURL,
			Endpoint: a.cfg.APIEndpoint,
			Timeout:  a.cfg.APITimeout,
		}))
	}

	if a.cfg.MongoConnString != "" {
		connect := database.NewMongoClient
		if verify {
			connect = database.ConnectMongo
		}
		client, err := connect(ctx, a.cfg.MongoConnString)
		if err != nil {
			return err
		}
		a.mongoClient = client
		extractors = append(extractors, etl.NewMongoExtractor(client, etl.MongoOptions{
			Database:   a.cfg.MongoDatabase,
			Collection: a.cfg.MongoCollection,
			Window:     a.cfg.DBWindow,
			Timeout:    a.cfg.DBTimeout,
		}))
	}

	if len(extractors) == 0 {
		logger.Warn("No extraction sources configured")
	}
	a.orchestrator = etl.NewOrchestrator(extractors, a.store, a.cfg.MaxParallelExtractors)
	return nil
}

func (a *app) close() {
	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
		defer cancel()
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			logger.Warn("MongoDB disconnect: %v", err)
		}
	}
	if a.sourceDB != nil {
		a.sourceDB.Close()
	}
	if a.analytical != nil {
		a.analytical.Close()
	}
	logger.Close()
}
