package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/masomo-admin/apps/api/echo"
	"github.com/trezcool/masomo-admin/core"
	"github.com/trezcool/masomo-admin/core/listing"
	"github.com/trezcool/masomo-admin/core/resource"
	"github.com/trezcool/masomo-admin/core/user"
	"github.com/trezcool/masomo-admin/domain/catalog"
	appfs "github.com/trezcool/masomo-admin/fs"
	emailsvc "github.com/trezcool/masomo-admin/services/email"
	logsvc "github.com/trezcool/masomo-admin/services/logger"
	metricsvc "github.com/trezcool/masomo-admin/services/metrics"
	"github.com/trezcool/masomo-admin/storage/cache"
	"github.com/trezcool/masomo-admin/storage/database"
	dummydb "github.com/trezcool/masomo-admin/storage/database/dummy"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up storage
	backend, closeDB, err := setUpBackend(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err := closeDB(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	store, err := setUpCacheStore(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridApiKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags), logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	metrics := metricsvc.NewCollector("masomo")

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	resource.InitValidators(validate)
	if err = initUserValidators(validate, translator); err != nil {
		logger.Fatal(fmt.Sprintf("initializing user validators: %v", err), err)
	}

	core.ParseEmailTemplates(appfs.EmailTemplates(), conf, logger)

	cat := catalog.New(backend, mailSvc, resource.Options{
		Validate:    validate,
		Translator:  translator,
		Cache:       listing.NewQueryCache(store, conf.Cache.TTL),
		Metrics:     metrics,
		Logger:      logger,
		MaxPageSize: conf.Listing.MaxPageSize,
	})

	// =========================================================================
	// Start Debug Service
	//
	// /debug/vars - Added to the default mux by importing the expvar package.
	// /metrics - prometheus metrics of the lists, mutations and requests.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	http.Handle("/metrics", metrics.Handler())

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(&echoapi.Options{
		Conf:       conf,
		Address:    conf.Server.Host,
		Catalog:    cat,
		UserSvc:    user.NewService(backend.UserRepository()),
		Validate:   validate,
		Translator: translator,
		Logger:     logger,
		Metrics:    metrics,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// setUpBackend opens and migrates the configured database, or an in-memory one when the engine is "dummy".
func setUpBackend(ctx context.Context, conf *core.Config) (catalog.Backend, func() error, error) {
	if conf.Database.Engine == "dummy" {
		db, err := dummydb.Open()
		return catalog.Backend{Dummy: db}, func() error { return nil }, err
	}

	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return catalog.Backend{}, nil, err
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return catalog.Backend{}, nil, err
	}
	if err = database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return catalog.Backend{}, nil, err
	}
	return catalog.Backend{SQL: db}, db.Close, nil
}

func setUpCacheStore(ctx context.Context, conf *core.Config) (listing.Store, error) {
	if conf.Cache.Backend == "redis" {
		return cache.NewRedisStore(ctx, conf.Cache.RedisAddr, conf.AppName)
	}
	return cache.NewMemoryStore(conf.Cache.MaxSize), nil
}

func initUserValidators(validate *validator.Validate, translator ut.Translator) error {
	pwds, err := appfs.CommonPasswords()
	if err != nil {
		return errors.Wrap(err, "opening common passwords")
	}
	defer pwds.Close()
	return user.InitValidators(validate, translator, pwds)
}
