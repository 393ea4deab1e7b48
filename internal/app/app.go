package app

import (
	"fmt"
	"net/http"

	"cozy-dates-go/internal/config"
	"cozy-dates-go/internal/db"
	coupledomain "cozy-dates-go/internal/domain/couple"
	profiledomain "cozy-dates-go/internal/domain/profile"
	"cozy-dates-go/internal/identity"
	"cozy-dates-go/internal/metrics"
	"cozy-dates-go/internal/repository/inmemory"
	couplerepo "cozy-dates-go/internal/repository/postgres/couple"
	profilerepo "cozy-dates-go/internal/repository/postgres/profile"
	"cozy-dates-go/internal/transport/httpserver"
	"cozy-dates-go/internal/transport/httpserver/handler"
	"cozy-dates-go/pkg/logger"
	"gorm.io/gorm"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

type stores struct {
	couples  coupledomain.Repository
	profiles profiledomain.Repository
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log.Info("app: initializing identity verifier")
	verifier, err := identity.NewVerifier(cfg.Supabase)
	if err != nil {
		return nil, fmt.Errorf("identity: %w", err)
	}
	if cfg.Supabase.SkipAuth {
		log.Warn("auth: AUTH_SKIP is enabled, every request runs as the mock user", "user_id", cfg.Supabase.MockUserID)
	}

	app := &App{cfg: cfg}

	log.Info("app: initializing store", "driver", cfg.StoreDriver)
	st, err := app.openStores(log)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	profiles := profiledomain.NewService(st.profiles)
	couples := coupledomain.NewService(st.couples, st.profiles, coupledomain.Options{
		InviteCodeLength: cfg.Couples.InviteCodeLength,
		CodeAttempts:     cfg.Couples.CodeAttempts,
		DefaultName:      cfg.Couples.DefaultName,
	})

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	log.Info("app: initializing router")
	handlers := handler.New(couples, profiles, m, log)
	router := httpserver.NewRouter(cfg, handlers, verifier, profiles, m, log)

	log.Info("app: initializing http server")
	app.httpServer = httpserver.New(cfg, router)

	return app, nil
}

func (a *App) openStores(log logger.Logger) (stores, error) {
	if a.cfg.StoreDriver == config.StoreDriverMemory {
		log.Warn("store: using in-memory store, data is lost on restart")
		store := inmemory.NewStore()
		return stores{couples: store, profiles: store}, nil
	}

	dbConn, err := db.NewPostgres(a.cfg.DB, log)
	if err != nil {
		return stores{}, fmt.Errorf("connect database: %w", err)
	}
	a.db = dbConn

	if a.cfg.DB.AutoMigrate {
		if err := db.Migrate(dbConn, log); err != nil {
			return stores{}, fmt.Errorf("migrate database: %w", err)
		}
	}

	return stores{
		couples:  couplerepo.NewPostgres(dbConn),
		profiles: profilerepo.NewPostgres(dbConn),
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
