package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
	"github.com/linemk/lego-store/internal/config"
	"github.com/linemk/lego-store/internal/events"
	"github.com/linemk/lego-store/internal/session"
	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	DB        *sql.DB
	Redis     *redis.Client // nil, если сессии хранятся в памяти
	Sessions  session.Store
	Publisher events.Publisher
}

// NewApp создаёт новый экземпляр App: подключение к БД, хранилище сессий и публикатор событий
func NewApp(log *slog.Logger, cfg *config.Config) (*App, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	app := &App{
		Config: cfg,
		Logger: log,
		DB:     db,
	}

	if cfg.Redis.Address != "" {
		app.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := app.Redis.Ping(ctx).Err(); err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		app.Sessions = session.NewRedisStore(app.Redis, cfg.Redis.Prefix)
		log.Info("using redis session store", slog.String("address", cfg.Redis.Address))
	} else {
		app.Sessions = session.NewMemoryStore()
		log.Warn("redis address is not set, sessions are kept in memory")
	}

	if len(cfg.Kafka.Brokers) > 0 {
		app.Publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info("publishing order events", slog.Any("brokers", cfg.Kafka.Brokers), slog.String("topic", cfg.Kafka.Topic))
	} else {
		app.Publisher = events.NopPublisher{}
	}

	return app, nil
}

// Close освобождает все соединения приложения
func (a *App) Close() error {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
