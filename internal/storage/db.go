package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	_ "github.com/lib/pq" // драйвер "postgres" для database/sql
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// DBConfig описує підключення до реляційної бази.
type DBConfig struct {
	Driver   string // "postgres" або "sqlite"
	DSN      string
	MaxConns int
	Debug    bool
}

// OpenDB відкриває базу і налаштовує GORM так, щоб усі мітки часу
// бралися з переданого годинника.
func OpenDB(ctx context.Context, cfg DBConfig, clk clock.Clock) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		NowFunc: func() time.Time { return now(clk) },
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
	}
	if cfg.Debug {
		gcfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		// Пул відкриваємо через lib/pq, GORM лише обгортає готове з'єднання.
		sqlDB, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, errors.Annotate(err, "opening postgres")
		}
		maxConns := cfg.MaxConns
		if maxConns <= 0 {
			maxConns = 25
		}
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
		sqlDB.SetConnMaxLifetime(time.Hour)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			_ = sqlDB.Close()
			return nil, errors.Annotate(err, "pinging postgres")
		}
		dialector = postgres.New(postgres.Config{Conn: sqlDB})
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, errors.NotSupportedf("database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, errors.Annotatef(err, "opening %s", cfg.Driver)
	}

	if cfg.Driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Trace(err)
		}
		// SQLite тримає одну сесію запису; з ":memory:" кожне нове з'єднання
		// бачило б порожню базу.
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, errors.Trace(err)
		}
	}
	return db, nil
}

// OpenRedis підключається до Redis за URL виду redis://host:port/db.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.NotValidf("redis url %q", url)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		_ = rdb.Close()
		return nil, errors.Annotate(err, "pinging redis")
	}
	return rdb, nil
}

// now обрізає час до мікросекунд: стільки зберігає Postgres.
func now(clk clock.Clock) time.Time {
	return clk.Now().UTC().Truncate(time.Microsecond)
}
