package db

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/threadbot-backend/internal/pkg/envutil"
	"github.com/yungbote/threadbot-backend/internal/pkg/logger"
)

// Service owns the durable conversation store connection. The engine is
// sqlite by default; MEMORY_DB_DRIVER=postgres switches to Postgres.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	cfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	driver := envutil.String("MEMORY_DB_DRIVER", "sqlite")
	var (
		gdb *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		gdb, err = openPostgres(cfg)
	case "sqlite":
		gdb, err = openSQLite(cfg)
	default:
		return nil, fmt.Errorf("unknown MEMORY_DB_DRIVER %q", driver)
	}
	if err != nil {
		return nil, err
	}

	serviceLog.Info("Connected durable store", "driver", driver)
	return &Service{db: gdb, log: serviceLog}, nil
}

func openSQLite(cfg *gorm.Config) (*gorm.DB, error) {
	path := envutil.String("SQLITE_PATH", "/data/memory.db")
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
	}
	return gdb, nil
}

func openPostgres(cfg *gorm.Config) (*gorm.DB, error) {
	host := envutil.String("POSTGRES_HOST", "localhost")
	port := envutil.String("POSTGRES_PORT", "5432")
	user := envutil.String("POSTGRES_USER", "postgres")
	password := envutil.String("POSTGRES_PASSWORD", "")
	name := envutil.String("POSTGRES_NAME", "threadbot")

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, name,
	)
	gdb, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return gdb, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}
