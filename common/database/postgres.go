package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"wisefido-vitals/common/config"

	_ "github.com/lib/pq"
)

// 启动时数据库可能晚于服务就绪，ping 失败会重试
const (
	pingAttempts = 3
	pingTimeout  = 5 * time.Second
	pingBackoff  = time.Second
)

// NewPostgresDB 打开连接池并确认数据库可达
func NewPostgresDB(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	configurePool(db, cfg)

	if err := pingWithRetry(ctx, db, pingAttempts, pingBackoff); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return db, nil
}

func configurePool(db *sql.DB, cfg *config.DatabaseConfig) {
	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MaxIdle > 0 {
		db.SetMaxIdleConns(cfg.MaxIdle)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// pingWithRetry 第 i 次失败后等待 i*backoff
func pingWithRetry(ctx context.Context, db *sql.DB, attempts int, backoff time.Duration) error {
	var err error
	for i := 1; i <= attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i) * backoff):
		}
	}
	return err
}

// Close 关闭连接池；db 为 nil 时忽略
func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
