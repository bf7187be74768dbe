// ABOUTME: This file initializes the pgx connection pool from service configuration
// ABOUTME: Includes a small retry wrapper for transient "conn busy" failures
package driver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YevheniiM/google-news-scrapper-sub000/config"
	"github.com/YevheniiM/google-news-scrapper-sub000/logger"
)

// retryDBOperation retries database operations that fail with "conn busy" errors
func retryDBOperation(ctx context.Context, operation func() error, operationName string) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "conn busy") && attempt < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<attempt) // Exponential backoff
			logger.Logger.Warn("Database connection busy, retrying",
				"operation", operationName,
				"attempt", attempt+1,
				"max_retries", maxRetries,
				"retry_delay", delay,
				"error", err)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				continue
			}
		}

		return err
	}

	return fmt.Errorf("operation %s failed after %d retries", operationName, maxRetries)
}

// Init connects the pool and verifies the connection with a ping.
func Init(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Logger.Error("Failed to parse database config", "error", err)
		return nil, err
	}

	poolConfig.MaxConns = 20
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	dbPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Logger.Error("Failed to connect to database", "error", err)
		return nil, err
	}

	if err := dbPool.Ping(ctx); err != nil {
		logger.Logger.Error("Failed to ping database", "error", err)
		dbPool.Close()
		return nil, err
	}

	logger.Logger.Info("Connected to database pool", "max_conns", poolConfig.MaxConns, "min_conns", poolConfig.MinConns)
	return dbPool, nil
}
