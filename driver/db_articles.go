// ABOUTME: This file implements article persistence on the pgx pool
// ABOUTME: Inserts are upserts keyed on the resolved URL to keep the table deduplicated
package driver

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YevheniiM/google-news-scrapper-sub000/logger"
	"github.com/YevheniiM/google-news-scrapper-sub000/models"
)

// ArticleRepository persists crawled articles in Postgres.
type ArticleRepository struct {
	pool *pgxpool.Pool
}

func NewArticleRepository(pool *pgxpool.Pool) *ArticleRepository {
	return &ArticleRepository{pool: pool}
}

// CreateArticle inserts an article, silently ignoring URL conflicts so a
// re-crawl of the same publisher URL is a no-op.
func (r *ArticleRepository) CreateArticle(ctx context.Context, article *models.Article) error {
	query := `
		INSERT INTO articles (id, title, content, url, source_url, published_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (url) DO NOTHING
	`

	if article.ID == "" {
		article.ID = uuid.New().String()
	}

	return retryDBOperation(ctx, func() error {
		tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
		if err != nil {
			logger.Logger.Error("Failed to begin transaction", "error", err)
			return err
		}

		_, err = tx.Exec(ctx, query,
			article.ID, article.Title, article.Content,
			article.URL, article.SourceURL, article.PublishedAt)
		if err != nil {
			tx.Rollback(ctx)
			logger.Logger.Error("Failed to create article", "error", err)
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			logger.Logger.Error("Failed to commit transaction", "error", err)
			return err
		}

		logger.Logger.Info("Article created", "url", article.URL)
		return nil
	}, "CreateArticle")
}

// ArticleExists reports whether an article with this URL is already stored.
func (r *ArticleRepository) ArticleExists(ctx context.Context, url string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM articles WHERE url = $1)`

	var exists bool
	err := retryDBOperation(ctx, func() error {
		return r.pool.QueryRow(ctx, query, url).Scan(&exists)
	}, "ArticleExists")
	if err != nil {
		logger.Logger.Error("Failed to check article existence", "url", url, "error", err)
		return false, err
	}

	return exists, nil
}
