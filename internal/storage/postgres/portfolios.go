package postgres

import (
	"context"
	"fmt"

	"github.com/hongminglow/coursenese-be/internal/models"
)

func (s *Store) ListPublishedPortfolios(ctx context.Context) ([]models.Portfolio, error) {
	const query = `
		SELECT p.id, p.user_id, u.name, p.title, p.slug, p.cover_url, p.published_at, p.created_at
		FROM portfolios p
		JOIN users u ON u.id = p.user_id
		WHERE p.published_at IS NOT NULL
		ORDER BY p.published_at DESC, p.id DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	out := []models.Portfolio{}
	for rows.Next() {
		var p models.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.AuthorName, &p.Title, &p.Slug, &p.CoverURL, &p.PublishedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) FindPublishedPortfolio(ctx context.Context, slug string) (models.Portfolio, error) {
	const query = `
		SELECT p.id, p.user_id, u.name, p.title, p.slug, p.cover_url, p.description_md, p.published_at, p.created_at
		FROM portfolios p
		JOIN users u ON u.id = p.user_id
		WHERE p.slug = $1 AND p.published_at IS NOT NULL`
	var p models.Portfolio
	err := s.db.QueryRowContext(ctx, query, slug).
		Scan(&p.ID, &p.UserID, &p.AuthorName, &p.Title, &p.Slug, &p.CoverURL, &p.DescriptionMD, &p.PublishedAt, &p.CreatedAt)
	if err != nil {
		return models.Portfolio{}, mapError(err)
	}
	return p, nil
}
