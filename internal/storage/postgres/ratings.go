package postgres

import (
	"context"
	"fmt"

	"github.com/hongminglow/coursenese-be/internal/models"
)

// UpsertRating writes one rating per (user, course). An existing rating keeps its approval flag.
func (s *Store) UpsertRating(ctx context.Context, r models.Rating) (models.Rating, bool, error) {
	const query = `
		INSERT INTO course_ratings (user_id, course_id, stars, comment, is_approved, created_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())
		ON CONFLICT (user_id, course_id) DO UPDATE SET
			stars = EXCLUDED.stars,
			comment = EXCLUDED.comment,
			created_at = NOW()
		RETURNING id, is_approved, created_at, (xmax = 0) AS inserted`

	var created bool
	err := s.db.QueryRowContext(ctx, query, r.UserID, r.CourseID, r.Stars, r.Comment).
		Scan(&r.ID, &r.IsApproved, &r.CreatedAt, &created)
	if err != nil {
		return models.Rating{}, false, fmt.Errorf("upsert rating: %w", mapError(err))
	}
	return r, created, nil
}

// ListApprovedRatings returns approved ratings, newest first.
func (s *Store) ListApprovedRatings(ctx context.Context, courseID int64, limit, offset int) ([]models.Rating, error) {
	const query = `
		SELECT r.id, r.user_id, r.course_id, r.stars, r.comment, r.is_approved, u.name, r.created_at
		FROM course_ratings r
		JOIN users u ON u.id = r.user_id
		WHERE r.course_id = $1 AND r.is_approved
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3`
	rows, err := s.db.QueryContext(ctx, query, courseID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	ratings := []models.Rating{}
	for rows.Next() {
		var r models.Rating
		if err := rows.Scan(&r.ID, &r.UserID, &r.CourseID, &r.Stars, &r.Comment, &r.IsApproved, &r.UserName, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// RatingSummary aggregates approved ratings of a course.
func (s *Store) RatingSummary(ctx context.Context, courseID int64) (models.RatingSummary, error) {
	const query = `
		SELECT COUNT(*),
			COALESCE(AVG(stars)::float8, 0),
			COUNT(*) FILTER (WHERE stars = 1),
			COUNT(*) FILTER (WHERE stars = 2),
			COUNT(*) FILTER (WHERE stars = 3),
			COUNT(*) FILTER (WHERE stars = 4),
			COUNT(*) FILTER (WHERE stars = 5)
		FROM course_ratings
		WHERE course_id = $1 AND is_approved`

	var sum models.RatingSummary
	err := s.db.QueryRowContext(ctx, query, courseID).Scan(&sum.TotalRatings, &sum.AvgStars,
		&sum.Count1, &sum.Count2, &sum.Count3, &sum.Count4, &sum.Count5)
	if err != nil {
		return models.RatingSummary{}, fmt.Errorf("summarize ratings: %w", err)
	}
	return sum, nil
}

// SetRatingApproval toggles moderation of a rating belonging to the course.
func (s *Store) SetRatingApproval(ctx context.Context, courseID, ratingID int64, approved bool) (models.Rating, error) {
	const query = `
		UPDATE course_ratings SET is_approved = $3
		WHERE id = $2 AND course_id = $1
		RETURNING id, user_id, course_id, stars, comment, is_approved, created_at`
	var r models.Rating
	err := s.db.QueryRowContext(ctx, query, courseID, ratingID, approved).
		Scan(&r.ID, &r.UserID, &r.CourseID, &r.Stars, &r.Comment, &r.IsApproved, &r.CreatedAt)
	if err != nil {
		return models.Rating{}, fmt.Errorf("approve rating: %w", mapError(err))
	}
	return r, nil
}
