package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hongminglow/coursenese-be/internal/models"
	"github.com/hongminglow/coursenese-be/internal/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var summaryRowColumns = []string{"id", "title", "slug", "price_int", "level", "duration_min", "thumbnail_url",
	"status", "created_at", "total_comment", "avg_rating"}

var courseRowColumns = []string{"id", "title", "slug", "price_int", "level", "duration_min", "thumbnail_url",
	"intro_video_url", "description_md", "status", "created_by", "created_at", "updated_at"}

func TestListPublishedCoursesSortsByPrice(t *testing.T) {
	store, mock := newStoreWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM courses c WHERE c.status = 'published'`).
		WithArgs("go", int64(0), "").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery(`ORDER BY c.price_int ASC, c.id ASC LIMIT \$4 OFFSET \$5`).
		WithArgs("go", int64(0), "", 5, 5).
		WillReturnRows(sqlmock.NewRows(summaryRowColumns).
			AddRow(int64(1), "Go 101", "go-101", int64(0), "beginner", 90, nil, "published", now, int64(2), 4.5))

	courses, total, err := store.ListPublishedCourses(context.Background(), models.CourseFilter{
		Search: "go", SortBy: models.SortPriceAsc, Page: 2, Limit: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, courses, 1)
	assert.Equal(t, "go-101", courses[0].Slug)
	assert.InDelta(t, 4.5, courses[0].AvgRating, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCourseLinksCategoriesInTransaction(t *testing.T) {
	store, mock := newStoreWithMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO courses`).
		WithArgs("Go 101", "go-101", int64(150000), nil, nil, nil, nil, nil, int64(1)).
		WillReturnRows(sqlmock.NewRows(courseRowColumns).
			AddRow(int64(9), "Go 101", "go-101", int64(150000), nil, nil, nil, nil, nil, "draft", int64(1), now, now))
	mock.ExpectExec(`INSERT INTO course_category_map`).WithArgs(int64(9), int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO course_category_map`).WithArgs(int64(9), int64(404)).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()

	_, err := store.CreateCourse(context.Background(), models.NewCourse{
		Title: "Go 101", Slug: "go-101", PriceInt: 150000, CategoryIDs: []int64{2, 404}, CreatedBy: 1,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCourseSlugConflict(t *testing.T) {
	store, mock := newStoreWithMock(t)
	slug := "taken"

	mock.ExpectQuery(`UPDATE courses SET`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "courses_slug_key"})

	_, err := store.UpdateCourse(context.Background(), 9, models.CourseUpdate{Slug: &slug}, time.Now())
	assert.ErrorIs(t, err, storage.ErrDuplicateSlug)
}

func TestUpsertRatingReportsInsert(t *testing.T) {
	store, mock := newStoreWithMock(t)
	now := time.Now()
	comment := "great"

	mock.ExpectQuery(`INSERT INTO course_ratings .* ON CONFLICT \(user_id, course_id\) DO UPDATE`).
		WithArgs(int64(7), int64(9), 5, "great").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_approved", "created_at", "inserted"}).AddRow(int64(1), true, now, true))
	mock.ExpectQuery(`INSERT INTO course_ratings`).
		WithArgs(int64(7), int64(9), 4, "great").
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_approved", "created_at", "inserted"}).AddRow(int64(1), true, now, false))

	r, created, err := store.UpsertRating(context.Background(), models.Rating{UserID: 7, CourseID: 9, Stars: 5, Comment: &comment})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), r.ID)

	_, created, err = store.UpsertRating(context.Background(), models.Rating{UserID: 7, CourseID: 9, Stars: 4, Comment: &comment})
	require.NoError(t, err)
	assert.False(t, created)
}
