package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hongminglow/coursenese-be/internal/models"
)

const courseColumns = `id, title, slug, price_int, level, duration_min, thumbnail_url, intro_video_url,
	description_md, status, created_by, created_at, updated_at`

const summaryColumns = `c.id, c.title, c.slug, c.price_int, c.level, c.duration_min, c.thumbnail_url, c.status, c.created_at,
	(SELECT COUNT(*) FROM course_comments cc WHERE cc.course_id = c.id AND cc.is_approved) AS total_comment,
	COALESCE((SELECT AVG(r.stars)::float8 FROM course_ratings r WHERE r.course_id = c.id AND r.is_approved), 0) AS avg_rating`

const catalogFilter = `
	WHERE c.status = 'published'
		AND ($1::text = '' OR c.title ILIKE '%' || $1 || '%' OR c.slug ILIKE '%' || $1 || '%')
		AND ($2::bigint = 0 OR EXISTS (
			SELECT 1 FROM course_category_map m WHERE m.course_id = c.id AND m.category_id = $2))
		AND ($3::text = '' OR c.level = $3)`

var catalogOrder = map[string]string{
	models.SortNewest:    `c.created_at DESC, c.id DESC`,
	models.SortPriceAsc:  `c.price_int ASC, c.id ASC`,
	models.SortPriceDesc: `c.price_int DESC, c.id DESC`,
	models.SortRating:    `avg_rating DESC, c.id DESC`,
}

func scanCourse(row scanner) (models.Course, error) {
	var c models.Course
	err := row.Scan(&c.ID, &c.Title, &c.Slug, &c.PriceInt, &c.Level, &c.DurationMin, &c.ThumbnailURL,
		&c.IntroVideoURL, &c.DescriptionMD, &c.Status, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Course{}, mapError(err)
	}
	return c, nil
}

func scanSummaries(rows interface {
	scanner
	Next() bool
	Err() error
}) ([]models.CourseSummary, error) {
	out := []models.CourseSummary{}
	for rows.Next() {
		var c models.CourseSummary
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.PriceInt, &c.Level, &c.DurationMin, &c.ThumbnailURL,
			&c.Status, &c.CreatedAt, &c.TotalComment, &c.AvgRating); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListPublishedCourses returns one page of the public catalog and the total match count.
func (s *Store) ListPublishedCourses(ctx context.Context, f models.CourseFilter) ([]models.CourseSummary, int64, error) {
	order, ok := catalogOrder[f.SortBy]
	if !ok {
		order = catalogOrder[models.SortNewest]
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses c`+catalogFilter, f.Search, f.CategoryID, f.Level).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	query := `SELECT ` + summaryColumns + ` FROM courses c` + catalogFilter + ` ORDER BY ` + order + ` LIMIT $4 OFFSET $5`
	rows, err := s.db.QueryContext(ctx, query, f.Search, f.CategoryID, f.Level, f.Limit, f.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses, err := scanSummaries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("scan courses: %w", err)
	}
	return courses, total, nil
}

// FindPublishedCourse loads the course page by numeric id or slug.
func (s *Store) FindPublishedCourse(ctx context.Context, idOrSlug string) (models.CourseDetail, error) {
	const query = `
		SELECT c.id, c.title, c.slug, c.price_int, c.level, c.duration_min, c.thumbnail_url, c.intro_video_url,
			c.description_md, c.status, c.created_by, c.created_at, c.updated_at, u.name,
			(SELECT COUNT(*) FROM course_ownerships o WHERE o.course_id = c.id),
			COALESCE((SELECT AVG(r.stars)::float8 FROM course_ratings r WHERE r.course_id = c.id AND r.is_approved), 0),
			(SELECT COUNT(*) FROM course_ratings r WHERE r.course_id = c.id AND r.is_approved)
		FROM courses c
		LEFT JOIN users u ON u.id = c.created_by
		WHERE c.status = 'published' AND (c.id = $1 OR c.slug = $2)
		LIMIT 1`

	id, _ := strconv.ParseInt(idOrSlug, 10, 64)

	var d models.CourseDetail
	c := &d.Course
	err := s.db.QueryRowContext(ctx, query, id, idOrSlug).Scan(
		&c.ID, &c.Title, &c.Slug, &c.PriceInt, &c.Level, &c.DurationMin, &c.ThumbnailURL, &c.IntroVideoURL,
		&c.DescriptionMD, &c.Status, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt, &d.InstructorName,
		&d.TotalPurchase, &d.AvgRating, &d.TotalRating,
	)
	if err != nil {
		return models.CourseDetail{}, mapError(err)
	}

	if d.Sections, err = s.courseSections(ctx, c.ID); err != nil {
		return models.CourseDetail{}, err
	}
	if d.Related, err = s.relatedCourses(ctx, c.ID); err != nil {
		return models.CourseDetail{}, err
	}
	return d, nil
}

func (s *Store) courseSections(ctx context.Context, courseID int64) ([]models.Section, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, course_id, title, sort FROM course_sections WHERE course_id = $1 ORDER BY sort, id`, courseID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	defer rows.Close()

	sections := []models.Section{}
	index := map[int64]int{}
	for rows.Next() {
		var sec models.Section
		if err := rows.Scan(&sec.ID, &sec.CourseID, &sec.Title, &sec.Sort); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sec.Lessons = []models.Lesson{}
		index[sec.ID] = len(sections)
		sections = append(sections, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const lessonsQuery = `
		SELECT l.id, l.section_id, l.title, l.video_url, l.duration_min, l.sort, l.is_preview
		FROM course_lessons l
		JOIN course_sections cs ON cs.id = l.section_id
		WHERE cs.course_id = $1
		ORDER BY l.sort, l.id`
	lrows, err := s.db.QueryContext(ctx, lessonsQuery, courseID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer lrows.Close()

	for lrows.Next() {
		var l models.Lesson
		if err := lrows.Scan(&l.ID, &l.SectionID, &l.Title, &l.VideoURL, &l.DurationMin, &l.Sort, &l.IsPreview); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		if i, ok := index[l.SectionID]; ok {
			sections[i].Lessons = append(sections[i].Lessons, l)
		}
	}
	return sections, lrows.Err()
}

func (s *Store) relatedCourses(ctx context.Context, courseID int64) ([]models.CourseSummary, error) {
	query := `SELECT ` + summaryColumns + `
		FROM course_related cr
		JOIN courses c ON c.id = cr.related_id
		WHERE cr.course_id = $1 AND c.status = 'published'
		ORDER BY c.created_at DESC
		LIMIT 6`
	rows, err := s.db.QueryContext(ctx, query, courseID)
	if err != nil {
		return nil, fmt.Errorf("list related courses: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

// FindCourseByID fetches a course in any status.
func (s *Store) FindCourseByID(ctx context.Context, id int64) (models.Course, error) {
	return scanCourse(s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
}

// IsCourseOwned reports whether the user holds an ownership row for the course.
func (s *Store) IsCourseOwned(ctx context.Context, userID, courseID int64) (bool, error) {
	var owned bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM course_ownerships WHERE user_id = $1 AND course_id = $2)`, userID, courseID).Scan(&owned)
	return owned, mapError(err)
}

// CreateCourse inserts a draft course and its category links in one transaction.
func (s *Store) CreateCourse(ctx context.Context, nc models.NewCourse) (models.Course, error) {
	const insertCourse = `
		INSERT INTO courses (title, slug, price_int, level, duration_min, thumbnail_url, intro_video_url,
			description_md, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'draft', $9)
		RETURNING ` + courseColumns
	const insertCategory = `INSERT INTO course_category_map (course_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`

	var created models.Course
	err := s.inTx(ctx, func(ctx context.Context, tx DBTX) error {
		var err error
		created, err = scanCourse(tx.QueryRowContext(ctx, insertCourse, nc.Title, nc.Slug, nc.PriceInt, nc.Level,
			nc.DurationMin, nc.ThumbnailURL, nc.IntroVideoURL, nc.DescriptionMD, nc.CreatedBy))
		if err != nil {
			return fmt.Errorf("insert course: %w", err)
		}
		for _, categoryID := range nc.CategoryIDs {
			if _, err := tx.ExecContext(ctx, insertCategory, created.ID, categoryID); err != nil {
				return fmt.Errorf("link category %d: %w", categoryID, mapError(err))
			}
		}
		return nil
	})
	if err != nil {
		return models.Course{}, err
	}
	return created, nil
}

// UpdateCourse applies a partial update and returns the stored row.
func (s *Store) UpdateCourse(ctx context.Context, id int64, upd models.CourseUpdate, at time.Time) (models.Course, error) {
	const query = `
		UPDATE courses SET
			title = COALESCE($2, title),
			slug = COALESCE($3, slug),
			price_int = COALESCE($4, price_int),
			level = COALESCE($5, level),
			duration_min = COALESCE($6, duration_min),
			thumbnail_url = COALESCE($7, thumbnail_url),
			intro_video_url = COALESCE($8, intro_video_url),
			description_md = COALESCE($9, description_md),
			status = COALESCE($10, status),
			updated_at = $11
		WHERE id = $1
		RETURNING ` + courseColumns
	c, err := scanCourse(s.db.QueryRowContext(ctx, query, id, upd.Title, upd.Slug, upd.PriceInt, upd.Level,
		upd.DurationMin, upd.ThumbnailURL, upd.IntroVideoURL, upd.DescriptionMD, upd.Status, at))
	if err != nil {
		return models.Course{}, fmt.Errorf("update course: %w", err)
	}
	return c, nil
}

func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	return execAffected(ctx, s.db, `DELETE FROM courses WHERE id = $1`, id)
}

func (s *Store) AddSection(ctx context.Context, courseID int64, title string, sort int) (models.Section, error) {
	sec := models.Section{CourseID: courseID, Title: title, Sort: sort}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO course_sections (course_id, title, sort) VALUES ($1, $2, $3) RETURNING id`, courseID, title, sort).Scan(&sec.ID)
	if err != nil {
		return models.Section{}, fmt.Errorf("insert section: %w", mapError(err))
	}
	return sec, nil
}

func (s *Store) UpdateSection(ctx context.Context, id int64, upd models.SectionUpdate) (models.Section, error) {
	const query = `
		UPDATE course_sections SET title = COALESCE($2, title), sort = COALESCE($3, sort)
		WHERE id = $1
		RETURNING id, course_id, title, sort`
	var sec models.Section
	if err := s.db.QueryRowContext(ctx, query, id, upd.Title, upd.Sort).Scan(&sec.ID, &sec.CourseID, &sec.Title, &sec.Sort); err != nil {
		return models.Section{}, fmt.Errorf("update section: %w", mapError(err))
	}
	return sec, nil
}

func (s *Store) DeleteSection(ctx context.Context, id int64) error {
	return execAffected(ctx, s.db, `DELETE FROM course_sections WHERE id = $1`, id)
}

func (s *Store) AddLesson(ctx context.Context, l models.Lesson) (models.Lesson, error) {
	const query = `
		INSERT INTO course_lessons (section_id, title, video_url, duration_min, sort, is_preview)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := s.db.QueryRowContext(ctx, query, l.SectionID, l.Title, l.VideoURL, l.DurationMin, l.Sort, l.IsPreview).Scan(&l.ID); err != nil {
		return models.Lesson{}, fmt.Errorf("insert lesson: %w", mapError(err))
	}
	return l, nil
}

func (s *Store) UpdateLesson(ctx context.Context, id int64, upd models.LessonUpdate) (models.Lesson, error) {
	const query = `
		UPDATE course_lessons SET
			title = COALESCE($2, title),
			video_url = COALESCE($3, video_url),
			duration_min = COALESCE($4, duration_min),
			sort = COALESCE($5, sort),
			is_preview = COALESCE($6, is_preview)
		WHERE id = $1
		RETURNING id, section_id, title, video_url, duration_min, sort, is_preview`
	var l models.Lesson
	err := s.db.QueryRowContext(ctx, query, id, upd.Title, upd.VideoURL, upd.DurationMin, upd.Sort, upd.IsPreview).
		Scan(&l.ID, &l.SectionID, &l.Title, &l.VideoURL, &l.DurationMin, &l.Sort, &l.IsPreview)
	if err != nil {
		return models.Lesson{}, fmt.Errorf("update lesson: %w", mapError(err))
	}
	return l, nil
}

func (s *Store) DeleteLesson(ctx context.Context, id int64) error {
	return execAffected(ctx, s.db, `DELETE FROM course_lessons WHERE id = $1`, id)
}

// ListCourseComments returns approved comments, newest first, with the total count.
func (s *Store) ListCourseComments(ctx context.Context, courseID int64, limit, offset int) ([]models.Comment, int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM course_comments WHERE course_id = $1 AND is_approved`, courseID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	const query = `
		SELECT cc.id, cc.course_id, cc.user_id, u.name, cc.comment, cc.created_at
		FROM course_comments cc
		JOIN users u ON u.id = cc.user_id
		WHERE cc.course_id = $1 AND cc.is_approved
		ORDER BY cc.created_at DESC, cc.id DESC
		LIMIT $2 OFFSET $3`
	rows, err := s.db.QueryContext(ctx, query, courseID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.CourseID, &c.UserID, &c.UserName, &c.Comment, &c.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, total, rows.Err()
}

// RecordCourseView appends a view row. userID is nil for anonymous visitors.
func (s *Store) RecordCourseView(ctx context.Context, courseID int64, userID *int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO course_views (course_id, user_id, viewed_at) VALUES ($1, $2, $3)`, courseID, userID, at)
	return mapError(err)
}
