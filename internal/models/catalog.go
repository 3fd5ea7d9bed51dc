package models

import "time"

// Course is a row of the courses table.
type Course struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	PriceInt      int64     `json:"price_int"`
	Level         *string   `json:"level"`
	DurationMin   *int      `json:"duration_min"`
	ThumbnailURL  *string   `json:"thumbnail_url"`
	IntroVideoURL *string   `json:"intro_video_url"`
	DescriptionMD *string   `json:"description_md"`
	Status        string    `json:"status"`
	CreatedBy     *int64    `json:"created_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CourseSummary is a catalog listing row.
type CourseSummary struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	PriceInt     int64     `json:"price_int"`
	Level        *string   `json:"level"`
	DurationMin  *int      `json:"duration_min"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	TotalComment int64     `json:"total_comment"`
	AvgRating    float64   `json:"avg_rating"`
}

// CourseDetail is the public course page.
type CourseDetail struct {
	Course
	InstructorName *string         `json:"instructor_name"`
	TotalPurchase  int64           `json:"total_purchase"`
	AvgRating      float64         `json:"avg_rating"`
	TotalRating    int64           `json:"total_rating"`
	Sections       []Section       `json:"sections"`
	Related        []CourseSummary `json:"related_courses"`
	IsOwned        bool            `json:"isOwned"`
}

type Section struct {
	ID       int64    `json:"id"`
	CourseID int64    `json:"course_id"`
	Title    string   `json:"title"`
	Sort     int      `json:"sort"`
	Lessons  []Lesson `json:"lessons,omitempty"`
}

type Lesson struct {
	ID          int64   `json:"id"`
	SectionID   int64   `json:"section_id"`
	Title       string  `json:"title"`
	VideoURL    *string `json:"video_url"`
	DurationMin *int    `json:"duration_min"`
	Sort        int     `json:"sort"`
	IsPreview   bool    `json:"is_preview"`
}

// CourseFilter narrows a catalog listing.
type CourseFilter struct {
	Search     string
	CategoryID int64
	Level      string
	SortBy     string
	Page       int
	Limit      int
}

// Catalog sort orders.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortRating    = "rating"
)

// Offset returns the row offset for the filter's page.
func (f CourseFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// NewCourse is the admin input for creating a course.
type NewCourse struct {
	Title         string
	Slug          string
	PriceInt      int64
	Level         *string
	DurationMin   *int
	ThumbnailURL  *string
	IntroVideoURL *string
	DescriptionMD *string
	CategoryIDs   []int64
	CreatedBy     int64
}

// CourseUpdate is a partial course change. Nil means unchanged.
type CourseUpdate struct {
	Title         *string
	Slug          *string
	PriceInt      *int64
	Level         *string
	DurationMin   *int
	ThumbnailURL  *string
	IntroVideoURL *string
	DescriptionMD *string
	Status        *string
}

func (u CourseUpdate) Empty() bool {
	return u.Title == nil && u.Slug == nil && u.PriceInt == nil && u.Level == nil && u.DurationMin == nil &&
		u.ThumbnailURL == nil && u.IntroVideoURL == nil && u.DescriptionMD == nil && u.Status == nil
}

// SectionUpdate is a partial section change.
type SectionUpdate struct {
	Title *string
	Sort  *int
}

// LessonUpdate is a partial lesson change.
type LessonUpdate struct {
	Title       *string
	VideoURL    *string
	DurationMin *int
	Sort        *int
	IsPreview   *bool
}

// Rating is a learner's review of a course.
type Rating struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	CourseID   int64     `json:"course_id"`
	Stars      int       `json:"stars"`
	Comment    *string   `json:"comment"`
	IsApproved bool      `json:"is_approved"`
	UserName   string    `json:"user_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// RatingSummary aggregates approved ratings of a course.
type RatingSummary struct {
	TotalRatings int64   `json:"total_ratings"`
	AvgStars     float64 `json:"avg_stars"`
	Count1       int64   `json:"count_1"`
	Count2       int64   `json:"count_2"`
	Count3       int64   `json:"count_3"`
	Count4       int64   `json:"count_4"`
	Count5       int64   `json:"count_5"`
}

type Comment struct {
	ID        int64     `json:"id"`
	CourseID  int64     `json:"course_id"`
	UserID    int64     `json:"user_id"`
	UserName  string    `json:"user_name"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Cart is a user's shopping cart with its items.
type Cart struct {
	ID     int64      `json:"id"`
	UserID int64      `json:"user_id"`
	Status string     `json:"status"`
	Items  []CartItem `json:"items"`
	Total  int64      `json:"total"`
}

type CartItem struct {
	CourseID     int64     `json:"course_id"`
	Title        string    `json:"title"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	PriceInt     int64     `json:"price_int"`
	CreatedAt    time.Time `json:"created_at"`
}

// Portfolio is a published showcase page.
type Portfolio struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	AuthorName    string     `json:"author_name"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	CoverURL      *string    `json:"cover_url"`
	DescriptionMD *string    `json:"description_md,omitempty"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Pagination describes a page of results.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	Total       int64 `json:"total"`
	Limit       int   `json:"limit"`
}

// NewPagination computes page counts for total rows.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{CurrentPage: page, TotalPages: pages, Total: total, Limit: limit}
}
