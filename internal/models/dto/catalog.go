package dto

type UpdateProfileRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,max=32"`
	Address     *string `json:"address" validate:"omitempty,max=255"`
	City        *string `json:"city" validate:"omitempty,max=100"`
	Country     *string `json:"country" validate:"omitempty,max=100"`
	ZipCode     *string `json:"zip_code" validate:"omitempty,max=20"`
	AvatarURL   *string `json:"avatar_url" validate:"omitempty,max=512"`
	Bio         *string `json:"bio" validate:"omitempty,max=2000"`
}

type CreateCourseRequest struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Slug          string  `json:"slug" validate:"omitempty,max=200"`
	PriceInt      *int64  `json:"price_int" validate:"required,min=0"`
	Level         *string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationMin   *int    `json:"duration_min" validate:"omitempty,min=0"`
	ThumbnailURL  *string `json:"thumbnail_url"`
	IntroVideoURL *string `json:"intro_video_url"`
	DescriptionMD *string `json:"description_md"`
	CategoryIDs   []int64 `json:"category_ids" validate:"dive,gt=0"`
}

type UpdateCourseRequest struct {
	Title         *string `json:"title" validate:"omitempty,min=1,max=200"`
	Slug          *string `json:"slug" validate:"omitempty,min=1,max=200"`
	PriceInt      *int64  `json:"price_int" validate:"omitempty,min=0"`
	Level         *string `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationMin   *int    `json:"duration_min" validate:"omitempty,min=0"`
	ThumbnailURL  *string `json:"thumbnail_url"`
	IntroVideoURL *string `json:"intro_video_url"`
	DescriptionMD *string `json:"description_md"`
	Status        *string `json:"status" validate:"omitempty,oneof=draft published archived"`
}

type SectionRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Sort  int    `json:"sort" validate:"min=0"`
}

type UpdateSectionRequest struct {
	Title *string `json:"title" validate:"omitempty,min=1,max=200"`
	Sort  *int    `json:"sort" validate:"omitempty,min=0"`
}

type LessonRequest struct {
	SectionID   int64   `json:"section_id" validate:"required,gt=0"`
	Title       string  `json:"title" validate:"required,max=200"`
	VideoURL    *string `json:"video_url"`
	DurationMin *int    `json:"duration_min" validate:"omitempty,min=0"`
	Sort        int     `json:"sort" validate:"min=0"`
	IsPreview   bool    `json:"is_preview"`
}

type UpdateLessonRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	VideoURL    *string `json:"video_url"`
	DurationMin *int    `json:"duration_min" validate:"omitempty,min=0"`
	Sort        *int    `json:"sort" validate:"omitempty,min=0"`
	IsPreview   *bool   `json:"is_preview"`
}

type ApproveRatingRequest struct {
	Approved *bool `json:"is_approved" validate:"required"`
}

type CartItemRequest struct {
	CourseID int64 `json:"course_id" validate:"required,gt=0"`
}

type RatingRequest struct {
	CourseID int64   `json:"course_id" validate:"required,gt=0"`
	Stars    int     `json:"stars" validate:"min=1,max=5"`
	Comment  *string `json:"comment" validate:"omitempty,max=2000"`
}
