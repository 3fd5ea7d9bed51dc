package models

// Account roles stored in users.role.
const (
	RoleMember = "member"
	RoleAdmin  = "admin"
)

// Cart statuses stored in course_carts.status.
const (
	CartActive     = "active"
	CartCheckedOut = "checked_out"
)

// Course lifecycle statuses.
const (
	CourseDraft     = "draft"
	CoursePublished = "published"
	CourseArchived  = "archived"
)
