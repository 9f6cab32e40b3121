package model

import "time"

// Role groups permissions and is assigned to users.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission is a named capability granted to roles.
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RoleGrant links one role to one permission.
type RoleGrant struct {
	RoleID       int64 `json:"role_id"`
	PermissionID int64 `json:"permission_id"`
}

// User is an account of the pre-existing users table.
// RoleID is nil when no role is assigned.
type User struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	Password        string     `json:"-"`
	RememberToken   *string    `json:"-"`
	RoleID          *int64     `json:"role_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Module optionally groups surveys.
type Module struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Survey is a questionnaire authored by a user.
type Survey struct {
	ID               int64      `json:"id"`
	Title            string     `json:"title"`
	Description      *string    `json:"description,omitempty"`
	ModuleID         *int64     `json:"module_id,omitempty"`
	CreatedBy        int64      `json:"created_by"`
	Status           Status     `json:"status"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
	AnonymousAllowed bool       `json:"anonymous_allowed"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Question belongs to exactly one survey.
type Question struct {
	ID        int64        `json:"id"`
	SurveyID  int64        `json:"survey_id"`
	Text      string       `json:"question_text"`
	Type      QuestionType `json:"type"`
	Options   Payload      `json:"options,omitempty"`
	Required  bool         `json:"required"`
	Order     int          `json:"order"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Response is one participation in a survey. UserID is nil for anonymous
// responses and after the responding user is deleted.
type Response struct {
	ID          int64      `json:"id"`
	SurveyID    int64      `json:"survey_id"`
	UserID      *int64     `json:"user_id,omitempty"`
	IsAnonymous bool       `json:"is_anonymous"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AnswerDetail is the answer to one question within a response.
type AnswerDetail struct {
	ID             int64     `json:"id"`
	ResponseID     int64     `json:"response_id"`
	QuestionID     int64     `json:"question_id"`
	Value          *string   `json:"answer_value,omitempty"`
	AdditionalData Payload   `json:"additional_data,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Vacancy is a job opening.
type Vacancy struct {
	ID               int64          `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Requirements     *string        `json:"requirements,omitempty"`
	Responsibilities *string        `json:"responsibilities,omitempty"`
	Location         *string        `json:"location,omitempty"`
	Department       *string        `json:"department,omitempty"`
	Type             EmploymentType `json:"type"`
	SalaryMin        *Salary        `json:"salary_min,omitempty"`
	SalaryMax        *Salary        `json:"salary_max,omitempty"`
	Status           Status         `json:"status"`
	CreatedBy        int64          `json:"created_by"`
	PublishedAt      *time.Time     `json:"published_at,omitempty"`
	ClosedAt         *time.Time     `json:"closed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// Application is a candidate's submission to a vacancy.
type Application struct {
	ID          int64        `json:"id"`
	VacancyID   int64        `json:"vacancy_id"`
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       *string      `json:"phone,omitempty"`
	CoverLetter *string      `json:"cover_letter,omitempty"`
	ResumePath  string       `json:"resume_path"`
	Status      ReviewStatus `json:"status"`
	Notes       *string      `json:"notes,omitempty"`
	ReviewedBy  *int64       `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time   `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Ptr returns a pointer to v. Convenient for optional fields.
func Ptr[T any](v T) *T {
	return &v
}
