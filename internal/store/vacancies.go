package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hrportal/internal/model"
)

// CreateVacancy inserts a vacancy. Empty type and status default to
// full-time and draft. A minimum salary above the maximum is rejected.
func (s *Store) CreateVacancy(ctx context.Context, v model.Vacancy) (model.Vacancy, error) {
	if v.Type == "" {
		v.Type = model.EmploymentFullTime
	}
	if v.Status == "" {
		v.Status = model.StatusDraft
	}
	if _, err := model.ParseEmploymentType(string(v.Type)); err != nil {
		return model.Vacancy{}, invalidValue("vacancies", "type", err)
	}
	if _, err := model.ParseStatus(string(v.Status)); err != nil {
		return model.Vacancy{}, invalidValue("vacancies", "status", err)
	}
	if v.SalaryMin != nil && v.SalaryMax != nil && v.SalaryMin.Cmp(*v.SalaryMax) > 0 {
		return model.Vacancy{}, &SchemaError{Code: ErrCodeInvalidValue, Table: "vacancies", Column: "salary_min",
			Message: fmt.Sprintf("salary_min %s exceeds salary_max %s", v.SalaryMin, v.SalaryMax)}
	}

	v.CreatedAt = s.timestamp()
	v.UpdatedAt = v.CreatedAt
	id, err := s.insertID(ctx, s.db, `
		INSERT INTO "vacancies" ("title", "description", "requirements", "responsibilities", "location", "department",
			"type", "salary_min", "salary_max", "status", "created_by", "published_at", "closed_at", "created_at", "updated_at")
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING "id"`,
		v.Title, v.Description, v.Requirements, v.Responsibilities, v.Location, v.Department,
		string(v.Type), model.SalaryArg(v.SalaryMin), model.SalaryArg(v.SalaryMax), string(v.Status), v.CreatedBy,
		v.PublishedAt, v.ClosedAt, v.CreatedAt, v.UpdatedAt)
	if err != nil {
		return model.Vacancy{}, s.classify(err, "insert", "vacancies")
	}
	v.ID = id
	s.logger.Debug("created vacancy", logAttrs("vacancies", id)...)
	return v, nil
}

// GetVacancy returns the vacancy with the given id.
func (s *Store) GetVacancy(ctx context.Context, id int64) (model.Vacancy, error) {
	var v model.Vacancy
	var typ, status string
	var salaryMin, salaryMax model.NullSalary
	var published, closed, created, updated nullTime
	err := s.queryRow(ctx, s.db, `
		SELECT "id", "title", "description", "requirements", "responsibilities", "location", "department",
			"type", "salary_min", "salary_max", "status", "created_by", "published_at", "closed_at", "created_at", "updated_at"
		FROM "vacancies" WHERE "id" = ?`, id).
		Scan(&v.ID, &v.Title, &v.Description, &v.Requirements, &v.Responsibilities, &v.Location, &v.Department,
			&typ, &salaryMin, &salaryMax, &status, &v.CreatedBy, &published, &closed, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Vacancy{}, notFound("vacancies", id)
	}
	if err != nil {
		return model.Vacancy{}, fmt.Errorf("get vacancy %d: %w", id, err)
	}
	v.Type, v.Status = model.EmploymentType(typ), model.Status(status)
	v.SalaryMin, v.SalaryMax = salaryMin.Ptr(), salaryMax.Ptr()
	v.PublishedAt, v.ClosedAt = published.Ptr(), closed.Ptr()
	v.CreatedAt, v.UpdatedAt = created.Time, updated.Time
	return v, nil
}

// PublishVacancy moves a draft vacancy to published and stamps published_at.
func (s *Store) PublishVacancy(ctx context.Context, id int64) error {
	return s.transition(ctx, "vacancies", id, model.StatusPublished, "published_at")
}

// CloseVacancy moves a draft or published vacancy to closed and stamps
// closed_at.
func (s *Store) CloseVacancy(ctx context.Context, id int64) error {
	return s.transition(ctx, "vacancies", id, model.StatusClosed, "closed_at")
}

// Apply inserts an application to a vacancy. An empty status means new.
func (s *Store) Apply(ctx context.Context, a model.Application) (model.Application, error) {
	if a.Status == "" {
		a.Status = model.ReviewNew
	}
	if _, err := model.ParseReviewStatus(string(a.Status)); err != nil {
		return model.Application{}, invalidValue("applications", "status", err)
	}

	a.CreatedAt = s.timestamp()
	a.UpdatedAt = a.CreatedAt
	id, err := s.insertID(ctx, s.db, `
		INSERT INTO "applications" ("vacancy_id", "name", "email", "phone", "cover_letter", "resume_path",
			"status", "notes", "reviewed_by", "reviewed_at", "created_at", "updated_at")
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING "id"`,
		a.VacancyID, a.Name, a.Email, a.Phone, a.CoverLetter, a.ResumePath,
		string(a.Status), a.Notes, a.ReviewedBy, a.ReviewedAt, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return model.Application{}, s.classify(err, "insert", "applications")
	}
	a.ID = id
	s.logger.Debug("created application", logAttrs("applications", id)...)
	return a, nil
}

// GetApplication returns the application with the given id.
func (s *Store) GetApplication(ctx context.Context, id int64) (model.Application, error) {
	var a model.Application
	var status string
	var reviewedBy sql.NullInt64
	var reviewed, created, updated nullTime
	err := s.queryRow(ctx, s.db, `
		SELECT "id", "vacancy_id", "name", "email", "phone", "cover_letter", "resume_path",
			"status", "notes", "reviewed_by", "reviewed_at", "created_at", "updated_at"
		FROM "applications" WHERE "id" = ?`, id).
		Scan(&a.ID, &a.VacancyID, &a.Name, &a.Email, &a.Phone, &a.CoverLetter, &a.ResumePath,
			&status, &a.Notes, &reviewedBy, &reviewed, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Application{}, notFound("applications", id)
	}
	if err != nil {
		return model.Application{}, fmt.Errorf("get application %d: %w", id, err)
	}
	a.Status = model.ReviewStatus(status)
	if reviewedBy.Valid {
		a.ReviewedBy = &reviewedBy.Int64
	}
	a.ReviewedAt = reviewed.Ptr()
	a.CreatedAt, a.UpdatedAt = created.Time, updated.Time
	return a, nil
}

// ReviewApplication records a review decision: the new status, the
// reviewer, optional notes, and the review time.
func (s *Store) ReviewApplication(ctx context.Context, id int64, status model.ReviewStatus, reviewerID int64, notes *string) error {
	if _, err := model.ParseReviewStatus(string(status)); err != nil {
		return invalidValue("applications", "status", err)
	}
	now := s.timestamp()
	ok, err := s.exec(ctx, s.db, `
		UPDATE "applications"
		SET "status" = ?, "reviewed_by" = ?, "reviewed_at" = ?, "notes" = COALESCE(?, "notes"), "updated_at" = ?
		WHERE "id" = ?`,
		string(status), reviewerID, now, notes, now, id)
	if err != nil {
		return s.classify(err, "update", "applications")
	}
	if !ok {
		return notFound("applications", id)
	}
	s.logger.Debug("reviewed application", append(logAttrs("applications", id), "status", string(status))...)
	return nil
}
