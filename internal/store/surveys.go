package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hrportal/internal/model"
)

// CreateSurvey inserts a survey. An empty status means draft.
func (s *Store) CreateSurvey(ctx context.Context, sv model.Survey) (model.Survey, error) {
	if sv.Status == "" {
		sv.Status = model.StatusDraft
	}
	if _, err := model.ParseStatus(string(sv.Status)); err != nil {
		return model.Survey{}, invalidValue("surveys", "status", err)
	}

	sv.CreatedAt = s.timestamp()
	sv.UpdatedAt = sv.CreatedAt
	id, err := s.insertID(ctx, s.db, `
		INSERT INTO "surveys" ("title", "description", "module_id", "created_by", "status",
			"published_at", "closed_at", "anonymous_allowed", "created_at", "updated_at")
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING "id"`,
		sv.Title, sv.Description, sv.ModuleID, sv.CreatedBy, string(sv.Status),
		sv.PublishedAt, sv.ClosedAt, sv.AnonymousAllowed, sv.CreatedAt, sv.UpdatedAt)
	if err != nil {
		return model.Survey{}, s.classify(err, "insert", "surveys")
	}
	sv.ID = id
	s.logger.Debug("created survey", logAttrs("surveys", id)...)
	return sv, nil
}

// GetSurvey returns the survey with the given id.
func (s *Store) GetSurvey(ctx context.Context, id int64) (model.Survey, error) {
	var sv model.Survey
	var status string
	var moduleID sql.NullInt64
	var published, closed, created, updated nullTime
	err := s.queryRow(ctx, s.db, `
		SELECT "id", "title", "description", "module_id", "created_by", "status",
			"published_at", "closed_at", "anonymous_allowed", "created_at", "updated_at"
		FROM "surveys" WHERE "id" = ?`, id).
		Scan(&sv.ID, &sv.Title, &sv.Description, &moduleID, &sv.CreatedBy, &status,
			&published, &closed, &sv.AnonymousAllowed, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Survey{}, notFound("surveys", id)
	}
	if err != nil {
		return model.Survey{}, fmt.Errorf("get survey %d: %w", id, err)
	}
	sv.Status = model.Status(status)
	if moduleID.Valid {
		sv.ModuleID = &moduleID.Int64
	}
	sv.PublishedAt, sv.ClosedAt = published.Ptr(), closed.Ptr()
	sv.CreatedAt, sv.UpdatedAt = created.Time, updated.Time
	return sv, nil
}

// PublishSurvey moves a draft survey to published and stamps published_at.
func (s *Store) PublishSurvey(ctx context.Context, id int64) error {
	return s.transition(ctx, "surveys", id, model.StatusPublished, "published_at")
}

// CloseSurvey moves a draft or published survey to closed and stamps
// closed_at.
func (s *Store) CloseSurvey(ctx context.Context, id int64) error {
	return s.transition(ctx, "surveys", id, model.StatusClosed, "closed_at")
}

// AddQuestion inserts a question. An empty type means text.
func (s *Store) AddQuestion(ctx context.Context, q model.Question) (model.Question, error) {
	if q.Type == "" {
		q.Type = model.QuestionText
	}
	if _, err := model.ParseQuestionType(string(q.Type)); err != nil {
		return model.Question{}, invalidValue("questions", "type", err)
	}

	q.CreatedAt = s.timestamp()
	q.UpdatedAt = q.CreatedAt
	id, err := s.insertID(ctx, s.db, `
		INSERT INTO "questions" ("survey_id", "question_text", "type", "options", "required", "order", "created_at", "updated_at")
		VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING "id"`,
		q.SurveyID, q.Text, string(q.Type), q.Options, q.Required, q.Order, q.CreatedAt, q.UpdatedAt)
	if err != nil {
		return model.Question{}, s.classify(err, "insert", "questions")
	}
	q.ID = id
	s.logger.Debug("added question", logAttrs("questions", id)...)
	return q, nil
}

// SurveyQuestions lists the questions of a survey by their order, then id.
func (s *Store) SurveyQuestions(ctx context.Context, surveyID int64) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(`
		SELECT "id", "survey_id", "question_text", "type", "options", "required", "order", "created_at", "updated_at"
		FROM "questions" WHERE "survey_id" = ?
		ORDER BY "order", "id"`), surveyID)
	if err != nil {
		return nil, fmt.Errorf("list questions of survey %d: %w", surveyID, err)
	}
	defer rows.Close()

	var out []model.Question
	for rows.Next() {
		var q model.Question
		var typ string
		var created, updated nullTime
		if err := rows.Scan(&q.ID, &q.SurveyID, &q.Text, &typ, &q.Options, &q.Required, &q.Order, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = model.QuestionType(typ)
		q.CreatedAt, q.UpdatedAt = created.Time, updated.Time
		out = append(out, q)
	}
	return out, rows.Err()
}

// StartResponse inserts a response to a survey.
func (s *Store) StartResponse(ctx context.Context, r model.Response) (model.Response, error) {
	r.CreatedAt = s.timestamp()
	r.UpdatedAt = r.CreatedAt
	id, err := s.insertID(ctx, s.db, `
		INSERT INTO "responses" ("survey_id", "user_id", "is_anonymous", "completed_at", "created_at", "updated_at")
		VALUES (?, ?, ?, ?, ?, ?) RETURNING "id"`,
		r.SurveyID, r.UserID, r.IsAnonymous, r.CompletedAt, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return model.Response{}, s.classify(err, "insert", "responses")
	}
	r.ID = id
	s.logger.Debug("started response", logAttrs("responses", id)...)
	return r, nil
}

// CompleteResponse stamps completed_at on a response.
func (s *Store) CompleteResponse(ctx context.Context, id int64) error {
	now := s.timestamp()
	ok, err := s.exec(ctx, s.db,
		`UPDATE "responses" SET "completed_at" = ?, "updated_at" = ? WHERE "id" = ?`, now, now, id)
	if err != nil {
		return s.classify(err, "update", "responses")
	}
	if !ok {
		return notFound("responses", id)
	}
	return nil
}

// RecordAnswer inserts the answer to one question of a response. The
// question must belong to the survey the response answers; otherwise the
// answer is rejected with INVALID_VALUE.
func (s *Store) RecordAnswer(ctx context.Context, a model.AnswerDetail) (model.AnswerDetail, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var responseSurvey, questionSurvey int64
		err := s.queryRow(ctx, tx, `SELECT "survey_id" FROM "responses" WHERE "id" = ?`, a.ResponseID).Scan(&responseSurvey)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("responses", a.ResponseID)
		}
		if err != nil {
			return fmt.Errorf("read response %d: %w", a.ResponseID, err)
		}
		err = s.queryRow(ctx, tx, `SELECT "survey_id" FROM "questions" WHERE "id" = ?`, a.QuestionID).Scan(&questionSurvey)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("questions", a.QuestionID)
		}
		if err != nil {
			return fmt.Errorf("read question %d: %w", a.QuestionID, err)
		}
		if responseSurvey != questionSurvey {
			return &SchemaError{Code: ErrCodeInvalidValue, Table: "answer_details", Column: "question_id",
				Message: fmt.Sprintf("question %d belongs to survey %d, response %d to survey %d",
					a.QuestionID, questionSurvey, a.ResponseID, responseSurvey)}
		}

		a.CreatedAt = s.timestamp()
		a.UpdatedAt = a.CreatedAt
		id, err := s.insertID(ctx, tx, `
			INSERT INTO "answer_details" ("response_id", "question_id", "answer_value", "additional_data", "created_at", "updated_at")
			VALUES (?, ?, ?, ?, ?, ?) RETURNING "id"`,
			a.ResponseID, a.QuestionID, a.Value, a.AdditionalData, a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return s.classify(err, "insert", "answer_details")
		}
		a.ID = id
		return nil
	})
	if err != nil {
		return model.AnswerDetail{}, err
	}
	s.logger.Debug("recorded answer", logAttrs("answer_details", a.ID)...)
	return a, nil
}
