package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hrportal/internal/model"
	"github.com/roach88/hrportal/internal/testutil"
)

func TestQuestionType_ClosedSet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author@example.com")
	survey := mustSurvey(t, s, author.ID)

	q, err := s.AddQuestion(ctx, model.Question{SurveyID: survey.ID, Text: "Rate us", Type: model.QuestionRating})
	require.NoError(t, err)
	typ, err := s.Lookup(ctx, "questions", q.ID, "type")
	require.NoError(t, err)
	assert.Equal(t, "rating", typ)

	_, err = s.AddQuestion(ctx, model.Question{SurveyID: survey.ID, Text: "?", Type: "unsupported"})
	requireCode(t, err, ErrCodeInvalidValue)
	assert.True(t, IsConstraintError(err))

	// The database rejects it as well when the access layer is bypassed.
	_, err = s.DB().Exec(`INSERT INTO "questions" ("survey_id", "question_text", "type") VALUES (?, 'raw', 'unsupported')`, survey.ID)
	require.Error(t, err)
	assert.Equal(t, ErrCodeCheckViolation, CodeOf(s.classify(err, "insert", "questions")))

	assert.Equal(t, 1, count(t, s, "questions", nil))
}

func TestQuestion_DefaultsAndOptions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author@example.com")
	survey := mustSurvey(t, s, author.ID)

	options := model.MustPayload([]string{"yes", "no"})
	_, err := s.AddQuestion(ctx, model.Question{SurveyID: survey.ID, Text: "Second", Type: model.QuestionRadio, Options: options, Order: 2, Required: true})
	require.NoError(t, err)
	first, err := s.AddQuestion(ctx, model.Question{SurveyID: survey.ID, Text: "First", Order: 1})
	require.NoError(t, err)
	assert.Equal(t, model.QuestionText, first.Type)

	qs, err := s.SurveyQuestions(ctx, survey.ID)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, "First", qs[0].Text)
	assert.Nil(t, qs[0].Options)
	assert.Equal(t, options, qs[1].Options)
	assert.True(t, qs[1].Required)
	assert.Equal(t, 2, qs[1].Order)
}

func TestSurvey_PublishPersistsTimestamp(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author@example.com")
	survey := mustSurvey(t, s, author.ID)
	assert.Equal(t, model.StatusDraft, survey.Status)

	require.NoError(t, s.PublishSurvey(ctx, survey.ID))

	got, err := s.GetSurvey(ctx, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, got.Status)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, got.PublishedAt.After(testutil.Epoch))
	assert.Nil(t, got.ClosedAt)
}

func TestSurvey_Transitions(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author@example.com")
	survey := mustSurvey(t, s, author.ID)

	require.NoError(t, s.PublishSurvey(ctx, survey.ID))
	requireCode(t, s.PublishSurvey(ctx, survey.ID), ErrCodeInvalidTransition)

	require.NoError(t, s.CloseSurvey(ctx, survey.ID))
	requireCode(t, s.CloseSurvey(ctx, survey.ID), ErrCodeInvalidTransition)
	requireCode(t, s.PublishSurvey(ctx, survey.ID), ErrCodeInvalidTransition)

	got, err := s.GetSurvey(ctx, survey.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusClosed, got.Status)
	assert.NotNil(t, got.ClosedAt)

	requireCode(t, s.PublishSurvey(ctx, 999), ErrCodeNotFound)
}

func TestSurvey_InvalidStatusAndMissingAuthor(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.CreateSurvey(ctx, model.Survey{Title: "x", CreatedBy: 1, Status: "archived"})
	requireCode(t, err, ErrCodeInvalidValue)

	_, err = s.CreateSurvey(ctx, model.Survey{Title: "x", CreatedBy: 42})
	requireCode(t, err, ErrCodeForeignKeyViolation)
}

func TestRecordAnswer_RequiresSameSurvey(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author@example.com")
	a := mustSurvey(t, s, author.ID)
	b := mustSurvey(t, s, author.ID)

	qb, err := s.AddQuestion(ctx, model.Question{SurveyID: b.ID, Text: "B?"})
	require.NoError(t, err)
	ra, err := s.StartResponse(ctx, model.Response{SurveyID: a.ID})
	require.NoError(t, err)

	_, err = s.RecordAnswer(ctx, model.AnswerDetail{ResponseID: ra.ID, QuestionID: qb.ID})
	requireCode(t, err, ErrCodeInvalidValue)
	assert.ErrorContains(t, err, "belongs to survey")

	_, err = s.RecordAnswer(ctx, model.AnswerDetail{ResponseID: 999, QuestionID: qb.ID})
	requireCode(t, err, ErrCodeNotFound)

	_, err = s.RecordAnswer(ctx, model.AnswerDetail{ResponseID: ra.ID, QuestionID: 999})
	requireCode(t, err, ErrCodeNotFound)

	assert.Equal(t, 0, count(t, s, "answer_details", nil))
}

func TestRecordAnswer_StoresPayload(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "author@example.com")
	survey := mustSurvey(t, s, author.ID)
	q, err := s.AddQuestion(ctx, model.Question{SurveyID: survey.ID, Text: "Upload", Type: model.QuestionFile})
	require.NoError(t, err)
	r, err := s.StartResponse(ctx, model.Response{SurveyID: survey.ID})
	require.NoError(t, err)

	ans, err := s.RecordAnswer(ctx, model.AnswerDetail{
		ResponseID:     r.ID,
		QuestionID:     q.ID,
		AdditionalData: model.MustPayload(map[string]any{"size": 12, "name": "cv.pdf"}),
	})
	require.NoError(t, err)

	data, err := s.Lookup(ctx, "answer_details", ans.ID, "additional_data")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"cv.pdf","size":12}`, data)

	value, err := s.Lookup(ctx, "answer_details", ans.ID, "answer_value")
	require.NoError(t, err)
	assert.Nil(t, value)

	require.NoError(t, s.CompleteResponse(ctx, r.ID))
	completed, err := s.Lookup(ctx, "responses", r.ID, "completed_at")
	require.NoError(t, err)
	assert.IsType(t, time.Time{}, completed)
}

func TestRoles_UniqueNamesAndGrants(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	admin := mustRole(t, s, "admin")
	_, err := s.CreateRole(ctx, model.Role{Name: "admin"})
	requireCode(t, err, ErrCodeUniqueViolation)

	perm := mustPermission(t, s, "edit_survey")
	require.NoError(t, s.Grant(ctx, admin.ID, perm.ID))
	requireCode(t, s.Grant(ctx, admin.ID, perm.ID), ErrCodeUniqueViolation)
	requireCode(t, s.Grant(ctx, admin.ID, 999), ErrCodeForeignKeyViolation)

	require.NoError(t, s.Revoke(ctx, admin.ID, perm.ID))
	requireCode(t, s.Revoke(ctx, admin.ID, perm.ID), ErrCodeNotFound)
}

func TestUsers_AssignRole(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	role := mustRole(t, s, "hr")
	user := mustUser(t, s, "u@example.com")
	assert.Nil(t, user.RoleID)

	require.NoError(t, s.AssignRole(ctx, user.ID, &role.ID))
	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RoleID)
	assert.Equal(t, role.ID, *got.RoleID)

	require.NoError(t, s.AssignRole(ctx, user.ID, nil))
	got, err = s.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RoleID)

	requireCode(t, s.AssignRole(ctx, user.ID, model.Ptr(int64(999))), ErrCodeForeignKeyViolation)
	requireCode(t, s.AssignRole(ctx, 999, nil), ErrCodeNotFound)
}

func TestVacancy_SalaryAndDefaults(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	author := mustUser(t, s, "hr@example.com")

	v, err := s.CreateVacancy(ctx, model.Vacancy{
		Title:       "Analyst",
		Description: "Numbers",
		Location:    model.Ptr("Remote"),
		SalaryMin:   model.Ptr(model.MustSalary("40000")),
		SalaryMax:   model.Ptr(model.MustSalary("55000.5")),
		CreatedBy:   author.ID,
	})
	require.NoError(t, err)

	got, err := s.GetVacancy(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EmploymentFullTime, got.Type)
	assert.Equal(t, model.StatusDraft, got.Status)
	require.NotNil(t, got.SalaryMin)
	assert.Equal(t, "40000.00", got.SalaryMin.String())
	assert.Equal(t, "55000.50", got.SalaryMax.String())
	assert.Equal(t, "Remote", *got.Location)
	assert.Nil(t, got.Department)

	salaryMax, err := s.Lookup(ctx, "vacancies", v.ID, "salary_max")
	require.NoError(t, err)
	assert.Equal(t, "55000.50", salaryMax)

	_, err = s.CreateVacancy(ctx, model.Vacancy{
		Title: "Bad", Description: "x", CreatedBy: author.ID,
		SalaryMin: model.Ptr(model.MustSalary("10")), SalaryMax: model.Ptr(model.MustSalary("9")),
	})
	requireCode(t, err, ErrCodeInvalidValue)

	_, err = s.CreateVacancy(ctx, model.Vacancy{Title: "Bad", Description: "x", CreatedBy: author.ID, Type: "freelance"})
	requireCode(t, err, ErrCodeInvalidValue)

	require.NoError(t, s.CloseVacancy(ctx, v.ID))
	requireCode(t, s.PublishVacancy(ctx, v.ID), ErrCodeInvalidTransition)
}

func TestApplication_Review(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	hr := mustUser(t, s, "hr@example.com")
	v := mustVacancy(t, s, hr.ID)
	require.NoError(t, s.PublishVacancy(ctx, v.ID))

	app, err := s.Apply(ctx, model.Application{VacancyID: v.ID, Name: "Grace", Email: "g@example.com", ResumePath: "g.pdf"})
	require.NoError(t, err)
	assert.Equal(t, model.ReviewNew, app.Status)

	require.NoError(t, s.ReviewApplication(ctx, app.ID, model.ReviewInterview, hr.ID, model.Ptr("strong")))
	require.NoError(t, s.ReviewApplication(ctx, app.ID, model.ReviewHired, hr.ID, nil))

	got, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewHired, got.Status)
	require.NotNil(t, got.ReviewedBy)
	assert.Equal(t, hr.ID, *got.ReviewedBy)
	assert.NotNil(t, got.ReviewedAt)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "strong", *got.Notes)

	requireCode(t, s.ReviewApplication(ctx, app.ID, "ghosted", hr.ID, nil), ErrCodeInvalidValue)
	requireCode(t, s.ReviewApplication(ctx, 999, model.ReviewRejected, hr.ID, nil), ErrCodeNotFound)

	// Removing the reviewer keeps the application.
	other := mustUser(t, s, "other@example.com")
	require.NoError(t, s.ReviewApplication(ctx, app.ID, model.ReviewRejected, other.ID, nil))
	require.NoError(t, s.Delete(ctx, "users", other.ID))
	got, err = s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReviewedBy)
}

func TestGenericAccess_RejectsUnknownIdentifiers(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.Count(ctx, "sqlite_master", nil)
	requireCode(t, err, ErrCodeInvalidValue)

	_, err = s.Count(ctx, "roles", map[string]any{"name; DROP TABLE roles": 1})
	requireCode(t, err, ErrCodeInvalidValue)

	_, err = s.Lookup(ctx, "permission_role", 1, "role_id")
	requireCode(t, err, ErrCodeInvalidValue)

	requireCode(t, s.Delete(ctx, "roles", 999), ErrCodeNotFound)
}

func TestLookup_NormalizesTypes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	mod, err := s.CreateModule(ctx, model.Module{Name: "Ops", Active: true})
	require.NoError(t, err)

	active, err := s.Lookup(ctx, "modules", mod.ID, "active")
	require.NoError(t, err)
	assert.Equal(t, true, active)

	id, err := s.Lookup(ctx, "modules", mod.ID, "id")
	require.NoError(t, err)
	assert.Equal(t, mod.ID, id)

	name, err := s.Lookup(ctx, "modules", mod.ID, "name")
	require.NoError(t, err)
	assert.Equal(t, "Ops", name)

	_, err = s.Lookup(ctx, "modules", 999, "name")
	assert.True(t, IsNotFound(err))
}

func TestSchemaError_Format(t *testing.T) {
	err := &SchemaError{Code: ErrCodeCheckViolation, Table: "questions", Column: "type", Message: "insert rejected"}
	assert.Equal(t, "CHECK_VIOLATION: insert rejected (questions.type)", err.Error())

	err = &SchemaError{Code: ErrCodeNotFound, Message: "gone"}
	assert.Equal(t, "NOT_FOUND: gone", err.Error())
	assert.False(t, IsOrderingError(err))
	assert.False(t, IsConstraintError(nil))
}
