package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hrportal/internal/model"
)

func TestDeleteRole_NullsUserRole(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	role := mustRole(t, s, "admin")
	user, err := s.CreateUser(ctx, model.User{Name: "Ada", Email: "ada@example.com", Password: "x", RoleID: &role.ID})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "roles", role.ID))

	got, err := s.GetUser(ctx, user.ID)
	require.NoError(t, err, "user must survive role deletion")
	assert.Nil(t, got.RoleID)
}

func TestDeletePermission_RemovesOnlyItsGrants(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	admin := mustRole(t, s, "admin")
	editor := mustRole(t, s, "editor")
	edit := mustPermission(t, s, "edit_survey")
	view := mustPermission(t, s, "view_survey")

	require.NoError(t, s.Grant(ctx, admin.ID, edit.ID))
	require.NoError(t, s.Grant(ctx, admin.ID, view.ID))
	require.NoError(t, s.Grant(ctx, editor.ID, edit.ID))

	require.NoError(t, s.Delete(ctx, "permissions", edit.ID))

	assert.Equal(t, 0, count(t, s, "permission_role", map[string]any{"permission_id": edit.ID}))
	assert.Equal(t, 1, count(t, s, "permission_role", map[string]any{"permission_id": view.ID}))

	perms, err := s.RolePermissions(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, "view_survey", perms[0].Name)

	_, err = s.GetRole(ctx, admin.ID)
	assert.NoError(t, err, "role must survive permission deletion")
}

func TestDeleteRole_RemovesOnlyItsGrants(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	admin := mustRole(t, s, "admin")
	editor := mustRole(t, s, "editor")
	edit := mustPermission(t, s, "edit_survey")

	require.NoError(t, s.Grant(ctx, admin.ID, edit.ID))
	require.NoError(t, s.Grant(ctx, editor.ID, edit.ID))

	require.NoError(t, s.Delete(ctx, "roles", admin.ID))

	assert.Equal(t, 1, count(t, s, "permission_role", nil))
	assert.Equal(t, 1, count(t, s, "permission_role", map[string]any{"role_id": editor.ID}))
	assert.Equal(t, 1, count(t, s, "permissions", nil))
}

func TestDeleteSurvey_RemovesQuestionsResponsesAnswers(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	author := mustUser(t, s, "author@example.com")
	survey := mustSurvey(t, s, author.ID)
	other := mustSurvey(t, s, author.ID)

	q, err := s.AddQuestion(ctx, model.Question{SurveyID: survey.ID, Text: "How was it?", Type: model.QuestionRating})
	require.NoError(t, err)
	otherQ, err := s.AddQuestion(ctx, model.Question{SurveyID: other.ID, Text: "Anything else?"})
	require.NoError(t, err)

	resp, err := s.StartResponse(ctx, model.Response{SurveyID: survey.ID, UserID: &author.ID})
	require.NoError(t, err)
	otherResp, err := s.StartResponse(ctx, model.Response{SurveyID: other.ID, IsAnonymous: true})
	require.NoError(t, err)

	_, err = s.RecordAnswer(ctx, model.AnswerDetail{ResponseID: resp.ID, QuestionID: q.ID, Value: model.Ptr("5")})
	require.NoError(t, err)
	_, err = s.RecordAnswer(ctx, model.AnswerDetail{ResponseID: otherResp.ID, QuestionID: otherQ.ID, Value: model.Ptr("no")})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "surveys", survey.ID))

	assert.Equal(t, 0, count(t, s, "questions", map[string]any{"survey_id": survey.ID}))
	assert.Equal(t, 0, count(t, s, "responses", map[string]any{"survey_id": survey.ID}))
	assert.Equal(t, 0, count(t, s, "answer_details", map[string]any{"response_id": resp.ID}))

	// The other survey is untouched.
	assert.Equal(t, 1, count(t, s, "questions", nil))
	assert.Equal(t, 1, count(t, s, "responses", nil))
	assert.Equal(t, 1, count(t, s, "answer_details", nil))
}

func TestDeleteVacancy_RemovesApplications(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	author := mustUser(t, s, "hr@example.com")
	vacancy := mustVacancy(t, s, author.ID)
	kept := mustVacancy(t, s, author.ID)

	for _, v := range []int64{vacancy.ID, vacancy.ID, kept.ID} {
		_, err := s.Apply(ctx, model.Application{VacancyID: v, Name: "Cand", Email: "c@example.com", ResumePath: "cv.pdf"})
		require.NoError(t, err)
	}

	require.NoError(t, s.Delete(ctx, "vacancies", vacancy.ID))

	assert.Equal(t, 0, count(t, s, "applications", map[string]any{"vacancy_id": vacancy.ID}))
	assert.Equal(t, 1, count(t, s, "applications", map[string]any{"vacancy_id": kept.ID}))
}

func TestDeleteUser_CascadesAuthoredAndNullsReferences(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	author := mustUser(t, s, "author@example.com")
	respondent := mustUser(t, s, "resp@example.com")
	survey := mustSurvey(t, s, author.ID)
	vacancy := mustVacancy(t, s, author.ID)

	resp, err := s.StartResponse(ctx, model.Response{SurveyID: survey.ID, UserID: &respondent.ID})
	require.NoError(t, err)
	app, err := s.Apply(ctx, model.Application{VacancyID: vacancy.ID, Name: "A", Email: "a@example.com", ResumePath: "a.pdf"})
	require.NoError(t, err)

	// Deleting the respondent keeps the response anonymously.
	require.NoError(t, s.Delete(ctx, "users", respondent.ID))
	userID, err := s.Lookup(ctx, "responses", resp.ID, "user_id")
	require.NoError(t, err)
	assert.Nil(t, userID)

	// Deleting the author removes what they created.
	require.NoError(t, s.Delete(ctx, "users", author.ID))
	assert.Equal(t, 0, count(t, s, "surveys", nil))
	assert.Equal(t, 0, count(t, s, "vacancies", nil))

	_, err = s.GetApplication(ctx, app.ID)
	assert.True(t, IsNotFound(err))
}

func TestDeleteModule_NullsSurveyModule(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	author := mustUser(t, s, "author@example.com")
	mod, err := s.CreateModule(ctx, model.Module{Name: "HR", Active: true})
	require.NoError(t, err)
	survey, err := s.CreateSurvey(ctx, model.Survey{Title: "Exit interview", CreatedBy: author.ID, ModuleID: &mod.ID})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "modules", mod.ID))

	got, err := s.GetSurvey(ctx, survey.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ModuleID)
}

func TestDeleteQuestion_RemovesItsAnswers(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	author := mustUser(t, s, "author@example.com")
	survey := mustSurvey(t, s, author.ID)
	q1, err := s.AddQuestion(ctx, model.Question{SurveyID: survey.ID, Text: "One"})
	require.NoError(t, err)
	q2, err := s.AddQuestion(ctx, model.Question{SurveyID: survey.ID, Text: "Two", Order: 1})
	require.NoError(t, err)
	resp, err := s.StartResponse(ctx, model.Response{SurveyID: survey.ID})
	require.NoError(t, err)
	for _, q := range []int64{q1.ID, q2.ID} {
		_, err := s.RecordAnswer(ctx, model.AnswerDetail{ResponseID: resp.ID, QuestionID: q})
		require.NoError(t, err)
	}

	require.NoError(t, s.Delete(ctx, "questions", q1.ID))

	assert.Equal(t, 1, count(t, s, "answer_details", map[string]any{"response_id": resp.ID}))
	ok, err := s.Exists(ctx, "responses", resp.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
