package harness

import (
	"context"
	"fmt"

	"github.com/roach88/hrportal/internal/model"
	"github.com/roach88/hrportal/internal/store"
)

// stepHandler performs one step and returns the id of the row it created,
// or 0 when it creates none.
type stepHandler func(ctx context.Context, s *store.Store, a *args) (int64, error)

var stepHandlers = map[string]stepHandler{
	"create_role":        createRole,
	"create_permission":  createPermission,
	"grant":              grant,
	"revoke":             revoke,
	"create_user":        createUser,
	"assign_role":        assignRole,
	"create_module":      createModule,
	"create_survey":      createSurvey,
	"publish_survey":     publishSurvey,
	"close_survey":       closeSurvey,
	"add_question":       addQuestion,
	"start_response":     startResponse,
	"complete_response":  completeResponse,
	"record_answer":      recordAnswer,
	"create_vacancy":     createVacancy,
	"publish_vacancy":    publishVacancy,
	"close_vacancy":      closeVacancy,
	"apply":              apply,
	"review_application": reviewApplication,
	"delete":             deleteRow,
}

type runner struct {
	store    *store.Store
	bindings map[string]int64
}

func (r *runner) execute(ctx context.Context, step Step) (int64, error) {
	handler, ok := stepHandlers[step.Do]
	if !ok {
		return 0, fmt.Errorf("unknown step type %q", step.Do)
	}
	return handler(ctx, r.store, &args{values: step.Args, bindings: r.bindings})
}

// created adapts the (entity, error) returns of the store to a step result.
func created(id int64, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return id, nil
}

func createRole(ctx context.Context, s *store.Store, a *args) (int64, error) {
	role := model.Role{Name: a.str("name"), Description: a.optStr("description")}
	if a.err != nil {
		return 0, a.err
	}
	r, err := s.CreateRole(ctx, role)
	return created(r.ID, err)
}

func createPermission(ctx context.Context, s *store.Store, a *args) (int64, error) {
	perm := model.Permission{Name: a.str("name"), Description: a.optStr("description")}
	if a.err != nil {
		return 0, a.err
	}
	p, err := s.CreatePermission(ctx, perm)
	return created(p.ID, err)
}

func grant(ctx context.Context, s *store.Store, a *args) (int64, error) {
	roleID, permID := a.id("role"), a.id("permission")
	if a.err != nil {
		return 0, a.err
	}
	return 0, s.Grant(ctx, roleID, permID)
}

func revoke(ctx context.Context, s *store.Store, a *args) (int64, error) {
	roleID, permID := a.id("role"), a.id("permission")
	if a.err != nil {
		return 0, a.err
	}
	return 0, s.Revoke(ctx, roleID, permID)
}

func createUser(ctx context.Context, s *store.Store, a *args) (int64, error) {
	email := a.str("email")
	user := model.User{
		Name:     a.strOr("name", email),
		Email:    email,
		Password: a.strOr("password", "secret"),
		RoleID:   a.optID("role"),
	}
	if a.err != nil {
		return 0, a.err
	}
	u, err := s.CreateUser(ctx, user)
	return created(u.ID, err)
}

func assignRole(ctx context.Context, s *store.Store, a *args) (int64, error) {
	userID, roleID := a.id("user"), a.optID("role")
	if a.err != nil {
		return 0, a.err
	}
	return 0, s.AssignRole(ctx, userID, roleID)
}

func createModule(ctx context.Context, s *store.Store, a *args) (int64, error) {
	mod := model.Module{Name: a.str("name"), Description: a.optStr("description"), Active: true}
	if _, ok := a.raw("active"); ok {
		mod.Active = a.boolean("active")
	}
	if a.err != nil {
		return 0, a.err
	}
	m, err := s.CreateModule(ctx, mod)
	return created(m.ID, err)
}

func createSurvey(ctx context.Context, s *store.Store, a *args) (int64, error) {
	survey := model.Survey{
		Title:            a.strOr("title", "Survey"),
		Description:      a.optStr("description"),
		ModuleID:         a.optID("module"),
		CreatedBy:        a.id("author"),
		Status:           model.Status(a.strOr("status", "")),
		AnonymousAllowed: a.boolean("anonymous_allowed"),
	}
	if a.err != nil {
		return 0, a.err
	}
	sv, err := s.CreateSurvey(ctx, survey)
	return created(sv.ID, err)
}

func publishSurvey(ctx context.Context, s *store.Store, a *args) (int64, error) {
	id := a.id("survey")
	if a.err != nil {
		return 0, a.err
	}
	return 0, s.PublishSurvey(ctx, id)
}

func closeSurvey(ctx context.Context, s *store.Store, a *args) (int64, error) {
	id := a.id("survey")
	if a.err != nil {
		return 0, a.err
	}
	return 0, s.CloseSurvey(ctx, id)
}

func addQuestion(ctx context.Context, s *store.Store, a *args) (int64, error) {
	question := model.Question{
		SurveyID: a.id("survey"),
		Text:     a.strOr("text", "Question"),
		Type:     model.QuestionType(a.strOr("type", "")),
		Options:  a.payload("options"),
		Required: a.boolean("required"),
		Order:    a.integer("order"),
	}
	if a.err != nil {
		return 0, a.err
	}
	q, err := s.AddQuestion(ctx, question)
	return created(q.ID, err)
}

func startResponse(ctx context.Context, s *store.Store, a *args) (int64, error) {
	response := model.Response{
		SurveyID:    a.id("survey"),
		UserID:      a.optID("user"),
		IsAnonymous: a.boolean("anonymous"),
	}
	if a.err != nil {
		return 0, a.err
	}
	r, err := s.StartResponse(ctx, response)
	return created(r.ID, err)
}

func completeResponse(ctx context.Context, s *store.Store, a *args) (int64, error) {
	id := a.id("response")
	if a.err != nil {
		return 0, a.err
	}
	return 0, s.CompleteResponse(ctx, id)
}

func recordAnswer(ctx context.Context, s *store.Store, a *args) (int64, error) {
	answer := model.AnswerDetail{
		ResponseID:     a.id("response"),
		QuestionID:     a.id("question"),
		Value:          a.optStr("value"),
		AdditionalData: a.payload("additional_data"),
	}
	if a.err != nil {
		return 0, a.err
	}
	ad, err := s.RecordAnswer(ctx, answer)
	return created(ad.ID, err)
}

func createVacancy(ctx context.Context, s *store.Store, a *args) (int64, error) {
	vacancy := model.Vacancy{
		Title:       a.strOr("title", "Vacancy"),
		Description: a.strOr("description", "Vacancy description"),
		Location:    a.optStr("location"),
		Department:  a.optStr("department"),
		Type:        model.EmploymentType(a.strOr("type", "")),
		SalaryMin:   a.salary("salary_min"),
		SalaryMax:   a.salary("salary_max"),
		Status:      model.Status(a.strOr("status", "")),
		CreatedBy:   a.id("author"),
	}
	if a.err != nil {
		return 0, a.err
	}
	v, err := s.CreateVacancy(ctx, vacancy)
	return created(v.ID, err)
}

func publishVacancy(ctx context.Context, s *store.Store, a *args) (int64, error) {
	id := a.id("vacancy")
	if a.err != nil {
		return 0, a.err
	}
	return 0, s.PublishVacancy(ctx, id)
}

func closeVacancy(ctx context.Context, s *store.Store, a *args) (int64, error) {
	id := a.id("vacancy")
	if a.err != nil {
		return 0, a.err
	}
	return 0, s.CloseVacancy(ctx, id)
}

func apply(ctx context.Context, s *store.Store, a *args) (int64, error) {
	application := model.Application{
		VacancyID:   a.id("vacancy"),
		Name:        a.strOr("name", "Applicant"),
		Email:       a.str("email"),
		Phone:       a.optStr("phone"),
		CoverLetter: a.optStr("cover_letter"),
		ResumePath:  a.strOr("resume_path", "resumes/applicant.pdf"),
		Status:      model.ReviewStatus(a.strOr("status", "")),
	}
	if a.err != nil {
		return 0, a.err
	}
	app, err := s.Apply(ctx, application)
	return created(app.ID, err)
}

func reviewApplication(ctx context.Context, s *store.Store, a *args) (int64, error) {
	id := a.id("application")
	status := model.ReviewStatus(a.str("status"))
	reviewer := a.id("reviewer")
	notes := a.optStr("notes")
	if a.err != nil {
		return 0, a.err
	}
	return 0, s.ReviewApplication(ctx, id, status, reviewer, notes)
}

func deleteRow(ctx context.Context, s *store.Store, a *args) (int64, error) {
	table, id := a.str("table"), a.id("id")
	if a.err != nil {
		return 0, a.err
	}
	return 0, s.Delete(ctx, table, id)
}
