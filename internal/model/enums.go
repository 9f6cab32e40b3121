package model

import (
	"fmt"
	"strings"
)

// Status is the publication lifecycle shared by surveys and vacancies.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusClosed    Status = "closed"
)

// StatusValues lists every valid Status in declaration order.
var StatusValues = []Status{StatusDraft, StatusPublished, StatusClosed}

// Valid reports whether s is one of StatusValues.
func (s Status) Valid() bool {
	return contains(StatusValues, s)
}

// CanTransition reports whether a record in status s may move to next.
//
// Allowed: draft → published, draft → closed, published → closed.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDraft:
		return next == StatusPublished || next == StatusClosed
	case StatusPublished:
		return next == StatusClosed
	default:
		return false
	}
}

// QuestionType is the input kind of a survey question.
type QuestionType string

const (
	QuestionText        QuestionType = "text"
	QuestionTextarea    QuestionType = "textarea"
	QuestionSelect      QuestionType = "select"
	QuestionMultiselect QuestionType = "multiselect"
	QuestionRadio       QuestionType = "radio"
	QuestionCheckbox    QuestionType = "checkbox"
	QuestionDate        QuestionType = "date"
	QuestionTime        QuestionType = "time"
	QuestionFile        QuestionType = "file"
	QuestionRating      QuestionType = "rating"
)

// QuestionTypeValues lists every valid QuestionType in declaration order.
var QuestionTypeValues = []QuestionType{
	QuestionText,
	QuestionTextarea,
	QuestionSelect,
	QuestionMultiselect,
	QuestionRadio,
	QuestionCheckbox,
	QuestionDate,
	QuestionTime,
	QuestionFile,
	QuestionRating,
}

// Valid reports whether t is one of QuestionTypeValues.
func (t QuestionType) Valid() bool {
	return contains(QuestionTypeValues, t)
}

// HasChoices reports whether questions of this type carry an options payload.
func (t QuestionType) HasChoices() bool {
	switch t {
	case QuestionSelect, QuestionMultiselect, QuestionRadio, QuestionCheckbox:
		return true
	}
	return false
}

// EmploymentType is the contract kind of a vacancy.
type EmploymentType string

const (
	EmploymentFullTime   EmploymentType = "full-time"
	EmploymentPartTime   EmploymentType = "part-time"
	EmploymentContract   EmploymentType = "contract"
	EmploymentInternship EmploymentType = "internship"
)

// EmploymentTypeValues lists every valid EmploymentType in declaration order.
var EmploymentTypeValues = []EmploymentType{
	EmploymentFullTime,
	EmploymentPartTime,
	EmploymentContract,
	EmploymentInternship,
}

// Valid reports whether t is one of EmploymentTypeValues.
func (t EmploymentType) Valid() bool {
	return contains(EmploymentTypeValues, t)
}

// ReviewStatus is the review state of a job application.
type ReviewStatus string

const (
	ReviewNew       ReviewStatus = "new"
	ReviewInReview  ReviewStatus = "in-review"
	ReviewInterview ReviewStatus = "interview"
	ReviewRejected  ReviewStatus = "rejected"
	ReviewHired     ReviewStatus = "hired"
)

// ReviewStatusValues lists every valid ReviewStatus in declaration order.
var ReviewStatusValues = []ReviewStatus{
	ReviewNew,
	ReviewInReview,
	ReviewInterview,
	ReviewRejected,
	ReviewHired,
}

// Valid reports whether s is one of ReviewStatusValues.
func (s ReviewStatus) Valid() bool {
	return contains(ReviewStatusValues, s)
}

// EnumError reports a value outside a closed enumeration.
type EnumError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("invalid %s %q: must be one of %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

// ParseStatus converts s to a Status, rejecting unknown values.
func ParseStatus(s string) (Status, error) {
	return parseEnum("status", s, StatusValues)
}

// ParseQuestionType converts s to a QuestionType, rejecting unknown values.
func ParseQuestionType(s string) (QuestionType, error) {
	return parseEnum("question type", s, QuestionTypeValues)
}

// ParseEmploymentType converts s to an EmploymentType, rejecting unknown values.
func ParseEmploymentType(s string) (EmploymentType, error) {
	return parseEnum("employment type", s, EmploymentTypeValues)
}

// ParseReviewStatus converts s to a ReviewStatus, rejecting unknown values.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	return parseEnum("review status", s, ReviewStatusValues)
}

// Strings returns the string form of a list of enum values.
func Strings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func parseEnum[T ~string](field, s string, values []T) (T, error) {
	v := T(s)
	if !contains(values, v) {
		return "", &EnumError{Field: field, Value: s, Allowed: Strings(values)}
	}
	return v, nil
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
