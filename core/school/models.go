package school

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/eduquest/core"
)

// OrderingFields are the fields schools may be ordered by.
var OrderingFields = []string{"name", "region", "level"}

type School struct {
	ID            int    `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	Region        string `json:"region" db:"region"`
	Level         string `json:"level" db:"level"`
	Contact       string `json:"contact" db:"contact"`
	Description   string `json:"description" db:"description"`
	Accessibility string `json:"accessibility" db:"accessibility"`
	FeeStructure  string `json:"fee_structure" db:"fee_structure"`
	ImageURL      string `json:"image_url" db:"image_url"`
}

// NewSchool contains information needed to create a new School.
type NewSchool struct {
	Name          string `json:"name" validate:"required,notblank,max=200"`
	Region        string `json:"region" validate:"required,notblank,max=100"`
	Level         string `json:"level" validate:"max=80"`
	Contact       string `json:"contact" validate:"max=200"`
	Description   string `json:"description"`
	Accessibility string `json:"accessibility"`
	FeeStructure  string `json:"fee_structure" validate:"max=200"`
	ImageURL      string `json:"image_url" validate:"max=500"`
}

// Validate checks ns without altering it: values are stored as submitted.
func (ns *NewSchool) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

// UpdateSchool defines what information may be provided to modify an existing School.
// Absent (nil) fields keep their current value.
type UpdateSchool struct {
	Name          *string `json:"name" validate:"omitempty,notblank,max=200"`
	Region        *string `json:"region" validate:"omitempty,notblank,max=100"`
	Level         *string `json:"level" validate:"omitempty,max=80"`
	Contact       *string `json:"contact" validate:"omitempty,max=200"`
	Description   *string `json:"description"`
	Accessibility *string `json:"accessibility"`
	FeeStructure  *string `json:"fee_structure" validate:"omitempty,max=200"`
	ImageURL      *string `json:"image_url" validate:"omitempty,max=500"`
}

func (us *UpdateSchool) Validate(validate *validator.Validate) error {
	if isBlank(us.Name) {
		return core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field cannot be blank"})
	}
	if isBlank(us.Region) {
		return core.NewValidationError(nil, core.FieldError{Field: "region", Error: "this field cannot be blank"})
	}
	return validate.Struct(us)
}

func isBlank(s *string) bool {
	return s != nil && strings.TrimSpace(*s) == ""
}

// Apply returns a copy of s with the provided fields overwritten.
func (us UpdateSchool) Apply(s School) School {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Name, us.Name)
	set(&s.Region, us.Region)
	set(&s.Level, us.Level)
	set(&s.Contact, us.Contact)
	set(&s.Description, us.Description)
	set(&s.Accessibility, us.Accessibility)
	set(&s.FeeStructure, us.FeeStructure)
	set(&s.ImageURL, us.ImageURL)
	return s
}

// QueryFilter does case-insensitive substring matches; empty fields are ignored.
type QueryFilter struct {
	Query      string `query:"q"`
	Region     string `query:"region"`
	Disability string `query:"disability"`
}

func (qf *QueryFilter) Clean() {
	qf.Query = core.CleanString(qf.Query, true /* lower */)
	qf.Region = core.CleanString(qf.Region, true /* lower */)
	qf.Disability = core.CleanString(qf.Disability, true /* lower */)
}

// Deletion summarizes a cascading School deletion.
type Deletion struct {
	School     School   `json:"-"`
	Principals int64    `json:"principals"`
	Feedback   int64    `json:"feedback"`
	Meetings   int64    `json:"meetings"`
	FileURLs   []string `json:"-"` // uploaded files referenced by the deleted rows
}
