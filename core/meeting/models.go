package meeting

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/eduquest/core"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var (
	Statuses = []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}

	// transitions lists the statuses each status may move to.
	// No workflow is enforced yet: any status may move to any other.
	transitions = map[Status][]Status{
		StatusPending:   Statuses,
		StatusConfirmed: Statuses,
		StatusCompleted: Statuses,
		StatusCancelled: Statuses,
	}

	errInvalidStatus = errors.New("status must be one of: pending, confirmed, completed, cancelled")

	// accepted preferred_date layouts
	dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}
)

func ParseStatus(s string) (Status, error) {
	st := Status(core.CleanString(s, true /* lower */))
	if _, ok := transitions[st]; !ok {
		return "", errInvalidStatus
	}
	return st, nil
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, st := range transitions[from] {
		if st == to {
			return true
		}
	}
	return false
}

// Meeting is a visitor's request to meet the principal of a School.
type Meeting struct {
	ID                  int         `json:"id" db:"id"`
	SchoolID            int         `json:"school_id" db:"school_id"`
	PrincipalID         int         `json:"principal_id" db:"principal_id"`
	UserName            string      `json:"user_name" db:"user_name"`
	UserEmail           string      `json:"user_email" db:"user_email"`
	UserPhone           null.String `json:"user_phone" db:"user_phone"`
	Purpose             string      `json:"purpose" db:"purpose"`
	PreferredDate       time.Time   `json:"preferred_date" db:"preferred_date"`
	Status              Status      `json:"status" db:"status"`
	SpecialRequirements null.String `json:"special_requirements" db:"special_requirements"`
	CreatedAt           time.Time   `json:"created_at" db:"created_at"` // UTC
}

// NewMeeting contains information needed to book a Meeting.
type NewMeeting struct {
	SchoolID            int    `json:"school_id" validate:"required,gt=0"`
	PrincipalID         int    `json:"principal_id" validate:"required,gt=0"`
	UserName            string `json:"user_name" validate:"required,notblank,max=200"`
	UserEmail           string `json:"user_email" validate:"required,email,max=120"`
	UserPhone           string `json:"user_phone" validate:"max=20"`
	Purpose             string `json:"purpose" validate:"required,notblank"`
	PreferredDate       string `json:"preferred_date" validate:"required"`
	SpecialRequirements string `json:"special_requirements"`

	preferredDate time.Time
}

func (nm *NewMeeting) Validate(validate *validator.Validate) error {
	nm.UserName = core.CleanString(nm.UserName)
	nm.UserEmail = core.CleanString(nm.UserEmail, true /* lower */)
	nm.UserPhone = core.CleanString(nm.UserPhone)
	nm.PreferredDate = core.CleanString(nm.PreferredDate)

	if err := validate.Struct(nm); err != nil {
		return err
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, nm.PreferredDate); err == nil {
			nm.preferredDate = t.UTC()
			return nil
		}
	}
	return core.NewValidationError(nil, core.FieldError{Field: "preferred_date", Error: "invalid date"})
}

type StatusUpdate struct {
	Status string `json:"status"`
}

// QueryFilter applies AND operation on the non-zero fields.
type QueryFilter struct {
	SchoolID    int
	PrincipalID int
}
