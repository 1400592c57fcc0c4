package feedback

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/eduquest/core"
)

// Feedback left by a visitor about a School.
// The admin & principal reply channels are independent; a new reply overwrites the previous one.
type Feedback struct {
	ID                 int         `json:"id" db:"id"`
	SchoolID           int         `json:"school_id" db:"school_id"`
	Name               string      `json:"name" db:"name"`
	Email              null.String `json:"email" db:"email"`
	Message            string      `json:"message" db:"message"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"` // UTC
	AdminReply         null.String `json:"admin_reply" db:"admin_reply"`
	ReplyDate          null.Time   `json:"reply_date" db:"reply_date"`
	PrincipalReply     null.String `json:"principal_reply" db:"principal_reply"`
	PrincipalReplyDate null.Time   `json:"principal_reply_date" db:"principal_reply_date"`
}

// NewFeedback contains information needed to create a new Feedback.
type NewFeedback struct {
	SchoolID int    `json:"school_id" validate:"required,gt=0"`
	Name     string `json:"name" validate:"required,notblank,max=120"`
	Email    string `json:"email" validate:"omitempty,email,max=120"`
	Message  string `json:"message" validate:"required,notblank"`
}

func (nf *NewFeedback) Validate(validate *validator.Validate) error {
	nf.Name = core.CleanString(nf.Name)
	nf.Email = core.CleanString(nf.Email, true /* lower */)
	return validate.Struct(nf)
}

type Reply struct {
	Reply string `json:"reply" validate:"required,notblank"`
}

func (r *Reply) Validate(validate *validator.Validate) error {
	r.Reply = core.CleanString(r.Reply)
	return validate.Struct(r)
}

// QueryFilter restricts listings to one school when SchoolID is set.
type QueryFilter struct {
	SchoolID int
}
