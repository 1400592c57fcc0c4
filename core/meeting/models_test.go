package meeting

import (
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduquest/core"
)

func newValidator() *validator.Validate {
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    Status
		wantErr bool
	}{
		{in: "pending", want: StatusPending},
		{in: " Confirmed ", want: StatusConfirmed},
		{in: "COMPLETED", want: StatusCompleted},
		{in: "cancelled", want: StatusCancelled},
		{in: "canceled", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStatus(tt.in)
			if tt.wantErr {
				assert.Equal(t, errInvalidStatus, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanTransition(t *testing.T) {
	for _, from := range Statuses {
		for _, to := range Statuses {
			assert.True(t, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.False(t, CanTransition("unknown", StatusPending))
}

func TestNewMeeting_Validate(t *testing.T) {
	validate := newValidator()
	base := NewMeeting{
		SchoolID:    1,
		PrincipalID: 2,
		UserName:    " Visitor ",
		UserEmail:   "Visitor@Test.cd",
		Purpose:     "Admission enquiry",
	}

	tests := []struct {
		date    string
		want    time.Time
		wantErr bool
	}{
		{date: "2030-01-15T10:30:00+01:00", want: time.Date(2030, 1, 15, 9, 30, 0, 0, time.UTC)},
		{date: "2030-01-15T10:30:00", want: time.Date(2030, 1, 15, 10, 30, 0, 0, time.UTC)},
		{date: "2030-01-15T10:30", want: time.Date(2030, 1, 15, 10, 30, 0, 0, time.UTC)},
		{date: "2030-01-15 10:30", want: time.Date(2030, 1, 15, 10, 30, 0, 0, time.UTC)},
		{date: " 2030-01-15 ", want: time.Date(2030, 1, 15, 0, 0, 0, 0, time.UTC)},
		{date: "15/01/2030", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			nm := base
			nm.PreferredDate = tt.date
			err := nm.Validate(validate)
			if tt.wantErr {
				verr, ok := err.(*core.ValidationError)
				require.True(t, ok, "err = %v", err)
				assert.Equal(t, []core.FieldError{{Field: "preferred_date", Error: "invalid date"}}, verr.Fields)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(nm.preferredDate), "got %v", nm.preferredDate)
			assert.Equal(t, "Visitor", nm.UserName)
			assert.Equal(t, "visitor@test.cd", nm.UserEmail)
		})
	}
}
