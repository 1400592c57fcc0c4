// Package report aggregates platform statistics and renders them as a PDF.
package report

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
)

type Range string

const (
	RangeAll     Range = "all"
	RangeWeek    Range = "week"
	RangeMonth   Range = "month"
	RangeQuarter Range = "quarter"
)

var (
	errInvalidRange = errors.New("range must be one of: all, week, month, quarter")

	rangeLabels = map[Range]string{
		RangeAll:     "All time",
		RangeWeek:    "Last 7 days",
		RangeMonth:   "Last 30 days",
		RangeQuarter: "Last 90 days",
	}
)

// ParseRange defaults to RangeAll when s is empty.
func ParseRange(s string) (Range, error) {
	r := Range(core.CleanString(s, true /* lower */))
	if r == "" {
		return RangeAll, nil
	}
	if _, ok := rangeLabels[r]; !ok {
		return "", core.NewValidationError(errInvalidRange, core.FieldError{Field: "range", Error: errInvalidRange.Error()})
	}
	return r, nil
}

func (r Range) Label() string { return rangeLabels[r] }

type Count struct {
	Label string `json:"label" db:"label"`
	Total int    `json:"total" db:"total"`
}

type Stats struct {
	Schools                  int     `json:"schools"`
	SchoolsByRegion          []Count `json:"schools_by_region"`
	SchoolsByLevel           []Count `json:"schools_by_level"`
	Principals               int     `json:"principals"`
	ActivePrincipals         int     `json:"active_principals"`
	Feedback                 int     `json:"feedback"`
	FeedbackAdminReplied     int     `json:"feedback_admin_replied"`
	FeedbackPrincipalReplied int     `json:"feedback_principal_replied"`
	Meetings                 int     `json:"meetings"`
	MeetingsByStatus         []Count `json:"meetings_by_status"`
	Users                    int     `json:"users"`
}

type Report struct {
	Range       Range     `json:"range"`
	GeneratedAt time.Time `json:"generated_at"`
	Stats       Stats     `json:"stats"`
}

type (
	Repository interface {
		// CollectStats counts the rows of every table. Breakdowns are ordered by label.
		CollectStats(ctx context.Context) (Stats, error)
	}

	Service struct {
		repo    Repository
		appName string
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{repo: repo, appName: conf.AppName}
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	return svc.repo.CollectStats(ctx)
}

// Generate collects the report for rng.
// TODO: restrict the counts to rng once product confirms the expected semantics;
// it is only printed in the header for now.
func (svc *Service) Generate(ctx context.Context, rng Range) (Report, error) {
	stats, err := svc.repo.CollectStats(ctx)
	if err != nil {
		return Report{}, errors.Wrap(err, "collecting stats")
	}
	return Report{Range: rng, GeneratedAt: time.Now().UTC(), Stats: stats}, nil
}
