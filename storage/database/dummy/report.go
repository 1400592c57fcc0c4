package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/eduquest/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db}
}

func breakdown(totals map[string]int) []report.Count {
	counts := make([]report.Count, 0, len(totals))
	for label, total := range totals {
		counts = append(counts, report.Count{Label: label, Total: total})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Label < counts[j].Label })
	return counts
}

func (repo *reportRepository) CollectStats(_ context.Context) (report.Stats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var st report.Stats
	regions, levels, statuses := make(map[string]int), make(map[string]int), make(map[string]int)

	st.Schools = len(repo.db.schools)
	for _, s := range repo.db.schools {
		regions[s.Region]++
		levels[s.Level]++
	}
	st.SchoolsByRegion = breakdown(regions)
	st.SchoolsByLevel = breakdown(levels)

	st.Principals = len(repo.db.principals)
	for _, p := range repo.db.principals {
		if p.IsActive {
			st.ActivePrincipals++
		}
	}

	st.Feedback = len(repo.db.feedback)
	for _, f := range repo.db.feedback {
		if f.AdminReply.Valid {
			st.FeedbackAdminReplied++
		}
		if f.PrincipalReply.Valid {
			st.FeedbackPrincipalReplied++
		}
	}

	st.Meetings = len(repo.db.meetings)
	for _, m := range repo.db.meetings {
		statuses[string(m.Status)]++
	}
	st.MeetingsByStatus = breakdown(statuses)

	st.Users = len(repo.db.users)
	return st, nil
}
