package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateSchool(_ context.Context, s school.School) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = repo.db.nextPK("school")
	repo.db.schools[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) GetSchool(_ context.Context, id int) (school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.schools[id]; ok {
		return *s, nil
	}
	return school.School{}, school.ErrNotFound
}

func containsFold(s, substr string) bool {
	return substr == "" || strings.Contains(strings.ToLower(s), substr)
}

func (repo *schoolRepository) FilterSchools(_ context.Context, filter school.QueryFilter, orderings ...core.DBOrdering) ([]school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	filter.Clean()
	schools := make([]school.School, 0)
	for _, s := range repo.db.schools {
		if containsFold(s.Name, filter.Query) &&
			containsFold(s.Region, filter.Region) &&
			containsFold(s.Accessibility, filter.Disability) {
			schools = append(schools, *s)
		}
	}

	field := func(s school.School, name string) string {
		switch name {
		case "region":
			return s.Region
		case "level":
			return s.Level
		default:
			return s.Name
		}
	}
	sort.SliceStable(schools, func(i, j int) bool {
		for _, ord := range orderings {
			fi, fj := field(schools[i], ord.Field), field(schools[j], ord.Field)
			if fi == fj {
				continue
			}
			if ord.Ascending {
				return fi < fj
			}
			return fi > fj
		}
		return schools[i].ID < schools[j].ID
	})
	return schools, nil
}

func (repo *schoolRepository) UpdateSchool(_ context.Context, s school.School) (school.School, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.schools[s.ID]; !ok {
		return school.School{}, school.ErrNotFound
	}
	repo.db.schools[s.ID] = &s
	return s, nil
}

func (repo *schoolRepository) DeleteSchool(_ context.Context, id int) (school.Deletion, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.schools[id]
	if !ok {
		return school.Deletion{}, school.ErrNotFound
	}

	// collect every dependent row before mutating anything
	var principalIDs, feedbackIDs, meetingIDs []int
	del := school.Deletion{School: *s, FileURLs: []string{s.ImageURL}}
	for _, p := range repo.db.principals {
		if p.SchoolID == id {
			principalIDs = append(principalIDs, p.ID)
			del.FileURLs = append(del.FileURLs, p.ImageURL)
		}
	}
	for _, f := range repo.db.feedback {
		if f.SchoolID == id {
			feedbackIDs = append(feedbackIDs, f.ID)
		}
	}
	for _, m := range repo.db.meetings {
		if m.SchoolID == id {
			meetingIDs = append(meetingIDs, m.ID)
		}
	}

	for _, mID := range meetingIDs {
		delete(repo.db.meetings, mID)
	}
	for _, fID := range feedbackIDs {
		delete(repo.db.feedback, fID)
	}
	for _, pID := range principalIDs {
		delete(repo.db.principals, pID)
	}
	delete(repo.db.schools, id)

	del.Principals = int64(len(principalIDs))
	del.Feedback = int64(len(feedbackIDs))
	del.Meetings = int64(len(meetingIDs))
	return del, nil
}
