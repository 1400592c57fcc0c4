package school

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
)

var ErrNotFound = core.NewNotFoundError("school")

type (
	Repository interface {
		CreateSchool(ctx context.Context, s School) (School, error)
		GetSchool(ctx context.Context, id int) (School, error)
		// FilterSchools applies AND operation on available QueryFilter fields, ordered by name by default.
		FilterSchools(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]School, error)
		UpdateSchool(ctx context.Context, s School) (School, error)
		// DeleteSchool deletes the school and every Principal, Feedback & MeetingBooking row referencing it,
		// in a single transaction. Nothing is deleted if any step fails.
		DeleteSchool(ctx context.Context, id int) (Deletion, error)
	}

	Service struct {
		repo   Repository
		files  core.FileStore
		logger core.Logger
	}
)

func NewService(repo Repository, files core.FileStore, logger core.Logger) *Service {
	return &Service{repo: repo, files: files, logger: logger}
}

func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	s := School{
		Name:          ns.Name,
		Region:        ns.Region,
		Level:         ns.Level,
		Contact:       ns.Contact,
		Description:   ns.Description,
		Accessibility: ns.Accessibility,
		FeeStructure:  ns.FeeStructure,
		ImageURL:      ns.ImageURL,
	}
	return svc.repo.CreateSchool(ctx, s)
}

func (svc *Service) GetByID(ctx context.Context, id int) (School, error) {
	return svc.repo.GetSchool(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, orderings ...core.DBOrdering) ([]School, error) {
	orderings = core.CleanOrderings(orderings, OrderingFields...)
	if len(orderings) == 0 {
		orderings = []core.DBOrdering{{Field: "name", Ascending: true}}
	}
	return svc.repo.FilterSchools(ctx, filter, orderings...)
}

func (svc *Service) Update(ctx context.Context, id int, us UpdateSchool) (School, error) {
	s, err := svc.repo.GetSchool(ctx, id)
	if err != nil {
		return School{}, err
	}
	oldImage := s.ImageURL

	s, err = svc.repo.UpdateSchool(ctx, us.Apply(s))
	if err != nil {
		return School{}, err
	}
	if s.ImageURL != oldImage {
		svc.deleteFiles(oldImage)
	}
	return s, nil
}

// SetImage points the school to a newly uploaded image and removes the previous one.
func (svc *Service) SetImage(ctx context.Context, id int, url string) (School, error) {
	return svc.Update(ctx, id, UpdateSchool{ImageURL: &url})
}

// Delete removes the school along with its dependents.
// Uploaded files are only removed once the deletion has been committed.
func (svc *Service) Delete(ctx context.Context, id int) (Deletion, error) {
	del, err := svc.repo.DeleteSchool(ctx, id)
	if err != nil {
		return Deletion{}, err
	}
	svc.deleteFiles(del.FileURLs...)
	return del, nil
}

func (svc *Service) deleteFiles(urls ...string) {
	for _, url := range urls {
		if url == "" {
			continue
		}
		if err := svc.files.Delete(url); err != nil {
			svc.logger.Error(fmt.Sprintf("deleting file %q: %v", url, err), errors.Wrap(err, "deleting file"))
		}
	}
}
