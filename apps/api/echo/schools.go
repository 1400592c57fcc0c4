package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/school"
)

func (s *Server) registerSchoolAPI(g *echo.Group) {
	sg := g.Group("/schools")
	sg.GET("", s.querySchools)
	sg.POST("", s.createSchool, adminMiddleware)

	dg := sg.Group("/:id")
	dg.GET("", s.retrieveSchool)
	dg.PUT("", s.updateSchool, adminMiddleware)
	dg.DELETE("", s.destroySchool, adminMiddleware)
	dg.POST("/image", s.uploadSchoolImage, adminMiddleware)
	dg.GET("/feedback", s.querySchoolFeedback)
	dg.GET("/principal", s.retrieveSchoolPrincipal)
}

func schoolID(ctx echo.Context) (int, error) {
	return pathID(ctx, "id", school.ErrNotFound)
}

func (s *Server) querySchools(ctx echo.Context) error {
	var filter school.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	var ord Ordering
	ord.Bind(ctx)

	schools, err := s.schools.Filter(ctx.Request().Context(), filter, ord.Orderings...)
	if err != nil {
		return errors.Wrap(err, "filtering schools")
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (s *Server) createSchool(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(s.validate); err != nil {
		return err
	}

	sch, err := s.schools.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating school")
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (s *Server) retrieveSchool(ctx echo.Context) error {
	id, err := schoolID(ctx)
	if err != nil {
		return err
	}
	sch, err := s.schools.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (s *Server) updateSchool(ctx echo.Context) error {
	id, err := schoolID(ctx)
	if err != nil {
		return err
	}
	var data school.UpdateSchool
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err = data.Validate(s.validate); err != nil {
		return err
	}

	sch, err := s.schools.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (s *Server) destroySchool(ctx echo.Context) error {
	id, err := schoolID(ctx)
	if err != nil {
		return err
	}
	del, err := s.schools.Delete(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "deleting school")
	}
	return ctx.JSON(http.StatusOK, DeletionResponse{Message: "Deleted", Deleted: del})
}

func (s *Server) uploadSchoolImage(ctx echo.Context) error {
	id, err := schoolID(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()
	if _, err = s.schools.GetByID(reqCtx, id); err != nil {
		return err
	}

	fh, err := ctx.FormFile("image")
	if err != nil && err != http.ErrMissingFile {
		return errors.Wrap(err, "reading upload")
	}
	url, err := s.files.SaveImage("image", fh, core.SchoolImagesDir)
	if err != nil {
		return err
	}

	sch, err := s.schools.SetImage(reqCtx, id, url)
	if err != nil {
		_ = s.files.Delete(url)
		return errors.Wrap(err, "setting school image")
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (s *Server) querySchoolFeedback(ctx echo.Context) error {
	id, err := schoolID(ctx)
	if err != nil {
		return err
	}
	fbs, err := s.feedback.QueryBySchool(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying school feedback")
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (s *Server) retrieveSchoolPrincipal(ctx echo.Context) error {
	id, err := schoolID(ctx)
	if err != nil {
		return err
	}
	p, err := s.principals.GetBySchool(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting school principal")
	}
	return ctx.JSON(http.StatusOK, p)
}
