package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core/feedback"
)

func (s *Server) registerFeedbackAPI(g *echo.Group) {
	fg := g.Group("/feedback")
	fg.POST("", s.createFeedback)
	fg.GET("", s.queryFeedback, adminMiddleware)
	fg.GET("/:id", s.retrieveFeedback)
	fg.DELETE("/:id", s.destroyFeedback, adminMiddleware)
	fg.POST("/:id/reply", s.adminReply, adminMiddleware)

	pg := g.Group("/principal/feedback", s.principalMiddleware)
	pg.GET("", s.queryPrincipalFeedback)
	pg.POST("/:id/reply", s.principalReply)
}

func feedbackID(ctx echo.Context) (int, error) {
	return pathID(ctx, "id", feedback.ErrNotFound)
}

func (s *Server) createFeedback(ctx echo.Context) error {
	var data feedback.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(s.validate); err != nil {
		return err
	}

	f, err := s.feedback.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating feedback")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (s *Server) queryFeedback(ctx echo.Context) error {
	fbs, err := s.feedback.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	return ctx.JSON(http.StatusOK, fbs)
}

func (s *Server) retrieveFeedback(ctx echo.Context) error {
	id, err := feedbackID(ctx)
	if err != nil {
		return err
	}
	f, err := s.feedback.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (s *Server) destroyFeedback(ctx echo.Context) error {
	id, err := feedbackID(ctx)
	if err != nil {
		return err
	}
	if err = s.feedback.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting feedback")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Deleted"})
}

func (s *Server) bindReply(ctx echo.Context) (int, feedback.Reply, error) {
	id, err := feedbackID(ctx)
	if err != nil {
		return 0, feedback.Reply{}, err
	}
	var data feedback.Reply
	if err = ctx.Bind(&data); err != nil {
		return 0, feedback.Reply{}, errors.Wrap(err, "binding to Reply")
	}
	if err = data.Validate(s.validate); err != nil {
		return 0, feedback.Reply{}, err
	}
	return id, data, nil
}

func (s *Server) adminReply(ctx echo.Context) error {
	id, data, err := s.bindReply(ctx)
	if err != nil {
		return err
	}
	f, err := s.feedback.ReplyAsAdmin(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "replying to feedback")
	}
	return ctx.JSON(http.StatusOK, ReplyResponse{Message: "Reply saved", Feedback: f})
}

func (s *Server) principalReply(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, data, err := s.bindReply(ctx)
	if err != nil {
		return err
	}
	f, err := s.feedback.ReplyAsPrincipal(ctx.Request().Context(), id, prin.SchoolID, data)
	if err != nil {
		return errors.Wrap(err, "replying to feedback")
	}
	return ctx.JSON(http.StatusOK, ReplyResponse{Message: "Reply saved", Feedback: f})
}

func (s *Server) queryPrincipalFeedback(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	fbs, err := s.feedback.QueryBySchool(ctx.Request().Context(), prin.SchoolID)
	if err != nil {
		return errors.Wrap(err, "querying school feedback")
	}
	return ctx.JSON(http.StatusOK, fbs)
}
