package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core/meeting"
)

func (s *Server) registerMeetingAPI(g *echo.Group) {
	g.POST("/meetings/book", s.bookMeeting)
	g.PUT("/meetings/:id/status", s.updateMeetingStatus, s.principalMiddleware)
	g.GET("/principal/meetings", s.queryPrincipalMeetings, s.principalMiddleware)
}

func (s *Server) bookMeeting(ctx echo.Context) error {
	var data meeting.NewMeeting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMeeting")
	}
	if err := data.Validate(s.validate); err != nil {
		return err
	}

	m, err := s.meetings.Book(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "booking meeting")
	}
	return ctx.JSON(http.StatusCreated, m)
}

// updateMeetingStatus checks ownership before looking at the payload.
func (s *Server) updateMeetingStatus(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id", meeting.ErrNotFound)
	if err != nil {
		return err
	}
	var data meeting.StatusUpdate
	if err = ctx.Bind(&data); err != nil {
		// malformed payloads fail status validation, after the ownership check
		data = meeting.StatusUpdate{}
	}

	m, err := s.meetings.UpdateStatus(ctx.Request().Context(), id, prin.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating meeting status")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (s *Server) queryPrincipalMeetings(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	meetings, err := s.meetings.QueryByPrincipal(ctx.Request().Context(), prin.ID)
	if err != nil {
		return errors.Wrap(err, "querying meetings")
	}
	return ctx.JSON(http.StatusOK, meetings)
}
