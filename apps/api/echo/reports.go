package echoapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core/report"
)

const mimeApplicationPDF = "application/pdf"

func (s *Server) registerReportAPI(g *echo.Group) {
	ag := g.Group("/admin", adminMiddleware)
	ag.POST("/generate-report", s.generateReport)
	ag.GET("/stats", s.stats)
}

func (s *Server) generateReport(ctx echo.Context) error {
	var data ReportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReportRequest")
	}
	rng, err := report.ParseRange(data.Range)
	if err != nil {
		return err
	}

	r, err := s.reports.Generate(ctx.Request().Context(), rng)
	if err != nil {
		return errors.Wrap(err, "generating report")
	}
	var buf bytes.Buffer
	if err = s.reports.RenderPDF(&buf, r); err != nil {
		return errors.Wrap(err, "rendering report")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+r.Filename())
	return ctx.Blob(http.StatusOK, mimeApplicationPDF, buf.Bytes())
}

func (s *Server) stats(ctx echo.Context) error {
	st, err := s.reports.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "collecting stats")
	}
	return ctx.JSON(http.StatusOK, st)
}
