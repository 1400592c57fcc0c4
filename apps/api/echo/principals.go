package echoapi

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/auth"
	"github.com/trezcool/eduquest/core/principal"
)

func (s *Server) registerPrincipalAPI(g *echo.Group) {
	g.POST("/principals/register", s.registerPrincipal)
	g.POST("/principals/password-reset", s.requestPasswordReset)
	g.POST("/principals/password-reset/confirm", s.resetPassword)
	g.POST("/principals/profile", s.updatePrincipalProfile, s.principalMiddleware)
	g.GET("/principal/me", s.principalMe, s.principalMiddleware)
	g.PUT("/admin/principals/:id/status", s.setPrincipalStatus, adminMiddleware)
}

func (s *Server) registerPrincipal(ctx echo.Context) error {
	var data principal.NewPrincipal
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPrincipal")
	}
	if err := data.Validate(ctx.Request().Context(), s.validate, s.principals); err != nil {
		return err
	}

	p, err := s.principals.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering principal")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (s *Server) principalMe(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}
	p, err := s.principals.GetByID(ctx.Request().Context(), prin.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

// bindProfileForm reads a multipart profile update. Fields absent from the form keep their value.
func bindProfileForm(ctx echo.Context) (principal.UpdateProfile, *multipart.FileHeader, error) {
	var data principal.UpdateProfile
	form, err := ctx.MultipartForm()
	if err != nil {
		return data, nil, echo.NewHTTPError(http.StatusBadRequest, "malformed multipart form").SetInternal(err)
	}
	value := func(key string) *string {
		if v, ok := form.Value[key]; ok && len(v) > 0 {
			return &v[0]
		}
		return nil
	}
	data.Name = value("name")
	data.Phone = value("phone")
	data.Bio = value("bio")
	data.Qualifications = value("qualifications")
	data.OfficeHours = value("office_hours")

	if files := form.File["photo"]; len(files) > 0 && files[0].Filename != "" {
		return data, files[0], nil
	}
	return data, nil, nil
}

func (s *Server) updatePrincipalProfile(ctx echo.Context) error {
	prin, err := contextPrincipal(ctx)
	if err != nil {
		return err
	}

	var (
		data  principal.UpdateProfile
		photo *multipart.FileHeader
	)
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		if data, photo, err = bindProfileForm(ctx); err != nil {
			return err
		}
	} else if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(s.validate); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	if photo != nil {
		url, err := s.files.SaveImage("photo", photo, core.PrincipalImagesDir)
		if err != nil {
			return err
		}
		data.ImageURL = &url
	}

	p, err := s.principals.UpdateProfile(reqCtx, prin.ID, data)
	if err != nil {
		if data.ImageURL != nil {
			_ = s.files.Delete(*data.ImageURL)
		}
		return errors.Wrap(err, "updating principal profile")
	}

	// keep the session in sync with the new name
	if err = s.login(ctx, auth.PrincipalIdentity{ID: p.ID, Name: p.Name, Email: p.Email, SchoolID: p.SchoolID}); err != nil {
		return errors.Wrap(err, "refreshing session")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (s *Server) setPrincipalStatus(ctx echo.Context) error {
	id, err := pathID(ctx, "id", principal.ErrNotFound)
	if err != nil {
		return err
	}
	var data PrincipalStatusRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PrincipalStatusRequest")
	}
	if err = s.validate.Struct(data); err != nil {
		return err
	}

	p, err := s.principals.SetActive(ctx.Request().Context(), id, *data.IsActive)
	if err != nil {
		return errors.Wrap(err, "setting principal status")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (s *Server) requestPasswordReset(ctx echo.Context) error {
	var data principal.PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}
	if err := data.Validate(s.validate); err != nil {
		return err
	}
	if err := s.principals.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil {
		return errors.Wrap(err, "requesting password reset")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "If the email is registered, a reset link has been sent"})
}

func (s *Server) resetPassword(ctx echo.Context) error {
	var data principal.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := data.Validate(s.validate); err != nil {
		return err
	}
	if _, err := s.principals.ResetPassword(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "resetting password")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Password has been reset"})
}
