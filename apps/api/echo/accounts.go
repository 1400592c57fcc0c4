package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core/account"
	"github.com/trezcool/eduquest/core/auth"
)

func (s *Server) registerAuthAPI(g *echo.Group) {
	// TODO: rate limit the login endpoints
	g.POST("/admin/login", s.adminLogin)
	g.POST("/admin/logout", s.logoutHandler)
	g.POST("/logout", s.logoutHandler)
	g.GET("/session", s.session)
	g.POST("/login", s.unifiedLogin)
	g.POST("/principals/login", s.principalLogin)
	g.POST("/users/register", s.registerUser)
}

func loginResponse(id auth.Identity) LoginResponse {
	return LoginResponse{Message: "Login successful", Kind: id.Kind(), Identity: id}
}

func (s *Server) adminLogin(ctx echo.Context) error {
	var data AdminLoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdminLoginRequest")
	}
	if err := s.validate.Struct(data); err != nil {
		return err
	}

	id, err := s.auth.LoginAdmin(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return err
	}
	if err = s.login(ctx, id); err != nil {
		return errors.Wrap(err, "logging in")
	}
	return ctx.JSON(http.StatusOK, loginResponse(id))
}

func (s *Server) loginAs(ctx echo.Context, kind auth.Kind) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if kind != "" {
		data.UserType = kind
	}
	if err := s.validate.Struct(data); err != nil {
		return err
	}

	id, err := s.auth.Login(ctx.Request().Context(), data.UserType, data.Email, data.Password)
	if err != nil {
		return err
	}
	if err = s.login(ctx, id); err != nil {
		return errors.Wrap(err, "logging in")
	}
	return ctx.JSON(http.StatusOK, loginResponse(id))
}

func (s *Server) unifiedLogin(ctx echo.Context) error {
	return s.loginAs(ctx, "")
}

func (s *Server) principalLogin(ctx echo.Context) error {
	return s.loginAs(ctx, auth.KindPrincipal)
}

func (s *Server) logoutHandler(ctx echo.Context) error {
	s.logout(ctx)
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Logged out"})
}

func (s *Server) session(ctx echo.Context) error {
	id := contextIdentity(ctx)
	if id == nil {
		return ctx.JSON(http.StatusOK, SessionResponse{})
	}
	res := SessionResponse{LoggedIn: true, Kind: id.Kind(), Identity: id}
	if a, ok := id.(auth.AdminIdentity); ok {
		res.AdminLoggedIn = true
		res.Username = a.Username
	}
	return ctx.JSON(http.StatusOK, res)
}

func (s *Server) registerUser(ctx echo.Context) error {
	var data account.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(ctx.Request().Context(), s.validate, s.accounts); err != nil {
		return err
	}

	u, err := s.accounts.RegisterUser(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, u)
}
