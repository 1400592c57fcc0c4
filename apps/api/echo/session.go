package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/auth"
)

const (
	contextIdentityKey = "identity"
	sessionAudience    = "EduQuest"
)

var errUnknownSessionKind = errors.New("unknown session kind")

// Claims represents the session identity transmitted via the session cookie.
type Claims struct {
	jwt.StandardClaims
	Kind     auth.Kind `json:"kind"`
	UID      int       `json:"uid"`
	Username string    `json:"username,omitempty"`
	Name     string    `json:"name,omitempty"`
	Email    string    `json:"email,omitempty"`
	SchoolID int       `json:"school_id,omitempty"`
}

func (s *Server) newClaims(id auth.Identity) *Claims {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    s.conf.AppName,
			Audience:  sessionAudience,
			ExpiresAt: now.Add(s.conf.Server.SessionExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Kind: id.Kind(),
		UID:  id.Subject(),
	}
	switch i := id.(type) {
	case auth.AdminIdentity:
		claims.Username = i.Username
	case auth.PrincipalIdentity:
		claims.Name, claims.Email, claims.SchoolID = i.Name, i.Email, i.SchoolID
	case auth.UserIdentity:
		claims.Name, claims.Email = i.Name, i.Email
	}
	return claims
}

// Identity rebuilds the session identity held by the claims.
func (c Claims) Identity() (auth.Identity, error) {
	switch c.Kind {
	case auth.KindAdmin:
		return auth.AdminIdentity{ID: c.UID, Username: c.Username}, nil
	case auth.KindPrincipal:
		return auth.PrincipalIdentity{ID: c.UID, Name: c.Name, Email: c.Email, SchoolID: c.SchoolID}, nil
	case auth.KindUser:
		return auth.UserIdentity{ID: c.UID, Name: c.Name, Email: c.Email}, nil
	}
	return nil, errUnknownSessionKind
}

// GenerateToken signs a session token for id.
func (s *Server) GenerateToken(id auth.Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, s.newClaims(id))
	ss, err := token.SignedString([]byte(s.conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func (s *Server) parseToken(ss string) (auth.Identity, error) {
	claims := new(Claims)
	_, err := jwt.ParseWithClaims(ss, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.conf.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !claims.VerifyAudience(sessionAudience, true) {
		return nil, errors.New("invalid audience")
	}
	return claims.Identity()
}

// login replaces the session's identity.
func (s *Server) login(ctx echo.Context, id auth.Identity) error {
	token, err := s.GenerateToken(id)
	if err != nil {
		return err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     s.conf.Server.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.conf.Server.SessionExpirationDelta),
		HttpOnly: true,
		Secure:   s.conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Set(contextIdentityKey, id)
	return nil
}

// logout drops the session whatever it holds.
func (s *Server) logout(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     s.conf.Server.SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	ctx.Set(contextIdentityKey, nil)
}

// sessionMiddleware loads the identity of the session cookie, if any.
// Invalid, expired or tampered cookies count as no session.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if cookie, err := ctx.Cookie(s.conf.Server.SessionCookieName); err == nil && cookie.Value != "" {
			if id, err := s.parseToken(cookie.Value); err == nil {
				ctx.Set(contextIdentityKey, id)
			}
		}
		return next(ctx)
	}
}

func contextIdentity(ctx echo.Context) auth.Identity {
	id, _ := ctx.Get(contextIdentityKey).(auth.Identity)
	return id
}

func contextPrincipal(ctx echo.Context) (auth.PrincipalIdentity, error) {
	return auth.RequirePrincipal(contextIdentity(ctx))
}

func adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if err := auth.RequireAdmin(contextIdentity(ctx)); err != nil {
			return err
		}
		return next(ctx)
	}
}

// principalMiddleware requires a principal session whose account still exists and is active.
// Sessions of removed or deactivated principals are dropped.
func (s *Server) principalMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		prin, err := contextPrincipal(ctx)
		if err != nil {
			return err
		}
		p, err := s.principals.GetByID(ctx.Request().Context(), prin.ID)
		switch {
		case core.IsNotFound(err):
			s.logout(ctx)
			return auth.ErrUnauthenticated
		case err != nil:
			return errors.Wrap(err, "loading session principal")
		case !p.IsActive:
			s.logout(ctx)
			return auth.ErrPendingApproval
		}
		return next(ctx)
	}
}
