package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/auth"
	"github.com/trezcool/eduquest/core/feedback"
	"github.com/trezcool/eduquest/core/school"
)

const (
	orderingParam    = "ordering"
	defaultBodyLimit = "16M"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=name,-region`: a leading "-" orders descending.
func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

func bodyLimit(n int64) string {
	if n <= 0 {
		return defaultBodyLimit
	}
	return strconv.FormatInt(n, 10) + "B"
}

// pathID reads an integer path parameter. Malformed ids match nothing, like unknown ones.
func pathID(ctx echo.Context, name string, notFound error) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, notFound
	}
	return id, nil
}

type (
	AdminLoginRequest struct {
		Username string `json:"username" form:"username" validate:"required"`
		Password string `json:"password" form:"password" validate:"required"`
	}

	LoginRequest struct {
		Email    string    `json:"email" form:"email" validate:"required"`
		Password string    `json:"password" form:"password" validate:"required"`
		UserType auth.Kind `json:"user_type" form:"user_type"`
	}

	LoginResponse struct {
		Message  string        `json:"message"`
		Kind     auth.Kind     `json:"kind"`
		Identity auth.Identity `json:"identity"`
	}

	SessionResponse struct {
		LoggedIn      bool          `json:"logged_in"`
		AdminLoggedIn bool          `json:"admin_logged_in"`
		Username      string        `json:"username,omitempty"`
		Kind          auth.Kind     `json:"kind,omitempty"`
		Identity      auth.Identity `json:"identity,omitempty"`
	}

	MessageResponse struct {
		Message string `json:"message"`
	}

	DeletionResponse struct {
		Message string          `json:"message"`
		Deleted school.Deletion `json:"deleted"`
	}

	ReplyResponse struct {
		Message  string            `json:"message"`
		Feedback feedback.Feedback `json:"feedback"`
	}

	PrincipalStatusRequest struct {
		IsActive *bool `json:"is_active" validate:"required"`
	}

	ReportRequest struct {
		Range string `json:"range" form:"range"`
	}
)
