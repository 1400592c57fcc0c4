package echoapi

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/eduquest/core"
	"github.com/trezcool/eduquest/core/auth"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func validationResponse(flds []core.FieldError, err error) errorResponse {
	res := errorResponse{Error: core.ValidationSummary(flds)}
	if len(flds) == 0 && err != nil {
		res.Error = err.Error()
	}
	if len(flds) > 0 {
		res.Fields = make(map[string]string, len(flds))
		for _, f := range flds {
			res.Fields[f.Field] = f.Error
		}
	}
	return res
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func (s *Server) newAppHTTPErrorHandler(signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code int
			res  errorResponse
		)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
			code = origErr.Code
			res.Error = fmt.Sprint(origErr.Message)
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			res = validationResponse(core.TranslateValidationErrors(origErr, s.translator), nil)
		case *core.ValidationError:
			code = http.StatusBadRequest
			res = validationResponse(origErr.Fields, origErr)
		case *core.NotFoundError:
			code = http.StatusNotFound
			res.Error = origErr.Error()
		default:
			switch origErr {
			case auth.ErrInvalidCredentials, auth.ErrUnauthenticated:
				code = http.StatusUnauthorized
				res.Error = origErr.Error()
			case core.ErrPermissionDenied, auth.ErrPendingApproval, auth.ErrAccountInactive:
				code = http.StatusForbidden
				res.Error = origErr.Error()
			case auth.ErrUnknownKind:
				code = http.StatusBadRequest
				res = validationResponse([]core.FieldError{{Field: "user_type", Error: origErr.Error()}}, nil)
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				res.Error = msg
				if ctx.Echo().Debug {
					res.Error = err.Error()
				}
				args := []interface{}{errors.Wrap(err, msg), map[string]interface{}{
					"method": ctx.Request().Method,
					"path":   ctx.Request().URL.Path,
				}}
				if id := contextIdentity(ctx); id != nil {
					args = append(args, id)
				}
				s.logger.Error(msg, args...)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
