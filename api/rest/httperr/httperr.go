// Package httperr translates service errors into echo HTTP errors.
// Internal causes are attached with SetInternal and never rendered.
package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/simsaas/simsaas/internal/apperr"
	"github.com/simsaas/simsaas/pkg/ident"
)

// Response is the body of every error.
type Response struct {
	Code    apperr.Code       `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// From maps err onto an *echo.HTTPError.
func From(err error) error {
	if err == nil {
		return nil
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		return echo.NewHTTPError(http.StatusInternalServerError, Response{
			Code:    apperr.CodeInternal,
			Message: "Internal server error.",
		}).SetInternal(err)
	}

	resp := Response{Code: appErr.Code, Message: appErr.Message}

	switch appErr.Code {
	case apperr.CodeNotFound:
		return echo.NewHTTPError(http.StatusNotFound, resp)
	case apperr.CodeBadRequest:
		if appErr.Field != "" {
			resp.Fields = map[string]string{appErr.Field: appErr.Message}
		}
		return echo.NewHTTPError(http.StatusBadRequest, resp)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, resp).SetInternal(err)
	}
}

// ParamID parses a path parameter as a record identity.
func ParamID(c echo.Context, name string) (int64, error) {
	id, err := ident.Parse(c.Param(name))
	if err != nil {
		return 0, From(apperr.BadRequest(name, "Invalid %s format.", name))
	}
	return id, nil
}

// Bind decodes the request body, reporting malformed input as a bad request.
func Bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return From(apperr.BadRequest("body", "Malformed request body."))
	}
	return nil
}

// Query reports a query binding failure as a bad request on the
// offending parameter.
func Query(err error) error {
	if err == nil {
		return nil
	}

	var be *echo.BindingError
	if errors.As(err, &be) {
		return From(apperr.BadRequest(be.Field, "Invalid %s format.", be.Field))
	}
	return From(apperr.BadRequest("query", "Malformed query parameters."))
}
