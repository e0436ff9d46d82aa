package apperr

import (
	"github.com/labstack/echo/v4"
)

// Respond writes err as a JSON error envelope with the status mapped
// from its kind. Unknown errors come out as 500.
func Respond(c echo.Context, err error) error {
	kind := KindOf(err)
	msg := MessageOf(err)
	if kind == KindServer {
		msg = "internal server error"
	}
	return c.JSON(kind.HTTPStatus(), echo.Map{
		"success": false,
		"message": msg,
	})
}
