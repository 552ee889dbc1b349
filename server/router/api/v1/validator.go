package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/notescopilot/store"
)

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid "+name+": "+strconv.Quote(raw))
	}
	return id, nil
}

// parsePage reads limit and offset query parameters, applying the list defaults.
// Range checks are left to the service so both search modes report them the same way.
func parsePage(c echo.Context) (limit, offset int, err error) {
	limit, offset = store.DefaultListLimit, 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return 0, 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "limit must be an integer")
		}
	}
	if raw := c.QueryParam("offset"); raw != "" {
		if offset, err = strconv.Atoi(raw); err != nil {
			return 0, 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "offset must be an integer")
		}
	}
	return limit, offset, nil
}
