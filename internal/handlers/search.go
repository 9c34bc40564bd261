package handlers

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/coursehub/feedback-service/internal/es"
	"github.com/coursehub/feedback-service/internal/util"
)

type SearchHandler struct {
	ES *elasticsearch.Client
}

func (h *SearchHandler) SearchCourses(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query")
	}
	if h.ES == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	total, courses, err := es.SearchCourses(c.Request().Context(), h.ES, q, from, size)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "search failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "courses": courses})
}
