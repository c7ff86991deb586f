package staff

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/staff/employees", h.ListNames)
}

func (h *Handler) ListNames(c echo.Context) error {
	branch := c.QueryParam("branch")
	if branch == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "branch is required")
	}
	names, err := h.svc.Names(c.Request().Context(), branch)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "employee lookup failed")
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, names)
}
