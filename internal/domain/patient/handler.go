package patient

import (
	"errors"
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
	g.GET("/patients/by-mr/:mr", h.GetByMR)
}

func (h *Handler) GetByMR(c echo.Context) error {
	p, err := h.svc.FindByMR(c.Request().Context(), c.Param("mr"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no patient found with the provided MR number")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "patient lookup failed")
	}
	return c.JSON(http.StatusOK, p)
}
