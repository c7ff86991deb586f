package catalog

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
	g.GET("/catalog/products/suggest", h.Suggest)
	g.GET("/catalog/products/:id", h.Get)
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusBadGateway, "product lookup failed")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Suggest(c echo.Context) error {
	field := SuggestField(c.QueryParam("by"))
	products, err := h.svc.Suggest(c.Request().Context(), c.QueryParam("q"), field)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "product suggestion lookup failed")
	}
	if products == nil {
		products = []*Product{}
	}
	return c.JSON(http.StatusOK, products)
}
