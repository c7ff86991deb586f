package workorder

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/opticare/billing/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/workflow/sessions", h.Start)
	g.GET("/workflow/sessions/:token", h.Get)
	g.POST("/workflow/sessions/:token/actions", h.ApplyAction)
	g.POST("/workflow/sessions/:token/advance", h.Advance)
	g.POST("/workflow/sessions/:token/retreat", h.Retreat)
	g.POST("/workflow/sessions/:token/save", h.Save)
	g.POST("/workflow/sessions/:token/print", h.Print)
	g.DELETE("/workflow/sessions/:token", h.Discard)
	g.GET("/orders", h.ListOrders)
	g.GET("/orders/:branch/:id", h.GetOrder)
}

type startRequest struct {
	Kind        Kind   `json:"kind"`
	Branch      string `json:"branch"`
	EditOrderID *int64 `json:"edit_order_id,omitempty"`
}

func (h *Handler) Start(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	s, err := h.svc.StartSession(c.Request().Context(), req.Kind, req.Branch, req.EditOrderID)
	if err != nil {
		return mapError(c, err, Snapshot{})
	}
	return c.JSON(http.StatusCreated, s.Snapshot())
}

func (h *Handler) Get(c echo.Context) error {
	s, err := h.svc.Session(c.Param("token"))
	if err != nil {
		return mapError(c, err, Snapshot{})
	}
	return c.JSON(http.StatusOK, s.Snapshot())
}

func (h *Handler) ApplyAction(c echo.Context) error {
	var a Action
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	snap, err := h.svc.Apply(c.Param("token"), a)
	if err != nil {
		return mapError(c, err, snap)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) Advance(c echo.Context) error {
	snap, err := h.svc.Advance(c.Param("token"))
	if err != nil {
		return mapError(c, err, snap)
	}
	// A gated transition is not an error at the transport level; the
	// snapshot carries the field errors and focus target.
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) Retreat(c echo.Context) error {
	snap, err := h.svc.Retreat(c.Param("token"))
	if err != nil {
		return mapError(c, err, snap)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) Save(c echo.Context) error {
	snap, err := h.svc.Save(c.Request().Context(), c.Param("token"))
	if err != nil {
		return mapError(c, err, snap)
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *Handler) Print(c echo.Context) error {
	doc, err := h.svc.Print(c.Param("token"))
	if err != nil {
		return mapError(c, err, Snapshot{})
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) Discard(c echo.Context) error {
	h.svc.Discard(c.Param("token"))
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListOrders(c echo.Context) error {
	p := pagination.FromContext(c)
	orders, total, err := h.svc.ListOrders(c.Request().Context(), c.QueryParam("branch"), p)
	if err != nil {
		return mapError(c, err, Snapshot{})
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(orders, total, p.Limit, p.Offset))
}

func (h *Handler) GetOrder(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	o, err := h.svc.GetOrder(c.Request().Context(), c.Param("branch"), orderID)
	if err != nil {
		return mapError(c, err, Snapshot{})
	}
	return c.JSON(http.StatusOK, o)
}

// mapError translates the workflow error taxonomy to HTTP. Validation
// failures return the session snapshot so the client gets the field errors
// and focus target in one response.
func mapError(c echo.Context, err error, snap Snapshot) error {
	var ve *ValidationError
	var ce *ConflictError
	var te *TransientError
	switch {
	case errors.As(err, &ve):
		if snap.Token != "" {
			return c.JSON(http.StatusUnprocessableEntity, snap)
		}
		return c.JSON(http.StatusUnprocessableEntity, ve)
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &ce),
		errors.Is(err, ErrSaveInProgress),
		errors.Is(err, ErrAlreadySubmitted),
		errors.Is(err, ErrNotSubmitted):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &te):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
