package patient

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/digidocs/digidocs/internal/platform/auth"
	"github.com/digidocs/digidocs/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts patient CRUD and queue endpoints.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/patients", h.Create)
	g.GET("/patients", h.List)
	g.GET("/patients/:id", h.Get)
	g.PUT("/patients/:id", h.Update)
	g.POST("/patients/:id/queue", h.Enqueue)
	g.GET("/queue", h.Queue)
}

type patientRequest struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	Gender         string `json:"gender"`
	ChiefComplaint string `json:"chiefComplaint"`
	ChronicDisease string `json:"chronicDisease"`
	Phone          string `json:"phone"`
	Address        string `json:"address"`
}

func (h *Handler) Create(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.svc.Create(c.Request().Context(), CreateInput{
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		ChiefComplaint: req.ChiefComplaint,
		ChronicDisease: req.ChronicDisease,
		Phone:          req.Phone,
		Address:        req.Address,
		ActorID:        auth.UserIDFromContext(c.Request().Context()),
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)
	patients, total, err := h.svc.List(c.Request().Context(), params)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, int(total), params.Limit, params.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.svc.Update(c.Request().Context(), id, CreateInput{
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		ChiefComplaint: req.ChiefComplaint,
		ChronicDisease: req.ChronicDisease,
		Phone:          req.Phone,
		Address:        req.Address,
		ActorID:        auth.UserIDFromContext(c.Request().Context()),
	})
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Enqueue(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	entry, err := h.svc.Enqueue(c.Request().Context(), id,
		auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

func (h *Handler) Queue(c echo.Context) error {
	items, err := h.svc.Queue(c.Request().Context())
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*QueueItem{}
	}
	return c.JSON(http.StatusOK, items)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, ErrConflict.Error())
	case errors.Is(err, ErrNoActor):
		return echo.NewHTTPError(http.StatusUnauthorized, ErrNoActor.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
	}
}
