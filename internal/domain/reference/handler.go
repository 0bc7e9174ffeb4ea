package reference

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the reference lookups on the doctor group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/symptoms/categories", h.Categories)
	g.GET("/symptoms/category/:id", h.SymptomsByCategory)
	g.GET("/medicines", h.SearchMedicines)
}

func (h *Handler) Categories(c echo.Context) error {
	categories, err := h.svc.Categories(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
	}
	if categories == nil {
		categories = []*SymptomCategory{}
	}
	return c.JSON(http.StatusOK, categories)
}

func (h *Handler) SymptomsByCategory(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	symptoms, err := h.svc.SymptomsByCategory(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, ErrNotFound.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
	}
	if symptoms == nil {
		symptoms = []*Symptom{}
	}
	return c.JSON(http.StatusOK, symptoms)
}

func (h *Handler) SearchMedicines(c echo.Context) error {
	medicines, err := h.svc.SearchMedicines(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
	}
	if medicines == nil {
		medicines = []*Medicine{}
	}
	return c.JSON(http.StatusOK, medicines)
}
