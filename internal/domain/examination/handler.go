package examination

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/digidocs/digidocs/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the doctor workflow endpoints.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/examination/start", h.Start)
	g.POST("/examination/save", h.Save)
	g.GET("/examination/:id", h.Get)
	g.GET("/examination/patient/:patientId", h.GetPatientLatest)

	g.POST("/symptoms/add", h.AddSymptom)
	g.DELETE("/symptoms/:id", h.RemoveSymptom)
	g.POST("/diagnosis/add", h.AddDiagnosis)
	g.PUT("/diagnosis/update/:id", h.UpdateDiagnosis)
	g.POST("/prescription/add", h.AddMedication)
	g.DELETE("/prescription/:id", h.RemoveMedication)
	g.POST("/appointment/schedule", h.ScheduleAppointment)
}

// actorID resolves the acting user: an explicit userId in the body wins,
// otherwise the token subject.
func actorID(c echo.Context, bodyUserID int64) int64 {
	if bodyUserID > 0 {
		return bodyUserID
	}
	return auth.UserIDFromContext(c.Request().Context())
}

type startRequest struct {
	PatientID int64 `json:"patientId"`
	UserID    int64 `json:"userId"`
}

func (h *Handler) Start(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	examinationID, err := h.svc.Start(c.Request().Context(), req.PatientID, actorID(c, req.UserID))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"examinationId": examinationID})
}

type medicationRequest struct {
	MedicineID int64  `json:"medicineId"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
}

type saveRequest struct {
	ExaminationID          int64               `json:"examinationId"`
	Symptoms               []int64             `json:"symptoms"`
	ClinicalDiagnosis      string              `json:"clinicalDiagnosis"`
	RequiredInvestigations string              `json:"requiredInvestigations"`
	Medications            []medicationRequest `json:"medications"`
	NextAppointmentDate    *time.Time          `json:"nextAppointmentDate"`
	UserID                 int64               `json:"userId"`
}

func (h *Handler) Save(c echo.Context) error {
	var req saveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	in := SaveInput{
		ExaminationID:          req.ExaminationID,
		Symptoms:               req.Symptoms,
		ClinicalDiagnosis:      req.ClinicalDiagnosis,
		RequiredInvestigations: req.RequiredInvestigations,
		NextAppointmentDate:    req.NextAppointmentDate,
		ActorID:                actorID(c, req.UserID),
	}
	for _, m := range req.Medications {
		in.Medications = append(in.Medications, MedicationInput{
			MedicineID: m.MedicineID,
			Dosage:     m.Dosage,
			Frequency:  m.Frequency,
		})
	}

	result, err := h.svc.SaveComplete(c.Request().Context(), in)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid examination id")
	}

	detail, err := h.svc.GetDetail(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

func (h *Handler) GetPatientLatest(c echo.Context) error {
	id, err := parseID(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	view, err := h.svc.GetPatientLatest(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, view)
}

type addSymptomRequest struct {
	PatientID     int64 `json:"patientId"`
	SymptomID     int64 `json:"symptomId"`
	ExaminationID int64 `json:"examinationId"`
	UserID        int64 `json:"userId"`
}

func (h *Handler) AddSymptom(c echo.Context) error {
	var req addSymptomRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ps, err := h.svc.AddSymptom(c.Request().Context(),
		req.PatientID, req.SymptomID, req.ExaminationID, actorID(c, req.UserID))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, ps)
}

func (h *Handler) RemoveSymptom(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid symptom record id")
	}

	if err := h.svc.RemoveSymptom(c.Request().Context(), id,
		auth.UserIDFromContext(c.Request().Context())); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type diagnosisRequest struct {
	ExaminationID          int64  `json:"examinationId"`
	ClinicalDiagnosis      string `json:"clinicalDiagnosis"`
	RequiredInvestigations string `json:"requiredInvestigations"`
	UserID                 int64  `json:"userId"`
}

func (h *Handler) AddDiagnosis(c echo.Context) error {
	var req diagnosisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	d, outcome, err := h.svc.AddDiagnosis(c.Request().Context(),
		req.ExaminationID, req.ClinicalDiagnosis, req.RequiredInvestigations, actorID(c, req.UserID))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"diagnosis": d,
		"result":    outcome,
	})
}

func (h *Handler) UpdateDiagnosis(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid diagnosis id")
	}

	var req diagnosisRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	d, err := h.svc.UpdateDiagnosis(c.Request().Context(),
		id, req.ClinicalDiagnosis, req.RequiredInvestigations, actorID(c, req.UserID))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, d)
}

type addMedicationRequest struct {
	PatientID     int64  `json:"patientId"`
	MedicineID    int64  `json:"medicineId"`
	ExaminationID int64  `json:"examinationId"`
	Dosage        string `json:"dosage"`
	Frequency     string `json:"frequency"`
	UserID        int64  `json:"userId"`
}

func (h *Handler) AddMedication(c echo.Context) error {
	var req addMedicationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	pm, err := h.svc.AddMedication(c.Request().Context(),
		req.PatientID, req.MedicineID, req.ExaminationID,
		req.Dosage, req.Frequency, actorID(c, req.UserID))
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, pm)
}

func (h *Handler) RemoveMedication(c echo.Context) error {
	id, err := parseID(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid prescription id")
	}

	if err := h.svc.RemoveMedication(c.Request().Context(), id,
		auth.UserIDFromContext(c.Request().Context())); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type scheduleRequest struct {
	PatientID           int64     `json:"patientId"`
	NextAppointmentDate time.Time `json:"nextAppointmentDate"`
	UserID              int64     `json:"userId"`
}

func (h *Handler) ScheduleAppointment(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.ScheduleAppointment(c.Request().Context(),
		req.PatientID, req.NextAppointmentDate, actorID(c, req.UserID)); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "appointment scheduled"})
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
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrNoActor):
		return echo.NewHTTPError(http.StatusUnauthorized, ErrNoActor.Error())
	case errors.Is(err, ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		// Storage failures keep the wrapped operation name so a failed save
		// is diagnosable from the response alone.
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("internal error: %v", err))
	}
}
