package examination

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/digidocs/digidocs/internal/platform/auth"
)

func doRequest(h echo.HandlerFunc, method, target, body string, userID int64, params map[string]string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID > 0 {
		req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	return rec, h(c)
}

func TestStartHandler(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	h := NewHandler(svc)

	rec, err := doRequest(h.Start, http.MethodPost, "/doctor/examination/start",
		`{"patientId":1,"userId":7}`, 0, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["examinationId"] != 1 {
		t.Errorf("examinationId = %d, want 1", resp["examinationId"])
	}
}

func TestStartHandlerFallsBackToTokenSubject(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	h := NewHandler(svc)

	// No userId in the body; the token subject is the acting user.
	rec, err := doRequest(h.Start, http.MethodPost, "/doctor/examination/start",
		`{"patientId":1}`, 7, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.exams[1].CreatedBy != 7 {
		t.Errorf("createdBy = %d, want token subject 7", repo.exams[1].CreatedBy)
	}
}

func TestStartHandlerNoActor(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	h := NewHandler(svc)

	_, err := doRequest(h.Start, http.MethodPost, "/doctor/examination/start",
		`{"patientId":1}`, 0, nil)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401", err)
	}
}

func TestSaveHandler(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	examID := seedOpenExamination(repo, 1)
	h := NewHandler(svc)

	rec, err := doRequest(h.Save, http.MethodPost, "/doctor/examination/save",
		`{"examinationId":1,"symptoms":[5,6],"clinicalDiagnosis":"flu",
		  "medications":[{"medicineId":2,"dosage":"500mg","frequency":"2x daily"}],
		  "userId":7}`, 0, nil)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp SaveResult
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ExaminationID != examID || resp.PatientID != 1 {
		t.Errorf("unexpected result: %+v", resp)
	}
}

func TestSaveHandlerStorageFailureNamesOperation(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	seedOpenExamination(repo, 1)
	repo.failOn["AddMedication"] = errors.New("connection reset")
	h := NewHandler(svc)

	_, err := doRequest(h.Save, http.MethodPost, "/doctor/examination/save",
		`{"examinationId":1,"medications":[{"medicineId":2,"dosage":"500mg","frequency":"2x daily"}],
		  "userId":7}`, 0, nil)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v, want 500", err)
	}
	msg, _ := httpErr.Message.(string)
	if !strings.Contains(msg, "add medication") {
		t.Errorf("message = %q, want the failing operation named", msg)
	}
}

func TestSaveHandlerExaminationNotFound(t *testing.T) {
	svc, _ := setup(t)
	h := NewHandler(svc)

	_, err := doRequest(h.Save, http.MethodPost, "/doctor/examination/save",
		`{"examinationId":99,"userId":7}`, 0, nil)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestGetHandlerNotFound(t *testing.T) {
	svc, _ := setup(t)
	h := NewHandler(svc)

	_, err := doRequest(h.Get, http.MethodGet, "/doctor/examination/99", "", 7,
		map[string]string{"id": "99"})
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("err = %v, want 404", err)
	}
}

func TestAddSymptomHandlerConflict(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	seedOpenExamination(repo, 1)
	h := NewHandler(svc)

	body := `{"patientId":1,"symptomId":5,"examinationId":1,"userId":7}`
	if _, err := doRequest(h.AddSymptom, http.MethodPost, "/doctor/symptoms/add", body, 0, nil); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := doRequest(h.AddSymptom, http.MethodPost, "/doctor/symptoms/add", body, 0, nil)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusConflict {
		t.Fatalf("err = %v, want 409", err)
	}
}
