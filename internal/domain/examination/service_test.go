package examination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/digidocs/digidocs/internal/domain/patient"
)

type queueRow struct {
	id        int64
	patientID int64
	status    string
}

type mockRepo struct {
	exams       map[int64]*Examination
	links       map[int64]int64 // examination id -> patient id
	diagnoses   map[int64]*Diagnosis
	symptoms    map[int64]*PatientSymptom
	medications map[int64]*PatientMedication
	patients    map[int64]*PatientInfo
	queue       map[int64]*queueRow
	nextID      int64

	// failOn forces an error from the named repo method.
	failOn map[string]error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		exams:       make(map[int64]*Examination),
		links:       make(map[int64]int64),
		diagnoses:   make(map[int64]*Diagnosis),
		symptoms:    make(map[int64]*PatientSymptom),
		medications: make(map[int64]*PatientMedication),
		patients:    make(map[int64]*PatientInfo),
		queue:       make(map[int64]*queueRow),
		nextID:      1,
		failOn:      make(map[string]error),
	}
}

func (m *mockRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockRepo) fail(method string) error {
	return m.failOn[method]
}

func (m *mockRepo) GetExamination(_ context.Context, id int64) (*Examination, error) {
	e, ok := m.exams[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *mockRepo) GetExaminationPatientID(_ context.Context, examinationID int64) (int64, error) {
	pid, ok := m.links[examinationID]
	if !ok {
		return 0, ErrNotFound
	}
	return pid, nil
}

func (m *mockRepo) FindOpenExaminationByPatient(_ context.Context, patientID int64) (*Examination, error) {
	var best *Examination
	for examID, pid := range m.links {
		if pid != patientID {
			continue
		}
		e := m.exams[examID]
		if e.EndAt != nil {
			continue
		}
		if best == nil || e.ID > best.ID {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *mockRepo) CreateExamination(_ context.Context, e *Examination) error {
	e.ID = m.id()
	cp := *e
	m.exams[e.ID] = &cp
	return nil
}

func (m *mockRepo) LinkPatient(_ context.Context, examinationID, patientID int64) error {
	m.links[examinationID] = patientID
	return nil
}

func (m *mockRepo) UpdateExamination(_ context.Context, e *Examination) error {
	if _, ok := m.exams[e.ID]; !ok {
		return ErrNotFound
	}
	cp := *e
	m.exams[e.ID] = &cp
	return nil
}

func (m *mockRepo) LatestExaminationByPatient(_ context.Context, patientID int64) (*Examination, error) {
	var best *Examination
	for examID, pid := range m.links {
		if pid != patientID {
			continue
		}
		e := m.exams[examID]
		if best == nil ||
			e.CreatedAt.After(best.CreatedAt) ||
			(e.CreatedAt.Equal(best.CreatedAt) && e.ID > best.ID) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *mockRepo) GetDiagnosisByExamination(_ context.Context, examinationID int64) (*Diagnosis, error) {
	for _, d := range m.diagnoses {
		if d.ExaminationID == examinationID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockRepo) GetDiagnosis(_ context.Context, id int64) (*Diagnosis, error) {
	d, ok := m.diagnoses[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockRepo) CreateDiagnosis(_ context.Context, d *Diagnosis) error {
	d.ID = m.id()
	cp := *d
	m.diagnoses[d.ID] = &cp
	return nil
}

func (m *mockRepo) UpdateDiagnosis(_ context.Context, d *Diagnosis) error {
	if _, ok := m.diagnoses[d.ID]; !ok {
		return ErrNotFound
	}
	cp := *d
	m.diagnoses[d.ID] = &cp
	return nil
}

func (m *mockRepo) SymptomExists(_ context.Context, patientID, symptomID, examinationID int64) (bool, error) {
	for _, s := range m.symptoms {
		if s.PatientID == patientID && s.SymptomID == symptomID && s.ExaminationID == examinationID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) AddSymptom(_ context.Context, s *PatientSymptom) error {
	if err := m.fail("AddSymptom"); err != nil {
		return err
	}
	s.ID = m.id()
	cp := *s
	m.symptoms[s.ID] = &cp
	return nil
}

func (m *mockRepo) DeleteSymptom(_ context.Context, id int64) error {
	if _, ok := m.symptoms[id]; !ok {
		return ErrNotFound
	}
	delete(m.symptoms, id)
	return nil
}

func (m *mockRepo) DeleteSymptomsByExamination(_ context.Context, examinationID int64) error {
	for id, s := range m.symptoms {
		if s.ExaminationID == examinationID {
			delete(m.symptoms, id)
		}
	}
	return nil
}

func (m *mockRepo) GetSymptomDetails(_ context.Context, examinationID int64) ([]SymptomDetail, error) {
	var out []SymptomDetail
	for _, s := range m.symptoms {
		if s.ExaminationID == examinationID {
			out = append(out, SymptomDetail{ID: s.ID, SymptomID: s.SymptomID})
		}
	}
	return out, nil
}

func (m *mockRepo) MedicationExists(_ context.Context, patientID, medicineID, examinationID int64) (bool, error) {
	for _, pm := range m.medications {
		if pm.PatientID == patientID && pm.MedicineID == medicineID && pm.ExaminationID == examinationID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) AddMedication(_ context.Context, pm *PatientMedication) error {
	if err := m.fail("AddMedication"); err != nil {
		return err
	}
	pm.ID = m.id()
	cp := *pm
	m.medications[pm.ID] = &cp
	return nil
}

func (m *mockRepo) DeleteMedication(_ context.Context, id int64) error {
	if _, ok := m.medications[id]; !ok {
		return ErrNotFound
	}
	delete(m.medications, id)
	return nil
}

func (m *mockRepo) DeleteMedicationsByExamination(_ context.Context, examinationID int64) error {
	for id, pm := range m.medications {
		if pm.ExaminationID == examinationID {
			delete(m.medications, id)
		}
	}
	return nil
}

func (m *mockRepo) GetMedicationDetails(_ context.Context, examinationID int64) ([]MedicationDetail, error) {
	var out []MedicationDetail
	for _, pm := range m.medications {
		if pm.ExaminationID == examinationID {
			out = append(out, MedicationDetail{
				ID:         pm.ID,
				MedicineID: pm.MedicineID,
				Dosage:     pm.Dosage,
				Frequency:  pm.Frequency,
			})
		}
	}
	return out, nil
}

func (m *mockRepo) PatientExists(_ context.Context, patientID int64) (bool, error) {
	_, ok := m.patients[patientID]
	return ok, nil
}

func (m *mockRepo) GetPatient(_ context.Context, patientID int64) (*PatientInfo, error) {
	p, ok := m.patients[patientID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) UpdatePatientNextAppointment(_ context.Context, patientID int64, when time.Time, _ int64) error {
	p, ok := m.patients[patientID]
	if !ok {
		return ErrNotFound
	}
	w := when
	p.NextAppointment = &w
	return nil
}

func (m *mockRepo) FindQueueEntryByStatus(_ context.Context, patientID int64, status string) (int64, error) {
	for _, q := range m.queue {
		if q.patientID == patientID && q.status == status {
			return q.id, nil
		}
	}
	return 0, nil
}

func (m *mockRepo) UpdateQueueStatus(_ context.Context, queueID int64, status string, _ int64) error {
	q, ok := m.queue[queueID]
	if !ok {
		return ErrNotFound
	}
	q.status = status
	return nil
}

// snapshot deep-copies the mutable state so the mock transaction runner can
// roll back on error.
func (m *mockRepo) snapshot() *mockRepo {
	cp := newMockRepo()
	cp.nextID = m.nextID
	for k, v := range m.exams {
		e := *v
		cp.exams[k] = &e
	}
	for k, v := range m.links {
		cp.links[k] = v
	}
	for k, v := range m.diagnoses {
		d := *v
		cp.diagnoses[k] = &d
	}
	for k, v := range m.symptoms {
		s := *v
		cp.symptoms[k] = &s
	}
	for k, v := range m.medications {
		pm := *v
		cp.medications[k] = &pm
	}
	for k, v := range m.patients {
		p := *v
		cp.patients[k] = &p
	}
	for k, v := range m.queue {
		q := *v
		cp.queue[k] = &q
	}
	return cp
}

func (m *mockRepo) restore(snap *mockRepo) {
	m.exams = snap.exams
	m.links = snap.links
	m.diagnoses = snap.diagnoses
	m.symptoms = snap.symptoms
	m.medications = snap.medications
	m.patients = snap.patients
	m.queue = snap.queue
	m.nextID = snap.nextID
}

// mockTxRunner restores the repo to its pre-call state when fn errors,
// mirroring a rolled-back transaction.
type mockTxRunner struct {
	repo *mockRepo
}

func (r *mockTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := r.repo.snapshot()
	if err := fn(ctx); err != nil {
		r.repo.restore(snap)
		return err
	}
	return nil
}

func setup(t *testing.T) (*Service, *mockRepo) {
	t.Helper()
	repo := newMockRepo()
	return NewService(repo, &mockTxRunner{repo: repo}), repo
}

func seedPatient(m *mockRepo, id int64) {
	m.patients[id] = &PatientInfo{ID: id, Name: "Test Patient"}
}

func seedOpenExamination(m *mockRepo, patientID int64) int64 {
	examID := m.id()
	m.exams[examID] = &Examination{ID: examID, StartAt: time.Now().UTC()}
	m.links[examID] = patientID
	return examID
}

func symptomIDsFor(m *mockRepo, examinationID int64) map[int64]bool {
	out := make(map[int64]bool)
	for _, s := range m.symptoms {
		if s.ExaminationID == examinationID {
			out[s.SymptomID] = true
		}
	}
	return out
}

func TestStartIdempotent(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)

	first, err := svc.Start(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := svc.Start(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first != second {
		t.Errorf("start not idempotent: %d vs %d", first, second)
	}
	if len(repo.exams) != 1 {
		t.Errorf("examination rows = %d, want 1", len(repo.exams))
	}
}

func TestStartPatientNotFound(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.Start(context.Background(), 99, 7)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStartNoActor(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)

	_, err := svc.Start(context.Background(), 1, 0)
	if !errors.Is(err, ErrNoActor) {
		t.Fatalf("err = %v, want ErrNoActor", err)
	}
}

func TestStartMovesQueueToInProgress(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	repo.queue[1] = &queueRow{id: 1, patientID: 1, status: patient.QueueWaiting}

	if _, err := svc.Start(context.Background(), 1, 7); err != nil {
		t.Fatalf("start: %v", err)
	}
	if repo.queue[1].status != patient.QueueInProgress {
		t.Errorf("queue status = %q, want InProgress", repo.queue[1].status)
	}
}

func TestSaveCompleteSingleDiagnosis(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	examID := seedOpenExamination(repo, 1)

	for _, text := range []string{"common cold", "influenza"} {
		_, err := svc.SaveComplete(context.Background(), SaveInput{
			ExaminationID:     examID,
			ClinicalDiagnosis: text,
			ActorID:           7,
		})
		if err != nil {
			t.Fatalf("save with diagnosis %q: %v", text, err)
		}
	}

	if len(repo.diagnoses) != 1 {
		t.Fatalf("diagnosis rows = %d, want 1", len(repo.diagnoses))
	}
	for _, d := range repo.diagnoses {
		if d.ClinicalDiagnosis != "influenza" {
			t.Errorf("diagnosis text = %q, want last write", d.ClinicalDiagnosis)
		}
	}
}

func TestSaveCompleteFullReplaceSymptoms(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	examID := seedOpenExamination(repo, 1)

	if _, err := svc.SaveComplete(context.Background(), SaveInput{
		ExaminationID: examID,
		Symptoms:      []int64{10, 11},
		ActorID:       7,
	}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	if _, err := svc.SaveComplete(context.Background(), SaveInput{
		ExaminationID: examID,
		Symptoms:      []int64{12},
		ActorID:       7,
	}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got := symptomIDsFor(repo, examID)
	if len(got) != 1 || !got[12] {
		t.Errorf("symptoms = %v, want exactly {12}", got)
	}
}

func TestSaveCompleteEmptySymptomsLeavesUntouched(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	examID := seedOpenExamination(repo, 1)

	if _, err := svc.SaveComplete(context.Background(), SaveInput{
		ExaminationID: examID,
		Symptoms:      []int64{10, 11},
		ActorID:       7,
	}); err != nil {
		t.Fatalf("first save: %v", err)
	}

	// Omitted list means leave untouched, not clear.
	if _, err := svc.SaveComplete(context.Background(), SaveInput{
		ExaminationID: examID,
		ActorID:       7,
	}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got := symptomIDsFor(repo, examID)
	if len(got) != 2 || !got[10] || !got[11] {
		t.Errorf("symptoms = %v, want {10, 11} unchanged", got)
	}
}

func TestSaveCompleteAtomicRollback(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	examID := seedOpenExamination(repo, 1)

	if _, err := svc.SaveComplete(context.Background(), SaveInput{
		ExaminationID: examID,
		Symptoms:      []int64{10, 11},
		ActorID:       7,
	}); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	repo.exams[examID].EndAt = nil
	repo.failOn["AddMedication"] = errors.New("constraint violation")

	_, err := svc.SaveComplete(context.Background(), SaveInput{
		ExaminationID: examID,
		Symptoms:      []int64{12},
		Medications:   []MedicationInput{{MedicineID: 2, Dosage: "500mg", Frequency: "2x daily"}},
		ActorID:       7,
	})
	if err == nil {
		t.Fatal("expected the save to fail")
	}

	// Neither the staged symptom replace nor the medication may be visible.
	got := symptomIDsFor(repo, examID)
	if len(got) != 2 || !got[10] || !got[11] {
		t.Errorf("symptoms after rollback = %v, want pre-call {10, 11}", got)
	}
	if len(repo.medications) != 0 {
		t.Errorf("medication rows after rollback = %d, want 0", len(repo.medications))
	}
	if repo.exams[examID].EndAt != nil {
		t.Error("examination completed despite rollback")
	}
}

func TestSaveCompleteScenario(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	repo.queue[1] = &queueRow{id: 1, patientID: 1, status: patient.QueueWaiting}

	examID, err := svc.Start(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if repo.exams[examID].EndAt != nil {
		t.Fatal("examination already completed after start")
	}
	if repo.queue[1].status != patient.QueueInProgress {
		t.Fatalf("queue status = %q, want InProgress", repo.queue[1].status)
	}

	result, err := svc.SaveComplete(context.Background(), SaveInput{
		ExaminationID:     examID,
		Symptoms:          []int64{5, 6},
		ClinicalDiagnosis: "flu",
		Medications:       []MedicationInput{{MedicineID: 2, Dosage: "500mg", Frequency: "2x daily"}},
		ActorID:           7,
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if result.ExaminationID != examID || result.PatientID != 1 {
		t.Errorf("unexpected result: %+v", result)
	}

	if repo.exams[examID].EndAt == nil {
		t.Error("examination not completed")
	}
	if len(repo.diagnoses) != 1 {
		t.Errorf("diagnosis rows = %d, want 1", len(repo.diagnoses))
	}
	for _, d := range repo.diagnoses {
		if d.ClinicalDiagnosis != "flu" {
			t.Errorf("diagnosis text = %q, want flu", d.ClinicalDiagnosis)
		}
	}
	if got := symptomIDsFor(repo, examID); len(got) != 2 {
		t.Errorf("symptom rows = %d, want 2", len(got))
	}
	if len(repo.medications) != 1 {
		t.Errorf("medication rows = %d, want 1", len(repo.medications))
	}
	if repo.queue[1].status != patient.QueueCompleted {
		t.Errorf("queue status = %q, want Completed", repo.queue[1].status)
	}
}

func TestSaveCompleteExaminationNotFound(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.SaveComplete(context.Background(), SaveInput{ExaminationID: 99, ActorID: 7})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveCompleteNextAppointment(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	examID := seedOpenExamination(repo, 1)

	when := time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC)
	if _, err := svc.SaveComplete(context.Background(), SaveInput{
		ExaminationID:       examID,
		NextAppointmentDate: &when,
		ActorID:             7,
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := repo.patients[1].NextAppointment
	if got == nil || !got.Equal(when) {
		t.Errorf("next appointment = %v, want %v", got, when)
	}
}

func TestAddSymptomDuplicateRejected(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	examID := seedOpenExamination(repo, 1)

	if _, err := svc.AddSymptom(context.Background(), 1, 5, examID, 7); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := svc.AddSymptom(context.Background(), 1, 5, examID, 7)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	count := 0
	for _, s := range repo.symptoms {
		if s.PatientID == 1 && s.SymptomID == 5 && s.ExaminationID == examID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("rows for triple = %d, want exactly 1", count)
	}
}

func TestAddMedicationDuplicateRejected(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	examID := seedOpenExamination(repo, 1)

	if _, err := svc.AddMedication(context.Background(), 1, 2, examID, "500mg", "2x daily", 7); err != nil {
		t.Fatalf("first add: %v", err)
	}
	_, err := svc.AddMedication(context.Background(), 1, 2, examID, "250mg", "1x daily", 7)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestAddDiagnosisUpgradesToUpdate(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	examID := seedOpenExamination(repo, 1)

	_, outcome, err := svc.AddDiagnosis(context.Background(), examID, "common cold", "", 7)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if outcome != "created" {
		t.Errorf("outcome = %q, want created", outcome)
	}

	d, outcome, err := svc.AddDiagnosis(context.Background(), examID, "influenza", "chest x-ray", 7)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if outcome != "updated" {
		t.Errorf("outcome = %q, want updated", outcome)
	}
	if d.ClinicalDiagnosis != "influenza" {
		t.Errorf("diagnosis = %q", d.ClinicalDiagnosis)
	}
	if len(repo.diagnoses) != 1 {
		t.Errorf("diagnosis rows = %d, want 1", len(repo.diagnoses))
	}
}

func TestRemoveSymptomNotFound(t *testing.T) {
	svc, _ := setup(t)

	err := svc.RemoveSymptom(context.Background(), 99, 7)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetPatientLatestNoExamination(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)

	view, err := svc.GetPatientLatest(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Patient == nil || view.Patient.ID != 1 {
		t.Errorf("unexpected patient: %+v", view.Patient)
	}
	if view.Examination != nil {
		t.Error("expected no examination for an unexamined patient")
	}
}

func TestGetPatientLatestTieBreak(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)

	created := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		examID := repo.id()
		end := created
		repo.exams[examID] = &Examination{ID: examID, StartAt: created, EndAt: &end, CreatedAt: created}
		repo.links[examID] = 1
	}

	view, err := svc.GetPatientLatest(context.Background(), 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if view.Examination == nil {
		t.Fatal("expected an examination")
	}
	// Equal creation timestamps resolve to the higher id.
	if view.Examination.ID != 2 {
		t.Errorf("examination id = %d, want 2", view.Examination.ID)
	}
}

func TestGetPatientLatestPatientMissing(t *testing.T) {
	svc, _ := setup(t)

	_, err := svc.GetPatientLatest(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetDetail(t *testing.T) {
	svc, repo := setup(t)
	seedPatient(repo, 1)
	examID := seedOpenExamination(repo, 1)

	if _, err := svc.SaveComplete(context.Background(), SaveInput{
		ExaminationID:     examID,
		Symptoms:          []int64{5},
		ClinicalDiagnosis: "flu",
		Medications:       []MedicationInput{{MedicineID: 2, Dosage: "500mg", Frequency: "2x daily"}},
		ActorID:           7,
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	detail, err := svc.GetDetail(context.Background(), examID)
	if err != nil {
		t.Fatalf("get detail: %v", err)
	}
	if detail.PatientID != 1 || detail.EndAt == nil {
		t.Errorf("unexpected detail: %+v", detail)
	}
	if detail.Diagnosis == nil || detail.Diagnosis.ClinicalDiagnosis != "flu" {
		t.Errorf("unexpected diagnosis: %+v", detail.Diagnosis)
	}
	if len(detail.Symptoms) != 1 || len(detail.Medications) != 1 {
		t.Errorf("symptoms = %d, medications = %d", len(detail.Symptoms), len(detail.Medications))
	}
}
