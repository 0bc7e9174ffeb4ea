package examination

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/digidocs/digidocs/internal/domain/patient"
	"github.com/digidocs/digidocs/internal/platform/db"
)

// Service orchestrates the examination write path. Multi-table mutations run
// inside a single transaction: all writes commit together or none do.
type Service struct {
	repo Repository
	tx   db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

// Start opens an examination for a patient. When the patient already has an
// examination with a null end time it is returned unchanged, so re-entry
// never creates a duplicate. A queue entry in Waiting moves to InProgress.
func (s *Service) Start(ctx context.Context, patientID, actorID int64) (int64, error) {
	if actorID <= 0 {
		return 0, ErrNoActor
	}
	if patientID <= 0 {
		return 0, fmt.Errorf("%w: patientId is required", ErrValidation)
	}

	exists, err := s.repo.PatientExists(ctx, patientID)
	if err != nil {
		return 0, fmt.Errorf("check patient: %w", err)
	}
	if !exists {
		return 0, ErrNotFound
	}

	var examinationID int64
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		open, err := s.repo.FindOpenExaminationByPatient(ctx, patientID)
		if err != nil {
			return fmt.Errorf("find open examination: %w", err)
		}
		if open != nil {
			examinationID = open.ID
			return nil
		}

		exam := &Examination{
			StartAt:        time.Now().UTC(),
			CreatedBy:      actorID,
			LastModifiedBy: actorID,
		}
		if err := s.repo.CreateExamination(ctx, exam); err != nil {
			return fmt.Errorf("create examination: %w", err)
		}
		if err := s.repo.LinkPatient(ctx, exam.ID, patientID); err != nil {
			return fmt.Errorf("link patient: %w", err)
		}

		queueID, err := s.repo.FindQueueEntryByStatus(ctx, patientID, patient.QueueWaiting)
		if err != nil {
			return fmt.Errorf("find queue entry: %w", err)
		}
		if queueID != 0 {
			if err := s.repo.UpdateQueueStatus(ctx, queueID, patient.QueueInProgress, actorID); err != nil {
				return fmt.Errorf("update queue: %w", err)
			}
		}

		examinationID = exam.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return examinationID, nil
}

// MedicationInput is one prescription line in a save request.
type MedicationInput struct {
	MedicineID int64
	Dosage     string
	Frequency  string
}

// SaveInput carries a clinician's full set of edits for one examination.
// Empty symptom/medication lists mean "leave untouched", not "clear".
type SaveInput struct {
	ExaminationID          int64
	Symptoms               []int64
	ClinicalDiagnosis      string
	RequiredInvestigations string
	Medications            []MedicationInput
	NextAppointmentDate    *time.Time
	ActorID                int64
}

// SaveResult identifies the completed examination and its patient.
type SaveResult struct {
	ExaminationID int64 `json:"examinationId"`
	PatientID     int64 `json:"patientId"`
}

// SaveComplete applies all edits and completes the examination as one atomic
// unit. The patient id is resolved from the examination link, never from the
// client. On any failure every staged write is rolled back.
func (s *Service) SaveComplete(ctx context.Context, in SaveInput) (*SaveResult, error) {
	if in.ActorID <= 0 {
		return nil, ErrNoActor
	}
	if in.ExaminationID <= 0 {
		return nil, fmt.Errorf("%w: examinationId is required", ErrValidation)
	}

	exam, err := s.repo.GetExamination(ctx, in.ExaminationID)
	if err != nil {
		return nil, err
	}
	patientID, err := s.repo.GetExaminationPatientID(ctx, in.ExaminationID)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if len(in.Symptoms) > 0 {
			if err := s.repo.DeleteSymptomsByExamination(ctx, exam.ID); err != nil {
				return fmt.Errorf("clear symptoms: %w", err)
			}
			for _, symptomID := range in.Symptoms {
				ps := &PatientSymptom{
					PatientID:      patientID,
					SymptomID:      symptomID,
					ExaminationID:  exam.ID,
					CreatedBy:      in.ActorID,
					LastModifiedBy: in.ActorID,
				}
				if err := s.repo.AddSymptom(ctx, ps); err != nil {
					return fmt.Errorf("add symptom %d: %w", symptomID, err)
				}
			}
		}

		if strings.TrimSpace(in.ClinicalDiagnosis) != "" {
			if _, _, err := s.upsertDiagnosis(ctx, exam.ID, patientID,
				in.ClinicalDiagnosis, in.RequiredInvestigations, in.ActorID); err != nil {
				return err
			}
		}

		if len(in.Medications) > 0 {
			if err := s.repo.DeleteMedicationsByExamination(ctx, exam.ID); err != nil {
				return fmt.Errorf("clear medications: %w", err)
			}
			for _, med := range in.Medications {
				pm := &PatientMedication{
					PatientID:      patientID,
					MedicineID:     med.MedicineID,
					ExaminationID:  exam.ID,
					Dosage:         med.Dosage,
					Frequency:      med.Frequency,
					CreatedBy:      in.ActorID,
					LastModifiedBy: in.ActorID,
				}
				if err := s.repo.AddMedication(ctx, pm); err != nil {
					return fmt.Errorf("add medication %d: %w", med.MedicineID, err)
				}
			}
		}

		if in.NextAppointmentDate != nil {
			if err := s.repo.UpdatePatientNextAppointment(ctx, patientID,
				*in.NextAppointmentDate, in.ActorID); err != nil {
				return fmt.Errorf("schedule appointment: %w", err)
			}
		}

		// Completion is unconditional, even when no other field changed.
		now := time.Now().UTC()
		exam.EndAt = &now
		exam.LastModifiedBy = in.ActorID
		if err := s.repo.UpdateExamination(ctx, exam); err != nil {
			return fmt.Errorf("complete examination: %w", err)
		}

		// Queue bookkeeping is best effort; a missing entry is not an error.
		queueID, err := s.repo.FindQueueEntryByStatus(ctx, patientID, patient.QueueInProgress)
		if err != nil {
			return fmt.Errorf("find queue entry: %w", err)
		}
		if queueID != 0 {
			if err := s.repo.UpdateQueueStatus(ctx, queueID, patient.QueueCompleted, in.ActorID); err != nil {
				return fmt.Errorf("update queue: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &SaveResult{ExaminationID: exam.ID, PatientID: patientID}, nil
}

// Diagnosis upsert outcomes.
const (
	outcomeCreated = "created"
	outcomeUpdated = "updated"
)

// upsertDiagnosis updates the examination's diagnosis in place when one
// exists, otherwise inserts one. A second row is never created.
func (s *Service) upsertDiagnosis(ctx context.Context, examinationID, patientID int64, text, investigations string, actorID int64) (*Diagnosis, string, error) {
	existing, err := s.repo.GetDiagnosisByExamination(ctx, examinationID)
	if err != nil {
		return nil, "", fmt.Errorf("load diagnosis: %w", err)
	}
	if existing != nil {
		existing.ClinicalDiagnosis = text
		existing.RequiredInvestigations = investigations
		existing.LastModifiedBy = actorID
		if err := s.repo.UpdateDiagnosis(ctx, existing); err != nil {
			return nil, "", fmt.Errorf("update diagnosis: %w", err)
		}
		return existing, outcomeUpdated, nil
	}

	d := &Diagnosis{
		ExaminationID:          examinationID,
		PatientID:              patientID,
		ClinicalDiagnosis:      text,
		RequiredInvestigations: investigations,
		CreatedBy:              actorID,
		LastModifiedBy:         actorID,
	}
	if err := s.repo.CreateDiagnosis(ctx, d); err != nil {
		return nil, "", fmt.Errorf("create diagnosis: %w", err)
	}
	return d, outcomeCreated, nil
}

// AddSymptom records one symptom for an examination. An exact duplicate
// (patient, symptom, examination) triple is a conflict, not an upsert.
func (s *Service) AddSymptom(ctx context.Context, patientID, symptomID, examinationID, actorID int64) (*PatientSymptom, error) {
	if actorID <= 0 {
		return nil, ErrNoActor
	}
	if patientID <= 0 || symptomID <= 0 || examinationID <= 0 {
		return nil, fmt.Errorf("%w: patientId, symptomId and examinationId are required", ErrValidation)
	}

	if _, err := s.repo.GetExamination(ctx, examinationID); err != nil {
		return nil, err
	}
	exists, err := s.repo.SymptomExists(ctx, patientID, symptomID, examinationID)
	if err != nil {
		return nil, fmt.Errorf("check symptom: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	ps := &PatientSymptom{
		PatientID:      patientID,
		SymptomID:      symptomID,
		ExaminationID:  examinationID,
		CreatedBy:      actorID,
		LastModifiedBy: actorID,
	}
	if err := s.repo.AddSymptom(ctx, ps); err != nil {
		return nil, fmt.Errorf("add symptom: %w", err)
	}
	return ps, nil
}

func (s *Service) RemoveSymptom(ctx context.Context, id, actorID int64) error {
	if actorID <= 0 {
		return ErrNoActor
	}
	return s.repo.DeleteSymptom(ctx, id)
}

// AddDiagnosis sets the examination's diagnosis. When one already exists it
// is transparently updated in place rather than rejected.
func (s *Service) AddDiagnosis(ctx context.Context, examinationID int64, text, investigations string, actorID int64) (*Diagnosis, string, error) {
	if actorID <= 0 {
		return nil, "", ErrNoActor
	}
	if examinationID <= 0 || strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("%w: examinationId and clinicalDiagnosis are required", ErrValidation)
	}

	if _, err := s.repo.GetExamination(ctx, examinationID); err != nil {
		return nil, "", err
	}
	patientID, err := s.repo.GetExaminationPatientID(ctx, examinationID)
	if err != nil {
		return nil, "", err
	}
	return s.upsertDiagnosis(ctx, examinationID, patientID, text, investigations, actorID)
}

func (s *Service) UpdateDiagnosis(ctx context.Context, id int64, text, investigations string, actorID int64) (*Diagnosis, error) {
	if actorID <= 0 {
		return nil, ErrNoActor
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: clinicalDiagnosis is required", ErrValidation)
	}

	d, err := s.repo.GetDiagnosis(ctx, id)
	if err != nil {
		return nil, err
	}
	d.ClinicalDiagnosis = text
	d.RequiredInvestigations = investigations
	d.LastModifiedBy = actorID
	if err := s.repo.UpdateDiagnosis(ctx, d); err != nil {
		return nil, fmt.Errorf("update diagnosis: %w", err)
	}
	return d, nil
}

// AddMedication records one prescription line. An exact duplicate
// (patient, medicine, examination) triple is a conflict.
func (s *Service) AddMedication(ctx context.Context, patientID, medicineID, examinationID int64, dosage, frequency string, actorID int64) (*PatientMedication, error) {
	if actorID <= 0 {
		return nil, ErrNoActor
	}
	if patientID <= 0 || medicineID <= 0 || examinationID <= 0 {
		return nil, fmt.Errorf("%w: patientId, medicineId and examinationId are required", ErrValidation)
	}

	if _, err := s.repo.GetExamination(ctx, examinationID); err != nil {
		return nil, err
	}
	exists, err := s.repo.MedicationExists(ctx, patientID, medicineID, examinationID)
	if err != nil {
		return nil, fmt.Errorf("check medication: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	pm := &PatientMedication{
		PatientID:      patientID,
		MedicineID:     medicineID,
		ExaminationID:  examinationID,
		Dosage:         dosage,
		Frequency:      frequency,
		CreatedBy:      actorID,
		LastModifiedBy: actorID,
	}
	if err := s.repo.AddMedication(ctx, pm); err != nil {
		return nil, fmt.Errorf("add medication: %w", err)
	}
	return pm, nil
}

func (s *Service) RemoveMedication(ctx context.Context, id, actorID int64) error {
	if actorID <= 0 {
		return ErrNoActor
	}
	return s.repo.DeleteMedication(ctx, id)
}

// ScheduleAppointment overwrites the patient's next appointment.
func (s *Service) ScheduleAppointment(ctx context.Context, patientID int64, when time.Time, actorID int64) error {
	if actorID <= 0 {
		return ErrNoActor
	}
	if patientID <= 0 || when.IsZero() {
		return fmt.Errorf("%w: patientId and nextAppointmentDate are required", ErrValidation)
	}
	return s.repo.UpdatePatientNextAppointment(ctx, patientID, when, actorID)
}

// GetDetail returns the examination with its diagnosis, symptoms and
// medications joined to their reference names.
func (s *Service) GetDetail(ctx context.Context, id int64) (*Detail, error) {
	exam, err := s.repo.GetExamination(ctx, id)
	if err != nil {
		return nil, err
	}
	patientID, err := s.repo.GetExaminationPatientID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, exam, patientID)
}

// GetPatientLatest returns patient demographics plus the most recently
// created examination. A patient with no examinations yields a nil
// examination, not an error.
func (s *Service) GetPatientLatest(ctx context.Context, patientID int64) (*PatientLatest, error) {
	p, err := s.repo.GetPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	exam, err := s.repo.LatestExaminationByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("find latest examination: %w", err)
	}
	out := &PatientLatest{Patient: p}
	if exam == nil {
		return out, nil
	}

	detail, err := s.buildDetail(ctx, exam, patientID)
	if err != nil {
		return nil, err
	}
	out.Examination = detail
	return out, nil
}

func (s *Service) buildDetail(ctx context.Context, exam *Examination, patientID int64) (*Detail, error) {
	diagnosis, err := s.repo.GetDiagnosisByExamination(ctx, exam.ID)
	if err != nil {
		return nil, fmt.Errorf("load diagnosis: %w", err)
	}
	symptoms, err := s.repo.GetSymptomDetails(ctx, exam.ID)
	if err != nil {
		return nil, err
	}
	medications, err := s.repo.GetMedicationDetails(ctx, exam.ID)
	if err != nil {
		return nil, err
	}
	if symptoms == nil {
		symptoms = []SymptomDetail{}
	}
	if medications == nil {
		medications = []MedicationDetail{}
	}

	return &Detail{
		ID:          exam.ID,
		PatientID:   patientID,
		StartAt:     exam.StartAt,
		EndAt:       exam.EndAt,
		Diagnosis:   diagnosis,
		Symptoms:    symptoms,
		Medications: medications,
	}, nil
}
