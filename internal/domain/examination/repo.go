package examination

import (
	"context"
	"time"
)

// Repository is the persistence surface for the examination write and read
// paths. Mutating methods honor a transaction bound to the context.
type Repository interface {
	GetExamination(ctx context.Context, id int64) (*Examination, error)
	// GetExaminationPatientID resolves the patient linked to an examination.
	// ErrNotFound when the examination has no linked patient.
	GetExaminationPatientID(ctx context.Context, examinationID int64) (int64, error)
	// FindOpenExaminationByPatient returns the patient's examination with a
	// null end time, or nil, nil when none is open.
	FindOpenExaminationByPatient(ctx context.Context, patientID int64) (*Examination, error)
	CreateExamination(ctx context.Context, e *Examination) error
	LinkPatient(ctx context.Context, examinationID, patientID int64) error
	UpdateExamination(ctx context.Context, e *Examination) error
	// LatestExaminationByPatient returns the most recently created linked
	// examination, or nil, nil when the patient has none.
	LatestExaminationByPatient(ctx context.Context, patientID int64) (*Examination, error)

	// GetDiagnosisByExamination returns nil, nil when the examination has no
	// diagnosis yet.
	GetDiagnosisByExamination(ctx context.Context, examinationID int64) (*Diagnosis, error)
	GetDiagnosis(ctx context.Context, id int64) (*Diagnosis, error)
	CreateDiagnosis(ctx context.Context, d *Diagnosis) error
	UpdateDiagnosis(ctx context.Context, d *Diagnosis) error

	SymptomExists(ctx context.Context, patientID, symptomID, examinationID int64) (bool, error)
	AddSymptom(ctx context.Context, s *PatientSymptom) error
	DeleteSymptom(ctx context.Context, id int64) error
	DeleteSymptomsByExamination(ctx context.Context, examinationID int64) error
	GetSymptomDetails(ctx context.Context, examinationID int64) ([]SymptomDetail, error)

	MedicationExists(ctx context.Context, patientID, medicineID, examinationID int64) (bool, error)
	AddMedication(ctx context.Context, m *PatientMedication) error
	DeleteMedication(ctx context.Context, id int64) error
	DeleteMedicationsByExamination(ctx context.Context, examinationID int64) error
	GetMedicationDetails(ctx context.Context, examinationID int64) ([]MedicationDetail, error)

	PatientExists(ctx context.Context, patientID int64) (bool, error)
	GetPatient(ctx context.Context, patientID int64) (*PatientInfo, error)
	UpdatePatientNextAppointment(ctx context.Context, patientID int64, when time.Time, actorID int64) error

	// FindQueueEntryByStatus returns the id of the patient's queue entry in
	// the given status, or 0 when none exists.
	FindQueueEntryByStatus(ctx context.Context, patientID int64, status string) (int64, error)
	UpdateQueueStatus(ctx context.Context, queueID int64, status string, actorID int64) error
}
