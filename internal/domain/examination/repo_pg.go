package examination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digidocs/digidocs/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const examCols = `id, start_at, end_at, created_by, created_at, last_modified_by, last_modified_at`

const examColsE = `e.id, e.start_at, e.end_at, e.created_by, e.created_at, e.last_modified_by, e.last_modified_at`

func (r *repoPG) GetExamination(ctx context.Context, id int64) (*Examination, error) {
	e, err := scanExamination(r.conn(ctx).QueryRow(ctx,
		`SELECT `+examCols+` FROM examination WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

func (r *repoPG) GetExaminationPatientID(ctx context.Context, examinationID int64) (int64, error) {
	var patientID int64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT patient_id FROM examination_patient
		WHERE examination_id = $1
		ORDER BY patient_id
		LIMIT 1`, examinationID).Scan(&patientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	return patientID, err
}

func (r *repoPG) FindOpenExaminationByPatient(ctx context.Context, patientID int64) (*Examination, error) {
	e, err := scanExamination(r.conn(ctx).QueryRow(ctx, `
		SELECT `+examColsE+`
		FROM examination e
		JOIN examination_patient ep ON ep.examination_id = e.id
		WHERE ep.patient_id = $1 AND e.end_at IS NULL
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *repoPG) CreateExamination(ctx context.Context, e *Examination) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO examination (start_at, end_at, created_by, last_modified_by)
		VALUES ($1, $2, $3, $3)
		RETURNING id, created_at, last_modified_at`,
		e.StartAt, e.EndAt, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.LastModifiedAt)
}

func (r *repoPG) LinkPatient(ctx context.Context, examinationID, patientID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO examination_patient (examination_id, patient_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, examinationID, patientID)
	return err
}

func (r *repoPG) UpdateExamination(ctx context.Context, e *Examination) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE examination SET
			start_at = $1, end_at = $2, last_modified_by = $3, last_modified_at = now()
		WHERE id = $4`,
		e.StartAt, e.EndAt, e.LastModifiedBy, e.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) LatestExaminationByPatient(ctx context.Context, patientID int64) (*Examination, error) {
	e, err := scanExamination(r.conn(ctx).QueryRow(ctx, `
		SELECT `+examColsE+`
		FROM examination e
		JOIN examination_patient ep ON ep.examination_id = e.id
		WHERE ep.patient_id = $1
		ORDER BY e.created_at DESC, e.id DESC
		LIMIT 1`, patientID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

const diagnosisCols = `id, examination_id, patient_id, clinical_diagnosis, required_investigations,
	created_by, created_at, last_modified_by, last_modified_at`

func (r *repoPG) GetDiagnosisByExamination(ctx context.Context, examinationID int64) (*Diagnosis, error) {
	d, err := scanDiagnosis(r.conn(ctx).QueryRow(ctx,
		`SELECT `+diagnosisCols+` FROM diagnosis WHERE examination_id = $1`, examinationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *repoPG) GetDiagnosis(ctx context.Context, id int64) (*Diagnosis, error) {
	d, err := scanDiagnosis(r.conn(ctx).QueryRow(ctx,
		`SELECT `+diagnosisCols+` FROM diagnosis WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func (r *repoPG) CreateDiagnosis(ctx context.Context, d *Diagnosis) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO diagnosis (examination_id, patient_id, clinical_diagnosis,
			required_investigations, created_by, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id, created_at, last_modified_at`,
		d.ExaminationID, d.PatientID, d.ClinicalDiagnosis, d.RequiredInvestigations, d.CreatedBy,
	).Scan(&d.ID, &d.CreatedAt, &d.LastModifiedAt)
}

func (r *repoPG) UpdateDiagnosis(ctx context.Context, d *Diagnosis) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE diagnosis SET
			clinical_diagnosis = $1, required_investigations = $2,
			last_modified_by = $3, last_modified_at = now()
		WHERE id = $4`,
		d.ClinicalDiagnosis, d.RequiredInvestigations, d.LastModifiedBy, d.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) SymptomExists(ctx context.Context, patientID, symptomID, examinationID int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM patient_symptom
			WHERE patient_id = $1 AND symptom_id = $2 AND examination_id = $3
		)`, patientID, symptomID, examinationID).Scan(&exists)
	return exists, err
}

func (r *repoPG) AddSymptom(ctx context.Context, s *PatientSymptom) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_symptom (patient_id, symptom_id, examination_id, created_by, last_modified_by)
		VALUES ($1, $2, $3, $4, $4)
		RETURNING id, created_at, last_modified_at`,
		s.PatientID, s.SymptomID, s.ExaminationID, s.CreatedBy,
	).Scan(&s.ID, &s.CreatedAt, &s.LastModifiedAt)
}

func (r *repoPG) DeleteSymptom(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_symptom WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteSymptomsByExamination(ctx context.Context, examinationID int64) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM patient_symptom WHERE examination_id = $1`, examinationID)
	return err
}

func (r *repoPG) GetSymptomDetails(ctx context.Context, examinationID int64) ([]SymptomDetail, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT ps.id, ps.symptom_id, s.name, sc.name
		FROM patient_symptom ps
		JOIN symptom s ON s.id = ps.symptom_id
		JOIN symptom_category sc ON sc.id = s.category_id
		WHERE ps.examination_id = $1
		ORDER BY ps.id`, examinationID)
	if err != nil {
		return nil, fmt.Errorf("load symptoms: %w", err)
	}
	defer rows.Close()

	var out []SymptomDetail
	for rows.Next() {
		var d SymptomDetail
		if err := rows.Scan(&d.ID, &d.SymptomID, &d.SymptomName, &d.CategoryName); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repoPG) MedicationExists(ctx context.Context, patientID, medicineID, examinationID int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM patient_medication
			WHERE patient_id = $1 AND medicine_id = $2 AND examination_id = $3
		)`, patientID, medicineID, examinationID).Scan(&exists)
	return exists, err
}

func (r *repoPG) AddMedication(ctx context.Context, m *PatientMedication) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_medication (patient_id, medicine_id, examination_id,
			dosage, frequency, created_by, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id, created_at, last_modified_at`,
		m.PatientID, m.MedicineID, m.ExaminationID, m.Dosage, m.Frequency, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt, &m.LastModifiedAt)
}

func (r *repoPG) DeleteMedication(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_medication WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) DeleteMedicationsByExamination(ctx context.Context, examinationID int64) error {
	_, err := r.conn(ctx).Exec(ctx,
		`DELETE FROM patient_medication WHERE examination_id = $1`, examinationID)
	return err
}

func (r *repoPG) GetMedicationDetails(ctx context.Context, examinationID int64) ([]MedicationDetail, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT pm.id, pm.medicine_id, m.name, pm.dosage, pm.frequency
		FROM patient_medication pm
		JOIN medicine m ON m.id = pm.medicine_id
		WHERE pm.examination_id = $1
		ORDER BY pm.id`, examinationID)
	if err != nil {
		return nil, fmt.Errorf("load medications: %w", err)
	}
	defer rows.Close()

	var out []MedicationDetail
	for rows.Next() {
		var d MedicationDetail
		if err := rows.Scan(&d.ID, &d.MedicineID, &d.MedicineName, &d.Dosage, &d.Frequency); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repoPG) PatientExists(ctx context.Context, patientID int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM patient WHERE id = $1)`, patientID).Scan(&exists)
	return exists, err
}

func (r *repoPG) GetPatient(ctx context.Context, patientID int64) (*PatientInfo, error) {
	var p PatientInfo
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, name, age, gender, chief_complaint, chronic_disease, phone, address, next_appointment
		FROM patient WHERE id = $1`, patientID,
	).Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.ChiefComplaint,
		&p.ChronicDisease, &p.Phone, &p.Address, &p.NextAppointment)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) UpdatePatientNextAppointment(ctx context.Context, patientID int64, when time.Time, actorID int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			next_appointment = $1, last_modified_by = $2, last_modified_at = now()
		WHERE id = $3`, when, actorID, patientID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) FindQueueEntryByStatus(ctx context.Context, patientID int64, status string) (int64, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id FROM patient_queue
		WHERE patient_id = $1 AND status = $2
		ORDER BY id DESC
		LIMIT 1`, patientID, status).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func (r *repoPG) UpdateQueueStatus(ctx context.Context, queueID int64, status string, actorID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_queue SET
			status = $1, last_modified_by = $2, last_modified_at = now()
		WHERE id = $3`, status, actorID, queueID)
	return err
}

func scanExamination(row pgx.Row) (*Examination, error) {
	var e Examination
	err := row.Scan(&e.ID, &e.StartAt, &e.EndAt,
		&e.CreatedBy, &e.CreatedAt, &e.LastModifiedBy, &e.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(&d.ID, &d.ExaminationID, &d.PatientID,
		&d.ClinicalDiagnosis, &d.RequiredInvestigations,
		&d.CreatedBy, &d.CreatedAt, &d.LastModifiedBy, &d.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

