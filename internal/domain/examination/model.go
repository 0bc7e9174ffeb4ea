package examination

import (
	"time"
)

// Examination is one clinical encounter. A nil EndAt means the encounter is
// still in progress.
type Examination struct {
	ID             int64      `db:"id" json:"id"`
	StartAt        time.Time  `db:"start_at" json:"startAt"`
	EndAt          *time.Time `db:"end_at" json:"endAt,omitempty"`
	CreatedBy      int64      `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	LastModifiedBy int64      `db:"last_modified_by" json:"lastModifiedBy"`
	LastModifiedAt time.Time  `db:"last_modified_at" json:"lastModifiedAt"`
}

// Diagnosis holds the clinical conclusion for one examination. At most one
// row exists per examination; the write path updates in place.
type Diagnosis struct {
	ID                     int64     `db:"id" json:"id"`
	ExaminationID          int64     `db:"examination_id" json:"examinationId"`
	PatientID              int64     `db:"patient_id" json:"patientId"`
	ClinicalDiagnosis      string    `db:"clinical_diagnosis" json:"clinicalDiagnosis"`
	RequiredInvestigations string    `db:"required_investigations" json:"requiredInvestigations"`
	CreatedBy              int64     `db:"created_by" json:"createdBy"`
	CreatedAt              time.Time `db:"created_at" json:"createdAt"`
	LastModifiedBy         int64     `db:"last_modified_by" json:"lastModifiedBy"`
	LastModifiedAt         time.Time `db:"last_modified_at" json:"lastModifiedAt"`
}

// PatientSymptom links a symptom to a patient's examination. Uniqueness of
// (patient, symptom, examination) is enforced by the write path.
type PatientSymptom struct {
	ID             int64     `db:"id" json:"id"`
	PatientID      int64     `db:"patient_id" json:"patientId"`
	SymptomID      int64     `db:"symptom_id" json:"symptomId"`
	ExaminationID  int64     `db:"examination_id" json:"examinationId"`
	CreatedBy      int64     `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	LastModifiedBy int64     `db:"last_modified_by" json:"lastModifiedBy"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"lastModifiedAt"`
}

// PatientMedication links a prescribed medicine to a patient's examination.
// Uniqueness of (patient, medicine, examination) is enforced by the write path.
type PatientMedication struct {
	ID             int64     `db:"id" json:"id"`
	PatientID      int64     `db:"patient_id" json:"patientId"`
	MedicineID     int64     `db:"medicine_id" json:"medicineId"`
	ExaminationID  int64     `db:"examination_id" json:"examinationId"`
	Dosage         string    `db:"dosage" json:"dosage"`
	Frequency      string    `db:"frequency" json:"frequency"`
	CreatedBy      int64     `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	LastModifiedBy int64     `db:"last_modified_by" json:"lastModifiedBy"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"lastModifiedAt"`
}

// PatientInfo is the demographic slice of the patient record the examination
// read side needs.
type PatientInfo struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Age             int        `json:"age"`
	Gender          string     `json:"gender"`
	ChiefComplaint  string     `json:"chiefComplaint"`
	ChronicDisease  string     `json:"chronicDisease"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	NextAppointment *time.Time `json:"nextAppointment,omitempty"`
}

// SymptomDetail is a symptom row joined to its name and category name.
type SymptomDetail struct {
	ID           int64  `json:"id"`
	SymptomID    int64  `json:"symptomId"`
	SymptomName  string `json:"symptomName"`
	CategoryName string `json:"categoryName"`
}

// MedicationDetail is a medication row joined to its medicine name.
type MedicationDetail struct {
	ID           int64  `json:"id"`
	MedicineID   int64  `json:"medicineId"`
	MedicineName string `json:"medicineName"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
}

// Detail is the full examination projection.
type Detail struct {
	ID          int64              `json:"id"`
	PatientID   int64              `json:"patientId"`
	StartAt     time.Time          `json:"startAt"`
	EndAt       *time.Time         `json:"endAt,omitempty"`
	Diagnosis   *Diagnosis         `json:"diagnosis,omitempty"`
	Symptoms    []SymptomDetail    `json:"symptoms"`
	Medications []MedicationDetail `json:"medications"`
}

// PatientLatest is the patient demographics plus latest examination
// projection. Examination is nil when the patient has never been examined.
type PatientLatest struct {
	Patient     *PatientInfo `json:"patient"`
	Examination *Detail      `json:"examination,omitempty"`
}
