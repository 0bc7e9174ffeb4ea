package patient

import (
	"time"
)

// Patient is a long-lived clinic record.
type Patient struct {
	ID              int64      `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Age             int        `db:"age" json:"age"`
	Gender          string     `db:"gender" json:"gender"`
	ChiefComplaint  string     `db:"chief_complaint" json:"chiefComplaint"`
	ChronicDisease  string     `db:"chronic_disease" json:"chronicDisease"`
	Phone           string     `db:"phone" json:"phone"`
	Address         string     `db:"address" json:"address"`
	NextAppointment *time.Time `db:"next_appointment" json:"nextAppointment,omitempty"`
	CreatedBy       int64      `db:"created_by" json:"createdBy"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	LastModifiedBy  int64      `db:"last_modified_by" json:"lastModifiedBy"`
	LastModifiedAt  time.Time  `db:"last_modified_at" json:"lastModifiedAt"`
}

// Queue statuses for the intake pipeline. A patient has at most one entry in
// a non-Completed status at a time.
const (
	QueueWaiting    = "Waiting"
	QueueInProgress = "InProgress"
	QueueCompleted  = "Completed"
)

type QueueEntry struct {
	ID             int64     `db:"id" json:"id"`
	PatientID      int64     `db:"patient_id" json:"patientId"`
	Status         string    `db:"status" json:"status"`
	CreatedBy      int64     `db:"created_by" json:"createdBy"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	LastModifiedBy int64     `db:"last_modified_by" json:"lastModifiedBy"`
	LastModifiedAt time.Time `db:"last_modified_at" json:"lastModifiedAt"`
}

// QueueItem is the queue listing projection with the patient joined in.
type QueueItem struct {
	ID             int64     `json:"id"`
	PatientID      int64     `json:"patientId"`
	PatientName    string    `json:"patientName"`
	ChiefComplaint string    `json:"chiefComplaint"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}
