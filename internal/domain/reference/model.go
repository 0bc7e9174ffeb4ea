package reference

// Reference data maintained outside the clinical workflow.

type SymptomCategory struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Symptom struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	CategoryID int64  `db:"category_id" json:"categoryId"`
}

type Medicine struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
