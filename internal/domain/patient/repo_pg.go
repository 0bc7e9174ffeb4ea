package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/digidocs/digidocs/internal/platform/db"
	"github.com/digidocs/digidocs/pkg/pagination"
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

const patientCols = `id, name, age, gender, chief_complaint, chronic_disease, phone, address,
	next_appointment, created_by, created_at, last_modified_by, last_modified_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient (name, age, gender, chief_complaint, chronic_disease,
			phone, address, next_appointment, created_by, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id, created_at, last_modified_at`,
		p.Name, p.Age, p.Gender, p.ChiefComplaint, p.ChronicDisease,
		p.Phone, p.Address, p.NextAppointment, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.LastModifiedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *repoPG) List(ctx context.Context, params pagination.Params) ([]*Patient, int64, error) {
	q := r.conn(ctx)

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count patients: %w", err)
	}

	rows, err := q.Query(ctx, `
		SELECT `+patientCols+` FROM patient
		ORDER BY id
		LIMIT $1 OFFSET $2`, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET
			name = $1, age = $2, gender = $3, chief_complaint = $4,
			chronic_disease = $5, phone = $6, address = $7, next_appointment = $8,
			last_modified_by = $9, last_modified_at = now()
		WHERE id = $10`,
		p.Name, p.Age, p.Gender, p.ChiefComplaint,
		p.ChronicDisease, p.Phone, p.Address, p.NextAppointment,
		p.LastModifiedBy, p.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) FindOpenQueueEntry(ctx context.Context, patientID int64) (*QueueEntry, error) {
	var e QueueEntry
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, status, created_by, created_at, last_modified_by, last_modified_at
		FROM patient_queue
		WHERE patient_id = $1 AND status IN ($2, $3)
		ORDER BY id DESC
		LIMIT 1`, patientID, QueueWaiting, QueueInProgress,
	).Scan(&e.ID, &e.PatientID, &e.Status, &e.CreatedBy, &e.CreatedAt, &e.LastModifiedBy, &e.LastModifiedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repoPG) CreateQueueEntry(ctx context.Context, e *QueueEntry) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_queue (patient_id, status, created_by, last_modified_by)
		VALUES ($1, $2, $3, $3)
		RETURNING id, created_at, last_modified_at`,
		e.PatientID, e.Status, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.LastModifiedAt)
}

func (r *repoPG) ListQueue(ctx context.Context) ([]*QueueItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT q.id, q.patient_id, p.name, p.chief_complaint, q.status, q.created_at
		FROM patient_queue q
		JOIN patient p ON p.id = q.patient_id
		WHERE q.status IN ($1, $2)
		ORDER BY q.created_at, q.id`, QueueWaiting, QueueInProgress)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}
	defer rows.Close()

	var out []*QueueItem
	for rows.Next() {
		var item QueueItem
		if err := rows.Scan(&item.ID, &item.PatientID, &item.PatientName,
			&item.ChiefComplaint, &item.Status, &item.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.ChiefComplaint,
		&p.ChronicDisease, &p.Phone, &p.Address, &p.NextAppointment,
		&p.CreatedBy, &p.CreatedAt, &p.LastModifiedBy, &p.LastModifiedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
