package patient

import (
	"context"
	"fmt"
	"strings"

	"github.com/digidocs/digidocs/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput carries the writable patient fields plus the acting user.
type CreateInput struct {
	Name           string
	Age            int
	Gender         string
	ChiefComplaint string
	ChronicDisease string
	Phone          string
	Address        string
	ActorID        int64
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	if in.ActorID <= 0 {
		return nil, ErrNoActor
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", ErrValidation)
	}

	p := &Patient{
		Name:           in.Name,
		Age:            in.Age,
		Gender:         in.Gender,
		ChiefComplaint: in.ChiefComplaint,
		ChronicDisease: in.ChronicDisease,
		Phone:          in.Phone,
		Address:        in.Address,
		CreatedBy:      in.ActorID,
		LastModifiedBy: in.ActorID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, params pagination.Params) ([]*Patient, int64, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Update(ctx context.Context, id int64, in CreateInput) (*Patient, error) {
	if in.ActorID <= 0 {
		return nil, ErrNoActor
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = in.Name
	p.Age = in.Age
	p.Gender = in.Gender
	p.ChiefComplaint = in.ChiefComplaint
	p.ChronicDisease = in.ChronicDisease
	p.Phone = in.Phone
	p.Address = in.Address
	p.LastModifiedBy = in.ActorID
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return p, nil
}

// Enqueue adds the patient to the intake queue as Waiting. A patient with an
// entry still in Waiting or InProgress cannot be queued again.
func (s *Service) Enqueue(ctx context.Context, patientID, actorID int64) (*QueueEntry, error) {
	if actorID <= 0 {
		return nil, ErrNoActor
	}
	if _, err := s.repo.GetByID(ctx, patientID); err != nil {
		return nil, err
	}

	open, err := s.repo.FindOpenQueueEntry(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("check queue: %w", err)
	}
	if open != nil {
		return nil, ErrConflict
	}

	entry := &QueueEntry{
		PatientID:      patientID,
		Status:         QueueWaiting,
		CreatedBy:      actorID,
		LastModifiedBy: actorID,
	}
	if err := s.repo.CreateQueueEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("enqueue patient: %w", err)
	}
	return entry, nil
}

func (s *Service) Queue(ctx context.Context) ([]*QueueItem, error) {
	return s.repo.ListQueue(ctx)
}
