package masterdata

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tradedesk/tradedesk/internal/shared"
)

// Service implements list-CRUD for one record type.
type Service[T Record, I Input[T]] struct {
	repo      Repository[T]
	validator *shared.Validator
	onChange  func(context.Context)
	now       func() time.Time
}

// NewService constructs a Service. onChange, when set, runs after every
// successful write.
func NewService[T Record, I Input[T]](repo Repository[T], validator *shared.Validator, onChange func(context.Context)) *Service[T, I] {
	if validator == nil {
		validator = shared.NewValidator()
	}
	return &Service[T, I]{
		repo:      repo,
		validator: validator,
		onChange:  onChange,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// List returns one page of records and the total match count.
func (s *Service[T, I]) List(ctx context.Context, q Query) ([]T, int, error) {
	return s.repo.List(ctx, q)
}

// Get returns one record.
func (s *Service[T, I]) Get(ctx context.Context, id uuid.UUID) (T, error) {
	return s.repo.Get(ctx, id)
}

// Create validates in and stores a new record.
func (s *Service[T, I]) Create(ctx context.Context, in I) (T, error) {
	var zero T
	if err := s.validator.Struct(in); err != nil {
		return zero, err
	}
	rec, err := in.Build(uuid.New(), s.now(), nil)
	if err != nil {
		return zero, err
	}
	out, err := s.repo.Create(ctx, rec)
	if err != nil {
		return zero, err
	}
	s.changed(ctx)
	return out, nil
}

// Update validates in and replaces the record's fields.
func (s *Service[T, I]) Update(ctx context.Context, id uuid.UUID, in I) (T, error) {
	var zero T
	if err := s.validator.Struct(in); err != nil {
		return zero, err
	}
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	rec, err := in.Build(existing.Key(), existing.Created(), &existing)
	if err != nil {
		return zero, err
	}
	out, err := s.repo.Update(ctx, rec)
	if err != nil {
		return zero, err
	}
	s.changed(ctx)
	return out, nil
}

// Delete removes a record. Records still referenced by orders are refused
// with a conflict.
func (s *Service[T, I]) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.changed(ctx)
	return nil
}

func (s *Service[T, I]) changed(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}
