package profile

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, rec *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	GetByPair(ctx context.Context, customerID string, templateID uuid.UUID) (*Record, error)
	ExistsPair(ctx context.Context, customerID string, templateID uuid.UUID) (bool, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*RecordView, error)
	Update(ctx context.Context, rec *Record) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error
}

// CustomerDirectory answers whether a customer is live. Records are never
// created against deleted or unknown customers.
type CustomerDirectory interface {
	Exists(ctx context.Context, customerID string) (bool, error)
}
