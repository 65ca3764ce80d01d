package template

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	ExistsByCode(ctx context.Context, orgID *string, code string) (bool, error)
	Replace(ctx context.Context, t *Template) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Template, int, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context, orgID *string) (*Stats, error)
}
