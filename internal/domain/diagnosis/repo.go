package diagnosis

import (
	"context"

	"github.com/google/uuid"
)

type TemplateRepository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Replace(ctx context.Context, t *Template) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f ListFilter, limit, offset int) ([]*Template, int, error)
}

type GroupRepository interface {
	// InsertEntries writes all rows atomically.
	InsertEntries(ctx context.Context, entries []*GroupEntry) error
	// ReplaceSentinel removes the group's placeholder rows and inserts the
	// given entries in the same transaction.
	ReplaceSentinel(ctx context.Context, groupID string, entries []*GroupEntry) error
	ListByGroupID(ctx context.Context, groupID string) ([]*GroupEntry, error)
	ViewByGroupID(ctx context.Context, groupID string) (*GroupView, error)
	ViewsByCustomer(ctx context.Context, customerID string) ([]*GroupView, error)
	UpdateMeta(ctx context.Context, groupID string, name, description, updatedBy *string) (int, error)
	// SoftDeleteCascade soft-deletes the group's rows and every completion
	// record referencing the group in the same transaction. Returns the
	// number of group rows touched.
	SoftDeleteCascade(ctx context.Context, groupID string, deletedBy *string) (int, error)
	CountByGroup(ctx context.Context, groupID string) (int, error)
}

type CompletionRepository interface {
	// CountsByGroup returns completed and total live completion records.
	CountsByGroup(ctx context.Context, groupID string) (completed, total int, err error)
}
