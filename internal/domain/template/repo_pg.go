package template

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonstack/crm/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const templateCols = `id, code, name, description, org_id, scope, apply_scene,
	fields, field_groups, version, is_default, usage_count, status,
	created_by, updated_by, created_at, updated_at`

func (r *repoPG) scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Description, &t.OrgID, &t.Scope, &t.ApplyScene,
		&t.Fields, &t.FieldGroups, &t.Version, &t.IsDefault, &t.UsageCount, &t.Status,
		&t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Template) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO customer_profile_templates (id, code, name, description, org_id, scope,
			apply_scene, fields, field_groups, version, is_default, usage_count, status, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		t.ID, t.Code, t.Name, t.Description, t.OrgID, t.Scope,
		t.ApplyScene, t.Fields, t.FieldGroups, t.Version, t.IsDefault, t.UsageCount, t.Status, t.CreatedBy, t.UpdatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	return r.scanTemplate(r.conn(ctx).QueryRow(ctx,
		`SELECT `+templateCols+` FROM customer_profile_templates WHERE id = $1 AND is_deleted = FALSE`, id))
}

func (r *repoPG) ExistsByCode(ctx context.Context, orgID *string, code string) (bool, error) {
	var exists bool
	var err error
	if orgID == nil {
		err = r.conn(ctx).QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM customer_profile_templates WHERE org_id IS NULL AND code = $1 AND is_deleted = FALSE)`,
			code).Scan(&exists)
	} else {
		err = r.conn(ctx).QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM customer_profile_templates WHERE org_id = $1 AND code = $2 AND is_deleted = FALSE)`,
			*orgID, code).Scan(&exists)
	}
	return exists, err
}

func (r *repoPG) Replace(ctx context.Context, t *Template) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE customer_profile_templates SET code=$2, name=$3, description=$4, scope=$5,
			apply_scene=$6, fields=$7, field_groups=$8, version=$9, is_default=$10,
			status=$11, updated_by=$12, updated_at=NOW()
		WHERE id = $1 AND is_deleted = FALSE`,
		t.ID, t.Code, t.Name, t.Description, t.Scope,
		t.ApplyScene, t.Fields, t.FieldGroups, t.Version, t.IsDefault,
		t.Status, t.UpdatedBy)
	return err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE customer_profile_templates SET status=$2, updated_at=NOW()
		WHERE id = $1 AND is_deleted = FALSE`, id, status)
	return err
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE customer_profile_templates SET is_deleted=TRUE, updated_by=$2, updated_at=NOW()
		WHERE id = $1 AND is_deleted = FALSE`, id, deletedBy)
	return err
}

func (r *repoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Template, int, error) {
	where := `WHERE is_deleted = FALSE`
	args := []interface{}{}
	idx := 1

	if f.OrgID != nil {
		where += fmt.Sprintf(` AND (org_id = $%d OR scope = 'global')`, idx)
		args = append(args, *f.OrgID)
		idx++
	}
	if f.Scope != "" {
		where += fmt.Sprintf(` AND scope = $%d`, idx)
		args = append(args, f.Scope)
		idx++
	}
	if f.ApplyScene != "" {
		where += fmt.Sprintf(` AND apply_scene = $%d`, idx)
		args = append(args, f.ApplyScene)
		idx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, f.Status)
		idx++
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		where += fmt.Sprintf(` AND (code ILIKE $%d OR name ILIKE $%d)`, idx, idx)
		args = append(args, "%"+s+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM customer_profile_templates `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM customer_profile_templates %s
		ORDER BY is_default DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		templateCols, where, idx, idx+1)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Template
	for rows.Next() {
		t, err := r.scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE customer_profile_templates SET usage_count = usage_count + 1, updated_at=NOW()
		WHERE id = $1 AND is_deleted = FALSE`, id)
	return err
}

func (r *repoPG) Stats(ctx context.Context, orgID *string) (*Stats, error) {
	where := `WHERE is_deleted = FALSE`
	args := []interface{}{}
	if orgID != nil {
		where += ` AND (org_id = $1 OR scope = 'global')`
		args = append(args, *orgID)
	}

	var s Stats
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'inactive'),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COALESCE(SUM(usage_count), 0)
		FROM customer_profile_templates `+where, args...).
		Scan(&s.Total, &s.Active, &s.Inactive, &s.Draft, &s.TotalUsage)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
