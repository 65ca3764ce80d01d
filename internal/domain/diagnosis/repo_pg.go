package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonstack/crm/internal/platform/db"
	"github.com/salonstack/crm/pkg/apperr"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func conn(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return pool
}

type templateRepoPG struct{ pool *pgxpool.Pool }

func NewTemplateRepoPG(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepoPG{pool: pool}
}

const diagTemplateCols = `id, code, name, description, org_id, apply_scene,
	fields, sort_order, status, created_by, updated_by, created_at, updated_at`

func scanDiagTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Code, &t.Name, &t.Description, &t.OrgID, &t.ApplyScene,
		&t.Fields, &t.SortOrder, &t.Status, &t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt)
	return &t, err
}

func (r *templateRepoPG) Create(ctx context.Context, t *Template) error {
	t.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO diagnosis_templates (id, code, name, description, org_id, apply_scene,
			fields, sort_order, status, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		t.ID, t.Code, t.Name, t.Description, t.OrgID, t.ApplyScene,
		t.Fields, t.SortOrder, t.Status, t.CreatedBy, t.UpdatedBy)
	return err
}

func (r *templateRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	return scanDiagTemplate(conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+diagTemplateCols+` FROM diagnosis_templates WHERE id = $1 AND is_deleted = FALSE`, id))
}

func (r *templateRepoPG) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM diagnosis_templates WHERE code = $1 AND is_deleted = FALSE)`,
		code).Scan(&exists)
	return exists, err
}

func (r *templateRepoPG) Replace(ctx context.Context, t *Template) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE diagnosis_templates SET code=$2, name=$3, description=$4, apply_scene=$5,
			fields=$6, sort_order=$7, status=$8, updated_by=$9, updated_at=NOW()
		WHERE id = $1 AND is_deleted = FALSE`,
		t.ID, t.Code, t.Name, t.Description, t.ApplyScene,
		t.Fields, t.SortOrder, t.Status, t.UpdatedBy)
	return err
}

func (r *templateRepoPG) HardDelete(ctx context.Context, id uuid.UUID) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM diagnosis_templates WHERE id = $1`, id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return apperr.Conflict("diagnosis template is referenced by existing diagnosis records")
	}
	return err
}

func (r *templateRepoPG) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Template, int, error) {
	where := `WHERE is_deleted = FALSE`
	args := []interface{}{}
	idx := 1

	if f.OrgID != nil {
		where += fmt.Sprintf(` AND (org_id = $%d OR org_id IS NULL)`, idx)
		args = append(args, *f.OrgID)
		idx++
	} else {
		where += ` AND org_id IS NULL`
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
	if err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT COUNT(*) FROM diagnosis_templates `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM diagnosis_templates %s
		ORDER BY sort_order ASC, created_at DESC LIMIT $%d OFFSET $%d`,
		diagTemplateCols, where, idx, idx+1)
	rows, err := conn(ctx, r.pool).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Template
	for rows.Next() {
		t, err := scanDiagTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
