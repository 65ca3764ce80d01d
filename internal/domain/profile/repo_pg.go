package profile

import (
	"context"

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

const recordCols = `id, customer_id, template_id, org_id, profile_data,
	template_version, remark, created_by, updated_by, created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.CustomerID, &rec.TemplateID, &rec.OrgID, &rec.ProfileData,
		&rec.TemplateVersion, &rec.Remark, &rec.CreatedBy, &rec.UpdatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	return &rec, err
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO customer_profiles (id, customer_id, template_id, org_id, profile_data,
			template_version, remark, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.ID, rec.CustomerID, rec.TemplateID, rec.OrgID, rec.ProfileData,
		rec.TemplateVersion, rec.Remark, rec.CreatedBy, rec.UpdatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM customer_profiles WHERE id = $1 AND is_deleted = FALSE`, id))
}

func (r *repoPG) GetByPair(ctx context.Context, customerID string, templateID uuid.UUID) (*Record, error) {
	return scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM customer_profiles
		WHERE customer_id = $1 AND template_id = $2 AND is_deleted = FALSE`, customerID, templateID))
}

func (r *repoPG) ExistsPair(ctx context.Context, customerID string, templateID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customer_profiles
		WHERE customer_id = $1 AND template_id = $2 AND is_deleted = FALSE)`,
		customerID, templateID).Scan(&exists)
	return exists, err
}

// ListByCustomer joins the template so callers can render the answers next
// to the fields they answer. Deleted templates still join; the record
// outlives its template.
func (r *repoPG) ListByCustomer(ctx context.Context, customerID string) ([]*RecordView, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.id, p.customer_id, p.template_id, p.org_id, p.profile_data,
			p.template_version, p.remark, p.created_by, p.updated_by, p.created_at, p.updated_at,
			COALESCE(t.name, ''), COALESCE(t.code, ''), t.fields
		FROM customer_profiles p
		LEFT JOIN customer_profile_templates t ON t.id = p.template_id
		WHERE p.customer_id = $1 AND p.is_deleted = FALSE
		ORDER BY p.created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []*RecordView
	for rows.Next() {
		var v RecordView
		err := rows.Scan(&v.ID, &v.CustomerID, &v.TemplateID, &v.OrgID, &v.ProfileData,
			&v.TemplateVersion, &v.Remark, &v.CreatedBy, &v.UpdatedBy, &v.CreatedAt, &v.UpdatedAt,
			&v.TemplateName, &v.TemplateCode, &v.TemplateFields)
		if err != nil {
			return nil, err
		}
		views = append(views, &v)
	}
	return views, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE customer_profiles SET profile_data=$2, remark=$3, updated_by=$4, updated_at=NOW()
		WHERE id = $1 AND is_deleted = FALSE`,
		rec.ID, rec.ProfileData, rec.Remark, rec.UpdatedBy)
	return err
}

func (r *repoPG) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE customer_profiles SET is_deleted=TRUE, updated_by=$2, updated_at=NOW()
		WHERE id = $1 AND is_deleted = FALSE`, id, deletedBy)
	return err
}

type customerDirectoryPG struct{ pool *pgxpool.Pool }

func NewCustomerDirectoryPG(pool *pgxpool.Pool) CustomerDirectory {
	return &customerDirectoryPG{pool: pool}
}

func (d *customerDirectoryPG) Exists(ctx context.Context, customerID string) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND is_deleted = FALSE)`,
		customerID).Scan(&exists)
	return exists, err
}
