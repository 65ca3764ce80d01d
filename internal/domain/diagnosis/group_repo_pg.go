package diagnosis

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salonstack/crm/internal/platform/db"
)

type groupRepoPG struct{ pool *pgxpool.Pool }

func NewGroupRepoPG(pool *pgxpool.Pool) GroupRepository {
	return &groupRepoPG{pool: pool}
}

const groupEntryCols = `id, customer_id, org_id, group_id, template_id,
	group_name, group_description, created_by, updated_by, created_at, updated_at`

func (r *groupRepoPG) insertEntry(ctx context.Context, e *GroupEntry) error {
	e.ID = uuid.New()
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO customer_diagnosis_groups (id, customer_id, org_id, group_id, template_id,
			group_name, group_description, created_by, updated_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.CustomerID, e.OrgID, e.GroupID, e.TemplateID,
		e.GroupName, e.GroupDescription, e.CreatedBy, e.UpdatedBy)
	return err
}

func (r *groupRepoPG) InsertEntries(ctx context.Context, entries []*GroupEntry) error {
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		for _, e := range entries {
			if err := r.insertEntry(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceSentinel runs the placeholder delete and the inserts as one unit so
// a crash between them cannot leave the group both empty-marked and filled.
func (r *groupRepoPG) ReplaceSentinel(ctx context.Context, groupID string, entries []*GroupEntry) error {
	return db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		_, err := conn(ctx, r.pool).Exec(ctx, `
			DELETE FROM customer_diagnosis_groups
			WHERE group_id = $1 AND template_id IS NULL`, groupID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := r.insertEntry(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *groupRepoPG) ListByGroupID(ctx context.Context, groupID string) ([]*GroupEntry, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+groupEntryCols+` FROM customer_diagnosis_groups
		WHERE group_id = $1 AND is_deleted = FALSE ORDER BY created_at ASC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*GroupEntry
	for rows.Next() {
		var e GroupEntry
		err := rows.Scan(&e.ID, &e.CustomerID, &e.OrgID, &e.GroupID, &e.TemplateID,
			&e.GroupName, &e.GroupDescription, &e.CreatedBy, &e.UpdatedBy, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *groupRepoPG) ViewByGroupID(ctx context.Context, groupID string) (*GroupView, error) {
	views, err := r.queryViews(ctx,
		`WHERE g.group_id = $1 AND g.is_deleted = FALSE`, groupID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, nil
	}
	return views[0], nil
}

func (r *groupRepoPG) ViewsByCustomer(ctx context.Context, customerID string) ([]*GroupView, error) {
	return r.queryViews(ctx,
		`WHERE g.customer_id = $1 AND g.is_deleted = FALSE`, customerID)
}

// queryViews folds raw rows into one view per group id. The placeholder row
// contributes the group metadata but never a Templates element.
func (r *groupRepoPG) queryViews(ctx context.Context, where string, arg interface{}) ([]*GroupView, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT g.id, g.customer_id, g.org_id, g.group_id, g.template_id,
			g.group_name, g.group_description, g.created_at,
			COALESCE(t.code, ''), COALESCE(t.name, ''), t.description, t.fields
		FROM customer_diagnosis_groups g
		LEFT JOIN diagnosis_templates t ON t.id = g.template_id
		`+where+`
		ORDER BY g.created_at ASC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byGroup := map[string]*GroupView{}
	var order []string
	for rows.Next() {
		var e GroupEntry
		var gt GroupTemplate
		var tplDesc *string
		err := rows.Scan(&e.ID, &e.CustomerID, &e.OrgID, &e.GroupID, &e.TemplateID,
			&e.GroupName, &e.GroupDescription, &e.CreatedAt,
			&gt.Code, &gt.Name, &tplDesc, &gt.Fields)
		if err != nil {
			return nil, err
		}

		v, ok := byGroup[e.GroupID]
		if !ok {
			v = &GroupView{
				GroupID:          e.GroupID,
				CustomerID:       e.CustomerID,
				OrgID:            e.OrgID,
				GroupName:        e.GroupName,
				GroupDescription: e.GroupDescription,
				Templates:        []GroupTemplate{},
				CreatedAt:        e.CreatedAt,
			}
			byGroup[e.GroupID] = v
			order = append(order, e.GroupID)
		}
		if e.TemplateID != nil {
			gt.EntryID = e.ID
			gt.TemplateID = *e.TemplateID
			gt.Description = tplDesc
			v.Templates = append(v.Templates, gt)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	views := make([]*GroupView, 0, len(order))
	for _, gid := range order {
		views = append(views, byGroup[gid])
	}
	return views, nil
}

func (r *groupRepoPG) UpdateMeta(ctx context.Context, groupID string, name, description, updatedBy *string) (int, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		UPDATE customer_diagnosis_groups
		SET group_name = COALESCE($2, group_name),
			group_description = COALESCE($3, group_description),
			updated_by = $4, updated_at = NOW()
		WHERE group_id = $1 AND is_deleted = FALSE`,
		groupID, name, description, updatedBy)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// SoftDeleteCascade retires the group and its completion records together.
func (r *groupRepoPG) SoftDeleteCascade(ctx context.Context, groupID string, deletedBy *string) (int, error) {
	var affected int
	err := db.RunInTx(ctx, r.pool, func(ctx context.Context) error {
		tag, err := conn(ctx, r.pool).Exec(ctx, `
			UPDATE customer_diagnosis_groups
			SET is_deleted = TRUE, updated_by = $2, updated_at = NOW()
			WHERE group_id = $1 AND is_deleted = FALSE`, groupID, deletedBy)
		if err != nil {
			return err
		}
		affected = int(tag.RowsAffected())
		if affected == 0 {
			return nil
		}
		_, err = conn(ctx, r.pool).Exec(ctx, `
			UPDATE customer_diagnoses
			SET is_deleted = TRUE, updated_by = $2, updated_at = NOW()
			WHERE group_id = $1 AND is_deleted = FALSE`, groupID, deletedBy)
		return err
	})
	return affected, err
}

func (r *groupRepoPG) CountByGroup(ctx context.Context, groupID string) (int, error) {
	var count int
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FROM customer_diagnosis_groups
		WHERE group_id = $1 AND is_deleted = FALSE`, groupID).Scan(&count)
	return count, err
}

type completionRepoPG struct{ pool *pgxpool.Pool }

func NewCompletionRepoPG(pool *pgxpool.Pool) CompletionRepository {
	return &completionRepoPG{pool: pool}
}

func (r *completionRepoPG) CountsByGroup(ctx context.Context, groupID string) (int, int, error) {
	var completed, total int
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*) FILTER (WHERE status = 'completed'), COUNT(*)
		FROM customer_diagnoses
		WHERE group_id = $1 AND is_deleted = FALSE`, groupID).Scan(&completed, &total)
	return completed, total, err
}
