package profile

import (
	"time"

	"github.com/google/uuid"

	"github.com/salonstack/crm/internal/domain/template"
)

// Record maps to the customer_profiles table. It binds one customer to one
// template with the structured answers captured against that template's
// fields. At most one live record exists per (customer, template) pair.
type Record struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	CustomerID      string         `db:"customer_id" json:"customer_id"`
	TemplateID      uuid.UUID      `db:"template_id" json:"template_id"`
	OrgID           *string        `db:"org_id" json:"org_id,omitempty"`
	ProfileData     map[string]any `db:"profile_data" json:"profile_data"`
	TemplateVersion string         `db:"template_version" json:"template_version"`
	Remark          *string        `db:"remark" json:"remark,omitempty"`
	CreatedBy       *string        `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy       *string        `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// RecordView is a record enriched with the template it was captured against,
// as returned by the customer-scoped reads.
type RecordView struct {
	Record
	TemplateName   string                 `json:"template_name"`
	TemplateCode   string                 `json:"template_code"`
	TemplateFields []template.FieldSchema `json:"template_fields,omitempty"`
}

// MergePatch carries the only fields a partial update may touch.
type MergePatch struct {
	ProfileData map[string]any `json:"profile_data"`
	Remark      *string        `json:"remark"`
	UpdatedBy   *string        `json:"-"`
}
