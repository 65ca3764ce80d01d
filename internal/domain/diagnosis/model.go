package diagnosis

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/salonstack/crm/internal/domain/template"
)

// Status is the lifecycle state of a diagnosis template.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var validStatuses = map[Status]bool{
	StatusActive:   true,
	StatusInactive: true,
}

// Template maps to the diagnosis_templates table. OrgID nil means the
// template is global and delete-protected. Codes are unique across the
// whole table, not per org.
type Template struct {
	ID          uuid.UUID              `db:"id" json:"id"`
	Code        string                 `db:"code" json:"code"`
	Name        string                 `db:"name" json:"name"`
	Description *string                `db:"description" json:"description,omitempty"`
	OrgID       *string                `db:"org_id" json:"org_id,omitempty"`
	ApplyScene  string                 `db:"apply_scene" json:"apply_scene,omitempty"`
	Fields      []template.FieldSchema `db:"fields" json:"fields"`
	SortOrder   int                    `db:"sort_order" json:"sort_order"`
	Status      Status                 `db:"status" json:"status"`
	CreatedBy   *string                `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy   *string                `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt   time.Time              `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time              `db:"updated_at" json:"updated_at"`
}

// ListFilter narrows the diagnosis-template listing. With no OrgID only
// global rows are visible; with one, the org's rows plus the global set.
type ListFilter struct {
	OrgID      *string
	ApplyScene string
	Status     Status
	Search     string
}

// GroupEntry is one row of customer_diagnosis_groups. A group is the set of
// live rows sharing a GroupID. TemplateID nil marks the placeholder row that
// keeps an empty group addressable.
type GroupEntry struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	CustomerID       string     `db:"customer_id" json:"customer_id"`
	OrgID            *string    `db:"org_id" json:"org_id,omitempty"`
	GroupID          string     `db:"group_id" json:"group_id"`
	TemplateID       *uuid.UUID `db:"template_id" json:"template_id,omitempty"`
	GroupName        *string    `db:"group_name" json:"group_name,omitempty"`
	GroupDescription *string    `db:"group_description" json:"group_description,omitempty"`
	CreatedBy        *string    `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy        *string    `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// GroupTemplate is one template of a group view, enriched for display.
type GroupTemplate struct {
	EntryID     uuid.UUID              `json:"entry_id"`
	TemplateID  uuid.UUID              `json:"template_id"`
	Code        string                 `json:"code"`
	Name        string                 `json:"name"`
	Description *string                `json:"description,omitempty"`
	Fields      []template.FieldSchema `json:"fields,omitempty"`
}

// GroupView folds the live rows of one group. The placeholder row never
// appears in Templates; an empty group has an empty list.
type GroupView struct {
	GroupID          string          `json:"group_id"`
	CustomerID       string          `json:"customer_id"`
	OrgID            *string         `json:"org_id,omitempty"`
	GroupName        *string         `json:"group_name,omitempty"`
	GroupDescription *string         `json:"group_description,omitempty"`
	Templates        []GroupTemplate `json:"templates"`
	CreatedAt        time.Time       `json:"created_at"`
}

// GroupStats summarizes diagnosis progress within one group.
type GroupStats struct {
	TotalTemplates     int `json:"total_templates"`
	CompletedDiagnoses int `json:"completed_diagnoses"`
	PendingDiagnoses   int `json:"pending_diagnoses"`
}

// NewGroupID derives a group id from the owning customer. The random tail
// keeps ids generated in the same instant from colliding.
func NewGroupID(customerID string) string {
	return customerID + "_" + randomHex(12)
}

// NewCode generates a diagnosis template code.
func NewCode() string {
	return "DIAG_" + randomHex(12)
}

func randomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		return hex.EncodeToString([]byte(uuid.NewString()))[:n]
	}
	return hex.EncodeToString(buf)[:n]
}
