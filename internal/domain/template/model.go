package template

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// Scope is the visibility tier of a template.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeOrg     Scope = "org"
	ScopePrivate Scope = "private"
)

var validScopes = map[Scope]bool{
	ScopeGlobal:  true,
	ScopeOrg:     true,
	ScopePrivate: true,
}

// Status is the lifecycle state of a template.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusDraft    Status = "draft"
)

var validStatuses = map[Status]bool{
	StatusActive:   true,
	StatusInactive: true,
	StatusDraft:    true,
}

var validApplyScenes = map[string]bool{
	"all":             true,
	"new_customer":    true,
	"vip_customer":    true,
	"online_register": true,
	"other":           true,
}

// FieldGroup names one display section and its position.
type FieldGroup struct {
	GroupName    string `json:"group_name"`
	DisplayOrder int    `json:"display_order"`
}

// Template maps to the customer_profile_templates table. OrgID nil means the
// template is global.
type Template struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	Code        string        `db:"code" json:"code"`
	Name        string        `db:"name" json:"name"`
	Description *string       `db:"description" json:"description,omitempty"`
	OrgID       *string       `db:"org_id" json:"org_id,omitempty"`
	Scope       Scope         `db:"scope" json:"scope"`
	ApplyScene  string        `db:"apply_scene" json:"apply_scene"`
	Fields      []FieldSchema `db:"fields" json:"fields"`
	FieldGroups []FieldGroup  `db:"field_groups" json:"field_groups,omitempty"`
	Version     string        `db:"version" json:"version"`
	IsDefault   bool          `db:"is_default" json:"is_default"`
	UsageCount  int           `db:"usage_count" json:"usage_count"`
	Status      Status        `db:"status" json:"status"`
	CreatedBy   *string       `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy   *string       `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// ListFilter narrows the visible-template listing.
type ListFilter struct {
	OrgID      *string
	Scope      Scope
	ApplyScene string
	Status     Status
	Search     string
}

// Stats summarizes the caller's visible template set.
type Stats struct {
	Total      int `json:"total"`
	Active     int `json:"active"`
	Inactive   int `json:"inactive"`
	Draft      int `json:"draft"`
	TotalUsage int `json:"total_usage"`
}

// NewCode generates a template code. Random hex rather than a timestamp so
// two codes generated in the same instant never collide.
func NewCode() string {
	return "TPL_" + randomHex(12)
}

// DuplicateCode derives a copy code from a source code.
func DuplicateCode(source string) string {
	return source + "_COPY_" + randomHex(8)
}

func randomHex(n int) string {
	buf := make([]byte, (n+1)/2)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a uuid
		return hex.EncodeToString([]byte(uuid.NewString()))[:n]
	}
	return hex.EncodeToString(buf)[:n]
}
