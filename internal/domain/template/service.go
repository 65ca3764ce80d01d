package template

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/salonstack/crm/pkg/apperr"
)

type Service struct {
	templates Repository
}

func NewService(templates Repository) *Service {
	return &Service{templates: templates}
}

// List applies the visibility rule: an org sees its own templates plus every
// global one, narrowed by the optional filters.
func (s *Service) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Template, int, error) {
	items, total, err := s.templates.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal("list templates", err)
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("template not found")
		}
		return nil, apperr.Internal("get template", err)
	}
	return t, nil
}

func (s *Service) Create(ctx context.Context, t *Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperr.Validation("name is required")
	}
	if t.Fields == nil {
		return apperr.Validation("fields is required (may be empty)")
	}
	if err := ValidateFields(t.Fields); err != nil {
		return err
	}

	if t.Scope == "" {
		t.Scope = ScopeOrg
	}
	if !validScopes[t.Scope] {
		return apperr.Validation("invalid scope: %s", t.Scope)
	}
	if t.Scope == ScopeGlobal && t.OrgID != nil {
		return apperr.Validation("a global template cannot belong to an organization")
	}
	if t.ApplyScene == "" {
		t.ApplyScene = "all"
	}
	if !validApplyScenes[t.ApplyScene] {
		return apperr.Validation("invalid apply_scene: %s", t.ApplyScene)
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	if !validStatuses[t.Status] {
		return apperr.Validation("invalid status: %s", t.Status)
	}
	if t.Version == "" {
		t.Version = "1.0"
	}
	if t.Code == "" {
		t.Code = NewCode()
	}

	exists, err := s.templates.ExistsByCode(ctx, t.OrgID, t.Code)
	if err != nil {
		return apperr.Internal("check template code", err)
	}
	if exists {
		return apperr.Conflict("template code already exists: %s", t.Code)
	}

	if err := s.templates.Create(ctx, t); err != nil {
		return apperr.Internal("create template", err)
	}
	return nil
}

// Replace rewrites every mutable column from the supplied value. Omitted
// optional fields reset to their zero values; callers must send the complete
// object. Last write wins.
func (s *Service) Replace(ctx context.Context, id uuid.UUID, t *Template) (*Template, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(t.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if t.Fields == nil {
		return nil, apperr.Validation("fields is required (may be empty)")
	}
	if err := ValidateFields(t.Fields); err != nil {
		return nil, err
	}
	if t.Scope == "" {
		t.Scope = existing.Scope
	}
	if !validScopes[t.Scope] {
		return nil, apperr.Validation("invalid scope: %s", t.Scope)
	}
	if t.Scope == ScopeGlobal && existing.OrgID != nil {
		return nil, apperr.Validation("a global template cannot belong to an organization")
	}
	if t.ApplyScene == "" {
		t.ApplyScene = "all"
	}
	if !validApplyScenes[t.ApplyScene] {
		return nil, apperr.Validation("invalid apply_scene: %s", t.ApplyScene)
	}
	if t.Status == "" {
		t.Status = existing.Status
	}
	if !validStatuses[t.Status] {
		return nil, apperr.Validation("invalid status: %s", t.Status)
	}
	if t.Version == "" {
		t.Version = existing.Version
	}
	if t.Code == "" {
		t.Code = existing.Code
	}
	if t.Code != existing.Code {
		exists, err := s.templates.ExistsByCode(ctx, existing.OrgID, t.Code)
		if err != nil {
			return nil, apperr.Internal("check template code", err)
		}
		if exists {
			return nil, apperr.Conflict("template code already exists: %s", t.Code)
		}
	}

	t.ID = existing.ID
	t.OrgID = existing.OrgID
	if err := s.templates.Replace(ctx, t); err != nil {
		return nil, apperr.Internal("replace template", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Template, error) {
	if !validStatuses[status] {
		return nil, apperr.Validation("invalid status: %s", status)
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	if err := s.templates.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperr.Internal("update template status", err)
	}
	return s.Get(ctx, id)
}

// Delete soft-deletes a template. Global templates are delete-protected.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.Scope == ScopeGlobal {
		return apperr.Forbidden("global templates cannot be deleted")
	}
	if err := s.templates.SoftDelete(ctx, id, deletedBy); err != nil {
		return apperr.Internal("delete template", err)
	}
	return nil
}

// DuplicateOverrides carries the optional caller-supplied fields of a
// duplicate call.
type DuplicateOverrides struct {
	Code      string
	Name      string
	CreatedBy *string
	OrgID     *string
}

// Duplicate copies a template's content into a fresh draft. The copy never
// inherits the default flag, and its code is derived from the source when
// the caller does not supply one.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID, ov DuplicateOverrides) (*Template, error) {
	src, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	copyTpl := &Template{
		Code:        ov.Code,
		Name:        ov.Name,
		Description: src.Description,
		OrgID:       src.OrgID,
		Scope:       src.Scope,
		ApplyScene:  src.ApplyScene,
		Fields:      src.Fields,
		FieldGroups: src.FieldGroups,
		Version:     src.Version,
		IsDefault:   false,
		Status:      StatusDraft,
		CreatedBy:   ov.CreatedBy,
	}
	if ov.OrgID != nil {
		copyTpl.OrgID = ov.OrgID
		if copyTpl.Scope == ScopeGlobal {
			copyTpl.Scope = ScopeOrg
		}
	}
	if copyTpl.Code == "" {
		copyTpl.Code = DuplicateCode(src.Code)
	}
	if copyTpl.Name == "" {
		copyTpl.Name = src.Name + " (copy)"
	}

	if err := s.Create(ctx, copyTpl); err != nil {
		return nil, err
	}
	return copyTpl, nil
}

func (s *Service) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.templates.IncrementUsage(ctx, id); err != nil {
		return apperr.Internal("increment template usage", err)
	}
	return nil
}

func (s *Service) Stats(ctx context.Context, orgID *string) (*Stats, error) {
	st, err := s.templates.Stats(ctx, orgID)
	if err != nil {
		return nil, apperr.Internal("template stats", err)
	}
	return st, nil
}
