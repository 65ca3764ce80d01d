package diagnosis

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/salonstack/crm/internal/domain/template"
	"github.com/salonstack/crm/pkg/apperr"
)

type TemplateService struct {
	templates TemplateRepository
}

func NewTemplateService(templates TemplateRepository) *TemplateService {
	return &TemplateService{templates: templates}
}

// List shows the global catalog by default; with an org it widens to the
// org's own templates plus the global set.
func (s *TemplateService) List(ctx context.Context, f ListFilter, limit, offset int) ([]*Template, int, error) {
	items, total, err := s.templates.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal("list diagnosis templates", err)
	}
	return items, total, nil
}

func (s *TemplateService) Get(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("diagnosis template not found")
		}
		return nil, apperr.Internal("get diagnosis template", err)
	}
	return t, nil
}

func (s *TemplateService) Create(ctx context.Context, t *Template) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperr.Validation("name is required")
	}
	if t.Fields == nil {
		t.Fields = []template.FieldSchema{}
	}
	if err := template.ValidateFields(t.Fields); err != nil {
		return err
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	if !validStatuses[t.Status] {
		return apperr.Validation("invalid status: %s", t.Status)
	}
	if t.Code == "" {
		t.Code = NewCode()
	}

	// Codes are unique across every org and the global set.
	exists, err := s.templates.ExistsByCode(ctx, t.Code)
	if err != nil {
		return apperr.Internal("check diagnosis template code", err)
	}
	if exists {
		return apperr.Conflict("diagnosis template code already exists: %s", t.Code)
	}

	if err := s.templates.Create(ctx, t); err != nil {
		return apperr.Internal("create diagnosis template", err)
	}
	return nil
}

func (s *TemplateService) Replace(ctx context.Context, id uuid.UUID, t *Template) (*Template, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(t.Name) == "" {
		return nil, apperr.Validation("name is required")
	}
	if t.Fields == nil {
		t.Fields = []template.FieldSchema{}
	}
	if err := template.ValidateFields(t.Fields); err != nil {
		return nil, err
	}
	if t.Status == "" {
		t.Status = existing.Status
	}
	if !validStatuses[t.Status] {
		return nil, apperr.Validation("invalid status: %s", t.Status)
	}
	if t.Code == "" {
		t.Code = existing.Code
	}
	if t.Code != existing.Code {
		exists, err := s.templates.ExistsByCode(ctx, t.Code)
		if err != nil {
			return nil, apperr.Internal("check diagnosis template code", err)
		}
		if exists {
			return nil, apperr.Conflict("diagnosis template code already exists: %s", t.Code)
		}
	}

	t.ID = existing.ID
	t.OrgID = existing.OrgID
	if err := s.templates.Replace(ctx, t); err != nil {
		return nil, apperr.Internal("replace diagnosis template", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a template for good. Global templates are delete-protected;
// org templates are hard-deleted rather than soft-deleted.
func (s *TemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.OrgID == nil {
		return apperr.Forbidden("global diagnosis templates cannot be deleted")
	}
	if err := s.templates.HardDelete(ctx, id); err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperr.Internal("delete diagnosis template", err)
	}
	return nil
}
