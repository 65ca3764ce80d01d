package profile

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/salonstack/crm/internal/domain/template"
	"github.com/salonstack/crm/pkg/apperr"
)

// TemplateSource is the slice of the template service a record needs: the
// fields to validate against and the usage counter to bump.
type TemplateSource interface {
	Get(ctx context.Context, id uuid.UUID) (*template.Template, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	records   Repository
	customers CustomerDirectory
	templates TemplateSource
}

func NewService(records Repository, customers CustomerDirectory, templates TemplateSource) *Service {
	return &Service{records: records, customers: customers, templates: templates}
}

// Create captures a structured record for a customer. The payload is checked
// against the template's fields before anything is written, and a second
// live record for the same (customer, template) pair is refused.
func (s *Service) Create(ctx context.Context, rec *Record) error {
	if strings.TrimSpace(rec.CustomerID) == "" {
		return apperr.Validation("customer_id is required")
	}
	if rec.TemplateID == uuid.Nil {
		return apperr.Validation("template_id is required")
	}

	ok, err := s.customers.Exists(ctx, rec.CustomerID)
	if err != nil {
		return apperr.Internal("check customer", err)
	}
	if !ok {
		return apperr.NotFound("customer not found: %s", rec.CustomerID)
	}

	tpl, err := s.templates.Get(ctx, rec.TemplateID)
	if err != nil {
		return err
	}

	if rec.ProfileData == nil {
		rec.ProfileData = map[string]any{}
	}
	if err := template.ValidatePayload(tpl.Fields, rec.ProfileData); err != nil {
		return err
	}

	exists, err := s.records.ExistsPair(ctx, rec.CustomerID, rec.TemplateID)
	if err != nil {
		return apperr.Internal("check profile pair", err)
	}
	if exists {
		return apperr.Conflict("a profile for this customer and template already exists")
	}

	if rec.TemplateVersion == "" {
		rec.TemplateVersion = tpl.Version
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return apperr.Internal("create profile", err)
	}
	return s.templates.IncrementUsage(ctx, rec.TemplateID)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	rec, err := s.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("profile not found")
		}
		return nil, apperr.Internal("get profile", err)
	}
	return rec, nil
}

func (s *Service) GetByCustomer(ctx context.Context, customerID string) ([]*RecordView, error) {
	views, err := s.records.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperr.Internal("list customer profiles", err)
	}
	if views == nil {
		views = []*RecordView{}
	}
	return views, nil
}

func (s *Service) GetByCustomerAndTemplate(ctx context.Context, customerID string, templateID uuid.UUID) (*Record, error) {
	rec, err := s.records.GetByPair(ctx, customerID, templateID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("profile not found")
		}
		return nil, apperr.Internal("get profile", err)
	}
	return rec, nil
}

// MergeByID folds the patch into an existing record. Keys present in the
// patch overwrite, absent keys survive, and the merged payload must still
// satisfy the template's fields. Strictly an update, never an upsert.
func (s *Service) MergeByID(ctx context.Context, id uuid.UUID, patch MergePatch) (*Record, error) {
	rec, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.merge(ctx, rec, patch)
}

// MergeByPair is MergeByID addressed by (customer, template).
func (s *Service) MergeByPair(ctx context.Context, customerID string, templateID uuid.UUID, patch MergePatch) (*Record, error) {
	rec, err := s.GetByCustomerAndTemplate(ctx, customerID, templateID)
	if err != nil {
		return nil, err
	}
	return s.merge(ctx, rec, patch)
}

func (s *Service) merge(ctx context.Context, rec *Record, patch MergePatch) (*Record, error) {
	if rec.ProfileData == nil {
		rec.ProfileData = map[string]any{}
	}
	for k, v := range patch.ProfileData {
		rec.ProfileData[k] = v
	}
	if patch.Remark != nil {
		rec.Remark = patch.Remark
	}
	rec.UpdatedBy = patch.UpdatedBy

	tpl, err := s.templates.Get(ctx, rec.TemplateID)
	if err != nil {
		return nil, err
	}
	if err := template.ValidatePayload(tpl.Fields, rec.ProfileData); err != nil {
		return nil, err
	}

	if err := s.records.Update(ctx, rec); err != nil {
		return nil, apperr.Internal("update profile", err)
	}
	return s.GetByID(ctx, rec.ID)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.records.SoftDelete(ctx, id, deletedBy); err != nil {
		return apperr.Internal("delete profile", err)
	}
	return nil
}
