package diagnosis

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/salonstack/crm/pkg/apperr"
)

type GroupService struct {
	groups      GroupRepository
	completions CompletionRepository
}

func NewGroupService(groups GroupRepository, completions CompletionRepository) *GroupService {
	return &GroupService{groups: groups, completions: completions}
}

// CreateGroupInput is the payload of a batch group creation.
type CreateGroupInput struct {
	CustomerID       string      `json:"customer_id"`
	OrgID            *string     `json:"-"`
	GroupName        *string     `json:"group_name"`
	GroupDescription *string     `json:"group_description"`
	TemplateIDs      []uuid.UUID `json:"template_ids"`
	CreatedBy        *string     `json:"-"`
}

// CreateBatch opens a group for a customer. With no template ids it writes
// the placeholder row so the empty group still exists and can be filled
// later; otherwise one row per template id, all in one transaction.
func (s *GroupService) CreateBatch(ctx context.Context, in CreateGroupInput) (*GroupView, error) {
	if strings.TrimSpace(in.CustomerID) == "" {
		return nil, apperr.Validation("customer_id is required")
	}

	groupID := NewGroupID(in.CustomerID)
	base := GroupEntry{
		CustomerID:       in.CustomerID,
		OrgID:            in.OrgID,
		GroupID:          groupID,
		GroupName:        in.GroupName,
		GroupDescription: in.GroupDescription,
		CreatedBy:        in.CreatedBy,
	}

	var entries []*GroupEntry
	if len(in.TemplateIDs) == 0 {
		sentinel := base
		entries = append(entries, &sentinel)
	} else {
		for _, tid := range in.TemplateIDs {
			e := base
			id := tid
			e.TemplateID = &id
			entries = append(entries, &e)
		}
	}

	if err := s.groups.InsertEntries(ctx, entries); err != nil {
		return nil, apperr.Internal("create diagnosis group", err)
	}
	return s.FindByGroupID(ctx, groupID)
}

// AddTemplates appends templates to an existing group, inheriting the
// group's customer, org and metadata from its live rows. The placeholder
// row, if present, is consumed by the same transaction that inserts.
func (s *GroupService) AddTemplates(ctx context.Context, groupID string, templateIDs []uuid.UUID, actor *string) (*GroupView, error) {
	if len(templateIDs) == 0 {
		return nil, apperr.Validation("template_ids must be a non-empty array")
	}

	existing, err := s.groups.ListByGroupID(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("load diagnosis group", err)
	}
	if len(existing) == 0 {
		return nil, apperr.NotFound("diagnosis group not found: %s", groupID)
	}

	src := existing[0]
	var entries []*GroupEntry
	for _, tid := range templateIDs {
		id := tid
		entries = append(entries, &GroupEntry{
			CustomerID:       src.CustomerID,
			OrgID:            src.OrgID,
			GroupID:          groupID,
			TemplateID:       &id,
			GroupName:        src.GroupName,
			GroupDescription: src.GroupDescription,
			CreatedBy:        actor,
		})
	}

	if err := s.groups.ReplaceSentinel(ctx, groupID, entries); err != nil {
		return nil, apperr.Internal("append to diagnosis group", err)
	}
	return s.FindByGroupID(ctx, groupID)
}

func (s *GroupService) FindByGroupID(ctx context.Context, groupID string) (*GroupView, error) {
	v, err := s.groups.ViewByGroupID(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("get diagnosis group", err)
	}
	if v == nil {
		return nil, apperr.NotFound("diagnosis group not found: %s", groupID)
	}
	return v, nil
}

func (s *GroupService) FindByCustomer(ctx context.Context, customerID string) ([]*GroupView, error) {
	views, err := s.groups.ViewsByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperr.Internal("list diagnosis groups", err)
	}
	if views == nil {
		views = []*GroupView{}
	}
	return views, nil
}

// UpdateGroupMeta renames a group. The name and description live on every
// row of the group, so the update fans out across all of them.
func (s *GroupService) UpdateGroupMeta(ctx context.Context, groupID string, name, description *string, actor *string) (*GroupView, error) {
	if name == nil && description == nil {
		return nil, apperr.Validation("nothing to update")
	}
	affected, err := s.groups.UpdateMeta(ctx, groupID, name, description, actor)
	if err != nil {
		return nil, apperr.Internal("update diagnosis group", err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("diagnosis group not found: %s", groupID)
	}
	return s.FindByGroupID(ctx, groupID)
}

// DeleteGroup retires the group and cascades over its completion records.
func (s *GroupService) DeleteGroup(ctx context.Context, groupID string, actor *string) error {
	affected, err := s.groups.SoftDeleteCascade(ctx, groupID, actor)
	if err != nil {
		return apperr.Internal("delete diagnosis group", err)
	}
	if affected == 0 {
		return apperr.NotFound("diagnosis group not found: %s", groupID)
	}
	return nil
}

// CountTemplates counts the group's live rows. An empty group still holds
// its placeholder row, so the count is never zero for a live group.
func (s *GroupService) CountTemplates(ctx context.Context, groupID string) (int, error) {
	count, err := s.groups.CountByGroup(ctx, groupID)
	if err != nil {
		return 0, apperr.Internal("count diagnosis group", err)
	}
	return count, nil
}

func (s *GroupService) Stats(ctx context.Context, groupID string) (*GroupStats, error) {
	v, err := s.groups.ViewByGroupID(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("get diagnosis group", err)
	}
	if v == nil {
		return nil, apperr.NotFound("diagnosis group not found: %s", groupID)
	}

	completed, _, err := s.completions.CountsByGroup(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("count diagnoses", err)
	}

	// Row count, so an empty group reports its placeholder row as 1.
	total, err := s.groups.CountByGroup(ctx, groupID)
	if err != nil {
		return nil, apperr.Internal("count diagnosis group", err)
	}
	pending := total - completed
	if pending < 0 {
		pending = 0
	}
	return &GroupStats{
		TotalTemplates:     total,
		CompletedDiagnoses: completed,
		PendingDiagnoses:   pending,
	}, nil
}
