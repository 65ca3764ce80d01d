package diagnosis

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/salonstack/crm/pkg/apperr"
	"github.com/salonstack/crm/pkg/respond"
)

type GroupHandler struct {
	svc *GroupService
}

func NewGroupHandler(svc *GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

func (h *GroupHandler) RegisterRoutes(api *echo.Group) {
	api.GET("/diagnosis-groups", h.ListByCustomer)
	api.GET("/diagnosis-groups/group/:groupId", h.Get)
	api.POST("/diagnosis-groups", h.Create)
	api.POST("/diagnosis-groups/:groupId/templates", h.AddTemplates)
	api.PUT("/diagnosis-groups/:groupId", h.UpdateMeta)
	api.DELETE("/diagnosis-groups/group/:groupId", h.Delete)
	api.GET("/diagnosis-groups/stats/:groupId", h.Stats)
}

func (h *GroupHandler) ListByCustomer(c echo.Context) error {
	customerID := strings.TrimSpace(c.QueryParam("customer_id"))
	if customerID == "" {
		return respond.Error(c, apperr.Validation("customer_id is required"))
	}
	views, err := h.svc.FindByCustomer(c.Request().Context(), customerID)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, views)
}

func (h *GroupHandler) Get(c echo.Context) error {
	v, err := h.svc.FindByGroupID(c.Request().Context(), c.Param("groupId"))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, v)
}

func (h *GroupHandler) Create(c echo.Context) error {
	var in CreateGroupInput
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}
	in.OrgID = orgFilter(c)
	in.CreatedBy = actorID(c)

	v, err := h.svc.CreateBatch(c.Request().Context(), in)
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.Created(c, v)
}

func (h *GroupHandler) AddTemplates(c echo.Context) error {
	var body struct {
		TemplateIDs []uuid.UUID `json:"template_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}

	v, err := h.svc.AddTemplates(c.Request().Context(), c.Param("groupId"), body.TemplateIDs, actorID(c))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, v)
}

func (h *GroupHandler) UpdateMeta(c echo.Context) error {
	var body struct {
		GroupName        *string `json:"group_name"`
		GroupDescription *string `json:"group_description"`
	}
	if err := c.Bind(&body); err != nil {
		return respond.Error(c, apperr.Validation("invalid request body"))
	}

	v, err := h.svc.UpdateGroupMeta(c.Request().Context(), c.Param("groupId"),
		body.GroupName, body.GroupDescription, actorID(c))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, v)
}

func (h *GroupHandler) Delete(c echo.Context) error {
	if err := h.svc.DeleteGroup(c.Request().Context(), c.Param("groupId"), actorID(c)); err != nil {
		return respond.Error(c, err)
	}
	return respond.OKMessage(c, nil, "diagnosis group deleted")
}

func (h *GroupHandler) Stats(c echo.Context) error {
	st, err := h.svc.Stats(c.Request().Context(), c.Param("groupId"))
	if err != nil {
		return respond.Error(c, err)
	}
	return respond.OK(c, st)
}
