package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/viva-esporte/arena-api/internal/dto"
	"github.com/viva-esporte/arena-api/internal/models"
	"github.com/viva-esporte/arena-api/internal/service"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
	"github.com/viva-esporte/arena-api/pkg/response"
)

// RequestHandler exposes the change request workflow.
type RequestHandler struct {
	requests *service.RequestService
}

// NewRequestHandler constructs RequestHandler.
func NewRequestHandler(requests *service.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// List godoc
// @Summary List change requests
// @Tags Requests
// @Produce json
// @Param status query string false "Comma-separated statuses"
// @Param type query string false "Filter by type"
// @Param classId query string false "Filter by class"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *RequestHandler) List(c *gin.Context) {
	var filter models.RequestFilter
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			filter.Status = append(filter.Status, models.RequestStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	filter.Type = models.RequestType(strings.ToUpper(c.Query("type")))
	filter.ClassID = c.Query("classId")
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	requests, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get a change request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *RequestHandler) Get(c *gin.Context) {
	request, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// SubmitCreate godoc
// @Summary Submit a class creation request
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.ClassPayload true "Full class definition"
// @Success 201 {object} response.Envelope
// @Router /requests/classes [post]
func (h *RequestHandler) SubmitCreate(c *gin.Context) {
	var payload dto.ClassPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.requests.SubmitCreate(c.Request.Context(), payload, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// SubmitUpdate godoc
// @Summary Submit a class update request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.ClassPatch true "Class patch"
// @Success 201 {object} response.Envelope
// @Router /requests/classes/{id} [put]
func (h *RequestHandler) SubmitUpdate(c *gin.Context) {
	var patch dto.ClassPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.requests.SubmitUpdate(c.Request.Context(), c.Param("id"), patch, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Resolve godoc
// @Summary Approve or reject a pending request
// @Description Resolution is final; resolving twice returns 409.
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ResolveRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/resolve [post]
func (h *RequestHandler) Resolve(c *gin.Context) {
	var decision dto.ResolveRequest
	if err := c.ShouldBindJSON(&decision); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.requests.Resolve(c.Request.Context(), c.Param("id"), decision, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
