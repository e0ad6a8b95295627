package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joyandrew-github/CampusLink-Backend/internal/service"
	appErrors "github.com/joyandrew-github/CampusLink-Backend/pkg/errors"
	"github.com/joyandrew-github/CampusLink-Backend/pkg/response"
)

// TimetableHandler wires HTTP endpoints to the timetable service.
type TimetableHandler struct {
	service *service.TimetableService
	exports *service.ExportService
}

// NewTimetableHandler creates a new handler.
func NewTimetableHandler(svc *service.TimetableService, exports *service.ExportService) *TimetableHandler {
	return &TimetableHandler{service: svc, exports: exports}
}

// Get godoc
// @Summary Get own timetable
// @Description Returns the caller's full weekly schedule
// @Tags Timetable
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable [get]
func (h *TimetableHandler) Get(c *gin.Context) {
	timetable, err := h.service.GetTimetable(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// GetForStudent godoc
// @Summary Get a student's timetable
// @Description Returns a student's schedule by id (admin only)
// @Tags Timetable
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/students/{id} [get]
func (h *TimetableHandler) GetForStudent(c *gin.Context) {
	timetable, err := h.service.GetTimetableForStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, timetable, nil)
}

// AddClass godoc
// @Summary Add class
// @Description Add a class session to the caller's timetable
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body service.AddClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/classes [post]
func (h *TimetableHandler) AddClass(c *gin.Context) {
	var req service.AddClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	timetable, err := h.service.AddClass(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, timetable)
}

// EditClass godoc
// @Summary Edit class
// @Description Replace a class session in place; status resets to scheduled
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.EditClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /timetable/classes/{id} [put]
func (h *TimetableHandler) EditClass(c *gin.Context) {
	var req service.EditClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	req.ID = c.Param("id")

	timetable, err := h.service.EditClass(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, timetable, nil)
}

// UpdateClassStatus godoc
// @Summary Update class status
// @Description Set a session's status on a student's timetable (admin only)
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.UpdateClassStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/classes/{id}/status [patch]
func (h *TimetableHandler) UpdateClassStatus(c *gin.Context) {
	var req service.UpdateClassStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	req.ID = c.Param("id")

	timetable, err := h.service.UpdateClassStatus(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, timetable, nil)
}

// DeleteClass godoc
// @Summary Delete class
// @Description Remove a class session; deleting a missing id is a no-op
// @Tags Timetable
// @Produce json
// @Param id path string true "Class ID"
// @Param weekIndex query integer true "Week index"
// @Param day query string true "Weekday name"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/classes/{id} [delete]
func (h *TimetableHandler) DeleteClass(c *gin.Context) {
	req := service.DeleteClassRequest{
		WeekIndex: queryInt(c, "weekIndex", 0),
		Day:       c.Query("day"),
		ID:        c.Param("id"),
	}

	timetable, err := h.service.DeleteClass(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, timetable, nil)
}

// Export godoc
// @Summary Export timetable week
// @Description Download one timetable week as CSV or PDF
// @Tags Timetable
// @Produce octet-stream
// @Param week query integer false "Week index"
// @Param format query string false "csv or pdf"
// @Param student_id query string false "Student ID (admin only)"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetable/export [get]
func (h *TimetableHandler) Export(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}

	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	week := queryInt(c, "week", 0)

	result, err := h.exports.ExportWeek(c.Request.Context(), claimsFromContext(c), c.Query("student_id"), week, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
