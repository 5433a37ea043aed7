package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/viva-esporte/arena-api/internal/service"
	appErrors "github.com/viva-esporte/arena-api/pkg/errors"
	"github.com/viva-esporte/arena-api/pkg/response"
)

// ReportHandler serves printable attendance sheets.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// MonthlySheet godoc
// @Summary Download a monthly attendance sheet
// @Description Renders a printable grid: blank checkboxes on meeting
// @Description days, dashes otherwise. CSV by default, PDF on request.
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Param classId query string false "Limit to one class"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /reports/attendance-sheet [get]
func (h *ReportHandler) MonthlySheet(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid year"))
		return
	}
	monthNum, err := strconv.Atoi(c.Query("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid month"))
		return
	}
	format := service.ReportFormatCSV
	if strings.EqualFold(c.Query("format"), "pdf") {
		format = service.ReportFormatPDF
	}

	file, err := h.reports.MonthlySheet(c.Request.Context(), year, time.Month(monthNum), c.Query("classId"), format, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(200, file.ContentType, file.Content)
}
