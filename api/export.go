package api

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"expense-manager/middleware"
	"expense-manager/models"
	"expense-manager/service"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出处理器
type ExportHandler struct {
	expenses   *service.ExpenseService
	reports    *service.ReportService
	categories *service.CategoryRegistry
}

// NewExportHandler 创建导出处理器
func NewExportHandler(expenses *service.ExpenseService, reports *service.ReportService, categories *service.CategoryRegistry) *ExportHandler {
	return &ExportHandler{expenses: expenses, reports: reports, categories: categories}
}

var expenseHeaders = []string{"ID", "Date", "Amount", "Category", "Description", "Payment method", "Shared", "Created at"}

func (h *ExportHandler) categoryName(id uint) string {
	if c, ok := h.categories.Lookup(id); ok {
		return c.Name
	}
	return ""
}

// loadRange requires start_date and end_date and returns the matching expenses
func (h *ExportHandler) loadRange(c *gin.Context) ([]models.Expense, bool) {
	if c.Query("start_date") == "" || c.Query("end_date") == "" {
		BadRequest(c, "start_date and end_date are required")
		return nil, false
	}
	from, to, ok := parseRange(c)
	if !ok {
		return nil, false
	}
	list, err := h.expenses.ListAll(c.Request.Context(), middleware.GetCurrentUserID(c), service.ExpenseFilter{From: from, To: to})
	if err != nil {
		RespondError(c, err)
		return nil, false
	}
	return list, true
}

// ExportCSV 导出消费记录为 CSV
// @Summary 导出消费记录为 CSV
// @Description 根据日期范围导出当前用户的消费记录
// @Tags 导出
// @Produce text/csv
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "CSV 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/csv [get]
func (h *ExportHandler) ExportCSV(c *gin.Context) {
	expenses, ok := h.loadRange(c)
	if !ok {
		return
	}

	buf := new(bytes.Buffer)
	// BOM so spreadsheet apps detect UTF-8
	buf.WriteString("\xEF\xBB\xBF")
	writer := csv.NewWriter(buf)

	if err := writer.Write(expenseHeaders); err != nil {
		InternalError(c, "failed to write csv")
		return
	}
	for _, e := range expenses {
		row := []string{
			strconv.FormatUint(uint64(e.ID), 10),
			formatDate(e.Date),
			fmt.Sprintf("%.2f", e.Amount),
			h.categoryName(e.CategoryID),
			e.Description,
			e.PaymentMethod,
			strconv.FormatBool(e.IsShared),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			InternalError(c, "failed to write csv")
			return
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		InternalError(c, "failed to write csv")
		return
	}

	filename := fmt.Sprintf("expenses_%s_%s.csv", c.Query("start_date"), c.Query("end_date"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func borderedStyle(f *excelize.File, font *excelize.Font, fill string) (int, error) {
	style := &excelize.Style{
		Font:      font,
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	}
	if fill != "" {
		style.Fill = excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1}
	}
	return f.NewStyle(style)
}

type sheetStyles struct {
	header, data, summary int
}

func newSheetStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error
	if s.header, err = borderedStyle(f, &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"}, "4F81BD"); err != nil {
		return s, err
	}
	if s.data, err = borderedStyle(f, nil, ""); err != nil {
		return s, err
	}
	if s.summary, err = borderedStyle(f, &excelize.Font{Bold: true, Size: 11}, "FFC000"); err != nil {
		return s, err
	}
	return s, nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// buildExpenseWorkbook one row per expense plus a summary row
func (h *ExportHandler) buildExpenseWorkbook(expenses []models.Expense) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Expenses"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}

	widths := []float64{10, 14, 12, 18, 32, 16, 10, 20}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	last := len(expenseHeaders)

	for i, header := range expenseHeaders {
		f.SetCellValue(sheet, cellName(i+1, 1), header)
	}
	f.SetCellStyle(sheet, cellName(1, 1), cellName(last, 1), styles.header)

	var total int64
	for i, e := range expenses {
		row := i + 2
		values := []interface{}{
			e.ID,
			formatDate(e.Date),
			e.Amount,
			h.categoryName(e.CategoryID),
			e.Description,
			e.PaymentMethod,
			e.IsShared,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			f.SetCellValue(sheet, cellName(col+1, row), v)
		}
		f.SetCellStyle(sheet, cellName(1, row), cellName(last, row), styles.data)
		total += models.ToCents(e.Amount)
	}

	summary := len(expenses) + 2
	f.SetCellValue(sheet, cellName(1, summary), "Total")
	f.MergeCell(sheet, cellName(1, summary), cellName(2, summary))
	f.SetCellValue(sheet, cellName(3, summary), models.FromCents(total))
	f.SetCellValue(sheet, cellName(4, summary), fmt.Sprintf("%d records", len(expenses)))
	f.MergeCell(sheet, cellName(4, summary), cellName(last, summary))
	f.SetCellStyle(sheet, cellName(1, summary), cellName(last, summary), styles.summary)

	return f, nil
}

// buildBreakdownWorkbook categories down, months across, totals at the bottom
func buildBreakdownWorkbook(b *service.Breakdown) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Breakdown"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	styles, err := newSheetStyles(f)
	if err != nil {
		return nil, err
	}
	last := len(b.Months) + 1
	f.SetColWidth(sheet, "A", "A", 20)

	f.SetCellValue(sheet, cellName(1, 1), "Category")
	monthCol := make(map[string]int, len(b.Months))
	for i, m := range b.Months {
		monthCol[m] = i + 2
		f.SetCellValue(sheet, cellName(i+2, 1), m)
	}
	f.SetCellStyle(sheet, cellName(1, 1), cellName(last, 1), styles.header)

	rowOf := make(map[uint]int)
	next := 2
	for _, r := range b.Rows {
		row, ok := rowOf[r.CategoryID]
		if !ok {
			row = next
			next++
			rowOf[r.CategoryID] = row
			f.SetCellValue(sheet, cellName(1, row), r.Category)
			f.SetCellStyle(sheet, cellName(1, row), cellName(last, row), styles.data)
		}
		f.SetCellValue(sheet, cellName(monthCol[r.Month], row), r.Amount)
	}

	f.SetCellValue(sheet, cellName(1, next), "Total")
	for _, t := range b.Totals {
		f.SetCellValue(sheet, cellName(monthCol[t.Month], next), t.Amount)
	}
	f.SetCellStyle(sheet, cellName(1, next), cellName(last, next), styles.summary)

	return f, nil
}

func writeWorkbook(c *gin.Context, f *excelize.File, filename string) {
	defer f.Close()
	buf, err := f.WriteToBuffer()
	if err != nil {
		InternalError(c, "failed to build xlsx")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportXLSX 导出消费记录为 Excel
// @Summary 导出消费记录为 Excel
// @Description 根据日期范围导出当前用户的消费记录，末行为合计
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param start_date query string true "开始日期 (2024-01-01)"
// @Param end_date query string true "结束日期 (2024-12-31)"
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/export/xlsx [get]
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	expenses, ok := h.loadRange(c)
	if !ok {
		return
	}
	f, err := h.buildExpenseWorkbook(expenses)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "failed to build xlsx"))
		return
	}
	writeWorkbook(c, f, fmt.Sprintf("expenses_%s_%s.xlsx", c.Query("start_date"), c.Query("end_date")))
}

// ExportBreakdownXLSX 导出月度分类汇总为 Excel
// @Summary 导出月度分类汇总
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param window query int false "月份数 1-60" default(6)
// @Success 200 {file} file "Excel 文件"
// @Failure 400 {object} Response "请求参数错误"
// @Router /api/v1/export/breakdown.xlsx [get]
func (h *ExportHandler) ExportBreakdownXLSX(c *gin.Context) {
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	b, err := h.reports.MonthlyBreakdown(c.Request.Context(), service.UserScope(middleware.GetCurrentUserID(c)), window)
	if err != nil {
		RespondError(c, err)
		return
	}
	f, err := buildBreakdownWorkbook(b)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "failed to build xlsx"))
		return
	}
	writeWorkbook(c, f, fmt.Sprintf("breakdown_%s_%s.xlsx", b.Months[0], b.Months[len(b.Months)-1]))
}
