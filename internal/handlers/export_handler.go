package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	apperrors "finboard/internal/errors"
	"finboard/internal/services"
)

// ExportHandler exports the merged transaction feed as a spreadsheet.
type ExportHandler struct {
	transactionService services.TransactionServicer
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(transactionService services.TransactionServicer) *ExportHandler {
	return &ExportHandler{transactionService: transactionService}
}

// ExportTransactions writes the merged feed as an XLSX attachment. Synthetic
// marketing rows are included so the export mirrors the dashboard feed.
func (h *ExportHandler) ExportTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactions, err := h.transactionService.GetMergedTransactions(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Transactions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Date", "Type", "Category", "Description", "Amount", "Source"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for idx, tx := range transactions {
		row := idx + 2
		amount := strconv.FormatFloat(float64(tx.Amount)/100.0, 'f', 2, 64)

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), tx.Date.Format("2006-01-02"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), string(tx.Type))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), tx.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), tx.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), amount)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), string(tx.Source))
	}

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 10)
	f.SetColWidth(sheetName, "C", "C", 18)
	f.SetColWidth(sheetName, "D", "D", 30)
	f.SetColWidth(sheetName, "E", "E", 12)
	f.SetColWidth(sheetName, "F", "F", 10)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	c.Status(http.StatusOK)
}
