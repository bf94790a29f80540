package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	apperrors "finboard/internal/errors"
	"finboard/internal/models"
)

func setupExportRouter(handler *ExportHandler) *gin.Engine {
	r := gin.New()
	r.GET("/transactions/export", injectUserID("user-1"), handler.ExportTransactions)
	return r
}

func TestExportHandler_ExportTransactions(t *testing.T) {
	txSvc := &mockTransactionService{
		getMergedTransactionsFn: func(_ string) ([]*models.Transaction, error) {
			return []*models.Transaction{
				{
					Base:        models.Base{ID: "tx-1"},
					Type:        models.TransactionTypeExpense,
					Amount:      2550,
					Category:    "Fournitures",
					Description: "Stylos",
					Date:        time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
					Source:      models.SourceManual,
				},
				{
					Base:        models.Base{ID: "marketing_c1"},
					Type:        models.TransactionTypeExpense,
					Amount:      10000,
					Category:    "Marketing",
					Description: "Google Ads",
					Date:        time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
					Source:      models.SourceMarketing,
				},
			}, nil
		},
	}
	r := setupExportRouter(NewExportHandler(txSvc))

	rec := doRequest(r, "GET", "/transactions/export", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type %q", ct)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("response is not a valid workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	if err != nil {
		t.Fatalf("failed to read Transactions sheet: %v", err)
	}
	// Header plus one row per merged transaction, synthetic included.
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[1][4] != "25.50" {
		t.Errorf("expected amount 25.50, got %q", rows[1][4])
	}
	if rows[2][5] != "marketing" {
		t.Errorf("expected marketing source, got %q", rows[2][5])
	}
}

func TestExportHandler_FeedError(t *testing.T) {
	txSvc := &mockTransactionService{
		getMergedTransactionsFn: func(_ string) ([]*models.Transaction, error) {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, errors.New("db gone"))
		},
	}
	r := setupExportRouter(NewExportHandler(txSvc))

	rec := doRequest(r, "GET", "/transactions/export", "")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
}
