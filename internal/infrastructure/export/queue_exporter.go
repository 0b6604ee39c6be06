package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/procurehq/purchase-flow/internal/domain/queue"
)

// QueueExporter writes an approval queue snapshot to an xlsx workbook
type QueueExporter struct {
	outputDir string
	logger    *zap.Logger
}

// NewQueueExporter creates a new queue exporter
func NewQueueExporter(outputDir string, logger *zap.Logger) *QueueExporter {
	return &QueueExporter{
		outputDir: outputDir,
		logger:    logger,
	}
}

var queueHeaders = []string{
	"Order Number", "Supplier", "Items", "Total", "Status",
	"Priority", "Days Waiting", "Created By", "Created At",
}

// Export writes the view to a timestamped file under the output directory and
// returns its path
func (e *QueueExporter) Export(view *queue.View) (string, error) {
	if err := os.MkdirAll(e.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	filename := fmt.Sprintf("approval-queue-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	outputPath := filepath.Join(e.outputDir, filename)

	if err := e.write(view, outputPath); err != nil {
		return "", err
	}

	e.logger.Info("Approval queue exported",
		zap.String("path", outputPath),
		zap.Int("entries", len(view.Entries)))

	return outputPath, nil
}

func (e *QueueExporter) write(view *queue.View, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Approval Queue"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for col, header := range queueHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		e.setCell(f, sheet, cell, header)
	}

	for row, entry := range view.Entries {
		values := []interface{}{
			entry.Order.Number,
			entry.Order.SupplierName,
			len(entry.Order.Items),
			entry.Order.Total.StringFixed(2),
			entry.Order.Status.String(),
			string(entry.Priority),
			entry.DaysSinceCreated,
			entry.Order.CreatedBy,
			entry.Order.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return fmt.Errorf("failed to build cell: %w", err)
			}
			e.setCell(f, sheet, cell, value)
		}
	}

	// Summary block below the table
	summaryRow := len(view.Entries) + 3
	e.setCell(f, sheet, fmt.Sprintf("A%d", summaryRow), "Pending orders")
	e.setCell(f, sheet, fmt.Sprintf("B%d", summaryRow), view.Stats.Count)
	e.setCell(f, sheet, fmt.Sprintf("A%d", summaryRow+1), "Total amount")
	e.setCell(f, sheet, fmt.Sprintf("B%d", summaryRow+1), view.Stats.TotalAmount.StringFixed(2))
	e.setCell(f, sheet, fmt.Sprintf("A%d", summaryRow+2), "Overdue")
	e.setCell(f, sheet, fmt.Sprintf("B%d", summaryRow+2), view.Stats.OverdueCount)
	e.setCell(f, sheet, fmt.Sprintf("A%d", summaryRow+3), "High value")
	e.setCell(f, sheet, fmt.Sprintf("B%d", summaryRow+3), view.Stats.HighValueCount)

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	return nil
}

// setCell sets a cell value in the Excel file
func (e *QueueExporter) setCell(f *excelize.File, sheet, cell string, value interface{}) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}
