package services

import (
	"context"
	"fmt"
	"time"

	"fieldvisit/internal/database"
	"fieldvisit/internal/logger"
	. "fieldvisit/internal/models"
	"fieldvisit/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// AuditSummary aggregates the questionnaires matched by a report query
type AuditSummary struct {
	Total                int                 `json:"total"`
	ByDisposition        map[Disposition]int `json:"byDisposition"`
	MalpracticeCount     int                 `json:"malpracticeCount"`
	TicketCount          int                 `json:"ticketCount"`
	AvgScoreInstallation *decimal.Decimal    `json:"avgScoreInstallation,omitempty"`
	AvgScoreTechnician   *decimal.Decimal    `json:"avgScoreTechnician,omitempty"`
	AvgScoreOverall      *decimal.Decimal    `json:"avgScoreOverall,omitempty"`
}

type ReportService struct {
	auditRepo repositories.AuditRepository
	db        database.DB
	log       logger.Logger
}

func NewReportService(auditRepo repositories.AuditRepository, db database.DB) *ReportService {
	return &ReportService{
		auditRepo: auditRepo,
		db:        db,
		log:       logger.New("ReportService"),
	}
}

func (s *ReportService) Summary(
	ctx context.Context,
	query repositories.AuditReportQuery,
) (*AuditSummary, error) {
	audits, err := s.auditRepo.ListForReport(ctx, s.db.SQL, query)
	if err != nil {
		return nil, err
	}

	return summarize(audits), nil
}

func summarize(audits []*VisitAudit) *AuditSummary {
	summary := &AuditSummary{
		Total:         len(audits),
		ByDisposition: make(map[Disposition]int),
	}

	var sumInstall, sumTech, sumOverall decimal.Decimal
	var nInstall, nTech, nOverall int64

	for _, audit := range audits {
		summary.ByDisposition[audit.Disposition]++
		if audit.Malpractice {
			summary.MalpracticeCount++
		}
		if audit.Resolution == ResolutionTicket {
			summary.TicketCount++
		}
		if audit.ScoreInstallation != nil {
			sumInstall = sumInstall.Add(decimal.NewFromInt(int64(*audit.ScoreInstallation)))
			nInstall++
		}
		if audit.ScoreTechnician != nil {
			sumTech = sumTech.Add(decimal.NewFromInt(int64(*audit.ScoreTechnician)))
			nTech++
		}
		if audit.ScoreOverall != nil {
			sumOverall = sumOverall.Add(decimal.NewFromInt(int64(*audit.ScoreOverall)))
			nOverall++
		}
	}

	average := func(sum decimal.Decimal, n int64) *decimal.Decimal {
		if n == 0 {
			return nil
		}
		avg := sum.Div(decimal.NewFromInt(n)).Round(2)
		return &avg
	}

	summary.AvgScoreInstallation = average(sumInstall, nInstall)
	summary.AvgScoreTechnician = average(sumTech, nTech)
	summary.AvgScoreOverall = average(sumOverall, nOverall)

	return summary
}

var auditExportHeader = []string{
	"Audit ID",
	"Created At",
	"Brand",
	"Technology",
	"Customer RUT",
	"Unit",
	"Disposition",
	"Resolution",
	"Ticket Type",
	"Malpractice",
	"Score Installation",
	"Score Technician",
	"Score Overall",
}

// ExportXLSX renders the matched audits as an Excel workbook for the
// back-office
func (s *ReportService) ExportXLSX(
	ctx context.Context,
	query repositories.AuditReportQuery,
) ([]byte, error) {
	log := s.log.Function("ExportXLSX")

	audits, err := s.auditRepo.ListForReport(ctx, s.db.SQL, query)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	sheetName := "Audits"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, log.Err("failed to create sheet", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	for col, header := range auditExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, log.Err("failed to compute header cell", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, log.Err("failed to write header cell", err)
		}
	}

	for row, audit := range audits {
		values := []any{
			audit.ID.String(),
			audit.CreatedAt.Format(time.RFC3339),
			audit.Brand,
			audit.Technology,
			audit.CustomerRUT,
			audit.UnitID,
			string(audit.Disposition),
			string(audit.Resolution),
			stringOrEmpty(audit.TicketType),
			audit.Malpractice,
			intOrEmpty(audit.ScoreInstallation),
			intOrEmpty(audit.ScoreTechnician),
			intOrEmpty(audit.ScoreOverall),
		}

		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				f.Close()
				return nil, log.Err("failed to compute cell", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, log.Err("failed to write cell", err)
			}
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, log.Err("failed to serialize workbook", err)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}

	return buffer.Bytes(), nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOrEmpty(i *int) any {
	if i == nil {
		return ""
	}
	return *i
}
