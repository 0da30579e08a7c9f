package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/gadconnect/gadconnect-api/internal/models"
	appErrors "github.com/gadconnect/gadconnect-api/pkg/errors"
	"github.com/gadconnect/gadconnect-api/pkg/export"
)

type demographicsSource interface {
	Demographics(ctx context.Context, periodID string) (*models.DemographicsSnapshot, bool, error)
}

// ReportFormat enumerates supported report renderings.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Report is a rendered document ready for download.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReportService renders demographics snapshots into downloadable documents.
type ReportService struct {
	analytics demographicsSource
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewReportService creates a new report service instance.
func NewReportService(analytics demographicsSource, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		analytics: analytics,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// Demographics renders the demographics report of a period in the requested
// format.
func (s *ReportService) Demographics(ctx context.Context, periodID string, format ReportFormat) (*Report, error) {
	snapshot, _, err := s.analytics.Demographics(ctx, periodID)
	if err != nil {
		return nil, err
	}

	dataset := demographicsDataset(snapshot)
	title := fmt.Sprintf("GAD Demographics Report %s", snapshot.SchoolYear)

	switch format {
	case ReportFormatCSV, "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv report")
		}
		return &Report{
			Filename:    fmt.Sprintf("demographics-%s.csv", snapshot.SchoolYear),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case ReportFormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf report")
		}
		return &Report{
			Filename:    fmt.Sprintf("demographics-%s.pdf", snapshot.SchoolYear),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}
}

func demographicsDataset(snapshot *models.DemographicsSnapshot) export.Dataset {
	headers := []string{"Group", "Total", "Male", "Female", "Other"}
	row := func(group string, b models.GenderBreakdown) map[string]string {
		return map[string]string{
			"Group":  group,
			"Total":  strconv.Itoa(b.Total),
			"Male":   strconv.Itoa(b.Male),
			"Female": strconv.Itoa(b.Female),
			"Other":  strconv.Itoa(b.Other),
		}
	}
	return export.Dataset{
		Headers: headers,
		Rows: []map[string]string{
			row("Students", snapshot.Students),
			row("Staff and Faculty", snapshot.StaffFaculty),
			row("Community Members", snapshot.Community),
			{
				"Group":  "Events",
				"Total":  strconv.Itoa(snapshot.EventCount),
				"Male":   "",
				"Female": "",
				"Other":  "",
			},
		},
	}
}
