package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/portal-cidadao-api/internal/models"
	appErrors "github.com/noah-isme/portal-cidadao-api/pkg/errors"
	"github.com/noah-isme/portal-cidadao-api/pkg/export"
)

const exportRowLimit = 5000

type demandaLister interface {
	List(ctx context.Context, filter models.DemandaFilter) ([]models.Demanda, int, error)
}

// ExportFile is a rendered export ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders filtered demanda listings as CSV or PDF.
type ExportService struct {
	repo   demandaLister
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(repo demandaLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{repo: repo, logger: logger, now: time.Now}
}

var demandaColumns = []export.Column{
	{Key: "id", Title: "ID", Width: 2.2},
	{Key: "data_criacao", Title: "Criada em", Width: 1.3},
	{Key: "categoria", Title: "Categoria", Width: 1.4},
	{Key: "status", Title: "Status", Width: 1.1},
	{Key: "bairro", Title: "Bairro", Width: 1.3},
	{Key: "endereco", Title: "Endereço", Width: 2.2},
	{Key: "descricao", Title: "Descrição", Width: 2.6},
	{Key: "localizacao", Title: "Lat, Lng", Width: 1.5},
	{Key: "data_resolucao", Title: "Resolvida em", Width: 1.3},
}

// Export renders every demanda matching filter, up to a fixed row limit.
func (s *ExportService) Export(ctx context.Context, filter models.DemandaFilter, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	filter.Page = 1
	filter.PageSize = exportRowLimit
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load demandas for export")
	}
	if total > len(items) {
		s.logger.Warn("export truncated", zap.Int("total", total), zap.Int("rows", len(items)))
	}

	now := s.now().UTC()
	table := export.Table{Title: "Demandas - Portal Cidadão", Columns: demandaColumns, Rows: make([]map[string]string, 0, len(items))}
	for _, d := range items {
		table.Rows = append(table.Rows, demandaRow(d))
	}

	name := fmt.Sprintf("demandas-%s.%s", now.Format("20060102-150405"), format)
	switch format {
	case "pdf":
		subtitle := fmt.Sprintf("%d registros, gerado em %s UTC", len(items), now.Format("02/01/2006 15:04"))
		data, err := export.RenderPDF(table, subtitle)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render pdf")
		}
		return &ExportFile{Filename: name, ContentType: "application/pdf", Data: data}, nil
	default:
		data, err := export.RenderCSV(table)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to render csv")
		}
		return &ExportFile{Filename: name, ContentType: "text/csv; charset=utf-8", Data: data}, nil
	}
}

func demandaRow(d models.Demanda) map[string]string {
	return map[string]string{
		"id":             d.ID,
		"data_criacao":   d.DataCriacao.UTC().Format("02/01/2006 15:04"),
		"categoria":      d.Categoria,
		"status":         string(d.Status),
		"bairro":         deref(d.Bairro),
		"endereco":       deref(d.Endereco),
		"descricao":      deref(d.Descricao),
		"localizacao":    strconv.FormatFloat(d.Localizacao.Lat, 'f', 6, 64) + ", " + strconv.FormatFloat(d.Localizacao.Lng, 'f', 6, 64),
		"data_resolucao": formatOptionalTime(d.DataResolucao),
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("02/01/2006 15:04")
}
