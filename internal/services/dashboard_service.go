package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"fodash/internal/config"
	"fodash/internal/dataset"
	"fodash/internal/exporter"
	"fodash/internal/filters"
	"fodash/internal/infrastructure"
	"fodash/internal/links"
	"fodash/internal/paginate"
)

// Service-level sentinel errors, mapped to API errors by the transport layer
var (
	ErrDatasetEmpty  = errors.New("dataset is empty: no usable rows after load")
	ErrUnknownFormat = errors.New("unknown export format")
)

const dateLayout = "2006-01-02"

// DashboardService owns the loaded dataset and runs the full filter
// pipeline for every interaction. The dataset is loaded once per process
// and is immutable apart from lazy numeric coercion; recomputes are
// serialized to match the one-change-one-recompute interaction model.
type DashboardService struct {
	cfg     *config.Config
	logger  *slog.Logger
	frame   *dataset.Frame
	linker  *links.Transformer
	metrics *infrastructure.DashboardMetrics

	mu sync.Mutex
}

// NewDashboardService loads the configured CSV and builds the service.
// A missing or unreadable file, or a header without the mandatory date
// and symbol columns, is fatal.
func NewDashboardService(cfg *config.Config, logger *slog.Logger) (*DashboardService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	frame, err := dataset.Load(cfg.Data.CSVPath, dataset.LoadOptions{
		DateColumn:   cfg.Data.DateColumn,
		SymbolColumn: cfg.Data.SymbolColumn,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %q: %w", cfg.Data.CSVPath, err)
	}

	return NewDashboardServiceWithFrame(cfg, logger, frame), nil
}

// NewDashboardServiceWithFrame builds the service around an already
// loaded frame. Used by tests and by callers that manage loading.
func NewDashboardServiceWithFrame(cfg *config.Config, logger *slog.Logger, frame *dataset.Frame) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "dashboard_service")),
		frame:  frame,
		linker: links.NewTransformer(cfg.Data.ChartBaseURL, cfg.Data.ChartExchange),
	}
}

// SetMetrics attaches the optional observability instruments
func (s *DashboardService) SetMetrics(m *infrastructure.DashboardMetrics) {
	s.metrics = m
}

// NumericFilterRequest is the per-field filter input from the UI
type NumericFilterRequest struct {
	Field string   `json:"field" validate:"required"`
	Sign  string   `json:"sign" validate:"omitempty,oneof=all positive negative"`
	Lo    *float64 `json:"lo"`
	Hi    *float64 `json:"hi"`
}

// ViewRequest carries every dashboard control in one recompute request
type ViewRequest struct {
	DateMode       string                 `json:"date_mode" validate:"required,oneof=latest yesterday last_week last_month custom"`
	From           string                 `json:"from" validate:"required_if=DateMode custom,omitempty,datetime=2006-01-02"`
	To             string                 `json:"to" validate:"required_if=DateMode custom,omitempty,datetime=2006-01-02"`
	Columns        []string               `json:"columns"`
	Symbols        []string               `json:"symbols"`
	AllSymbols     bool                   `json:"all_symbols"`
	NumericFilters []NumericFilterRequest `json:"numeric_filters" validate:"dive"`
	Page           int                    `json:"page" validate:"omitempty,min=1"`
}

// ViewResult is the computed page plus everything the presentation layer
// needs to redraw its controls
type ViewResult struct {
	Columns   []string             `json:"columns"`
	Rows      [][]string           `json:"rows"`
	Page      int                  `json:"page"`
	PageCount int                  `json:"page_count"`
	PageSize  int                  `json:"page_size"`
	TotalRows int                  `json:"total_rows"`
	Window    filters.DateWindow   `json:"window"`
	Ranges    []filters.FieldRange `json:"ranges"`
}

// ExportInfo describes a completed export
type ExportInfo struct {
	Filename string
	MimeType string
	Rows     int
}

// Options describes the dataset-driven control options: what can be
// selected before any filtering happens
type Options struct {
	Symbols               []string `json:"symbols"`
	Columns               []string `json:"columns"`
	NumericColumns        []string `json:"numeric_columns"`
	DefaultColumns        []string `json:"default_columns"`
	DefaultNumericFilters []string `json:"default_numeric_filters"`
	DateModes             []string `json:"date_modes"`
	MinDate               string   `json:"min_date"`
	MaxDate               string   `json:"max_date"`
	PageSize              int      `json:"page_size"`
	TotalRows             int      `json:"total_rows"`
}

// GetOptions returns the selectable controls derived from the loaded frame
func (s *DashboardService) GetOptions(ctx context.Context) (*Options, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxDate, ok := s.frame.MaxDate()
	if !ok {
		return nil, ErrDatasetEmpty
	}
	minDate, _ := s.frame.MinDate()

	numeric := s.frame.NumericColumns()
	numericSet := make(map[string]struct{}, len(numeric))
	for _, col := range numeric {
		numericSet[col] = struct{}{}
	}

	// Preselected numeric filters only count when the column is numeric
	var defaultFilters []string
	for _, col := range s.cfg.Data.DefaultNumericFilters {
		if _, ok := numericSet[col]; ok {
			defaultFilters = append(defaultFilters, col)
		}
	}

	return &Options{
		Symbols:               s.frame.Symbols(),
		Columns:               s.frame.Columns(),
		NumericColumns:        numeric,
		DefaultColumns:        s.frame.SelectExisting(s.cfg.Data.DefaultColumns),
		DefaultNumericFilters: defaultFilters,
		DateModes: []string{
			string(filters.ModeLatest),
			string(filters.ModeYesterday),
			string(filters.ModeLastWeek),
			string(filters.ModeLastMonth),
			string(filters.ModeCustom),
		},
		MinDate:   minDate.Format(dateLayout),
		MaxDate:   maxDate.Format(dateLayout),
		PageSize:  s.cfg.Data.PageSize,
		TotalRows: s.frame.Len(),
	}, nil
}

// View runs the full pipeline for one interaction: resolve the date
// window, apply the cumulative sign filters, compose the predicates,
// rewrite symbol links, and paginate.
func (s *DashboardService) View(ctx context.Context, req ViewRequest) (*ViewResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	filtered, ranges, window, err := s.recompute(ctx, req)
	if err != nil {
		return nil, err
	}

	columns := s.displayColumns(req.Columns)
	page := paginate.Paginate(filtered, s.cfg.Data.PageSize, req.Page)

	result := &ViewResult{
		Columns:   columns,
		Rows:      s.renderRows(page.Frame, columns),
		Page:      page.Number,
		PageCount: page.PageCount,
		PageSize:  page.PageSize,
		TotalRows: page.TotalRows,
		Window:    window,
		Ranges:    ranges,
	}

	infrastructure.RecordViewMetrics(ctx, s.metrics, time.Since(start), page.TotalRows)

	s.logger.InfoContext(ctx, "view recomputed",
		slog.String("date_mode", req.DateMode),
		slog.Int("numeric_filters", len(req.NumericFilters)),
		slog.Int("total_rows", page.TotalRows),
		slog.Int("page", page.Number),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

// Export runs the same pipeline without pagination and serializes the
// selection to w in the requested format
func (s *DashboardService) Export(ctx context.Context, req ViewRequest, format string, w io.Writer) (*ExportInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered, _, _, err := s.recompute(ctx, req)
	if err != nil {
		return nil, err
	}

	columns := s.displayColumns(req.Columns)
	rows := s.renderRows(filtered, columns)

	if format == "" {
		format = "csv"
	}

	info := &ExportInfo{Rows: len(rows)}
	switch format {
	case "csv":
		info.Filename = exporter.CSVFilename
		info.MimeType = exporter.CSVMimeType
		err = exporter.WriteCSV(w, columns, rows)
	case "xlsx":
		info.Filename = exporter.XLSXFilename
		info.MimeType = exporter.XLSXMimeType
		err = exporter.WriteXLSX(w, columns, rows)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("export failed: %w", err)
	}

	infrastructure.RecordExportMetrics(ctx, s.metrics, format, info.Rows)

	s.logger.InfoContext(ctx, "selection exported",
		slog.String("format", format),
		slog.String("filename", info.Filename),
		slog.Int("rows", info.Rows))

	return info, nil
}

// recompute resolves the window and applies sign, symbol, date, and
// range filters in the documented order
func (s *DashboardService) recompute(ctx context.Context, req ViewRequest) (*dataset.Frame, []filters.FieldRange, filters.DateWindow, error) {
	latest, ok := s.frame.MaxDate()
	if !ok {
		return nil, nil, filters.DateWindow{}, ErrDatasetEmpty
	}
	earliest, _ := s.frame.MinDate()

	var customStart, customEnd time.Time
	if filters.Mode(req.DateMode) == filters.ModeCustom {
		var err error
		customStart, err = time.Parse(dateLayout, req.From)
		if err != nil {
			return nil, nil, filters.DateWindow{}, fmt.Errorf("invalid custom start date %q: %w", req.From, err)
		}
		customEnd, err = time.Parse(dateLayout, req.To)
		if err != nil {
			return nil, nil, filters.DateWindow{}, fmt.Errorf("invalid custom end date %q: %w", req.To, err)
		}
	}

	window, err := filters.ResolveWindow(filters.Mode(req.DateMode), latest, earliest, latest, customStart, customEnd)
	if err != nil {
		return nil, nil, filters.DateWindow{}, err
	}

	fieldFilters := make([]filters.FieldFilter, 0, len(req.NumericFilters))
	for _, nf := range req.NumericFilters {
		fieldFilters = append(fieldFilters, filters.FieldFilter{
			Field: nf.Field,
			Sign:  s.effectiveSign(nf),
			Lo:    nf.Lo,
			Hi:    nf.Hi,
		})
	}

	working, ranges, err := filters.ApplySignFilters(s.frame, fieldFilters)
	if err != nil {
		return nil, nil, filters.DateWindow{}, err
	}

	filtered := filters.Apply(working, filters.FilterSet{
		Symbols:    req.Symbols,
		AllSymbols: req.AllSymbols,
		Window:     window,
		Ranges:     ranges,
	})

	return filtered, ranges, window, nil
}

// effectiveSign resolves a request's sign mode, defaulting preselected
// fields to positive-only and everything else to all
func (s *DashboardService) effectiveSign(nf NumericFilterRequest) filters.SignMode {
	if nf.Sign != "" {
		return filters.SignMode(nf.Sign)
	}
	for _, col := range s.cfg.Data.DefaultNumericFilters {
		if col == nf.Field {
			return filters.SignPositive
		}
	}
	return filters.SignAll
}

// displayColumns intersects the requested columns (or the configured
// defaults) with what the dataset actually has
func (s *DashboardService) displayColumns(requested []string) []string {
	if len(requested) == 0 {
		requested = s.cfg.Data.DefaultColumns
	}
	return s.frame.SelectExisting(requested)
}

// renderRows materializes the frame as display cells, rewriting the
// symbol column into chart links
func (s *DashboardService) renderRows(frame *dataset.Frame, columns []string) [][]string {
	symbolColumn := frame.SymbolColumn()
	rows := make([][]string, 0, frame.Len())
	for _, r := range frame.Records() {
		row := make([]string, len(columns))
		for i, col := range columns {
			if col == symbolColumn {
				row[i] = s.linker.Link(r.Symbol)
				continue
			}
			row[i] = r.Cell(col)
		}
		rows = append(rows, row)
	}
	return rows
}
