package http

import (
	"context"
	"io"

	"fodash/internal/services"
)

// DashboardServiceInterface is what the handlers need from the
// dashboard service. Defined here so tests can mock it.
type DashboardServiceInterface interface {
	GetOptions(ctx context.Context) (*services.Options, error)
	View(ctx context.Context, req services.ViewRequest) (*services.ViewResult, error)
	Export(ctx context.Context, req services.ViewRequest, format string, w io.Writer) (*services.ExportInfo, error)
}
