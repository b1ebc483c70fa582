package export

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/odyssey-erp/voucherdesk/internal/accounting/vouchers"
	"github.com/odyssey-erp/voucherdesk/report"
	"github.com/odyssey-erp/voucherdesk/web"
)

const printTemplate = "templates/vouchers/voucher_print.html"

// Renderer converts HTML into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string, opts report.PageOptions) ([]byte, error)
}

// Exporter produces voucher documents.
type Exporter struct {
	renderer Renderer
	labels   LabelResolver
	opts     Options
	tmpl     *template.Template
}

// NewExporter parses the embedded print template.
func NewExporter(renderer Renderer, labels LabelResolver, opts Options) (*Exporter, error) {
	tmpl, err := template.ParseFS(web.Templates, printTemplate)
	if err != nil {
		return nil, fmt.Errorf("export: parse template: %w", err)
	}
	return &Exporter{
		renderer: renderer,
		labels:   labels,
		opts:     opts.withDefaults(),
		tmpl:     tmpl,
	}, nil
}

// HTML renders the print view of v.
func (e *Exporter) HTML(ctx context.Context, v vouchers.Voucher) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, buildView(ctx, v, e.labels, e.opts)); err != nil {
		return "", fmt.Errorf("export: execute template: %w", err)
	}
	return buf.String(), nil
}

// PDF renders v through the HTML renderer.
func (e *Exporter) PDF(ctx context.Context, v vouchers.Voucher) ([]byte, error) {
	if e.renderer == nil {
		return nil, fmt.Errorf("export: pdf renderer not configured")
	}
	html, err := e.HTML(ctx, v)
	if err != nil {
		return nil, err
	}
	return e.renderer.RenderHTML(ctx, html, report.LetterPortrait)
}
