package extract

import "context"

// PageText is one physical page's text layer, in PDF page order.
type PageText struct {
	Number int
	Text   string
}

// Engine turns a local PDF into per-page text. Availability is probed once
// at construction, never at the call site.
type Engine interface {
	Name() string
	Available() bool
	ExtractPages(ctx context.Context, pdfPath string) ([]PageText, error)
}
