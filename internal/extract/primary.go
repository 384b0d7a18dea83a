package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// TextLayerEngine is the primary engine: in-process text-layer extraction.
type TextLayerEngine struct{}

func (TextLayerEngine) Name() string { return "text_layer" }

// Available always holds for the in-process engine; it fails per file
// instead, which routes that file to the fallback.
func (TextLayerEngine) Available() bool { return true }

func (TextLayerEngine) ExtractPages(ctx context.Context, pdfPath string) (pages []PageText, err error) {
	// The parser panics on some malformed files; surface that as a per-file
	// error so the fallback engine gets its turn.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("text layer parse panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	total := r.NumPage()
	pages = make([]PageText, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, PageText{Number: i})
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, PageText{Number: i, Text: text})
	}
	return pages, nil
}
