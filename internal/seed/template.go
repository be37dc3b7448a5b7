// Package seed renders sample compliance templates. The captions it prints
// sit just below each placement so filled output can be checked by eye.
package seed

import (
	"fmt"
	"io"

	"github.com/Lllllllleong/compliancedocs/internal/filler"
	"github.com/jung-kurt/gofpdf"
)

// Template writes a Letter-size template with the given number of pages to
// w, marking every bottom-left anchored rule of layout.
func Template(w io.Writer, pages int, layout filler.Layout) error {
	if pages < 1 {
		return fmt.Errorf("seed.Template: pages must be at least 1, got %d", pages)
	}

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetTitle("Compliance Agreement", true)
	_, height := pdf.GetPageSize()

	for page := 1; page <= pages; page++ {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetTextColor(0, 0, 0)
		pdf.Text(50, 50, fmt.Sprintf("Compliance Agreement - Page %d of %d", page, pages))

		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(110, 110, 110)
		pdf.SetDrawColor(160, 160, 160)
		for _, rule := range layout {
			if rule.Page != page || rule.Anchor != filler.AnchorBottomLeft {
				continue
			}
			// gofpdf measures y down from the top edge.
			y := height - rule.Y
			pdf.Line(rule.X, y+3, rule.X+200, y+3)
			pdf.Text(rule.X, y+12, string(rule.Field))
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}
	return nil
}
