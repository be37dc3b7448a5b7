package filler

import (
	"fmt"
	"strings"
)

// MinPages is the page count every filled document is padded to. All rules
// address pages within this range.
const MinPages = 5

const defaultFontSize = 14

// Anchor selects the page corner a rule's coordinates are measured from.
type Anchor string

const (
	// AnchorBottomLeft measures X right and Y up from the lower-left corner.
	AnchorBottomLeft Anchor = "bl"
	// AnchorTopLeft measures X right and Y down from the upper-left corner.
	AnchorTopLeft Anchor = "tl"
)

// Color is an RGB fill color with components in [0, 1].
type Color struct {
	R, G, B float64
}

var Black = Color{}

// PlacementRule draws one field's value at a fixed position on one page.
type PlacementRule struct {
	Field    Field
	Page     int // 1-based
	X, Y     float64
	FontSize int
	Color    Color
	Anchor   Anchor
	// Format is applied to the raw value; it must contain exactly one %s.
	Format string
}

// Layout is an ordered placement table. Rules are applied in order.
type Layout []PlacementRule

// ComplianceLayout places the fields on the compliance pages 2 through 5.
var ComplianceLayout = Layout{
	{Field: FieldAddress, Page: 2, X: 195, Y: 660, FontSize: defaultFontSize, Color: Black, Anchor: AnchorBottomLeft, Format: "%s"},
	{Field: FieldAddress, Page: 4, X: 195, Y: 658.5, FontSize: defaultFontSize, Color: Black, Anchor: AnchorBottomLeft, Format: "%s"},
	{Field: FieldPrice, Page: 3, X: 140, Y: 305, FontSize: defaultFontSize, Color: Black, Anchor: AnchorBottomLeft, Format: "%s"},
	{Field: FieldDate, Page: 3, X: 400, Y: 155, FontSize: defaultFontSize, Color: Black, Anchor: AnchorBottomLeft, Format: "%s"},
	{Field: FieldDate, Page: 4, X: 410, Y: 128, FontSize: defaultFontSize, Color: Black, Anchor: AnchorBottomLeft, Format: "%s"},
	{Field: FieldDate, Page: 5, X: 120, Y: 280, FontSize: defaultFontSize, Color: Black, Anchor: AnchorBottomLeft, Format: "%s"},
	{Field: FieldFullName, Page: 5, X: 150, Y: 350, FontSize: defaultFontSize, Color: Black, Anchor: AnchorBottomLeft, Format: "%s"},
}

// SummaryLayout repeats every field with a label on the first page.
var SummaryLayout = Layout{
	{Field: FieldFullName, Page: 1, X: 50, Y: 100, FontSize: defaultFontSize, Color: Black, Anchor: AnchorTopLeft, Format: "Full Name: %s"},
	{Field: FieldAddress, Page: 1, X: 50, Y: 140, FontSize: defaultFontSize, Color: Black, Anchor: AnchorTopLeft, Format: "Address: %s"},
	{Field: FieldDate, Page: 1, X: 50, Y: 180, FontSize: defaultFontSize, Color: Black, Anchor: AnchorTopLeft, Format: "Date: %s"},
	{Field: FieldPrice, Page: 1, X: 50, Y: 220, FontSize: defaultFontSize, Color: Black, Anchor: AnchorTopLeft, Format: "Price: $%s"},
}

// SummaryAndComplianceLayout applies the first-page summary before the
// compliance rules.
func SummaryAndComplianceLayout() Layout {
	layout := make(Layout, 0, len(SummaryLayout)+len(ComplianceLayout))
	layout = append(layout, SummaryLayout...)
	return append(layout, ComplianceLayout...)
}

// Validate checks every rule can be applied to a padded document.
func (l Layout) Validate() error {
	for i, rule := range l {
		switch {
		case rule.Page < 1 || rule.Page > MinPages:
			return fmt.Errorf("rule %d (%s): page %d outside 1..%d", i, rule.Field, rule.Page, MinPages)
		case rule.FontSize <= 0:
			return fmt.Errorf("rule %d (%s): font size must be positive", i, rule.Field)
		case rule.Anchor != AnchorBottomLeft && rule.Anchor != AnchorTopLeft:
			return fmt.Errorf("rule %d (%s): unknown anchor %q", i, rule.Field, rule.Anchor)
		case strings.Count(rule.Format, "%s") != 1 || strings.Count(rule.Format, "%") != 1:
			return fmt.Errorf("rule %d (%s): format %q must contain exactly one %%s", i, rule.Field, rule.Format)
		}
	}
	return nil
}

// Rules returns the rules for f in table order.
func (l Layout) Rules(f Field) []PlacementRule {
	var rules []PlacementRule
	for _, rule := range l {
		if rule.Field == f {
			rules = append(rules, rule)
		}
	}
	return rules
}
