package filler

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	pdffont "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"golang.org/x/text/encoding/charmap"
)

// stampFont is a standard 14 font, so nothing is embedded. Its font dict
// uses WinAnsiEncoding.
const stampFont = "Helvetica"

const fontResourcePrefix = "FStamp"

// Stamp is a placement rule resolved against a submitted value.
type Stamp struct {
	Field    Field
	Page     int
	Text     string
	X, Y     float64
	FontSize int
	Color    Color
	Anchor   Anchor
}

// Plan resolves the layout against values. Rules for absent fields produce
// nothing; the remaining stamps keep table order.
func (l Layout) Plan(values FieldValues) []Stamp {
	var stamps []Stamp
	for _, rule := range l {
		value := values.Value(rule.Field)
		if value == "" {
			continue
		}
		stamps = append(stamps, Stamp{
			Field:    rule.Field,
			Page:     rule.Page,
			Text:     strings.Replace(rule.Format, "%s", value, 1),
			X:        rule.X,
			Y:        rule.Y,
			FontSize: rule.FontSize,
			Color:    rule.Color,
			Anchor:   rule.Anchor,
		})
	}
	return stamps
}

// baseline returns the start of the text baseline in default user space for
// a page with the given media box.
func (s Stamp) baseline(mediaBox *types.Rectangle) (x, y float64) {
	if s.Anchor == AnchorTopLeft {
		return s.X, mediaBox.UR.Y - s.Y
	}
	return s.X, s.Y
}

// operators renders the text object drawing s with the font resource named
// fontID.
func (s Stamp) operators(fontID string, mediaBox *types.Rectangle) string {
	x, y := s.baseline(mediaBox)
	return fmt.Sprintf("BT\n/%s %d Tf\n%s %s %s rg\n%s %s Td\n%s Tj\nET\n",
		fontID, s.FontSize,
		number(s.Color.R), number(s.Color.G), number(s.Color.B),
		number(x), number(y),
		literalString(s.Text),
	)
}

func number(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// literalString encodes text as a PDF literal string in WinAnsiEncoding.
// Runes outside that encoding are drawn as '?'.
func literalString(text string) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, r := range text {
		c, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			c = '?'
		}
		switch {
		case c == '(' || c == ')' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c > 0x7e:
			fmt.Fprintf(&b, "\\%03o", c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// drawStamps appends the stamps to the content of their pages. Existing page
// content is wrapped in q/Q so stamps are drawn in default user space.
func drawStamps(ctx *model.Context, stamps []Stamp) error {
	font, err := pdffont.EnsureFontDict(ctx.XRefTable, stampFont, "", "", false, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s font: %w", stampFont, err)
	}

	byPage := make(map[int][]Stamp)
	for _, s := range stamps {
		byPage[s.Page] = append(byPage[s.Page], s)
	}
	pages := make([]int, 0, len(byPage))
	for page := range byPage {
		pages = append(pages, page)
	}
	sort.Ints(pages)

	for _, page := range pages {
		if err := drawPage(ctx, page, *font, byPage[page]); err != nil {
			return fmt.Errorf("failed to stamp page %d: %w", page, err)
		}
	}
	ctx.EnsureVersionForWriting()
	return nil
}

func drawPage(ctx *model.Context, page int, font types.IndirectRef, stamps []Stamp) error {
	pageDict, _, inherited, err := ctx.PageDict(page, false)
	if err != nil {
		return err
	}
	if pageDict == nil || inherited == nil || inherited.MediaBox == nil {
		return fmt.Errorf("page has no media box")
	}

	fontID, err := fontResource(ctx, pageDict, inherited.Resources, font)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteString("Q\n")
	for _, s := range stamps {
		buf.WriteString(s.operators(fontID, inherited.MediaBox))
	}

	existing, err := pageContents(ctx, pageDict)
	if err != nil {
		return err
	}
	open, err := contentStream(ctx, []byte("q\n"))
	if err != nil {
		return err
	}
	stamp, err := contentStream(ctx, buf.Bytes())
	if err != nil {
		return err
	}

	contents := make(types.Array, 0, len(existing)+2)
	contents = append(contents, *open)
	contents = append(contents, existing...)
	contents = append(contents, *stamp)
	pageDict.Update("Contents", contents)
	return nil
}

// pageContents returns the page's content stream references in order.
func pageContents(ctx *model.Context, pageDict types.Dict) (types.Array, error) {
	o, found := pageDict.Find("Contents")
	if !found || o == nil {
		return nil, nil
	}
	if ir, ok := o.(types.IndirectRef); ok {
		obj, err := ctx.Dereference(ir)
		if err != nil {
			return nil, err
		}
		if a, ok := obj.(types.Array); ok {
			return a, nil
		}
		return types.Array{ir}, nil
	}
	if a, ok := o.(types.Array); ok {
		return a, nil
	}
	return nil, fmt.Errorf("unexpected page contents %T", o)
}

func contentStream(ctx *model.Context, content []byte) (*types.IndirectRef, error) {
	sd, err := ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return ctx.IndRefForNewObject(*sd)
}

// fontResource registers font in the page's font resources and returns its
// resource name. Pages that inherit their resources get their own copy.
func fontResource(ctx *model.Context, pageDict, inherited types.Dict, font types.IndirectRef) (string, error) {
	var res types.Dict
	if o, found := pageDict.Find("Resources"); found {
		d, err := ctx.DereferenceDict(o)
		if err != nil {
			return "", err
		}
		res = d
	}
	if res == nil {
		res = types.NewDict()
		if inherited != nil {
			res = inherited.Clone().(types.Dict)
		}
		pageDict.Update("Resources", res)
	}

	var fonts types.Dict
	if o, found := res.Find("Font"); found {
		d, err := ctx.DereferenceDict(o)
		if err != nil {
			return "", err
		}
		fonts = d
	}
	if fonts == nil {
		fonts = types.NewDict()
		res.Update("Font", fonts)
	}

	for i := 0; ; i++ {
		id := fontResourcePrefix + strconv.Itoa(i)
		o, found := fonts.Find(id)
		if !found {
			fonts.Insert(id, font)
			return id, nil
		}
		// Resource dicts shared between pages already carry the font.
		if ir, ok := o.(types.IndirectRef); ok && ir == font {
			return id, nil
		}
	}
}
