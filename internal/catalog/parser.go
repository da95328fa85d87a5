// Package catalog parses the XML documents returned by the Genesis search and
// metadata catalog operations into uniform catalog entries.
package catalog

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/marians/genesisclient/internal/core"
)

// =============================================================================
// RECORD SPECS
// =============================================================================

// RecordSpec names the repeating record element of one operation and the
// child elements read from it. Empty child names are not read.
type RecordSpec struct {
	// Tag is the repeating element, e.g. "trefferListe".
	Tag string
	// IDField identifies a record; records without it are skipped.
	IDField              string
	DescriptionField     string
	NameField            string
	TypeField            string
	LongDescriptionField string
}

// CodeSpec reads code and inhalt, the shape shared by most catalog operations.
func CodeSpec(tag string) RecordSpec {
	return RecordSpec{Tag: tag, IDField: "code", DescriptionField: "inhalt"}
}

// LabeledCodeSpec additionally reads the long label text (beschriftungstext).
func LabeledCodeSpec(tag string) RecordSpec {
	spec := CodeSpec(tag)
	spec.LongDescriptionField = "beschriftungstext"
	return spec
}

// SearchHitSpec describes the hit list of the Recherche operation.
var SearchHitSpec = RecordSpec{
	Tag:              "trefferListe",
	IDField:          "EVAS",
	DescriptionField: "kurztext",
	NameField:        "name",
	TypeField:        "objektTyp",
}

// Elements of the search overview (per-category hit counts).
const (
	overviewTag      = "trefferUebersicht"
	overviewTypeTag  = "objektTyp"
	overviewCountTag = "trefferAnzahl"
)

// =============================================================================
// PARSER
// =============================================================================

// Parser turns raw response documents into catalog entries.
type Parser struct {
	log   *zap.Logger
	clean func(*string) *string
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for skipped-record diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

// WithCollapsedWhitespace collapses every run of spaces in text fields
// instead of the default single replacement pass.
func WithCollapsedWhitespace() Option {
	return func(p *Parser) {
		p.clean = core.CollapsePtr
	}
}

// New creates a parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		log:   zap.NewNop(),
		clean: core.CleanPtr,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Entries parses raw eagerly and returns a sequence that yields one entry per
// spec.Tag element in document order. Malformed XML is a *core.ParseError.
func (p *Parser) Entries(raw []byte, spec RecordSpec) (iter.Seq[core.CatalogEntry], error) {
	root, err := parseDocument(raw)
	if err != nil {
		return nil, &core.ParseError{Tag: spec.Tag, Err: err}
	}
	return p.entries(root, spec), nil
}

// Collect is Entries gathered into a slice. The slice is never nil.
func (p *Parser) Collect(raw []byte, spec RecordSpec) ([]core.CatalogEntry, error) {
	seq, err := p.Entries(raw, spec)
	if err != nil {
		return nil, err
	}
	out := slices.Collect(seq)
	if out == nil {
		out = []core.CatalogEntry{}
	}
	return out, nil
}

// SearchMeta reads the per-category hit counts of a Recherche response.
func (p *Parser) SearchMeta(raw []byte) (map[string]int, error) {
	root, err := parseDocument(raw)
	if err != nil {
		return nil, &core.ParseError{Tag: overviewTag, Err: err}
	}
	return p.meta(root), nil
}

// Search parses a Recherche response into hit counts and hits.
func (p *Parser) Search(raw []byte) (*core.SearchResult, error) {
	root, err := parseDocument(raw)
	if err != nil {
		return nil, &core.ParseError{Tag: SearchHitSpec.Tag, Err: err}
	}
	results := slices.Collect(p.entries(root, SearchHitSpec))
	if results == nil {
		results = []core.CatalogEntry{}
	}
	return &core.SearchResult{
		Meta:    p.meta(root),
		Results: results,
	}, nil
}

func (p *Parser) entries(root *etree.Element, spec RecordSpec) iter.Seq[core.CatalogEntry] {
	return func(yield func(core.CatalogEntry) bool) {
		for el := range descendants(root, spec.Tag) {
			id := childText(el, spec.IDField)
			if id == nil {
				p.log.Debug("Skipping record without identifier",
					zap.String("tag", spec.Tag), zap.String("field", spec.IDField))
				continue
			}
			entry := core.CatalogEntry{
				ID:              *id,
				Description:     p.clean(childText(el, spec.DescriptionField)),
				Name:            childText(el, spec.NameField),
				Type:            childText(el, spec.TypeField),
				LongDescription: p.clean(childText(el, spec.LongDescriptionField)),
			}
			if !yield(entry) {
				return
			}
		}
	}
}

func (p *Parser) meta(root *etree.Element) map[string]int {
	out := make(map[string]int)
	for el := range descendants(root, overviewTag) {
		otype := childText(el, overviewTypeTag)
		count := childText(el, overviewCountTag)
		if otype == nil || count == nil {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(*count))
		if err != nil {
			p.log.Debug("Skipping non-numeric hit count",
				zap.String("category", *otype), zap.String("count", *count))
			continue
		}
		out[*otype] = n
	}
	return out
}

// =============================================================================
// XML HELPERS
// =============================================================================

// parseDocument checks well-formedness with a strict decoder, then builds the
// element tree.
func parseDocument(raw []byte) (*etree.Element, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errors.New("empty document")
	}
	if err := checkWellFormed(raw); err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("document has no root element")
	}
	return root, nil
}

func checkWellFormed(raw []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = charsetReader
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// descendants yields every element below root whose local name is tag,
// in document order.
func descendants(root *etree.Element, tag string) iter.Seq[*etree.Element] {
	return func(yield func(*etree.Element) bool) {
		var walk func(el *etree.Element) bool
		walk = func(el *etree.Element) bool {
			for _, child := range el.ChildElements() {
				if child.Tag == tag && !yield(child) {
					return false
				}
				if !walk(child) {
					return false
				}
			}
			return true
		}
		if root.Tag == tag && !yield(root) {
			return
		}
		walk(root)
	}
}

// childText returns the text of the first child named tag, or nil when the
// child is absent, empty, or marked xsi:nil.
func childText(el *etree.Element, tag string) *string {
	if tag == "" {
		return nil
	}
	child := el.SelectElement(tag)
	if child == nil {
		return nil
	}
	if child.SelectAttrValue("nil", "") == "true" {
		return nil
	}
	text := child.Text()
	if text == "" {
		return nil
	}
	return &text
}
