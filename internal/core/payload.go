package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Format is the requested output format of a table export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
	FormatXLS  Format = "xls"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatHTML, FormatXLS:
		return f, nil
	case "":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unsupported export format %q", ErrInvalidOption, s)
	}
}

// IsBinary reports whether the format is delivered as a binary payload.
func (f Format) IsBinary() bool {
	return f == FormatXLS
}

// Text encodings of exported text payloads.
const (
	EncodingUTF8   = "utf-8"
	EncodingLatin1 = "latin-1"
)

// Payload is the decoded content of a table export: either *TextPayload or
// *BinaryPayload.
type Payload interface {
	Bytes() []byte
	isPayload()
}

// TextPayload carries CSV or HTML content together with its encoding.
type TextPayload struct {
	Encoding string
	Content  []byte
}

// NewTextPayload tags content as UTF-8 when valid, otherwise Latin-1.
func NewTextPayload(content []byte) *TextPayload {
	enc := EncodingUTF8
	if !utf8.Valid(content) {
		enc = EncodingLatin1
	}
	return &TextPayload{Encoding: enc, Content: content}
}

func (p *TextPayload) Bytes() []byte { return p.Content }

func (*TextPayload) isPayload() {}

// String decodes the content to a Go string.
func (p *TextPayload) String() string {
	if p.Encoding != EncodingLatin1 {
		return string(p.Content)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(p.Content)
	if err != nil {
		// ISO 8859-1 maps every byte, so this is unreachable in practice.
		return string(p.Content)
	}
	return string(decoded)
}

// BinaryPayload carries an XLS workbook.
type BinaryPayload struct {
	Content []byte
}

func (p *BinaryPayload) Bytes() []byte { return p.Content }

func (*BinaryPayload) isPayload() {}

// ExportedTable is the result of a table download.
type ExportedTable struct {
	TableCode string
	RegionKey string
	Format    Format
	Payload   Payload
}

// FileName follows the naming rule of the download command:
// <table>.<format>, or <table>_<region>.<format> when a region key is set.
func (t *ExportedTable) FileName() string {
	if t.RegionKey != "" && t.RegionKey != "*" {
		return fmt.Sprintf("%s_%s.%s", t.TableCode, t.RegionKey, t.Format)
	}
	return fmt.Sprintf("%s.%s", t.TableCode, t.Format)
}
