// Package export decodes the multipart responses of the Genesis table
// download operations into a single payload.
//
// Two strategies exist. StrategyLegacy slices the response at fixed offsets,
// exactly as the remote service lays it out. StrategyMIME reads the response
// with a multipart reader and returns the attachment part.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"github.com/marians/genesisclient/internal/core"
)

// Strategy selects how export envelopes are taken apart.
type Strategy string

const (
	StrategyLegacy Strategy = "legacy"
	StrategyMIME   Strategy = "mime"
)

// ParseStrategy validates a strategy name. Empty selects StrategyLegacy.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyLegacy, nil
	case StrategyLegacy, StrategyMIME:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown export strategy %q", core.ErrInvalidOption, s)
	}
}

// Envelope layout of the ExcelDownload response. These offsets are part of
// the remote service's response format, not of this package.
const (
	LegacyHeaderLines  = 12
	LegacyTrailerLines = 2
)

const (
	crlf       = "\r\n"
	headerSep  = "\r\n\r\n"
	minSegment = 3
)

// Extractor decodes export responses.
type Extractor struct {
	strategy Strategy
	log      *zap.Logger
}

// NewExtractor creates an extractor. A nil logger is replaced by a no-op one.
func NewExtractor(strategy Strategy, log *zap.Logger) *Extractor {
	if strategy == "" {
		strategy = StrategyLegacy
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{strategy: strategy, log: log}
}

// Extract returns the payload of raw, tagged for the requested format.
func (x *Extractor) Extract(format core.Format, raw []byte) (core.Payload, error) {
	var (
		content []byte
		err     error
	)
	switch {
	case x.strategy == StrategyMIME:
		content, err = MIMEPayload(format, raw)
	case format.IsBinary():
		content, err = BinaryLegacy(raw)
	default:
		content, err = TextLegacy(format, raw)
	}
	if err != nil {
		return nil, err
	}

	x.log.Debug("Extracted export payload",
		zap.String("format", string(format)),
		zap.String("strategy", string(x.strategy)),
		zap.Int("raw_bytes", len(raw)),
		zap.Int("payload_bytes", len(content)))

	if format.IsBinary() {
		return &core.BinaryPayload{Content: content}, nil
	}
	return core.NewTextPayload(content), nil
}

// =============================================================================
// LEGACY SLICING
// =============================================================================

// TextLegacy extracts a CSV or HTML payload. The boundary is the first
// non-empty line of raw; the payload is the third boundary-delimited
// segment after its first blank line.
func TextLegacy(format core.Format, raw []byte) ([]byte, error) {
	boundary := firstLine(raw)
	if len(boundary) == 0 {
		return nil, &core.MalformedExportError{Format: format, Reason: "no boundary line"}
	}

	parts := bytes.Split(raw, boundary)
	if len(parts) < minSegment {
		return nil, &core.MalformedExportError{
			Format: format,
			Reason: fmt.Sprintf("expected at least %d boundary segments, got %d", minSegment, len(parts)),
		}
	}

	segment := parts[2]
	if _, body, ok := bytes.Cut(segment, []byte(headerSep)); ok {
		segment = body
	}
	return segment, nil
}

// BinaryLegacy extracts an XLS payload by dropping the fixed envelope
// header and trailer lines.
func BinaryLegacy(raw []byte) ([]byte, error) {
	lines := bytes.Split(raw, []byte(crlf))
	if len(lines) < LegacyHeaderLines+LegacyTrailerLines {
		return nil, &core.MalformedExportError{
			Format: core.FormatXLS,
			Reason: fmt.Sprintf("expected at least %d envelope lines, got %d",
				LegacyHeaderLines+LegacyTrailerLines, len(lines)),
		}
	}
	body := lines[LegacyHeaderLines : len(lines)-LegacyTrailerLines]
	return bytes.Join(body, []byte(crlf)), nil
}

func firstLine(raw []byte) []byte {
	for _, line := range bytes.Split(raw, []byte(crlf)) {
		if len(bytes.TrimSpace(line)) > 0 {
			return line
		}
	}
	return nil
}

// =============================================================================
// MIME PARSING
// =============================================================================

// MIMEPayload reads raw as a multipart body and returns the last part, which
// carries the attachment following the SOAP envelope part.
func MIMEPayload(format core.Format, raw []byte) ([]byte, error) {
	line := firstLine(raw)
	boundary, ok := bytes.CutPrefix(bytes.TrimSpace(line), []byte("--"))
	if !ok || len(boundary) == 0 {
		return nil, &core.MalformedExportError{Format: format, Reason: "no multipart boundary"}
	}

	mr := multipart.NewReader(bytes.NewReader(raw), string(boundary))
	var (
		last  []byte
		count int
	)
	for {
		part, err := mr.NextRawPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &core.MalformedExportError{Format: format, Reason: "read part", Err: err}
		}
		last, err = io.ReadAll(part)
		if err != nil {
			return nil, &core.MalformedExportError{Format: format, Reason: "read part body", Err: err}
		}
		count++
	}
	if count < 2 {
		return nil, &core.MalformedExportError{
			Format: format,
			Reason: fmt.Sprintf("expected an envelope and an attachment part, got %d parts", count),
		}
	}
	return last, nil
}
