// Package soap implements the remote invoker for the Genesis web services as
// SOAP 1.1 calls over HTTP.
package soap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"go.uber.org/zap"

	genhttp "github.com/marians/genesisclient/internal/connector/http"
	"github.com/marians/genesisclient/internal/core"
)

const (
	envelopeNS  = "http://schemas.xmlsoap.org/soap/envelope/"
	contentType = "text/xml; charset=utf-8"
)

// Config configures invokers created by NewFactory.
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	RateLimit  float64
	UserAgent  string
	Logger     *zap.Logger
	// Transport allows injecting a custom HTTP transport (for tests/stubs).
	Transport http.RoundTripper
}

// Invoker calls the operations of one endpoint on one site.
type Invoker struct {
	endpoint core.Endpoint
	client   *genhttp.Client
	log      *zap.Logger
}

var _ core.Invoker = (*Invoker)(nil)

// New creates an invoker for the given site and endpoint.
func New(site core.Site, endpoint core.Endpoint, cfg Config) *Invoker {
	httpConfig := genhttp.DefaultClientConfig()
	httpConfig.BaseURL = site.BaseURL
	if cfg.Timeout > 0 {
		httpConfig.Timeout = cfg.Timeout
	}
	if cfg.RateLimit > 0 {
		httpConfig.RateLimit = cfg.RateLimit
	}
	if cfg.UserAgent != "" {
		httpConfig.UserAgent = cfg.UserAgent
	}
	httpConfig.MaxRetries = cfg.MaxRetries
	httpConfig.Transport = cfg.Transport
	httpConfig.RetryIf = func(e *genhttp.HTTPError) bool {
		// Faults are business errors; only bare server failures are retried.
		return (e.IsServerError() || e.IsRateLimited()) && !looksLikeFault(e.Body)
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Invoker{
		endpoint: endpoint,
		client:   genhttp.NewClient(httpConfig),
		log:      log.With(zap.String("site", site.Name), zap.String("endpoint", endpoint.Name)),
	}
}

// NewFactory returns a core.InvokerFactory building SOAP invokers.
func NewFactory(cfg Config) core.InvokerFactory {
	return func(site core.Site, endpoint core.Endpoint) (core.Invoker, error) {
		if site.BaseURL == "" {
			return nil, &core.ConfigurationError{Field: "site", Message: "site has no base URL"}
		}
		return New(site, endpoint, cfg), nil
	}
}

// Invoke performs one remote call and returns the raw response body.
func (i *Invoker) Invoke(ctx context.Context, operation string, params []core.Param) ([]byte, error) {
	body, err := BuildEnvelope(i.endpoint.Namespace, operation, params)
	if err != nil {
		return nil, fmt.Errorf("build envelope for %s: %w", operation, err)
	}

	requestID := uuid.NewString()
	log := i.log.With(zap.String("operation", operation), zap.String("request_id", requestID))
	start := time.Now()

	resp, err := i.client.PostRaw(ctx, i.endpoint.ServicePath(), contentType, body, map[string]string{
		"SOAPAction": `""`,
		"Accept":     "text/xml, multipart/related",
	})
	if err != nil {
		var httpErr *genhttp.HTTPError
		if errors.As(err, &httpErr) {
			if fault := ParseFault(operation, httpErr.Body); fault != nil {
				log.Warn("Remote fault", zap.String("code", fault.Code), zap.String("message", fault.Message))
				return nil, fault
			}
			log.Warn("Remote call failed", zap.Int("status", httpErr.StatusCode), zap.Duration("duration", time.Since(start)))
			return nil, &core.TransportError{Operation: operation, StatusCode: httpErr.StatusCode, Err: err}
		}
		log.Warn("Remote call failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return nil, &core.TransportError{Operation: operation, Err: err}
	}

	if fault := ParseFault(operation, resp.Body); fault != nil {
		log.Warn("Remote fault", zap.String("code", fault.Code), zap.String("message", fault.Message))
		return nil, fault
	}

	log.Debug("Remote call completed",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("duration", time.Since(start)))
	return resp.Body, nil
}

// =============================================================================
// ENVELOPES
// =============================================================================

// BuildEnvelope renders the SOAP request for operation with one child
// element per parameter, in order.
func BuildEnvelope(namespace, operation string, params []core.Param) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", envelopeNS)
	env.CreateAttr("xmlns:ns", namespace)
	env.CreateElement("soapenv:Header")

	call := env.CreateElement("soapenv:Body").CreateElement("ns:" + operation)
	for _, p := range params {
		call.CreateElement(p.Name).SetText(p.String())
	}
	return doc.WriteToBytes()
}

// ParseFault returns the SOAP fault carried by body, or nil when body is not
// a fault document.
func ParseFault(operation string, body []byte) *core.RemoteFault {
	if !looksLikeFault(body) {
		return nil
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil
	}
	fault := findLocal(doc.Root(), "Fault")
	if fault == nil {
		return nil
	}
	rf := &core.RemoteFault{Operation: operation}
	if el := fault.SelectElement("faultcode"); el != nil {
		rf.Code = el.Text()
	}
	if el := fault.SelectElement("faultstring"); el != nil {
		rf.Message = el.Text()
	}
	return rf
}

func looksLikeFault(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) > 0 && trimmed[0] == '<' && bytes.Contains(trimmed, []byte("Fault>"))
}

// findLocal returns the first element at or below el with the given local
// name, ignoring namespace prefixes.
func findLocal(el *etree.Element, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	if el.Tag == tag {
		return el
	}
	for _, child := range el.ChildElements() {
		if found := findLocal(child, tag); found != nil {
			return found
		}
	}
	return nil
}
