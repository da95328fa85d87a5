// Package genesis is the public client for the Genesis statistics web
// services (DESTATIS, the regional databases and the education monitor).
//
//	c, err := genesis.New(genesis.SiteDestatis, genesis.WithCredentials(user, pass))
//	res, err := c.Search(ctx, genesis.SearchOptions{Term: "schule"})
package genesis

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/marians/genesisclient/internal/catalog"
	"github.com/marians/genesisclient/internal/config"
	"github.com/marians/genesisclient/internal/connector/soap"
	"github.com/marians/genesisclient/internal/core"
	"github.com/marians/genesisclient/internal/export"
	internal "github.com/marians/genesisclient/internal/genesis"
)

// Re-export site names.
const (
	SiteDestatis = core.SiteDestatis
	SiteLDNRW    = core.SiteLDNRW
	SiteRegional = core.SiteRegional
	SiteBayern   = core.SiteBayern
	SiteBildung  = core.SiteBildung
)

// Re-export export formats.
const (
	FormatCSV  = core.FormatCSV
	FormatHTML = core.FormatHTML
	FormatXLS  = core.FormatXLS
)

// Re-export search categories and criteria.
const (
	CategoryAll        = internal.CategoryAll
	CategoryTable      = internal.CategoryTable
	CategoryTimeSeries = internal.CategoryTimeSeries
	CategoryCube       = internal.CategoryCube
	CategoryProperty   = internal.CategoryProperty
	CategoryStatistic  = internal.CategoryStatistic

	CriterionCode    = internal.CriterionCode
	CriterionContent = internal.CriterionContent
)

// Re-export option defaults.
const (
	DefaultLimit      = internal.DefaultLimit
	DefaultTermsLimit = internal.DefaultTermsLimit
)

// Re-export lookup section labels.
const (
	SectionStatistic          = internal.SectionStatistic
	SectionStatisticData      = internal.SectionStatisticData
	SectionStatisticProperty  = internal.SectionStatisticProperty
	SectionStatisticTable     = internal.SectionStatisticTable
	SectionProperty           = internal.SectionProperty
	SectionPropertyOccurrence = internal.SectionPropertyOccurrence
	SectionPropertyData       = internal.SectionPropertyData
	SectionTable              = internal.SectionTable
	SectionTerm               = internal.SectionTerm
)

// Client and query types.
type (
	Client            = internal.Client
	SearchOptions     = internal.SearchOptions
	FilterOptions     = internal.FilterOptions
	PropertiesOptions = internal.PropertiesOptions
	ObjectOptions     = internal.ObjectOptions
	ExportOptions     = internal.ExportOptions
	LookupResult      = internal.LookupResult
	LookupSection     = internal.LookupSection
	Category          = internal.Category
	Criterion         = internal.Criterion
	PropertyType      = internal.PropertyType
)

// Result types.
type (
	CatalogEntry  = core.CatalogEntry
	SearchResult  = core.SearchResult
	ExportedTable = core.ExportedTable
	Format        = core.Format
	Payload       = core.Payload
	TextPayload   = core.TextPayload
	BinaryPayload = core.BinaryPayload
)

// Collaborator types for custom transports.
type (
	Invoker        = core.Invoker
	InvokerFactory = core.InvokerFactory
	InvokerFunc    = core.InvokerFunc
	Param          = core.Param
	Site           = core.Site
	Endpoint       = core.Endpoint
)

// Error types.
type (
	ConfigurationError   = core.ConfigurationError
	RemoteFault          = core.RemoteFault
	TransportError       = core.TransportError
	ParseError           = core.ParseError
	MalformedExportError = core.MalformedExportError
)

// ErrInvalidOption is wrapped by errors about invalid option values.
var ErrInvalidOption = core.ErrInvalidOption

// ExportStrategy selects how export responses are decoded.
type ExportStrategy = export.Strategy

const (
	ExportLegacy = export.StrategyLegacy
	ExportMIME   = export.StrategyMIME
)

// Config is the file/environment configuration understood by FromConfig.
type Config = config.Config

// LoadConfig reads an optional YAML file and GENESIS_* environment variables.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// =============================================================================
// CONSTRUCTION
// =============================================================================

type options struct {
	username, password string
	logger             *zap.Logger
	soap               soap.Config
	factory            core.InvokerFactory
	collapseWhitespace bool
	strategy           export.Strategy
}

// Option configures New.
type Option func(*options)

// WithCredentials sets the username and password sent with every call.
func WithCredentials(username, password string) Option {
	return func(o *options) { o.username, o.password = username, password }
}

// WithLogger sets the logger for the client and its transport.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.soap.Timeout = d }
}

// WithMaxRetries retries transport failures (never remote faults).
func WithMaxRetries(n int) Option {
	return func(o *options) { o.soap.MaxRetries = n }
}

// WithRateLimit caps requests per second per endpoint.
func WithRateLimit(perSecond float64) Option {
	return func(o *options) { o.soap.RateLimit = perSecond }
}

// WithHTTPTransport sets the HTTP round tripper of the SOAP transport,
// e.g. for proxies.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.soap.Transport = rt }
}

// WithInvokerFactory replaces the SOAP transport.
func WithInvokerFactory(f InvokerFactory) Option {
	return func(o *options) { o.factory = f }
}

// WithCollapsedWhitespace collapses every run of spaces in text fields.
// By default a single replacement pass is made, which can leave double
// spaces behind.
func WithCollapsedWhitespace() Option {
	return func(o *options) { o.collapseWhitespace = true }
}

// WithExportStrategy selects how export responses are decoded.
func WithExportStrategy(s ExportStrategy) Option {
	return func(o *options) { o.strategy = s }
}

// New creates a client for the named site. Unknown sites fail with a
// *ConfigurationError.
func New(site string, opts ...Option) (*Client, error) {
	o := &options{logger: zap.NewNop(), strategy: export.StrategyLegacy}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}

	factory := o.factory
	if factory == nil {
		o.soap.Logger = o.logger
		factory = soap.NewFactory(o.soap)
	}

	parserOpts := []catalog.Option{catalog.WithLogger(o.logger)}
	if o.collapseWhitespace {
		parserOpts = append(parserOpts, catalog.WithCollapsedWhitespace())
	}

	return internal.NewClient(site, factory,
		internal.WithCredentials(o.username, o.password),
		internal.WithLogger(o.logger),
		internal.WithParser(catalog.New(parserOpts...)),
		internal.WithExtractor(export.NewExtractor(o.strategy, o.logger)),
	)
}

// FromConfig creates a client from a validated configuration. Extra options
// are applied after the configured ones.
func FromConfig(cfg *Config, log *zap.Logger, extra ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := export.ParseStrategy(cfg.Export.Strategy)
	if err != nil {
		return nil, err
	}

	opts := []Option{
		WithCredentials(cfg.Username, cfg.Password),
		WithLogger(log),
		WithTimeout(cfg.Transport.Timeout()),
		WithMaxRetries(cfg.Transport.MaxRetries),
		WithRateLimit(cfg.Transport.RateLimit),
		WithExportStrategy(strategy),
	}
	if cfg.Parser.CollapseWhitespace {
		opts = append(opts, WithCollapsedWhitespace())
	}
	return New(cfg.Site, append(opts, extra...)...)
}

// SiteNames returns the known site names in sorted order.
func SiteNames() []string {
	return core.SiteNames()
}
