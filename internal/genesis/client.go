// Package genesis maps the logical Genesis queries onto remote operations and
// routes their responses through the catalog parser or export extractor.
package genesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/marians/genesisclient/internal/catalog"
	"github.com/marians/genesisclient/internal/core"
	"github.com/marians/genesisclient/internal/export"
)

// =============================================================================
// CLIENT
// =============================================================================

// Client issues queries against one Genesis site. It is safe for concurrent
// use; invokers are created lazily, one per endpoint, and kept for the
// client's lifetime.
type Client struct {
	site      core.Site
	creds     core.Credentials
	factory   core.InvokerFactory
	parser    *catalog.Parser
	extractor *export.Extractor
	log       *zap.Logger

	mu       sync.Mutex
	invokers map[string]core.Invoker
}

// Option configures a Client.
type Option func(*Client)

// WithCredentials sets the username and password sent with every call.
func WithCredentials(username, password string) Option {
	return func(c *Client) {
		c.creds = core.Credentials{Username: username, Password: password}
	}
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithParser replaces the catalog parser.
func WithParser(p *catalog.Parser) Option {
	return func(c *Client) {
		if p != nil {
			c.parser = p
		}
	}
}

// WithExtractor replaces the export extractor.
func WithExtractor(x *export.Extractor) Option {
	return func(c *Client) {
		if x != nil {
			c.extractor = x
		}
	}
}

// NewClient creates a client for the named site. An unknown site or a nil
// factory is a *core.ConfigurationError and no client is returned.
func NewClient(siteName string, factory core.InvokerFactory, opts ...Option) (*Client, error) {
	site, err := core.LookupSite(siteName)
	if err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, &core.ConfigurationError{Field: "invoker", Message: "no invoker factory given"}
	}

	c := &Client{
		site:     site,
		factory:  factory,
		log:      zap.NewNop(),
		invokers: make(map[string]core.Invoker),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.parser == nil {
		c.parser = catalog.New(catalog.WithLogger(c.log))
	}
	if c.extractor == nil {
		c.extractor = export.NewExtractor(export.StrategyLegacy, c.log)
	}
	c.log = c.log.With(zap.String("site", site.Name))
	return c, nil
}

// Site returns the site the client talks to.
func (c *Client) Site() core.Site {
	return c.site
}

// invoker returns the cached invoker for endpoint, creating it on first use.
func (c *Client) invoker(endpoint string) (core.Invoker, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if inv, ok := c.invokers[endpoint]; ok {
		return inv, nil
	}
	ep, err := core.LookupEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	inv, err := c.factory(c.site, ep)
	if err != nil {
		return nil, fmt.Errorf("create invoker for %s: %w", endpoint, err)
	}
	c.invokers[endpoint] = inv
	c.log.Debug("Created invoker", zap.String("endpoint", endpoint))
	return inv, nil
}

func (c *Client) call(ctx context.Context, endpoint, operation string, params []core.Param) ([]byte, error) {
	inv, err := c.invoker(endpoint)
	if err != nil {
		return nil, err
	}
	return inv.Invoke(ctx, operation, params)
}

// =============================================================================
// CATALOGUE OPERATIONS
// =============================================================================

// catalogOp binds a remote catalogue operation to its record shape and the
// parameters it accepts.
type catalogOp struct {
	operation string
	spec      catalog.RecordSpec
	params    paramSet
}

var (
	opTerms = catalogOp{"BegriffeKatalog",
		catalog.CodeSpec("begriffeKatalogEintraege"),
		paramSet{filter: true}}
	opProperties = catalogOp{"MerkmalsKatalog",
		catalog.CodeSpec("merkmalsKatalogEintraege"),
		paramSet{filter: true, criteria: true, propType: true, area: true}}
	opPropertyOccurrences = catalogOp{"MerkmalAuspraegungenKatalog",
		catalog.CodeSpec("merkmalAuspraegungenKatalogEintraege"),
		paramSet{objectKey: true, selection: true, criteria: true, area: true}}
	opPropertyData = catalogOp{"MerkmalDatenKatalog",
		catalog.LabeledCodeSpec("merkmalDatenKatalogEintraege"),
		paramSet{objectKey: true, selection: true, area: true}}
	opPropertyStatistics = catalogOp{"MerkmalStatistikenKatalog",
		catalog.CodeSpec("merkmalStatistikenKatalogEintraege"),
		paramSet{objectKey: true, selection: true, criteria: true, area: true}}
	opPropertyTables = catalogOp{"MerkmalTabellenKatalog",
		catalog.CodeSpec("merkmalTabellenKatalogEintraege"),
		paramSet{objectKey: true, selection: true, area: true}}
	opStatistics = catalogOp{"StatistikKatalog",
		catalog.CodeSpec("statistikKatalogEintraege"),
		paramSet{filter: true, criteria: true, area: true}}
	opStatisticData = catalogOp{"StatistikDatenKatalog",
		catalog.LabeledCodeSpec("statistikDatenKatalogEintraege"),
		paramSet{objectKey: true, selection: true, area: true}}
	opStatisticProperties = catalogOp{"StatistikMerkmaleKatalog",
		catalog.CodeSpec("statistikMerkmaleKatalogEintraege"),
		paramSet{objectKey: true, selection: true, criteria: true, area: true}}
	opStatisticTables = catalogOp{"StatistikTabellenKatalog",
		catalog.CodeSpec("statistikTabellenKatalogEintraege"),
		paramSet{objectKey: true, selection: true, area: true}}
	opTables = catalogOp{"TabellenKatalog",
		catalog.CodeSpec("tabellenKatalogEintraege"),
		paramSet{filter: true, area: true}}
	opCatalogue = catalogOp{"DatenKatalog",
		catalog.RecordSpec{},
		paramSet{filter: true, area: true}}
)

func (c *Client) catalogue(ctx context.Context, op catalogOp, q query) ([]core.CatalogEntry, error) {
	raw, err := c.call(ctx, core.EndpointSearch, op.operation, op.params.params(c.creds, q))
	if err != nil {
		return nil, err
	}
	entries, err := c.parser.Collect(raw, op.spec)
	if err != nil {
		return nil, err
	}
	c.log.Debug("Catalogue query completed",
		zap.String("operation", op.operation),
		zap.Int("entries", len(entries)))
	return entries, nil
}

// Search runs a full-text search over the metadata.
func (c *Client) Search(ctx context.Context, opts SearchOptions) (*core.SearchResult, error) {
	opts = opts.withDefaults()
	raw, err := c.call(ctx, core.EndpointSearch, "Recherche", opts.params(c.creds))
	if err != nil {
		return nil, err
	}
	return c.parser.Search(raw)
}

// Terms lists the search terms matching opts.Filter.
func (c *Client) Terms(ctx context.Context, opts FilterOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opTerms, opts.withDefaults(DefaultTermsLimit).query())
}

// Properties lists the properties (data attributes) matching opts.
func (c *Client) Properties(ctx context.Context, opts PropertiesOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opProperties, opts.withDefaults().query())
}

// PropertyOccurrences lists the occurrences of the property opts.Code.
func (c *Client) PropertyOccurrences(ctx context.Context, opts ObjectOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opPropertyOccurrences, opts.withDefaults().query())
}

// PropertyData lists data descriptions of a property, including their
// long label text.
func (c *Client) PropertyData(ctx context.Context, opts ObjectOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opPropertyData, opts.withDefaults().query())
}

// PropertyStatistics lists the statistics using a property.
func (c *Client) PropertyStatistics(ctx context.Context, opts ObjectOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opPropertyStatistics, opts.withDefaults().query())
}

// PropertyTables lists the tables using a property.
func (c *Client) PropertyTables(ctx context.Context, opts ObjectOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opPropertyTables, opts.withDefaults().query())
}

// Statistics lists the statistics matching opts.Filter.
func (c *Client) Statistics(ctx context.Context, opts FilterOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opStatistics, opts.withDefaults(DefaultLimit).query())
}

// StatisticData lists data descriptions of a statistic.
func (c *Client) StatisticData(ctx context.Context, opts ObjectOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opStatisticData, opts.withDefaults().query())
}

// StatisticProperties lists the properties of a statistic.
func (c *Client) StatisticProperties(ctx context.Context, opts ObjectOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opStatisticProperties, opts.withDefaults().query())
}

// StatisticTables lists the tables of a statistic.
func (c *Client) StatisticTables(ctx context.Context, opts ObjectOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opStatisticTables, opts.withDefaults().query())
}

// Tables lists the tables matching opts.Filter.
func (c *Client) Tables(ctx context.Context, opts FilterOptions) ([]core.CatalogEntry, error) {
	return c.catalogue(ctx, opTables, opts.withDefaults(DefaultLimit).query())
}

// Catalogue returns the unparsed DatenKatalog response.
func (c *Client) Catalogue(ctx context.Context, opts FilterOptions) ([]byte, error) {
	q := opts.withDefaults(DefaultLimit).query()
	return c.call(ctx, core.EndpointSearch, opCatalogue.operation, opCatalogue.params.params(c.creds, q))
}

// =============================================================================
// EXPORT
// =============================================================================

// TableExport downloads the data of one table. XLS is fetched through
// ExcelDownload, text formats through TabellenDownload.
func (c *Client) TableExport(ctx context.Context, opts ExportOptions) (*core.ExportedTable, error) {
	opts = opts.withDefaults()
	format, err := core.ParseFormat(string(opts.Format))
	if err != nil {
		return nil, err
	}
	opts.Format = format
	if strings.TrimSpace(opts.TableCode) == "" {
		return nil, fmt.Errorf("%w: table code is required", core.ErrInvalidOption)
	}

	operation := "TabellenDownload"
	if format.IsBinary() {
		operation = "ExcelDownload"
	}
	raw, err := c.call(ctx, core.EndpointDownload, operation, opts.params(c.creds))
	if err != nil {
		return nil, err
	}
	payload, err := c.extractor.Extract(format, raw)
	if err != nil {
		return nil, err
	}

	c.log.Debug("Table exported",
		zap.String("table", opts.TableCode),
		zap.String("format", string(format)),
		zap.Int("bytes", len(payload.Bytes())))
	return &core.ExportedTable{
		TableCode: opts.TableCode,
		RegionKey: opts.RegionKey,
		Format:    format,
		Payload:   payload,
	}, nil
}

// =============================================================================
// DIAGNOSTICS
// =============================================================================

// Ping calls the test service: whoami must succeed, and exception may
// answer with a remote fault.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.call(ctx, core.EndpointTest, "whoami", nil); err != nil {
		return fmt.Errorf("whoami: %w", err)
	}
	_, err := c.call(ctx, core.EndpointTest, "exception", nil)
	var fault *core.RemoteFault
	if err != nil && !errors.As(err, &fault) {
		return fmt.Errorf("exception: %w", err)
	}
	return nil
}
