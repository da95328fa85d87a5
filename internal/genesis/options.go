package genesis

import (
	"strconv"

	"github.com/marians/genesisclient/internal/core"
)

// =============================================================================
// REMOTE VOCABULARY
// =============================================================================

// Category restricts a search to one object type.
type Category string

const (
	CategoryAll        Category = "alle"
	CategoryTable      Category = "Tabelle"
	CategoryTimeSeries Category = "Zeitreihe"
	CategoryCube       Category = "Datenquader"
	CategoryProperty   Category = "Merkmal"
	CategoryStatistic  Category = "Statistik"
)

// Criterion selects what a filter matches and what results are sorted by.
type Criterion string

const (
	CriterionCode    Criterion = "Code"
	CriterionContent Criterion = "Inhalt"
)

// PropertyType restricts the properties catalogue.
type PropertyType string

const (
	PropertyTypeAll            PropertyType = "alle"
	PropertyTypeClassifying    PropertyType = "klassifizierend"
	PropertyTypeTotal          PropertyType = "insgesamt"
	PropertyTypeSpatial        PropertyType = "räumlich"
	PropertyTypeFactual        PropertyType = "sachlich"
	PropertyTypeValue          PropertyType = "wert"
	PropertyTypeTemporal       PropertyType = "zeitlich"
	PropertyTypeTimeIdentifier PropertyType = "zeitidentifizierend"
)

// Defaults applied to zero-valued options.
const (
	DefaultSearchTerm = "*:*"
	DefaultFilter     = "*"
	DefaultLimit      = 500
	DefaultTermsLimit = 20
)

const (
	area     = "Alle"
	language = "de"
)

// =============================================================================
// OPTIONS
// =============================================================================

// SearchOptions parameterize Search.
type SearchOptions struct {
	Term     string
	Limit    int
	Category Category
}

func (o SearchOptions) withDefaults() SearchOptions {
	if o.Term == "" {
		o.Term = DefaultSearchTerm
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Category == "" {
		o.Category = CategoryAll
	}
	return o
}

func (o SearchOptions) params(c core.Credentials) []core.Param {
	return []core.Param{
		{Name: "luceneString", Value: o.Term},
		{Name: "kennung", Value: c.Username},
		{Name: "passwort", Value: c.Password},
		{Name: "listenLaenge", Value: strconv.Itoa(o.Limit)},
		{Name: "sprache", Value: language},
		{Name: "kategorie", Value: string(o.Category)},
	}
}

// FilterOptions parameterize the filter-based catalogues: Terms, Tables,
// Statistics and Catalogue.
type FilterOptions struct {
	Filter   string
	Criteria Criterion
	Limit    int
}

func (o FilterOptions) withDefaults(limit int) FilterOptions {
	if o.Filter == "" {
		o.Filter = DefaultFilter
	}
	if o.Criteria == "" {
		o.Criteria = CriterionCode
	}
	if o.Limit <= 0 {
		o.Limit = limit
	}
	return o
}

// PropertiesOptions parameterize Properties.
type PropertiesOptions struct {
	Filter   string
	Criteria Criterion
	Type     PropertyType
	Limit    int
}

func (o PropertiesOptions) withDefaults() PropertiesOptions {
	if o.Filter == "" {
		o.Filter = DefaultFilter
	}
	if o.Criteria == "" {
		o.Criteria = CriterionCode
	}
	if o.Type == "" {
		o.Type = PropertyTypeAll
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// ObjectOptions parameterize the catalogues scoped to one property or
// statistic: occurrences, data, statistics, tables and properties.
type ObjectOptions struct {
	// Code of the property or statistic; glob patterns pass through verbatim.
	Code      string
	Selection string
	Criteria  Criterion
	Limit     int
}

func (o ObjectOptions) withDefaults() ObjectOptions {
	if o.Code == "" {
		o.Code = DefaultFilter
	}
	if o.Selection == "" {
		o.Selection = DefaultFilter
	}
	if o.Criteria == "" {
		o.Criteria = CriterionCode
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	return o
}

// ExportOptions parameterize TableExport.
type ExportOptions struct {
	TableCode string
	RegionKey string
	Format    core.Format
}

func (o ExportOptions) withDefaults() ExportOptions {
	if o.Format == "" {
		o.Format = core.FormatCSV
	}
	return o
}

func (o ExportOptions) params(c core.Credentials) []core.Param {
	params := []core.Param{
		{Name: "kennung", Value: c.Username},
		{Name: "passwort", Value: c.Password},
		{Name: "name", Value: o.TableCode},
		{Name: "bereich", Value: area},
	}
	if !o.Format.IsBinary() {
		params = append(params, core.Param{Name: "format", Value: string(o.Format)})
	}
	return append(params,
		core.Param{Name: "komprimierung", Value: false},
		core.Param{Name: "startjahr", Value: "1900"},
		core.Param{Name: "endjahr", Value: "2100"},
		core.Param{Name: "zeitscheiben", Value: ""},
		core.Param{Name: "regionalschluessel", Value: o.RegionKey},
		core.Param{Name: "sachmerkmal", Value: ""},
		core.Param{Name: "sachschluessel", Value: ""},
		core.Param{Name: "sprache", Value: language},
	)
}

// =============================================================================
// PARAMETER BUILDERS
// =============================================================================

// paramSet names the optional remote parameters an operation accepts.
type paramSet struct {
	filter    bool
	objectKey bool
	selection bool
	criteria  bool
	propType  bool
	area      bool
}

// query holds the defaulted values of one catalogue call.
type query struct {
	filter    string
	code      string
	selection string
	criteria  Criterion
	propType  PropertyType
	limit     int
}

func (o FilterOptions) query() query {
	return query{filter: o.Filter, criteria: o.Criteria, limit: o.Limit}
}

func (o PropertiesOptions) query() query {
	return query{filter: o.Filter, criteria: o.Criteria, propType: o.Type, limit: o.Limit}
}

func (o ObjectOptions) query() query {
	return query{code: o.Code, selection: o.Selection, criteria: o.Criteria, limit: o.Limit}
}

func credentialParams(c core.Credentials) []core.Param {
	return []core.Param{
		{Name: "kennung", Value: c.Username},
		{Name: "passwort", Value: c.Password},
	}
}

// params renders q in the order the remote operations declare them.
func (s paramSet) params(c core.Credentials, q query) []core.Param {
	params := credentialParams(c)
	if s.filter {
		params = append(params, core.Param{Name: "filter", Value: q.filter})
	}
	if s.objectKey {
		params = append(params, core.Param{Name: "name", Value: q.code})
	}
	if s.selection {
		params = append(params, core.Param{Name: "auswahl", Value: q.selection})
	}
	if s.criteria {
		params = append(params, core.Param{Name: "kriterium", Value: string(q.criteria)})
	}
	if s.propType {
		params = append(params, core.Param{Name: "typ", Value: string(q.propType)})
	}
	if s.area {
		params = append(params, core.Param{Name: "bereich", Value: area})
	}
	return append(params,
		core.Param{Name: "listenLaenge", Value: strconv.Itoa(q.limit)},
		core.Param{Name: "sprache", Value: language},
	)
}
