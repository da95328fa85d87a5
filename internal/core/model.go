package core

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// SITES & ENDPOINTS
// =============================================================================

// Site is a named remote deployment of the Genesis web services.
type Site struct {
	Name    string
	BaseURL string
}

// Endpoint is a named sub-service path relative to a Site's base URL.
type Endpoint struct {
	Name string
	// Path is the WSDL location relative to the site base URL.
	Path string
	// Namespace is the SOAP body namespace of the service operations.
	Namespace string
}

// ServicePath returns the endpoint path without the WSDL query.
func (e Endpoint) ServicePath() string {
	path, _, _ := strings.Cut(e.Path, "?")
	return path
}

// URL returns the service URL of the endpoint on the given site.
func (e Endpoint) URL(site Site) string {
	return strings.TrimSuffix(site.BaseURL, "/") + e.ServicePath()
}

// Known site names.
const (
	SiteDestatis = "DESTATIS"
	SiteLDNRW    = "LDNRW"
	SiteRegional = "REGIONAL"
	SiteBayern   = "BAYERN"
	SiteBildung  = "BILDUNG"
)

// Known endpoint names.
const (
	EndpointTest     = "TestService"
	EndpointSearch   = "RechercheService_2010"
	EndpointDownload = "DownloadService"
)

var sites = map[string]Site{
	SiteDestatis: {Name: SiteDestatis, BaseURL: "https://www-genesis.destatis.de/genesisWS"},
	SiteLDNRW:    {Name: SiteLDNRW, BaseURL: "https://www.landesdatenbank.nrw.de/ldbnrwws"},
	SiteRegional: {Name: SiteRegional, BaseURL: "https://www.regionalstatistik.de/genesisws"},
	SiteBayern:   {Name: SiteBayern, BaseURL: "https://www.statistikdaten.bayern.de/genesisWS"},
	SiteBildung:  {Name: SiteBildung, BaseURL: "https://www.bildungsmonitoring.de/bildungws"},
}

var endpoints = map[string]Endpoint{
	EndpointTest: {
		Name:      EndpointTest,
		Path:      "/services/TestService?wsdl",
		Namespace: "http://webservice.genesis",
	},
	EndpointSearch: {
		Name:      EndpointSearch,
		Path:      "/services/RechercheService_2010?wsdl",
		Namespace: "http://webservice_2010.genesis",
	},
	EndpointDownload: {
		Name:      EndpointDownload,
		Path:      "/services/DownloadService?wsdl",
		Namespace: "http://webservice.genesis",
	},
}

// LookupSite returns the registered site with the given name.
// An unknown name yields a ConfigurationError listing the known sites.
func LookupSite(name string) (Site, error) {
	if name == "" {
		return Site{}, &ConfigurationError{Field: "site", Message: "no site given"}
	}
	site, ok := sites[name]
	if !ok {
		return Site{}, &ConfigurationError{
			Field:   "site",
			Message: fmt.Sprintf("site %q not known, use one of %s", name, strings.Join(SiteNames(), ", ")),
		}
	}
	return site, nil
}

// SiteNames returns the known site names in sorted order.
func SiteNames() []string {
	names := make([]string, 0, len(sites))
	for name := range sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupEndpoint returns the registered endpoint with the given name.
func LookupEndpoint(name string) (Endpoint, error) {
	ep, ok := endpoints[name]
	if !ok {
		return Endpoint{}, &ConfigurationError{Field: "endpoint", Message: fmt.Sprintf("endpoint %q not known", name)}
	}
	return ep, nil
}

// Credentials is an optional username/password pair sent with every call.
type Credentials struct {
	Username string
	Password string
}

// =============================================================================
// CATALOG RECORDS
// =============================================================================

// CatalogEntry is the uniform record produced by metadata and search queries.
// Optional fields are nil when the source element lacks the child.
type CatalogEntry struct {
	ID              string
	Description     *string
	Type            *string
	Name            *string
	LongDescription *string
}

// SearchResult aggregates per-category hit counts and the hit list.
type SearchResult struct {
	Meta    map[string]int
	Results []CatalogEntry
}

// Categories returns the categories with a positive hit count, sorted.
func (r *SearchResult) Categories() []string {
	out := make([]string, 0, len(r.Meta))
	for cat, n := range r.Meta {
		if n > 0 {
			out = append(out, cat)
		}
	}
	sort.Strings(out)
	return out
}

// Deref returns the value of an optional field, or "" when absent.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
