package genesis

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/marians/genesisclient/internal/core"
)

// Lookup section labels, in the order they are queried.
const (
	SectionStatistic          = "STATISTIC"
	SectionStatisticData      = "STATISTIC DATA"
	SectionStatisticProperty  = "STATISTIC PROPERTY"
	SectionStatisticTable     = "STATISTIC TABLE"
	SectionProperty           = "PROPERTY"
	SectionPropertyOccurrence = "PROPERTY OCCURRENCE"
	SectionPropertyData       = "PROPERTY DATA"
	SectionTable              = "TABLE"
	SectionTerm               = "TERM"
)

// LookupSection is the outcome of one sub-query of Lookup.
type LookupSection struct {
	Label   string
	Entries []core.CatalogEntry
	Err     error
}

// LookupResult aggregates the sections of a Lookup.
type LookupResult struct {
	Term     string
	Sections []LookupSection
}

// Err joins the errors of all failed sections, or returns nil.
func (r *LookupResult) Err() error {
	var errs []error
	for _, s := range r.Sections {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errors.Join(errs...)
}

// Lookup queries statistics, properties, tables and terms for term one after
// another. A failing section is recorded and the remaining sections still
// run. Property occurrences are skipped for wildcard terms. The returned
// error is only set when ctx ends; the result then holds the sections
// completed so far.
func (c *Client) Lookup(ctx context.Context, term string) (*LookupResult, error) {
	filter := FilterOptions{Filter: term}
	object := ObjectOptions{Code: term}

	type step struct {
		label string
		run   func() ([]core.CatalogEntry, error)
	}
	steps := []step{
		{SectionStatistic, func() ([]core.CatalogEntry, error) { return c.Statistics(ctx, filter) }},
		{SectionStatisticData, func() ([]core.CatalogEntry, error) { return c.StatisticData(ctx, object) }},
		{SectionStatisticProperty, func() ([]core.CatalogEntry, error) { return c.StatisticProperties(ctx, object) }},
		{SectionStatisticTable, func() ([]core.CatalogEntry, error) { return c.StatisticTables(ctx, object) }},
		{SectionProperty, func() ([]core.CatalogEntry, error) { return c.Properties(ctx, PropertiesOptions{Filter: term}) }},
	}
	if !strings.Contains(term, "*") {
		steps = append(steps, step{SectionPropertyOccurrence, func() ([]core.CatalogEntry, error) {
			return c.PropertyOccurrences(ctx, object)
		}})
	}
	steps = append(steps,
		step{SectionPropertyData, func() ([]core.CatalogEntry, error) { return c.PropertyData(ctx, object) }},
		step{SectionTable, func() ([]core.CatalogEntry, error) { return c.Tables(ctx, filter) }},
		step{SectionTerm, func() ([]core.CatalogEntry, error) { return c.Terms(ctx, filter) }},
	)

	result := &LookupResult{Term: term, Sections: make([]LookupSection, 0, len(steps))}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		entries, err := s.run()
		if err != nil {
			c.log.Warn("Lookup section failed", zap.String("section", s.label), zap.Error(err))
		}
		result.Sections = append(result.Sections, LookupSection{Label: s.label, Entries: entries, Err: err})
	}
	return result, nil
}
