package genesis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marians/genesisclient/internal/core"
)

var operationTags = map[string]string{
	"StatistikKatalog":            "statistikKatalogEintraege",
	"StatistikDatenKatalog":       "statistikDatenKatalogEintraege",
	"StatistikMerkmaleKatalog":    "statistikMerkmaleKatalogEintraege",
	"StatistikTabellenKatalog":    "statistikTabellenKatalogEintraege",
	"MerkmalsKatalog":             "merkmalsKatalogEintraege",
	"MerkmalAuspraegungenKatalog": "merkmalAuspraegungenKatalogEintraege",
	"MerkmalDatenKatalog":         "merkmalDatenKatalogEintraege",
	"TabellenKatalog":             "tabellenKatalogEintraege",
	"BegriffeKatalog":             "begriffeKatalogEintraege",
}

func labels(r *LookupResult) []string {
	out := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		out = append(out, s.Label)
	}
	return out
}

func TestLookup_AllSections(t *testing.T) {
	remote := newFakeRemote(func(_, op string) ([]byte, error) { return recordDoc(operationTags[op]), nil })
	c := newTestClient(t, remote)

	res, err := c.Lookup(context.Background(), "12411")
	require.NoError(t, err)
	require.NoError(t, res.Err())

	assert.Equal(t, []string{
		SectionStatistic, SectionStatisticData, SectionStatisticProperty, SectionStatisticTable,
		SectionProperty, SectionPropertyOccurrence, SectionPropertyData, SectionTable, SectionTerm,
	}, labels(res))
	for _, s := range res.Sections {
		require.Len(t, s.Entries, 1, s.Label)
		assert.Equal(t, "X1", s.Entries[0].ID)
	}
	assert.Equal(t, "long text", core.Deref(res.Sections[6].Entries[0].LongDescription))

	for _, call := range remote.calls {
		if v := value(call.params, "filter"); v != nil {
			assert.Equal(t, "12411", v, call.operation)
		}
		if v := value(call.params, "name"); v != nil {
			assert.Equal(t, "12411", v, call.operation)
		}
	}
}

func TestLookup_WildcardSkipsOccurrences(t *testing.T) {
	remote := newFakeRemote(func(string, string) ([]byte, error) { return []byte("<r/>"), nil })
	c := newTestClient(t, remote)

	res, err := c.Lookup(context.Background(), "124*")
	require.NoError(t, err)
	assert.NotContains(t, labels(res), SectionPropertyOccurrence)
	assert.NotContains(t, remote.operations(), "MerkmalAuspraegungenKatalog")
	assert.Len(t, res.Sections, 8)
}

func TestLookup_FailingSectionDoesNotAbort(t *testing.T) {
	remote := newFakeRemote(func(_, op string) ([]byte, error) {
		if op == "TabellenKatalog" {
			return nil, &core.TransportError{Operation: op, StatusCode: 503, Err: errors.New("unavailable")}
		}
		return recordDoc(operationTags[op]), nil
	})
	c := newTestClient(t, remote)

	res, err := c.Lookup(context.Background(), "12411")
	require.NoError(t, err)
	require.Len(t, res.Sections, 9)

	table := res.Sections[7]
	assert.Equal(t, SectionTable, table.Label)
	assert.Nil(t, table.Entries)
	var transportErr *core.TransportError
	assert.ErrorAs(t, table.Err, &transportErr)

	assert.NoError(t, res.Sections[8].Err)
	assert.ErrorAs(t, res.Err(), &transportErr)
}

func TestLookup_Canceled(t *testing.T) {
	remote := newFakeRemote(func(string, string) ([]byte, error) { return []byte("<r/>"), nil })
	c := newTestClient(t, remote)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := c.Lookup(ctx, "12411")
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Empty(t, res.Sections)
	assert.Empty(t, remote.operations())
}
