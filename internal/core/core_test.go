package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Bevölkerung", "Bevölkerung"},
		{"newline", "Foo\nBar", "Foo Bar"},
		{"double space", "a  b", "a b"},
		{"double space and newline", "Foo  \nBar", "Foo  Bar"},
		{"trim", "  Foo Bar \n", "Foo Bar"},
		{"odd run", "a   b", "a  b"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestCollapse(t *testing.T) {
	assert.Equal(t, "Foo Bar", Collapse("Foo  \nBar"))
	assert.Equal(t, "a b", Collapse("a     b"))
	assert.Equal(t, "x", Collapse("  x \n"))
}

func TestCollapse_Idempotent(t *testing.T) {
	for _, s := range []string{"Foo Bar", "  lead", "trail  ", "x\ny", "Gemeinden,   Stichtag"} {
		once := Collapse(s)
		assert.Equal(t, once, Collapse(once), "input %q", s)
	}
}

func TestClean_NotIdempotentOnOddRuns(t *testing.T) {
	once := Clean("a   b")
	assert.NotEqual(t, once, Clean(once))
}

func TestCleanPtr_Nil(t *testing.T) {
	assert.Nil(t, CleanPtr(nil))
	assert.Nil(t, CollapsePtr(nil))

	s := " x \n"
	got := CleanPtr(&s)
	require.NotNil(t, got)
	assert.Equal(t, "x", *got)
}

func TestLookupSite(t *testing.T) {
	site, err := LookupSite("DESTATIS")
	require.NoError(t, err)
	assert.Equal(t, "https://www-genesis.destatis.de/genesisWS", site.BaseURL)

	_, err = LookupSite("SACHSEN")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Message, "BAYERN, BILDUNG, DESTATIS, LDNRW, REGIONAL")

	_, err = LookupSite("")
	require.ErrorAs(t, err, &cfgErr)
}

func TestEndpointURL(t *testing.T) {
	ep, err := LookupEndpoint(EndpointSearch)
	require.NoError(t, err)
	site := Site{Name: "X", BaseURL: "https://example.org/ws/"}
	assert.Equal(t, "https://example.org/ws/services/RechercheService_2010", ep.URL(site))

	_, err = LookupEndpoint("ExportService")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLS")
	require.NoError(t, err)
	assert.Equal(t, FormatXLS, f)
	assert.True(t, f.IsBinary())

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("pdf")
	assert.True(t, errors.Is(err, ErrInvalidOption))
}

func TestTextPayload_Encoding(t *testing.T) {
	utf := NewTextPayload([]byte("Gemeinde;Einwohner\nKöln;1\n"))
	assert.Equal(t, EncodingUTF8, utf.Encoding)
	assert.Equal(t, "Gemeinde;Einwohner\nKöln;1\n", utf.String())

	latin := NewTextPayload([]byte{'K', 0xf6, 'l', 'n'})
	assert.Equal(t, EncodingLatin1, latin.Encoding)
	assert.Equal(t, "Köln", latin.String())
}

func TestExportedTable_FileName(t *testing.T) {
	tbl := &ExportedTable{TableCode: "11111-0001", Format: FormatCSV}
	assert.Equal(t, "11111-0001.csv", tbl.FileName())

	tbl.RegionKey = "*"
	assert.Equal(t, "11111-0001.csv", tbl.FileName())

	tbl.RegionKey = "05"
	tbl.Format = FormatXLS
	assert.Equal(t, "11111-0001_05.xls", tbl.FileName())
}

func TestSearchResult_Categories(t *testing.T) {
	r := &SearchResult{Meta: map[string]int{"Tabelle": 3, "Merkmal": 0, "Statistik": 1}}
	assert.Equal(t, []string{"Statistik", "Tabelle"}, r.Categories())
}

func TestParam_String(t *testing.T) {
	assert.Equal(t, "false", Param{Name: "komprimierung", Value: false}.String())
	assert.Equal(t, "500", Param{Name: "listenLaenge", Value: "500"}.String())
	assert.Equal(t, "", Param{Name: "kennung"}.String())
}
