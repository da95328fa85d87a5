package genesis_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marians/genesisclient/pkg/genesis"
)

func TestNew_UnknownSite(t *testing.T) {
	c, err := genesis.New("NOWHERE")
	assert.Nil(t, c)
	var cfgErr *genesis.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestNew_CollapsedWhitespace(t *testing.T) {
	doc := []byte("<r><begriffeKatalogEintraege><code>a</code><inhalt>x  \ny</inhalt></begriffeKatalogEintraege></r>")
	factory := func(genesis.Site, genesis.Endpoint) (genesis.Invoker, error) {
		return genesis.InvokerFunc(func(context.Context, string, []genesis.Param) ([]byte, error) {
			return doc, nil
		}), nil
	}

	c, err := genesis.New(genesis.SiteDestatis, genesis.WithInvokerFactory(factory))
	require.NoError(t, err)
	entries, err := c.Terms(context.Background(), genesis.FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, "x  y", *entries[0].Description)

	c, err = genesis.New(genesis.SiteDestatis, genesis.WithInvokerFactory(factory), genesis.WithCollapsedWhitespace())
	require.NoError(t, err)
	entries, err = c.Terms(context.Background(), genesis.FilterOptions{})
	require.NoError(t, err)
	assert.Equal(t, "x y", *entries[0].Description)
}

// roundTripper rewrites every request to the test server.
type roundTripper struct{ target string }

func (rt roundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	u := *r.URL
	u.Scheme = "http"
	u.Host = rt.target
	clone := r.Clone(r.Context())
	clone.URL = &u
	clone.Host = rt.target
	return http.DefaultTransport.RoundTrip(clone)
}

func TestFromConfig_SOAPRoundTrip(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>` +
			`<TabellenKatalogResponse><TabellenKatalogReturn><tabellenKatalogEintraege>` +
			`<code>11111-0001</code><inhalt>Gebietsfläche</inhalt>` +
			`</tabellenKatalogEintraege></TabellenKatalogReturn></TabellenKatalogResponse>` +
			`</soapenv:Body></soapenv:Envelope>`))
	}))
	defer srv.Close()

	cfg, err := genesis.LoadConfig("")
	require.NoError(t, err)
	cfg.Site = genesis.SiteRegional
	cfg.Username = "user"
	cfg.Password = "secret"
	cfg.Transport.RateLimit = 100

	c, err := genesis.FromConfig(cfg, nil, genesis.WithHTTPTransport(roundTripper{target: srv.Listener.Addr().String()}))
	require.NoError(t, err)

	entries, err := c.Tables(context.Background(), genesis.FilterOptions{Filter: "11111*"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "11111-0001", entries[0].ID)
	assert.Equal(t, "Gebietsfläche", *entries[0].Description)

	assert.Equal(t, "/genesisws/services/RechercheService_2010", gotPath)
	assert.Contains(t, gotBody, "<kennung>user</kennung>")
	assert.Contains(t, gotBody, "<filter>11111*</filter>")
}

func TestFromConfig_Invalid(t *testing.T) {
	cfg, err := genesis.LoadConfig("")
	require.NoError(t, err)
	cfg.Site = ""
	_, err = genesis.FromConfig(cfg, nil)
	assert.Error(t, err)
}
