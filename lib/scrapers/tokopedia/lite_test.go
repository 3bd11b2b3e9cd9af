package tokopedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tokoscrape-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const liteSearchPage = `<!DOCTYPE html>
<html>
<body>
	<div data-testid="divProductWrapper">
		<a href="https://www.tokopedia.com/megastore/samsung-galaxy-s24-1234567890123?extParam=x">
			<span data-testid="spnSRPProdName">Samsung Galaxy S24 Garansi Resmi</span>
			<span data-testid="spnSRPProdPrice">Rp12.999.000</span>
			<span data-testid="spnSRPProdTablet">Kota Jakarta</span>
			<span data-testid="spnSRPProdTablet">Mega Store</span>
			<img src="//images.tokopedia.net/img/galaxy.jpg"/>
		</a>
	</div>
	<div data-testid="divProductWrapper">
		<a href="/otherstore/nameless">
			<span data-testid="spnSRPProdPrice">Rp1.000</span>
		</a>
	</div>
</body>
</html>`

func TestLiteClientScrape(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tokopedia")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "product", r.URL.Query().Get("st"))
		require.Equal(t, "acme obscurity", r.URL.Query().Get("q"))
		w.Write([]byte(liteSearchPage))
	}))
	defer server.Close()

	client, err := NewLiteClient(LiteClientOptions{
		BaseUrl: server.URL,
		Timeout: time.Second * 5,
	})
	require.NoError(t, err)

	// "obscurity" maps to no category, forcing the search page path
	products, err := client.Scrape(context.Background(), "obscurity", "acme")
	require.NoError(t, err)

	// the second card has no recognizable title and is dropped
	require.Len(t, products, 1)
	p := products[0]

	require.Equal(t, "1234567890123", p.ProductID)
	require.Equal(t, "Samsung Galaxy S24 Warranty Official", p.Title)
	require.Equal(t, "Rp12.999.000", p.SalePrice)
	require.Equal(t, "acme", p.Brand)
	require.Equal(t, "IDR", p.Currency)
	require.Equal(t, "https://images.tokopedia.net/img/galaxy.jpg", p.ImageURL)

	require.NotNil(t, p.StoreID)
	require.Equal(t, "megastore", *p.StoreID)
	require.NotNil(t, p.StoreURL)
	require.Equal(t, "https://www.tokopedia.com/megastore", *p.StoreURL)

	require.NotNil(t, p.Location)
	require.Equal(t, "City Jakarta", *p.Location)
	require.NotNil(t, p.StoreName)
	require.Equal(t, "Mega Store", *p.StoreName)
}

func TestLiteClientCategoryMapping(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tokopedia")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/p/handphone-tablet/handphone", r.URL.Path)
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer server.Close()

	client, err := NewLiteClient(LiteClientOptions{
		BaseUrl: server.URL,
		Timeout: time.Second * 5,
	})
	require.NoError(t, err)

	products, err := client.Scrape(context.Background(), "smartphone murah", "samsung")
	require.NoError(t, err)
	require.Empty(t, products)
}
