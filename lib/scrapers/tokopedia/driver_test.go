package tokopedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"tokoscrape-backend/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func fakeRawProduct(id int) map[string]any {
	return map[string]any{
		"oldID": id,
		"name":  fmt.Sprintf("Product %d", id),
		"url":   fmt.Sprintf("/store-%d/product-%d", id, id),
		"mediaURL": map[string]any{
			"image": fmt.Sprintf("//img.example.com/%d.jpg", id),
		},
		"shop": map[string]any{
			"oldID": id * 10,
			"name":  fmt.Sprintf("Store %d", id),
			"city":  "Jakarta",
		},
		"price": map[string]any{
			"text":               "Rp100.000",
			"original":           "Rp200.000",
			"discountPercentage": 50,
		},
		"rating": "4.5",
	}
}

func searchResponseBody(t *testing.T, searchId string, products ...map[string]any) []byte {
	t.Helper()

	if products == nil {
		products = []map[string]any{}
	}
	body := []map[string]any{
		{
			"data": map[string]any{
				"searchProductV5": map[string]any{
					"header": map[string]any{
						"totalData":        240,
						"responseCode":     0,
						"additionalParams": "catid=24&search_id=" + searchId,
					},
					"data": map[string]any{
						"totalDataText": "240",
						"products":      products,
					},
				},
			},
		},
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

// decodes the single operation the client posts and returns the params
// string as url values
func decodeSearchParams(t *testing.T, r *http.Request) url.Values {
	t.Helper()

	var ops []graphqlOperation
	err := json.NewDecoder(r.Body).Decode(&ops)
	require.NoError(t, err)
	require.Len(t, ops, 1)
	require.Equal(t, "SearchProductV5Query", ops[0].OperationName)

	params, err := url.ParseQuery(ops[0].Variables["params"])
	require.NoError(t, err)
	return params
}

func newTestClient(t *testing.T, serverUrl string) *Client {
	t.Helper()

	client, err := NewClient(ClientOptions{
		BaseUrl: serverUrl,
		Timeout: time.Second * 5,
	})
	require.NoError(t, err)
	return client
}

func TestDriverPaginatesAndDeduplicates(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tokopedia")
	defer cleanup()

	var page2Params url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := decodeSearchParams(t, r)

		switch params.Get("page") {
		case "1":
			w.Write(searchResponseBody(
				t, "SEARCH123",
				fakeRawProduct(1), fakeRawProduct(2), fakeRawProduct(3),
			))
		case "2":
			page2Params = params
			// product 3 is a duplicate and must not be re-emitted
			w.Write(searchResponseBody(
				t, "SEARCH123",
				fakeRawProduct(3), fakeRawProduct(4),
			))
		default:
			w.Write(searchResponseBody(t, "SEARCH123"))
		}
	}))
	defer server.Close()

	driver := NewDriver(newTestClient(t, server.URL), Options{
		Keyword: "smartphone",
		Brand:   "TestBrand",
	})
	products, err := driver.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, products, 4)
	seen := map[string]bool{}
	for _, p := range products {
		require.False(t, seen[p.ProductID], "duplicate product id %s", p.ProductID)
		seen[p.ProductID] = true
		require.Equal(t, "TestBrand", p.Brand)
	}

	// the second page must replay the ranking session and exclude
	// everything already emitted
	require.NotNil(t, page2Params)
	require.Equal(t, "SEARCH123", page2Params.Get("search_id"))
	require.Equal(t, "true", page2Params.Get("has_more"))
	require.Equal(t, "0", page2Params.Get("next_offset_organic"))
	require.Equal(t, "1,2,3", page2Params.Get("minus_ids"))
	require.Equal(t, "TestBrand smartphone", page2Params.Get("q"))
}

func TestDriverStopsAtProductCap(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tokopedia")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := decodeSearchParams(t, r)
		require.Equal(t, "1", params.Get("page"), "should never request a second page")
		w.Write(searchResponseBody(
			t, "S1",
			fakeRawProduct(1), fakeRawProduct(2), fakeRawProduct(3), fakeRawProduct(4),
		))
	}))
	defer server.Close()

	driver := NewDriver(newTestClient(t, server.URL), Options{
		Keyword:     "laptop",
		MaxProducts: 2,
	})
	products, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestDriverStopsAtPageCap(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tokopedia")
	defer cleanup()

	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		id := requests
		w.Write(searchResponseBody(t, "S1", fakeRawProduct(id)))
	}))
	defer server.Close()

	driver := NewDriver(newTestClient(t, server.URL), Options{
		Keyword:  "laptop",
		MaxPages: 2,
	})
	products, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	require.Equal(t, 2, requests)
}

func TestDriverStopsOnEmptyPage(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tokopedia")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(searchResponseBody(t, "S1"))
	}))
	defer server.Close()

	driver := NewDriver(newTestClient(t, server.URL), Options{Keyword: "obscure"})
	products, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestDriverKeepsPartialResultsOnPageFailure(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tokopedia")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := decodeSearchParams(t, r)
		if params.Get("page") == "1" {
			w.Write(searchResponseBody(t, "S1", fakeRawProduct(1), fakeRawProduct(2)))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	driver := NewDriver(newTestClient(t, server.URL), Options{Keyword: "laptop"})
	products, err := driver.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
}

func TestDriverFailsWhenFirstPageFails(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:tokopedia")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	driver := NewDriver(newTestClient(t, server.URL), Options{Keyword: "laptop"})
	_, err := driver.Run(context.Background())
	require.Error(t, err)
}
