package tokopedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tokoscrape-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const defaultBaseUrl = "https://gql.tokopedia.com"
const searchProductPath = "/graphql/SearchProductV5Query"

const rowsPerPage = 60

type Client struct {
	Http *resty.Client

	deviceId string
	userId   string
	uniqueId string
}

type ClientOptions struct {
	// overrides the production endpoint, used by tests
	BaseUrl string
	Timeout time.Duration
}

func randomDigits(n int) (string, error) {
	var out strings.Builder
	for i := 0; i < n; i++ {
		low := 0
		if i == 0 {
			low = 1
		}
		d, err := random.IntRange(low, 10)
		if err != nil {
			return "", err
		}
		out.WriteString(strconv.Itoa(d))
	}
	return out.String(), nil
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	deviceId, err := randomDigits(19)
	if err != nil {
		return nil, err
	}
	userId, err := randomDigits(9)
	if err != nil {
		return nil, err
	}
	uniqueId := strings.ReplaceAll(uuid.NewString(), "-", "")

	client := resty.New()
	client.SetBaseURL(baseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetTimeout(timeout)

	client.SetHeaders(map[string]string{
		"accept":              "*/*",
		"accept-language":     "en-US,en;q=0.9",
		"bd-device-id":        deviceId,
		"bd-web-id":           deviceId,
		"content-type":        "application/json",
		"dnt":                 "1",
		"origin":              "https://www.tokopedia.com",
		"referer":             "https://www.tokopedia.com/",
		"sec-ch-ua":           `"Not;A=Brand";v="99", "Microsoft Edge";v="139", "Chromium";v="139"`,
		"sec-ch-ua-mobile":    "?0",
		"sec-ch-ua-platform":  `"Windows"`,
		"sec-fetch-dest":      "empty",
		"sec-fetch-mode":      "cors",
		"sec-fetch-site":      "same-site",
		"tkpd-userid":         userId,
		"user-agent":          "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/139.0.0.0 Safari/537.36 Edg/139.0.0.0",
		"x-dark-mode":         "false",
		"x-device":            "desktop-0.0",
		"x-price-center":      "true",
		"x-source":            "tokopedia-lite",
		"x-tkpd-lite-service": "zeus",
	})

	client.SetRetryCount(3)
	client.SetRetryWaitTime(time.Millisecond * 500)
	client.SetRetryMaxWaitTime(time.Second * 5)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err != nil || res.StatusCode() >= 500
	})

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &Client{
		Http:     client,
		deviceId: deviceId,
		userId:   userId,
		uniqueId: uniqueId,
	}, nil
}

type SearchRequest struct {
	// full search query, brand and keyword already composed
	Query string
	// 1-based page index
	Page int
	// result offset, rowsPerPage per page
	Start int
	// product ids already emitted, sent as minus_ids on pages > 1
	ExcludeIds []string
	// ranking session id extracted from the first page
	SearchId string
}

type PageResult struct {
	Products  []RawProduct
	SearchId  string
	TotalData int64
}

func (c *Client) buildSearchParams(req SearchRequest) string {
	params := url.Values{}
	params.Set("device", "desktop")
	params.Set("enter_method", "normal_search")
	params.Set("l_name", "sre")
	params.Set("navsource", "home,home")
	params.Set("ob", "23")
	params.Set("page", strconv.Itoa(req.Page))
	params.Set("q", req.Query)
	params.Set("related", "true")
	params.Set("rows", strconv.Itoa(rowsPerPage))
	params.Set("safe_search", "false")
	params.Set("sc", "")
	params.Set("scheme", "https")
	params.Set("shipping", "")
	params.Set("show_adult", "false")
	params.Set("source", "search")
	params.Set("srp_component_id", "02.01.00.00")
	params.Set("srp_page_id", "")
	params.Set("srp_page_title", "")
	params.Set("st", "product")
	params.Set("start", strconv.Itoa(req.Start))
	params.Set("topads_bucket", "true")
	params.Set("unique_id", c.uniqueId)
	params.Set("user_addressId", "")
	params.Set("user_cityId", "176")
	params.Set("user_districtId", "2274")
	params.Set("user_id", c.userId)
	params.Set("user_lat", "")
	params.Set("user_long", "")
	params.Set("user_postCode", "")
	params.Set("user_warehouseId", "0")
	params.Set("variants", "")
	params.Set("warehouses", "")

	if req.Page > 1 {
		params.Set("has_more", "true")
		params.Set("next_offset_organic", strconv.Itoa(req.Start-rowsPerPage))
		params.Set("next_offset_organic_ad", strconv.Itoa(req.Start-rowsPerPage))
		if len(req.ExcludeIds) > 0 {
			params.Set("minus_ids", strings.Join(req.ExcludeIds, ","))
		}
		if req.SearchId != "" {
			params.Set("search_id", req.SearchId)
		}
	}

	return params.Encode()
}

type graphqlOperation struct {
	OperationName string            `json:"operationName"`
	Variables     map[string]string `json:"variables"`
	Query         string            `json:"query"`
}

// SearchPage fetches a single page of search results. Transport errors
// and 5xx responses are retried with backoff before giving up.
func (c *Client) SearchPage(ctx context.Context, req SearchRequest) (PageResult, error) {
	ctx, span := tracer.Start(ctx, "client:SearchPage")
	defer span.End()

	span.SetAttributes(
		attribute.String("query", req.Query),
		attribute.Int("page", req.Page),
		attribute.Int("start", req.Start),
	)

	payload := []graphqlOperation{
		{
			OperationName: "SearchProductV5Query",
			Variables:     map[string]string{"params": c.buildSearchParams(req)},
			Query:         searchProductQuery,
		},
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(searchProductPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post search query")
		return PageResult{}, err
	}
	if res.StatusCode() != 200 {
		err := fmt.Errorf("search request returned status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status code")
		return PageResult{}, err
	}

	var body []searchResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to unmarshal search response")
		return PageResult{}, err
	}
	if len(body) == 0 {
		err := fmt.Errorf("search response contained no operations")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return PageResult{}, err
	}

	search := body[0].Data.SearchProductV5
	out := PageResult{
		Products:  search.Data.Products,
		SearchId:  extractSearchId(search.Header.AdditionalParams),
		TotalData: search.Header.TotalData,
	}
	span.SetAttributes(attribute.Int("products", len(out.Products)))
	return out, nil
}

// the ranking session id hides inside a querystring-shaped blob on the
// response header
func extractSearchId(additionalParams string) string {
	for _, param := range strings.Split(additionalParams, "&") {
		if strings.HasPrefix(param, "search_id=") {
			return strings.SplitN(param, "=", 2)[1]
		}
	}
	return ""
}
