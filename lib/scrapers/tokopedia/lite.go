package tokopedia

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"

	"tokoscrape-backend/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// LiteClient scrapes the public search and category pages directly,
// a single-page fallback for when the GraphQL endpoint misbehaves. It
// only sees what the server renders without javascript, so expect far
// fewer hits than the API returns.
type LiteClient struct {
	http       *resty.Client
	baseUrl    string
	translator *Translator
}

type LiteClientOptions struct {
	// overrides the production site, used by tests
	BaseUrl string
	Timeout time.Duration
}

func NewLiteClient(opts LiteClientOptions) (*LiteClient, error) {
	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = siteBaseUrl
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", browser.Random())
	client.SetTimeout(timeout)

	restyutil.InstrumentClient(client, tracer, restyInstrumentOutput)

	return &LiteClient{
		http:       client,
		baseUrl:    baseUrl,
		translator: NewTranslator(),
	}, nil
}

// keywords that resolve to a category page, those render more products
// server-side than the generic search page
var categoryByKeyword = []struct {
	keyword  string
	category string
}{
	{"smartphone", "handphone-tablet/handphone"},
	{"phone", "handphone-tablet/handphone"},
	{"handphone", "handphone-tablet/handphone"},
	{"iphone", "handphone-tablet/handphone"},
	{"android", "handphone-tablet/handphone"},
	{"samsung", "handphone-tablet/handphone"},
	{"xiaomi", "handphone-tablet/handphone"},
	{"oppo", "handphone-tablet/handphone"},
	{"vivo", "handphone-tablet/handphone"},
	{"huawei", "handphone-tablet/handphone"},
	{"tablet", "handphone-tablet/tablet"},
	{"ipad", "handphone-tablet/tablet"},
	{"laptop", "komputer-laptop/laptop"},
	{"komputer", "komputer-laptop"},
	{"macbook", "komputer-laptop/laptop"},
	{"headphone", "elektronik/audio"},
	{"earphone", "elektronik/audio"},
	{"speaker", "elektronik/audio"},
	{"audio", "elektronik/audio"},
	{"lego", "mainan-hobi"},
	{"toy", "mainan-hobi"},
	{"mainan", "mainan-hobi"},
	{"game", "mainan-hobi/games"},
	{"konsol", "elektronik/gaming"},
	{"playstation", "elektronik/gaming"},
	{"xbox", "elektronik/gaming"},
	{"nintendo", "elektronik/gaming"},
	{"fashion", "fashion"},
	{"baju", "fashion-pria"},
	{"kaos", "fashion-pria"},
	{"jaket", "fashion-pria"},
	{"sepatu", "sepatu-pria"},
	{"tas", "tas-travel"},
	{"jam", "jam-tangan"},
	{"watch", "jam-tangan"},
	{"kamera", "kamera-foto-video"},
	{"camera", "kamera-foto-video"},
	{"tv", "elektronik/televisi-video"},
	{"television", "elektronik/televisi-video"},
}

func (c *LiteClient) buildSearchUrl(keyword, brand string) string {
	lowered := strings.ToLower(keyword)
	for _, entry := range categoryByKeyword {
		if strings.Contains(lowered, entry.keyword) {
			return c.baseUrl + "/p/" + entry.category
		}
	}

	query := strings.TrimSpace(strings.ToLower(brand) + " " + lowered)
	return c.baseUrl + "/search?st=product&q=" + url.QueryEscape(query)
}

var productIdPatterns = []*regexp.Regexp{
	regexp.MustCompile(`extParam[^&]*search_id%3D([A-Z0-9]+)`),
	regexp.MustCompile(`-(\d{13,})`),
	regexp.MustCompile(`/([^/?]+)\?`),
	regexp.MustCompile(`/([^/?]+)$`),
}

func productIdFromUrl(u string) string {
	if u == "" {
		return ""
	}
	for _, pattern := range productIdPatterns {
		groups := pattern.FindStringSubmatch(u)
		if len(groups) >= 2 {
			return groups[1]
		}
	}
	parts := strings.Split(u, "/")
	return strings.SplitN(parts[len(parts)-1], "?", 2)[0]
}

var storeSlugRegexp = regexp.MustCompile(`tokopedia\.com/([^/?]+)`)

var nonStoreSlugs = map[string]bool{
	"p":         true,
	"discovery": true,
	"help":      true,
	"about":     true,
	"careers":   true,
	"search":    true,
}

func storeSlugFromUrl(u string) string {
	groups := storeSlugRegexp.FindStringSubmatch(u)
	if len(groups) < 2 {
		return ""
	}
	if nonStoreSlugs[groups[1]] {
		return ""
	}
	return groups[1]
}

func cleanPriceText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := priceJunkRegexp.ReplaceAllString(text, "")
	if cleaned == "" {
		return text
	}
	return "Rp" + cleaned
}

var liteTitleSelectors = []string{
	".css-20kt3o",
	"span[data-testid*=spnSRPProdName]",
	"span[data-testid*=title]",
	"span[data-testid*=name]",
	"div[data-testid*=title]",
	"span[class*=prd_link-prod-name]",
	".css-3017qm",
	"h3",
	"h4",
	"h5",
	"a[title]",
}

var litePriceSelectors = []string{
	".css-o5uqvq",
	"span[data-testid*=spnSRPProdPrice]",
	".css-h66vau",
	".prd_link-prod-price",
	"span[class*=price]",
	"div[class*=price]",
}

var liteStoreSelectors = []string{
	".css-ywdpwd",
	"span[data-testid*=spnSRPProdTablet]",
	"span[class*=shop]",
	"div[class*=shop]",
	"span[class*=store]",
	"div[class*=store]",
}

var locationMarkers = []string{"Jakarta", "Surabaya", "Bandung", "Kab.", "Kota"}

// Scrape fetches one rendered page for the given keyword and returns
// whatever product cards it can recognize.
func (c *LiteClient) Scrape(ctx context.Context, keyword, brand string) ([]Product, error) {
	ctx, span := tracer.Start(ctx, "lite:Scrape")
	defer span.End()

	target := c.buildSearchUrl(keyword, brand)
	span.SetAttributes(attribute.String("url", target))

	res, err := c.http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch search page")
		return nil, err
	}
	if res.StatusCode() != 200 {
		err := fmt.Errorf("search page returned status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status code")
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return nil, err
	}

	containers := doc.Find("div[data-testid=divProductWrapper]")
	if containers.Length() == 0 {
		containers = doc.Find("a[data-testid=lnkProductContainer]")
	}
	if containers.Length() == 0 {
		containers = doc.Find("[data-testid*=product], [data-testid*=Product]")
	}
	if containers.Length() == 0 {
		containers = doc.Find(".prd_container-card, [class*=product]")
	}

	var products []Product
	seen := map[string]bool{}
	containers.Each(func(_ int, container *goquery.Selection) {
		product, ok := c.extractProduct(container)
		if !ok {
			return
		}
		product.Brand = brand
		if product.ProductID != "" && seen[product.ProductID] {
			return
		}
		seen[product.ProductID] = true
		products = append(products, product)
	})

	span.SetAttributes(attribute.Int("products", len(products)))
	return products, nil
}

func firstText(container *goquery.Selection, selectors []string, minLen int) string {
	for _, selector := range selectors {
		elem := container.Find(selector).First()
		if elem.Length() == 0 {
			continue
		}
		text := strings.TrimSpace(elem.Text())
		if len(text) > minLen {
			return text
		}
		if title, ok := elem.Attr("title"); ok && len(strings.TrimSpace(title)) > minLen {
			return strings.TrimSpace(title)
		}
	}
	return ""
}

func (c *LiteClient) extractProduct(container *goquery.Selection) (Product, bool) {
	productUrl, _ := container.Attr("href")
	if productUrl == "" {
		productUrl, _ = container.Find("a").First().Attr("href")
	}
	productUrl = absoluteProductUrl(productUrl)

	title := firstText(container, liteTitleSelectors, 5)
	if title == "" {
		return Product{}, false
	}

	price := ""
	for _, selector := range litePriceSelectors {
		text := strings.TrimSpace(container.Find(selector).First().Text())
		if strings.Contains(text, "Rp") {
			price = cleanPriceText(text)
			break
		}
	}

	var storeTexts []string
	for _, selector := range liteStoreSelectors {
		container.Find(selector).Each(func(_ int, elem *goquery.Selection) {
			text := strings.TrimSpace(elem.Text())
			if len(text) > 2 {
				storeTexts = append(storeTexts, text)
			}
		})
	}

	storeName := ""
	storeLocation := ""
	if len(storeTexts) >= 2 {
		storeLocation = storeTexts[0]
		storeName = storeTexts[1]
	} else if len(storeTexts) == 1 {
		isLocation := false
		for _, marker := range locationMarkers {
			if strings.Contains(storeTexts[0], marker) {
				isLocation = true
				break
			}
		}
		if isLocation {
			storeLocation = storeTexts[0]
		} else {
			storeName = storeTexts[0]
		}
	}

	imageUrl, _ := container.Find("img").First().Attr("src")
	imageUrl = absoluteImageUrl(imageUrl)

	storeId := storeSlugFromUrl(productUrl)
	storeUrl := ""
	if storeId != "" {
		storeUrl = siteBaseUrl + "/" + storeId
	}

	var storeNamePtr *string
	if storeName != "" {
		translated := c.translator.Translate(storeName)
		storeNamePtr = &translated
	}
	var locationPtr *string
	if storeLocation != "" {
		translated := c.translator.Translate(storeLocation)
		locationPtr = &translated
	}

	return Product{
		ProductID:       productIdFromUrl(productUrl),
		Title:           c.translator.Translate(title),
		SalePrice:       price,
		OriginalPrice:   price,
		DiscountPercent: deriveDiscount(0, price, price),
		Currency:        "IDR",
		StoreName:       storeNamePtr,
		StoreID:         optional(storeId),
		StoreURL:        optional(storeUrl),
		ProductURL:      productUrl,
		ImageURL:        imageUrl,
		Location:        locationPtr,
		ScrapedAt:       time.Now().Format(time.RFC3339),
	}, true
}
