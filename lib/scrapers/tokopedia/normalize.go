package tokopedia

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const siteBaseUrl = "https://www.tokopedia.com"

var priceJunkRegexp = regexp.MustCompile(`[^\d,.]`)

// NumericPrice reduces a localized price string to a plain numeric
// display string, "Rp1.246.072" becomes "1246072". Indonesian thousands
// dots and European decimal commas are both recognized.
func NumericPrice(price string) string {
	if price == "" {
		return ""
	}

	cleaned := priceJunkRegexp.ReplaceAllString(price, "")
	if cleaned == "" {
		return ""
	}

	hasDot := strings.Contains(cleaned, ".")
	hasComma := strings.Contains(cleaned, ",")
	switch {
	case hasDot && !hasComma:
		// Indonesian format: 1.246.072
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	case hasComma:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			// European format: 1.246,07
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		} else {
			// US format: 1,246.07
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return cleaned
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func parsePrice(price string) (float64, bool) {
	numeric := NumericPrice(price)
	if numeric == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// deriveDiscount prefers the API-supplied percentage, falling back to
// computing it from the two price strings. Returns nil when the
// original price is unknown.
func deriveDiscount(apiValue int, salePrice, originalPrice string) *int {
	if apiValue > 0 {
		return &apiValue
	}

	original, ok := parsePrice(originalPrice)
	if !ok || original <= 0 {
		return nil
	}
	sale, ok := parsePrice(salePrice)
	if !ok {
		return nil
	}

	discount := int(math.Round((original - sale) / original * 100))
	if discount < 0 {
		discount = 0
	}
	if discount > 100 {
		discount = 100
	}
	return &discount
}

func absoluteProductUrl(u string) string {
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	if strings.HasPrefix(u, "/") {
		return siteBaseUrl + u
	}
	return u
}

func absoluteImageUrl(u string) string {
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	if strings.HasPrefix(u, "//") {
		return "https:" + u
	}
	if strings.HasPrefix(u, "/") {
		return siteBaseUrl + u
	}
	return u
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// formatProduct maps a raw API product onto the normalized record.
// Products without an id or title are dropped.
func formatProduct(raw RawProduct, brand string, translator *Translator) (Product, bool) {
	productId := string(raw.OldID)
	title := strings.TrimSpace(raw.Name)
	if productId == "" || title == "" {
		return Product{}, false
	}

	salePrice := raw.Price.Text
	originalPrice := raw.Price.Original
	if originalPrice == "" {
		originalPrice = salePrice
	}

	storeId := string(raw.Shop.OldID)
	storeUrl := absoluteProductUrl(raw.Shop.URL)
	if storeUrl == "" && storeId != "" {
		storeUrl = siteBaseUrl + "/store/" + storeId
	}

	imageUrl := raw.MediaURL.Image
	if imageUrl == "" {
		imageUrl = raw.MediaURL.Image300
	}

	var rating *float64
	if raw.Rating > 0 {
		v := float64(raw.Rating)
		rating = &v
	}

	var storeName *string
	if raw.Shop.Name != "" {
		translated := translator.Translate(raw.Shop.Name)
		storeName = &translated
	}
	var location *string
	if raw.Shop.City != "" {
		translated := translator.Translate(raw.Shop.City)
		location = &translated
	}

	return Product{
		ProductID:       productId,
		Title:           translator.Translate(title),
		SalePrice:       salePrice,
		OriginalPrice:   originalPrice,
		DiscountPercent: deriveDiscount(raw.Price.DiscountPercentage, salePrice, originalPrice),
		Currency:        "IDR",
		Rating:          rating,
		OrdersCount:     nil,
		StoreName:       storeName,
		StoreID:         optional(storeId),
		StoreURL:        optional(storeUrl),
		ProductURL:      absoluteProductUrl(raw.URL),
		ImageURL:        absoluteImageUrl(imageUrl),
		Brand:           brand,
		Location:        location,
		ScrapedAt:       time.Now().Format(time.RFC3339),
	}, true
}
