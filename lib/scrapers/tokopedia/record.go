package tokopedia

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Product is the normalized record emitted for every search hit. The
// json keys are the interchange format consumed by the CSV writer and
// the job results endpoints, they stay human-readable on purpose.
type Product struct {
	ProductID       string   `json:"Product ID"`
	Title           string   `json:"Title"`
	SalePrice       string   `json:"Sale Price"`
	OriginalPrice   string   `json:"Original Price"`
	DiscountPercent *int     `json:"Discount (%)"`
	Currency        string   `json:"Currency"`
	Rating          *float64 `json:"Rating"`
	OrdersCount     *int     `json:"Orders Count"`
	StoreName       *string  `json:"Store Name"`
	StoreID         *string  `json:"Store ID"`
	StoreURL        *string  `json:"Store URL"`
	ProductURL      string   `json:"Product URL"`
	ImageURL        string   `json:"Image URL"`
	Brand           string   `json:"Brand"`
	Location        *string  `json:"Location"`
	ScrapedAt       string   `json:"Scraped At"`
}

// flexString tolerates the API emitting ids either as json numbers or
// as strings, both shapes have been observed in the wild.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		err := json.Unmarshal(b, &v)
		if err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	err := json.Unmarshal(b, &n)
	if err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

// flexFloat tolerates numbers serialized as strings, ratings come back
// as "4.9" on some response variants.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var v string
		err := json.Unmarshal(b, &v)
		if err != nil {
			return err
		}
		if v == "" {
			*f = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat(parsed)
		return nil
	}
	var v float64
	err := json.Unmarshal(b, &v)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type rawPrice struct {
	Text               string `json:"text"`
	Number             int64  `json:"number"`
	Original           string `json:"original"`
	DiscountPercentage int    `json:"discountPercentage"`
}

type rawShop struct {
	OldID flexString `json:"oldID"`
	Name  string     `json:"name"`
	URL   string     `json:"url"`
	City  string     `json:"city"`
}

type rawMedia struct {
	Image    string `json:"image"`
	Image300 string `json:"image300"`
}

// RawProduct is a single product entry as returned by the search API.
type RawProduct struct {
	OldID    flexString `json:"oldID"`
	Name     string     `json:"name"`
	URL      string     `json:"url"`
	MediaURL rawMedia   `json:"mediaURL"`
	Shop     rawShop    `json:"shop"`
	Price    rawPrice   `json:"price"`
	Rating   flexFloat  `json:"rating"`
}

type searchHeader struct {
	TotalData        int64  `json:"totalData"`
	ResponseCode     int    `json:"responseCode"`
	AdditionalParams string `json:"additionalParams"`
}

type searchData struct {
	TotalDataText string       `json:"totalDataText"`
	Products      []RawProduct `json:"products"`
}

type searchProductV5 struct {
	Header searchHeader `json:"header"`
	Data   searchData   `json:"data"`
}

type searchResponse struct {
	Data struct {
		SearchProductV5 searchProductV5 `json:"searchProductV5"`
	} `json:"data"`
}
