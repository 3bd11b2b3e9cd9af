package scrape

import (
	"os"
	"path/filepath"

	"tokoscrape-backend/lib/scrapers/tokopedia"

	"github.com/gocarina/gocsv"
)

// listingRow is the fixed 18-column listing template shared by the
// marketplace scrapers, columns without a Tokopedia counterpart stay
// empty.
type listingRow struct {
	ListingTitle      string `csv:"Listing Title*"`
	ListingsURL       string `csv:"Listings URL*"`
	ImageURL          string `csv:"Image URL*"`
	Marketplace       string `csv:"Marketplace*"`
	Price             string `csv:"Price*"`
	Shipping          string `csv:"Shipping"`
	UnitsAvailable    string `csv:"Units Available"`
	ItemNumber        string `csv:"Item Number"`
	Brand             string `csv:"Brand"`
	ASIN              string `csv:"ASIN"`
	UPC               string `csv:"UPC"`
	WalmartID         string `csv:"Walmart ID"`
	SellerName        string `csv:"Seller's Name*"`
	SellerURL         string `csv:"Seller's URL*"`
	SellerBusiness    string `csv:"Seller's Business Name"`
	SellerAddress     string `csv:"Seller's Address"`
	SellerEmail       string `csv:"Seller's Email"`
	SellerPhoneNumber string `csv:"Seller's Phone Number"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func listingRowFromProduct(product tokopedia.Product) listingRow {
	return listingRow{
		ListingTitle:  product.Title,
		ListingsURL:   product.ProductURL,
		ImageURL:      product.ImageURL,
		Marketplace:   "Tokopedia",
		Price:         tokopedia.NumericPrice(product.SalePrice),
		ItemNumber:    product.ProductID,
		Brand:         product.Brand,
		SellerName:    deref(product.StoreName),
		SellerURL:     deref(product.StoreURL),
		SellerAddress: deref(product.Location),
	}
}

// WriteCsv renders the products into the listing template at the given
// path, creating parent directories as needed.
func WriteCsv(path string, products []tokopedia.Product) error {
	err := os.MkdirAll(filepath.Dir(path), 0755)
	if err != nil {
		return err
	}

	rows := make([]listingRow, 0, len(products))
	for _, product := range products {
		rows = append(rows, listingRowFromProduct(product))
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gocsv.MarshalFile(&rows, file)
}
