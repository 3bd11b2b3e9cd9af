package tokopedia

import "regexp"

// Translator maps common Indonesian marketplace terms to English. Only
// whole words are replaced, everything else passes through untouched.
type Translator struct {
	terms map[string]string
}

var tokenRegexp = regexp.MustCompile(`\b\w+\b|\s+|[^\w\s]`)

func NewTranslator() *Translator {
	return &Translator{
		terms: map[string]string{
			// product terms
			"Handphone":  "Smartphone",
			"Smartphone": "Smartphone",
			"Tablet":     "Tablet",
			"Bekas":      "Used",
			"Baru":       "New",
			"Second":     "Second Hand",
			"Mulus":      "Excellent Condition",
			"Original":   "Original",
			"Ori":        "Original",
			"Garansi":    "Warranty",
			"Resmi":      "Official",
			"Fullset":    "Complete Set",
			"BNIB":       "Brand New In Box",
			"Segel":      "Sealed",
			"SEIN":       "Official Distributor",
			// store and shipping terms
			"Gratis":             "Free",
			"Ongkir":             "Shipping",
			"Gratis Ongkir":      "Free Shipping",
			"Beli Sekarang":      "Buy Now",
			"Masuk Keranjang":    "Add to Cart",
			"Tambah ke Wishlist": "Add to Wishlist",
			// product info terms
			"Stok":        "Stock",
			"Terjual":     "Sold",
			"Rating":      "Rating",
			"Ulasan":      "Reviews",
			"Diskusi":     "Discussion",
			"Deskripsi":   "Description",
			"Spesifikasi": "Specifications",
			// location terms
			"Jakarta":  "Jakarta",
			"Surabaya": "Surabaya",
			"Bandung":  "Bandung",
			"Medan":    "Medan",
			"Kab.":     "Regency",
			"Kota":     "City",
		},
	}
}

func (t *Translator) Translate(text string) string {
	if text == "" {
		return text
	}

	parts := tokenRegexp.FindAllString(text, -1)
	out := make([]byte, 0, len(text))
	for _, part := range parts {
		if translated, ok := t.terms[part]; ok {
			out = append(out, translated...)
			continue
		}
		out = append(out, part...)
	}
	return string(out)
}
