package tokopedia

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTranslateWholeWords(t *testing.T) {
	translator := NewTranslator()

	testCases := []struct {
		input    string
		expected string
	}{
		{"Handphone Bekas Mulus", "Smartphone Used Excellent Condition"},
		{"Garansi Resmi SEIN", "Warranty Official Official Distributor"},
		{"iPhone 13 Pro Max", "iPhone 13 Pro Max"},
		{"Terjual 100+", "Sold 100+"},
		{"Kota Bandung", "City Bandung"},
		{"", ""},
	}

	for _, tc := range testCases {
		require.Equal(t, tc.expected, translator.Translate(tc.input), "input: %q", tc.input)
	}
}

func TestTranslateLeavesSubstringsAlone(t *testing.T) {
	translator := NewTranslator()

	// "Stok" is a whole word, "Stoker" only contains it
	require.Equal(t, "Stock habis", translator.Translate("Stok habis"))
	require.Equal(t, "Stoker habis", translator.Translate("Stoker habis"))
}

func TestTranslatePreservesPunctuation(t *testing.T) {
	translator := NewTranslator()

	require.Equal(
		t,
		"New! Warranty, Sealed.",
		translator.Translate("Baru! Garansi, Segel."),
	)
}
