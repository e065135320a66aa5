package catalog

import (
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/ovenbird/bakery-backend/pkg/db/models"
)

const (
	skuAncestorLetters = 3
	skuNameLetters     = 6
	skuIDHexLength     = 8
)

// DeriveSKU builds the deterministic product code from the category ancestry
// (root first), the product name and the product id: uppercase three-letter
// slug abbreviations per ancestor, a six-letter name abbreviation, and an
// eight-hex id fragment, joined by dashes. A product outside any category
// gets just the name and id segments.
func DeriveSKU(ancestry []models.Category, name string, id uuid.UUID) string {
	segments := make([]string, 0, len(ancestry)+2)
	for _, category := range ancestry {
		if segment := abbreviate(category.Slug, skuAncestorLetters); segment != "" {
			segments = append(segments, segment)
		}
	}
	if segment := abbreviate(name, skuNameLetters); segment != "" {
		segments = append(segments, segment)
	}
	segments = append(segments, idFragment(id))
	return strings.Join(segments, "-")
}

// abbreviate keeps the first n letters or digits of the value, uppercased.
func abbreviate(value string, n int) string {
	var b strings.Builder
	for _, r := range value {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if b.Len() >= n {
			break
		}
	}
	return b.String()
}

func idFragment(id uuid.UUID) string {
	hex := strings.ReplaceAll(id.String(), "-", "")
	if len(hex) > skuIDHexLength {
		hex = hex[:skuIDHexLength]
	}
	return strings.ToLower(hex)
}
