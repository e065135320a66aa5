package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCartItemKeyDistinguishesSizes(t *testing.T) {
	t.Parallel()

	large := "Large"
	small := "Small"
	a := CartItem{SKU: "BRD-SOURDO-1a2b3c4d", SelectedSize: &large}
	b := CartItem{SKU: "BRD-SOURDO-1a2b3c4d", SelectedSize: &small}
	c := CartItem{SKU: "BRD-SOURDO-1a2b3c4d"}

	if a.Key() == b.Key() {
		t.Fatalf("different sizes must produce different keys")
	}
	if a.Key() == c.Key() {
		t.Fatalf("sized and unsized lines must produce different keys")
	}
	if c.SizeName() != "" {
		t.Fatalf("nil selected size should read as empty")
	}
}

func TestCartItemsRoundTrip(t *testing.T) {
	t.Parallel()

	size := "Large"
	items := CartItems{{
		SKU:          "PST-CROISS-0badc0de",
		Name:         "Croissant",
		Price:        decimal.RequireFromString("4.50"),
		Stock:        12,
		SelectedSize: &size,
		Quantity:     2,
	}}

	raw, err := items.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded CartItems
	if err := decoded.Scan(raw); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected one line, got %d", len(decoded))
	}
	if decoded[0].Key() != items[0].Key() {
		t.Fatalf("identity lost in round trip")
	}
	if !decoded[0].Price.Equal(items[0].Price) {
		t.Fatalf("price lost in round trip: %s", decoded[0].Price)
	}
}

func TestCartItemsScanNil(t *testing.T) {
	t.Parallel()

	var items CartItems
	if err := items.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("nil column should decode to empty cart")
	}
}

func TestAddressComplete(t *testing.T) {
	t.Parallel()

	full := Address{Street: "12 Rye Ln", City: "Portland", State: "OR", PostalCode: "97201"}
	if !full.Complete() {
		t.Fatalf("expected complete address")
	}
	partial := Address{Street: "12 Rye Ln", City: "Portland"}
	if partial.Complete() {
		t.Fatalf("expected incomplete address")
	}
	missing := partial.MissingFields()
	if len(missing) != 2 {
		t.Fatalf("expected two missing fields, got %v", missing)
	}
}
