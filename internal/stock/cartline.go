package stock

import (
	"github.com/openretail/stockcore/internal/domain"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNoProductRef = errors.New("cart line carries no product reference")

// RawCartLine mirrors the loosely shaped cart entries produced by order
// placement. Several historical id fields may carry the product reference.
type RawCartLine struct {
	ProductId        int64            `json:"product_id,string"`
	EntryId          int64            `json:"entry_id,string"`
	Id               int64            `json:"id,string"`
	Quantity         int64            `json:"quantity"`
	UnitId           int64            `json:"unit_id,string"`
	UnitPrice        float64          `json:"unit_price"`
	ComboRef         string           `json:"combo_ref"`
	SelectedProducts map[int64]int64  `json:"-"`
	SelectedRaw      map[string]int64 `json:"selected_products"`
}

// CartLine is the normalized line the mutation engine operates on. It is
// produced exactly once at the boundary; field fallback precedence is
// ProductId, then EntryId, then Id.
type CartLine struct {
	ProductId int64
	Quantity  int64
	UnitId    int64
	UnitPrice float64

	// ComboRef is provenance only: the line is applied identically to any
	// other individual-product line.
	ComboRef string

	// SelectedProducts maps constituent product id to per-combo-unit base
	// quantity; populated only on combo lines that still carry the bundle
	// definition (used by the restore path).
	SelectedProducts map[int64]int64
}

// IsCombo reports whether the line descends from a bundled deal.
func (l CartLine) IsCombo() bool {
	return l.ComboRef != ""
}

// ResolveCartLine normalizes a raw cart entry.
func ResolveCartLine(raw RawCartLine) (CartLine, error) {
	productID := raw.ProductId
	if productID == 0 {
		productID = raw.EntryId
	}
	if productID == 0 {
		productID = raw.Id
	}
	if productID == 0 {
		return CartLine{}, ErrNoProductRef
	}

	line := CartLine{
		ProductId: productID,
		Quantity:  raw.Quantity,
		UnitId:    raw.UnitId,
		UnitPrice: raw.UnitPrice,
		ComboRef:  raw.ComboRef,
	}
	if len(raw.SelectedProducts) > 0 {
		line.SelectedProducts = raw.SelectedProducts
	} else if len(raw.SelectedRaw) > 0 {
		line.SelectedProducts = make(map[int64]int64, len(raw.SelectedRaw))
		for k, v := range raw.SelectedRaw {
			if id := cast.ToInt64(k); id != 0 {
				line.SelectedProducts[id] = v
			}
		}
	}
	return line, nil
}

// ResolveOrderLine normalizes a persisted order line, decoding the bundle
// definition when present.
func ResolveOrderLine(ol domain.OrderLine) (CartLine, error) {
	raw := RawCartLine{
		ProductId: ol.ProductId,
		EntryId:   ol.EntryId,
		Id:        ol.ID,
		Quantity:  ol.Quantity,
		UnitId:    ol.UnitId,
		UnitPrice: ol.UnitPrice,
		ComboRef:  ol.ComboRef,
	}
	if ol.SelectedProducts != "" {
		selected := make(map[string]int64)
		if err := json.UnmarshalFromString(ol.SelectedProducts, &selected); err != nil {
			return CartLine{}, errors.Wrap(err, "decode selected products")
		}
		raw.SelectedRaw = selected
	}
	return ResolveCartLine(raw)
}

// ResolveOrderLines normalizes every line of an order, dropping lines with no
// resolvable product reference.
func ResolveOrderLines(order *domain.Order) ([]CartLine, []error) {
	var lines []CartLine
	var errs []error
	for _, ol := range order.Lines {
		line, err := ResolveOrderLine(ol)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "order %d line %d", order.ID, ol.ID))
			continue
		}
		lines = append(lines, line)
	}
	return lines, errs
}
