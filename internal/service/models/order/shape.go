package order

import (
	"encoding/json"
	"math/big"
	"sort"

	"github.com/corray333/backend-labs/booking/internal/validation"
)

const (
	fieldAddress     = "address"
	fieldCustomer    = "customer"
	fieldBookingDate = "bookingDate"
	fieldTitle       = "title"
)

var (
	addressFields  = []string{"city", "country", "street", "zip"}
	customerFields = []string{"name", "phone", "email"}
)

// Payload is a decoded request body. Both the nested form
// ({"address": {"city": ...}}) and the legacy flat form ({"city": ...}) are accepted.
type Payload map[string]any

// ToStorageShape maps a payload to the canonical stored document.
// Fields missing from the payload stay missing so validation can report them.
// The address and customer sub-objects are always present.
func ToStorageShape(p Payload) map[string]any {
	doc := map[string]any{
		fieldAddress:  pick(p, fieldAddress, addressFields),
		fieldCustomer: pick(p, fieldCustomer, customerFields),
	}
	copyField(doc, p, fieldBookingDate)
	copyField(doc, p, fieldTitle)

	return doc
}

// ToUpdateShape keeps only the fields an update may change.
func ToUpdateShape(p Payload) map[string]any {
	doc := make(map[string]any, 2)
	copyField(doc, p, fieldBookingDate)
	copyField(doc, p, fieldTitle)

	return doc
}

// CollectionToList projects a key -> document mapping onto a list of orders
// annotated with their key, ordered by key. It never returns nil.
func CollectionToList(docs map[string]Order) []Order {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]Order, 0, len(keys))
	for _, k := range keys {
		o := docs[k]
		o.UID = k
		list = append(list, o)
	}

	return list
}

// pick builds a sub-object from p[group] and falls back to top-level fields.
func pick(p Payload, group string, fields []string) map[string]any {
	nested, _ := p[group].(map[string]any)
	sub := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := nested[f]; ok && v != nil {
			sub[f] = v

			continue
		}
		if v, ok := p[f]; ok && v != nil {
			sub[f] = v
		}
	}

	return sub
}

func copyField(dst map[string]any, p Payload, field string) {
	if v, ok := p[field]; ok && v != nil {
		dst[field] = v
	}
}

// NormalizeBookingDate rewrites a present bookingDate as an int64.
// Whole numbers written as 2.0 or 1.7e12 are accepted; values that do not
// fit an int64 are reported as a type violation.
func NormalizeBookingDate(doc map[string]any) *validation.Violation {
	v, ok := doc[fieldBookingDate]
	if !ok {
		return nil
	}

	n, ok := toInt64(v)
	if !ok {
		return &validation.Violation{
			Field:      fieldBookingDate,
			Constraint: "type",
			Message:    "bookingDate must be a whole number of milliseconds that fits a 64-bit integer",
		}
	}
	doc[fieldBookingDate] = n

	return nil
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		r, ok := new(big.Rat).SetString(n.String())
		if !ok {
			return 0, false
		}

		return ratToInt64(r)
	case float64:
		r := new(big.Rat)
		if r.SetFloat64(n) == nil {
			return 0, false
		}

		return ratToInt64(r)
	default:
		return 0, false
	}
}

func ratToInt64(r *big.Rat) (int64, bool) {
	if !r.IsInt() || !r.Num().IsInt64() {
		return 0, false
	}

	return r.Num().Int64(), true
}
