package milesight

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Record is one entity returned by the gateway (device, application, codec,
// profile, gateway, ...). Fields are passed through untouched.
type Record map[string]any

// String returns the field as a string. Numbers and booleans are formatted;
// missing and null fields yield "".
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the field as an int. Numeric strings are parsed.
func (r Record) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	}

	return 0, false
}

// Page is one offset/limit slice of a collection.
type Page[T any] struct {
	Items []T
	// TotalCount is the collection size the server reported for this page.
	TotalCount int
}

// PageParams represents pagination parameters for API requests.
type PageParams struct {
	Offset int `url:"offset"`
	Limit  int `url:"limit"`
}

// envelope describes where a response keeps its records and total.
type envelope struct {
	list  string
	total string
}

var (
	resultEnvelope = envelope{list: "result", total: "totalCount"}
	deviceEnvelope = envelope{list: "deviceResult", total: "devTotalCount"}
)

// decode extracts a page from a raw response document. A missing list
// yields no items and a missing total yields 0.
func (e envelope) decode(doc map[string]json.RawMessage) (Page[Record], error) {
	var page Page[Record]

	if raw, ok := doc[e.list]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return Page[Record]{}, fmt.Errorf("decode %s: %w", e.list, err)
		}
	}

	if raw, ok := doc[e.total]; ok && !isNull(raw) {
		total, err := decodeCount(raw)
		if err != nil {
			return Page[Record]{}, fmt.Errorf("decode %s: %w", e.total, err)
		}
		page.TotalCount = total
	}

	return page, nil
}

// decodeCount accepts counts sent as numbers or numeric strings. Integral
// floats such as 23.0 are accepted too.
func decodeCount(raw json.RawMessage) (int, error) {
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, err
	}

	if i, err := n.Int64(); err == nil {
		return int(i), nil
	}

	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("count %s is not an integer", n)
	}

	return int(f), nil
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
