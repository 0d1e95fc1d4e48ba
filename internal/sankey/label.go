package sankey

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// normalizeLabel maps a raw field value onto the canonical form used as a
// map key. Integers of every width collapse to int64 (uint64 only when the
// value exceeds MaxInt64), integral floats collapse to int64 so that 2020
// and 2020.0 are the same label, and NaN becomes the null label.
func normalizeLabel(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, int64:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case uint:
		return normalizeUint(uint64(x)), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return normalizeUint(x), nil
	case float32:
		return normalizeFloat(float64(x)), nil
	case float64:
		return normalizeFloat(x), nil
	case []byte:
		return string(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		if f, err := x.Float64(); err == nil {
			return normalizeFloat(f), nil
		}
		return x.String(), nil
	case decimal.Decimal:
		if x.IsInteger() && x.BigInt().IsInt64() {
			return x.IntPart(), nil
		}
		return normalizeFloat(x.InexactFloat64()), nil
	case time.Time:
		return x.Round(0).UTC(), nil
	}

	if !hashable(v) {
		return nil, ErrInvalidLabel
	}
	return v, nil
}

// hashable reports whether v can be used as a map key. A comparable static
// type is not enough: a struct or array may hold an interface whose dynamic
// value is a slice or map, which only fails when hashed.
func hashable(v any) (ok bool) {
	if !reflect.TypeOf(v).Comparable() {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	keys := map[any]struct{}{}
	keys[v] = struct{}{}
	return true
}

func normalizeUint(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return u
}

func normalizeFloat(f float64) any {
	if math.IsNaN(f) {
		return nil
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return int64(f)
	}
	return f
}

// Label kinds in sort order.
const (
	kindNull = iota
	kindBool
	kindNumber
	kindString
	kindTime
	kindOther
)

func labelKind(v any) int {
	switch v.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case int64, uint64, float64:
		return kindNumber
	case string:
		return kindString
	case time.Time:
		return kindTime
	default:
		return kindOther
	}
}

// compareLabels defines a total order over normalized labels: null, then
// booleans, numbers, strings, times, and finally any other comparable value
// ordered by its type and printed form.
func compareLabels(a, b any) int {
	ka, kb := labelKind(a), labelKind(b)
	if ka != kb {
		return ka - kb
	}

	switch ka {
	case kindNull:
		return 0
	case kindBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case kindNumber:
		if c := toBigFloat(a).Cmp(toBigFloat(b)); c != 0 {
			return c
		}
		return strings.Compare(fmt.Sprintf("%T", a), fmt.Sprintf("%T", b))
	case kindString:
		return strings.Compare(a.(string), b.(string))
	case kindTime:
		return a.(time.Time).Compare(b.(time.Time))
	}

	if c := strings.Compare(fmt.Sprintf("%T:%v", a, a), fmt.Sprintf("%T:%v", b, b)); c != 0 {
		return c
	}
	return compareIdentity(a, b)
}

// compareIdentity orders distinct values of one type that print alike.
// Pointers and channels compare by address; anything else by its Go-syntax
// form, which spells out nested pointers.
func compareIdentity(a, b any) int {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return cmp.Compare(va.Pointer(), vb.Pointer())
	}
	return strings.Compare(fmt.Sprintf("%#v", a), fmt.Sprintf("%#v", b))
}

func toBigFloat(v any) *big.Float {
	switch x := v.(type) {
	case int64:
		return new(big.Float).SetInt64(x)
	case uint64:
		return new(big.Float).SetUint64(x)
	case float64:
		return new(big.Float).SetFloat64(x)
	}
	return new(big.Float)
}
