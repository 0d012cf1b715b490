package docstore

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"
)

// SortDocuments orders docs in place by o. Missing values sort last in either
// direction and ties keep their existing order. Subscribers falling back to
// unordered queries use the same function, so both paths agree.
func SortDocuments(docs []Document, o Order) {
	slices.SortStableFunc(docs, func(a, b Document) int {
		av, bv := a.Value(o.Field), b.Value(o.Field)
		switch {
		case av == nil && bv == nil:
			return 0
		case av == nil:
			return 1
		case bv == nil:
			return -1
		}
		c := compareValues(av, bv)
		if o.Desc {
			c = -c
		}
		return c
	})
}

// value classes, in cross-type sort order.
const (
	classBool = iota
	classNumber
	classString
	classTime
	classOther
)

func classify(v any) (int, any) {
	switch x := v.(type) {
	case bool:
		return classBool, x
	case int:
		return classNumber, float64(x)
	case int64:
		return classNumber, float64(x)
	case float64:
		return classNumber, x
	case json.Number:
		f, _ := x.Float64()
		return classNumber, f
	case string:
		return classString, x
	case time.Time:
		return classTime, x
	case *time.Time:
		if x == nil {
			return classOther, nil
		}
		return classTime, *x
	}
	return classOther, nil
}

func compareValues(a, b any) int {
	ca, av := classify(a)
	cb, bv := classify(b)
	if ca != cb {
		return cmp.Compare(ca, cb)
	}
	switch ca {
	case classBool:
		x, y := av.(bool), bv.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case classNumber:
		return cmp.Compare(av.(float64), bv.(float64))
	case classString:
		return cmp.Compare(av.(string), bv.(string))
	case classTime:
		return av.(time.Time).Compare(bv.(time.Time))
	}
	return 0
}
