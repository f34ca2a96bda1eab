package eval

import (
	"strings"
	"time"

	"github.com/feathr-ai/feathr-online/value"
)

func registerDatetime(r *Registry) {
	r.register("now", 0, 0, func(a []value.Value) value.Value {
		return value.DateTime(time.Now().UTC())
	})

	r.register("from_unix_ms", 1, 1, func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindInt {
			return typeErr("from_unix_ms", a[0])
		}
		ms := a[0].Int()
		return value.DateTime(time.UnixMilli(ms).UTC())
	})

	r.register("to_unix_ms", 1, 1, func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindDateTime {
			return typeErr("to_unix_ms", a[0])
		}
		return value.Int(a[0].Time().UnixMilli())
	})

	r.register("format_datetime", 2, 2, func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindDateTime || a[1].Kind() != value.KindString {
			return value.NewError(value.KindType, "format_datetime requires (datetime, string)")
		}
		layout := goLayout(a[1].Str())
		return value.String(a[0].Time().Format(layout))
	})

	r.register("parse_datetime", 2, 3, func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindString || a[1].Kind() != value.KindString {
			return value.NewError(value.KindType, "parse_datetime requires (string, string[, string tz])")
		}
		loc := time.UTC
		if len(a) == 3 {
			if a[2].Kind() != value.KindString {
				return typeErr("parse_datetime", a[2])
			}
			l, err := time.LoadLocation(a[2].Str())
			if err != nil {
				return value.NewError(value.KindType, "parse_datetime: unknown timezone %q", a[2].Str())
			}
			loc = l
		}
		layout := goLayout(a[1].Str())
		t, err := time.ParseInLocation(layout, a[0].Str(), loc)
		if err != nil {
			return value.NewError(value.KindType, "parse_datetime: %v", err)
		}
		return value.DateTime(t)
	})
}

func toDateTime(v value.Value) value.Value {
	switch v.Kind() {
	case value.KindDateTime:
		return v
	case value.KindInt:
		return value.DateTime(time.UnixMilli(v.Int()).UTC())
	case value.KindString:
		t, err := time.Parse(time.RFC3339Nano, v.Str())
		if err != nil {
			return value.NewError(value.KindType, "to_datetime: cannot parse %q as RFC3339", v.Str())
		}
		return value.DateTime(t)
	default:
		return typeErr("to_datetime", v)
	}
}

// goLayout translates the small set of strftime-style directives this DSL
// supports into a Go reference-time layout; unrecognized directives pass
// through unchanged so callers can also supply a raw Go layout string.
func goLayout(fmtStr string) string {
	replacer := map[string]string{
		"%Y": "2006", "%m": "01", "%d": "02",
		"%H": "15", "%M": "04", "%S": "05",
		"%z": "-0700", "%Z": "MST",
	}
	result := fmtStr
	for k, v := range replacer {
		result = strings.ReplaceAll(result, k, v)
	}
	return result
}
