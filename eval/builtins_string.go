package eval

import (
	"regexp"
	"strings"

	"github.com/feathr-ai/feathr-online/value"
)

func registerString(r *Registry) {
	r.register("length", 1, 1, func(a []value.Value) value.Value {
		switch a[0].Kind() {
		case value.KindString:
			return value.Int(int64(len([]rune(a[0].Str()))))
		case value.KindList:
			return value.Int(int64(len(a[0].Items())))
		default:
			return typeErr("length", a[0])
		}
	})
	r.register("lower", 1, 1, stringFn("lower", strings.ToLower))
	r.register("upper", 1, 1, stringFn("upper", strings.ToUpper))
	r.register("trim", 1, 1, stringFn("trim", strings.TrimSpace))

	r.register("split", 2, 2, func(a []value.Value) value.Value {
		s, sep, ok := two(a[0], a[1])
		if !ok {
			return value.NewError(value.KindType, "split requires (string, string)")
		}
		parts := strings.Split(s, sep)
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.String(p)
		}
		return value.List(items)
	})

	r.register("concat", 0, -1, func(a []value.Value) value.Value {
		var sb strings.Builder
		for _, v := range a {
			if v.Kind() != value.KindString {
				return typeErr("concat", v)
			}
			sb.WriteString(v.Str())
		}
		return value.String(sb.String())
	})

	r.register("substring", 2, 3, func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindString || a[1].Kind() != value.KindInt {
			return value.NewError(value.KindType, "substring requires (string, int[, int])")
		}
		runes := []rune(a[0].Str())
		start := clampIndex(a[1].Int(), len(runes))
		end := int64(len(runes))
		if len(a) == 3 {
			if a[2].Kind() != value.KindInt {
				return typeErr("substring", a[2])
			}
			end = clampIndex(a[1].Int()+a[2].Int(), len(runes))
		}
		if end < start {
			end = start
		}
		return value.String(string(runes[start:end]))
	})

	r.register("replace", 3, 3, func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindString || a[1].Kind() != value.KindString || a[2].Kind() != value.KindString {
			return value.NewError(value.KindType, "replace requires three strings")
		}
		return value.String(strings.ReplaceAll(a[0].Str(), a[1].Str(), a[2].Str()))
	})

	r.register("contains", 2, 2, func(a []value.Value) value.Value {
		s, sub, ok := two(a[0], a[1])
		if !ok {
			return value.NewError(value.KindType, "contains requires (string, string)")
		}
		return value.Bool(strings.Contains(s, sub))
	})
	r.register("starts_with", 2, 2, func(a []value.Value) value.Value {
		s, pre, ok := two(a[0], a[1])
		if !ok {
			return value.NewError(value.KindType, "starts_with requires (string, string)")
		}
		return value.Bool(strings.HasPrefix(s, pre))
	})
	r.register("ends_with", 2, 2, func(a []value.Value) value.Value {
		s, suf, ok := two(a[0], a[1])
		if !ok {
			return value.NewError(value.KindType, "ends_with requires (string, string)")
		}
		return value.Bool(strings.HasSuffix(s, suf))
	})

	r.register("regex_match", 2, 2, func(a []value.Value) value.Value {
		s, pat, ok := two(a[0], a[1])
		if !ok {
			return value.NewError(value.KindType, "regex_match requires (string, string)")
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			return value.NewError(value.KindType, "regex_match: invalid pattern: %v", err)
		}
		return value.Bool(re.MatchString(s))
	})
	r.register("regex_extract", 2, 3, func(a []value.Value) value.Value {
		s, pat, ok := two(a[0], a[1])
		if !ok {
			return value.NewError(value.KindType, "regex_extract requires (string, string[, int])")
		}
		group := int64(0)
		if len(a) == 3 {
			if a[2].Kind() != value.KindInt {
				return typeErr("regex_extract", a[2])
			}
			group = a[2].Int()
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			return value.NewError(value.KindType, "regex_extract: invalid pattern: %v", err)
		}
		m := re.FindStringSubmatch(s)
		if m == nil || group < 0 || int(group) >= len(m) {
			return value.Null()
		}
		return value.String(m[group])
	})
}

func stringFn(name string, fn func(string) string) Handler {
	return func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindString {
			return typeErr(name, a[0])
		}
		return value.String(fn(a[0].Str()))
	}
}

func two(a, b value.Value) (string, string, bool) {
	if a.Kind() != value.KindString || b.Kind() != value.KindString {
		return "", "", false
	}
	return a.Str(), b.Str(), true
}

func clampIndex(i int64, n int) int64 {
	if i < 0 {
		return 0
	}
	if i > int64(n) {
		return int64(n)
	}
	return i
}
