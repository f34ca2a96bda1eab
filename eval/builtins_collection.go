package eval

import "github.com/feathr-ai/feathr-online/value"

func registerCollection(r *Registry) {
	r.register("size", 1, 1, func(a []value.Value) value.Value {
		switch a[0].Kind() {
		case value.KindList:
			return value.Int(int64(len(a[0].Items())))
		case value.KindMap:
			return value.Int(int64(len(a[0].Keys())))
		case value.KindString:
			return value.Int(int64(len([]rune(a[0].Str()))))
		default:
			return typeErr("size", a[0])
		}
	})

	r.register("get", 2, 3, func(a []value.Value) value.Value {
		var def value.Value = value.Null()
		if len(a) == 3 {
			def = a[2]
		}
		switch a[0].Kind() {
		case value.KindList:
			if a[1].Kind() != value.KindInt {
				return typeErr("get", a[1])
			}
			items := a[0].Items()
			i := a[1].Int()
			if i < 0 || i >= int64(len(items)) {
				return def
			}
			return items[i]
		case value.KindMap:
			if a[1].Kind() != value.KindString {
				return typeErr("get", a[1])
			}
			v, ok := a[0].Field(a[1].Str())
			if !ok {
				return def
			}
			return v
		default:
			return typeErr("get", a[0])
		}
	})

	r.register("keys", 1, 1, func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindMap {
			return typeErr("keys", a[0])
		}
		ks := a[0].Keys()
		out := make([]value.Value, len(ks))
		for i, k := range ks {
			out[i] = value.String(k)
		}
		return value.List(out)
	})

	r.register("values", 1, 1, func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindMap {
			return typeErr("values", a[0])
		}
		ks := a[0].Keys()
		out := make([]value.Value, len(ks))
		for i, k := range ks {
			v, _ := a[0].Field(k)
			out[i] = v
		}
		return value.List(out)
	})

	r.register("array_contains", 2, 2, func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindList {
			return typeErr("array_contains", a[0])
		}
		for _, item := range a[0].Items() {
			if value.Equal(item, a[1]) {
				return value.Bool(true)
			}
		}
		return value.Bool(false)
	})
}
