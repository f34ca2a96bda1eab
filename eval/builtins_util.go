package eval

import (
	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"github.com/feathr-ai/feathr-online/value"
)

func registerUtil(r *Registry) {
	r.register("coalesce", 1, -1, func(a []value.Value) value.Value {
		for _, v := range a {
			if !v.IsNull() {
				return v
			}
		}
		return value.Null()
	})

	r.register("if_null", 2, 2, func(a []value.Value) value.Value {
		if a[0].IsNull() {
			return a[1]
		}
		return a[0]
	})

	r.register("uuid", 0, 0, func(a []value.Value) value.Value {
		return value.String(uuid.NewString())
	})

	r.register("levenshtein", 2, 2, func(a []value.Value) value.Value {
		if a[0].Kind() != value.KindString || a[1].Kind() != value.KindString {
			return value.NewError(value.KindType, "levenshtein requires two strings")
		}
		return value.Int(int64(levenshtein.ComputeDistance(a[0].Str(), a[1].Str())))
	})
}
