package fiber

import (
	"reflect"

	"github.com/mitchellh/mapstructure"

	"github.com/vango-dev/fibre/pkg/vdom"
)

// DecodeProps copies props into the struct pointed to by out. Fields match
// props by their `prop` tag, or by name case-insensitively. Numbers and
// strings convert weakly, so a prop written as "3" fills an int field.
//
//	var p struct {
//		Title string `prop:"title"`
//		Count int    `prop:"count"`
//	}
//	err := fiber.DecodeProps(inst.Props(), &p)
func DecodeProps(props vdom.Props, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "prop",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(props))
}

// propsEqual compares props shallowly. Maps, slices and pointers compare by
// identity. Functions never compare equal: two closures of the same literal
// share code but not captures.
func propsEqual(a, b vdom.Props) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !valueEqual(va, vb) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) (eq bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Type() != rb.Type() {
		return false
	}
	switch ra.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		if ra.Kind() == reflect.Slice && ra.Len() != rb.Len() {
			return false
		}
		return ra.Pointer() == rb.Pointer()
	}
	if !ra.Type().Comparable() {
		return false
	}
	// Interface fields can still hold incomparable values.
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
