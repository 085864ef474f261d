package script

import (
	"fmt"
	"reflect"

	lua "github.com/yuin/gopher-lua"
)

// maxConvertDepth bounds how deeply nested a Go value may be. Deeper values
// become nil.
const maxConvertDepth = 64

// toLua converts a Go value to a Lua value. Lua values pass through
// unchanged. A pointer, map or slice seen twice converts to the same table,
// so cyclic values terminate.
func toLua(L *lua.LState, v any) lua.LValue {
	c := &converter{L: L}
	return c.convert(v)
}

// refKey identifies a reference value already converted.
type refKey struct {
	ptr uintptr
	typ reflect.Type
}

// converter holds the state of one toLua call.
type converter struct {
	L     *lua.LState
	seen  map[refKey]lua.LValue
	depth int
}

func (c *converter) convert(v any) lua.LValue {
	if v == nil {
		return lua.LNil
	}
	if c.depth >= maxConvertDepth {
		return lua.LNil
	}
	c.depth++
	defer func() { c.depth-- }()

	switch val := v.(type) {
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int8:
		return lua.LNumber(val)
	case int16:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint8:
		return lua.LNumber(val)
	case uint16:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case error:
		return lua.LString(val.Error())
	default:
		return c.reflectValue(reflect.ValueOf(v))
	}
}

// lookup returns the table already built for rv, if any.
func (c *converter) lookup(rv reflect.Value) (lua.LValue, bool) {
	if c.seen == nil {
		return nil, false
	}
	lv, ok := c.seen[refKey{ptr: rv.Pointer(), typ: rv.Type()}]
	return lv, ok
}

// remember records the value built for rv before its contents are filled.
func (c *converter) remember(rv reflect.Value, lv lua.LValue) {
	if c.seen == nil {
		c.seen = make(map[refKey]lua.LValue)
	}
	c.seen[refKey{ptr: rv.Pointer(), typ: rv.Type()}] = lv
}

// reflectValue converts slices, maps, pointers and structs. Anything else
// becomes its fmt representation.
func (c *converter) reflectValue(rv reflect.Value) lua.LValue {
	if !rv.IsValid() {
		return lua.LNil
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return lua.LNil
		}
		return c.convert(rv.Elem().Interface())

	case reflect.Pointer:
		if rv.IsNil() {
			return lua.LNil
		}
		if lv, ok := c.lookup(rv); ok {
			return lv
		}
		if rv.Elem().Kind() == reflect.Struct {
			t := c.L.NewTable()
			c.remember(rv, t)
			c.fillStruct(t, rv.Elem())
			return t
		}
		c.remember(rv, lua.LNil)
		lv := c.convert(rv.Elem().Interface())
		c.remember(rv, lv)
		return lv

	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return lua.LNil
			}
			if lv, ok := c.lookup(rv); ok && rv.Len() > 0 {
				return lv
			}
		}
		t := c.L.NewTable()
		if rv.Kind() == reflect.Slice && rv.Len() > 0 {
			c.remember(rv, t)
		}
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, c.convert(rv.Index(i).Interface()))
		}
		return t

	case reflect.Map:
		if rv.IsNil() {
			return lua.LNil
		}
		if lv, ok := c.lookup(rv); ok {
			return lv
		}
		t := c.L.NewTable()
		c.remember(rv, t)
		iter := rv.MapRange()
		for iter.Next() {
			key := c.convert(iter.Key().Interface())
			if key == lua.LNil {
				continue
			}
			t.RawSet(key, c.convert(iter.Value().Interface()))
		}
		return t

	case reflect.Struct:
		t := c.L.NewTable()
		c.fillStruct(t, rv)
		return t

	case reflect.String:
		return lua.LString(rv.String())
	case reflect.Bool:
		return lua.LBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return lua.LNumber(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return lua.LNumber(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return lua.LNumber(rv.Float())

	default:
		return lua.LString(fmt.Sprintf("%v", rv.Interface()))
	}
}

// fillStruct copies the exported fields of rv into t.
func (c *converter) fillStruct(t *lua.LTable, rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		if !rt.Field(i).IsExported() {
			continue
		}
		t.RawSetString(rt.Field(i).Name, c.convert(rv.Field(i).Interface()))
	}
}
