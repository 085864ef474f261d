package pubsub

import (
	"fmt"
	"reflect"
)

// Callback is invoked with the arguments of every matching publish.
//
// Callbacks are compared with == when unsubscribing, so the dynamic type must
// be comparable. Pointer types give reference identity.
type Callback interface {
	Invoke(args ...any) error
}

// Func adapts a plain function to Callback. Each *Func is a distinct
// callback even when two of them wrap the same function.
type Func struct {
	fn func(args ...any) error
}

// NewFunc wraps fn as a Callback that never fails.
func NewFunc(fn func(args ...any)) *Func {
	if fn == nil {
		return &Func{}
	}
	return &Func{fn: func(args ...any) error {
		fn(args...)
		return nil
	}}
}

// NewFuncE wraps fn as a Callback whose error is reported by Publish.
func NewFuncE(fn func(args ...any) error) *Func {
	return &Func{fn: fn}
}

// Invoke calls the wrapped function.
func (f *Func) Invoke(args ...any) error {
	return f.fn(args...)
}

// validChannel checks the channel argument of op.
func validChannel(op, channel string) error {
	if channel == "" {
		return &ArgumentError{Op: op, Arg: "channel", Reason: "must be a non-empty string"}
	}
	return nil
}

// validCallback checks that cb can be invoked and compared.
func validCallback(op string, cb Callback) error {
	if cb == nil {
		return &ArgumentError{Op: op, Arg: "callback", Reason: "is nil"}
	}

	v := reflect.ValueOf(cb)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.Slice, reflect.UnsafePointer:
		if v.IsNil() {
			return &ArgumentError{Op: op, Arg: "callback", Reason: fmt.Sprintf("is a nil %T", cb)}
		}
	}
	if !v.Type().Comparable() {
		return &ArgumentError{Op: op, Arg: "callback", Reason: fmt.Sprintf("type %T is not comparable", cb)}
	}
	if f, ok := cb.(*Func); ok && f.fn == nil {
		return &ArgumentError{Op: op, Arg: "callback", Reason: "wraps a nil function"}
	}
	return nil
}
