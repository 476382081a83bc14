package glubview

import (
	"reflect"

	"github.com/pkg/errors"
)

// An Extension provides functions to views. The functions follow the rules of
// html/template: they return one value, or a value and an error.
type Extension interface {
	Functions() map[string]any
}

type registered struct {
	id  reflect.Type
	ext Extension
}

// extensionSet keeps extensions in registration order, one per type.
type extensionSet []registered

func (s extensionSet) add(ext Extension) extensionSet {
	id := reflect.TypeOf(ext)
	for i := range s {
		if s[i].id == id {
			s[i].ext = ext
			return s
		}
	}
	return append(s, registered{id: id, ext: ext})
}

// funcs merges the functions of all extensions. Earlier extensions win.
func (s extensionSet) funcs() map[string]any {
	m := map[string]any{}
	for _, r := range s {
		for name, fn := range r.ext.Functions() {
			if _, ok := m[name]; !ok {
				m[name] = fn
			}
		}
	}
	return m
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// invoke calls fn with args, converting each argument to the parameter type
// when it is not directly assignable.
func invoke(name string, fn any, args []any) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			result, err = nil, errors.Errorf("%s panicked: %v", name, p)
		}
	}()

	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return nil, errors.Wrapf(ErrBadCall, "%s is not a function", name)
	}
	t := v.Type()

	n := t.NumIn()
	if t.IsVariadic() {
		if len(args) < n-1 {
			return nil, errors.Wrapf(ErrBadCall, "%s: want at least %d arguments, got %d", name, n-1, len(args))
		}
	} else if len(args) != n {
		return nil, errors.Wrapf(ErrBadCall, "%s: want %d arguments, got %d", name, n, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var pt reflect.Type
		if t.IsVariadic() && i >= n-1 {
			pt = t.In(n - 1).Elem()
		} else {
			pt = t.In(i)
		}
		av, err := argValue(arg, pt)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: argument %d", name, i)
		}
		in[i] = av
	}

	out := v.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if t.Out(0) == errorType {
			err, _ := out[0].Interface().(error)
			return nil, err
		}
		return out[0].Interface(), nil
	case 2:
		if t.Out(1) != errorType {
			return nil, errors.Wrapf(ErrBadCall, "%s: second result must be an error", name)
		}
		err, _ := out[1].Interface().(error)
		return out[0].Interface(), err
	}
	return nil, errors.Wrapf(ErrBadCall, "%s: too many results", name)
}

func argValue(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, errors.Wrapf(ErrBadCall, "cannot use nil as %s", t)
	}
	v := reflect.ValueOf(arg)
	switch {
	case v.Type().AssignableTo(t):
		return v, nil
	case v.Type().ConvertibleTo(t) && !intToString(v.Kind(), t.Kind()):
		return v.Convert(t), nil
	}
	return reflect.Value{}, errors.Wrapf(ErrBadCall, "cannot use %s as %s", v.Type(), t)
}

// intToString reports a conversion that would yield a rune, not digits.
func intToString(from, to reflect.Kind) bool {
	if to != reflect.String {
		return false
	}
	switch from {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}
