// Package reflection names types and functions for logs and error messages.
package reflection

import (
	"reflect"
	"runtime"
	"strings"
)

var funcForPCFn = runtime.FuncForPC

// TypeName returns the short name of t, looking through pointers. Generic
// instantiations keep their type arguments.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return shortenTypeArgs(t.Name())
}

// QualifiedTypeName returns the package path and name of t.
func QualifiedTypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return TypeName(t)
	}
	return t.PkgPath() + "." + TypeName(t)
}

// FuncName returns the bare name of a function or method expression,
// e.g. "Get" for (*Simple).Get.
func FuncName(fn any) string {
	if fn == nil {
		return ""
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := funcForPCFn(v.Pointer())
	if f == nil {
		return ""
	}
	return extractFuncName(f.Name())
}

func extractFuncName(name string) string {
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}

// shortenTypeArgs trims package paths from generic type arguments:
// "Box[github.com/x/y.Item]" becomes "Box[y.Item]".
func shortenTypeArgs(name string) string {
	open := strings.IndexByte(name, '[')
	if open < 0 || !strings.HasSuffix(name, "]") {
		return name
	}

	args := strings.Split(name[open+1:len(name)-1], ",")
	for i, arg := range args {
		if slash := strings.LastIndex(arg, "/"); slash >= 0 {
			args[i] = arg[slash+1:]
		}
	}
	return name[:open+1] + strings.Join(args, ",") + "]"
}
