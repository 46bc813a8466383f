// Package ident implements the identity comparison used to decide whether a
// write changes anything. Maps, slices, pointers and channels compare by
// reference; other comparable values compare with ==. Funcs are never the
// same: distinct closures of one literal share a code pointer.
package ident

import "reflect"

// Same reports whether a and b are the same value for change detection.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		// same backing array and same window
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	if !va.Comparable() {
		return false
	}
	return a == b
}
