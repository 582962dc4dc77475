// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"reflect"
)

// ValEqual is a shallow equal with special handling for numeric types.
// numbers are up converted to float64, slices/maps/funcs compare by pointer.
func ValEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	typeA := reflect.TypeOf(a)
	typeB := reflect.TypeOf(b)
	if typeA == typeB && typeA.Comparable() {
		return a == b
	}
	if IsNumericType(a) && IsNumericType(b) {
		return CompareAsFloat64(a, b)
	}
	if typeA != typeB {
		return false
	}
	valA := reflect.ValueOf(a)
	valB := reflect.ValueOf(b)
	switch valA.Kind() {
	case reflect.Slice, reflect.Map, reflect.Func, reflect.Pointer:
		return valA.Pointer() == valB.Pointer()
	}
	return false
}

// MapShallowEqual compares two prop snapshots key by key using ValEqual.
func MapShallowEqual(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok {
			return false
		}
		if !ValEqual(va, vb) {
			return false
		}
	}
	return true
}

func IsNumericType(val any) bool {
	switch val.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

func CompareAsFloat64(a, b any) bool {
	valA, okA := ToFloat64(a)
	valB, okB := ToFloat64(b)
	return okA && okB && valA == valB
}

func ToFloat64(val any) (float64, bool) {
	if val == nil {
		return 0, false
	}
	switch v := val.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func ToInt(val any) (int, bool) {
	f, ok := ToFloat64(val)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// ToFloatMap converts a snapshot of numeric values, dropping anything non-numeric.
func ToFloatMap(in map[string]any) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	rtn := make(map[string]float64, len(in))
	for k, v := range in {
		if f, ok := ToFloat64(v); ok {
			rtn[k] = f
		}
	}
	return rtn
}
