// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package animation

import (
	"fmt"
	"math"
)

type EasingFn func(t float64) float64

var easings = map[string]EasingFn{
	"linear": func(t float64) float64 { return t },
	"ease-in": func(t float64) float64 {
		return t * t * t
	},
	"ease-out": func(t float64) float64 {
		return 1 - math.Pow(1-t, 3)
	},
	"ease-in-out": func(t float64) float64 {
		if t < 0.5 {
			return 4 * t * t * t
		}
		return 1 - math.Pow(-2*t+2, 3)/2
	},
}

// Easing resolves a named easing curve. Both kebab and camel spellings are accepted.
func Easing(name string) (EasingFn, error) {
	switch name {
	case "":
		return easings["linear"], nil
	case "easeIn":
		name = "ease-in"
	case "easeOut":
		name = "ease-out"
	case "easeInOut":
		name = "ease-in-out"
	}
	fn := easings[name]
	if fn == nil {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return fn, nil
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func lerp(from, to, t float64) float64 {
	return from + (to-from)*t
}
