// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package animation

import (
	"fmt"

	"github.com/wavetermdev/nativetree/pkg/util"
)

const (
	TransitionTimed  = "timed"
	TransitionSpring = "spring"
)

// Transition configures how a snapshot is reached. Durations are milliseconds.
type Transition struct {
	Type      string  `json:"type,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
	Delay     float64 `json:"delay,omitempty"`
	Easing    string  `json:"easing,omitempty"`
	Stiffness float64 `json:"stiffness,omitempty"`
	Damping   float64 `json:"damping,omitempty"`
	Mass      float64 `json:"mass,omitempty"`
}

func DefaultTransition() Transition {
	return Transition{
		Type:      TransitionTimed,
		Duration:  300,
		Easing:    "ease-out",
		Stiffness: 100,
		Damping:   10,
		Mass:      1,
	}
}

// ParseTransition decodes a transition prop (a map or a *Transition) over defaults.
func ParseTransition(raw any, defaults Transition) (Transition, error) {
	rtn := defaults
	switch v := raw.(type) {
	case nil:
	case Transition:
		rtn = mergeTransition(defaults, v)
	case *Transition:
		if v != nil {
			rtn = mergeTransition(defaults, *v)
		}
	default:
		if err := util.DoMapStructure(&rtn, raw); err != nil {
			return defaults, fmt.Errorf("invalid transition: %w", err)
		}
	}
	if rtn.Type == "" {
		rtn.Type = TransitionTimed
	}
	if rtn.Type != TransitionTimed && rtn.Type != TransitionSpring {
		return defaults, fmt.Errorf("invalid transition type %q", rtn.Type)
	}
	if _, err := Easing(rtn.Easing); err != nil {
		return defaults, err
	}
	if rtn.Type == TransitionSpring && (rtn.Mass <= 0 || rtn.Stiffness <= 0) {
		return defaults, fmt.Errorf("spring transition needs positive mass and stiffness")
	}
	return rtn, nil
}

func mergeTransition(base Transition, over Transition) Transition {
	if over.Type != "" {
		base.Type = over.Type
	}
	if over.Duration > 0 {
		base.Duration = over.Duration
	}
	if over.Delay > 0 {
		base.Delay = over.Delay
	}
	if over.Easing != "" {
		base.Easing = over.Easing
	}
	if over.Stiffness > 0 {
		base.Stiffness = over.Stiffness
	}
	if over.Damping > 0 {
		base.Damping = over.Damping
	}
	if over.Mass > 0 {
		base.Mass = over.Mass
	}
	return base
}
