// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

// Package econfig holds engine settings: a JSON file, overridden by the
// environment (and an optional .env file), with hot reload.
package econfig

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/wavetermdev/nativetree/pkg/util"
)

const EnvPrefix = "NATIVETREE_"

type Settings struct {
	BatchCalls   bool `json:"batchcalls"`
	LogMutations bool `json:"logmutations"`
	ThreadCheck  bool `json:"threadcheck"`

	AnimDuration        float64 `json:"animation:duration" jsonschema:"minimum=0"`
	AnimEasing          string  `json:"animation:easing" jsonschema:"enum=linear,enum=ease-in,enum=ease-out,enum=ease-in-out"`
	AnimSpringStiffness float64 `json:"animation:spring:stiffness" jsonschema:"exclusiveMinimum=0"`
	AnimSpringDamping   float64 `json:"animation:spring:damping" jsonschema:"minimum=0"`
	AnimSpringMass      float64 `json:"animation:spring:mass" jsonschema:"exclusiveMinimum=0"`
}

func DefaultSettings() Settings {
	return Settings{
		BatchCalls:          true,
		ThreadCheck:         true,
		AnimDuration:        300,
		AnimEasing:          "ease-out",
		AnimSpringStiffness: 100,
		AnimSpringDamping:   10,
		AnimSpringMass:      1,
	}
}

// ReadSettingsFile decodes path over the defaults. A missing file is not an error.
func ReadSettingsFile(path string) (Settings, error) {
	rtn := DefaultSettings()
	barr, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return rtn, nil
	}
	if err != nil {
		return rtn, fmt.Errorf("reading settings %s: %w", path, err)
	}
	var m map[string]any
	if err := json.Unmarshal(barr, &m); err != nil {
		return rtn, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	if err := util.DoMapStructure(&rtn, m); err != nil {
		return DefaultSettings(), fmt.Errorf("decoding settings %s: %w", path, err)
	}
	return rtn, nil
}

// EnvName maps a settings key to its override variable,
// "animation:spring:mass" -> "NATIVETREE_ANIMATION_SPRING_MASS".
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ":", "_"))
}

func settingsKeys() []string {
	var keys []string
	rtype := reflect.TypeOf(Settings{})
	for i := 0; i < rtype.NumField(); i++ {
		tag := rtype.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			keys = append(keys, name)
		}
	}
	return keys
}

// ApplyEnv overrides s from NATIVETREE_* variables. envFile, when set, is loaded
// first with godotenv (variables already in the environment win).
func ApplyEnv(s *Settings, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	overrides := make(map[string]any)
	for _, key := range settingsKeys() {
		if val, ok := os.LookupEnv(EnvName(key)); ok {
			overrides[key] = val
		}
	}
	if len(overrides) == 0 {
		return nil
	}
	dconfig := &mapstructure.DecoderConfig{
		Result:           s,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(dconfig)
	if err != nil {
		return err
	}
	if err := decoder.Decode(overrides); err != nil {
		return fmt.Errorf("decoding %s* overrides: %w", EnvPrefix, err)
	}
	return nil
}

// Load reads the settings file then applies environment overrides.
func Load(path string, envFile string) (Settings, error) {
	s, err := ReadSettingsFile(path)
	if err != nil {
		return s, err
	}
	err = ApplyEnv(&s, envFile)
	return s, err
}

func GenerateSchema() ([]byte, error) {
	schema := jsonschema.Reflect(&Settings{})
	barr, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings schema: %v", err)
	}
	return barr, nil
}
