// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"github.com/mitchellh/mapstructure"
)

// DoMapStructure decodes input into out using "json" tags.
func DoMapStructure(out any, input any) error {
	dconfig := &mapstructure.DecoderConfig{
		Result:  out,
		TagName: "json",
	}
	decoder, err := mapstructure.NewDecoder(dconfig)
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}
