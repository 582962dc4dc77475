// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"bytes"
	"os"
)

// WriteFileIfDifferent returns false when the file already holds contents.
func WriteFileIfDifferent(fileName string, contents []byte) (bool, error) {
	oldContents, err := os.ReadFile(fileName)
	if err == nil && bytes.Equal(oldContents, contents) {
		return false, nil
	}
	err = os.WriteFile(fileName, contents, 0644)
	if err != nil {
		return false, err
	}
	return true, nil
}
