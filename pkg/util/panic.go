// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"fmt"
	"log"
	"runtime/debug"
)

// PanicHandler handles panic recovery and logging.
// It can be called directly with recover() without checking for nil first.
//
//	defer func() {
//	    err = util.PanicHandler("operation name", recover())
//	}()
func PanicHandler(debugStr string, recoverVal any) error {
	if recoverVal == nil {
		return nil
	}
	log.Printf("[panic] in %s: %v\n", debugStr, recoverVal)
	debug.PrintStack()
	if err, ok := recoverVal.(error); ok {
		return fmt.Errorf("panic in %s: %w", debugStr, err)
	}
	return fmt.Errorf("panic in %s: %v", debugStr, recoverVal)
}

// SafeCall runs fn and converts a panic into an error.
func SafeCall(debugStr string, fn func()) (rtnErr error) {
	defer func() {
		if panicErr := PanicHandler(debugStr, recover()); panicErr != nil {
			rtnErr = panicErr
		}
	}()
	fn()
	return nil
}
