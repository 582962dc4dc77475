// Copyright 2026, Command Line Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/wavetermdev/nativetree/pkg/econfig"
	"github.com/wavetermdev/nativetree/pkg/util"
)

const SettingsSchemaFileName = "schema/settings.json"

var outFileName string

var rootCmd = &cobra.Command{
	Use:          "generateschema",
	Short:        "Write the JSON schema of the engine settings file",
	SilenceUsage: true,
	Args:         cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return generateSettingsSchema(outFileName)
	},
}

func generateSettingsSchema(fileName string) error {
	barr, err := econfig.GenerateSchema()
	if err != nil {
		return err
	}
	written, err := util.WriteFileIfDifferent(fileName, barr)
	if !written {
		fmt.Fprintf(os.Stderr, "no changes to %s\n", fileName)
	}
	if err != nil {
		return fmt.Errorf("failed to write settings schema: %v", err)
	}
	return nil
}

func main() {
	rootCmd.Flags().StringVarP(&outFileName, "out", "o", SettingsSchemaFileName, "schema output file")
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
