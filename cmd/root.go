// Copyright 2026 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd defines the isession command-line interface.
package cmd

import (
	"interactive-toolkit/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	verboseLogging bool
	configFile     string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseLogging, "verbose", "v", false, "Enable debug logging.")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to the config file (default ~/.isession.yaml).")
	cobra.OnInitialize(func() { logging.SetVerbose(verboseLogging) })
}

var rootCmd = &cobra.Command{
	Use:   "isession",
	Short: "Launches interactive jobs on a shared cluster.",
	Long: `isession submits an interactive job to the cluster scheduler, waits for it
to start, exposes it as a shell, a forwarded port, or a Jupyter notebook,
and deletes the job when the session ends.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logging.Fatal("%v", err)
	}
}
