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

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"interactive-toolkit/pkg/config"
	"interactive-toolkit/pkg/history"
	"interactive-toolkit/pkg/logging"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of launches to list.")
}

var historyCmd = &cobra.Command{
	Use:          "history",
	Short:        "Lists recently launched sessions, newest first.",
	Run:          runHistoryCmd,
	SilenceUsage: true,
}

func runHistoryCmd(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(afero.NewOsFs(), configFile)
	if err != nil {
		logging.Fatal("Failed to load config: %v", err)
	}
	store, err := history.Open(cfg.HistoryPath)
	if err != nil {
		logging.Fatal("Failed to open launch history: %v", err)
	}
	defer store.Close()

	records, err := store.Recent(historyLimit)
	if err != nil {
		logging.Fatal("Failed to read launch history: %v", err)
	}
	if len(records) == 0 {
		logging.Info("No launches recorded yet.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "CREATED\tJOB\tMODE\tIMAGE\tOUTCOME")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"), r.JobName, r.Mode, r.Image, r.Outcome)
	}
	w.Flush()
}
