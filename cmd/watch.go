// Copyright 2025 The sensord Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live telemetry events from a running sensord",
	Run: func(cmd *cobra.Command, args []string) {
		url := fmt.Sprintf("http://%s/-/watch", watchAddress)
		rsp, err := http.Get(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to connect %s: %v\n", url, err)
			os.Exit(1)
		}
		defer rsp.Body.Close()

		io.Copy(os.Stdout, rsp.Body)
	},
}

var watchAddress string

func init() {
	watchCmd.Flags().StringVar(&watchAddress, "address", "localhost:9091", "sensord admin server address")
	rootCmd.AddCommand(watchCmd)
}
