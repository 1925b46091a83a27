// Copyright 2025 Arion Yau
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"atvremote/internal/androidtv"
	"atvremote/internal/config"
	"atvremote/internal/script"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [commands_file]",
		Short: "Check a commands file without connecting to a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commands, err := script.LoadFile(args[0])
			if err != nil {
				return &config.ConfigurationError{Err: err}
			}

			summary := script.Summarize(commands)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s is valid\n", args[0])
			fmt.Fprintf(out, "  commands:    %d\n", summary.Commands)
			fmt.Fprintf(out, "  key presses: %d\n", summary.Keys)
			fmt.Fprintf(out, "  pauses:      %d (%s)\n", summary.Pauses, summary.PauseTotal)
			fmt.Fprintf(out, "  max depth:   %d\n", summary.MaxDepth)
			return nil
		},
	}
}

func newDriversCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drivers",
		Short: "List the available remote-control drivers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range androidtv.Drivers() {
				marker := " "
				if name == config.DefaultDriver {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, name)
			}
			return nil
		},
	}
}
