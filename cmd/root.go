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
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"atvremote/internal/config"
	"atvremote/internal/logger"
)

// Exit codes
const (
	exitFailure       = 1
	exitConfiguration = 2
)

var verbose bool

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "atvremote",
		Short: "Send scripted remote-control commands to an Android TV",
		Long: `atvremote pairs with an Android TV if needed, connects to it and replays
a script of key presses, pauses and repeat blocks, then disconnects.

The script is a JSON array of actions:
  {"action": "SendKey", "keyname": "POWER"}
  {"action": "Pause", "time": 500}
  {"action": "Repeat", "count": 2, "commands": [...]}`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(logger.LOG_DEBUG)
			} else {
				logger.SetLevel(logger.LOG_INFO)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "Path to the configuration file.")
	flags.StringVar(&opts.flags.CommandsFile, "commands_file", "", "Path to the commands file.")
	flags.StringVar(&opts.flags.IP, "ip", "", "IP address to connect to.")
	flags.StringVar(&opts.flags.Cert, "cert", "", "Path to the certificate file.")
	flags.StringVar(&opts.flags.Key, "key", "", "Path to the private key file (default: next to the certificate)")
	flags.StringVar(&opts.flags.ClientName, "client_name", "", "Name shown on the TV for this remote")
	flags.StringVar(&opts.flags.Driver, "driver", "", "Remote-control driver (see 'atvremote drivers')")

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newDriversCmd())

	return rootCmd
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		return exitWithError(err)
	}
	return 0
}

func exitWithError(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitCode(err)
}

func exitCode(err error) int {
	if config.IsConfigurationError(err) {
		return exitConfiguration
	}
	return exitFailure
}
