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

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"atvremote/internal/androidtv"
	"atvremote/internal/androidtv/simulator"
	"atvremote/internal/config"
	"atvremote/internal/logger"
	"atvremote/internal/prompt"
	"atvremote/internal/script"
	"atvremote/internal/session"
)

type runOptions struct {
	configPath string
	flags      config.Config
}

func (o *runOptions) run(cmd *cobra.Command) error {
	cfg, err := o.resolve(cmd)
	if err != nil {
		return err
	}

	commands, err := script.LoadFile(cfg.CommandsFile)
	if err != nil {
		return &config.ConfigurationError{Err: err}
	}

	return runScript(cmd.Context(), cfg, commands, prompt.NewTerminal(cmd.InOrStdin(), cmd.OutOrStdout()))
}

// resolve merges the config file, when given, with the flags set on the
// command line. Flags win over file values.
func (o *runOptions) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}
	if o.configPath != "" {
		loaded, err := config.LoadFile(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.Override(o.flags, cmd.Flags().Changed)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runScript(ctx context.Context, cfg *config.Config, commands []script.Command, prompter prompt.Prompter) error {
	runLog := logger.New().With().
		Str("run_id", uuid.New().String()).
		Str("host", cfg.IP).
		Logger()

	remote, err := androidtv.Open(cfg.Driver, cfg.RemoteOptions())
	if err != nil {
		return &config.ConfigurationError{Err: err}
	}
	if cfg.Driver == simulator.DriverName {
		runLog.Warn().Msg("Using the simulated device, no keys reach a real TV")
	}

	runLog.Info().
		Str("driver", cfg.Driver).
		Str("cert", cfg.Cert).
		Int("commands", len(commands)).
		Msg("Starting remote session")

	orchestrator := session.NewOrchestrator(remote, prompter,
		session.WithLogger(runLog.With().Str("component", "session").Logger()))

	sess, err := orchestrator.Establish(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	interpreter := script.NewInterpreter(
		script.WithLogger(runLog.With().Str("component", "interpreter").Logger()))

	stats, err := interpreter.Execute(ctx, commands, sess)
	if err != nil {
		return fmt.Errorf("script stopped after %d keys: %w", stats.KeysSent, err)
	}
	return nil
}
