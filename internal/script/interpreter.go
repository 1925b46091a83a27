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

package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"atvremote/internal/androidtv"
	"atvremote/internal/logger"
)

// KeySender is the part of a session the interpreter drives
type KeySender interface {
	SendKey(key string) error
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Stats holds execution statistics for one run
type Stats struct {
	KeysSent   int
	KeysFailed int
	Pauses     int
	Iterations int
	StartTime  time.Time
	EndTime    time.Time
}

// Duration returns the total execution time
func (s *Stats) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Interpreter runs command scripts in order
type Interpreter struct {
	logger zerolog.Logger
	sleep  SleepFunc
}

// InterpreterOption customises an Interpreter
type InterpreterOption func(*Interpreter)

// WithSleep replaces the wall-clock pause implementation
func WithSleep(fn SleepFunc) InterpreterOption {
	return func(in *Interpreter) {
		in.sleep = fn
	}
}

// WithLogger sets the logger used for per-command output
func WithLogger(l zerolog.Logger) InterpreterOption {
	return func(in *Interpreter) {
		in.logger = l
	}
}

// NewInterpreter creates an interpreter that pauses on the wall clock
func NewInterpreter(options ...InterpreterOption) *Interpreter {
	in := &Interpreter{
		logger: logger.Component("interpreter"),
		sleep:  Sleep,
	}
	for _, option := range options {
		option(in)
	}
	return in
}

// Execute runs commands against sender. A key press that fails because the
// connection closed is logged and skipped; any other error stops the run.
func (in *Interpreter) Execute(ctx context.Context, commands []Command, sender KeySender) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	err := in.execute(ctx, commands, sender, stats)
	stats.EndTime = time.Now()

	in.logger.Info().
		Int("keys_sent", stats.KeysSent).
		Int("keys_failed", stats.KeysFailed).
		Int("pauses", stats.Pauses).
		Dur("duration", stats.Duration()).
		Msg("Script finished")

	return stats, err
}

func (in *Interpreter) execute(ctx context.Context, commands []Command, sender KeySender, stats *Stats) error {
	for _, cmd := range commands {
		if err := ctx.Err(); err != nil {
			return err
		}

		switch c := cmd.(type) {
		case SendKey:
			in.logger.Info().Str("key", c.Key).Msg("Sending key")
			if err := sender.SendKey(c.Key); err != nil {
				if !errors.Is(err, androidtv.ErrConnectionClosed) {
					return fmt.Errorf("failed to send key %s: %w", c.Key, err)
				}
				stats.KeysFailed++
				in.logger.Error().Err(err).Str("key", c.Key).Msg("Connection error")
				continue
			}
			stats.KeysSent++

		case Pause:
			in.logger.Debug().Dur("duration", c.Duration).Msg("Pausing")
			if err := in.sleep(ctx, c.Duration); err != nil {
				return err
			}
			stats.Pauses++

		case Repeat:
			in.logger.Info().Int("count", c.Count).Msg("Repeat")
			for i := 0; i < c.Count; i++ {
				if err := in.execute(ctx, c.Commands, sender, stats); err != nil {
					return err
				}
				stats.Iterations++
			}

		default:
			return fmt.Errorf("unsupported command %T", cmd)
		}
	}
	return nil
}

// Sleep waits for d on the wall clock, returning early with ctx.Err() when
// the context is cancelled
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
