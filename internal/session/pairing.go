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

package session

import (
	"context"
	"errors"
	"fmt"

	"atvremote/internal/androidtv"
)

// ErrOperatorDeclined is returned when the operator refuses to pair
var ErrOperatorDeclined = errors.New("operator declined pairing")

type pairingState int

const (
	confirmConsent pairingState = iota
	awaitCode
	paired
)

func (s pairingState) String() string {
	switch s {
	case confirmConsent:
		return "confirm_consent"
	case awaitCode:
		return "await_code"
	case paired:
		return "paired"
	default:
		return "unknown"
	}
}

// Pair runs the interactive pairing exchange. A rejected code is asked for
// again on the same channel. A closed channel starts over from the consent
// question, since the device has to show a new code.
func (o *Orchestrator) Pair(ctx context.Context) error {
	state := confirmConsent
	for state != paired {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.logger.Debug().Stringer("state", state).Msg("Pairing")

		switch state {
		case confirmConsent:
			name, mac, err := o.remote.GetNameAndMac(ctx)
			if err != nil {
				return fmt.Errorf("failed to get device name and MAC: %w", err)
			}

			question := fmt.Sprintf("Do you want to pair with %s %s %s (this will turn on the Android TV)?",
				o.remote.Host(), name, mac)
			ok, err := o.prompter.Confirm(question)
			if err != nil {
				return fmt.Errorf("failed to confirm pairing: %w", err)
			}
			if !ok {
				return ErrOperatorDeclined
			}

			if err := o.remote.StartPairing(ctx); err != nil {
				return fmt.Errorf("failed to start pairing: %w", err)
			}
			state = awaitCode

		case awaitCode:
			code, err := o.prompter.Ask("Enter pairing code")
			if err != nil {
				return fmt.Errorf("failed to read pairing code: %w", err)
			}

			err = o.remote.FinishPairing(ctx, code)
			switch {
			case err == nil:
				state = paired
			case errors.Is(err, androidtv.ErrInvalidAuth):
				o.logger.Error().Err(err).Msg("Invalid pairing code")
			case errors.Is(err, androidtv.ErrConnectionClosed):
				o.logger.Error().Err(err).Msg("Initialize pair again")
				state = confirmConsent
			default:
				return fmt.Errorf("failed to finish pairing: %w", err)
			}
		}
	}

	o.logger.Info().Msg("Paired")
	return nil
}
