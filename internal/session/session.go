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

// Package session establishes authenticated remote-control sessions with an
// Android TV, pairing with the device when it does not trust this client.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"atvremote/internal/androidtv"
	"atvremote/internal/logger"
	"atvremote/internal/prompt"
)

// Session is a connected, certificate-equipped remote. Only Establish
// creates one, so holding a Session means the device accepted this client.
type Session struct {
	remote androidtv.Remote
	logger zerolog.Logger
}

// Host returns the device address
func (s *Session) Host() string {
	return s.remote.Host()
}

// SendKey sends a single key press to the device
func (s *Session) SendKey(key string) error {
	return s.remote.SendKey(key)
}

// State returns the device state last reported over the session
func (s *Session) State() androidtv.State {
	return s.remote.State()
}

// Close disconnects from the device
func (s *Session) Close() {
	s.remote.Disconnect()
	s.logger.Info().Msg("Disconnected")
}

// Orchestrator brings a remote from "maybe never paired" to a live Session
type Orchestrator struct {
	remote   androidtv.Remote
	prompter prompt.Prompter
	logger   zerolog.Logger
}

// Option customises an Orchestrator
type Option func(*Orchestrator)

// WithLogger sets the logger used for connection and pairing events
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// NewOrchestrator creates an orchestrator for remote, asking prompter
// whenever pairing needs the operator
func NewOrchestrator(remote androidtv.Remote, prompter prompt.Prompter, options ...Option) *Orchestrator {
	o := &Orchestrator{
		remote:   remote,
		prompter: prompter,
		logger:   logger.Component("session"),
	}
	for _, option := range options {
		option(o)
	}
	o.logger = o.logger.With().Str("host", remote.Host()).Logger()
	return o
}

// Establish returns a connected Session. A freshly generated certificate is
// always paired before use, and a certificate the device rejects is paired
// again before the next connection attempt. It gives up when the device
// cannot be reached or the operator declines pairing.
func (o *Orchestrator) Establish(ctx context.Context) (*Session, error) {
	generated, err := o.remote.GenerateCertificateIfMissing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare client certificate: %w", err)
	}
	if generated {
		o.logger.Info().Msg("Generated new certificate")
		if err := o.Pair(ctx); err != nil {
			return nil, err
		}
	}

	for {
		err := o.remote.Connect(ctx)
		if err == nil {
			break
		}

		switch {
		case errors.Is(err, androidtv.ErrInvalidAuth):
			o.logger.Error().Err(err).Msg("Need to pair again")
			if err := o.Pair(ctx); err != nil {
				return nil, err
			}
		case errors.Is(err, androidtv.ErrCannotConnect), errors.Is(err, androidtv.ErrConnectionClosed):
			o.logger.Error().Err(err).Msg("Cannot connect, exiting")
			return nil, fmt.Errorf("failed to connect to %s: %w", o.remote.Host(), err)
		default:
			return nil, fmt.Errorf("failed to connect to %s: %w", o.remote.Host(), err)
		}
	}

	o.remote.KeepReconnecting()

	state := o.remote.State()
	o.logger.Info().
		Stringer("device_info", state.Device).
		Bool("is_on", state.IsOn).
		Str("current_app", state.CurrentApp).
		Stringer("volume_info", state.Volume).
		Msg("Connected")

	o.watch()

	return &Session{remote: o.remote, logger: o.logger}, nil
}

// watch registers observers that log device state changes. They run on the
// driver's goroutines and only write to the logger.
func (o *Orchestrator) watch() {
	log := o.logger
	o.remote.OnIsOnChanged(func(isOn bool) {
		log.Info().Bool("is_on", isOn).Msg("Notified that is_on changed")
	})
	o.remote.OnCurrentAppChanged(func(app string) {
		log.Info().Str("current_app", app).Msg("Notified that current_app changed")
	})
	o.remote.OnVolumeInfoChanged(func(info androidtv.VolumeInfo) {
		log.Info().Stringer("volume_info", info).Msg("Notified that volume_info changed")
	})
	o.remote.OnAvailabilityChanged(func(available bool) {
		log.Info().Bool("is_available", available).Msg("Notified that is_available changed")
	})
}
