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

// Package simulator provides an in-process Android TV that implements
// androidtv.Remote. It backs dry runs of command scripts and the tests of the
// packages that drive a Remote.
package simulator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"atvremote/internal/androidtv"
	"atvremote/internal/logger"
)

// DriverName is the name the simulator registers under
const DriverName = "simulator"

const (
	launcherApp     = "com.google.android.tvlauncher"
	defaultMaxLevel = 100
	volumeStep      = 1
	reconnectDelay  = 50 * time.Millisecond
)

func init() {
	androidtv.Register(DriverName, func(opts androidtv.Options) (androidtv.Remote, error) {
		return New(opts), nil
	})
}

type settings struct {
	name          string
	mac           string
	pairingCode   string
	unreachable   bool
	trustExisting bool
	connectErrs   []error
	pairingErrs   []error
}

// Option customises a simulated device
type Option func(*settings)

// WithIdentity sets the name and MAC address the device reports
func WithIdentity(name, mac string) Option {
	return func(s *settings) {
		s.name = name
		s.mac = mac
	}
}

// WithPairingCode fixes the code shown by StartPairing instead of a random one
func WithPairingCode(code string) Option {
	return func(s *settings) {
		s.pairingCode = strings.ToUpper(code)
	}
}

// WithUnreachable makes every network operation fail with ErrCannotConnect
func WithUnreachable() Option {
	return func(s *settings) {
		s.unreachable = true
	}
}

// WithTrustExisting controls whether a certificate that already exists on disk
// is treated as paired. Defaults to true.
func WithTrustExisting(trust bool) Option {
	return func(s *settings) {
		s.trustExisting = trust
	}
}

// WithConnectErrors queues errors returned by successive Connect calls
// before the device behaves normally
func WithConnectErrors(errs ...error) Option {
	return func(s *settings) {
		s.connectErrs = append(s.connectErrs, errs...)
	}
}

// WithPairingErrors queues errors returned by successive FinishPairing calls
func WithPairingErrors(errs ...error) Option {
	return func(s *settings) {
		s.pairingErrs = append(s.pairingErrs, errs...)
	}
}

// Remote is a simulated Android TV
type Remote struct {
	androidtv.Observers

	opts     androidtv.Options
	settings settings
	logger   zerolog.Logger

	mu             sync.Mutex
	trusted        map[string]bool
	pairingStarted bool
	displayedCode  string
	connected      bool
	reconnecting   bool
	state          androidtv.State
	keys           []string
}

// New creates a simulated device for the given options
func New(opts androidtv.Options, options ...Option) *Remote {
	s := settings{
		name:          "Simulated Android TV",
		mac:           "02:00:00:00:00:01",
		trustExisting: true,
	}
	for _, option := range options {
		option(&s)
	}

	return &Remote{
		opts:     opts,
		settings: s,
		logger:   logger.Component("simulator").With().Str("host", opts.Host).Logger(),
		trusted:  make(map[string]bool),
		state: androidtv.State{
			CurrentApp: launcherApp,
			Volume:     androidtv.VolumeInfo{Level: 10, Max: defaultMaxLevel},
			Device: androidtv.DeviceInfo{
				Manufacturer: "atvremote",
				Model:        "Simulator",
				SWVersion:    "1.0",
			},
		},
	}
}

func (r *Remote) Host() string {
	return r.opts.Host
}

func (r *Remote) GenerateCertificateIfMissing(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if credentialsExist(r.opts.CertFile, r.opts.KeyFile) {
		if r.settings.trustExisting {
			if err := r.trust(); err != nil {
				return false, err
			}
		}
		return false, nil
	}

	if err := generateCredentials(r.opts.CertFile, r.opts.KeyFile, r.opts.ClientName); err != nil {
		return false, err
	}

	r.logger.Debug().
		Str("cert", r.opts.CertFile).
		Str("key", r.opts.KeyFile).
		Msg("Generated client certificate")
	return true, nil
}

func (r *Remote) GetNameAndMac(ctx context.Context) (string, string, error) {
	if err := r.reachable(ctx); err != nil {
		return "", "", err
	}
	return r.settings.name, r.settings.mac, nil
}

func (r *Remote) StartPairing(ctx context.Context) error {
	if err := r.reachable(ctx); err != nil {
		return err
	}

	code := r.settings.pairingCode
	if code == "" {
		buf := make([]byte, 3)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate pairing code: %w", err)
		}
		code = strings.ToUpper(hex.EncodeToString(buf))
	}

	r.mu.Lock()
	r.pairingStarted = true
	r.displayedCode = code
	turnedOn := !r.state.IsOn
	r.state.IsOn = true
	r.mu.Unlock()

	r.logger.Info().Str("code", code).Msg("Pairing code displayed on TV")
	if turnedOn {
		r.NotifyIsOn(true)
	}
	return nil
}

func (r *Remote) FinishPairing(ctx context.Context, code string) error {
	if err := r.reachable(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	if len(r.settings.pairingErrs) > 0 {
		err := r.settings.pairingErrs[0]
		r.settings.pairingErrs = r.settings.pairingErrs[1:]
		if errors.Is(err, androidtv.ErrConnectionClosed) {
			r.pairingStarted = false
		}
		r.mu.Unlock()
		return err
	}

	if !r.pairingStarted {
		r.mu.Unlock()
		return fmt.Errorf("pairing was not started: %w", androidtv.ErrConnectionClosed)
	}
	if !strings.EqualFold(strings.TrimSpace(code), r.displayedCode) {
		r.mu.Unlock()
		return fmt.Errorf("pairing code %q rejected: %w", code, androidtv.ErrInvalidAuth)
	}
	r.pairingStarted = false
	r.displayedCode = ""
	r.mu.Unlock()

	return r.trust()
}

func (r *Remote) Connect(ctx context.Context) error {
	if err := r.reachable(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	if len(r.settings.connectErrs) > 0 {
		err := r.settings.connectErrs[0]
		r.settings.connectErrs = r.settings.connectErrs[1:]
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	cert, err := loadCertificate(r.opts.CertFile)
	if err != nil {
		return fmt.Errorf("%v: %w", err, androidtv.ErrInvalidAuth)
	}

	r.mu.Lock()
	if !r.trusted[cert.SerialNumber.String()] {
		r.mu.Unlock()
		return fmt.Errorf("certificate not paired with %s: %w", r.opts.Host, androidtv.ErrInvalidAuth)
	}
	r.connected = true
	r.state.Available = true
	r.mu.Unlock()

	r.NotifyAvailability(true)
	return nil
}

func (r *Remote) KeepReconnecting() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconnecting = true
}

// Reconnecting reports whether KeepReconnecting is in effect
func (r *Remote) Reconnecting() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reconnecting
}

func (r *Remote) SendKey(key string) error {
	name := normalizeKey(key)
	if name == "" {
		return fmt.Errorf("empty key name")
	}

	r.mu.Lock()
	if !r.connected {
		r.mu.Unlock()
		return fmt.Errorf("cannot send %s: %w", name, androidtv.ErrConnectionClosed)
	}
	r.keys = append(r.keys, name)
	notify := r.applyKey(name)
	r.mu.Unlock()

	r.logger.Debug().Str("key", name).Msg("Key received")
	notify()
	return nil
}

func (r *Remote) Disconnect() {
	r.mu.Lock()
	wasConnected := r.connected
	r.connected = false
	r.reconnecting = false
	r.state.Available = false
	r.mu.Unlock()

	if wasConnected {
		r.NotifyAvailability(false)
	}
}

func (r *Remote) State() androidtv.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Keys returns the keys received so far, in order
func (r *Remote) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// DisplayedCode returns the pairing code currently shown on the screen
func (r *Remote) DisplayedCode() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.displayedCode
}

// Drop simulates a transient network loss. With KeepReconnecting in effect
// the device comes back on its own after a short delay.
func (r *Remote) Drop() {
	r.mu.Lock()
	if !r.connected {
		r.mu.Unlock()
		return
	}
	r.connected = false
	r.state.Available = false
	reconnect := r.reconnecting
	r.mu.Unlock()

	r.NotifyAvailability(false)
	if !reconnect {
		return
	}

	go func() {
		time.Sleep(reconnectDelay)

		r.mu.Lock()
		if !r.reconnecting {
			r.mu.Unlock()
			return
		}
		r.connected = true
		r.state.Available = true
		r.mu.Unlock()

		r.logger.Debug().Msg("Reconnected")
		r.NotifyAvailability(true)
	}()
}

// applyKey updates the device state for a key press and returns the
// notification to deliver once the lock is released
func (r *Remote) applyKey(name string) func() {
	switch name {
	case "POWER":
		r.state.IsOn = !r.state.IsOn
		isOn := r.state.IsOn
		return func() { r.NotifyIsOn(isOn) }
	case "WAKEUP":
		if r.state.IsOn {
			break
		}
		r.state.IsOn = true
		return func() { r.NotifyIsOn(true) }
	case "SLEEP":
		if !r.state.IsOn {
			break
		}
		r.state.IsOn = false
		return func() { r.NotifyIsOn(false) }
	case "VOLUME_UP", "VOLUME_DOWN", "VOLUME_MUTE", "MUTE":
		v := &r.state.Volume
		switch name {
		case "VOLUME_UP":
			v.Level = min(v.Level+volumeStep, v.Max)
			v.Muted = false
		case "VOLUME_DOWN":
			v.Level = max(v.Level-volumeStep, 0)
		default:
			v.Muted = !v.Muted
		}
		info := *v
		return func() { r.NotifyVolumeInfo(info) }
	case "HOME":
		if r.state.CurrentApp == launcherApp {
			break
		}
		r.state.CurrentApp = launcherApp
		return func() { r.NotifyCurrentApp(launcherApp) }
	}
	return func() {}
}

func (r *Remote) reachable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.settings.unreachable {
		return fmt.Errorf("%s is unreachable: %w", r.opts.Host, androidtv.ErrCannotConnect)
	}
	return nil
}

func (r *Remote) trust() error {
	cert, err := loadCertificate(r.opts.CertFile)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.trusted[cert.SerialNumber.String()] = true
	r.mu.Unlock()
	return nil
}

// normalizeKey accepts both "KEYCODE_DPAD_UP" and "DPAD_UP" spellings
func normalizeKey(key string) string {
	name := strings.ToUpper(strings.TrimSpace(key))
	return strings.TrimPrefix(name, "KEYCODE_")
}
