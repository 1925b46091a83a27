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

// Package androidtv defines the contract between atvremote and an Android TV
// remote-control client. Drivers provide the pairing, certificate and transport
// machinery; everything above this package only sees the Remote interface.
package androidtv

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidAuth is returned when the device rejects the client certificate
	// or a pairing code.
	ErrInvalidAuth = errors.New("invalid auth")

	// ErrCannotConnect is returned when the device cannot be reached.
	ErrCannotConnect = errors.New("cannot connect")

	// ErrConnectionClosed is returned when the device drops the connection.
	ErrConnectionClosed = errors.New("connection closed")
)

// DefaultClientName is the name shown on the TV for this controller
const DefaultClientName = "atvremote"

// Remote is a remote-control client bound to one Android TV
type Remote interface {
	// Host returns the address of the device this client talks to
	Host() string

	// GenerateCertificateIfMissing creates the client certificate and key
	// unless they already exist. It reports whether a new pair was written.
	GenerateCertificateIfMissing(ctx context.Context) (bool, error)

	// GetNameAndMac returns the device's friendly name and hardware address
	GetNameAndMac(ctx context.Context) (name string, mac string, err error)

	// StartPairing asks the device to show a pairing code
	StartPairing(ctx context.Context) error

	// FinishPairing submits the code shown on the device
	FinishPairing(ctx context.Context, code string) error

	// Connect opens the remote-control channel
	Connect(ctx context.Context) error

	// KeepReconnecting enables transparent reconnection after transient
	// network loss for the rest of the client's life
	KeepReconnecting()

	// SendKey sends a single key press
	SendKey(key string) error

	// Disconnect closes the remote-control channel and stops reconnecting
	Disconnect()

	// State returns a snapshot of what the device last reported
	State() State

	OnIsOnChanged(fn func(isOn bool))
	OnCurrentAppChanged(fn func(app string))
	OnVolumeInfoChanged(fn func(info VolumeInfo))
	OnAvailabilityChanged(fn func(available bool))
}

// VolumeInfo describes the audio state reported by the device
type VolumeInfo struct {
	Level int  `json:"level"`
	Max   int  `json:"max"`
	Muted bool `json:"muted"`
}

func (v VolumeInfo) String() string {
	return fmt.Sprintf("level=%d max=%d muted=%t", v.Level, v.Max, v.Muted)
}

// DeviceInfo identifies the device model and software
type DeviceInfo struct {
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	SWVersion    string `json:"sw_version"`
}

func (d DeviceInfo) String() string {
	return fmt.Sprintf("%s %s (%s)", d.Manufacturer, d.Model, d.SWVersion)
}

// State is a point-in-time view of the device
type State struct {
	IsOn       bool       `json:"is_on"`
	CurrentApp string     `json:"current_app"`
	Volume     VolumeInfo `json:"volume_info"`
	Device     DeviceInfo `json:"device_info"`
	Available  bool       `json:"is_available"`
}

// Options configure a Remote created through a driver
type Options struct {
	Host       string
	CertFile   string
	KeyFile    string
	ClientName string
}
