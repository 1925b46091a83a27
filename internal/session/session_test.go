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

package session_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atvremote/internal/androidtv"
	"atvremote/internal/session"
)

func newOrchestrator(remote *fakeRemote, prompter *fakePrompter, buf *syncBuffer) *session.Orchestrator {
	return session.NewOrchestrator(remote, prompter, session.WithLogger(testLogger(buf)))
}

func concat(parts ...[]string) []string {
	var out []string
	for _, part := range parts {
		out = append(out, part...)
	}
	return out
}

func TestEstablish(t *testing.T) {
	t.Run("existing certificate connects without pairing", func(t *testing.T) {
		remote := &fakeRemote{}
		prompter := &fakePrompter{}

		sess, err := newOrchestrator(remote, prompter, &syncBuffer{}).Establish(context.Background())
		require.NoError(t, err)
		require.NotNil(t, sess)

		assert.Equal(t, []string{"generate", "connect", "keep_reconnecting"}, remote.Calls())
		assert.Empty(t, prompter.confirmed)
		assert.Empty(t, prompter.asked)
	})

	t.Run("new certificate is always paired before connecting", func(t *testing.T) {
		remote := &fakeRemote{generated: true}
		prompter := &fakePrompter{confirms: []bool{true}, codes: []string{"A1B2C3"}}

		_, err := newOrchestrator(remote, prompter, &syncBuffer{}).Establish(context.Background())
		require.NoError(t, err)

		expected := concat(
			[]string{"generate"},
			pairingCalls("A1B2C3"),
			[]string{"connect", "keep_reconnecting"},
		)
		assert.Equal(t, expected, remote.Calls())
	})

	t.Run("invalid auth triggers exactly one re-pairing before the next connect", func(t *testing.T) {
		remote := &fakeRemote{connectErrs: []error{fmt.Errorf("rejected: %w", androidtv.ErrInvalidAuth)}}
		prompter := &fakePrompter{confirms: []bool{true}, codes: []string{"123456"}}

		_, err := newOrchestrator(remote, prompter, &syncBuffer{}).Establish(context.Background())
		require.NoError(t, err)

		expected := concat(
			[]string{"generate", "connect"},
			pairingCalls("123456"),
			[]string{"connect", "keep_reconnecting"},
		)
		assert.Equal(t, expected, remote.Calls())
		assert.Len(t, prompter.confirmed, 1)
	})

	t.Run("keeps pairing while the device rejects the certificate", func(t *testing.T) {
		remote := &fakeRemote{connectErrs: []error{androidtv.ErrInvalidAuth, androidtv.ErrInvalidAuth}}
		prompter := &fakePrompter{confirms: []bool{true, true}, codes: []string{"111111", "222222"}}

		_, err := newOrchestrator(remote, prompter, &syncBuffer{}).Establish(context.Background())
		require.NoError(t, err)

		expected := concat(
			[]string{"generate", "connect"},
			pairingCalls("111111"),
			[]string{"connect"},
			pairingCalls("222222"),
			[]string{"connect", "keep_reconnecting"},
		)
		assert.Equal(t, expected, remote.Calls())
	})

	unreachable := []struct {
		name string
		err  error
	}{
		{"cannot connect", androidtv.ErrCannotConnect},
		{"connection closed", androidtv.ErrConnectionClosed},
	}
	for _, tt := range unreachable {
		t.Run(tt.name+" is fatal", func(t *testing.T) {
			remote := &fakeRemote{connectErrs: []error{tt.err, nil}}
			prompter := &fakePrompter{}
			buf := &syncBuffer{}

			sess, err := newOrchestrator(remote, prompter, buf).Establish(context.Background())
			require.Error(t, err)
			assert.Nil(t, sess)
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "192.0.2.10")

			assert.Equal(t, []string{"generate", "connect"}, remote.Calls())
			assert.Empty(t, prompter.confirmed)
			assert.Contains(t, buf.String(), "Cannot connect, exiting")
		})
	}

	t.Run("declining pairing stops without a session", func(t *testing.T) {
		remote := &fakeRemote{generated: true}
		prompter := &fakePrompter{confirms: []bool{false}}

		sess, err := newOrchestrator(remote, prompter, &syncBuffer{}).Establish(context.Background())
		assert.ErrorIs(t, err, session.ErrOperatorDeclined)
		assert.Nil(t, sess)
		assert.Equal(t, []string{"generate", "identity"}, remote.Calls())
		assert.Empty(t, prompter.asked)
	})

	t.Run("certificate errors are reported", func(t *testing.T) {
		remote := &fakeRemote{generateErr: errors.New("disk full")}

		_, err := newOrchestrator(remote, &fakePrompter{}, &syncBuffer{}).Establish(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to prepare client certificate")
		assert.Equal(t, []string{"generate"}, remote.Calls())
	})

	t.Run("unexpected connect errors are returned", func(t *testing.T) {
		boom := errors.New("tls: bad record MAC")
		remote := &fakeRemote{connectErrs: []error{boom}}

		_, err := newOrchestrator(remote, &fakePrompter{}, &syncBuffer{}).Establish(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.NotContains(t, remote.Calls(), "keep_reconnecting")
	})
}

func TestEstablishLogsState(t *testing.T) {
	remote := &fakeRemote{state: androidtv.State{
		IsOn:       true,
		CurrentApp: "com.netflix.ninja",
		Volume:     androidtv.VolumeInfo{Level: 12, Max: 100},
		Device:     androidtv.DeviceInfo{Manufacturer: "Sony", Model: "BRAVIA 4K", SWVersion: "11"},
	}}
	buf := &syncBuffer{}

	_, err := newOrchestrator(remote, &fakePrompter{}, buf).Establish(context.Background())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"current_app":"com.netflix.ninja"`)
	assert.Contains(t, out, `"is_on":true`)
	assert.Contains(t, out, "Sony BRAVIA 4K (11)")
	assert.Contains(t, out, "level=12 max=100 muted=false")
}

func TestEstablishRegistersObservers(t *testing.T) {
	remote := &fakeRemote{}
	buf := &syncBuffer{}

	_, err := newOrchestrator(remote, &fakePrompter{}, buf).Establish(context.Background())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		remote.NotifyIsOn(false)
		remote.NotifyCurrentApp("com.google.android.youtube.tv")
		remote.NotifyVolumeInfo(androidtv.VolumeInfo{Level: 3, Max: 100, Muted: true})
		remote.NotifyAvailability(false)
	}()
	<-done

	out := buf.String()
	assert.Contains(t, out, "Notified that is_on changed")
	assert.Contains(t, out, "Notified that current_app changed")
	assert.Contains(t, out, "com.google.android.youtube.tv")
	assert.Contains(t, out, "Notified that volume_info changed")
	assert.Contains(t, out, "muted=true")
	assert.Contains(t, out, "Notified that is_available changed")
}

func TestSession(t *testing.T) {
	remote := &fakeRemote{state: androidtv.State{IsOn: true}}

	sess, err := newOrchestrator(remote, &fakePrompter{}, &syncBuffer{}).Establish(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "192.0.2.10", sess.Host())
	assert.True(t, sess.State().IsOn)

	require.NoError(t, sess.SendKey("POWER"))
	require.NoError(t, sess.SendKey("DPAD_UP"))
	assert.Equal(t, []string{"POWER", "DPAD_UP"}, remote.sent)

	sess.Close()
	assert.True(t, remote.disconnected)
}
