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
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"atvremote/internal/androidtv"
	"atvremote/internal/prompt"
)

// fakeRemote records every call made by the orchestrator
type fakeRemote struct {
	androidtv.Observers

	mu           sync.Mutex
	calls        []string
	generated    bool
	generateErr  error
	identityErr  error
	startErr     error
	connectErrs  []error
	finishErrs   []error
	sent         []string
	state        androidtv.State
	disconnected bool
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeRemote) Host() string { return "192.0.2.10" }

func (f *fakeRemote) GenerateCertificateIfMissing(ctx context.Context) (bool, error) {
	f.record("generate")
	return f.generated, f.generateErr
}

func (f *fakeRemote) GetNameAndMac(ctx context.Context) (string, string, error) {
	f.record("identity")
	if f.identityErr != nil {
		return "", "", f.identityErr
	}
	return "Living Room TV", "aa:bb:cc:dd:ee:ff", nil
}

func (f *fakeRemote) StartPairing(ctx context.Context) error {
	f.record("start_pairing")
	return f.startErr
}

func (f *fakeRemote) FinishPairing(ctx context.Context, code string) error {
	f.record("finish_pairing:" + code)
	if len(f.finishErrs) == 0 {
		return nil
	}
	err := f.finishErrs[0]
	f.finishErrs = f.finishErrs[1:]
	return err
}

func (f *fakeRemote) Connect(ctx context.Context) error {
	f.record("connect")
	if len(f.connectErrs) == 0 {
		return nil
	}
	err := f.connectErrs[0]
	f.connectErrs = f.connectErrs[1:]
	return err
}

func (f *fakeRemote) KeepReconnecting() { f.record("keep_reconnecting") }

func (f *fakeRemote) SendKey(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, key)
	return nil
}

func (f *fakeRemote) Disconnect() {
	f.record("disconnect")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
}

func (f *fakeRemote) State() androidtv.State { return f.state }

// fakePrompter answers from canned lists and records the questions asked
type fakePrompter struct {
	confirms  []bool
	codes     []string
	confirmed []string
	asked     []string
}

func (p *fakePrompter) Confirm(question string) (bool, error) {
	p.confirmed = append(p.confirmed, question)
	if len(p.confirms) == 0 {
		return false, prompt.ErrNoInput
	}
	answer := p.confirms[0]
	p.confirms = p.confirms[1:]
	return answer, nil
}

func (p *fakePrompter) Ask(question string) (string, error) {
	p.asked = append(p.asked, question)
	if len(p.codes) == 0 {
		return "", prompt.ErrNoInput
	}
	code := p.codes[0]
	p.codes = p.codes[1:]
	return code, nil
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of observers
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger(buf *syncBuffer) zerolog.Logger {
	return zerolog.New(buf)
}

func pairingCalls(code string) []string {
	return []string{"identity", "start_pairing", fmt.Sprintf("finish_pairing:%s", code)}
}
