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

package androidtv

import (
	"sync"
)

// Observers holds state-change callbacks. Drivers embed it to satisfy the
// On* methods of Remote and call the Notify* methods from their own
// goroutines. Callbacks run outside the lock, so a callback may register
// another callback without deadlocking.
type Observers struct {
	mu           sync.RWMutex
	isOn         []func(bool)
	currentApp   []func(string)
	volumeInfo   []func(VolumeInfo)
	availability []func(bool)
}

func (o *Observers) OnIsOnChanged(fn func(isOn bool)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.isOn = append(o.isOn, fn)
}

func (o *Observers) OnCurrentAppChanged(fn func(app string)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.currentApp = append(o.currentApp, fn)
}

func (o *Observers) OnVolumeInfoChanged(fn func(info VolumeInfo)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.volumeInfo = append(o.volumeInfo, fn)
}

func (o *Observers) OnAvailabilityChanged(fn func(available bool)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.availability = append(o.availability, fn)
}

func (o *Observers) NotifyIsOn(isOn bool) {
	o.mu.RLock()
	fns := append([]func(bool){}, o.isOn...)
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(isOn)
	}
}

func (o *Observers) NotifyCurrentApp(app string) {
	o.mu.RLock()
	fns := append([]func(string){}, o.currentApp...)
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(app)
	}
}

func (o *Observers) NotifyVolumeInfo(info VolumeInfo) {
	o.mu.RLock()
	fns := append([]func(VolumeInfo){}, o.volumeInfo...)
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(info)
	}
}

func (o *Observers) NotifyAvailability(available bool) {
	o.mu.RLock()
	fns := append([]func(bool){}, o.availability...)
	o.mu.RUnlock()

	for _, fn := range fns {
		fn(available)
	}
}
