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
	"fmt"
	"sort"
	"sync"
)

// Factory creates a Remote for the given options
type Factory func(opts Options) (Remote, error)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Factory)
)

// Register makes a driver available by name. It panics if the name is taken
// or the factory is nil, since both are programming errors caught at init.
func Register(name string, factory Factory) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if factory == nil {
		panic("androidtv: Register factory is nil")
	}
	if _, dup := drivers[name]; dup {
		panic("androidtv: Register called twice for driver " + name)
	}
	drivers[name] = factory
}

// Unregister removes a driver. Tests use it to clean up fake drivers.
func Unregister(name string) {
	driversMu.Lock()
	defer driversMu.Unlock()
	delete(drivers, name)
}

// Drivers returns the sorted names of the registered drivers
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates a Remote with the named driver
func Open(driver string, opts Options) (Remote, error) {
	driversMu.RLock()
	factory, ok := drivers[driver]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown driver %q (registered: %v)", driver, Drivers())
	}
	if opts.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	if opts.ClientName == "" {
		opts.ClientName = DefaultClientName
	}

	remote, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s remote: %w", driver, err)
	}
	return remote, nil
}
