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

// Package script models command scripts and runs them against a remote.
package script

import (
	"fmt"
	"math"
	"time"
)

// Action names as they appear in command files
const (
	ActionSendKey = "SendKey"
	ActionPause   = "Pause"
	ActionRepeat  = "Repeat"
)

// Command is one node of a command script: SendKey, Pause or Repeat
type Command interface {
	Action() string
	isCommand()
}

// SendKey presses a single key
type SendKey struct {
	Key string
}

// Pause waits before the next command
type Pause struct {
	Duration time.Duration
}

// Repeat runs Commands Count times in a row
type Repeat struct {
	Count    int
	Commands []Command
}

func (SendKey) Action() string { return ActionSendKey }
func (Pause) Action() string   { return ActionPause }
func (Repeat) Action() string  { return ActionRepeat }

func (SendKey) isCommand() {}
func (Pause) isCommand()   {}
func (Repeat) isCommand()  {}

func (c SendKey) String() string {
	return fmt.Sprintf("SendKey(%s)", c.Key)
}

func (c Pause) String() string {
	return fmt.Sprintf("Pause(%s)", c.Duration)
}

func (c Repeat) String() string {
	return fmt.Sprintf("Repeat(%d x %d commands)", c.Count, len(c.Commands))
}

// Summary describes what running a script would do
type Summary struct {
	Commands   int
	Keys       int64
	Pauses     int64
	PauseTotal time.Duration
	MaxDepth   int
}

// Summarize walks the script without running it. Repeat bodies are
// multiplied out, so Keys is the number of key presses a run would send.
// Totals saturate at math.MaxInt64 instead of wrapping.
func Summarize(commands []Command) Summary {
	var s Summary
	summarize(commands, 1, 1, &s)
	return s
}

func summarize(commands []Command, factor int64, depth int, s *Summary) {
	if len(commands) > 0 && depth > s.MaxDepth {
		s.MaxDepth = depth
	}
	for _, cmd := range commands {
		s.Commands++
		switch c := cmd.(type) {
		case SendKey:
			s.Keys = saturatingAdd(s.Keys, factor)
		case Pause:
			s.Pauses = saturatingAdd(s.Pauses, factor)
			total := saturatingAdd(int64(s.PauseTotal), saturatingMul(factor, int64(c.Duration)))
			s.PauseTotal = time.Duration(total)
		case Repeat:
			summarize(c.Commands, saturatingMul(factor, int64(c.Count)), depth+1, s)
		}
	}
}

// saturatingAdd and saturatingMul expect non-negative operands
func saturatingAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func saturatingMul(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}
