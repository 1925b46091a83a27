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
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// ParseError reports a malformed command and where it sits in the script
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// maxPauseMillis is the longest pause a time.Duration can hold
const maxPauseMillis = float64(math.MaxInt64 / int64(time.Millisecond))

type commandHeader struct {
	Action string `mapstructure:"action"`
}

type sendKeyArgs struct {
	KeyName string `mapstructure:"keyname"`
}

type pauseArgs struct {
	Time *float64 `mapstructure:"time"`
}

type repeatArgs struct {
	Count *float64 `mapstructure:"count"`
}

type repeatBody struct {
	Commands []any `mapstructure:"commands"`
}

// LoadFile reads a command script. Files ending in .yml or .yaml are parsed
// as YAML, everything else as JSON.
func LoadFile(path string) ([]Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read commands file: %w", err)
	}

	var raw any
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yml" || ext == ".yaml" {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML commands file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON commands file: %w", err)
		}
	}

	return Decode(raw)
}

// Parse decodes a JSON command script
func Parse(data []byte) ([]Command, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse commands: %w", err)
	}
	return Decode(raw)
}

// Decode builds commands from an already unmarshalled JSON or YAML value.
// The top level must be a list of action objects.
func Decode(raw any) ([]Command, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, &ParseError{Path: "commands", Err: fmt.Errorf("expected a list of commands, got %s", describe(raw))}
	}
	return decodeList(list, "commands")
}

func decodeList(list []any, path string) ([]Command, error) {
	commands := make([]Command, 0, len(list))
	for i, item := range list {
		cmd, err := decodeCommand(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

func decodeCommand(item any, path string) (Command, error) {
	fields, ok := item.(map[string]any)
	if !ok {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("expected an object, got %s", describe(item))}
	}

	var header commandHeader
	if err := decodeFields(fields, &header); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	switch header.Action {
	case ActionSendKey:
		var args sendKeyArgs
		if err := decodeFields(fields, &args); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		if strings.TrimSpace(args.KeyName) == "" {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("keyname is required")}
		}
		return SendKey{Key: args.KeyName}, nil

	case ActionPause:
		var args pauseArgs
		if err := decodeFields(fields, &args); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		if args.Time == nil {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("time is required")}
		}
		if *args.Time < 0 || math.IsNaN(*args.Time) || math.IsInf(*args.Time, 0) {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("time must be a non-negative number of milliseconds, got %v", *args.Time)}
		}
		if *args.Time > maxPauseMillis {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("time must be at most %.0f milliseconds, got %v", maxPauseMillis, *args.Time)}
		}
		return Pause{Duration: time.Duration(*args.Time * float64(time.Millisecond))}, nil

	case ActionRepeat:
		var args repeatArgs
		if err := decodeFields(fields, &args); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		if args.Count == nil {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("count is required")}
		}
		count := *args.Count
		if count < 0 || count != math.Trunc(count) || count > math.MaxInt32 {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("count must be a non-negative integer, got %v", count)}
		}
		// A zero-count body never runs, so it is not decoded either
		if count == 0 {
			return Repeat{Count: 0}, nil
		}
		if _, ok := fields["commands"]; !ok {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("commands is required")}
		}
		var body repeatBody
		if err := decodeFields(fields, &body); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
		nested, err := decodeList(body.Commands, path+".commands")
		if err != nil {
			return nil, err
		}
		return Repeat{Count: int(count), Commands: nested}, nil

	case "":
		return nil, &ParseError{Path: path, Err: fmt.Errorf("action is required")}

	default:
		return nil, &ParseError{Path: path, Err: fmt.Errorf("unknown action %q", header.Action)}
	}
}

func decodeFields(fields map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "mapstructure",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(fields); err != nil {
		return fmt.Errorf("invalid command: %w", err)
	}
	return nil
}

func describe(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
