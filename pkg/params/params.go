/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package params implements cursor based enumeration of device parameters.
package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// StagingSize bounds the encoded size of a single candidate parameter.
const StagingSize = 1024

var (
	ErrUnknownParam = errors.New("unknown parameter kind")
	ErrParse        = errors.New("malformed parameter")
	ErrNoSpace      = errors.New("parameter exceeds staging buffer")
)

// Kind identifies a family of parameters.
type Kind uint32

const (
	KindList Kind = iota + 1
	KindEnumProfile
	KindProfile
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "List"
	case KindEnumProfile:
		return "EnumProfile"
	case KindProfile:
		return "Profile"
	default:
		return fmt.Sprintf("Kind(%d)", uint32(k))
	}
}

// ParseKind accepts the names returned by Kind.String, case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindList, KindEnumProfile, KindProfile} {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownParam, s)
}

// Profile ids.
const (
	ProfileUnset int32 = -1
	ProfileOn    int32 = 0
	ProfileOff   int32 = 1
)

// ProfileName returns the display name of a profile id.
func ProfileName(id int32) string {
	switch id {
	case ProfileOn:
		return "On"
	case ProfileOff:
		return "Off"
	default:
		return ""
	}
}

// Param is one enumerated parameter object. For KindList the ID is the
// Kind of a supported parameter. Raw holds the wire encoding once Enum has
// staged the candidate.
type Param struct {
	Kind Kind   `json:"-"`
	ID   int32  `json:"id"`
	Name string `json:"name,omitempty"`
	Raw  []byte `json:"-"`
}

// Filter selects which candidates a caller wants to see.
type Filter interface {
	Accept(p Param) bool
}

// FilterFunc adapts a function to Filter.
type FilterFunc func(p Param) bool

// Accept calls f.
func (f FilterFunc) Accept(p Param) bool {
	return f(p)
}

// Generator produces the raw candidate at index of kind. It returns false
// once the kind is exhausted and ErrUnknownParam for kinds it does not serve.
type Generator func(kind Kind, index uint32) (Param, bool, error)

// Enum returns the first candidate at or after index that passes filter and
// the cursor to pass on the next call. Each candidate is encoded into a fresh
// staging buffer and the filter sees it with Raw set. Rejected candidates
// still advance the cursor. ok is false when the kind is exhausted.
func Enum(gen Generator, kind Kind, index uint32, filter Filter) (Param, uint32, bool, error) {
	var stage [StagingSize]byte

	for {
		p, ok, err := gen(kind, index)
		if err != nil {
			return Param{}, index, false, err
		}

		if !ok {
			return Param{}, index, false, nil
		}

		index++

		p.Raw, err = build(stage[:0], p)
		if err != nil {
			return Param{}, index, false, err
		}

		if filter == nil || filter.Accept(p) {
			p.Raw = bytes.Clone(p.Raw)

			return p, index, true, nil
		}
	}
}

// build encodes p into stage and returns the encoding, which aliases stage
// when it fits.
func build(stage []byte, p Param) ([]byte, error) {
	buf := bytes.NewBuffer(stage)

	if err := json.NewEncoder(buf).Encode(p); err != nil {
		return nil, fmt.Errorf("encode %s param: %w", p.Kind, err)
	}

	if buf.Len() > StagingSize {
		return nil, fmt.Errorf("%w: %s param is %d bytes", ErrNoSpace, p.Kind, buf.Len())
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Marshal encodes p in the parameter wire format, reusing the staged
// encoding when p came from Enum.
func Marshal(p Param) ([]byte, error) {
	if p.Raw != nil {
		return bytes.Clone(p.Raw), nil
	}

	return json.Marshal(p)
}

type profilePayload struct {
	ID *int32 `json:"id"`
}

// ParseProfile extracts the profile id from a Profile parameter object.
func ParseProfile(raw []byte) (int32, error) {
	var p profilePayload

	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrParse, err)
	}

	if p.ID == nil {
		return 0, fmt.Errorf("%w: missing id", ErrParse)
	}

	return *p.ID, nil
}
