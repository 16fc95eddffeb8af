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

package params

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listGenerator(items ...Param) Generator {
	return func(kind Kind, index uint32) (Param, bool, error) {
		if kind != KindEnumProfile {
			return Param{}, false, ErrUnknownParam
		}

		if int(index) >= len(items) {
			return Param{}, false, nil
		}

		return items[index], true, nil
	}
}

func TestEnumWalksCursor(t *testing.T) {
	gen := listGenerator(
		Param{Kind: KindEnumProfile, ID: 0, Name: "On"},
		Param{Kind: KindEnumProfile, ID: 1, Name: "Off"},
	)

	p, next, ok, err := Enum(gen, KindEnumProfile, 0, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "On", p.Name)
	assert.Equal(t, uint32(1), next)

	p, next, ok, err = Enum(gen, KindEnumProfile, next, nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Off", p.Name)
	assert.Equal(t, uint32(2), next)

	_, _, ok, err = Enum(gen, KindEnumProfile, next, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEnumFilterAdvancesCursor(t *testing.T) {
	gen := listGenerator(
		Param{Kind: KindEnumProfile, ID: 0, Name: "On"},
		Param{Kind: KindEnumProfile, ID: 1, Name: "Off"},
	)

	offOnly := FilterFunc(func(p Param) bool { return p.ID == ProfileOff })

	p, next, ok, err := Enum(gen, KindEnumProfile, 0, offOnly)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, ProfileOff, p.ID)
	assert.Equal(t, uint32(2), next)

	none := FilterFunc(func(Param) bool { return false })

	_, next, ok, err = Enum(gen, KindEnumProfile, 0, none)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, uint32(2), next)
}

func TestEnumHandsOverStagedEncoding(t *testing.T) {
	gen := listGenerator(
		Param{Kind: KindEnumProfile, ID: 0, Name: "On"},
		Param{Kind: KindEnumProfile, ID: 1, Name: "Off"},
	)

	var seen []string

	filter := FilterFunc(func(p Param) bool {
		seen = append(seen, string(p.Raw))

		return p.ID == ProfileOff
	})

	p, _, ok, err := Enum(gen, KindEnumProfile, 0, filter)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, []string{`{"id":0,"name":"On"}`, `{"id":1,"name":"Off"}`}, seen)
	assert.Equal(t, `{"id":1,"name":"Off"}`, string(p.Raw))

	raw, err := Marshal(p)
	require.NoError(t, err)
	assert.Equal(t, p.Raw, raw)
}

func TestEnumUnknownKind(t *testing.T) {
	gen := listGenerator()

	_, _, ok, err := Enum(gen, KindProfile, 0, nil)
	require.ErrorIs(t, err, ErrUnknownParam)
	assert.False(t, ok)
}

func TestEnumRejectsOversizedCandidate(t *testing.T) {
	gen := listGenerator(Param{Kind: KindEnumProfile, ID: 0, Name: strings.Repeat("x", StagingSize)})

	_, _, ok, err := Enum(gen, KindEnumProfile, 0, nil)
	require.ErrorIs(t, err, ErrNoSpace)
	assert.False(t, ok)
}

func TestParseProfile(t *testing.T) {
	id, err := ParseProfile([]byte(`{"id":1,"name":"Off"}`))
	require.NoError(t, err)
	assert.Equal(t, ProfileOff, id)

	id, err = ParseProfile([]byte(`{"id":0}`))
	require.NoError(t, err)
	assert.Equal(t, ProfileOn, id)

	for _, raw := range []string{``, `{}`, `{"id":"on"}`, `[1]`, `{"id":1.5}`} {
		_, err := ParseProfile([]byte(raw))
		require.ErrorIs(t, err, ErrParse, raw)
	}
}

func TestMarshal(t *testing.T) {
	raw, err := Marshal(Param{Kind: KindProfile, ID: 0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":0}`, string(raw))

	raw, err = Marshal(Param{Kind: KindEnumProfile, ID: 1, Name: "Off"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"name":"Off"}`, string(raw))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("enumprofile")
	require.NoError(t, err)
	assert.Equal(t, KindEnumProfile, k)

	_, err = ParseKind("props")
	require.ErrorIs(t, err, ErrUnknownParam)
	assert.Equal(t, "Kind(9)", Kind(9).String())
}
