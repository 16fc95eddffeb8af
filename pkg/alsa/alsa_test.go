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

package alsa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardNames(t *testing.T) {
	assert.Equal(t, "hw:3", CardName(3))
	assert.Equal(t, "hw:3,1", PCMName(CardName(3), 1))

	n, err := ParseCardName("hw:12")
	require.NoError(t, err)
	assert.Equal(t, uint32(12), n)

	n, err = ParseCardName("hw:2,0")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), n)

	for _, bad := range []string{"plughw:0", "hw:", "hw:x", "hw:-1"} {
		_, err := ParseCardName(bad)
		require.ErrorIs(t, err, ErrBadCardName, bad)
	}
}

func TestControlNodeName(t *testing.T) {
	assert.Equal(t, "/dev/snd/controlC4", ControlPath("/dev/snd", 4))

	n, ok := ParseControlNodeName("controlC4")
	assert.True(t, ok)
	assert.Equal(t, uint32(4), n)

	for _, bad := range []string{"controlC", "pcmC0D0p", "controlC1x", "timer"} {
		_, ok := ParseControlNodeName(bad)
		assert.False(t, ok, bad)
	}
}

func TestClassificationStrings(t *testing.T) {
	assert.Equal(t, "generic", ClassGeneric.String())
	assert.Equal(t, "multichannel", ClassMulti.String())
	assert.Equal(t, "modem", ClassModem.String())
	assert.Equal(t, "digitizer", ClassDigitizer.String())
	assert.Equal(t, "unknown", Class(42).String())

	assert.Equal(t, "generic-mix", SubclassGenericMix.String())
	assert.Equal(t, "multichannel-mix", SubclassMultiMix.String())
	assert.Equal(t, "unknown", Subclass(7).String())

	assert.Equal(t, "playback", StreamPlayback.String())
	assert.Equal(t, "capture", StreamCapture.String())
}

func TestCString(t *testing.T) {
	assert.Equal(t, "HDA", cString([]byte{'H', 'D', 'A', 0, 'x'}))
	assert.Equal(t, "abc", cString([]byte("abc")))
}
