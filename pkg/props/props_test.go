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

package props

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictKeepsInsertionOrder(t *testing.T) {
	var d Dict

	d.Add("z", "1")
	d.AddNonEmpty("skipped", "")
	d.Add("a", "2")

	assert.Equal(t, []string{"z", "a"}, d.Keys())
	assert.Equal(t, "2", d.Get("a"))

	_, ok := d.Lookup("skipped")
	assert.False(t, ok)
}

func TestDictMarshalJSONPreservesOrder(t *testing.T) {
	d := Dict{{Key: "media.class", Value: "Audio/Device"}, {Key: "api.alsa.card", Value: "0"}}

	raw, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"media.class":"Audio/Device","api.alsa.card":"0"}`, string(raw))
	assert.Equal(t, `{"media.class":"Audio/Device","api.alsa.card":"0"}`, string(raw))
}

func TestDictCloneIsIndependent(t *testing.T) {
	d := Dict{{Key: "k", Value: "v"}}
	c := d.Clone()
	c[0].Value = "changed"

	assert.Equal(t, "v", d.Get("k"))
	assert.Nil(t, Dict(nil).Clone())
}
