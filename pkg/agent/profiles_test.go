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

package agent

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/alsamon/pkg/alsa/alsatest"
	"github.com/carverauto/alsamon/pkg/device"
	"github.com/carverauto/alsamon/pkg/hotplug"
	"github.com/carverauto/alsamon/pkg/logger"
	"github.com/carverauto/alsamon/pkg/params"
	"github.com/carverauto/alsamon/pkg/props"
)

var errNoDevice = errors.New("no such device")

type mockFactory struct {
	cards map[string]*device.MockCallbacks
}

func (f *mockFactory) ForCard(card string) device.Callbacks {
	return f.cards[card]
}

func announced() *hotplug.ObjectInfo {
	return &hotplug.ObjectInfo{Type: hotplug.ObjectTypeDevice, Factory: hotplug.FactoryPCMDevice}
}

func newManager(controls *alsatest.Opener, cbs map[string]*device.MockCallbacks) *profileManager {
	m := newProfileManager(logger.NewTestLogger(), []device.Option{device.WithOpener(controls)})
	m.callbacks = &mockFactory{cards: cbs}

	return m
}

func TestProfileManagerLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	controls := alsatest.NewOpener()
	controls.AddCard(2, alsatest.SimpleCard("USB"))

	cb := device.NewMockCallbacks(ctrl)
	m := newManager(controls, map[string]*device.MockCallbacks{"hw:2": cb})

	gomock.InOrder(
		cb.EXPECT().Info(gomock.Any()).Do(func(info props.Dict) {
			assert.Equal(t, "USB", info.Get(props.KeyAlsaCardID))
		}),
		cb.EXPECT().AddNode(uint32(0), device.FactorySink, gomock.Any()),
		cb.EXPECT().AddNode(uint32(1), device.FactorySource, gomock.Any()),
		cb.EXPECT().RemoveNode(uint32(0)),
		cb.EXPECT().RemoveNode(uint32(1)),
	)

	m.ObjectInfo(2, announced())
	// a change re-announcement does not re-activate
	m.ObjectInfo(2, announced())

	assert.Equal(t, []ProfileSnapshot{{Card: "hw:2", Profile: params.ProfileOn, Nodes: 2}}, m.snapshot())

	m.ObjectInfo(2, nil)
	m.ObjectInfo(2, nil)

	assert.Empty(t, m.snapshot())
	assert.Zero(t, controls.OpenCount())
}

func TestProfileManagerActivationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	controls := alsatest.NewOpener()
	controls.FailOpen(4, errNoDevice)

	cb := device.NewMockCallbacks(ctrl)
	m := newManager(controls, map[string]*device.MockCallbacks{"hw:4": cb})

	m.ObjectInfo(4, announced())

	assert.Empty(t, m.snapshot())
	assert.Equal(t, []string{"hw:4"}, controls.Opened())
}

func TestProfileManagerPartialPassIsRolledBack(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	card := alsatest.SimpleCard("PCH")
	card.PCMs[1] = alsatest.PCM{Err: errNoDevice}

	controls := alsatest.NewOpener()
	controls.AddCard(0, card)

	cb := device.NewMockCallbacks(ctrl)
	m := newManager(controls, map[string]*device.MockCallbacks{"hw:0": cb})

	gomock.InOrder(
		cb.EXPECT().Info(gomock.Any()),
		cb.EXPECT().AddNode(uint32(0), device.FactorySink, gomock.Any()),
		cb.EXPECT().AddNode(uint32(1), device.FactorySource, gomock.Any()),
		cb.EXPECT().RemoveNode(uint32(0)),
		cb.EXPECT().RemoveNode(uint32(1)),
	)

	m.ObjectInfo(0, announced())

	assert.Empty(t, m.snapshot())
}

func TestProfileManagerReleaseAllAscending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	controls := alsatest.NewOpener()
	cbs := make(map[string]*device.MockCallbacks)

	var order []string

	for _, id := range []uint32{5, 1, 3} {
		controls.AddCard(id, alsatest.SimpleCard(fmt.Sprintf("Card%d", id)))

		name := fmt.Sprintf("hw:%d", id)
		cb := device.NewMockCallbacks(ctrl)
		cb.EXPECT().Info(gomock.Any())
		cb.EXPECT().AddNode(gomock.Any(), gomock.Any(), gomock.Any()).Times(2)
		cb.EXPECT().RemoveNode(gomock.Any()).Times(2).Do(func(uint32) {
			order = append(order, name)
		})
		cbs[name] = cb
	}

	m := newManager(controls, cbs)

	for _, id := range []uint32{5, 1, 3} {
		m.ObjectInfo(id, announced())
	}

	m.releaseAll()

	assert.Equal(t, []string{"hw:1", "hw:1", "hw:3", "hw:3", "hw:5", "hw:5"}, order)
	assert.Empty(t, m.snapshot())
}
