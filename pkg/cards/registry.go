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

// Package cards tracks the sound cards a monitor currently knows about.
package cards

import (
	"errors"

	"github.com/carverauto/alsamon/pkg/udev"
)

// DefaultCapacity is the default maximum number of tracked cards.
const DefaultCapacity = 64

// ErrRegistryFull is returned by Upsert when a new card would exceed capacity.
var ErrRegistryFull = errors.New("card registry full")

// State is the lifecycle position of a tracked card.
type State int

const (
	// Discovered cards are tracked but were never probed.
	Discovered State = iota
	// Deferred cards failed the accessibility probe or wait for a
	// corroborating change event.
	Deferred
	// Ignored cards have no usable PCM stream. The state is permanent.
	Ignored
	// Emitted cards were announced to listeners.
	Emitted
)

func (s State) String() string {
	switch s {
	case Discovered:
		return "discovered"
	case Deferred:
		return "deferred"
	case Ignored:
		return "ignored"
	case Emitted:
		return "emitted"
	default:
		return "unknown"
	}
}

// Card is one tracked sound card. Device holds a reference for as long as
// the card stays in the registry.
type Card struct {
	ID     uint32
	Device *udev.Device
	State  State

	accessible bool
}

// Accessible reports whether the last access probe succeeded. It is tracked
// apart from State: a card that passed the probe stays Discovered or Deferred
// when its control cannot be opened, and an Emitted card keeps its state when
// a later probe fails.
func (c *Card) Accessible() bool {
	return c.accessible
}

// SetAccessible records the outcome of an access probe.
func (c *Card) SetAccessible(ok bool) {
	c.accessible = ok
}

// Ignored reports whether the card was permanently skipped.
func (c *Card) Ignored() bool {
	return c.State == Ignored
}

// Emitted reports whether listeners were told about the card.
func (c *Card) Emitted() bool {
	return c.State == Emitted
}

// Registry is a bounded set of cards keyed by id. It is not safe for
// concurrent use; the owning event loop serialises access.
type Registry struct {
	cards    []*Card
	index    map[uint32]int
	capacity int
}

// NewRegistry returns an empty registry holding at most capacity cards.
// A non-positive capacity selects DefaultCapacity.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Registry{
		cards:    make([]*Card, 0, capacity),
		index:    make(map[uint32]int, capacity),
		capacity: capacity,
	}
}

// Upsert returns the card with id, creating it when absent. A new card takes
// a reference on dev. When the registry is full nothing is created and
// ErrRegistryFull is returned.
func (r *Registry) Upsert(id uint32, dev *udev.Device) (*Card, bool, error) {
	if c := r.Find(id); c != nil {
		return c, false, nil
	}

	if len(r.cards) >= r.capacity {
		return nil, false, ErrRegistryFull
	}

	c := &Card{ID: id, State: Discovered}
	if dev != nil {
		c.Device = dev.Ref()
	}

	r.index[id] = len(r.cards)
	r.cards = append(r.cards, c)

	return c, true, nil
}

// Find returns the card with id or nil.
func (r *Registry) Find(id uint32) *Card {
	i, ok := r.index[id]
	if !ok {
		return nil
	}

	return r.cards[i]
}

// Remove erases the card with id, moving the last card into its slot, and
// releases its device reference. It returns a copy of the removed card.
func (r *Registry) Remove(id uint32) (Card, bool) {
	i, ok := r.index[id]
	if !ok {
		return Card{}, false
	}

	c := r.cards[i]
	last := len(r.cards) - 1

	if i != last {
		r.cards[i] = r.cards[last]
		r.index[r.cards[i].ID] = i
	}

	r.cards[last] = nil
	r.cards = r.cards[:last]
	delete(r.index, id)

	removed := *c
	if c.Device != nil {
		c.Device.Unref()
		c.Device = nil
	}

	return removed, true
}

// Count returns the number of tracked cards.
func (r *Registry) Count() int {
	return len(r.cards)
}

// Capacity returns the maximum number of tracked cards.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Each calls fn for every card in storage order. fn must not add or remove
// cards.
func (r *Registry) Each(fn func(*Card)) {
	for _, c := range r.cards {
		fn(c)
	}
}

// Clear drops every card, releasing their device references.
func (r *Registry) Clear() {
	for i, c := range r.cards {
		if c.Device != nil {
			c.Device.Unref()
			c.Device = nil
		}

		r.cards[i] = nil
	}

	r.cards = r.cards[:0]
	clear(r.index)
}
