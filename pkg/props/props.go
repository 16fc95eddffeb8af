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

// Package props holds the ordered key/value property sets carried by device
// and node notifications.
package props

import (
	"bytes"
	"encoding/json"
)

// Item is a single property.
type Item struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Dict is an ordered property set. Order is part of the payload contract, so
// Dict marshals to a JSON object with keys in insertion order.
type Dict []Item

// Add appends a property.
func (d *Dict) Add(key, value string) {
	*d = append(*d, Item{Key: key, Value: value})
}

// AddNonEmpty appends a property only when value is non-empty.
func (d *Dict) AddNonEmpty(key, value string) {
	if value == "" {
		return
	}

	d.Add(key, value)
}

// Lookup returns the value of the first item with the given key.
func (d Dict) Lookup(key string) (string, bool) {
	for _, item := range d {
		if item.Key == key {
			return item.Value, true
		}
	}

	return "", false
}

// Get returns the value for key or "" when absent.
func (d Dict) Get(key string) string {
	v, _ := d.Lookup(key)

	return v
}

// Keys returns the keys in order.
func (d Dict) Keys() []string {
	keys := make([]string, 0, len(d))
	for _, item := range d {
		keys = append(keys, item.Key)
	}

	return keys
}

// Map returns an unordered copy of the dict.
func (d Dict) Map() map[string]string {
	m := make(map[string]string, len(d))
	for _, item := range d {
		m[item.Key] = item.Value
	}

	return m
}

// Clone returns a copy that shares no backing array with d.
func (d Dict) Clone() Dict {
	if d == nil {
		return nil
	}

	return append(Dict(nil), d...)
}

// MarshalJSON encodes the dict as a JSON object preserving key order.
func (d Dict) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, item := range d {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := json.Marshal(item.Key)
		if err != nil {
			return nil, err
		}

		v, err := json.Marshal(item.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}
