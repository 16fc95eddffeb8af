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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/carverauto/alsamon/pkg/logger"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

// EnvConfigLoader loads configuration from environment variables. Nested
// struct fields join their json names with underscores, so with the prefix
// ALSAMON_ the field nats.url is read from ALSAMON_NATS_URL.
type EnvConfigLoader struct {
	logger   logger.Logger
	prefix   string
	validate func([]byte) error
}

// NewEnvConfigLoader creates a new environment variable config loader. A
// non-nil validate checks a whole document passed through CONFIG_JSON.
func NewEnvConfigLoader(log logger.Logger, prefix string, validate func([]byte) error) *EnvConfigLoader {
	return &EnvConfigLoader{
		logger:   log,
		prefix:   prefix,
		validate: validate,
	}
}

// Load implements ConfigLoader by reading from environment variables.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	if doc := os.Getenv(e.prefix + "CONFIG_JSON"); doc != "" {
		return e.loadDocument([]byte(doc), dst)
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	n := e.loadStruct(v, e.prefix)

	if e.logger != nil {
		e.logger.Info().Int("fields", n).Msg("Loaded configuration from environment variables")
	}

	return nil
}

func (e *EnvConfigLoader) loadDocument(doc []byte, dst interface{}) error {
	if e.validate != nil {
		if err := e.validate(doc); err != nil {
			return fmt.Errorf("invalid %sCONFIG_JSON: %w", e.prefix, err)
		}
	}

	if err := json.Unmarshal(doc, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
	}

	if e.logger != nil {
		e.logger.Info().Msg("Loaded configuration from CONFIG_JSON environment variable")
	}

	return nil
}

// loadStruct fills the fields of v and returns how many were set. Fields
// whose variable fails to parse are skipped.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) int {
	t := v.Type()
	n := 0

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name == "" || name == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))

		set, err := e.setField(field, envName)
		if err != nil {
			if e.logger != nil {
				e.logger.Debug().Err(err).Str("env", envName).Msg("Ignoring environment variable")
			}

			continue
		}

		n += set
	}

	return n
}

func (e *EnvConfigLoader) setField(field reflect.Value, envName string) (int, error) {
	if isStruct(field.Type()) {
		return e.setNested(field, envName), nil
	}

	value, ok := os.LookupEnv(envName)
	if !ok || value == "" {
		return 0, nil
	}

	if field.Kind() == reflect.Ptr {
		ptr := reflect.New(field.Type().Elem())
		if err := setScalar(ptr.Elem(), value); err != nil {
			return 0, fmt.Errorf("%s: %w", envName, err)
		}

		field.Set(ptr)

		return 1, nil
	}

	if err := setScalar(field, value); err != nil {
		return 0, fmt.Errorf("%s: %w", envName, err)
	}

	return 1, nil
}

// setNested loads a struct or pointer-to-struct field. A nil pointer is only
// allocated when one of its variables is present.
func (e *EnvConfigLoader) setNested(field reflect.Value, envName string) int {
	if field.Kind() != reflect.Ptr {
		return e.loadStruct(field, envName+"_")
	}

	target := field
	if field.IsNil() {
		target = reflect.New(field.Type().Elem())
	}

	n := e.loadStruct(target.Elem(), envName+"_")
	if n > 0 && field.IsNil() {
		field.Set(target)
	}

	return n
}

func isStruct(t reflect.Type) bool {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct
}

func setScalar(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %w", err)
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Addr().Type().Implements(jsonUnmarshaler) {
			return unmarshalValue(field, value)
		}

		i, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer value: %w", err)
		}

		field.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %w", err)
		}

		field.SetUint(u)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}

			field.Set(reflect.ValueOf(parts).Convert(field.Type()))

			return nil
		}

		return json.Unmarshal([]byte(value), field.Addr().Interface())
	default:
		return json.Unmarshal([]byte(value), field.Addr().Interface())
	}

	return nil
}

//nolint:gochecknoglobals // reflection type cache
var jsonUnmarshaler = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

// unmarshalValue hands value to the field's UnmarshalJSON as a JSON string,
// which covers duration types such as models.Duration.
func unmarshalValue(field reflect.Value, value string) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return field.Addr().Interface().(json.Unmarshaler).UnmarshalJSON(raw)
}
