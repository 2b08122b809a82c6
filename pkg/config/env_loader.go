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
	"time"

	"github.com/carverauto/vcsync/pkg/logger"
	"github.com/carverauto/vcsync/pkg/models"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
	errUnsupportedFieldKind     = errors.New("unsupported field kind")
)

//nolint:gochecknoglobals // type lookup used while walking config structs
var durationType = reflect.TypeOf(models.Duration(0))

// EnvConfigLoader overlays environment variables onto a config struct.
// Nested fields use underscore separation, so VCSYNC_NETBOX_URL maps to
// Netbox.URL through the json tags. Nil pointers to optional sections are
// left nil. A complete document in <prefix>CONFIG_JSON replaces the file.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	if jsonConfig := os.Getenv(e.prefix + "CONFIG_JSON"); jsonConfig != "" {
		if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.logger.Info().Msg("Loaded configuration from CONFIG_JSON environment variable")

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	return e.loadStruct(v, e.prefix)
}

func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		jsonTag := t.Field(i).Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(strings.Split(jsonTag, ",")[0])

		if err := e.setField(field, envName); err != nil {
			return err
		}
	}

	return nil
}

func (e *EnvConfigLoader) setField(field reflect.Value, envName string) error {
	switch {
	case field.Kind() == reflect.Struct:
		return e.loadStruct(field, envName+"_")
	case field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			return nil
		}

		return e.loadStruct(field.Elem(), envName+"_")
	case field.Kind() == reflect.Map && field.Type().Elem().Kind() == reflect.Struct:
		return e.loadStructMap(field, envName+"_")
	}

	value, ok := os.LookupEnv(envName)
	if !ok || value == "" {
		return nil
	}

	if field.Kind() == reflect.Ptr {
		elem := reflect.New(field.Type().Elem())
		if err := setScalar(elem.Elem(), envName, value); err != nil {
			return err
		}

		field.Set(elem)
	} else if err := setScalar(field, envName, value); err != nil {
		return err
	}

	e.logger.Debug().Str("env", envName).Msg("Loaded value from environment variable")

	return nil
}

// loadStructMap overlays each entry of a map of structs, so
// VCSYNC_SOURCES_VC01_PASSWORD sets Sources["vc01"].Password. Map values
// are not addressable, so every entry is copied, updated and stored back.
func (e *EnvConfigLoader) loadStructMap(field reflect.Value, prefix string) error {
	if field.Type().Key().Kind() != reflect.String {
		return nil
	}

	iter := field.MapRange()
	for iter.Next() {
		key := iter.Key()
		entry := reflect.New(field.Type().Elem()).Elem()
		entry.Set(iter.Value())

		if err := e.loadStruct(entry, prefix+envToken(key.String())+"_"); err != nil {
			return err
		}

		field.SetMapIndex(key, entry)
	}

	return nil
}

func envToken(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}

func setScalar(field reflect.Value, envName, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", envName, err)
		}

		field.SetInt(int64(d))

		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %w", envName, err)
		}

		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %w", envName, err)
		}

		field.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value for %s: %w", envName, err)
		}

		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("%w: %s", errUnsupportedFieldKind, envName)
		}

		parts := splitList(value)
		slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))

		for i, p := range parts {
			slice.Index(i).SetString(p)
		}

		field.Set(slice)
	case reflect.Map:
		if field.Type().Key().Kind() != reflect.String || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("%w: %s", errUnsupportedFieldKind, envName)
		}

		m := reflect.MakeMap(field.Type())

		for _, pair := range splitList(value) {
			if kv := strings.SplitN(pair, "=", 2); len(kv) == 2 {
				m.SetMapIndex(reflect.ValueOf(strings.TrimSpace(kv[0])), reflect.ValueOf(strings.TrimSpace(kv[1])))
			}
		}

		field.Set(m)
	default:
		return fmt.Errorf("%w: %s", errUnsupportedFieldKind, envName)
	}

	return nil
}

func splitList(value string) []string {
	raw := strings.Split(value, ",")
	out := make([]string, 0, len(raw))

	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}
