package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides walks the Config tree and overlays any MISSIONCTL_*
// variables present in the process environment. Fields carry their full
// variable name in the `env` tag; unset variables leave the field untouched.
func applyEnvOverrides(cfg *Config) error {
	return overlayEnv(cfg)
}

func overlayEnv(target interface{}) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr {
		return fmt.Errorf("expected pointer, got %s", val.Kind())
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("expected struct, got %s", val.Kind())
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		sf := typ.Field(i)

		// Nested sections (server, storage, ...) declare their own tags.
		if field.Kind() == reflect.Struct && field.CanAddr() {
			if err := overlayEnv(field.Addr().Interface()); err != nil {
				return err
			}
			continue
		}

		name := sf.Tag.Get("env")
		if name == "" {
			continue
		}
		raw := os.Getenv(name)
		if raw == "" {
			continue
		}
		if err := parseInto(field, sf, raw); err != nil {
			return fmt.Errorf("failed to set field %s from env var %s: %w", sf.Name, name, err)
		}
	}
	return nil
}

// parseInto converts the raw environment string to the field's Go type.
// Durations use time.ParseDuration syntax, []string is comma-separated, and
// map[string]string takes key=value pairs separated by commas.
func parseInto(field reflect.Value, sf reflect.StructField, raw string) error {
	if !field.CanSet() {
		return fmt.Errorf("field %s is not settable", sf.Name)
	}

	if sf.Type == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration value: %s", raw)
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %s", raw)
		}
		field.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", raw)
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %s", raw)
		}
		field.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid float value: %s", raw)
		}
		field.SetFloat(f)

	case reflect.Slice:
		if sf.Type.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", sf.Type.Elem().Kind())
		}
		field.Set(reflect.ValueOf(splitList(raw)))

	case reflect.Map:
		if sf.Type.Key().Kind() != reflect.String || sf.Type.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported map type: %s -> %s", sf.Type.Key().Kind(), sf.Type.Elem().Kind())
		}
		m, err := splitPairs(raw)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(m))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}
	return nil
}

// splitList turns "a, b,c" into trimmed elements.
func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// splitPairs parses "key=value,key2=value2".
func splitPairs(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid map entry format: %s", pair)
		}
		out[kv[0]] = kv[1]
	}
	return out, nil
}
