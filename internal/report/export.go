package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formatter serializes export data
type Formatter interface {
	Format(data any, pretty bool) ([]byte, error)
	Extension() string
}

type JSONFormatter struct{}

func (f *JSONFormatter) Format(data any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

func (f *JSONFormatter) Extension() string { return ".json" }

type YAMLFormatter struct{}

func (f *YAMLFormatter) Format(data any, _ bool) ([]byte, error) {
	return yaml.Marshal(data)
}

func (f *YAMLFormatter) Extension() string { return ".yaml" }

// NewFormatter returns the formatter for "json" or "yaml"
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{}, nil
	case "yaml", "yml":
		return &YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// Export formats data and writes it to path
func Export(data any, formatter Formatter, path string) error {
	formatted, err := formatter.Format(data, true)
	if err != nil {
		// non-finite floats outside Metric values cannot be encoded as JSON
		if strings.Contains(err.Error(), "unsupported value") {
			formatted, err = formatter.Format(Sanitize(data), true)
		}
		if err != nil {
			return fmt.Errorf("failed to format export data: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	if err := os.WriteFile(path, formatted, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

var marshalerType = reflect.TypeFor[json.Marshaler]()

// Sanitize recursively replaces NaN and infinite floats with nil. Values with
// their own JSON encoding are kept as they are.
func Sanitize(data any) any {
	switch v := data.(type) {
	case nil:
		return nil
	case json.Marshaler:
		return v
	case float64:
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return nil
		}
		return v
	case float32:
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			return nil
		}
		return v
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = Sanitize(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = Sanitize(val)
		}
		return result
	default:
		return sanitizeWithReflection(data)
	}
}

func sanitizeWithReflection(data any) any {
	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		if val.Type().Implements(marshalerType) {
			return data
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Struct:
		result := make(map[string]any)
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := val.Field(i)
			fieldType := typ.Field(i)
			if !field.CanInterface() {
				continue
			}

			fieldName := fieldType.Name
			if tag := fieldType.Tag.Get("json"); tag != "" {
				if tag == "-" {
					continue
				}
				if name := strings.Split(tag, ",")[0]; name != "" {
					fieldName = name
				}
			}
			result[fieldName] = Sanitize(field.Interface())
		}
		return result
	case reflect.Slice, reflect.Array:
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			result[i] = Sanitize(val.Index(i).Interface())
		}
		return result
	case reflect.Map:
		result := make(map[string]any)
		for _, key := range val.MapKeys() {
			result[fmt.Sprintf("%v", key.Interface())] = Sanitize(val.MapIndex(key).Interface())
		}
		return result
	case reflect.Float32, reflect.Float64:
		return Sanitize(val.Float())
	default:
		return val.Interface()
	}
}
