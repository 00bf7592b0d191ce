package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// JSONField wraps any serializable type so it can be stored in a jsonb column.
type JSONField[T any] struct {
	Data T
}

func MakeJSONField[T any](data T) *JSONField[T] {
	return &JSONField[T]{Data: data}
}

func (j *JSONField[T]) Scan(value any) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSONB value: %v", value)
	}

	return json.Unmarshal(bytes, &j.Data)
}

func (j JSONField[T]) Value() (driver.Value, error) {
	val, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(val), nil
}

func (j *JSONField[T]) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return json.Marshal(j.Data)
}

func (j *JSONField[T]) UnmarshalJSON(data []byte) error {
	if j == nil {
		return errors.New("JSONField: UnmarshalJSON on nil pointer")
	}
	return json.Unmarshal(data, &j.Data)
}
