package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONField stores any JSON-serializable value in a jsonb column.
type JSONField[T any] struct {
	Data T
}

func MakeJSONField[T any](data T) *JSONField[T] {
	return &JSONField[T]{Data: data}
}

func (j JSONField[T]) Value() (driver.Value, error) {
	raw, err := json.Marshal(j.Data)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (j *JSONField[T]) Scan(src any) error {
	switch value := src.(type) {
	case []byte:
		return json.Unmarshal(value, &j.Data)
	case string:
		return json.Unmarshal([]byte(value), &j.Data)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported data %#v", src)
	}
}

func (j JSONField[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Data)
}

func (j *JSONField[T]) UnmarshalJSON(raw []byte) error {
	return json.Unmarshal(raw, &j.Data)
}
