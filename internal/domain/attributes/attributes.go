// Package attributes содержит правила обогащения названия карточки
// по характеристикам товара.
package attributes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Attribute характеристика товара из сырого набора карточки
type Attribute struct {
	ID    string
	Value string
}

type rawAttribute struct {
	ID    json.RawMessage `json:"id"`
	Value json.RawMessage `json:"value"`
}

// Parse разбирает сырой набор характеристик вида [{"id": ..., "value": ...}].
// Идентификатор и значение допускаются строкой или числом. Пустой набор не ошибка.
func Parse(raw json.RawMessage) ([]Attribute, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var items []rawAttribute
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("malformed product attributes: %w", err)
	}

	attrs := make([]Attribute, 0, len(items))
	for i, item := range items {
		id, err := scalar(item.ID)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: id: %w", i, err)
		}
		value, err := scalar(item.Value)
		if err != nil {
			return nil, fmt.Errorf("attribute %d: value: %w", i, err)
		}
		attrs = append(attrs, Attribute{ID: id, Value: value})
	}

	return attrs, nil
}

func scalar(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}

	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", fmt.Errorf("expected string or number, got %s", raw)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return "", err
	}
	return n.String(), nil
}
