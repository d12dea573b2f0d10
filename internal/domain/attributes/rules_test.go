package attributes

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestSeasonRule(t *testing.T) {
	rule := SeasonRule()

	if rule.Kind() != KindSeason {
		t.Fatalf("kind = %s", rule.Kind())
	}
	if !rule.Matches(SeasonAttributeID) || rule.Matches(PurposeAttributeID) {
		t.Fatal("season rule matches wrong attribute")
	}

	tests := map[string]struct {
		want string
		ok   bool
	}{
		"summer":  {"Летние", true},
		"winter":  {"Зимние", true},
		"all":     {"Всесезонные", true},
		"unknown": {"", false},
		"":        {"", false},
	}
	for value, tt := range tests {
		got, ok := rule.Convert(value)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Convert(%q) = %q, %v; want %q, %v", value, got, ok, tt.want, tt.ok)
		}
	}
}

func TestPurposeRule(t *testing.T) {
	rule := PurposeRule()

	if !rule.Matches(PurposeAttributeID) || rule.Matches(SeasonAttributeID) {
		t.Fatal("purpose rule matches wrong attribute")
	}
	if got, ok := rule.Convert("truck"); !ok || got != "для грузовых автомобилей" {
		t.Errorf("Convert(truck) = %q, %v", got, ok)
	}
	if _, ok := rule.Convert("plane"); ok {
		t.Error("unknown code must not convert")
	}
}

func TestParse(t *testing.T) {
	raw := json.RawMessage(`[{"id": 4495, "value": "winter"}, {"id": "8229", "value": 7}, {"id": 10, "value": null}]`)

	attrs, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []Attribute{
		{ID: "4495", Value: "winter"},
		{ID: "8229", Value: "7"},
		{ID: "10", Value: ""},
	}
	if !reflect.DeepEqual(attrs, want) {
		t.Errorf("attrs = %+v, want %+v", attrs, want)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, raw := range []string{"", "null", "  ", "[]"} {
		attrs, err := Parse(json.RawMessage(raw))
		if err != nil {
			t.Errorf("Parse(%q): %v", raw, err)
		}
		if len(attrs) != 0 {
			t.Errorf("Parse(%q) = %v", raw, attrs)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	for _, raw := range []string{`{"id": 1}`, `[{"id": true}]`, `[{"id": 1, "value": {"a": 1}}]`, `[`} {
		if _, err := Parse(json.RawMessage(raw)); err == nil {
			t.Errorf("Parse(%q) expected error", raw)
		}
	}
}

func TestCollectKeepsListOrder(t *testing.T) {
	attrs := []Attribute{
		{ID: SeasonAttributeID, Value: "winter"},
		{ID: PurposeAttributeID, Value: "bus"},
		{ID: SeasonAttributeID, Value: "summer"},
	}

	got := Collect(SeasonRule(), attrs)
	want := []string{"Зимние", "Летние"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Collect = %v, want %v", got, want)
	}
}
