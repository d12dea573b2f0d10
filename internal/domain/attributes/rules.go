package attributes

// Kind метка правила обогащения
type Kind string

const (
	KindSeason  Kind = "season"
	KindPurpose Kind = "purpose"
)

// Идентификаторы характеристик Ozon, по которым работают правила
const (
	SeasonAttributeID  = "4495"
	PurposeAttributeID = "8229"
)

// Rule правило преобразования характеристики во фрагмент названия
type Rule interface {
	Kind() Kind
	// Matches проверяет, относится ли характеристика к правилу
	Matches(attributeID string) bool
	// Convert возвращает фрагмент названия; неизвестный код не ошибка
	Convert(value string) (string, bool)
}

type tableRule struct {
	kind        Kind
	attributeID string
	names       map[string]string
}

func (r tableRule) Kind() Kind { return r.kind }

func (r tableRule) Matches(attributeID string) bool {
	return r.attributeID == attributeID
}

func (r tableRule) Convert(value string) (string, bool) {
	name, ok := r.names[value]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// SeasonRule добавляет к названию сезонность шин
func SeasonRule() Rule {
	return tableRule{
		kind:        KindSeason,
		attributeID: SeasonAttributeID,
		names: map[string]string{
			"summer": "Летние",
			"winter": "Зимние",
			"all":    "Всесезонные",
		},
	}
}

// PurposeRule добавляет к названию назначение
func PurposeRule() Rule {
	return tableRule{
		kind:        KindPurpose,
		attributeID: PurposeAttributeID,
		names: map[string]string{
			"passenger": "для легковых автомобилей",
			"jeep":      "для внедорожников",
			"minivan":   "для минивэнов",
			"truck":     "для грузовых автомобилей",
			"bus":       "для автобусов",
		},
	}
}

// Collect применяет правило к каждой характеристике в порядке списка
func Collect(rule Rule, attrs []Attribute) []string {
	var fragments []string
	for _, attr := range attrs {
		if !rule.Matches(attr.ID) {
			continue
		}
		if fragment, ok := rule.Convert(attr.Value); ok {
			fragments = append(fragments, fragment)
		}
	}
	return fragments
}
