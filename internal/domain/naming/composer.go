// Package naming собирает название карточки Ozon из полей продукта.
package naming

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/attributes"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/domain/models"
	"github.com/athebyme/gomarket-platform/marketplace-service/internal/i18n"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrNoName карточку нельзя выгружать: название собрать не из чего
var ErrNoName = errors.New("no name available")

// Composer собирает название. Состояния между вызовами не хранит.
type Composer struct {
	translator i18n.Translator
	season     attributes.Rule
	purpose    attributes.Rule
	lang       language.Tag
}

// NewComposer создает сборщик названий. translator может быть nil,
// тогда подпись типа товара в название не попадает.
func NewComposer(translator i18n.Translator) *Composer {
	if translator == nil {
		translator = i18n.Nop()
	}
	return &Composer{
		translator: translator,
		season:     attributes.SeasonRule(),
		purpose:    attributes.PurposeRule(),
		lang:       language.Russian,
	}
}

// Compose возвращает название вида
// "<Сезон> <тип> <название> <вариация>/<модификация> R<предложение> <постфиксы> <назначение>".
func (c *Composer) Compose(card *models.CardRecord) (string, error) {
	if card == nil || card.CategoryID == 0 {
		return "", fmt.Errorf("%w: category is not set", ErrNoName)
	}

	attrs, err := attributes.Parse(card.Attributes)
	if err != nil {
		return "", err
	}

	var prefix []string
	prefix = append(prefix, attributes.Collect(c.season, attrs)...)
	if card.TypeKey != "" {
		if label, ok := c.translator.Translate(card.TypeKey + ".name"); ok {
			prefix = append(prefix, label)
		}
	}

	var b strings.Builder
	spaced := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}

	spaced(c.capitalize(strings.Join(prefix, " ")))
	spaced(card.ProductName)
	spaced(card.VariationValue)
	// Модификация пишется через "/" только после вариации, иначе как отдельное слово
	if v := strings.TrimSpace(card.ModificationValue); v != "" {
		if strings.TrimSpace(card.VariationValue) != "" {
			b.WriteString("/" + v)
		} else {
			spaced(v)
		}
	}
	if v := strings.TrimSpace(card.OfferValue); v != "" {
		spaced("R" + v)
	}
	spaced(card.OfferPostfix)
	spaced(card.VariationPostfix)
	spaced(card.ModificationPostfix)

	for _, fragment := range attributes.Collect(c.purpose, attrs) {
		spaced(fragment)
	}

	name := strings.TrimSpace(b.String())
	if name == "" {
		return "", ErrNoName
	}

	return name, nil
}

// capitalize приводит строку к нижнему регистру и делает первую букву заглавной.
// cases.Caser хранит состояние, поэтому создается на каждый вызов.
func (c *Composer) capitalize(s string) string {
	if s == "" {
		return s
	}
	s = cases.Lower(c.lang).String(s)
	r, size := utf8.DecodeRuneInString(s)
	return cases.Upper(c.lang).String(string(r)) + s[size:]
}
