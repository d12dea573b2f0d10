// Package i18n предоставляет поиск локализованных подписей по ключу.
package i18n

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Translator возвращает перевод ключа; false если перевода нет
type Translator interface {
	Translate(key string) (string, bool)
}

// Catalog словарь переводов одного домена
type Catalog struct {
	domain   string
	messages map[string]string
}

// NewCatalog создает словарь из готовой карты сообщений
func NewCatalog(domain string, messages map[string]string) *Catalog {
	normalized := make(map[string]string, len(messages))
	for k, v := range messages {
		normalized[strings.ToLower(k)] = v
	}
	return &Catalog{domain: domain, messages: normalized}
}

// LoadCatalog читает YAML-файл переводов. Верхний уровень файла содержит домены,
// внутри домена допускается вложенность, ключи склеиваются через точку.
func LoadCatalog(path, domain string) (*Catalog, error) {
	// Имена доменов содержат точку, поэтому разделитель ключей viper меняем
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("ошибка чтения файла переводов %s: %w", path, err)
	}

	tree, ok := v.Get(domain).(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("домен переводов %q не найден в %s", domain, path)
	}

	messages := make(map[string]string)
	flatten("", tree, messages)

	return NewCatalog(domain, messages), nil
}

func flatten(prefix string, tree map[string]interface{}, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case map[interface{}]interface{}:
			converted := make(map[string]interface{}, len(val))
			for ik, iv := range val {
				converted[fmt.Sprint(ik)] = iv
			}
			flatten(key, converted, out)
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// Domain возвращает имя домена словаря
func (c *Catalog) Domain() string { return c.domain }

// Translate реализация Translator. Viper приводит ключи к нижнему регистру,
// поэтому поиск регистронезависимый.
func (c *Catalog) Translate(key string) (string, bool) {
	if c == nil {
		return "", false
	}
	msg, ok := c.messages[strings.ToLower(key)]
	if !ok || msg == "" {
		return "", false
	}
	return msg, true
}

type nop struct{}

// Nop переводчик без словаря, всегда возвращает false
func Nop() Translator { return nop{} }

func (nop) Translate(string) (string, bool) { return "", false }
