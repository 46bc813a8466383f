package i18n

import (
	"sort"
	"strings"
	"sync"
)

// Translator retrieves localized messages for validation issues.
// key identifies the message template (for example "required" or
// "array.max"); data provides values substituted for `{name}` placeholders
// such as "path", "values", "min" or "max".
type Translator interface {
	Message(key string, data map[string]string) string
}

var dictionaries = map[string]map[string]string{
	"en": {
		"required":   "{path} is a required field",
		"oneOf":      "{path} must be one of the following values: {values}",
		"typeError":  "{path} must be a `{type}` type",
		"matches":    "{path} must match the following: \"{regex}\"",
		"email":      "{path} must be a valid email",
		"integer":    "{path} must be an integer",
		"unknown":    "{path} field has unspecified keys: {keys}",
		"custom":     "{path} is invalid",
		"string.min": "{path} must be at least {min} characters",
		"string.max": "{path} must be at most {max} characters",
		"number.min": "{path} must be greater than or equal to {min}",
		"number.max": "{path} must be less than or equal to {max}",
		"array.min":  "{path} field must have at least {min} items",
		"array.max":  "{path} field must have less than or equal to {max} items",
	},
	"ja": {
		"required":   "{path}は必須項目です",
		"oneOf":      "{path}は次のいずれかである必要があります: {values}",
		"typeError":  "{path}は`{type}`型である必要があります",
		"matches":    "{path}は次の形式に一致する必要があります: \"{regex}\"",
		"email":      "{path}は有効なメールアドレスである必要があります",
		"integer":    "{path}は整数である必要があります",
		"unknown":    "{path}に未定義のキーがあります: {keys}",
		"custom":     "{path}が不正です",
		"string.min": "{path}は{min}文字以上である必要があります",
		"string.max": "{path}は{max}文字以下である必要があります",
		"number.min": "{path}は{min}以上である必要があります",
		"number.max": "{path}は{max}以下である必要があります",
		"array.min":  "{path}は{min}件以上である必要があります",
		"array.max":  "{path}は{max}件以下である必要があります",
	},
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(key string, data map[string]string) string {
	tmpl, ok := dictionaries[t.lang][key]
	if !ok {
		if tmpl, ok = dictionaries["en"][key]; !ok {
			return key
		}
	}
	return Render(tmpl, data)
}

// Render substitutes `{name}` placeholders in tmpl with entries of data.
// Unknown placeholders are left as is.
func Render(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	names := make([]string, 0, len(data))
	for k := range data {
		names = append(names, k)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(names))
	for _, k := range names {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if _, ok := dictionaries[lang]; !ok {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given key using the current Translator.
func T(key string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(key, data)
}
