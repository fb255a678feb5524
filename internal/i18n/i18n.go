// internal/i18n/i18n.go
package i18n

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//go:embed locales/*.json
var bundled embed.FS

var localeFiles = []string{"en.json", "ko.json"}

type I18n struct {
	mu           sync.RWMutex
	translations map[string]map[string]string
	defaultLang  string
}

var (
	instance *I18n
	once     sync.Once
)

// Initialize loads the bundled translations, then any overrides found in
// localesPath. defaultLang is used when a key is missing in the requested language.
func Initialize(defaultLang, localesPath string) error {
	var err error
	once.Do(func() {
		instance, err = New(defaultLang, localesPath)
	})
	return err
}

func New(defaultLang, localesPath string) (*I18n, error) {
	if defaultLang == "" {
		defaultLang = "ko"
	}
	i := &I18n{
		translations: make(map[string]map[string]string),
		defaultLang:  defaultLang,
	}

	sub, err := fs.Sub(bundled, "locales")
	if err != nil {
		return nil, err
	}
	if err := i.LoadTranslations(sub, false); err != nil {
		return nil, err
	}

	if localesPath != "" {
		if err := i.LoadTranslations(os.DirFS(localesPath), true); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// LoadTranslations merges locale files from fsys. With optional set, missing
// files are skipped.
func (i *I18n) LoadTranslations(fsys fs.FS, optional bool) error {
	for _, file := range localeFiles {
		lang := strings.TrimSuffix(file, ".json")

		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			if optional && errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to read locale file %s: %w", filepath.Base(file), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return fmt.Errorf("failed to unmarshal locale file %s: %w", file, err)
		}

		i.mu.Lock()
		if i.translations[lang] == nil {
			i.translations[lang] = make(map[string]string, len(translations))
		}
		for k, v := range translations {
			i.translations[lang][k] = v
		}
		i.mu.Unlock()
	}

	return nil
}

func (i *I18n) T(lang, key string, args ...interface{}) string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if text, ok := i.lookup(lang, key); ok {
		return format(text, args)
	}

	// Fallback to default language
	if lang != i.defaultLang {
		if text, ok := i.lookup(i.defaultLang, key); ok {
			return format(text, args)
		}
	}

	// Return key if no translation found
	return key
}

func (i *I18n) lookup(lang, key string) (string, bool) {
	translations, ok := i.translations[lang]
	if !ok {
		return "", false
	}
	text, ok := translations[key]
	return text, ok
}

func (i *I18n) DefaultLanguage() string {
	return i.defaultLang
}

func format(text string, args []interface{}) string {
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// Global functions
func T(lang, key string, args ...interface{}) string {
	if instance != nil {
		return instance.T(lang, key, args...)
	}
	return key
}

// DefaultLanguage reports the configured fallback language.
func DefaultLanguage() string {
	if instance == nil {
		return "ko"
	}
	return instance.defaultLang
}

func GetSupportedLanguages() []string {
	if instance == nil {
		return []string{"en", "ko"}
	}

	instance.mu.RLock()
	defer instance.mu.RUnlock()

	langs := make([]string, 0, len(instance.translations))
	for lang := range instance.translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
