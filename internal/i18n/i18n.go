// internal/i18n/i18n.go
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/farmlink/discovery/internal/config"
)

// Catalog holds the message tables for every locale found on disk. It is
// read-only after Load.
type Catalog struct {
	messages      map[string]map[string]string
	defaultLocale string
}

// regionAliases maps script and region tags onto the locale that serves them.
var regionAliases = map[string]string{
	"zh_hant": "zh_TW",
	"zh_hk":   "zh_TW",
	"zh_mo":   "zh_TW",
}

var (
	catalog *Catalog
	once    sync.Once
)

// Initialize loads the process-wide catalog once. Later calls are no-ops.
func Initialize(cfg config.I18nConfig) error {
	var err error
	once.Do(func() {
		catalog, err = Load(cfg)
	})
	return err
}

// Load reads every <locale>.json under cfg.LocalesPath. The default locale
// must be among them.
func Load(cfg config.I18nConfig) (*Catalog, error) {
	defaultLocale := normalize(cfg.DefaultLocale)
	if defaultLocale == "" {
		defaultLocale = "en"
	}

	files, err := filepath.Glob(filepath.Join(cfg.LocalesPath, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("invalid locales path %q: %w", cfg.LocalesPath, err)
	}

	c := &Catalog{
		messages:      make(map[string]map[string]string, len(files)),
		defaultLocale: defaultLocale,
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale file %s: %w", file, err)
		}

		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("failed to parse locale file %s: %w", file, err)
		}
		c.messages[normalize(strings.TrimSuffix(filepath.Base(file), ".json"))] = messages
	}

	if _, ok := c.messages[defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q not found in %s", defaultLocale, cfg.LocalesPath)
	}
	return c, nil
}

// normalize turns "zh-tw" or "zh_TW" into "zh_TW" and "EN" into "en".
func normalize(tag string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "-", "_"))
	if tag == "" {
		return ""
	}
	parts := strings.SplitN(tag, "_", 2)
	base := strings.ToLower(parts[0])
	if len(parts) == 1 {
		return base
	}
	if alias, ok := regionAliases[base+"_"+strings.ToLower(parts[1])]; ok {
		return alias
	}
	return base + "_" + strings.ToUpper(parts[1])
}

// resolve returns the loaded locale serving tag: exact match first, then
// any locale sharing its base language.
func (c *Catalog) resolve(tag string) (string, bool) {
	locale := normalize(tag)
	if locale == "" {
		return "", false
	}
	if _, ok := c.messages[locale]; ok {
		return locale, true
	}

	base := strings.SplitN(locale, "_", 2)[0]
	if _, ok := c.messages[base]; ok {
		return base, true
	}
	for _, candidate := range c.sortedLocales() {
		if strings.HasPrefix(candidate, base+"_") {
			return candidate, true
		}
	}
	return "", false
}

// Match picks the locale for an Accept-Language header, honoring the
// listed order and falling back to the default locale.
func (c *Catalog) Match(header string) string {
	for _, entry := range strings.Split(header, ",") {
		tag := strings.Split(entry, ";")[0]
		if locale, ok := c.resolve(tag); ok {
			return locale
		}
	}
	return c.defaultLocale
}

// T translates key for locale, falling back to the base language, then the
// default locale, then the key itself.
func (c *Catalog) T(locale, key string, args ...interface{}) string {
	chain := make([]string, 0, 2)
	if resolved, ok := c.resolve(locale); ok {
		chain = append(chain, resolved)
	}
	chain = append(chain, c.defaultLocale)

	for _, l := range chain {
		if text, ok := c.messages[l][key]; ok {
			if len(args) > 0 {
				return fmt.Sprintf(text, args...)
			}
			return text
		}
	}
	return key
}

func (c *Catalog) sortedLocales() []string {
	locales := make([]string, 0, len(c.messages))
	for l := range c.messages {
		locales = append(locales, l)
	}
	sort.Strings(locales)
	return locales
}

// Locales lists the loaded locales in sorted order.
func (c *Catalog) Locales() []string {
	return c.sortedLocales()
}

func T(locale, key string, args ...interface{}) string {
	if catalog != nil {
		return catalog.T(locale, key, args...)
	}
	return key
}

// Match resolves an Accept-Language header against the process catalog.
func Match(header, fallback string) string {
	if catalog == nil {
		return fallback
	}
	return catalog.Match(header)
}

func SupportedLocales() []string {
	if catalog == nil {
		return nil
	}
	return catalog.Locales()
}
