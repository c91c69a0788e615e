// Package i18n localizes user-facing notices.
package i18n

import (
	"embed"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.toml
var localeFS embed.FS

var supported = []language.Tag{language.English, language.BrazilianPortuguese}

var (
	bundleOnce sync.Once
	bundle     *goi18n.Bundle
	matcher    = language.NewMatcher(supported)
)

func loadBundle() *goi18n.Bundle {
	bundleOnce.Do(func() {
		bundle = goi18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
		entries, err := localeFS.ReadDir("locales")
		if err != nil {
			slog.Debug("i18n: read locales", "err", err)
			return
		}
		for _, e := range entries {
			p := path.Join("locales", e.Name())
			b, err := localeFS.ReadFile(p)
			if err != nil {
				slog.Debug("i18n: read locale", "file", p, "err", err)
				continue
			}
			if _, err := bundle.ParseMessageFileBytes(b, p); err != nil {
				slog.Debug("i18n: parse locale", "file", p, "err", err)
			}
		}
	})
	return bundle
}

// Resolve maps a user preference ("pt", "pt_BR.UTF-8", "en-US", ...) onto a
// supported locale tag. Unknown or empty input resolves to English.
func Resolve(pref string) string {
	if i := strings.IndexAny(pref, ".@"); i >= 0 {
		pref = pref[:i]
	}
	pref = strings.ReplaceAll(strings.TrimSpace(pref), "_", "-")
	if pref == "" || pref == "C" || pref == "POSIX" {
		return language.English.String()
	}
	tag, _, _ := matcher.Match(language.Make(pref))
	base, _ := tag.Base()
	if base.String() == "pt" {
		return language.BrazilianPortuguese.String()
	}
	return language.English.String()
}

// Supported lists the locale tags with message files.
func Supported() []string {
	out := make([]string, 0, len(supported))
	for _, t := range supported {
		out = append(out, t.String())
	}
	return out
}

type Localizer struct {
	Lang string
	loc  *goi18n.Localizer
}

func New(pref string) *Localizer {
	lang := Resolve(pref)
	return &Localizer{Lang: lang, loc: goi18n.NewLocalizer(loadBundle(), lang)}
}

// T translates id. A nil Localizer uses English. A missing id returns the id.
func (l *Localizer) T(id string) string {
	return l.TData(id, nil)
}

func (l *Localizer) TData(id string, data map[string]any) string {
	if l == nil {
		l = New("")
	}
	msg, err := l.loc.Localize(&goi18n.LocalizeConfig{MessageID: id, TemplateData: data})
	if err != nil {
		slog.Debug("i18n: missing translation", "id", id, "lang", l.Lang, "err", err)
		return id
	}
	return msg
}
