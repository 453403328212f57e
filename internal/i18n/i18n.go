// Package i18n renders the bot's reply texts.
package i18n

import (
	"embed"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github/chapool/chat-wallet/internal/config"
	"golang.org/x/text/language"
)

//go:embed messages/*.toml
var messageFiles embed.FS

// Data is passed to message templates.
type Data map[string]any

type Service struct {
	bundle     *i18n.Bundle
	matcher    language.Matcher
	localizers map[language.Tag]*i18n.Localizer
	fallback   *i18n.Localizer
}

// New loads every embedded message file. The default language must be among them.
func New(cfg config.I18n) (*Service, error) {
	defaultLang, err := language.Parse(cfg.DefaultLanguage)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid default language %q", cfg.DefaultLanguage)
	}

	bundle := i18n.NewBundle(defaultLang)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	entries, err := messageFiles.ReadDir("messages")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list message files")
	}

	for _, entry := range entries {
		data, err := messageFiles.ReadFile(path.Join("messages", entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read message file %s", entry.Name())
		}

		if _, err := bundle.ParseMessageFileBytes(data, entry.Name()); err != nil {
			return nil, errors.Wrapf(err, "failed to parse message file %s", entry.Name())
		}
	}

	tags := bundle.LanguageTags()
	localizers := make(map[language.Tag]*i18n.Localizer, len(tags))
	for _, tag := range tags {
		localizers[tag] = i18n.NewLocalizer(bundle, tag.String())
	}

	fallback, ok := localizers[defaultLang]
	if !ok {
		return nil, errors.Errorf("no messages for default language %s", defaultLang)
	}

	return &Service{
		bundle:     bundle,
		matcher:    language.NewMatcher(tags),
		localizers: localizers,
		fallback:   fallback,
	}, nil
}

// Translate renders key in the language closest to lang. Unknown keys render as the key itself.
func (s *Service) Translate(key string, lang string, data ...Data) string {
	var templateData Data
	if len(data) > 0 {
		templateData = data[0]
	}

	msg, err := s.localizer(lang).Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: templateData,
	})
	if err != nil {
		log.Debug().Err(err).Str("key", key).Str("lang", lang).Msg("Failed to translate message")
		return key
	}

	return msg
}

func (s *Service) localizer(lang string) *i18n.Localizer {
	if lang == "" {
		return s.fallback
	}

	_, index, confidence := s.matcher.Match(language.Make(lang))
	if confidence == language.No {
		return s.fallback
	}

	return s.localizers[s.bundle.LanguageTags()[index]]
}
