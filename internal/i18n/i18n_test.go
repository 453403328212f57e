package i18n_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/chat-wallet/internal/config"
	"github/chapool/chat-wallet/internal/i18n"
)

func newService(t *testing.T) *i18n.Service {
	t.Helper()
	s, err := i18n.New(config.I18n{DefaultLanguage: "en"})
	require.NoError(t, err)
	return s
}

func TestTranslateWithData(t *testing.T) {
	s := newService(t)

	msg := s.Translate("account_assigned", "en", i18n.Data{"Index": 3, "Address": "0xabc"})
	assert.Equal(t, "Assigned HD index 3. Address: 0xabc", msg)
}

func TestTranslateFallsBackToDefaultLanguage(t *testing.T) {
	s := newService(t)

	assert.Equal(t, "Cancelled.", s.Translate("cancelled", "de-AT"))
	assert.Equal(t, "Cancelled.", s.Translate("cancelled", ""))
}

func TestTranslateUnknownKey(t *testing.T) {
	s := newService(t)
	assert.Equal(t, "does_not_exist", s.Translate("does_not_exist", "en"))
}

func TestHelpListsCommands(t *testing.T) {
	s := newService(t)
	help := s.Translate("help", "en", i18n.Data{"Network": "chain 31337"})
	for _, cmd := range []string{"/send", "/token_send", "/verify", "/faucet", "/history", "/cancel"} {
		assert.Contains(t, help, cmd)
	}
}

func TestNewRejectsUnknownDefault(t *testing.T) {
	_, err := i18n.New(config.I18n{DefaultLanguage: "xx-invalid-"})
	assert.Error(t, err)
}
