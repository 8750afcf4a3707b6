package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrUnknownProvider возвращается для провайдера без настроенного секрета.
var ErrUnknownProvider = errors.New("unknown payment provider")

// ErrBadSignature возвращается при несовпадении подписи уведомления.
var ErrBadSignature = errors.New("invalid webhook signature")

// HMACVerifier проверяет подпись вебхука: HMAC-SHA256 от тела запроса,
// закодированный в base64, ключ — секрет провайдера.
type HMACVerifier struct {
	secrets map[string]string // провайдер -> секрет
}

// NewHMACVerifier создаёт верификатор. Провайдеры с пустым секретом
// считаются ненастроенными и отклоняются.
func NewHMACVerifier(secrets map[string]string) *HMACVerifier {
	filtered := make(map[string]string, len(secrets))
	for provider, secret := range secrets {
		if secret != "" {
			filtered[provider] = secret
		}
	}
	return &HMACVerifier{secrets: filtered}
}

// Verify проверяет подпись уведомления провайдера.
func (v *HMACVerifier) Verify(provider string, body []byte, signature string) error {
	const op = "paymentprovider.Verify"
	secret, ok := v.secrets[provider]
	if !ok {
		return fmt.Errorf("%s: %w: %s", op, ErrUnknownProvider, provider)
	}
	if signature == "" {
		return fmt.Errorf("%s: %w", op, ErrBadSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%s: %w", op, ErrBadSignature)
	}
	return nil
}
