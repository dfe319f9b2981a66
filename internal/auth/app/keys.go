package app

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/hms-dta/agencyauth/pkg/cryptox"
	"github.com/hms-dta/agencyauth/pkg/jwtx"
)

// minSecretLen guards against secrets short enough to brute-force the HMAC.
const minSecretLen = 32

// InitSigningKeys builds the key set from configuration. Keys are added in
// sorted kid order so the active key is deterministic when ACTIVE_KID is not
// set. Without any configured keys an ephemeral secret is generated: fine
// for development, but every restart invalidates all outstanding tokens.
func InitSigningKeys(cfg Config, logger *slog.Logger) (*jwtx.KeySet, error) {
	keys := jwtx.NewKeySet()

	if len(cfg.SigningKeys) == 0 {
		secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, fmt.Errorf("failed to generate ephemeral signing key: %w", err)
		}
		keys.Add("ephemeral", []byte(secret))
		logger.Warn("no signing keys configured, generated an ephemeral key; tokens will not survive a restart")
		return keys, nil
	}

	kids := make([]string, 0, len(cfg.SigningKeys))
	for kid := range cfg.SigningKeys {
		kids = append(kids, kid)
	}
	sort.Strings(kids)

	for _, kid := range kids {
		secret := cfg.SigningKeys[kid]
		if len(secret) < minSecretLen {
			return nil, fmt.Errorf("signing key %q is too short (%d bytes, need %d)", kid, len(secret), minSecretLen)
		}
		keys.Add(kid, []byte(secret))
	}

	if cfg.ActiveKID != "" {
		if err := keys.SetActive(cfg.ActiveKID); err != nil {
			return nil, fmt.Errorf("active kid %q is not among the configured signing keys", cfg.ActiveKID)
		}
	}

	active, _, _ := keys.Active()
	logger.Info("signing keys loaded", "keys", len(kids), "active_kid", active)
	return keys, nil
}
