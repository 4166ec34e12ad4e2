package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/NirajanKhadka/JobQst-sub000/internal/config"
	"github.com/NirajanKhadka/JobQst-sub000/internal/secrets"
)

type SecretsHandler struct {
	CfgVal *atomic.Value // stores config.Config
}

type setSecretReq struct {
	Value string `json:"value"`
}

// SetIMAPPassword stores the password under the account derived from
// the active config, so the keychain entry always matches the mailbox
// the scraper will log into.
func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setSecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	ea := cfg.Scrape.EmailAlert
	if strings.TrimSpace(ea.Username) == "" {
		WriteError(w, r, http.StatusBadRequest, "no_account", "scrape.email_alert.username is empty in the config")
		return
	}
	account := secrets.IMAPAccount(ea.Username, ea.Addr)
	if err := secrets.SetIMAPPassword(account, req.Value); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) SetAnthropicKey(w http.ResponseWriter, r *http.Request) {
	var req setSecretReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := secrets.SetAnthropicKey(req.Value); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_error", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
