// internal/handler/account_handler.go
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/socialify/inbox-backend/internal/model"
	"github.com/socialify/inbox-backend/internal/repository"
)

// AccountHandler serves the tenant's connected business accounts. Encrypted
// credentials never leave the model's json:"-" fields.
type AccountHandler struct {
	TenantRepo repository.TenantRepositoryInterface
}

func NewAccountHandler(repo repository.TenantRepositoryInterface) *AccountHandler {
	return &AccountHandler{TenantRepo: repo}
}

type accountView struct {
	model.BusinessAccount
	PhoneNumbers []model.PhoneNumber `json:"phone_numbers"`
}

// ListAccountsHandler returns the tenant's connected accounts with their
// phone numbers.
func (h *AccountHandler) ListAccountsHandler(w http.ResponseWriter, r *http.Request) {
	tenantID, err := requestTenantID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	accounts, err := h.TenantRepo.ListAccounts(tenantID)
	if err != nil {
		http.Error(w, "failed to fetch accounts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	views := []accountView{}
	for _, account := range accounts {
		phones, err := h.TenantRepo.ListPhoneNumbers(account.ID)
		if err != nil {
			http.Error(w, "failed to fetch phone numbers: "+err.Error(), http.StatusInternalServerError)
			return
		}
		views = append(views, accountView{BusinessAccount: account, PhoneNumbers: phones})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"data": views})
}
