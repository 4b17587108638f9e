package handlers

import (
	"net/http"

	"clipcast/internal/domain"
)

// Me reports the caller's identity and credit balance.
func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	subjectID := a.currentSubject(r)
	if subjectID == "" {
		a.error(w, http.StatusUnauthorized, "auth_invalid", "missing subject context")
		return
	}
	credits, err := a.Ledger.Balance(r.Context(), subjectID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	account := domain.Account{SubjectID: subjectID, Credits: credits}
	a.json(w, http.StatusOK, map[string]any{
		"subject_id": account.SubjectID,
		"credits":    account.Credits,
	})
}
