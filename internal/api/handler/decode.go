package handler

import (
	"encoding/json"
	"net/http"

	"blog_api/internal/common"
	"blog_api/internal/common/validation"
)

type validatable interface {
	Validate() validation.Result
}

// decodeRequest reads the JSON body into dst and validates it, answering 400
// itself when either step fails.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	if res := dst.Validate(); !res.Valid() {
		common.RespondWithValidation(w, res)
		return false
	}
	return true
}
