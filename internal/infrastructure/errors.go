package infra

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CodeRetakeCooldown backend business-rule code for a blocked interview retake
const CodeRetakeCooldown = "RETAKE_COOLDOWN"

// APIError error decoded from a backend response.
// The backend reports errors as `{ "error": "..." }` or `{ "message": "..." }`
// with a non-2xx status; either field may carry the human readable text.
type APIError struct {
	Status int    `json:"-"`
	Code   string `json:"code,omitempty"`
	Title  string `json:"error,omitempty"`
	Detail string `json:"message,omitempty"`
}

func (ae *APIError) Error() string {
	if ae.Detail != "" {
		return ae.Detail
	}
	if ae.Title != "" {
		return ae.Title
	}
	return http.StatusText(ae.Status)
}

// Unauthorized report whether the backend rejected the session
func (ae *APIError) Unauthorized() bool {
	return ae.Status == http.StatusUnauthorized
}

// RetakeCooldownError business-rule rejection with the next eligible date,
// surfaced to the user as a distinct message rather than a generic failure
type RetakeCooldownError struct {
	RetakeDate time.Time
}

func (re *RetakeCooldownError) Error() string {
	return fmt.Sprintf("You can retake this interview on %s", re.RetakeDate.Format("Jan 2, 2006"))
}

// DecodeAPIError turn a non-2xx response body into a typed error.
// Unparseable bodies still yield an APIError carrying the status code.
func DecodeAPIError(status int, body []byte) error {
	var payload struct {
		Error      string `json:"error"`
		Message    string `json:"message"`
		Code       string `json:"code"`
		RetakeDate string `json:"retakeDate"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return &APIError{Status: status}
	}
	if payload.Code == CodeRetakeCooldown {
		if at, err := time.Parse(time.RFC3339, payload.RetakeDate); err == nil {
			return &RetakeCooldownError{RetakeDate: at}
		}
	}
	return &APIError{
		Status: status,
		Code:   payload.Code,
		Title:  payload.Error,
		Detail: payload.Message,
	}
}
