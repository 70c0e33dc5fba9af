package response

import (
	"encoding/json"
	"net/http"
)

type SuccessResponse struct {
	Data       interface{} `json:"data"`
	Cursor     string      `json:"cursor,omitempty"`
	StatusCode int         `json:"-"`
}

func (r SuccessResponse) Send(w http.ResponseWriter) {
	if r.StatusCode == 0 {
		r.StatusCode = http.StatusOK
	}
	w.WriteHeader(r.StatusCode)
	json.NewEncoder(w).Encode(r)
}
