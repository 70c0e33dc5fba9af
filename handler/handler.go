package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	c "ticket-marketplace-backend/context"
	"ticket-marketplace-backend/response"
)

var validate = validator.New()

// decode reads a {"data": {...}} body into req and checks its validate tags.
func decode(r *http.Request, req interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return response.BadRequest("invalid request body", fmt.Sprintf("error unmarshalling request body: %v", err))
	}
	if err := validate.Struct(req); err != nil {
		return response.InvalidData(err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (uint64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, response.InvalidData(fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return id, nil
}

// caller returns the authenticated principal, or an Unauthorized response
// when the request is anonymous.
func caller(r *http.Request) (string, error) {
	principal := c.Principal(r.Context())
	if principal == "" {
		return "", response.Unauthorized()
	}
	return principal, nil
}

func fail(w http.ResponseWriter, r *http.Request, err error) {
	response.FromError(err).Send(r.Context(), w)
}

func Healthcheck(w http.ResponseWriter, r *http.Request) {
	response.SuccessResponse{
		Data:       map[string]string{"status": "ok"},
		StatusCode: http.StatusOK,
	}.Send(w)
}
