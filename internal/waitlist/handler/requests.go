package handler

import (
	"encoding/json"

	"pocketly/internal/waitlist/models"
	dErrors "pocketly/pkg/domain-errors"
	"pocketly/pkg/email"
)

var (
	errMalformed    = dErrors.New(dErrors.CodeBadRequest, "invalid request format")
	errInvalidEmail = dErrors.New(dErrors.CodeValidation, "please enter a valid email")
)

// decodeSubscribeRequest parses body in two passes. Syntax is checked before
// any field is looked at, so a broken body is always errMalformed. A well-formed
// body that is not an object, or whose email is missing, not a string or not
// an address, is errInvalidEmail.
func decodeSubscribeRequest(body []byte) (*models.SubscribeRequest, error) {
	if !json.Valid(body) {
		return nil, errMalformed
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, errInvalidEmail
	}
	raw, ok := fields["email"]
	if !ok {
		return nil, errInvalidEmail
	}
	var address string
	if err := json.Unmarshal(raw, &address); err != nil {
		return nil, errInvalidEmail
	}

	req := &models.SubscribeRequest{Email: address}
	if err := validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

func validate(req *models.SubscribeRequest) error {
	if req.Email == "" || !email.IsValid(req.Email) {
		return errInvalidEmail
	}
	return nil
}
