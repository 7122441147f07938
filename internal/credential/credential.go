// Package credential holds the username/password pair used to retry an
// authenticated remote operation, and the form encoding the credential
// dialog produces: URI-component-encoded JSON of {username, password}.
package credential

import (
	"encoding/json"
	"net/url"

	"github.com/penwyp/gitpane/internal/errors"
)

// Credential 是一次重试所需的用户名与密码，仅用于单次调用，不做持久化。
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// String hides the password so a Credential can be passed to loggers.
func (c Credential) String() string {
	return "Credential{Username: " + c.Username + ", Password: ***}"
}

// Encode serializes c the way the credentials form submits it.
func Encode(c Credential) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", errors.Wrap(errors.ErrTypeValidation, "failed to encode credential", err)
	}
	return url.PathEscape(string(data)), nil
}

// Decode reverses Encode. Input produced by a browser's
// encodeURIComponent decodes the same way.
func Decode(value string) (Credential, error) {
	raw, err := url.PathUnescape(value)
	if err != nil {
		return Credential{}, errors.Wrap(errors.ErrTypeValidation, "malformed credential form value", err)
	}

	var c Credential
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Credential{}, errors.Wrap(errors.ErrTypeValidation, "malformed credential form value", err)
	}
	return c, nil
}
