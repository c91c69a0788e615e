package cli

import (
	"errors"
	"fmt"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

var (
	errMissingPassword = errors.New("missing password: pass --password-stdin or set MAILTASKS_PASSWORD")
	errNotSignedIn     = errors.New("not signed in; run 'mailtasks login'")
)
