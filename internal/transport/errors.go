package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

type Kind int

const (
	KindTransport Kind = iota
	KindUnauthenticated
	KindValidation
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not-found"
	case KindConflict:
		return "conflict"
	default:
		return "transport"
	}
}

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrTransport       = errors.New("transport failure")
)

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthenticated:
		return ErrUnauthenticated
	case KindValidation:
		return ErrValidation
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	default:
		return ErrTransport
	}
}

// Error is the uniform failure surface of the adapter. Match it with
// errors.Is against the Err* sentinels, or errors.As for details.
type Error struct {
	Kind      Kind
	Op        string
	Status    int
	Message   string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf classifies any error returned by this package (or wrapping one).
func KindOf(err error) (Kind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated, true
	case errors.Is(err, ErrValidation):
		return KindValidation, true
	case errors.Is(err, ErrNotFound):
		return KindNotFound, true
	case errors.Is(err, ErrConflict):
		return KindConflict, true
	case errors.Is(err, ErrTransport):
		return KindTransport, true
	}
	return KindTransport, false
}

// ServerMessage returns the backend-supplied message carried by err, if any.
func ServerMessage(err error) string {
	var te *Error
	if errors.As(err, &te) {
		return te.Message
	}
	return ""
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthenticated
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	default:
		return KindTransport
	}
}

// serverMessage extracts a human message from an error body.
// Recognized shapes: {"message"}, {"error"}, {"errors":[{"defaultMessage"}]} and plain text.
func serverMessage(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "{") {
		var env struct {
			Message string `json:"message"`
			Error   string `json:"error"`
			Errors  []struct {
				DefaultMessage string `json:"defaultMessage"`
				Message        string `json:"message"`
			} `json:"errors"`
		}
		if err := json.Unmarshal(body, &env); err == nil {
			var parts []string
			for _, e := range env.Errors {
				if m := strings.TrimSpace(e.DefaultMessage); m != "" {
					parts = append(parts, m)
				} else if m := strings.TrimSpace(e.Message); m != "" {
					parts = append(parts, m)
				}
			}
			switch {
			case len(parts) > 0:
				return strings.Join(parts, "; ")
			case strings.TrimSpace(env.Message) != "":
				return strings.TrimSpace(env.Message)
			case strings.TrimSpace(env.Error) != "":
				return strings.TrimSpace(env.Error)
			}
			return ""
		}
	}
	if strings.HasPrefix(s, "<") {
		// HTML error pages carry nothing worth showing.
		return ""
	}
	return clipRunes(s, maxServerMessage)
}

const maxServerMessage = 300

// clipRunes cuts s to at most n bytes without splitting a UTF-8 sequence.
func clipRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
