// Package apperr defines the error kinds shared by every relay stage.
//
// Each stage reports failures as *Error values tagged with a Kind. The HTTP
// layer maps a Kind to a fixed status code and body, so a stage never needs
// to know how its failure is presented to the webhook sender.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindUnexpected is the catch-all for errors that carry no kind.
	KindUnexpected Kind = iota
	// KindConfiguration means required configuration (secret, URL, API key) is missing.
	KindConfiguration
	// KindValidation means the inbound payload is malformed or incomplete.
	KindValidation
	// KindAuthentication means the signature is missing or does not match.
	KindAuthentication
	// KindStale means the webhook timestamp is outside the freshness window.
	KindStale
	// KindUpstream means the Linear API call failed.
	KindUpstream
	// KindDelivery means the Slack webhook POST failed.
	KindDelivery
)

var kindNames = map[Kind]string{
	KindUnexpected:     "unexpected",
	KindConfiguration:  "configuration",
	KindValidation:     "validation",
	KindAuthentication: "authentication",
	KindStale:          "stale",
	KindUpstream:       "upstream",
	KindDelivery:       "delivery",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a failure tagged with its Kind and the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an *Error of the given kind.
func New(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Configuration reports missing or unusable configuration.
func Configuration(op, msg string) *Error {
	return New(KindConfiguration, op, msg, nil)
}

// Validation reports a malformed payload.
func Validation(op, msg string, err error) *Error {
	return New(KindValidation, op, msg, err)
}

// Authentication reports a signature failure.
func Authentication(op, msg string) *Error {
	return New(KindAuthentication, op, msg, nil)
}

// Stale reports a timestamp outside the freshness window.
func Stale(op, msg string) *Error {
	return New(KindStale, op, msg, nil)
}

// Upstream reports a Linear API failure.
func Upstream(op, msg string, err error) *Error {
	return New(KindUpstream, op, msg, err)
}

// Delivery reports a Slack delivery failure.
func Delivery(op, msg string, err error) *Error {
	return New(KindDelivery, op, msg, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnexpected when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

// OpOf returns the operation recorded on the first *Error in err's chain.
func OpOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Op
	}
	return ""
}
