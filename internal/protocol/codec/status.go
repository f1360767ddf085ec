package codec

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
)

const (
	AttrStatusCode    = "statusCode"
	AttrStatusMessage = "statusMessage"
)

var ErrStatus = errors.New("codec: unexpected status")

// StatusError is the protocol error raised when a response node carries a
// status code other than the one the caller expected.
type StatusError struct {
	Code     string
	Expected string
	Message  string
	Node     string
}

func (e *StatusError) Error() string {
	code := e.Code
	if code == "" {
		code = "none"
	}
	if e.Node == "" {
		return fmt.Sprintf("fishbowl: %s (status=%s)", e.Message, code)
	}
	return fmt.Sprintf("fishbowl: %s: %s (status=%s)", e.Node, e.Message, code)
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// Status reads the status pair carried on el. present is false when el is nil
// or has no status code attribute.
func Status(el *etree.Element) (code, message string, present bool) {
	if el == nil {
		return "", "", false
	}
	attr := el.SelectAttr(AttrStatusCode)
	if attr == nil {
		return "", el.SelectAttrValue(AttrStatusMessage, ""), false
	}
	return attr.Value, el.SelectAttrValue(AttrStatusMessage, ""), true
}

// CheckStatus returns the status message of el, or a *StatusError when the
// code differs from expected. A missing code only passes with allowNone.
func CheckStatus(el *etree.Element, expected string, allowNone bool) (string, error) {
	code, message, present := Status(el)
	if message == "" {
		message = StatusMessage(code)
	}
	if present && code == expected {
		return message, nil
	}
	if !present && allowNone {
		return message, nil
	}
	node := ""
	if el != nil {
		node = el.Tag
	}
	return message, &StatusError{Code: code, Expected: expected, Message: message, Node: node}
}
