package rpcerr

import (
	"context"
	"errors"
	"net"
	"strings"
)

// TransportError is the Go-native stand-in for the python source's
// requests.ConnectionError / ReadTimeout / HTTPError triad: a network
// round-trip failed before or during a response, as opposed to the
// remote node rejecting the call's arguments.
type TransportError struct {
	Kind string // "connection", "timeout", "http"
	Err  error
}

func (e *TransportError) Error() string { return e.Kind + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

func NewConnectionError(err error) *TransportError { return &TransportError{Kind: "connection", Err: err} }
func NewTimeoutError(err error) *TransportError    { return &TransportError{Kind: "timeout", Err: err} }
func NewHTTPError(err error) *TransportError       { return &TransportError{Kind: "http", Err: err} }

// IsConnection reports whether err is (or wraps) a connection-class
// TransportError.
func IsConnection(err error) bool { return hasKind(err, "connection") }

// IsTimeout reports whether err is (or wraps) a timeout-class
// TransportError.
func IsTimeout(err error) bool { return hasKind(err, "timeout") }

func hasKind(err error, kind string) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Kind == kind
	}
	return false
}

// ClassifyTransport turns a raw net/rpc error into a TransportError
// when it looks like a connectivity problem, leaving anything else
// (including legitimate JSON-RPC rejections) untouched.
func ClassifyTransport(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return NewTimeoutError(err)
		}
		return NewConnectionError(err)
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "eof") {
		return NewConnectionError(err)
	}
	return err
}

// benignBroadcastSubstrings are the known-benign ValueError-equivalent
// messages a node can return for send_raw_transaction when the same
// signed payload is observed by more than one endpoint, or is merely
// no longer sendable for a reason that doesn't indicate the broadcast
// itself failed. Matched case-insensitively, verbatim from the
// original implementation.
var benignBroadcastSubstrings = []string{
	"nonce too low",
	"already known",
	"transaction underpriced",
	"account suspended",
	"exceeds the configured cap",
}

const overdraftSubstring = "transaction would cause overdraft"
const overdraftChainID = 97

// IsBenignBroadcastError reports whether err (assumed to already be a
// rejection of the raw transaction, i.e. a ValueError-equivalent)
// should be treated as a silent soft failure rather than logged as
// unexpected. chainID is used for the chain-97 (BSC) special case.
func IsBenignBroadcastError(err error, chainID uint64) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range benignBroadcastSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	if chainID == overdraftChainID && strings.Contains(msg, overdraftSubstring) {
		return true
	}
	return false
}

// ValueError is the Go-native stand-in for a JSON-RPC node rejecting
// the raw transaction payload itself (as opposed to a transport
// failure) — spec.md's "generic ValueError".
type ValueError struct {
	Err error
}

func (e *ValueError) Error() string { return "value error: " + e.Err.Error() }
func (e *ValueError) Unwrap() error { return e.Err }

func NewValueError(err error) *ValueError { return &ValueError{Err: err} }
