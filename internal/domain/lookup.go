// Package domain provides the core lookup types and the application error model.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Scalar is a loosely-typed JSON value taken as-is from the lookup service.
// Strings keep their content, numbers and booleans keep their literal text,
// and null decodes to the empty string.
type Scalar string

// UnmarshalJSON accepts any JSON scalar.
func (s *Scalar) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = Scalar(v)
	case '{', '[':
		return fmt.Errorf("expected scalar, got %s", b[:1])
	default:
		*s = Scalar(b)
	}
	return nil
}

// String returns the scalar's text.
func (s Scalar) String() string {
	return string(s)
}

// Place is one entry of a lookup response's places list.
type Place struct {
	Name              Scalar `json:"place name"`
	State             Scalar `json:"state"`
	StateAbbreviation Scalar `json:"state abbreviation"`
	Latitude          Scalar `json:"latitude"`
	Longitude         Scalar `json:"longitude"`
}

// LookupResult is the decoded success response of the lookup service.
type LookupResult struct {
	PostCode            Scalar  `json:"post code"`
	Country             Scalar  `json:"country"`
	CountryAbbreviation Scalar  `json:"country abbreviation"`
	Places              []Place `json:"places"`
}

// FirstPlace returns the place used for rendering.
func (r *LookupResult) FirstPlace() (Place, bool) {
	if r == nil || len(r.Places) == 0 {
		return Place{}, false
	}
	return r.Places[0], true
}

// FailureKind classifies why a lookup did not produce a result.
type FailureKind string

const (
	FailureNone         FailureKind = ""
	FailureInvalidInput FailureKind = "invalid_input"
	FailureTransport    FailureKind = "transport"
	FailureService      FailureKind = "service"
	FailureMalformed    FailureKind = "malformed_response"
)

// FailureKindOf maps a lookup error onto its failure kind.
func FailureKindOf(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	switch ErrorCode(err) {
	case EINVALID:
		return FailureInvalidInput
	case EUPSTREAM, ENOTFOUND:
		return FailureService
	case EBADRESPONSE:
		return FailureMalformed
	default:
		// Anything that never produced a response from the service.
		return FailureTransport
	}
}

// Outcome is the tagged result of one lookup: either Result is set, or
// Failure and Err describe why not.
type Outcome struct {
	Query   string
	Result  *LookupResult
	Failure FailureKind
	Err     error
}

// Succeeded builds a successful outcome.
func Succeeded(query string, result *LookupResult) Outcome {
	return Outcome{Query: query, Result: result}
}

// Failed builds a failed outcome classified from err.
func Failed(query string, err error) Outcome {
	return Outcome{Query: query, Failure: FailureKindOf(err), Err: err}
}

// OK reports whether the outcome carries a result.
func (o Outcome) OK() bool {
	return o.Failure == FailureNone && o.Result != nil
}
