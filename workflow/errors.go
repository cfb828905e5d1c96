// Package workflow defines the shared run state, the fault taxonomy, and the
// pure routing decisions for the document-processing pipeline.
package workflow

import "errors"

// Fault taxonomy for run failures. A validation verdict of false is not a
// fault; it is an ordinary branch to the feedback node.
var (
	// ErrAuth marks an identity failure: bad credentials, unreachable
	// identity service, or a success response with no usable token.
	ErrAuth = errors.New("authentication failed")

	// ErrPrecondition marks a missing or non-canonical state field detected
	// before any external call is made.
	ErrPrecondition = errors.New("precondition failed")

	// ErrRouting marks an unrecognized routing decision or an explicit
	// "document type not selected" signal.
	ErrRouting = errors.New("routing failed")

	// ErrUpstream marks a collaborator call failure. Calls are never
	// retried.
	ErrUpstream = errors.New("upstream call failed")

	// ErrConsistency marks a successful intake upload whose follow-up index
	// lookup did not find the uploaded file.
	ErrConsistency = errors.New("uploaded file not found in intake index")

	// ErrAuthorization marks an admin-only branch invoked without the admin
	// role.
	ErrAuthorization = errors.New("not authorized")
)

// FaultKind names a member of the fault taxonomy for callers that branch on
// category rather than sentinel identity.
type FaultKind string

// Fault kinds, one per taxonomy sentinel.
const (
	FaultAuth          FaultKind = "auth"
	FaultPrecondition  FaultKind = "precondition"
	FaultRouting       FaultKind = "routing"
	FaultUpstream      FaultKind = "upstream"
	FaultConsistency   FaultKind = "consistency"
	FaultAuthorization FaultKind = "authorization"
	FaultInternal      FaultKind = "internal"
)

// Fault is the serializable terminal-failure record attached to a Result.
type Fault struct {
	Step    string    `json:"step"`
	Kind    FaultKind `json:"kind"`
	Message string    `json:"message"`
}

// Classify maps an error to its taxonomy kind, defaulting to internal for
// errors outside the taxonomy.
func Classify(err error) FaultKind {
	switch {
	case errors.Is(err, ErrAuth):
		return FaultAuth
	case errors.Is(err, ErrPrecondition):
		return FaultPrecondition
	case errors.Is(err, ErrRouting):
		return FaultRouting
	case errors.Is(err, ErrConsistency):
		return FaultConsistency
	case errors.Is(err, ErrAuthorization):
		return FaultAuthorization
	case errors.Is(err, ErrUpstream):
		return FaultUpstream
	default:
		return FaultInternal
	}
}
