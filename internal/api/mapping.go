package api

import (
	"net/http"

	wf "github.com/Om1001-OPS/mkol/workflow"
)

// MapHTTPStatus maps a run fault to the HTTP status returned to the caller.
func MapHTTPStatus(fault *wf.Fault) int {
	switch fault.Kind {
	case wf.FaultAuth:
		return http.StatusUnauthorized
	case wf.FaultPrecondition, wf.FaultRouting:
		return http.StatusBadRequest
	case wf.FaultAuthorization:
		return http.StatusForbidden
	case wf.FaultConsistency:
		return http.StatusConflict
	case wf.FaultUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
