package api_test

import (
	"net/http"
	"testing"

	"github.com/Om1001-OPS/mkol/internal/api"
	wf "github.com/Om1001-OPS/mkol/workflow"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		kind wf.FaultKind
		want int
	}{
		{"auth", wf.FaultAuth, http.StatusUnauthorized},
		{"precondition", wf.FaultPrecondition, http.StatusBadRequest},
		{"routing", wf.FaultRouting, http.StatusBadRequest},
		{"authorization", wf.FaultAuthorization, http.StatusForbidden},
		{"consistency", wf.FaultConsistency, http.StatusConflict},
		{"upstream", wf.FaultUpstream, http.StatusBadGateway},
		{"internal", wf.FaultInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fault := &wf.Fault{Kind: tt.kind}
			if got := api.MapHTTPStatus(fault); got != tt.want {
				t.Errorf("MapHTTPStatus(%s) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}
