package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/MrSnakeDoc/tabguard/internal/alert"
	"github.com/MrSnakeDoc/tabguard/internal/domain"
)

func TestStatusFor(t *testing.T) {
	wrap := func(err error) error {
		return &domain.ActionError{Action: "close_oldest", Params: "count=3", Err: err}
	}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unknown action", wrap(domain.ErrUnknownAction), http.StatusBadRequest},
		{"invalid params", wrap(domain.ErrInvalidParams), http.StatusBadRequest},
		{"unknown button", fmt.Errorf("%w: 4", alert.ErrUnknownButton), http.StatusBadRequest},
		{"undo not found", wrap(domain.ErrUndoNotFound), http.StatusNotFound},
		{"alert not found", alert.ErrAlertNotFound, http.StatusNotFound},
		{"mutation", wrap(fmt.Errorf("%w: tab gone", domain.ErrMutation)), http.StatusBadGateway},
		{"enumeration", wrap(domain.ErrEnumeration), http.StatusServiceUnavailable},
		{"anything else", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
