package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_MappingTable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", New(Validation, "duration out of range"), http.StatusBadRequest},
		{"not implemented", New(NotImplemented, "finetuned model not available yet"), http.StatusNotImplemented},
		{"not found", New(NotFound, "File not found"), http.StatusNotFound},
		{"upstream", New(Upstream, "inference failed"), http.StatusInternalServerError},
		{"plain error defaults to 500", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped app error keeps its kind", fmt.Errorf("context: %w", New(NotFound, "gone")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func TestWrap_PreservesMessageAndUnwraps(t *testing.T) {
	inner := errors.New("connection refused")
	err := Wrap(Upstream, fmt.Errorf("inference failed: %w", inner))

	assert.Equal(t, "inference failed: connection refused", err.Error())
	assert.True(t, errors.Is(err, inner))
	assert.Equal(t, Upstream, KindOf(err))
}

func TestKindOf_DefaultsToUpstream(t *testing.T) {
	assert.Equal(t, Upstream, KindOf(errors.New("anything")))
}
