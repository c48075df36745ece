package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthLiveness_AlwaysOK(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthDetailed_ReportsHealthyWhenDependenciesUp(t *testing.T) {
	stack := newTestStack(t)
	router := testRouter(t, stack)

	rec := doJSON(t, router, http.MethodGet, "/health/detailed", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
