package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func TestDirectoryEndpointsWithoutMirror(t *testing.T) {
	h := NewDirectoryHandler(nil)
	r := mux.NewRouter()
	r.HandleFunc("/v1/users", h.GetUsers).Methods("GET")
	r.HandleFunc("/v1/documents/{creator}", h.GetUserDocuments).Methods("GET")
	r.HandleFunc("/v1/documents/{creator}/{name}/permissions", h.GetDocumentPermissions).Methods("GET")

	for _, path := range []string{
		"/v1/users",
		"/v1/documents/alice",
		"/v1/documents/alice/doc1/permissions",
	} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
	}
}
