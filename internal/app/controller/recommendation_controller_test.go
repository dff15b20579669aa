package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecommendationController(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.register(t, "alice")

	w := env.do(http.MethodGet, "/recommendations?limit=3", "", nil)
	expectStatus(t, w, http.StatusOK)
	result := decode(t, w)
	assert.Equal(t, "popular", result["strategy"])
	assert.Len(t, result["recommendations"], 3)
	_, hasUser := result["user_id"]
	assert.False(t, hasUser)

	book := env.productID(t, "BOOK-001")
	w = env.do(http.MethodGet, fmt.Sprintf("/recommendations?product_id=%d&limit=1", book), token, nil)
	expectStatus(t, w, http.StatusOK)
	result = decode(t, w)
	assert.Equal(t, "content_based", result["strategy"])
	assert.NotNil(t, result["user_id"])

	for _, q := range []string{"limit=0x", "limit=51", "product_id=-1"} {
		w = env.do(http.MethodGet, "/recommendations?"+q, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}
