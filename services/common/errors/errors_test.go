package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAs(t *testing.T) {
	assert.Nil(t, As(nil))

	wrapped := fmt.Errorf("outer: %w", NotFound("product not found"))
	got := As(wrapped)
	assert.Equal(t, http.StatusNotFound, got.StatusCode)
	assert.Equal(t, "product not found", got.Message)

	plain := As(fmt.Errorf("db down"))
	assert.Equal(t, http.StatusInternalServerError, plain.StatusCode)
	assert.EqualError(t, plain, "Internal server error: db down")
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Respond(c, Conflict("insufficient stock"))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"insufficient stock"}`, w.Body.String())
	assert.True(t, c.IsAborted())
}
