package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/SAP-F-2025/learning-progress-service/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestContext(t *testing.T, idParam string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: idParam}}
	return c, recorder
}

func TestParseIDParam(t *testing.T) {
	h := NewBaseHandler(utils.NewDevelopmentLogger())

	t.Run("valid id parses", func(t *testing.T) {
		c, recorder := newTestContext(t, "42")

		id := h.parseIDParam(c, "id")

		assert.Equal(t, uint(42), id)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("non-numeric id responds 400", func(t *testing.T) {
		c, recorder := newTestContext(t, "abc")

		id := h.parseIDParam(c, "id")

		assert.Zero(t, id)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("zero id responds 400 instead of an empty success", func(t *testing.T) {
		c, recorder := newTestContext(t, "0")

		id := h.parseIDParam(c, "id")

		assert.Zero(t, id)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("negative id responds 400", func(t *testing.T) {
		c, recorder := newTestContext(t, "-1")

		id := h.parseIDParam(c, "id")

		assert.Zero(t, id)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
