package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiago-cos/prosa-sub000/internal/httputil"
)

func TestParsePage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		url      string
		expected httputil.Page
		errorMsg string
	}{
		{name: "Success_Defaults", url: "/", expected: httputil.Page{Offset: 0, Limit: httputil.DefaultPageLimit}},
		{name: "Success_Custom", url: "/?offset=10&limit=20", expected: httputil.Page{Offset: 10, Limit: 20}},
		{name: "Success_MaxLimit", url: "/?limit=100", expected: httputil.Page{Limit: httputil.MaxPageLimit}},
		{name: "Error_NegativeOffset", url: "/?offset=-1", errorMsg: "offset: must be no less than 0."},
		{name: "Error_OffsetNotInteger", url: "/?offset=abc", errorMsg: "offset and limit must be integers"},
		{name: "Error_ZeroLimit", url: "/?limit=0", errorMsg: "limit: must be between 1 and 100."},
		{name: "Error_LimitAboveMax", url: "/?limit=101", errorMsg: "limit: must be no greater than 100."},
		{name: "Error_LimitNotInteger", url: "/?limit=xyz", errorMsg: "offset and limit must be integers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tt.url, nil)

			page, err := httputil.ParsePage(c)

			if tt.errorMsg != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errorMsg, err.Error())
				assert.Equal(t, httputil.Page{}, page)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, page)
		})
	}
}
