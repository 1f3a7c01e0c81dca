package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rateForm struct {
	Rate  string `json:"rate" validate:"required,numeric"`
	Month int    `json:"month" validate:"min=1,max=12"`
}

func testContext(body string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	return c
}

func TestBindBody(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    rateForm
		wantErr bool
	}{
		{name: "enveloped", body: `{"conversion": {"rate": "4.97", "month": 3}}`, want: rateForm{Rate: "4.97", Month: 3}},
		{name: "bare fields", body: `{"rate": "5.00", "month": 12}`, want: rateForm{Rate: "5.00", Month: 12}},
		{name: "other keys ignored", body: `{"note": "x", "rate": "4.5", "month": 1}`, want: rateForm{Rate: "4.5", Month: 1}},
		{name: "wrong field type", body: `{"rate": "4.97", "month": "march"}`, wantErr: true},
		{name: "envelope is not an object", body: `{"conversion": "4.97"}`, wantErr: true},
		{name: "empty body", body: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got rateForm
			err := bindBody(testContext(tt.body), "conversion", &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBindBody_RestoresBody(t *testing.T) {
	c := testContext(`{"rate": "4.97", "month": 3}`)
	var form rateForm
	require.NoError(t, bindBody(c, "conversion", &form))

	again, err := c.GetRawData()
	require.NoError(t, err)
	assert.JSONEq(t, `{"rate": "4.97", "month": 3}`, string(again))
}

func TestBindAndValidate_FieldMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{"valid", `{"rate": "4.97", "month": 3}`, nil},
		{"missing rate", `{"month": 3}`, map[string]string{"rate": "is required"}},
		{"rate not numeric", `{"rate": "abc", "month": 3}`, map[string]string{"rate": "must be a number"}},
		{"month above range", `{"rate": "1", "month": 13}`, map[string]string{"month": "must be at most 12"}},
		{"month below range", `{"rate": "1", "month": 0}`, map[string]string{"month": "must be at least 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var form rateForm
			err := BindAndValidate(testContext(tt.body), "conversion", &form)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, validationMessages(err))
		})
	}
}
