package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "app-secret"

func TestValidSignature(t *testing.T) {
	payload := []byte(`{"object":"page"}`)

	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"valid", Sign(testSecret, payload), true},
		{"wrong secret", Sign("other", payload), false},
		{"missing prefix", strings.TrimPrefix(Sign(testSecret, payload), "sha256="), false},
		{"sha1 prefix", "sha1=abcdef", false},
		{"not hex", "sha256=zz", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidSignature(testSecret, payload, tt.header))
		})
	}
}

func newSignedApp(secret string) *fiber.App {
	app := fiber.New()
	app.Post("/", VerifySignature(secret), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestVerifySignature_Middleware(t *testing.T) {
	body := `{"object":"page","entry":[]}`

	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
	}{
		{"valid signature", testSecret, Sign(testSecret, []byte(body)), http.StatusOK},
		{"invalid signature", testSecret, Sign("wrong", []byte(body)), http.StatusForbidden},
		{"missing signature", testSecret, "", http.StatusForbidden},
		{"disabled", "", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			if tt.header != "" {
				req.Header.Set(SignatureHeader, tt.header)
			}

			resp, err := newSignedApp(tt.secret).Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantStatus == http.StatusForbidden {
				got, _ := io.ReadAll(resp.Body)
				assert.Empty(t, got)
			}
		})
	}
}
