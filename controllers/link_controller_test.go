package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestVisitorCountry(t *testing.T) {
	e := echo.New()

	newCtx := func(headers map[string]string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, "/abc1234", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return e.NewContext(req, httptest.NewRecorder())
	}

	assert.Equal(t, "US", visitorCountry(newCtx(map[string]string{"CF-IPCountry": "US"})))
	assert.Equal(t, "GB", visitorCountry(newCtx(map[string]string{"X-Vercel-IP-Country": "gb"})))
	assert.Equal(t, "", visitorCountry(newCtx(nil)))

	// CDN header wins over the generic fallback
	assert.Equal(t, "DE", visitorCountry(newCtx(map[string]string{
		"CF-IPCountry":   "DE",
		"X-Country-Code": "FR",
	})))
}

func TestPublicBaseURL(t *testing.T) {
	t.Setenv("PUBLIC_BASE_URL", "https://sho.rt/")
	assert.Equal(t, "https://sho.rt", publicBaseURL())

	t.Setenv("PUBLIC_BASE_URL", "")
	assert.Equal(t, "https://linkshorti.com", publicBaseURL())
}
