package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"ewsclient/internal/pkg/config"
	"ewsclient/soap"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupRouterHealthCheckRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(context.Background(), "ews-mock", config.MockConfig{})
	require.NotNil(t, router)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, HealthCheckPath, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Health Check"}`, w.Body.String())
}

func TestSetupRouterExchangeRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := SetupRouter(context.Background(), "ews-mock", config.MockConfig{BackOffMilliseconds: 40})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, ExchangePath,
		strings.NewReader(`<soap:Envelope xmlns:soap="http://schemas.xmlsoap.org/soap/envelope/"><soap:Body><GetFolder/></soap:Body></soap:Envelope>`))
	req.Header.Set("X-Mock-Fault", "ServerBusy")
	req.Header.Set("client-request-id", "req-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-1", w.Header().Get("request-id"))
	fault, err := soap.ExtractFault(w.Body.Bytes())
	require.NoError(t, err)
	backOff, ok := fault.BackOff()
	assert.True(t, ok)
	assert.Equal(t, int64(40), backOff.Milliseconds())

	// Only POST is routed to the endpoint.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, ExchangePath, nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetupRouterConcurrentCalls(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NotNil(t, SetupRouter(context.Background(), "ews-mock", config.MockConfig{}))
		}()
	}
	wg.Wait()
}
