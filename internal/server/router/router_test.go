package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/remitos/internal/server/handlers"
)

func TestRouter(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Router Suite")
}

var _ = Describe("New", func() {
	var (
		engine *gin.Engine
		logs   *observer.ObservedLogs
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		core, observed := observer.New(zap.InfoLevel)
		logs = observed
		engine = New(handlers.NewRemitoHandler(nil, nil, nil), handlers.NewStatsHandler(nil, nil, nil), zap.New(core))
	})

	It("should serve the health check and log the request", func() {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(handlers.DriverHeader, "driver-1")
		engine.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`{"status":"ok"}`))

		entries := logs.FilterMessage("request completed").All()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].ContextMap()).To(HaveKeyWithValue("driver_id", "driver-1"))
	})

	It("should register the API routes", func() {
		routes := map[string]bool{}
		for _, r := range engine.Routes() {
			routes[r.Method+" "+r.Path] = true
		}
		Expect(routes).To(HaveKey("POST /api/remitos/extract"))
		Expect(routes).To(HaveKey("POST /api/remitos"))
		Expect(routes).To(HaveKey("POST /api/stats"))
		Expect(routes).To(HaveKey("GET /api/admin/stats"))
	})

	It("should answer an admin overview with an empty list without a directory", func() {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(MatchJSON(`[]`))
	})
})
