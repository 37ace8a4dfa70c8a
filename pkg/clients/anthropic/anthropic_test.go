package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAnthropic(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Anthropic Client Suite")
}

var _ = Describe("Client", func() {
	var (
		server   *httptest.Server
		status   int
		response string
		captured messageRequest
		headers  http.Header
		path     string
	)

	BeforeEach(func() {
		status = http.StatusOK
		captured = messageRequest{}
		path = ""
		response = `{"content":[{"type":"text","text":"REMITO N° 0001-0002\n05/01/2025\n"}]}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers = r.Header.Clone()
			path = r.URL.Path
			_ = json.NewDecoder(r.Body).Decode(&captured)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(response))
		}))
		DeferCleanup(server.Close)
	})

	It("should send the image and return the transcription", func() {
		client := newClient(server.URL, "sk-test", "")
		text, err := client.Recognize(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg", "spa")

		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("REMITO N° 0001-0002\n05/01/2025"))
		Expect(path).To(Equal("/v1/messages"))
		Expect(headers.Get("x-api-key")).To(Equal("sk-test"))
		Expect(captured.Model).To(Equal(defaultModel))
		Expect(captured.System).To(ContainSubstring("Spanish"))
		Expect(captured.Messages).To(HaveLen(1))
		Expect(captured.Messages[0].Content[0].Source.Data).To(Equal("/9g="))
	})

	When("the API returns an error", func() {
		BeforeEach(func() {
			status = http.StatusTooManyRequests
			response = `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`
		})

		It("should surface the message", func() {
			client := newClient(server.URL, "sk-test", "claude-x")
			_, err := client.Recognize(context.Background(), []byte{1}, "image/jpeg", "spa")
			Expect(err).To(MatchError(ContainSubstring("slow down")))
		})
	})

	It("should reject empty images without calling the API", func() {
		client := newClient(server.URL, "sk-test", "")
		_, err := client.Recognize(context.Background(), nil, "image/jpeg", "spa")
		Expect(err).To(HaveOccurred())
		Expect(captured.Model).To(BeEmpty())
	})
})
