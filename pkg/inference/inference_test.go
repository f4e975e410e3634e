package inference_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/quipworks/quips/pkg/inference"
)

func TestInference(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Inference Suite")
}

func registryWith(calls *atomic.Int32, deployments ...inference.Deployment) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		Expect(r.URL.Path).To(Equal("/v1/deployments"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"deployments": deployments})
	}))
}

var _ = Describe("Manager", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	newManager := func(registryURL string) *inference.Manager {
		return inference.NewManager(
			inference.NewHTTPRegistry(registryURL, ""),
			inference.Config{Model: "test-model"},
			zap.NewNop(),
		)
	}

	It("adopts the first active deployment", func() {
		server := registryWith(nil,
			inference.Deployment{InstanceName: "vllm-0", State: "Deploying", URL: "http://a"},
			inference.Deployment{InstanceName: "vllm-1", State: inference.StateActive, URL: "http://b"},
			inference.Deployment{InstanceName: "vllm-2", State: inference.StateActive, URL: "http://c"},
		)
		defer server.Close()

		handle, err := newManager(server.URL).Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(handle.Endpoint).To(Equal("vllm-1"))
	})

	It("caches the handle across Acquire calls", func() {
		var calls atomic.Int32
		server := registryWith(&calls,
			inference.Deployment{InstanceName: "vllm-0", State: inference.StateActive, URL: "http://a"},
		)
		defer server.Close()

		m := newManager(server.URL)
		first, err := m.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())

		second, err := m.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(BeIdenticalTo(first))
		Expect(calls.Load()).To(Equal(int32(1)))
	})

	It("re-discovers after Invalidate", func() {
		var calls atomic.Int32
		server := registryWith(&calls,
			inference.Deployment{InstanceName: "vllm-0", State: inference.StateActive, URL: "http://a"},
		)
		defer server.Close()

		m := newManager(server.URL)
		_, err := m.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())

		m.Invalidate()

		_, err = m.Acquire(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(calls.Load()).To(Equal(int32(2)))
	})

	It("returns ErrNoActiveDeployment when none are active", func() {
		server := registryWith(nil,
			inference.Deployment{InstanceName: "vllm-0", State: "Deploying", URL: "http://a"},
			inference.Deployment{InstanceName: "vllm-1", State: "Stopped", URL: "http://b"},
		)
		defer server.Close()

		_, err := newManager(server.URL).Acquire(ctx)
		Expect(errors.Is(err, inference.ErrNoActiveDeployment)).To(BeTrue())
	})

	It("propagates registry failures", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := newManager(server.URL).Acquire(ctx)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, inference.ErrNoActiveDeployment)).To(BeFalse())
	})
})

var _ = Describe("HTTPRegistry", func() {
	It("sends the bearer token when configured", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer secret"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"deployments": []inference.Deployment{}})
		}))
		defer server.Close()

		_, err := inference.NewHTTPRegistry(server.URL, "secret").ListDeployments(context.Background())
		Expect(err).NotTo(HaveOccurred())
	})

	It("surfaces registry error payloads", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"error": "registry is on fire"})
		}))
		defer server.Close()

		_, err := inference.NewHTTPRegistry(server.URL, "").ListDeployments(context.Background())
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("registry is on fire"))
	})
})

var _ = Describe("Handle.Chat", func() {
	acquireAgainst := func(chatURL string) *inference.Handle {
		registry := registryWith(nil,
			inference.Deployment{InstanceName: "vllm-0", State: inference.StateActive, URL: chatURL},
		)
		defer registry.Close()

		m := inference.NewManager(
			inference.NewHTTPRegistry(registry.URL, ""),
			inference.Config{Model: "test-model"},
			zap.NewNop(),
		)
		handle, err := m.Acquire(context.Background())
		Expect(err).NotTo(HaveOccurred())
		return handle
	}

	It("posts the prompt pair and returns the content", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			Expect(r.Header.Get("Content-Type")).To(Equal("application/json"))

			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
				MaxTokens int `json:"max_tokens"`
			}
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			Expect(req.Model).To(Equal("test-model"))
			Expect(req.Messages).To(HaveLen(2))
			Expect(req.Messages[0].Role).To(Equal("system"))
			Expect(req.Messages[0].Content).To(Equal("be funny"))
			Expect(req.Messages[1].Role).To(Equal("user"))
			Expect(req.Messages[1].Content).To(Equal("about sharks"))
			Expect(req.MaxTokens).To(Equal(150))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]any{"content": "a generated quip"}},
				},
			})
		}))
		defer server.Close()

		text, err := acquireAgainst(server.URL).Chat(context.Background(), "be funny", "about sharks", 150)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("a generated quip"))
	})

	It("surfaces API error payloads", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "model exploded"},
			})
		}))
		defer server.Close()

		_, err := acquireAgainst(server.URL).Chat(context.Background(), "s", "u", 10)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("model exploded"))
	})

	It("errors on a non-200 status", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := acquireAgainst(server.URL).Chat(context.Background(), "s", "u", 10)
		Expect(err).To(HaveOccurred())
	})

	It("errors when no choices come back", func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer server.Close()

		_, err := acquireAgainst(server.URL).Chat(context.Background(), "s", "u", 10)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no choices"))
	})
})
