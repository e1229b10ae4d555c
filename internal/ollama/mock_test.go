package ollama

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
)

// mockResponse represents a mock Ollama response configuration
type mockResponse struct {
	ThinkingChunks []string // Thinking content chunks (if any)
	ContentChunks  []string // Response content chunks
	Error          bool     // Return error response
	ErrorStatus    int      // HTTP status code for error
	ErrorMessage   string   // Error message
}

// newMockServer creates a new httptest server that mocks Ollama API responses
func newMockServer(response mockResponse) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			handleTagsMock(w, r)
			return
		}

		if r.URL.Path == "/api/chat" {
			handleChatMock(w, r, response)
			return
		}

		http.NotFound(w, r)
	}))
}

// handleTagsMock handles /api/tags endpoint
func handleTagsMock(w http.ResponseWriter, _ *http.Request) {
	resp := TagsResponse{
		Models: []ModelInfo{
			{Name: "test-model", Size: 1000000},
		},
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// handleChatMock handles /api/chat endpoint
func handleChatMock(w http.ResponseWriter, r *http.Request, response mockResponse) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if response.Error {
		status := response.ErrorStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		http.Error(w, response.ErrorMessage, status)
		return
	}

	if req.Stream {
		handleStreamingChatMock(w, req, response)
		return
	}

	handleNonStreamingChatMock(w, req, response)
}

// handleStreamingChatMock writes one NDJSON chunk per configured piece of
// thinking/content, then a final done chunk.
func handleStreamingChatMock(w http.ResponseWriter, req ChatRequest, response mockResponse) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	writeChunk := func(msg Message, done bool) {
		chunk := ChatResponse{
			Model:   req.Model,
			Message: msg,
			Done:    done,
		}
		data, _ := json.Marshal(chunk)
		w.Write(data)
		w.Write([]byte("\n"))
		flusher.Flush()
	}

	// Thinking chunks arrive before any answer content
	for _, thinking := range response.ThinkingChunks {
		writeChunk(Message{Role: "assistant", Thinking: thinking}, false)
	}

	for _, content := range response.ContentChunks {
		writeChunk(Message{Role: "assistant", Content: content}, false)
	}

	writeChunk(Message{Role: "assistant"}, true)
}

// handleNonStreamingChatMock returns the full response in one body
func handleNonStreamingChatMock(w http.ResponseWriter, req ChatRequest, response mockResponse) {
	var content string
	for _, chunk := range response.ContentChunks {
		content += chunk
	}

	resp := ChatResponse{
		Model:   req.Model,
		Message: Message{Role: "assistant", Content: content},
		Done:    true,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
