package huggingface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"finance-qa-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr string
	}{
		{
			name:   "ok",
			status: http.StatusOK,
			body:   `{"choices":[{"message":{"role":"assistant","content":"Diversification spreads risk."}}]}`,
			want:   "Diversification spreads risk.",
		},
		{
			name:    "api error body",
			status:  http.StatusOK,
			body:    `{"choices":[],"error":{"message":"model overloaded"}}`,
			wantErr: "model overloaded",
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			wantErr: "empty choices",
		},
		{
			name:    "bad status",
			status:  http.StatusTooManyRequests,
			body:    `rate limited`,
			wantErr: "status 429",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got chatRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewHuggingFaceProvider("hf-key", srv.URL, "meta-llama/Llama-3.3-70B-Instruct")
			reply, err := p.Chat(context.Background(),
				[]llm.Message{{Role: llm.RoleUser, Content: "What is diversification?"}},
				llm.WithTemperature(0.4))

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
			assert.Equal(t, 0.4, got.Temperature)
			assert.Equal(t, "meta-llama/Llama-3.3-70B-Instruct", got.Model)
		})
	}
}

func TestChatWithoutKey(t *testing.T) {
	p := NewHuggingFaceProvider("", "", "m")
	_, err := p.Chat(context.Background(), nil)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, ProviderName, p.Name())
}
