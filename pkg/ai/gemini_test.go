package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"
)

const testGenerateURL = "https://gemini.test/v1beta/models/gemini-2.5-flash:generateContent"

func newMockedClient(t *testing.T) *GeminiClient {
	t.Helper()
	hc := &http.Client{}
	httpmock.ActivateNonDefault(hc)
	t.Cleanup(httpmock.DeactivateAndReset)

	c, err := NewGeminiClient("test-key", "models/gemini-2.5-flash",
		WithBaseURL("https://gemini.test/v1beta/"), WithHTTPClient(hc))
	require.NoError(t, err)
	return c
}

func TestNewGeminiClient_RequiresKey(t *testing.T) {
	_, err := NewGeminiClient("  ", "")
	require.Error(t, err)

	c, err := NewGeminiClient("k", "")
	require.NoError(t, err)
	require.Equal(t, defaultGeminiModel, c.Model())
}

func TestGenerateText_Success(t *testing.T) {
	c := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodPost, testGenerateURL, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "test-key", req.Header.Get("x-goog-api-key"))
		b, _ := io.ReadAll(req.Body)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(b, &body))
		gc := body["generationConfig"].(map[string]interface{})
		require.Equal(t, "application/json", gc["responseMimeType"])
		return httpmock.NewStringResponse(http.StatusOK,
			`{"candidates":[{"content":{"parts":[{"text":"{\"plan\":"},{"text":"\"rest\"}"}]},"finishReason":"STOP"}]}`), nil
	})

	out, err := c.GenerateText(context.Background(), "prompt", true)
	require.NoError(t, err)
	require.Equal(t, `{"plan":"rest"}`, out)
	require.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestGenerateText_ClassifiesErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"503 is transient", http.StatusServiceUnavailable, `{"error":{"code":503,"message":"try later","status":"UNAVAILABLE"}}`, Transient},
		{"overloaded message is transient", http.StatusInternalServerError, `{"error":{"code":500,"message":"The model is overloaded."}}`, Transient},
		{"bad key is permanent", http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, Permanent},
		{"empty error body is permanent", http.StatusForbidden, ``, Permanent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := newMockedClient(t)
			httpmock.RegisterResponder(http.MethodPost, testGenerateURL, httpmock.NewStringResponder(tc.status, tc.body))

			_, err := c.GenerateText(context.Background(), "p", true)
			require.Error(t, err)
			require.Equal(t, tc.want, KindOf(err))
			var aerr *Error
			require.ErrorAs(t, err, &aerr)
			require.Equal(t, tc.status, aerr.StatusCode)
		})
	}
}

func TestGenerateText_EmptyCandidatesIsMalformed(t *testing.T) {
	c := newMockedClient(t)
	httpmock.RegisterResponder(http.MethodPost, testGenerateURL,
		httpmock.NewStringResponder(http.StatusOK, `{"candidates":[{"finishReason":"SAFETY","content":{"parts":[]}}]}`))

	_, err := c.GenerateText(context.Background(), "p", false)
	require.Error(t, err)
	require.Equal(t, Malformed, KindOf(err))
	require.Contains(t, err.Error(), "SAFETY")
}

func TestKindOf_UnknownErrorIsPermanent(t *testing.T) {
	require.Equal(t, Permanent, KindOf(io.EOF))
	require.False(t, IsTransient(nil))
	require.True(t, IsTransient(&Error{Kind: Transient, Err: io.EOF}))
	require.Equal(t, "malformed", Malformed.String())
}
