package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apeiro/ace/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	retryBaseDelay = time.Millisecond
	retryJitterMax = time.Millisecond
	emptyRetryDelay = time.Millisecond
	os.Exit(m.Run())
}

// --- mock backends ---

// scriptedBackend returns the queued errors in order, then succeeds.
type scriptedBackend struct {
	errs  []error
	calls int
	meta  *types.ExtractedMetadata
}

func (s *scriptedBackend) Extract(_ context.Context, _ Request) (*types.ExtractedMetadata, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	if s.meta != nil {
		return s.meta, nil
	}
	return &types.ExtractedMetadata{Title: "ok"}, nil
}

func testInvoker(b Backend) *Invoker {
	return NewInvoker(b, zerolog.Nop())
}

func pdfRequest() Request {
	return Request{PDFText: "--- Page 1 ---\nsome paper text"}
}

// --- Invoker retry policy ---

func TestInvokeNoPDFSource(t *testing.T) {
	inv := testInvoker(&scriptedBackend{})
	_, err := inv.Invoke(context.Background(), Request{HTMLContent: "<html/>"})
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestInvokeSucceedsFirstAttempt(t *testing.T) {
	b := &scriptedBackend{}
	meta, err := testInvoker(b).Invoke(context.Background(), pdfRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", meta.Title)
	assert.Equal(t, 1, b.calls)
}

func TestInvokeRetriesRateLimit(t *testing.T) {
	b := &scriptedBackend{errs: []error{
		&APIError{StatusCode: 429},
		&APIError{StatusCode: 429},
	}}
	meta, err := testInvoker(b).Invoke(context.Background(), pdfRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", meta.Title)
	assert.Equal(t, 3, b.calls)
}

func TestInvokeExhaustsAttempts(t *testing.T) {
	b := &scriptedBackend{errs: []error{
		&APIError{StatusCode: 429},
		&APIError{StatusCode: 429},
		&APIError{StatusCode: 429},
	}}
	_, err := testInvoker(b).Invoke(context.Background(), pdfRequest())
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 3, b.calls)
}

func TestInvokeEmptyResponseRetriesOnce(t *testing.T) {
	b := &scriptedBackend{errs: []error{ErrEmptyResponse}}
	meta, err := testInvoker(b).Invoke(context.Background(), pdfRequest())
	require.NoError(t, err)
	assert.Equal(t, "ok", meta.Title)
	assert.Equal(t, 2, b.calls)
}

func TestInvokeEmptyResponseTwiceFails(t *testing.T) {
	b := &scriptedBackend{errs: []error{ErrEmptyResponse, ErrEmptyResponse, ErrEmptyResponse}}
	_, err := testInvoker(b).Invoke(context.Background(), pdfRequest())
	assert.ErrorIs(t, err, ErrEmptyResponse)
	// Only one empty-response retry is spent across the whole invocation.
	assert.Equal(t, 2, b.calls)
}

func TestInvokeSafetyNoRetry(t *testing.T) {
	b := &scriptedBackend{errs: []error{ErrSafetyRejected, ErrSafetyRejected, ErrSafetyRejected}}
	_, err := testInvoker(b).Invoke(context.Background(), pdfRequest())
	assert.ErrorIs(t, err, ErrSafetyRejected)
	assert.Equal(t, 1, b.calls)
}

func TestInvokeOtherErrorsImmediate(t *testing.T) {
	boom := errors.New("connection reset")
	b := &scriptedBackend{errs: []error{boom, boom, boom}}
	_, err := testInvoker(b).Invoke(context.Background(), pdfRequest())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, b.calls)
}

func TestInvokeContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &scriptedBackend{errs: []error{&APIError{StatusCode: 429}}}
	_, err := testInvoker(b).Invoke(ctx, pdfRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRateLimitBackoffGrows(t *testing.T) {
	d1 := rateLimitBackoff(1)
	d2 := rateLimitBackoff(2)
	d3 := rateLimitBackoff(3)
	assert.GreaterOrEqual(t, d2, d1)
	assert.GreaterOrEqual(t, d3, d2)
}

// --- response parsing ---

const validPayload = `{
  "arxivId": "2405.00001v2",
  "title": "Test Paper",
  "abstract": "An abstract.",
  "keywords": ["graphs"],
  "authors": [
    {"firstName": "Ada", "surname": "Lovelace", "initials": "A.", "email": "ada@example.org", "isCorresponding": true, "affiliationIndices": [0]}
  ],
  "affiliations": [
    {"text": "Dept. of Mathematics, Example University, London, UK", "organizations": ["Example University"], "city": "London", "country": "United Kingdom", "countryCode": "GBR"}
  ],
  "references": [
    {"text": "[1] ibid.", "fullText": "A. Turing, Computing machinery and intelligence, Mind 59 (1950)."}
  ],
  "verification": {
    "status": "SUCCESS",
    "idComparison": {"pdfId": "2405.00001", "pdfVersion": "v2", "htmlId": "2405.00001", "htmlVersion": "v2", "versionMatch": true},
    "titleComparison": {"pdfTitle": "Test Paper", "htmlTitle": "Test Paper", "match": true, "sourceUsed": "HTML"}
  }
}`

func TestParseResponseValid(t *testing.T) {
	meta, err := parseResponse([]byte(validPayload), "pdf text here")
	require.NoError(t, err)
	assert.Equal(t, "2405.00001v2", meta.PaperID)
	assert.Equal(t, types.VerifySuccess, meta.Verification.Status)
	require.Len(t, meta.Authors, 1)
	assert.True(t, meta.Authors[0].IsCorresponding)
	assert.Equal(t, []int{0}, meta.Authors[0].AffiliationRefs)
	assert.Equal(t, "pdf text here", meta.DocumentText)
}

func TestParseResponseStatusRecomputed(t *testing.T) {
	// The reported SUCCESS contradicts the reported comparisons; the
	// derived status wins.
	payload := `{
	  "arxivId": "2405.00001v1",
	  "title": "Test Paper",
	  "abstract": "An abstract.",
	  "authors": [{"firstName": "Ada", "surname": "Lovelace", "initials": "A."}],
	  "affiliations": [],
	  "references": [],
	  "verification": {
	    "status": "SUCCESS",
	    "idComparison": {"pdfId": "2405.00001", "pdfVersion": "v1", "htmlId": "2405.00001", "htmlVersion": "v3", "versionMatch": false},
	    "titleComparison": {"pdfTitle": "Test Paper", "htmlTitle": "Test Paper", "match": true, "sourceUsed": "HTML"}
	  }
	}`
	meta, err := parseResponse([]byte(payload), "")
	require.NoError(t, err)
	assert.Equal(t, types.VerifyVersionMismatched, meta.Verification.Status)
	assert.Equal(t, "2405.00001v3", meta.PaperID)
}

func TestParseResponseInvalid(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", `{"arxivId": `},
		{"missing title", `{"arxivId": "2405.00001", "abstract": "a", "authors": [{"firstName": "A", "surname": "B", "initials": "A."}]}`},
		{"no authors", `{"arxivId": "2405.00001", "title": "t", "abstract": "a", "authors": []}`},
		{"author missing surname", `{"arxivId": "2405.00001", "title": "t", "abstract": "a", "authors": [{"firstName": "A", "initials": "A."}]}`},
		{"affiliation index out of range", `{"arxivId": "2405.00001", "title": "t", "abstract": "a",
		  "authors": [{"firstName": "A", "surname": "B", "initials": "A.", "affiliationIndices": [5]}],
		  "affiliations": [], "references": [],
		  "verification": {"status": "SUCCESS"}}`},
		{"affiliations key absent", `{"arxivId": "2405.00001", "title": "t", "abstract": "a",
		  "authors": [{"firstName": "A", "surname": "B", "initials": "A."}],
		  "references": [],
		  "verification": {"status": "SUCCESS"}}`},
		{"references key absent", `{"arxivId": "2405.00001", "title": "t", "abstract": "a",
		  "authors": [{"firstName": "A", "surname": "B", "initials": "A."}],
		  "affiliations": [],
		  "verification": {"status": "SUCCESS"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResponse([]byte(tt.payload), "")
			assert.ErrorIs(t, err, ErrSchemaViolation)
		})
	}
}

// --- GeminiBackend HTTP behavior ---

func geminiServer(t *testing.T, handler http.HandlerFunc) *GeminiBackend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	orig := geminiAPIBase
	geminiAPIBase = srv.URL
	t.Cleanup(func() { geminiAPIBase = orig })
	return &GeminiBackend{APIKey: "test-key", Model: "test-model", Client: srv.Client()}
}

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}, "finishReason": "STOP"},
		},
	})
	return string(b)
}

func TestGeminiExtractOK(t *testing.T) {
	backend := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Contains(t, r.URL.Path, "test-model:generateContent")
		w.Write([]byte(candidateBody(validPayload)))
	})
	meta, err := backend.Extract(context.Background(), pdfRequest())
	require.NoError(t, err)
	assert.Equal(t, "Test Paper", meta.Title)
}

func TestGeminiExtractRateLimited(t *testing.T) {
	backend := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": 429, "message": "quota exceeded"}}`))
	})
	_, err := backend.Extract(context.Background(), pdfRequest())
	assert.ErrorIs(t, err, ErrRateLimited)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "quota exceeded", apiErr.Message)
}

func TestGeminiExtractSafetyBlocked(t *testing.T) {
	backend := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates": [{"content": {"parts": []}, "finishReason": "SAFETY"}]}`))
	})
	_, err := backend.Extract(context.Background(), pdfRequest())
	assert.ErrorIs(t, err, ErrSafetyRejected)
}

func TestGeminiExtractEmpty(t *testing.T) {
	backend := geminiServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	})
	_, err := backend.Extract(context.Background(), pdfRequest())
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGeminiChat(t *testing.T) {
	backend := geminiServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		// History turn plus the question turn.
		assert.Len(t, req.Contents, 2)
		w.Write([]byte(candidateBody("The surname is Lovelace.")))
	})
	answer, err := backend.Chat(context.Background(), ChatRequest{
		History:  []ChatTurn{{Role: "user", Text: "earlier question"}},
		Context:  `{"title": "Test Paper"}`,
		Question: "What is the first author's surname?",
	})
	require.NoError(t, err)
	assert.Equal(t, "The surname is Lovelace.", answer)
}
