package arxiv

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nishipippi/kiga-ers/internal/domain"
	"github.com/nishipippi/kiga-ers/internal/httpx"
)

// Sample Atom response for testing.
const feedResponseXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <title type="html">ArXiv Query: search_query=all:transformers</title>
  <opensearch:totalResults xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">2042</opensearch:totalResults>
  <opensearch:startIndex xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">0</opensearch:startIndex>
  <opensearch:itemsPerPage xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">2</opensearch:itemsPerPage>
  <entry>
    <id>http://arxiv.org/abs/2301.12345v2</id>
    <updated>2023-02-01T10:00:00Z</updated>
    <published>2023-01-28T18:30:00Z</published>
    <title>Attention Mechanisms in
  Large Language Models</title>
    <summary>  We study attention
  mechanisms across model scales.
</summary>
    <author>
      <name>Jane Doe</name>
    </author>
    <author>
      <name>John Smith</name>
      <arxiv:affiliation xmlns:arxiv="http://arxiv.org/schemas/atom">Example University</arxiv:affiliation>
    </author>
    <link href="http://arxiv.org/abs/2301.12345v2" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2301.12345v2" rel="related" type="application/pdf"/>
    <category term="cs.CL" scheme="http://arxiv.org/schemas/atom"/>
    <category term="cs.AI" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2302.00001v1</id>
    <updated>2023-02-02T09:00:00Z</updated>
    <published>2023-02-02T09:00:00Z</published>
    <title>A Second Paper</title>
    <summary>Abstract text.</summary>
    <author>
      <name>Ada Lovelace</name>
    </author>
    <link href="http://arxiv.org/abs/2302.00001v1" rel="alternate" type="text/html"/>
    <category term="cs.LG" scheme="http://arxiv.org/schemas/atom"/>
  </entry>
</feed>`

const emptyFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <opensearch:totalResults xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">0</opensearch:totalResults>
</feed>`

// createTestClient points a client at a mock server with rate limiting
// loose enough for tests.
func createTestClient(baseURL string) *Client {
	return NewWithHTTPClient(
		Config{BaseURL: baseURL},
		httpx.NewClient(httpx.Config{
			Timeout:   5 * time.Second,
			RateLimit: 1000,
			BurstSize: 100,
		}),
	)
}

func TestNew(t *testing.T) {
	client := New(Config{})

	require.NotNil(t, client)
	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, DefaultRateLimit, client.config.RateLimit)
	assert.Equal(t, DefaultBurstSize, client.config.BurstSize)
	assert.Equal(t, DefaultCategory, client.config.DefaultCategory)
	assert.Equal(t, "arXiv", client.Name())
}

func TestClient_Search(t *testing.T) {
	t.Run("parses entries into papers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/atom+xml")
			w.Write([]byte(feedResponseXML))
		}))
		defer server.Close()

		client := createTestClient(server.URL)
		papers, err := client.Search(context.Background(), "transformers", 0, 2)

		require.NoError(t, err)
		require.Len(t, papers, 2)

		p := papers[0]
		assert.Equal(t, "2301.12345v2", p.ID)
		// Feed whitespace padding is collapsed.
		assert.Equal(t, "Attention Mechanisms in Large Language Models", p.Title)
		assert.Equal(t, "We study attention mechanisms across model scales.", p.Abstract)
		require.Len(t, p.Authors, 2)
		assert.Equal(t, "Jane Doe", p.Authors[0].Name)
		assert.Equal(t, "Example University", p.Authors[1].Affiliation)
		assert.Equal(t, "http://arxiv.org/pdf/2301.12345v2", p.PDFURL)
		assert.Equal(t, []string{"cs.CL", "cs.AI"}, p.Categories)
		assert.Equal(t, "2023-01-28T18:30:00Z", p.Published)
		assert.True(t, p.HasPDF())

		// The second entry has no pdf link.
		assert.Equal(t, "2302.00001v1", papers[1].ID)
		assert.False(t, papers[1].HasPDF())
	})

	t.Run("term query searches all fields by relevance", func(t *testing.T) {
		var gotQuery map[string][]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			w.Write([]byte(emptyFeedXML))
		}))
		defer server.Close()

		client := createTestClient(server.URL)
		_, err := client.Search(context.Background(), "quantum error correction", 40, 20)

		require.NoError(t, err)
		assert.Equal(t, []string{"all:quantum error correction"}, gotQuery["search_query"])
		assert.Equal(t, []string{"relevance"}, gotQuery["sortBy"])
		assert.Equal(t, []string{"descending"}, gotQuery["sortOrder"])
		assert.Equal(t, []string{"40"}, gotQuery["start"])
		assert.Equal(t, []string{"20"}, gotQuery["max_results"])
	})

	t.Run("empty query browses the default category by date", func(t *testing.T) {
		var gotQuery map[string][]string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query()
			w.Write([]byte(emptyFeedXML))
		}))
		defer server.Close()

		client := createTestClient(server.URL)
		_, err := client.Search(context.Background(), "   ", 0, 20)

		require.NoError(t, err)
		assert.Equal(t, []string{"cat:" + DefaultCategory}, gotQuery["search_query"])
		assert.Equal(t, []string{"submittedDate"}, gotQuery["sortBy"])
	})

	t.Run("empty feed returns no papers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(emptyFeedXML))
		}))
		defer server.Close()

		client := createTestClient(server.URL)
		papers, err := client.Search(context.Background(), "no hits", 0, 20)

		require.NoError(t, err)
		assert.Empty(t, papers)
	})

	t.Run("non-200 responses map to a fetch error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("down for maintenance"))
		}))
		defer server.Close()

		client := createTestClient(server.URL)
		_, err := client.Search(context.Background(), "q", 0, 20)

		require.Error(t, err)
		var fetchErr *domain.FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, "arXiv", fetchErr.Source)
		assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
	})

	t.Run("malformed XML maps to a fetch error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<feed><entry></feed>"))
		}))
		defer server.Close()

		client := createTestClient(server.URL)
		_, err := client.Search(context.Background(), "q", 0, 20)

		require.Error(t, err)
		var fetchErr *domain.FetchError
		assert.True(t, errors.As(err, &fetchErr))
	})

	t.Run("entries without a recognizable id are dropped", func(t *testing.T) {
		const badEntryXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://example.com/not-arxiv/123</id>
    <title>Bad Entry</title>
  </entry>
</feed>`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(badEntryXML))
		}))
		defer server.Close()

		client := createTestClient(server.URL)
		papers, err := client.Search(context.Background(), "q", 0, 20)

		require.NoError(t, err)
		assert.Empty(t, papers)
	})
}

func TestExtractArXivID(t *testing.T) {
	assert.Equal(t, "2301.12345v1", extractArXivID("http://arxiv.org/abs/2301.12345v1"))
	assert.Equal(t, "2301.12345v2", extractArXivID("https://arxiv.org/abs/2301.12345v2"))
	assert.Equal(t, "cond-mat/9901001v1", extractArXivID("http://arxiv.org/abs/cond-mat/9901001v1"))
	assert.Equal(t, "", extractArXivID("http://example.com/abs/123"))
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", normalizeWhitespace("  a\n  b\tc "))
	assert.Equal(t, "", normalizeWhitespace("   \n\t "))
}
