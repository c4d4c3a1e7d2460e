package pdf

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDownloader allows private addresses because httptest servers bind
// to loopback.
func newTestDownloader(maxSize int64) *Downloader {
	return NewDownloader(Config{
		MaxSize:              maxSize,
		AllowPrivateNetworks: true,
	})
}

func TestDownloader_Download(t *testing.T) {
	t.Run("downloads a pdf", func(t *testing.T) {
		content := []byte("%PDF-1.5 fake pdf content")
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.Header.Get("Accept"), "application/pdf")
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(content)
		}))
		defer server.Close()

		got, err := newTestDownloader(0).Download(context.Background(), server.URL)
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("accepts a content type with parameters", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf; charset=binary")
			w.Write([]byte("%PDF"))
		}))
		defer server.Close()

		_, err := newTestDownloader(0).Download(context.Background(), server.URL)
		require.NoError(t, err)
	})

	t.Run("rejects non-pdf content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html>not a pdf</html>"))
		}))
		defer server.Close()

		_, err := newTestDownloader(0).Download(context.Background(), server.URL)
		require.ErrorIs(t, err, ErrNotPDF)
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write(bytes.Repeat([]byte("x"), 2048))
		}))
		defer server.Close()

		_, err := newTestDownloader(1024).Download(context.Background(), server.URL)
		require.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("non-2xx responses fail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newTestDownloader(0).Download(context.Background(), server.URL)
		require.ErrorIs(t, err, ErrDownloadFailed)
	})

	t.Run("rejects non-http schemes", func(t *testing.T) {
		d := NewDownloader(Config{})

		_, err := d.Download(context.Background(), "file:///etc/passwd")
		require.ErrorIs(t, err, ErrSSRF)

		_, err = d.Download(context.Background(), "gopher://example.com/1")
		require.ErrorIs(t, err, ErrSSRF)
	})

	t.Run("rejects private addresses", func(t *testing.T) {
		d := NewDownloader(Config{})

		_, err := d.Download(context.Background(), "http://127.0.0.1/paper.pdf")
		require.ErrorIs(t, err, ErrSSRF)

		_, err = d.Download(context.Background(), "http://192.168.1.10/paper.pdf")
		require.ErrorIs(t, err, ErrSSRF)

		_, err = d.Download(context.Background(), "http://169.254.169.254/latest/meta-data")
		require.ErrorIs(t, err, ErrSSRF)
	})

}

func TestValidateURLNotPrivate(t *testing.T) {
	assert.ErrorIs(t, validateURLNotPrivate("http://127.0.0.1/x.pdf"), ErrSSRF)
	assert.ErrorIs(t, validateURLNotPrivate("http://169.254.169.254/secret"), ErrSSRF)
	assert.ErrorIs(t, validateURLNotPrivate("ftp://example.com/x.pdf"), ErrSSRF)
	assert.ErrorIs(t, validateURLNotPrivate("file:///etc/passwd"), ErrSSRF)
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{
		"127.0.0.1", "10.0.0.1", "10.255.255.254", "172.16.0.1",
		"172.31.255.254", "192.168.0.1", "169.254.169.254",
		"::1", "fe80::1", "fc00::1", "fd12:3456::1",
	}
	for _, s := range private {
		assert.True(t, isPrivateIP(mustParseIP(t, s)), s)
	}

	public := []string{"8.8.8.8", "1.1.1.1", "172.32.0.1", "2001:4860:4860::8888"}
	for _, s := range public {
		assert.False(t, isPrivateIP(mustParseIP(t, s)), s)
	}
}

func mustParseIP(t *testing.T, s string) net.IP {
	t.Helper()
	ip := net.ParseIP(s)
	require.NotNil(t, ip)
	return ip
}
