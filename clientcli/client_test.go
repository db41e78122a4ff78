package clientcli_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ptrevino/mediashelf"
	"github.com/ptrevino/mediashelf/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		cfg := &clientcli.Config{
			Endpoint: "http://localhost:8080",
		}

		client, err := clientcli.New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("nil config", func(t *testing.T) {
		client, err := clientcli.New(nil)
		assert.ErrorIs(t, err, clientcli.ErrConfigRequired)
		assert.Nil(t, client)
	})

	t.Run("empty endpoint uses default", func(t *testing.T) {
		cfg := &clientcli.Config{}

		client, err := clientcli.New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("trailing slash removed", func(t *testing.T) {
		cfg := &clientcli.Config{
			Endpoint: "http://localhost:8080/",
		}

		client, err := clientcli.New(cfg)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})
}

func TestClient_PresignUpload(t *testing.T) {
	t.Run("successful presign", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/presign/upload", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "audio/track.mp3", req["key"])
			assert.Equal(t, "audio/mpeg", req["content_type"])
			assert.Equal(t, float64(600), req["ttl_seconds"])

			resp := map[string]any{
				"url":                "http://store.local/audio/track.mp3?sig=abc",
				"method":             "PUT",
				"expires_in_seconds": 600,
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		presigned, err := client.PresignUpload(context.Background(), "audio/track.mp3", "audio/mpeg", 600)
		require.NoError(t, err)
		assert.Equal(t, "http://store.local/audio/track.mp3?sig=abc", presigned.URL)
		assert.Equal(t, "PUT", presigned.Method)
		assert.Equal(t, 600, presigned.ExpiresInSeconds)
	})

	t.Run("invalid key fails before any request", func(t *testing.T) {
		var called bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		_, err = client.PresignUpload(context.Background(), "audio/../etc/passwd", "", 0)
		assert.ErrorIs(t, err, mediashelf.ErrInvalidKey)
		assert.False(t, called)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error": "store_unavailable", "message": "Object store unreachable"}`))
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		_, err = client.PresignUpload(context.Background(), "audio/track.mp3", "", 0)
		assert.ErrorIs(t, err, clientcli.ErrStoreUnavailable)

		var apiErr *clientcli.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "store_unavailable", apiErr.Code)
	})
}

func TestClient_PresignDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/presign/download", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "video/8f2c1a/movie.mkv", req["key"])

		resp := map[string]any{
			"url":                "http://store.local/video/8f2c1a/movie.mkv?sig=xyz",
			"method":             "GET",
			"expires_in_seconds": 900,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
	require.NoError(t, err)

	presigned, err := client.PresignDownload(context.Background(), "video/8f2c1a/movie.mkv", 900)
	require.NoError(t, err)
	assert.Equal(t, "GET", presigned.Method)
	assert.Equal(t, 900, presigned.ExpiresInSeconds)
}

func TestClient_Upload(t *testing.T) {
	t.Run("successful upload", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/presign/upload":
				assert.Equal(t, http.MethodPost, r.Method)
				resp := map[string]any{
					"url":                server.URL + "/store/audio/track.mp3",
					"method":             "PUT",
					"expires_in_seconds": 900,
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)

			case "/store/audio/track.mp3":
				assert.Equal(t, http.MethodPut, r.Method)
				assert.Equal(t, "audio/mpeg", r.Header.Get("Content-Type"))

				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Equal(t, "test content", string(body))

				w.Header().Set("ETag", `"abc123"`)
				w.WriteHeader(http.StatusOK)

			default:
				t.Errorf("unexpected request to %s", r.URL.Path)
			}
		}))
		defer server.Close()

		tmpDir := t.TempDir()
		localPath := filepath.Join(tmpDir, "track.mp3")
		err := os.WriteFile(localPath, []byte("test content"), 0o600)
		require.NoError(t, err)

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		results, err := client.Upload(context.Background(), clientcli.UploadOptions{
			LocalPath:   localPath,
			Key:         "audio/track.mp3",
			ContentType: "audio/mpeg",
		})
		require.NoError(t, err)
		require.Len(t, results, 1)

		result := results[0]
		assert.Equal(t, localPath, result.LocalPath)
		assert.Equal(t, "audio/track.mp3", result.Key)
		assert.Equal(t, "abc123", result.ETag)
		assert.Equal(t, int64(12), result.Size)
		assert.Nil(t, result.Err)
	})

	t.Run("content type detected from extension", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/presign/upload":
				var req map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "image/png", req["content_type"])

				resp := map[string]any{
					"url":    server.URL + "/store/image/cat.png",
					"method": "PUT",
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)

			case "/store/image/cat.png":
				assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
				w.WriteHeader(http.StatusOK)

			default:
				t.Errorf("unexpected request to %s", r.URL.Path)
			}
		}))
		defer server.Close()

		tmpDir := t.TempDir()
		localPath := filepath.Join(tmpDir, "cat.png")
		require.NoError(t, os.WriteFile(localPath, []byte("png bytes"), 0o600))

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		results, err := client.Upload(context.Background(), clientcli.UploadOptions{
			LocalPath: localPath,
			Key:       "image/cat.png",
		})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "image/png", results[0].ContentType)
	})

	t.Run("recursive upload", func(t *testing.T) {
		uploaded := make(map[string]string)
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/presign/upload" {
				var req map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				key, _ := req["key"].(string)

				resp := map[string]any{
					"url":    server.URL + "/store/" + key,
					"method": "PUT",
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
				return
			}

			// Store PUT
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			key := r.URL.Path[len("/store/"):]
			uploaded[key] = string(body)
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		tmpDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "one.mp3"), []byte("first"), 0o600))
		require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "album"), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "album", "two.mp3"), []byte("second"), 0o600))

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		results, err := client.Upload(context.Background(), clientcli.UploadOptions{
			LocalPath: tmpDir,
			Key:       "audio",
			Recursive: true,
		})
		require.NoError(t, err)
		require.Len(t, results, 2)

		for _, r := range results {
			assert.Nil(t, r.Err)
		}
		assert.Equal(t, "first", uploaded["audio/one.mp3"])
		assert.Equal(t, "second", uploaded["audio/album/two.mp3"])
	})

	t.Run("presign error aborts upload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error": "store_unavailable", "message": "Object store unreachable"}`))
		}))
		defer server.Close()

		tmpDir := t.TempDir()
		localPath := filepath.Join(tmpDir, "track.mp3")
		require.NoError(t, os.WriteFile(localPath, []byte("test content"), 0o600))

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		_, err = client.Upload(context.Background(), clientcli.UploadOptions{
			LocalPath: localPath,
			Key:       "audio/track.mp3",
		})
		assert.ErrorIs(t, err, clientcli.ErrStoreUnavailable)
	})

	t.Run("empty local path", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080"})
		require.NoError(t, err)

		_, err = client.Upload(context.Background(), clientcli.UploadOptions{
			Key: "audio/track.mp3",
		})
		assert.ErrorIs(t, err, clientcli.ErrEmptyPath)
	})

	t.Run("empty key", func(t *testing.T) {
		tmpDir := t.TempDir()
		localPath := filepath.Join(tmpDir, "track.mp3")
		require.NoError(t, os.WriteFile(localPath, []byte("x"), 0o600))

		client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:8080"})
		require.NoError(t, err)

		_, err = client.Upload(context.Background(), clientcli.UploadOptions{
			LocalPath: localPath,
		})
		assert.ErrorIs(t, err, clientcli.ErrEmptyKey)
	})
}

func TestClient_Download(t *testing.T) {
	t.Run("successful download to file", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/media/audio/track.mp3", r.URL.Path)
			assert.Empty(t, r.Header.Get("Range"))

			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("downloaded content"))
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		tmpDir := t.TempDir()
		localPath := filepath.Join(tmpDir, "track.mp3")

		result, reader, err := client.Download(context.Background(), clientcli.DownloadOptions{
			Key:       "audio/track.mp3",
			LocalPath: localPath,
		})
		require.NoError(t, err)
		assert.Nil(t, reader)
		assert.Equal(t, "audio/mpeg", result.ContentType)
		assert.Equal(t, int64(18), result.Size)
		assert.False(t, result.Resumed)

		content, err := os.ReadFile(localPath)
		require.NoError(t, err)
		assert.Equal(t, "downloaded content", string(content))
	})

	t.Run("download to stdout returns reader", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("stdout content"))
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		result, reader, err := client.Download(context.Background(), clientcli.DownloadOptions{
			Key:       "audio/track.mp3",
			LocalPath: "-",
		})
		require.NoError(t, err)
		require.NotNil(t, reader)
		defer func() { _ = reader.Close() }()

		assert.Equal(t, "-", result.LocalPath)

		content, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "stdout content", string(content))
	})

	t.Run("resume appends remainder", func(t *testing.T) {
		full := "hello world"
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "bytes=5-", r.Header.Get("Range"))

			w.Header().Set("Content-Type", "audio/mpeg")
			w.Header().Set("Content-Range", "bytes 5-10/11")
			w.WriteHeader(http.StatusPartialContent)
			_, _ = w.Write([]byte(full[5:]))
		}))
		defer server.Close()

		tmpDir := t.TempDir()
		localPath := filepath.Join(tmpDir, "track.mp3")
		require.NoError(t, os.WriteFile(localPath, []byte(full[:5]), 0o600))

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		result, _, err := client.Download(context.Background(), clientcli.DownloadOptions{
			Key:       "audio/track.mp3",
			LocalPath: localPath,
			Resume:    true,
		})
		require.NoError(t, err)
		assert.True(t, result.Resumed)
		assert.Equal(t, int64(5), result.Offset)
		assert.Equal(t, int64(6), result.Size)

		content, err := os.ReadFile(localPath)
		require.NoError(t, err)
		assert.Equal(t, full, string(content))
	})

	t.Run("resume with no partial file starts fresh", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Empty(t, r.Header.Get("Range"))
			_, _ = w.Write([]byte("fresh content"))
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		tmpDir := t.TempDir()
		localPath := filepath.Join(tmpDir, "track.mp3")

		result, _, err := client.Download(context.Background(), clientcli.DownloadOptions{
			Key:       "audio/track.mp3",
			LocalPath: localPath,
			Resume:    true,
		})
		require.NoError(t, err)
		assert.False(t, result.Resumed)
		assert.Equal(t, int64(13), result.Size)
	})

	t.Run("server degrades range to full response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "bytes=5-", r.Header.Get("Range"))

			// A 200 means the range was not honored; the client must
			// restart the file rather than append.
			_, _ = w.Write([]byte("entire object"))
		}))
		defer server.Close()

		tmpDir := t.TempDir()
		localPath := filepath.Join(tmpDir, "track.mp3")
		require.NoError(t, os.WriteFile(localPath, []byte("stale"), 0o600))

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		result, _, err := client.Download(context.Background(), clientcli.DownloadOptions{
			Key:       "audio/track.mp3",
			LocalPath: localPath,
			Resume:    true,
		})
		require.NoError(t, err)
		assert.False(t, result.Resumed)
		assert.Equal(t, int64(13), result.Size)

		content, err := os.ReadFile(localPath)
		require.NoError(t, err)
		assert.Equal(t, "entire object", string(content))
	})

	t.Run("resume of complete file is a no-op", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "bytes=9-", r.Header.Get("Range"))

			w.Header().Set("Content-Range", "bytes */9")
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		}))
		defer server.Close()

		tmpDir := t.TempDir()
		localPath := filepath.Join(tmpDir, "track.mp3")
		require.NoError(t, os.WriteFile(localPath, []byte("complete!"), 0o600))

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		result, reader, err := client.Download(context.Background(), clientcli.DownloadOptions{
			Key:       "audio/track.mp3",
			LocalPath: localPath,
			Resume:    true,
		})
		require.NoError(t, err)
		assert.Nil(t, reader)
		assert.True(t, result.Resumed)
		assert.Equal(t, int64(9), result.Offset)
		assert.Equal(t, int64(0), result.Size)

		content, err := os.ReadFile(localPath)
		require.NoError(t, err)
		assert.Equal(t, "complete!", string(content))
	})

	t.Run("unsatisfiable range with mismatched size is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Range", "bytes */9")
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			_, _ = w.Write([]byte(`{"error": "range_not_satisfiable", "message": "Range start beyond object size"}`))
		}))
		defer server.Close()

		tmpDir := t.TempDir()
		localPath := filepath.Join(tmpDir, "track.mp3")
		require.NoError(t, os.WriteFile(localPath, []byte("local file too long"), 0o600))

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		_, _, err = client.Download(context.Background(), clientcli.DownloadOptions{
			Key:       "audio/track.mp3",
			LocalPath: localPath,
			Resume:    true,
		})
		require.Error(t, err)

		var apiErr *clientcli.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, apiErr.StatusCode)
	})

	t.Run("download 404 error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error": "not_found", "message": "Object not found"}`))
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		_, _, err = client.Download(context.Background(), clientcli.DownloadOptions{
			Key:       "audio/missing.mp3",
			LocalPath: "-",
		})
		assert.ErrorIs(t, err, clientcli.ErrNotFound)

		var apiErr *clientcli.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.True(t, apiErr.IsNotFound())
		assert.Equal(t, "not_found", apiErr.Code)
	})

	t.Run("invalid key fails before any request", func(t *testing.T) {
		var called bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		_, _, err = client.Download(context.Background(), clientcli.DownloadOptions{
			Key:       "secrets/../etc/passwd",
			LocalPath: "-",
		})
		assert.ErrorIs(t, err, mediashelf.ErrInvalidKey)
		assert.False(t, called)
	})

	t.Run("local path derived from key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("movie bytes"))
		}))
		defer server.Close()

		client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL})
		require.NoError(t, err)

		tmpDir := t.TempDir()
		t.Chdir(tmpDir)

		result, _, err := client.Download(context.Background(), clientcli.DownloadOptions{
			Key: "video/8f2c1a/movie.mkv",
		})
		require.NoError(t, err)
		assert.Equal(t, "movie.mkv", result.LocalPath)

		_, err = os.Stat(filepath.Join(tmpDir, "movie.mkv"))
		assert.NoError(t, err)
	})
}

func TestAPIError(t *testing.T) {
	t.Run("error string with code", func(t *testing.T) {
		err := &clientcli.APIError{
			StatusCode: http.StatusNotFound,
			Code:       "not_found",
			Message:    "Object not found",
		}
		assert.Equal(t, "server error: 404 - not_found: Object not found", err.Error())
	})

	t.Run("error string without code", func(t *testing.T) {
		err := &clientcli.APIError{
			StatusCode: http.StatusBadGateway,
			Body:       "upstream exploded",
		}
		assert.Equal(t, "server error: 502 - upstream exploded", err.Error())
	})

	t.Run("sentinel matching", func(t *testing.T) {
		err := &clientcli.APIError{StatusCode: http.StatusGatewayTimeout, Code: "upstream_timeout"}
		assert.ErrorIs(t, err, clientcli.ErrUpstreamTimeout)
		assert.NotErrorIs(t, err, clientcli.ErrNotFound)
	})

	t.Run("sentinel matching through wrapping", func(t *testing.T) {
		inner := &clientcli.APIError{StatusCode: http.StatusNotFound}
		err := errors.Join(errors.New("download"), inner)
		assert.ErrorIs(t, err, clientcli.ErrNotFound)
	})
}
