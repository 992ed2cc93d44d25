package analytics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ben-burie/Stryde/internal/domain/upload"
)

func TestAnalyzePostsSingleFileField(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/upload-data", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		require.Len(t, r.MultipartForm.File, 1)
		files := r.MultipartForm.File["file"]
		require.Len(t, files, 1)
		require.Equal(t, "runs.csv", files[0].Filename)

		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		body, err := io.ReadAll(f)
		require.NoError(t, err)
		require.Equal(t, "date,hr\n", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"vdot":52.3456,"avg_hr":147.6,"fivek_time":"19:40","half_time":"1:30:48","full_time":"3:09:12"}`))
	}))
	defer srv.Close()

	client := NewClientWithDoer(srv.URL+"/api/", srv.Client())
	res, err := client.Analyze(context.Background(), upload.File{Name: "runs.csv", Content: []byte("date,hr\n")})
	require.NoError(t, err)
	require.Equal(t, 1, hits)
	require.Equal(t, "52.35", res.Project().VDOT)
}

func TestAnalyzeDecodesErrorBodyOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad format"}`))
	}))
	defer srv.Close()

	res, err := NewClientWithDoer(srv.URL, srv.Client()).Analyze(context.Background(), upload.File{Name: "x.csv"})
	require.NoError(t, err)
	require.True(t, res.HasError())
	require.Equal(t, "bad format", res.ErrorText())
}

func TestAnalyzeNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := NewClientWithDoer(srv.URL, srv.Client()).Analyze(context.Background(), upload.File{Name: "x.csv"})
	require.ErrorContains(t, err, "status=502")
}

func TestAnalyzeTransportError(t *testing.T) {
	client := NewClientWithDoer("http://analytics.invalid", doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	}))
	_, err := client.Analyze(context.Background(), upload.File{Name: "x.csv"})
	require.ErrorContains(t, err, "connection refused")
}

func TestDefaultBaseURL(t *testing.T) {
	require.Equal(t, "http://127.0.0.1:5000/api/upload-data", NewClient("", 0).Endpoint())
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }
