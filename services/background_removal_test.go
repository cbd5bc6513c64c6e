package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// predictionServer answers create with id "p1" and each poll with the next
// entry of polls, repeating the last one. {{server}} in a poll body is
// replaced with the server URL.
func predictionServer(t *testing.T, polls []string, output []byte) (*httptest.Server, *int32) {
	t.Helper()
	var pollCount int32
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/predictions", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
		var body predictionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "model-version", body.Version)
		assert.Equal(t, "https://cdn.example.com/wardrobe/original.jpg", body.Input.Image)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"p1","status":"starting"}`)
	})
	mux.HandleFunc("/predictions/p1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token test-token", r.Header.Get("Authorization"))
		n := int(atomic.AddInt32(&pollCount, 1)) - 1
		if n >= len(polls) {
			n = len(polls) - 1
		}
		fmt.Fprint(w, strings.ReplaceAll(polls[n], "{{server}}", server.URL))
	})
	mux.HandleFunc("/output.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write(output)
	})
	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &pollCount
}

func newTestRemover(apiURL string) *ReplicateBackgroundRemover {
	return &ReplicateBackgroundRemover{
		APIURL:       apiURL,
		APIToken:     "test-token",
		ModelVersion: "model-version",
		MaxAttempts:  5,
		FastAttempts: 2,
	}
}

const sourceURL = "https://cdn.example.com/wardrobe/original.jpg"

func TestRemoveBackgroundSucceedsAfterPolling(t *testing.T) {
	server, polls := predictionServer(t, []string{
		`{"id":"p1","status":"starting"}`,
		`{"id":"p1","status":"processing"}`,
		`{"id":"p1","status":"succeeded","output":"{{server}}/output.png"}`,
	}, []byte("png bytes"))

	out, err := newTestRemover(server.URL).RemoveBackground(context.Background(), sourceURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), out)
	assert.Equal(t, int32(3), atomic.LoadInt32(polls))
}

func TestRemoveBackgroundAcceptsListOutput(t *testing.T) {
	server, _ := predictionServer(t, []string{
		`{"id":"p1","status":"succeeded","output":["{{server}}/output.png","{{server}}/other.png"]}`,
	}, []byte("from list"))

	out, err := newTestRemover(server.URL).RemoveBackground(context.Background(), sourceURL)
	require.NoError(t, err)
	assert.Equal(t, []byte("from list"), out)
}

func TestRemoveBackgroundFailedPrediction(t *testing.T) {
	server, _ := predictionServer(t, []string{
		`{"id":"p1","status":"processing"}`,
		`{"id":"p1","status":"failed","error":"CUDA out of memory"}`,
	}, nil)

	_, err := newTestRemover(server.URL).RemoveBackground(context.Background(), sourceURL)
	var processing *ProcessingError
	require.True(t, errors.As(err, &processing))
	assert.Equal(t, "CUDA out of memory", processing.Message)
}

func TestRemoveBackgroundCanceledWithoutMessage(t *testing.T) {
	server, _ := predictionServer(t, []string{`{"id":"p1","status":"canceled","error":null}`}, nil)

	_, err := newTestRemover(server.URL).RemoveBackground(context.Background(), sourceURL)
	var processing *ProcessingError
	require.True(t, errors.As(err, &processing))
	assert.Equal(t, "unknown error", processing.Message)
}

func TestRemoveBackgroundTimesOut(t *testing.T) {
	server, polls := predictionServer(t, []string{`{"id":"p1","status":"processing"}`}, nil)

	_, err := newTestRemover(server.URL).RemoveBackground(context.Background(), sourceURL)
	assert.ErrorIs(t, err, ErrProcessingTimeout)
	assert.Equal(t, int32(5), atomic.LoadInt32(polls))
}

func TestRemoveBackgroundUnknownStatus(t *testing.T) {
	server, _ := predictionServer(t, []string{`{"id":"p1","status":"exploded"}`}, nil)

	_, err := newTestRemover(server.URL).RemoveBackground(context.Background(), sourceURL)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestRemoveBackgroundRejectedCreate(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail":"bad token"}`)
	}))
	defer api.Close()

	_, err := newTestRemover(api.URL).RemoveBackground(context.Background(), sourceURL)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestPollInterval(t *testing.T) {
	r := &ReplicateBackgroundRemover{FastAttempts: 10, FastInterval: 1, SlowInterval: 2}
	assert.EqualValues(t, 1, r.pollInterval(0))
	assert.EqualValues(t, 1, r.pollInterval(9))
	assert.EqualValues(t, 2, r.pollInterval(10))
}

func TestLocalBackgroundRemover(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradientImage(50, 50)))
	source := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer source.Close()

	out, err := NewLocalBackgroundRemover().RemoveBackground(context.Background(), source.URL)
	require.NoError(t, err)
	_, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}
