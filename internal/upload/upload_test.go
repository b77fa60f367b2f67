package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newTestClient(url string) *Client {
	c := NewClient(url, "demo", 100, zap.NewNop())
	c.InitialDelay = time.Millisecond
	c.MaxDelay = 5 * time.Millisecond
	c.MaxRetries = 2
	return c
}

func TestValidate(t *testing.T) {
	mt, err := Validate(File{Name: "a.png", Data: pngBytes}, 1024)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt)

	_, err = Validate(File{Name: "a.png"}, 1024)
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Validate(File{Name: "a.png", Data: pngBytes}, 4)
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Validate(File{Name: "a.txt", Data: []byte("hello world")}, 0)
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestClientUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "comic-upload", r.FormValue("upload_preset"))
		assert.Equal(t, "comics/naruto/cover", r.FormValue("public_id"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		body, _ := io.ReadAll(f)
		assert.Equal(t, "cover.png", hdr.Filename)
		assert.Equal(t, pngBytes, body)

		json.NewEncoder(w).Encode(map[string]any{
			"secure_url": "https://img.example/comics/naruto/cover.png",
			"public_id":  "comics/naruto/cover",
		})
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Upload(context.Background(), Request{
		File:     File{Name: "cover.png", Data: pngBytes},
		Preset:   "comic-upload",
		PublicID: "comics/naruto/cover",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/comics/naruto/cover.png", res.SecureURL)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"secure_url":"https://img.example/x.png"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Upload(context.Background(), Request{File: File{Name: "x.png", Data: pngBytes}})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/x.png", res.SecureURL)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Upload(context.Background(), Request{File: File{Name: "x.png", Data: pngBytes}})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.Contains(t, err.Error(), "Upload preset not found")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientGivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Upload(context.Background(), Request{File: File{Name: "x.png", Data: pngBytes}})
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.Status)
}

func TestWorkerPoolStopsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	pool := NewWorkerPool(context.Background(), 1, zap.NewNop())
	pool.Start()

	var ran atomic.Int32
	pool.Submit(func(ctx context.Context) error { ran.Add(1); return boom })
	for i := 0; i < 5; i++ {
		pool.Submit(func(ctx context.Context) error { ran.Add(1); return nil })
	}
	assert.ErrorIs(t, pool.Wait(), boom)
	assert.Less(t, ran.Load(), int32(6))
}

type fakeUploader struct {
	mu   sync.Mutex
	reqs []Request
	fail string
}

func (f *fakeUploader) Upload(ctx context.Context, req Request) (*Result, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	f.mu.Unlock()
	if req.File.Name == f.fail {
		return nil, &HTTPError{Status: 400, Message: "bad"}
	}
	return &Result{SecureURL: "https://img.example/" + req.PublicID, PublicID: req.PublicID}, nil
}

func TestServiceChapterImagesKeepOrder(t *testing.T) {
	fake := &fakeUploader{}
	svc := &Service{client: fake, opts: Options{Preset: "p", Workers: 3}, log: zap.NewNop()}

	files := []File{
		{Name: "01.png", Data: pngBytes},
		{Name: "02.png", Data: pngBytes},
		{Name: "03.png", Data: pngBytes},
		{Name: "04.png", Data: pngBytes},
	}
	urls, err := svc.UploadChapterImages(context.Background(), "naruto", "Chapter 12", files)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://img.example/comics/naruto/chapter-12/01",
		"https://img.example/comics/naruto/chapter-12/02",
		"https://img.example/comics/naruto/chapter-12/03",
		"https://img.example/comics/naruto/chapter-12/04",
	}, urls)
}

func TestServiceChapterImagesFailure(t *testing.T) {
	fake := &fakeUploader{fail: "02.png"}
	svc := &Service{client: fake, opts: Options{Workers: 1}, log: zap.NewNop()}

	_, err := svc.UploadChapterImages(context.Background(), "naruto", "Chapter 1", []File{
		{Name: "01.png", Data: pngBytes},
		{Name: "02.png", Data: pngBytes},
	})
	assert.True(t, IsClientError(err))
}

func TestServiceRejectsInvalidBeforeUpload(t *testing.T) {
	fake := &fakeUploader{}
	svc := &Service{client: fake, opts: Options{Workers: 2}, log: zap.NewNop()}

	_, err := svc.UploadChapterImages(context.Background(), "naruto", "Chapter 1", []File{
		{Name: "01.png", Data: pngBytes},
		{Name: "notes.txt", Data: []byte("plain text")},
	})
	assert.ErrorIs(t, err, ErrNotImage)
	assert.Empty(t, fake.reqs)
}

func TestServiceCoverAndAvatar(t *testing.T) {
	fake := &fakeUploader{}
	svc := &Service{client: fake, opts: Options{Preset: "comic-upload", AvatarPreset: "manga_avatar"}, log: zap.NewNop()}

	url, err := svc.UploadCover(context.Background(), "naruto", File{Name: "bìa.png", Data: pngBytes})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/comics/naruto/bia", url)

	_, err = svc.UploadAvatar(context.Background(), "u1", File{Name: "me.png", Data: pngBytes})
	require.NoError(t, err)
	last := fake.reqs[len(fake.reqs)-1]
	assert.Equal(t, "avatars", last.Folder)
	assert.Equal(t, "manga_avatar", last.Preset)
	assert.True(t, strings.HasPrefix(last.File.Name, "u1-"))
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(nil, Options{}, zap.NewNop())
	_, err := svc.UploadCover(context.Background(), "x", File{Name: "a.png", Data: pngBytes})
	assert.ErrorIs(t, err, ErrDisabled)
}
