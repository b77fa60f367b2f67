package upload

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"comichub/internal/metrics"
	"comichub/internal/textutil"

	"go.uber.org/zap"
)

// ErrDisabled is returned when no image host is configured.
var ErrDisabled = errors.New("image upload is not configured")

// Uploader is what the services need from the image host.
type Uploader interface {
	UploadCover(ctx context.Context, comicSlug string, f File) (string, error)
	UploadChapterImages(ctx context.Context, comicSlug, chapterTitle string, files []File) ([]string, error)
	UploadAvatar(ctx context.Context, userID string, f File) (string, error)
}

type uploader interface {
	Upload(ctx context.Context, req Request) (*Result, error)
}

// Options configure a Service.
type Options struct {
	Preset       string
	AvatarPreset string
	MaxSize      int64
	Workers      int
}

// Service validates files and sends them to the image host.
type Service struct {
	client uploader
	opts   Options
	log    *zap.Logger
}

// NewService wraps client. A nil client yields a service whose uploads fail
// with ErrDisabled.
func NewService(client *Client, opts Options, log *zap.Logger) *Service {
	s := &Service{opts: opts, log: log}
	if client != nil {
		s.client = client
	}
	if s.opts.Workers < 1 {
		s.opts.Workers = 1
	}
	return s
}

// UploadCover stores a comic cover under comics/{slug}/{file}.
func (s *Service) UploadCover(ctx context.Context, comicSlug string, f File) (string, error) {
	publicID := path.Join("comics", comicSlug, textutil.CleanFileName(f.Name))
	return s.uploadOne(ctx, "cover", Request{File: f, Preset: s.opts.Preset, PublicID: publicID})
}

// UploadAvatar stores a user avatar in the avatars folder.
func (s *Service) UploadAvatar(ctx context.Context, userID string, f File) (string, error) {
	f.Name = userID + "-" + f.Name
	return s.uploadOne(ctx, "avatar", Request{File: f, Preset: s.opts.AvatarPreset, Folder: "avatars"})
}

// UploadChapterImages uploads pages concurrently and returns their URLs in
// input order. All files are validated before anything is sent.
func (s *Service) UploadChapterImages(ctx context.Context, comicSlug, chapterTitle string, files []File) ([]string, error) {
	if s.client == nil {
		return nil, ErrDisabled
	}
	for _, f := range files {
		if _, err := Validate(f, s.opts.MaxSize); err != nil {
			return nil, err
		}
	}

	folder := path.Join("comics", comicSlug, textutil.ChapterFolder(chapterTitle))
	urls := make([]string, len(files))

	pool := NewWorkerPool(ctx, s.opts.Workers, s.log)
	pool.Start()
	for i, f := range files {
		req := Request{File: f, Preset: s.opts.Preset, PublicID: path.Join(folder, textutil.CleanFileName(f.Name))}
		submitted := pool.Submit(func(ctx context.Context) error {
			url, err := s.send(ctx, "chapter", req)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
		if !submitted {
			break
		}
	}
	if err := pool.Wait(); err != nil {
		return nil, fmt.Errorf("upload chapter images: %w", err)
	}
	return urls, nil
}

func (s *Service) uploadOne(ctx context.Context, kind string, req Request) (string, error) {
	if s.client == nil {
		return "", ErrDisabled
	}
	if _, err := Validate(req.File, s.opts.MaxSize); err != nil {
		return "", err
	}
	return s.send(ctx, kind, req)
}

func (s *Service) send(ctx context.Context, kind string, req Request) (string, error) {
	start := time.Now()
	res, err := s.client.Upload(ctx, req)
	metrics.ObserveImageUpload(kind, err, time.Since(start))
	if err != nil {
		return "", err
	}
	s.log.Debug("image uploaded", zap.String("kind", kind), zap.String("public_id", res.PublicID))
	return res.SecureURL, nil
}
