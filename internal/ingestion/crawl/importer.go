package crawl

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"comichub/internal/microservices/http-api/models"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/textutil"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAuthor = "Đang Cập Nhật"
	defaultStatus = "Đang Tiến Hành"
)

type Options struct {
	// SourceURL builds the link for comics exported without one.
	SourceURL string
	// ImageBaseURL prefixes image paths that are not absolute URLs.
	ImageBaseURL string
	Workers      int
}

// Importer upserts crawled comics: categories by slug, comics by slug and
// chapters by (comic, title). Existing chapters are left untouched.
type Importer struct {
	comics     repository.ComicRepository
	chapters   repository.ChapterRepository
	categories repository.CategoryRepository
	cache      *repository.Cache
	opts       Options
	log        *zap.Logger
}

func NewImporter(
	comics repository.ComicRepository,
	chapters repository.ChapterRepository,
	categories repository.CategoryRepository,
	cache *repository.Cache,
	opts Options,
	log *zap.Logger,
) *Importer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	opts.SourceURL = strings.TrimRight(opts.SourceURL, "/")
	opts.ImageBaseURL = strings.TrimRight(opts.ImageBaseURL, "/")
	return &Importer{comics: comics, chapters: chapters, categories: categories, cache: cache, opts: opts, log: log}
}

// Import runs the upsert. A comic that fails is logged and counted; only
// context cancellation aborts the whole run.
func (im *Importer) Import(ctx context.Context, comics []Comic) (*Report, error) {
	report := &Report{}

	// categories go first and serially so concurrent comics never race on the same slug
	categoryIDs, err := im.upsertCategories(ctx, comics)
	if err != nil {
		return report, err
	}
	report.Categories = len(categoryIDs)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.opts.Workers)
	for _, c := range comics {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := im.importComic(gctx, c, categoryIDs)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				im.log.Warn("import comic", zap.String("title", c.Title), zap.Error(err))
				report.Failed++
				return nil
			}
			report.ComicsCreated += r.ComicsCreated
			report.ComicsUpdated += r.ComicsUpdated
			report.ChaptersCreated += r.ChaptersCreated
			report.ChaptersSkipped += r.ChaptersSkipped
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	if err := im.cache.Delete(ctx, repository.CatalogEntriesKey); err != nil {
		im.log.Warn("invalidate catalog cache", zap.Error(err))
	}
	return report, nil
}

func (im *Importer) upsertCategories(ctx context.Context, comics []Comic) (map[string]int64, error) {
	ids := make(map[string]int64)
	for _, c := range comics {
		for _, name := range c.Genres {
			name = strings.TrimSpace(name)
			slug := textutil.Slugify(name)
			if slug == "" {
				continue
			}
			if _, ok := ids[slug]; ok {
				continue
			}
			cat, err := im.categories.FirstOrCreateBySlug(ctx, name, slug)
			if err != nil {
				return nil, fmt.Errorf("category %q: %w", name, err)
			}
			ids[slug] = cat.ID
		}
	}
	return ids, nil
}

func (im *Importer) importComic(ctx context.Context, in Comic, categoryIDs map[string]int64) (*Report, error) {
	r := &Report{}
	title := strings.TrimSpace(in.Title)
	if !textutil.ValidComicTitle(title) {
		return nil, fmt.Errorf("invalid title %q", in.Title)
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = textutil.Slugify(title)
	}

	updatedAt := textutil.ParseUpdatedAt(in.UpdatedAt)
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	comic, err := im.comics.FindBySlug(ctx, slug)
	switch {
	case err == nil:
		im.applyFields(comic, in, title, updatedAt)
		if err := im.comics.Update(ctx, comic); err != nil {
			return nil, err
		}
		r.ComicsUpdated++
	case repository.IsNotFound(err):
		comic = &models.Comic{Slug: slug}
		im.applyFields(comic, in, title, updatedAt)
		if err := im.comics.Create(ctx, comic); err != nil {
			return nil, err
		}
		r.ComicsCreated++
	default:
		return nil, err
	}

	ids := make([]int64, 0, len(in.Genres))
	for _, g := range in.Genres {
		if id, ok := categoryIDs[textutil.Slugify(g)]; ok {
			ids = append(ids, id)
		}
	}
	if err := im.comics.ReplaceCategories(ctx, comic, ids); err != nil {
		return nil, err
	}

	created, skipped, err := im.importChapters(ctx, comic, in.Chapters)
	if err != nil {
		return nil, err
	}
	r.ChaptersCreated, r.ChaptersSkipped = created, skipped
	return r, nil
}

func (im *Importer) applyFields(c *models.Comic, in Comic, title string, updatedAt time.Time) {
	c.Title = title
	c.OtherName = strings.TrimSpace(in.OtherName)
	c.CoverURL = im.imageURL(in.Cover)
	c.Author = orDefault(in.Author, defaultAuthor)
	c.Status = orDefault(in.Status, defaultStatus)
	c.Description = strings.TrimSpace(in.Description)
	c.Link = strings.TrimSpace(in.Link)
	if c.Link == "" && im.opts.SourceURL != "" {
		c.Link = im.opts.SourceURL + "/" + c.Slug
	}
	c.UpdatedAt = updatedAt
}

func (im *Importer) importChapters(ctx context.Context, comic *models.Comic, chapters []Chapter) (created, skipped int, err error) {
	existing, err := im.chapters.ListByComic(ctx, comic.ID)
	if err != nil {
		return 0, 0, err
	}
	seen := make(map[string]bool, len(existing))
	numbers := make(map[float64]bool, len(existing))
	for _, ch := range existing {
		seen[ch.Title] = true
		numbers[ch.Number] = true
	}

	for _, in := range chapters {
		title := strings.Join(strings.Fields(in.Title), " ")
		if seen[title] || !textutil.ValidChapterTitle(title) || len(in.LocalImages) == 0 {
			skipped++
			continue
		}
		// chapters sharing a number would share a reader slug
		number, _ := textutil.ChapterNumber(title)
		if numbers[number] {
			skipped++
			continue
		}
		ch := &models.Chapter{
			ComicID: comic.ID,
			Title:   title,
			Number:  number,
			Slug:    textutil.ChapterSlug(title),
		}
		for i, img := range in.LocalImages {
			ch.Images = append(ch.Images, models.ChapterImage{Position: i + 1, URL: im.imageURL(img)})
		}
		if err := im.chapters.Create(ctx, ch); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("chapter %q: %w", title, err)
		}
		seen[title] = true
		numbers[number] = true
		created++
	}
	return created, skipped, nil
}

func (im *Importer) imageURL(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || im.opts.ImageBaseURL == "" || strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return im.opts.ImageBaseURL + "/" + strings.TrimLeft(strings.ReplaceAll(p, "\\", "/"), "./")
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}
