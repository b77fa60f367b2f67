package service

import (
	"context"
	"errors"

	"comichub/internal/history"
	"comichub/internal/microservices/http-api/repository"
	"comichub/internal/pagination"

	"go.uber.org/zap"
)

// HistoryPage is one page of reading history, newest first.
type HistoryPage struct {
	Items      []history.Item `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalPages int            `json:"total_pages"`
	Pages      []string       `json:"pages"`
}

type HistoryService interface {
	List(ctx context.Context, mode history.Mode, owner string, page pagination.Page) (*HistoryPage, error)
	Remove(ctx context.Context, mode history.Mode, owner, slug string) error
	Clear(ctx context.Context, mode history.Mode, owner string) error
	SyncDevice(ctx context.Context, userID, deviceID string) (int, error)

	// Items is the full history of whoever is reading: the account when
	// signed in, otherwise the device. Missing stores yield an empty list.
	Items(ctx context.Context, viewer Viewer) ([]history.Item, error)
	Record(ctx context.Context, viewer Viewer, item history.Item) (history.Item, error)
	LastRead(ctx context.Context, viewer Viewer, slug, title string) (*history.Item, error)
}

type historyService struct {
	account repository.HistoryStore
	device  repository.HistoryStore
	log     *zap.Logger
}

func NewHistoryService(account, device repository.HistoryStore, log *zap.Logger) HistoryService {
	return &historyService{account: account, device: device, log: log}
}

func (s *historyService) store(mode history.Mode, owner string) (repository.HistoryStore, error) {
	if mode == history.ModeAccount {
		return s.account, nil
	}
	if owner == "" {
		return nil, ErrDeviceRequired
	}
	return s.device, nil
}

func storeErr(err error) error {
	if errors.Is(err, repository.ErrStoreDisabled) {
		return ErrHistoryUnavailable
	}
	return err
}

func (s *historyService) List(ctx context.Context, mode history.Mode, owner string, page pagination.Page) (*HistoryPage, error) {
	st, err := s.store(mode, owner)
	if err != nil {
		return nil, err
	}
	items, err := st.List(ctx, owner)
	if err != nil {
		return nil, storeErr(err)
	}
	history.SortNewest(items)

	totalPages := pagination.TotalPages(int64(len(items)), page.Size)
	return &HistoryPage{
		Items:      pagination.Slice(items, page),
		Total:      len(items),
		Page:       page.Number,
		PageSize:   page.Size,
		TotalPages: totalPages,
		Pages:      pagination.Range(page.Number, totalPages),
	}, nil
}

func (s *historyService) Remove(ctx context.Context, mode history.Mode, owner, slug string) error {
	st, err := s.store(mode, owner)
	if err != nil {
		return err
	}
	return storeErr(st.Remove(ctx, owner, slug))
}

func (s *historyService) Clear(ctx context.Context, mode history.Mode, owner string) error {
	st, err := s.store(mode, owner)
	if err != nil {
		return err
	}
	return storeErr(st.Clear(ctx, owner))
}

// SyncDevice merges a device's history into the account and clears the device.
// It returns the number of comics merged.
func (s *historyService) SyncDevice(ctx context.Context, userID, deviceID string) (int, error) {
	if deviceID == "" {
		return 0, ErrDeviceRequired
	}
	items, err := s.device.List(ctx, deviceID)
	if err != nil {
		return 0, storeErr(err)
	}
	for _, it := range items {
		if _, err := s.account.Add(ctx, userID, it); err != nil {
			return 0, err
		}
	}
	if err := s.device.Clear(ctx, deviceID); err != nil {
		return len(items), storeErr(err)
	}
	return len(items), nil
}

func (s *historyService) viewerStore(viewer Viewer) (repository.HistoryStore, string) {
	switch {
	case viewer.Authenticated():
		return s.account, viewer.UserID
	case viewer.DeviceID != "":
		return s.device, viewer.DeviceID
	default:
		return nil, ""
	}
}

func (s *historyService) Items(ctx context.Context, viewer Viewer) ([]history.Item, error) {
	st, owner := s.viewerStore(viewer)
	if st == nil {
		return []history.Item{}, nil
	}
	items, err := st.List(ctx, owner)
	if errors.Is(err, repository.ErrStoreDisabled) {
		return []history.Item{}, nil
	}
	return items, err
}

// Record adds a read chapter to the viewer's history. Anonymous readers
// without a device id, or without a device store, are not tracked.
func (s *historyService) Record(ctx context.Context, viewer Viewer, item history.Item) (history.Item, error) {
	st, owner := s.viewerStore(viewer)
	if st == nil {
		return item, nil
	}
	merged, err := st.Add(ctx, owner, item)
	if errors.Is(err, repository.ErrStoreDisabled) {
		s.log.Debug("device history disabled, read not recorded", zap.String("slug", item.Slug))
		return item, nil
	}
	return merged, err
}

// LastRead finds the history entry for a comic, tolerating renamed slugs.
func (s *historyService) LastRead(ctx context.Context, viewer Viewer, slug, title string) (*history.Item, error) {
	items, err := s.Items(ctx, viewer)
	if err != nil {
		return nil, err
	}
	it, ok := history.LastRead(items, slug, title)
	if !ok {
		return nil, ErrHistoryNotFound
	}
	return &it, nil
}
