package service

import (
	"context"
	"fmt"
	"math/rand/v2"

	"VirtualTourist-App/internal/domain/model"
	"VirtualTourist-App/internal/domain/repository"
)

// DefaultMaxPage 検索APIが返せる結果の上限に合わせたページ上限
const DefaultMaxPage = 40

// PageSelector どの検索結果ページを取得するかを決める
type PageSelector struct {
	searcher repository.PhotoSearchRepository
	maxPage  int
	// intN [0, n) の乱数を返す
	intN func(n int) int
}

func NewPageSelector(searcher repository.PhotoSearchRepository, maxPage int) *PageSelector {
	if maxPage <= 0 {
		maxPage = DefaultMaxPage
	}
	return &PageSelector{
		searcher: searcher,
		maxPage:  maxPage,
		intN:     rand.IntN,
	}
}

// Select カーソルに応じてページを選び検索する。実際に取得したページ番号も返す
//
// 初回 (cursor == nil): 1ページ目で総ページ数を調べ、[1, min(総ページ数, maxPage)] から無作為に選ぶ。
// 更新: cursor+1 を取得し、maxPageを超えたら1に戻る。サーバーの総ページ数が足りなければ1ページ目を取得する
func (s *PageSelector) Select(ctx context.Context, coord model.Coordinate, cursor *int) (*model.PhotoPage, int, error) {
	if cursor == nil {
		return s.selectRandom(ctx, coord)
	}
	return s.selectNext(ctx, coord, *cursor)
}

func (s *PageSelector) selectRandom(ctx context.Context, coord model.Coordinate) (*model.PhotoPage, int, error) {
	first, err := s.searcher.SearchPhotos(ctx, coord, 1)
	if err != nil {
		return nil, 0, err
	}
	if first.TotalPages <= 1 {
		return first, 1, nil
	}

	limit := min(first.TotalPages, s.maxPage)
	page := s.intN(limit) + 1
	if page == 1 {
		return first, 1, nil
	}

	result, err := s.searcher.SearchPhotos(ctx, coord, page)
	if err != nil {
		return nil, 0, fmt.Errorf("ページ%dの検索に失敗: %w", page, err)
	}
	return result, page, nil
}

func (s *PageSelector) selectNext(ctx context.Context, coord model.Coordinate, cursor int) (*model.PhotoPage, int, error) {
	page := cursor + 1
	if page > s.maxPage || page < 1 {
		page = 1
	}

	result, err := s.searcher.SearchPhotos(ctx, coord, page)
	if err != nil {
		return nil, 0, err
	}
	if page > 1 && result.TotalPages < page {
		result, err = s.searcher.SearchPhotos(ctx, coord, 1)
		if err != nil {
			return nil, 0, err
		}
		page = 1
	}
	return result, page, nil
}
