package models

// SortMode — режим упорядочивания опубликованных статей.
type SortMode string

const (
	// SortRecent — published_at DESC.
	SortRecent SortMode = "recent"
	// SortTrending — trending_score DESC, published_at DESC.
	SortTrending SortMode = "trending"
	// SortFeatured — только is_featured, priority DESC, published_at DESC.
	SortFeatured SortMode = "featured"
)

// Valid сообщает, поддерживается ли режим.
func (m SortMode) Valid() bool {
	switch m {
	case SortRecent, SortTrending, SortFeatured:
		return true
	default:
		return false
	}
}

// PageRequest — параметры постраничной выдачи.
//
// Особенности:
//   - Page нумеруется с 1; Page <= 0 трактуется как 1;
//   - Limit == 0 -> серверный default (config.LimitsConfig.Default), сверху ограничен Max.
type PageRequest struct {
	Page  int
	Limit int
}

// Offset — смещение первой записи страницы.
func (p PageRequest) Offset() int {
	if p.Page <= 1 {
		return 0
	}

	return (p.Page - 1) * p.Limit
}

// Filters — точные фильтры по тегам и категориям.
// Между измерениями — AND, внутри измерения — OR.
type Filters struct {
	Tags       []string
	Categories []string
}

// ListQuery — запрос списка опубликованных статей.
type ListQuery struct {
	Sort    SortMode
	Filters Filters
	Page    PageRequest
}

// SearchQuery — полнотекстовый запрос по опубликованным статьям.
type SearchQuery struct {
	Text    string
	Filters Filters
	Page    PageRequest
}

// ArticlePage — страница статей.
// HasMore — есть ли записи за пределами страницы.
type ArticlePage struct {
	Items   []Article
	Page    int
	Limit   int
	HasMore bool
}
