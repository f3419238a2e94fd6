package entity

import (
	"errors"
	"net/url"
	"strconv"
)

// Варианты сортировки списка отзывов
const (
	SortRecent        = "recent" // По умолчанию
	SortHelpful       = "helpful"
	SortHighestRating = "highest_rating"
	SortLowestRating  = "lowest_rating"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

var ErrInvalidFilter = errors.New("invalid review filter")

// ReviewFilter - явная структура фильтров вместо открытой map,
// чтобы разбор и обратная сериализация были без потерь.
// Тройственные фильтры (Approved, VerifiedPurchase) кодируются указателями: nil = не задан
type ReviewFilter struct {
	ProductID        string
	Rating           *int  // 1..5 или nil
	Sort             string
	Approved         *bool // Учитывается только для модераторов
	VerifiedPurchase *bool
	Page             int // Нумерация с 1
	Limit            int
}

// ParseReviewFilter разбирает query-параметры списка отзывов.
// Отсутствующие параметры получают значения по умолчанию, мусорные - ошибку
func ParseReviewFilter(productID string, values url.Values) (ReviewFilter, error) {
	f := ReviewFilter{
		ProductID: productID,
		Sort:      SortRecent,
		Page:      1,
		Limit:     DefaultPageLimit,
	}

	if v := values.Get("rating"); v != "" {
		rating, err := strconv.Atoi(v)
		if err != nil || rating < 1 || rating > 5 {
			return f, ErrInvalidFilter
		}
		f.Rating = &rating
	}

	if v := values.Get("sort"); v != "" {
		switch v {
		case SortRecent, SortHelpful, SortHighestRating, SortLowestRating:
			f.Sort = v
		default:
			return f, ErrInvalidFilter
		}
	}

	if v := values.Get("approved"); v != "" {
		approved, err := strconv.ParseBool(v)
		if err != nil {
			return f, ErrInvalidFilter
		}
		f.Approved = &approved
	}

	if v := values.Get("verified_purchase"); v != "" {
		verified, err := strconv.ParseBool(v)
		if err != nil {
			return f, ErrInvalidFilter
		}
		f.VerifiedPurchase = &verified
	}

	if v := values.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return f, ErrInvalidFilter
		}
		f.Page = page
	}

	if v := values.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 || limit > MaxPageLimit {
			return f, ErrInvalidFilter
		}
		f.Limit = limit
	}

	return f, nil
}

// QueryValues сериализует фильтр обратно в query-параметры.
// ParseReviewFilter(QueryValues(f)) == f для любого валидного f
func (f ReviewFilter) QueryValues() url.Values {
	values := url.Values{}

	if f.Rating != nil {
		values.Set("rating", strconv.Itoa(*f.Rating))
	}
	if f.Sort != "" && f.Sort != SortRecent {
		values.Set("sort", f.Sort)
	}
	if f.Approved != nil {
		values.Set("approved", strconv.FormatBool(*f.Approved))
	}
	if f.VerifiedPurchase != nil {
		values.Set("verified_purchase", strconv.FormatBool(*f.VerifiedPurchase))
	}
	if f.Page > 1 {
		values.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 && f.Limit != DefaultPageLimit {
		values.Set("limit", strconv.Itoa(f.Limit))
	}

	return values
}

// Offset возвращает смещение для выборки
func (f ReviewFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// ForViewer возвращает копию фильтра с правилом видимости:
// не-модераторы не управляют фильтром approved
func (f ReviewFilter) ForViewer(viewer Viewer) ReviewFilter {
	if !viewer.IsModerator() {
		f.Approved = nil
	}
	return f
}
