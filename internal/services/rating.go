package services

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"
)

type titleAverage struct {
	TitleID uint
	Average float64
}

// loadRatings returns the rounded mean score per title for the given ids.
// Titles without reviews are absent from the map. Ratings are computed from
// the live review rows on every call; nothing is cached or stored.
func loadRatings(ctx context.Context, db *gorm.DB, titleIDs []uint) (map[uint]int, error) {
	ratings := make(map[uint]int, len(titleIDs))
	if len(titleIDs) == 0 {
		return ratings, nil
	}

	var averages []titleAverage
	err := db.WithContext(ctx).
		Table("reviews").
		Select("title_id, AVG(CAST(score AS FLOAT)) AS average").
		Where("title_id IN ?", titleIDs).
		Group("title_id").
		Scan(&averages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}

	for _, avg := range averages {
		ratings[avg.TitleID] = roundRating(avg.Average)
	}
	return ratings, nil
}

// roundRating rounds half to even, so a mean of 6.5 reads 6 and 7.5 reads 8.
func roundRating(mean float64) int {
	return int(math.RoundToEven(mean))
}
