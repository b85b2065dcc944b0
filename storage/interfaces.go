package storage

import (
	"context"

	"fairprice/models"
)

// StatisticsSource is the interface any upstream statistics backend must satisfy.
type StatisticsSource interface {
	Load(ctx context.Context) (*models.StatisticsSnapshot, error)
}

// StatisticsWriter persists a snapshot so a StatisticsSource can serve it later.
type StatisticsWriter interface {
	Write(ctx context.Context, snap *models.StatisticsSnapshot) error
	Close() error
}
