//go:build !protogen

// Package catalogrpc looks up consultation services over gRPC instead of the
// local Kafka projection. Built without the protogen tag it compiles to a
// no-op and the projection is used instead.
package catalogrpc

import (
	"context"

	"github.com/nutribook/nutribook/services/booking-service/internal/storage"
)

type Store struct{}

func NewStore(_ string) (*Store, error) {
	return nil, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Get(_ context.Context, _ string) (storage.CatalogEntry, error) {
	return storage.CatalogEntry{}, nil
}

func (s *Store) ListActive(_ context.Context) ([]storage.CatalogEntry, error) {
	return nil, nil
}
