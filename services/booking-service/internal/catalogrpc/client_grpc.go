//go:build protogen

// Package catalogrpc looks up consultation services over gRPC instead of the
// local Kafka projection. Useful when a deployment wants slot generation to
// see catalog writes immediately rather than after the event round trip.
package catalogrpc

import (
	"context"
	"time"

	"github.com/nutribook/nutribook/libs/grpcx"
	catalogv1 "github.com/nutribook/nutribook/protos/gen/catalog/v1"
	"github.com/nutribook/nutribook/services/booking-service/internal/domain"
	"github.com/nutribook/nutribook/services/booking-service/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Store struct {
	conn   *grpc.ClientConn
	client catalogv1.CatalogServiceClient
}

func NewStore(addr string) (*Store, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &Store{conn: conn, client: catalogv1.NewCatalogServiceClient(conn)}, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) Get(ctx context.Context, serviceID string) (storage.CatalogEntry, error) {
	resp, err := s.client.GetService(ctx, &catalogv1.GetServiceRequest{ServiceId: serviceID})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return storage.CatalogEntry{}, domain.ErrNotFound
		}
		return storage.CatalogEntry{}, err
	}
	return toEntry(resp), nil
}

func (s *Store) ListActive(ctx context.Context) ([]storage.CatalogEntry, error) {
	resp, err := s.client.ListActiveServices(ctx, &catalogv1.ListActiveServicesRequest{})
	if err != nil {
		return nil, err
	}
	entries := make([]storage.CatalogEntry, 0, len(resp.GetServices()))
	for _, svc := range resp.GetServices() {
		entries = append(entries, toEntry(svc))
	}
	return entries, nil
}

func toEntry(svc *catalogv1.ServiceResponse) storage.CatalogEntry {
	entry := storage.CatalogEntry{
		ServiceID:       svc.GetServiceId(),
		Name:            svc.GetName(),
		DurationMinutes: int(svc.GetDurationMinutes()),
		Active:          svc.GetActive(),
	}
	if svc.GetUpdatedAt() != nil {
		entry.UpdatedAt = svc.GetUpdatedAt().AsTime()
	}
	return entry
}
