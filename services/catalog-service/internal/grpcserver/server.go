//go:build protogen

package grpcserver

import (
	"context"

	"github.com/jackc/pgx/v5"
	catalogv1 "github.com/nutribook/nutribook/protos/gen/catalog/v1"
	"github.com/nutribook/nutribook/services/catalog-service/internal/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type server struct {
	catalogv1.UnimplementedCatalogServiceServer
	repo *storage.Repository
}

func Register(grpcServer *grpc.Server, repo *storage.Repository) {
	catalogv1.RegisterCatalogServiceServer(grpcServer, &server{repo: repo})
}

func (s *server) GetService(ctx context.Context, req *catalogv1.GetServiceRequest) (*catalogv1.ServiceResponse, error) {
	if req.GetServiceId() == "" {
		return nil, status.Error(codes.InvalidArgument, "service_id is required")
	}
	svc, err := s.repo.GetService(ctx, req.GetServiceId())
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, status.Error(codes.NotFound, "service not found")
		}
		return nil, status.Error(codes.Internal, "failed to load service")
	}
	return toProto(svc), nil
}

func (s *server) ListActiveServices(ctx context.Context, _ *catalogv1.ListActiveServicesRequest) (*catalogv1.ListActiveServicesResponse, error) {
	services, err := s.repo.ListServices(ctx, true, 0)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to list services")
	}
	resp := &catalogv1.ListActiveServicesResponse{}
	for _, svc := range services {
		resp.Services = append(resp.Services, toProto(svc))
	}
	return resp, nil
}

func toProto(svc storage.ConsultationService) *catalogv1.ServiceResponse {
	return &catalogv1.ServiceResponse{
		ServiceId:       svc.ID,
		Name:            svc.Name,
		DurationMinutes: int32(svc.DurationMins),
		Price:           svc.Price,
		Active:          svc.Active,
		UpdatedAt:       timestamppb.New(svc.UpdatedAt),
	}
}
