package chat

import (
	"google.golang.org/grpc"

	pb "github.com/oggyb/muzz-match/internal/proto/engine"
)

// Registrar ties the Chat service into the gRPC server
type Registrar struct {
	svc *Service
}

// NewRegistrar creates a new Registrar for an already built Chat service, so
// the websocket handler can share it
func NewRegistrar(svc *Service) *Registrar {
	return &Registrar{svc: svc}
}

// Register attaches the Chat service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	pb.RegisterChatServiceServer(s, r.svc)
}
