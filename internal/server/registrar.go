package server

import "google.golang.org/grpc"

// Registrar is implemented by the match and chat services so main can hand
// them to NewGRPCServer without the server knowing their types
type Registrar interface {
	Register(s *grpc.Server)
}
