package engine

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ChatService_GetOrCreateChat_FullMethodName = "/engine.ChatService/GetOrCreateChat"
	ChatService_SendMessage_FullMethodName     = "/engine.ChatService/SendMessage"
	ChatService_ListChats_FullMethodName       = "/engine.ChatService/ListChats"
	ChatService_ListMessages_FullMethodName    = "/engine.ChatService/ListMessages"
	ChatService_DeleteChat_FullMethodName      = "/engine.ChatService/DeleteChat"
)

// ChatServiceServer is the server API for ChatService.
type ChatServiceServer interface {
	GetOrCreateChat(context.Context, *GetOrCreateChatRequest) (*GetOrCreateChatResponse, error)
	SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error)
	ListChats(context.Context, *ListChatsRequest) (*ListChatsResponse, error)
	ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error)
	DeleteChat(context.Context, *DeleteChatRequest) (*DeleteChatResponse, error)
}

// UnimplementedChatServiceServer can be embedded for forward compatibility.
type UnimplementedChatServiceServer struct{}

func (UnimplementedChatServiceServer) GetOrCreateChat(context.Context, *GetOrCreateChatRequest) (*GetOrCreateChatResponse, error) {
	return nil, unimplemented("GetOrCreateChat")
}
func (UnimplementedChatServiceServer) SendMessage(context.Context, *SendMessageRequest) (*SendMessageResponse, error) {
	return nil, unimplemented("SendMessage")
}
func (UnimplementedChatServiceServer) ListChats(context.Context, *ListChatsRequest) (*ListChatsResponse, error) {
	return nil, unimplemented("ListChats")
}
func (UnimplementedChatServiceServer) ListMessages(context.Context, *ListMessagesRequest) (*ListMessagesResponse, error) {
	return nil, unimplemented("ListMessages")
}
func (UnimplementedChatServiceServer) DeleteChat(context.Context, *DeleteChatRequest) (*DeleteChatResponse, error) {
	return nil, unimplemented("DeleteChat")
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "engine.ChatService",
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetOrCreateChat", Handler: unaryHandler(ChatService_GetOrCreateChat_FullMethodName, ChatServiceServer.GetOrCreateChat)},
		{MethodName: "SendMessage", Handler: unaryHandler(ChatService_SendMessage_FullMethodName, ChatServiceServer.SendMessage)},
		{MethodName: "ListChats", Handler: unaryHandler(ChatService_ListChats_FullMethodName, ChatServiceServer.ListChats)},
		{MethodName: "ListMessages", Handler: unaryHandler(ChatService_ListMessages_FullMethodName, ChatServiceServer.ListMessages)},
		{MethodName: "DeleteChat", Handler: unaryHandler(ChatService_DeleteChat_FullMethodName, ChatServiceServer.DeleteChat)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "engine/chat.json",
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

// ChatServiceClient is the client API for ChatService.
type ChatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) *ChatServiceClient {
	return &ChatServiceClient{cc: cc}
}

func (c *ChatServiceClient) GetOrCreateChat(ctx context.Context, in *GetOrCreateChatRequest, opts ...grpc.CallOption) (*GetOrCreateChatResponse, error) {
	return invoke[GetOrCreateChatResponse](ctx, c.cc, ChatService_GetOrCreateChat_FullMethodName, in, opts)
}

func (c *ChatServiceClient) SendMessage(ctx context.Context, in *SendMessageRequest, opts ...grpc.CallOption) (*SendMessageResponse, error) {
	return invoke[SendMessageResponse](ctx, c.cc, ChatService_SendMessage_FullMethodName, in, opts)
}

func (c *ChatServiceClient) ListChats(ctx context.Context, in *ListChatsRequest, opts ...grpc.CallOption) (*ListChatsResponse, error) {
	return invoke[ListChatsResponse](ctx, c.cc, ChatService_ListChats_FullMethodName, in, opts)
}

func (c *ChatServiceClient) ListMessages(ctx context.Context, in *ListMessagesRequest, opts ...grpc.CallOption) (*ListMessagesResponse, error) {
	return invoke[ListMessagesResponse](ctx, c.cc, ChatService_ListMessages_FullMethodName, in, opts)
}

func (c *ChatServiceClient) DeleteChat(ctx context.Context, in *DeleteChatRequest, opts ...grpc.CallOption) (*DeleteChatResponse, error) {
	return invoke[DeleteChatResponse](ctx, c.cc, ChatService_DeleteChat_FullMethodName, in, opts)
}
