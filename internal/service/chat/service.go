package chat

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/oggyb/muzz-match/internal/app"
	gateway "github.com/oggyb/muzz-match/internal/chat"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	pb "github.com/oggyb/muzz-match/internal/proto/engine"
	"github.com/oggyb/muzz-match/internal/repository"
)

const defaultMessagesPageSize = 50

// Service implements the Chat gRPC API. The websocket handler shares its
// gateway so both transports serialize on the same per-chat locks.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	gateway  *gateway.Gateway
	validate *validator.Validate

	pb.UnimplementedChatServiceServer
}

// NewChatService creates a new Chat service with dependencies from AppContext.
func NewChatService(appCtx *app.AppContext) *Service {
	users := repository.NewUserRepository(appCtx.DB)
	return &Service{
		appCtx: appCtx,
		users:  users,
		gateway: gateway.NewGateway(gateway.Deps{
			Users:    users,
			Chats:    repository.NewChatRepository(appCtx.DB),
			Messages: repository.NewMessageRepository(appCtx.DB),
			Presence: appCtx.Presence,
			Pusher:   appCtx.Pushes,
			AppURL:   appCtx.Config.App.URL,
			Log:      appCtx.Logger,
		}),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func parseID(field, value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, svcErr.InvalidArgument(field + " must be a valid uint64")
	}
	return id, nil
}

func (s *Service) check(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return svcErr.InvalidArgument(err.Error())
	}
	return nil
}

func toChat(c db.Chat) *pb.Chat {
	return &pb.Chat{
		Id:            strconv.FormatUint(c.ID, 10),
		Members:       []string{strconv.FormatUint(c.UserLowID, 10), strconv.FormatUint(c.UserHighID, 10)},
		UnixTimestamp: uint64(c.CreatedAt.Unix()),
	}
}

func toMessage(m db.Message) *pb.Message {
	return &pb.Message{
		Id:            strconv.FormatUint(m.ID, 10),
		ChatId:        strconv.FormatUint(m.ChatID, 10),
		AuthorId:      strconv.FormatUint(m.UserID, 10),
		Text:          m.Text,
		UnixTimestamp: uint64(m.CreatedAt.Unix()),
	}
}

// GetOrCreateChat opens (or returns) the chat between a user and one of their
// matches.
//
// Behavior:
//   - PermissionDenied unless the two are mutually matched and unreported.
//   - Idempotent; the first call announces the chat to both members.
func (s *Service) GetOrCreateChat(ctx context.Context, req *pb.GetOrCreateChatRequest) (*pb.GetOrCreateChatResponse, error) {
	s.appCtx.Logger.Debug("GetOrCreateChat called", "user", req.UserId, "match", req.MatchId)

	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}
	matchID, err := parseID("match_id", req.MatchId)
	if err != nil {
		return nil, err
	}

	c, err := s.gateway.GetOrCreate(ctx, userID, matchID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.GetOrCreateChatResponse{Chat: toChat(*c)}, nil
}

// SendMessage appends a message and fans it out to the chat's members;
// offline recipients get a push instead.
func (s *Service) SendMessage(ctx context.Context, req *pb.SendMessageRequest) (*pb.SendMessageResponse, error) {
	s.appCtx.Logger.Debug("SendMessage called", "chat", req.ChatId, "author", req.AuthorId)

	if err := s.check(req); err != nil {
		return nil, err
	}
	chatID, err := parseID("chat_id", req.ChatId)
	if err != nil {
		return nil, err
	}
	authorID, err := parseID("author_id", req.AuthorId)
	if err != nil {
		return nil, err
	}

	m, err := s.gateway.SendMessage(ctx, chatID, authorID, req.Text)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.SendMessageResponse{Message: toMessage(*m)}, nil
}

func (s *Service) ListChats(ctx context.Context, req *pb.ListChatsRequest) (*pb.ListChatsResponse, error) {
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}

	chats, err := s.gateway.ListChats(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.ListChatsResponse{Chats: lo.Map(chats, func(c db.Chat, _ int) *pb.Chat { return toChat(c) })}, nil
}

// ListMessages pages through a chat newest first. Members only.
func (s *Service) ListMessages(ctx context.Context, req *pb.ListMessagesRequest) (*pb.ListMessagesResponse, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	chatID, err := parseID("chat_id", req.ChatId)
	if err != nil {
		return nil, err
	}
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}

	limit := int(req.Limit)
	if limit == 0 {
		limit = defaultMessagesPageSize
	}

	messages, next, err := s.gateway.ListMessages(ctx, chatID, userID, req.PaginationToken, limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.ListMessagesResponse{
		Messages:            lo.Map(messages, func(m db.Message, _ int) *pb.Message { return toMessage(m) }),
		NextPaginationToken: next,
	}, nil
}

func (s *Service) DeleteChat(ctx context.Context, req *pb.DeleteChatRequest) (*pb.DeleteChatResponse, error) {
	chatID, err := parseID("chat_id", req.ChatId)
	if err != nil {
		return nil, err
	}
	userID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, err
	}

	if err := s.gateway.DeleteChat(ctx, chatID, userID); err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.DeleteChatResponse{}, nil
}
