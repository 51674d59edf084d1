package server_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/db/dbtest"
	"github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/presence"
	pb "github.com/oggyb/muzz-match/internal/proto/engine"
	"github.com/oggyb/muzz-match/internal/push"
	"github.com/oggyb/muzz-match/internal/push/pushtest"
	"github.com/oggyb/muzz-match/internal/server"
	"github.com/oggyb/muzz-match/internal/service/chat"
	"github.com/oggyb/muzz-match/internal/service/match"
)

func newAppContext(t *testing.T) (*app.AppContext, *gorm.DB, *miniredis.Miniredis) {
	t.Helper()

	gdb := dbtest.Open(t)
	mr := miniredis.RunT(t)
	rc := &cache.RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = rc.Close() })

	cfg := &config.Config{}
	cfg.App.URL = "https://app.example"
	cfg.Match.RewindLimit = 5

	log := logger.Discard()
	registry := presence.NewRegistry(log)
	t.Cleanup(registry.Close)

	pushes := push.NewDispatcher(&pushtest.Recorder{}, time.Second, log)
	return app.New(cfg, gdb, rc, log, registry, pushes), gdb, mr
}

// dialBufconn serves the registrars over an in-memory listener.
func dialBufconn(t *testing.T, appCtx *app.AppContext) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := server.NewGRPCServer(appCtx.Logger,
		match.NewRegistrar(appCtx),
		chat.NewRegistrar(chat.NewChatService(appCtx)),
	)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		pb.DialOption(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPC_RoundTrip(t *testing.T) {
	appCtx, gdb, _ := newAppContext(t)
	conn := dialBufconn(t, appCtx)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	matches := pb.NewMatchServiceClient(conn)
	chats := pb.NewChatServiceClient(conn)

	a := dbtest.CreateUser(t, gdb, "alice")
	b := dbtest.CreateUser(t, gdb, "bella", dbtest.Gender(db.GenderFemale, db.GenderMale))

	best, err := matches.BestMatch(ctx, &pb.BestMatchRequest{UserId: fmt.Sprint(a.ID)})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(b.ID), best.Candidate.Id)

	_, err = matches.React(ctx, &pb.ReactRequest{ActorId: fmt.Sprint(a.ID), TargetId: fmt.Sprint(b.ID), Reaction: "like"})
	require.NoError(t, err)
	reacted, err := matches.React(ctx, &pb.ReactRequest{ActorId: fmt.Sprint(b.ID), TargetId: fmt.Sprint(a.ID), Reaction: "like"})
	require.NoError(t, err)
	assert.True(t, reacted.MutualMatch)

	opened, err := chats.GetOrCreateChat(ctx, &pb.GetOrCreateChatRequest{UserId: fmt.Sprint(a.ID), MatchId: fmt.Sprint(b.ID)})
	require.NoError(t, err)

	sent, err := chats.SendMessage(ctx, &pb.SendMessageRequest{ChatId: opened.Chat.Id, AuthorId: fmt.Sprint(a.ID), Text: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", sent.Message.Text)

	// status codes survive the wire
	_, err = matches.React(ctx, &pb.ReactRequest{ActorId: fmt.Sprint(a.ID), TargetId: fmt.Sprint(b.ID), Reaction: "superlike"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	require.NoError(t, appCtx.Pushes.Wait(ctx))
}

func TestHTTP_Routes(t *testing.T) {
	appCtx, _, mr := newAppContext(t)
	ws := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	srv := httptest.NewServer(server.NewHTTPHandler(appCtx, ws))
	t.Cleanup(srv.Close)

	get := func(path string) (int, string) {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body)

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "go_goroutines")

	code, _ = get("/ws")
	assert.Equal(t, http.StatusTeapot, code)

	mr.Close()
	code, body = get("/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, body, "redis")
}
