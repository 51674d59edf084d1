package match_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
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
	"github.com/oggyb/muzz-match/internal/service/match"
)

//
// Test helpers
//

type fixture struct {
	gdb    *gorm.DB
	mr     *miniredis.Miniredis
	appCtx *app.AppContext
	svc    *match.Service
	pushes *pushtest.Recorder
}

// setupService spins up an in-memory SQLite DB and a miniredis and wires
// them into a Match service with a recording push notifier.
func setupService(t *testing.T, rewindLimit int) *fixture {
	t.Helper()

	gdb := dbtest.Open(t)
	mr := miniredis.RunT(t)
	rc := &cache.RedisCache{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = rc.Close() })

	cfg := &config.Config{}
	cfg.App.URL = "https://app.example"
	cfg.Match.RewindLimit = rewindLimit

	rec := &pushtest.Recorder{}
	log := logger.Discard()
	registry := presence.NewRegistry(log)
	t.Cleanup(registry.Close)

	appCtx := app.New(cfg, gdb, rc, log, registry, push.NewDispatcher(rec, time.Second, log))
	svc := match.NewMatchService(appCtx, func() time.Time { return dbtest.Now })
	return &fixture{gdb: gdb, mr: mr, appCtx: appCtx, svc: svc, pushes: rec}
}

func (f *fixture) waitPushes(t *testing.T) []push.Notification {
	t.Helper()
	require.NoError(t, f.appCtx.Pushes.Wait(context.Background()))
	return f.pushes.Sent()
}

func id(u db.User) string { return fmt.Sprint(u.ID) }

func code(err error) codes.Code { return status.Code(err) }

var seeksMen = dbtest.Gender(db.GenderFemale, db.GenderMale)

//
// Tests
//

func TestBestMatch(t *testing.T) {
	f := setupService(t, 5)
	ctx := context.Background()

	me := dbtest.CreateUser(t, f.gdb, "me")
	_, err := f.svc.BestMatch(ctx, &pb.BestMatchRequest{UserId: id(me)})
	assert.Equal(t, codes.NotFound, code(err))

	b := dbtest.CreateUser(t, f.gdb, "b", seeksMen, dbtest.Age(32), dbtest.Rating(1500))
	resp, err := f.svc.BestMatch(ctx, &pb.BestMatchRequest{UserId: id(me)})
	require.NoError(t, err)
	assert.Equal(t, id(b), resp.Candidate.Id)
	assert.Equal(t, int32(32), resp.Candidate.Age)
	assert.Greater(t, resp.Score, 0.0)

	_, err = f.svc.BestMatch(ctx, &pb.BestMatchRequest{UserId: "abc"})
	assert.Equal(t, codes.InvalidArgument, code(err))
}

func TestRewind_WalksBackAndStops(t *testing.T) {
	f := setupService(t, 5)
	ctx := context.Background()

	me := dbtest.CreateUser(t, f.gdb, "me")
	targets := []db.User{
		dbtest.CreateUser(t, f.gdb, "first", seeksMen),
		dbtest.CreateUser(t, f.gdb, "second", seeksMen),
	}
	for i, target := range targets {
		_, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(me), TargetId: id(target), Reaction: "dislike"})
		require.NoError(t, err)
		require.NoError(t, f.gdb.Model(&db.Reaction{}).
			Where("from_user_id = ? AND to_user_id = ?", me.ID, target.ID).
			UpdateColumn("updated_at", dbtest.Now.Add(time.Duration(i)*time.Minute)).Error)
	}

	resp, err := f.svc.Rewind(ctx, &pb.RewindRequest{UserId: id(me)})
	require.NoError(t, err)
	assert.Equal(t, id(targets[1]), resp.Candidate.Id)
	assert.Equal(t, int32(0), resp.Step)

	resp, err = f.svc.Rewind(ctx, &pb.RewindRequest{UserId: id(me)})
	require.NoError(t, err)
	assert.Equal(t, id(targets[0]), resp.Candidate.Id)

	_, err = f.svc.Rewind(ctx, &pb.RewindRequest{UserId: id(me)})
	assert.Equal(t, codes.FailedPrecondition, code(err), "history exhausted")

	// a fresh BestMatch restarts the walk
	_, _ = f.svc.BestMatch(ctx, &pb.BestMatchRequest{UserId: id(me)})
	resp, err = f.svc.Rewind(ctx, &pb.RewindRequest{UserId: id(me)})
	require.NoError(t, err)
	assert.Equal(t, id(targets[1]), resp.Candidate.Id)
}

func TestRewind_Limit(t *testing.T) {
	f := setupService(t, 1)
	ctx := context.Background()

	me := dbtest.CreateUser(t, f.gdb, "me")
	for i := 0; i < 3; i++ {
		other := dbtest.CreateUser(t, f.gdb, "other", seeksMen)
		dbtest.React(t, f.gdb, me.ID, other.ID, db.ReactionDislike)
	}

	_, err := f.svc.Rewind(ctx, &pb.RewindRequest{UserId: id(me)})
	require.NoError(t, err)
	_, err = f.svc.Rewind(ctx, &pb.RewindRequest{UserId: id(me)})
	assert.Equal(t, codes.FailedPrecondition, code(err))
}

func TestRewind_RedisDown(t *testing.T) {
	f := setupService(t, 5)
	me := dbtest.CreateUser(t, f.gdb, "me")
	f.mr.Close()

	_, err := f.svc.Rewind(context.Background(), &pb.RewindRequest{UserId: id(me)})
	assert.Equal(t, codes.Unavailable, code(err))
}

func TestReact_LikePushesTargetOnce(t *testing.T) {
	f := setupService(t, 5)
	ctx := context.Background()
	a := dbtest.CreateUser(t, f.gdb, "a")
	b := dbtest.CreateUser(t, f.gdb, "b", seeksMen)

	resp, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(a), TargetId: id(b), Reaction: "like"})
	require.NoError(t, err)
	assert.False(t, resp.MutualMatch)
	assert.Equal(t, int32(16), resp.AddedRating)

	// retries and flips never re-notify
	for _, r := range []string{"like", "dislike", "like"} {
		_, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(a), TargetId: id(b), Reaction: r})
		require.NoError(t, err)
	}

	sent := f.waitPushes(t)
	require.Len(t, sent, 1)
	assert.Equal(t, b.ID, sent[0].UserID)
	assert.Equal(t, "https://app.example/likes", sent[0].DeepLink)
	assert.Equal(t, 1416, dbtest.Reload(t, f.gdb, b.ID).Rating)
}

func TestReact_MutualMatchPushesBoth(t *testing.T) {
	f := setupService(t, 5)
	ctx := context.Background()
	a := dbtest.CreateUser(t, f.gdb, "alice")
	b := dbtest.CreateUser(t, f.gdb, "bella", seeksMen)

	_, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(a), TargetId: id(b), Reaction: "like"})
	require.NoError(t, err)
	resp, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(b), TargetId: id(a), Reaction: "like"})
	require.NoError(t, err)
	assert.True(t, resp.MutualMatch)

	sent := f.waitPushes(t)
	require.Len(t, sent, 3, "one like push, then a match push to each")

	toA := f.pushes.For(a.ID)
	require.Len(t, toA, 1)
	assert.Equal(t, fmt.Sprintf("https://app.example/users/%d/chat", b.ID), toA[0].DeepLink)
	assert.Contains(t, toA[0].Message, "bella")

	toB := f.pushes.For(b.ID)
	require.Len(t, toB, 2)
	assert.ElementsMatch(t,
		[]string{"https://app.example/likes", fmt.Sprintf("https://app.example/users/%d/chat", a.ID)},
		[]string{toB[0].DeepLink, toB[1].DeepLink},
	)
}

// slowMutualCheck delays the reciprocal-like lookup so crossing reactions
// both commit before either checks for a match.
func slowMutualCheck(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	err := gdb.Callback().Query().Before("gorm:query").Register("test:slow_has_liked", func(tx *gorm.DB) {
		if _, counting := tx.Statement.Dest.(*int64); counting && tx.Statement.Table == "reactions" {
			time.Sleep(30 * time.Millisecond)
		}
	})
	require.NoError(t, err)
}

func TestReact_CrossingLikesMatchOnce(t *testing.T) {
	f := setupService(t, 5)
	ctx := context.Background()
	slowMutualCheck(t, f.gdb)

	const pairs = 10
	users := make([][2]db.User, pairs)
	for i := range users {
		users[i] = [2]db.User{
			dbtest.CreateUser(t, f.gdb, fmt.Sprintf("a%d", i)),
			dbtest.CreateUser(t, f.gdb, fmt.Sprintf("b%d", i), seeksMen),
		}
	}

	var wg sync.WaitGroup
	mutual := make(chan bool, 2*pairs)
	for _, u := range users {
		for _, dir := range [][2]db.User{{u[0], u[1]}, {u[1], u[0]}} {
			wg.Add(1)
			go func(actor, target db.User) {
				defer wg.Done()
				resp, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(actor), TargetId: id(target), Reaction: "like"})
				assert.NoError(t, err)
				if err == nil {
					mutual <- resp.MutualMatch
				}
			}(dir[0], dir[1])
		}
	}
	wg.Wait()
	close(mutual)

	matched := 0
	for m := range mutual {
		if m {
			matched++
		}
	}
	assert.Equal(t, pairs, matched, "exactly one side of each pair sees the match")

	f.waitPushes(t)
	for _, u := range users {
		for _, user := range u {
			chatPushes := 0
			for _, n := range f.pushes.For(user.ID) {
				if strings.HasSuffix(n.DeepLink, "/chat") {
					chatPushes++
				}
			}
			assert.Equal(t, 1, chatPushes, "match pushes to %s", user.Name)
		}
	}
}

func TestReact_ReportedPairIsNeverMatched(t *testing.T) {
	f := setupService(t, 5)
	ctx := context.Background()
	a := dbtest.CreateUser(t, f.gdb, "alice")
	b := dbtest.CreateUser(t, f.gdb, "bella", seeksMen)
	dbtest.Report(t, f.gdb, b.ID, a.ID)

	_, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(a), TargetId: id(b), Reaction: "like"})
	require.NoError(t, err)
	resp, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(b), TargetId: id(a), Reaction: "like"})
	require.NoError(t, err)
	assert.False(t, resp.MutualMatch)

	assert.Empty(t, f.waitPushes(t))
}

func TestReact_Validation(t *testing.T) {
	f := setupService(t, 5)
	ctx := context.Background()
	a := dbtest.CreateUser(t, f.gdb, "a")

	_, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(a), TargetId: "99", Reaction: "superlike"})
	assert.Equal(t, codes.InvalidArgument, code(err))

	_, err = f.svc.React(ctx, &pb.ReactRequest{ActorId: id(a), TargetId: id(a), Reaction: "like"})
	assert.Equal(t, codes.InvalidArgument, code(err))

	_, err = f.svc.React(ctx, &pb.ReactRequest{ActorId: id(a), TargetId: "99", Reaction: "like"})
	assert.Equal(t, codes.NotFound, code(err))
}

func TestLikesCountAndList(t *testing.T) {
	f := setupService(t, 5)
	ctx := context.Background()
	me := dbtest.CreateUser(t, f.gdb, "me", seeksMen)
	a := dbtest.CreateUser(t, f.gdb, "a")
	b := dbtest.CreateUser(t, f.gdb, "b")

	_, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(a), TargetId: id(me), Reaction: "like"})
	require.NoError(t, err)

	count, err := f.svc.CountLikes(ctx, &pb.CountLikesRequest{RecipientUserId: id(me)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count.Count)
	assert.True(t, f.mr.Exists(fmt.Sprintf("likes:count:%d", me.ID)))

	_, err = f.svc.React(ctx, &pb.ReactRequest{ActorId: id(b), TargetId: id(me), Reaction: "like"})
	require.NoError(t, err)
	count, err = f.svc.CountLikes(ctx, &pb.CountLikesRequest{RecipientUserId: id(me)})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count.Count, "new like invalidates the cache")

	list, err := f.svc.ListLikes(ctx, &pb.ListLikesRequest{RecipientUserId: id(me), Limit: 1})
	require.NoError(t, err)
	require.Len(t, list.Likers, 1)
	require.NotNil(t, list.NextPaginationToken)

	next, err := f.svc.ListLikes(ctx, &pb.ListLikesRequest{RecipientUserId: id(me), Limit: 1, PaginationToken: list.NextPaginationToken})
	require.NoError(t, err)
	require.Len(t, next.Likers, 1)
	assert.NotEqual(t, list.Likers[0].Profile.Id, next.Likers[0].Profile.Id)

	// answering a like removes it from the list and the count
	_, err = f.svc.React(ctx, &pb.ReactRequest{ActorId: id(me), TargetId: id(a), Reaction: "dislike"})
	require.NoError(t, err)
	count, err = f.svc.CountLikes(ctx, &pb.CountLikesRequest{RecipientUserId: id(me)})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count.Count)

	_, err = f.svc.ListLikes(ctx, &pb.ListLikesRequest{RecipientUserId: id(me), Limit: 500})
	assert.Equal(t, codes.InvalidArgument, code(err))
}

func TestMatchesAndReport(t *testing.T) {
	f := setupService(t, 5)
	ctx := context.Background()
	a := dbtest.CreateUser(t, f.gdb, "a")
	b := dbtest.CreateUser(t, f.gdb, "b", seeksMen)

	for _, pair := range [][2]db.User{{a, b}, {b, a}} {
		_, err := f.svc.React(ctx, &pb.ReactRequest{ActorId: id(pair[0]), TargetId: id(pair[1]), Reaction: "like"})
		require.NoError(t, err)
	}

	matches, err := f.svc.ListMatches(ctx, &pb.ListMatchesRequest{UserId: id(a)})
	require.NoError(t, err)
	require.Len(t, matches.Matches, 1)
	assert.Equal(t, id(b), matches.Matches[0].Id)

	_, err = f.svc.Report(ctx, &pb.ReportRequest{FromUserId: id(a), ToUserId: id(b)})
	assert.Equal(t, codes.InvalidArgument, code(err), "reason is required")

	rp, err := f.svc.Report(ctx, &pb.ReportRequest{FromUserId: id(a), ToUserId: id(b), Reason: "rude"})
	require.NoError(t, err)
	assert.NotEmpty(t, rp.ReportId)

	matches, err = f.svc.ListMatches(ctx, &pb.ListMatchesRequest{UserId: id(b)})
	require.NoError(t, err)
	assert.Empty(t, matches.Matches)

	_, err = f.svc.Report(ctx, &pb.ReportRequest{FromUserId: id(a), ToUserId: id(a), Reason: "x"})
	assert.Equal(t, codes.InvalidArgument, code(err))
}
