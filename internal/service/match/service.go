package match

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/matching"
	"github.com/oggyb/muzz-match/internal/metrics"
	pb "github.com/oggyb/muzz-match/internal/proto/engine"
	"github.com/oggyb/muzz-match/internal/push"
	"github.com/oggyb/muzz-match/internal/reaction"
	"github.com/oggyb/muzz-match/internal/repository"
)

const (
	defaultLikesPageSize   = 10
	defaultMatchesPageSize = 20
)

// Service implements the Match gRPC API on top of the matcher, the reaction
// ledger and the Redis counters.
type Service struct {
	appCtx    *app.AppContext
	users     *repository.UserRepository
	reports   *repository.ReportRepository
	matcher   *matching.Matcher
	ledger    *reaction.Ledger
	validate  *validator.Validate
	now       func() time.Time
	rewindMax int

	pb.UnimplementedMatchServiceServer
}

// NewMatchService creates a new Match service with dependencies from AppContext.
// now may be nil, in which case the wall clock in UTC is used.
func NewMatchService(appCtx *app.AppContext, now func() time.Time) *Service {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	users := repository.NewUserRepository(appCtx.DB)
	return &Service{
		appCtx:    appCtx,
		users:     users,
		reports:   repository.NewReportRepository(appCtx.DB),
		matcher:   matching.NewMatcher(users, now, appCtx.Logger),
		ledger:    reaction.NewLedger(repository.NewReactionRepository(appCtx.DB), appCtx.Logger),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		now:       now,
		rewindMax: appCtx.Config.Match.RewindLimit,
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

func (s *Service) profile(u db.User) *pb.Profile {
	return &pb.Profile{
		Id:        strconv.FormatUint(u.ID, 10),
		Name:      u.Name,
		Age:       int32(u.Age(s.now())),
		Gender:    string(u.Gender),
		Latitude:  u.Latitude,
		Longitude: u.Longitude,
		Rating:    int32(u.Rating),
	}
}

// BestMatch returns the highest scoring candidate for the user.
//
// Behavior:
//   - NotFound when nobody in the pool scores above 0.
//   - Restarts the user's rewind walk.
//
// Example:
//
//	svc.BestMatch(ctx, &pb.BestMatchRequest{UserId: "42"})
func (s *Service) BestMatch(ctx context.Context, req *pb.BestMatchRequest) (*pb.BestMatchResponse, error) {
	s.appCtx.Logger.Debug("BestMatch called", "user", req.GetUserId())

	userID, err := parseID("user_id", req.GetUserId())
	if err != nil {
		return nil, err
	}

	s.resetRewind(ctx, userID)

	candidate, err := s.matcher.BestMatch(ctx, userID)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	return &pb.BestMatchResponse{Candidate: s.profile(candidate.User), Score: candidate.Score}, nil
}

// Rewind walks one step further back through the user's reactions.
//
// Behavior:
//   - The step lives in Redis (rewind:index:<id>, 1h TTL); BestMatch and
//     React restart it.
//   - Past MATCH_REWIND_LIMIT steps, or past the end of history, fails with
//     FailedPrecondition.
//
// Example:
//
//	svc.Rewind(ctx, &pb.RewindRequest{UserId: "42"})
func (s *Service) Rewind(ctx context.Context, req *pb.RewindRequest) (*pb.RewindResponse, error) {
	s.appCtx.Logger.Debug("Rewind called", "user", req.GetUserId())

	userID, err := parseID("user_id", req.GetUserId())
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetActive(ctx, userID); err != nil {
		return nil, svcErr.Map(err)
	}

	step, err := s.appCtx.RedisCache.NextRewindStep(ctx, userID)
	if err != nil {
		s.appCtx.Logger.Error("rewind step failed", "user", userID, "err", err)
		return nil, svcErr.Map(fmt.Errorf("rewind step: %w: %v", svcErr.ErrTransientStorage, err))
	}
	if step >= s.rewindMax {
		return nil, svcErr.Map(fmt.Errorf("rewind limit of %d reached: %w", s.rewindMax, svcErr.ErrInvalidState))
	}

	u, err := s.matcher.Rewind(ctx, userID, step)
	if errors.Is(err, svcErr.ErrNotFound) {
		return nil, svcErr.Map(fmt.Errorf("nothing more to rewind: %w", svcErr.ErrInvalidState))
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}

	return &pb.RewindResponse{Candidate: s.profile(*u), Step: int32(step)}, nil
}

// React records a like or dislike.
//
// Behavior:
//   - Idempotent for a repeated reaction of the same type.
//   - The first time a like is stored the matching push goes out exactly
//     once: a match push to both users when mutual, otherwise a "someone
//     liked you" push to the target.
//   - Invalidates the cached like counters of both users on any change.
//   - A pair with a report either way is never a mutual match and gets no
//     push.
//
// Example:
//
//	svc.React(ctx, &pb.ReactRequest{ActorId: "1", TargetId: "2", Reaction: "like"})
func (s *Service) React(ctx context.Context, req *pb.ReactRequest) (*pb.ReactResponse, error) {
	s.appCtx.Logger.Debug("React called", "actor", req.GetActorId(), "target", req.GetTargetId(), "reaction", req.Reaction)

	if err := s.check(req); err != nil {
		return nil, err
	}
	actorID, err := parseID("actor_id", req.GetActorId())
	if err != nil {
		return nil, err
	}
	targetID, err := parseID("target_id", req.GetTargetId())
	if err != nil {
		return nil, err
	}

	res, err := s.ledger.React(ctx, actorID, targetID, db.ReactionType(req.Reaction))
	if err != nil {
		return nil, svcErr.Map(err)
	}

	if res.Outcome != reaction.Unchanged {
		if err := s.appCtx.RedisCache.InvalidateLikeCount(ctx, actorID, targetID); err != nil {
			s.appCtx.Logger.Warn("like count invalidation failed", "err", err)
		}
	}
	s.resetRewind(ctx, actorID)

	if res.Reaction.ReactionType == db.ReactionLike && s.reported(ctx, actorID, targetID) {
		// a reported pair never counts as matched and is never notified
		res.BecameMutual = false
	} else {
		s.notify(ctx, res)
	}

	return &pb.ReactResponse{
		Reaction:    string(res.Reaction.ReactionType),
		AddedRating: int32(res.Reaction.AddedRating),
		MutualMatch: res.BecameMutual,
	}, nil
}

// reported treats a failed lookup as reported so no push can leak to a
// blocked pair.
func (s *Service) reported(ctx context.Context, a, b uint64) bool {
	blocked, err := s.reports.ExistsBetween(ctx, a, b)
	if err != nil {
		s.appCtx.Logger.Warn("report lookup failed", "a", a, "b", b, "err", err)
		return true
	}
	return blocked
}

// notify claims the reaction's one-time notification and dispatches it.
// Failures are logged only; the reaction itself already happened.
func (s *Service) notify(ctx context.Context, res *reaction.Result) {
	rc := res.Reaction
	if rc.ReactionType != db.ReactionLike || rc.IsMatchNotified {
		return
	}

	claimed, err := s.ledger.MarkNotified(ctx, &rc)
	if err != nil {
		s.appCtx.Logger.Warn("mark notified failed", "from", rc.FromUserID, "to", rc.ToUserID, "err", err)
		return
	}
	if !claimed {
		return
	}

	appURL := s.appCtx.Config.App.URL
	if !res.BecameMutual {
		s.appCtx.Pushes.Dispatch(push.Notification{
			UserID:   rc.ToUserID,
			Message:  "Someone liked you!",
			DeepLink: appURL + "/likes",
		})
		return
	}

	metrics.RecordMutualMatch()
	actor, err := s.users.Get(ctx, rc.FromUserID)
	if err != nil {
		s.appCtx.Logger.Warn("match push skipped", "user", rc.FromUserID, "err", err)
		return
	}
	target, err := s.users.Get(ctx, rc.ToUserID)
	if err != nil {
		s.appCtx.Logger.Warn("match push skipped", "user", rc.ToUserID, "err", err)
		return
	}
	for _, pair := range [][2]db.User{{*actor, *target}, {*target, *actor}} {
		to, other := pair[0], pair[1]
		s.appCtx.Pushes.Dispatch(push.Notification{
			UserID:   to.ID,
			Message:  fmt.Sprintf("It's a match! You and %s like each other.", other.Name),
			DeepLink: fmt.Sprintf("%s/users/%d/chat", appURL, other.ID),
		})
	}
}

func (s *Service) resetRewind(ctx context.Context, userID uint64) {
	if err := s.appCtx.RedisCache.ResetRewind(ctx, userID); err != nil {
		s.appCtx.Logger.Warn("rewind reset failed", "user", userID, "err", err)
	}
}

// ListLikes returns users who liked the recipient and are still waiting for
// an answer.
//
// Behavior:
//   - Excludes users the recipient already reacted to and reported pairs.
//   - Ordered by like recency, cursor-based pagination.
//
// Example:
//
//	svc.ListLikes(ctx, &pb.ListLikesRequest{RecipientUserId: "42"})
func (s *Service) ListLikes(ctx context.Context, req *pb.ListLikesRequest) (*pb.ListLikesResponse, error) {
	s.appCtx.Logger.Debug("ListLikes called", "recipient", req.GetRecipientUserId(), "token", req.GetPaginationToken())

	if err := s.check(req); err != nil {
		return nil, err
	}
	recipientID, err := parseID("recipient_user_id", req.GetRecipientUserId())
	if err != nil {
		return nil, err
	}
	limit := int(req.Limit)
	if limit == 0 {
		limit = defaultLikesPageSize
	}

	likers, nextToken, err := s.users.Likers(ctx, recipientID, req.PaginationToken, limit)
	if err != nil {
		s.appCtx.Logger.Error("Likers failed", "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &pb.ListLikesResponse{
		Likers: lo.Map(likers, func(l repository.Liker, _ int) *pb.ListLikesResponse_Liker {
			return &pb.ListLikesResponse_Liker{
				Profile:       s.profile(l.User),
				UnixTimestamp: uint64(l.LikedAt.UnixMilli()),
			}
		}),
		NextPaginationToken: nextToken,
	}

	s.appCtx.Logger.Debug("ListLikes result", "liker_count", len(resp.Likers), "next_token", resp.GetNextPaginationToken())
	return resp, nil
}

// CountLikes returns how many users ListLikes would show.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID).
//  2. If cache miss, falls back to DB via repository.CountLikers.
//  3. On DB fetch, updates Redis with a 1h TTL.
//
// Example:
//
//	svc.CountLikes(ctx, &pb.CountLikesRequest{RecipientUserId: "42"})
func (s *Service) CountLikes(ctx context.Context, req *pb.CountLikesRequest) (*pb.CountLikesResponse, error) {
	s.appCtx.Logger.Debug("CountLikes called", "recipient", req.GetRecipientUserId())

	recipientID, err := parseID("recipient_user_id", req.GetRecipientUserId())
	if err != nil {
		return nil, err
	}

	// try cache first
	if n, ok, err := s.appCtx.RedisCache.GetLikeCount(ctx, recipientID); err == nil && ok {
		return &pb.CountLikesResponse{Count: uint64(n)}, nil
	}

	// fallback: DB
	count, err := s.users.CountLikers(ctx, recipientID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	_ = s.appCtx.RedisCache.SetLikeCount(ctx, recipientID, count)

	return &pb.CountLikesResponse{Count: uint64(count)}, nil
}

// ListMatches returns mutually liked users without reports, most recent first.
func (s *Service) ListMatches(ctx context.Context, req *pb.ListMatchesRequest) (*pb.ListMatchesResponse, error) {
	s.appCtx.Logger.Debug("ListMatches called", "user", req.GetUserId())

	if err := s.check(req); err != nil {
		return nil, err
	}
	userID, err := parseID("user_id", req.GetUserId())
	if err != nil {
		return nil, err
	}
	limit := int(req.Limit)
	if limit == 0 {
		limit = defaultMatchesPageSize
	}

	users, err := s.users.Matches(ctx, userID, limit, int(req.Offset))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &pb.ListMatchesResponse{Matches: lo.Map(users, func(u db.User, _ int) *pb.Profile { return s.profile(u) })}, nil
}

// Report files a report; from then on the pair never sees each other again
// and cannot chat.
func (s *Service) Report(ctx context.Context, req *pb.ReportRequest) (*pb.ReportResponse, error) {
	s.appCtx.Logger.Debug("Report called", "from", req.FromUserId, "to", req.ToUserId)

	if err := s.check(req); err != nil {
		return nil, err
	}
	fromID, err := parseID("from_user_id", req.FromUserId)
	if err != nil {
		return nil, err
	}
	toID, err := parseID("to_user_id", req.ToUserId)
	if err != nil {
		return nil, err
	}
	if fromID == toID {
		return nil, svcErr.InvalidArgument("cannot report yourself")
	}

	if _, err := s.users.GetActive(ctx, fromID); err != nil {
		return nil, svcErr.Map(err)
	}
	if _, err := s.users.Get(ctx, toID); err != nil {
		return nil, svcErr.Map(err)
	}

	rp, err := s.reports.Create(ctx, fromID, toID, req.Reason)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if err := s.appCtx.RedisCache.InvalidateLikeCount(ctx, fromID, toID); err != nil {
		s.appCtx.Logger.Warn("like count invalidation failed", "err", err)
	}

	s.appCtx.Logger.Info("user reported", "from", fromID, "to", toID, "report", rp.ID)
	return &pb.ReportResponse{ReportId: strconv.FormatUint(rp.ID, 10)}, nil
}
