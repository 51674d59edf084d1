package engine

// Profile is the public view of a user.
type Profile struct {
	Id        string  `json:"id"`
	Name      string  `json:"name"`
	Age       int32   `json:"age"`
	Gender    string  `json:"gender"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Rating    int32   `json:"rating"`
}

type BestMatchRequest struct {
	UserId string `json:"user_id"`
}

func (x *BestMatchRequest) GetUserId() string {
	if x != nil {
		return x.UserId
	}
	return ""
}

type BestMatchResponse struct {
	Candidate *Profile `json:"candidate"`
	Score     float64  `json:"score"`
}

type RewindRequest struct {
	UserId string `json:"user_id"`
}

func (x *RewindRequest) GetUserId() string {
	if x != nil {
		return x.UserId
	}
	return ""
}

type RewindResponse struct {
	Candidate *Profile `json:"candidate"`
	Step      int32    `json:"step"`
}

type ReactRequest struct {
	ActorId  string `json:"actor_id"`
	TargetId string `json:"target_id"`
	Reaction string `json:"reaction" validate:"required,oneof=like dislike"`
}

func (x *ReactRequest) GetActorId() string {
	if x != nil {
		return x.ActorId
	}
	return ""
}

func (x *ReactRequest) GetTargetId() string {
	if x != nil {
		return x.TargetId
	}
	return ""
}

type ReactResponse struct {
	Reaction    string `json:"reaction"`
	AddedRating int32  `json:"added_rating"`
	MutualMatch bool   `json:"mutual_match"`
}

type ListLikesRequest struct {
	RecipientUserId string  `json:"recipient_user_id"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int32   `json:"limit" validate:"gte=0,lte=100"`
}

func (x *ListLikesRequest) GetRecipientUserId() string {
	if x != nil {
		return x.RecipientUserId
	}
	return ""
}

func (x *ListLikesRequest) GetPaginationToken() string {
	if x != nil && x.PaginationToken != nil {
		return *x.PaginationToken
	}
	return ""
}

type ListLikesResponse struct {
	Likers              []*ListLikesResponse_Liker `json:"likers"`
	NextPaginationToken *string                    `json:"next_pagination_token,omitempty"`
}

func (x *ListLikesResponse) GetNextPaginationToken() string {
	if x != nil && x.NextPaginationToken != nil {
		return *x.NextPaginationToken
	}
	return ""
}

type ListLikesResponse_Liker struct {
	Profile       *Profile `json:"profile"`
	UnixTimestamp uint64   `json:"unix_timestamp"`
}

type CountLikesRequest struct {
	RecipientUserId string `json:"recipient_user_id"`
}

func (x *CountLikesRequest) GetRecipientUserId() string {
	if x != nil {
		return x.RecipientUserId
	}
	return ""
}

type CountLikesResponse struct {
	Count uint64 `json:"count"`
}

type ListMatchesRequest struct {
	UserId string `json:"user_id"`
	Limit  int32  `json:"limit" validate:"gte=0,lte=100"`
	Offset int32  `json:"offset" validate:"gte=0"`
}

func (x *ListMatchesRequest) GetUserId() string {
	if x != nil {
		return x.UserId
	}
	return ""
}

type ListMatchesResponse struct {
	Matches []*Profile `json:"matches"`
}

type ReportRequest struct {
	FromUserId string `json:"from_user_id"`
	ToUserId   string `json:"to_user_id"`
	Reason     string `json:"reason" validate:"required,max=255"`
}

type ReportResponse struct {
	ReportId string `json:"report_id"`
}

// Chat messages.

type Chat struct {
	Id            string   `json:"id"`
	Members       []string `json:"members"`
	UnixTimestamp uint64   `json:"unix_timestamp"`
}

type Message struct {
	Id            string `json:"id"`
	ChatId        string `json:"chat_id"`
	AuthorId      string `json:"author_id"`
	Text          string `json:"text"`
	UnixTimestamp uint64 `json:"unix_timestamp"`
}

type GetOrCreateChatRequest struct {
	UserId  string `json:"user_id"`
	MatchId string `json:"match_id"`
}

type GetOrCreateChatResponse struct {
	Chat *Chat `json:"chat"`
}

type SendMessageRequest struct {
	ChatId   string `json:"chat_id"`
	AuthorId string `json:"author_id"`
	Text     string `json:"text" validate:"required,max=4096"`
}

type SendMessageResponse struct {
	Message *Message `json:"message"`
}

type ListChatsRequest struct {
	UserId string `json:"user_id"`
}

type ListChatsResponse struct {
	Chats []*Chat `json:"chats"`
}

type ListMessagesRequest struct {
	ChatId          string  `json:"chat_id"`
	UserId          string  `json:"user_id"`
	PaginationToken *string `json:"pagination_token,omitempty"`
	Limit           int32   `json:"limit" validate:"gte=0,lte=100"`
}

type ListMessagesResponse struct {
	Messages            []*Message `json:"messages"`
	NextPaginationToken *string    `json:"next_pagination_token,omitempty"`
}

type DeleteChatRequest struct {
	ChatId string `json:"chat_id"`
	UserId string `json:"user_id"`
}

type DeleteChatResponse struct{}
