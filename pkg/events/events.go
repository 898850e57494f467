package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	PostCreated     = "post.created"
	PostDeleted     = "post.deleted"
	PostLiked       = "post.liked"
	PostCommented   = "post.commented"
	CommunityJoined = "community.joined"
	CommunityLeft   = "community.left"
	UserRegistered  = "user.registered"
)

const (
	BrokerNATS  = "nats"
	BrokerKafka = "kafka"
	BrokerNone  = "none"
)

const timestampLayout = "2006-01-02T15:04:05Z"

// Publisher delivers domain events to a broker. Publishing is best-effort;
// callers log failures and keep going.
type Publisher interface {
	Publish(ctx context.Context, subject string, key string, payload any) error
	Close() error
}

// Envelope is the JSON body written to every broker.
type Envelope struct {
	Subject   string          `json:"subject"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
}

func encode(subject, key string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		Subject:   subject,
		Key:       key,
		Payload:   body,
		Timestamp: time.Now().UTC().Format(timestampLayout),
	})
}

type PostEvent struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`
}

type PostLikedEvent struct {
	PostID string `json:"post_id"`
	UserID string `json:"user_id"`
	Liked  bool   `json:"liked"`
	Likes  int    `json:"likes"`
}

type CommentEvent struct {
	PostID    string `json:"post_id"`
	CommentID string `json:"comment_id"`
	AuthorID  string `json:"author_id"`
}

type MembershipEvent struct {
	CommunityID string `json:"community_id"`
	UserID      string `json:"user_id"`
}

type UserEvent struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type noopPublisher struct{}

func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (noopPublisher) Close() error                                       { return nil }
