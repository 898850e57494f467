package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/internal/modules/search"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
)

const postsIndex = "posts"

// MeiliIndexer keeps the Meilisearch posts index in step with the database
// and serves full text queries against it.
type MeiliIndexer struct {
	client meilisearch.ServiceManager
}

type meiliPostDoc struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
	AuthorID        string   `json:"author_id"`
	AuthorUsername  string   `json:"author_username"`
	AuthorFirstName string   `json:"author_first_name"`
	AuthorLastName  string   `json:"author_last_name"`
	Likes           int      `json:"likes"`
	Comments        int      `json:"comments"`
	Views           int64    `json:"views"`
	TrendingScore   int      `json:"trending_score"`
	CreatedAt       int64    `json:"created_at"`
}

func NewMeiliIndexer(host, apiKey string) *MeiliIndexer {
	client := meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
	idx := &MeiliIndexer{client: client}
	idx.initIndex()
	return idx
}

func (m *MeiliIndexer) initIndex() {
	filterable := []any{"category", "tags", "author_id"}
	if _, err := m.client.Index(postsIndex).UpdateFilterableAttributes(&filterable); err != nil {
		slog.Warn("failed to update posts filterable attributes", "error", err)
	}

	sortable := []string{"created_at", "views", "likes", "trending_score"}
	if _, err := m.client.Index(postsIndex).UpdateSortableAttributes(&sortable); err != nil {
		slog.Warn("failed to update posts sortable attributes", "error", err)
	}
}

func (m *MeiliIndexer) IndexPost(_ context.Context, post *entity.Post, author *entity.User) error {
	doc := meiliPostDoc{
		ID:            post.ID.String(),
		Title:         post.Title,
		Content:       search.PlainText(post.Content),
		Category:      post.Category,
		Tags:          append([]string{}, post.Tags...),
		AuthorID:      post.AuthorID.String(),
		Likes:         len(post.Likes),
		Comments:      len(post.Comments),
		Views:         post.Views,
		TrendingScore: post.TrendingScore,
		CreatedAt:     post.CreatedAt.Unix(),
	}
	if author != nil {
		doc.AuthorUsername = author.Username
		doc.AuthorFirstName = author.FirstName
		doc.AuthorLastName = author.LastName
	}

	primaryKey := "id"
	task, err := m.client.Index(postsIndex).AddDocuments([]meiliPostDoc{doc}, &primaryKey)
	if err != nil {
		return err
	}
	slog.Debug("indexed post", "post_id", post.ID, "task_uid", task.TaskUID)
	return nil
}

func (m *MeiliIndexer) DeletePost(_ context.Context, id uuid.UUID) error {
	_, err := m.client.Index(postsIndex).DeleteDocument(id.String())
	return err
}

type meiliSearchResponse struct {
	Hits               []meiliPostDoc `json:"hits"`
	EstimatedTotalHits int64          `json:"estimatedTotalHits"`
}

// Search runs a full text query. Category "" or "all" is unfiltered.
func (m *MeiliIndexer) Search(_ context.Context, text, category string, limit int64) ([]search.Post, int64, error) {
	req := &meilisearch.SearchRequest{Limit: limit}
	if category != "" && category != "all" {
		req.Filter = fmt.Sprintf("category = %q", category)
	}

	raw, err := m.client.Index(postsIndex).SearchRaw(text, req)
	if err != nil {
		return nil, 0, err
	}

	var resp meiliSearchResponse
	if err := json.Unmarshal(*raw, &resp); err != nil {
		return nil, 0, err
	}

	posts := make([]search.Post, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		id, err := uuid.Parse(hit.ID)
		if err != nil {
			continue
		}
		authorID, _ := uuid.Parse(hit.AuthorID)
		posts = append(posts, search.Post{
			ID:              id,
			Title:           hit.Title,
			Content:         hit.Content,
			Category:        hit.Category,
			Tags:            hit.Tags,
			AuthorID:        authorID,
			AuthorUsername:  hit.AuthorUsername,
			AuthorFirstName: hit.AuthorFirstName,
			AuthorLastName:  hit.AuthorLastName,
			Likes:           hit.Likes,
			Comments:        hit.Comments,
			Views:           hit.Views,
			TrendingScore:   hit.TrendingScore,
			CreatedAt:       time.Unix(hit.CreatedAt, 0).UTC(),
		})
	}
	return posts, resp.EstimatedTotalHits, nil
}
