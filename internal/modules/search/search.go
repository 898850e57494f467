// Package search matches and ranks posts, users and tags. Everything here is
// pure: callers supply the corpus and get fresh slices back.
package search

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Filter string

const (
	FilterAll   Filter = "all"
	FilterPosts Filter = "posts"
	FilterUsers Filter = "users"
	FilterTags  Filter = "tags"
)

type SortBy string

const (
	SortTrending SortBy = "trending"
	SortLatest   SortBy = "latest"
	SortPopular  SortBy = "popular"
	SortViews    SortBy = "views"
)

const (
	BadgeHot      = "hot"
	BadgeTrending = "trending"
	BadgePopular  = "popular"
	BadgeRising   = "rising"
)

// ParseFilter falls back to FilterAll for unknown input.
func ParseFilter(s string) Filter {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case FilterPosts, FilterUsers, FilterTags:
		return f
	}
	return FilterAll
}

// ParseSort returns "" for unknown input, which keeps corpus order.
func ParseSort(s string) SortBy {
	switch by := SortBy(strings.ToLower(strings.TrimSpace(s))); by {
	case SortTrending, SortLatest, SortPopular, SortViews:
		return by
	}
	return ""
}

// Post is the searchable projection of a blog post. Content must already be
// plain text.
type Post struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Category        string    `json:"category"`
	Tags            []string  `json:"tags"`
	AuthorID        uuid.UUID `json:"author_id"`
	AuthorUsername  string    `json:"author_username"`
	AuthorFirstName string    `json:"author_first_name"`
	AuthorLastName  string    `json:"author_last_name"`
	Likes           int       `json:"likes"`
	Comments        int       `json:"comments"`
	Views           int64     `json:"views"`
	TrendingScore   int       `json:"trending_score"`
	CreatedAt       time.Time `json:"created_at"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Bio       string    `json:"bio"`
	AvatarURL *string   `json:"avatar_url"`
}

type Corpus struct {
	Posts []Post
	Users []User
}

type Query struct {
	Text     string
	Category string
	Filter   Filter
	Sort     SortBy
}

type PostHit struct {
	Post
	Badge string `json:"badge"`
}

type TagResult struct {
	Tag       string `json:"tag"`
	PostCount int    `json:"post_count"`
}

type Results struct {
	Posts []PostHit   `json:"posts"`
	Users []User      `json:"users"`
	Tags  []TagResult `json:"tags"`
	Total int         `json:"total"`
}

// Search runs q over the corpus. An empty query text matches everything.
// The category filter applies to posts only.
func Search(q Query, corpus Corpus) Results {
	text := normalize(q.Text)
	filter := q.Filter
	if filter == "" {
		filter = FilterAll
	}

	res := Results{Posts: []PostHit{}, Users: []User{}, Tags: []TagResult{}}

	if filter == FilterAll || filter == FilterPosts {
		var matched []Post
		for _, p := range corpus.Posts {
			if MatchPost(p, text, q.Category) {
				matched = append(matched, p)
			}
		}
		for _, p := range SortPosts(matched, q.Sort) {
			res.Posts = append(res.Posts, PostHit{Post: p, Badge: TrendingBadge(p.TrendingScore)})
		}
	}

	if filter == FilterAll || filter == FilterUsers {
		for _, u := range corpus.Users {
			if MatchUser(u, text) {
				res.Users = append(res.Users, u)
			}
		}
	}

	if filter == FilterAll || filter == FilterTags {
		res.Tags = matchTags(corpus.Posts, text)
	}

	res.Total = len(res.Posts) + len(res.Users) + len(res.Tags)
	return res
}

// MatchPost matches text case-insensitively. An empty category or "all"
// matches every category.
func MatchPost(p Post, text, category string) bool {
	if category != "" && category != "all" && p.Category != category {
		return false
	}
	text = normalize(text)
	if text == "" {
		return true
	}

	fields := []string{p.Title, p.Content, p.Category, p.AuthorFirstName, p.AuthorLastName, p.AuthorUsername}
	for _, f := range fields {
		if contains(f, text) {
			return true
		}
	}
	for _, tag := range p.Tags {
		if contains(tag, text) {
			return true
		}
	}
	return false
}

func MatchUser(u User, text string) bool {
	text = normalize(text)
	if text == "" {
		return true
	}
	for _, f := range []string{u.FirstName, u.LastName, u.Username, u.Bio} {
		if contains(f, text) {
			return true
		}
	}
	return false
}

// SortPosts returns a sorted copy. Equal keys keep their input order, and an
// unknown key leaves the order untouched.
func SortPosts(posts []Post, by SortBy) []Post {
	out := make([]Post, len(posts))
	copy(out, posts)

	var less func(a, b Post) bool
	switch by {
	case SortTrending:
		less = func(a, b Post) bool { return a.TrendingScore > b.TrendingScore }
	case SortLatest:
		less = func(a, b Post) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortPopular:
		less = func(a, b Post) bool { return a.Likes > b.Likes }
	case SortViews:
		less = func(a, b Post) bool { return a.Views > b.Views }
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func TrendingBadge(score int) string {
	switch {
	case score >= 90:
		return BadgeHot
	case score >= 80:
		return BadgeTrending
	case score >= 70:
		return BadgePopular
	default:
		return BadgeRising
	}
}

// matchTags takes, for each post, its first tag containing text. Results are
// distinct in first-seen order, counted over posts carrying the exact tag.
func matchTags(posts []Post, text string) []TagResult {
	out := []TagResult{}
	seen := make(map[string]bool)
	for _, p := range posts {
		for _, tag := range p.Tags {
			if !contains(tag, text) {
				continue
			}
			if !seen[tag] {
				seen[tag] = true
				out = append(out, TagResult{Tag: tag, PostCount: countTag(posts, tag)})
			}
			break
		}
	}
	return out
}

func countTag(posts []Post, tag string) int {
	n := 0
	for _, p := range posts {
		for _, t := range p.Tags {
			if t == tag {
				n++
				break
			}
		}
	}
	return n
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func contains(field, text string) bool {
	return strings.Contains(strings.ToLower(field), text)
}
