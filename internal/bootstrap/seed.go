package bootstrap

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"anoa.com/pencraft/internal/entity"
	"anoa.com/pencraft/pkg/apperror"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

// DemoEmail marks a seeded database.
const DemoEmail = "demo@example.com"

type seedData struct {
	Users         []seedUser         `yaml:"users"`
	Communities   []seedCommunity    `yaml:"communities"`
	Posts         []seedPost         `yaml:"posts"`
	Notifications []seedNotification `yaml:"notifications"`
}

type seedUser struct {
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Bio       string `yaml:"bio"`
}

type seedCommunity struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Category    string    `yaml:"category"`
	ImageURL    string    `yaml:"image_url"`
	Creator     string    `yaml:"creator"`
	Moderators  []string  `yaml:"moderators"`
	Members     []string  `yaml:"members"`
	Rules       []string  `yaml:"rules"`
	CreatedAt   time.Time `yaml:"created_at"`
}

type seedComment struct {
	Author    string    `yaml:"author"`
	Content   string    `yaml:"content"`
	CreatedAt time.Time `yaml:"created_at"`
}

type seedPost struct {
	Title         string        `yaml:"title"`
	Content       string        `yaml:"content"`
	Tags          []string      `yaml:"tags"`
	Category      string        `yaml:"category"`
	Author        string        `yaml:"author"`
	Community     string        `yaml:"community"`
	ImageURL      string        `yaml:"image_url"`
	Views         int64         `yaml:"views"`
	TrendingScore int           `yaml:"trending_score"`
	CreatedAt     time.Time     `yaml:"created_at"`
	LikedBy       []string      `yaml:"liked_by"`
	SavedBy       []string      `yaml:"saved_by"`
	Comments      []seedComment `yaml:"comments"`
}

type seedNotification struct {
	User      string    `yaml:"user"`
	Actor     string    `yaml:"actor"`
	Type      string    `yaml:"type"`
	Message   string    `yaml:"message"`
	Post      string    `yaml:"post"`
	Read      bool      `yaml:"read"`
	CreatedAt time.Time `yaml:"created_at"`
}

func loadSeed() (*seedData, error) {
	var data seedData
	if err := yaml.Unmarshal(seedYAML, &data); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &data, nil
}

// Seed loads the demo dataset. It does nothing when the demo account already
// exists, so it is safe to run on every start.
func Seed(ctx context.Context, repos *Repositories) error {
	if _, err := repos.Users.FindByEmail(ctx, DemoEmail); err == nil {
		slog.Info("seed data already present, skipping")
		return nil
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return err
	}

	data, err := loadSeed()
	if err != nil {
		return err
	}

	users := make(map[string]uuid.UUID, len(data.Users))
	for _, su := range data.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := &entity.User{
			Username:     su.Username,
			Email:        su.Email,
			PasswordHash: string(hash),
			FirstName:    su.FirstName,
			LastName:     su.LastName,
			Bio:          su.Bio,
		}
		if err := repos.Users.Create(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", su.Username, err)
		}
		users[su.Username] = u.ID
	}

	lookup := func(username string) (uuid.UUID, error) {
		id, ok := users[username]
		if !ok {
			return uuid.Nil, fmt.Errorf("seed references unknown user %q", username)
		}
		return id, nil
	}

	communities := make(map[string]uuid.UUID, len(data.Communities))
	for _, sc := range data.Communities {
		creatorID, err := lookup(sc.Creator)
		if err != nil {
			return err
		}
		c := &entity.Community{
			Name:        sc.Name,
			Description: sc.Description,
			Category:    sc.Category,
			ImageURL:    optional(sc.ImageURL),
			CreatorID:   creatorID,
			Rules:       sc.Rules,
			CreatedAt:   sc.CreatedAt,
		}

		roles := map[string]int{sc.Creator: entity.MemberRoleModerator}
		for _, m := range sc.Moderators {
			roles[m] = entity.MemberRoleModerator
		}
		for _, m := range sc.Members {
			if _, ok := roles[m]; !ok {
				roles[m] = entity.MemberRoleMember
			}
		}
		for username, role := range roles {
			id, err := lookup(username)
			if err != nil {
				return err
			}
			c.Members = append(c.Members, entity.CommunityMember{UserID: id, Role: role})
		}

		if err := repos.Communities.Create(ctx, c); err != nil {
			return fmt.Errorf("seed community %s: %w", sc.Name, err)
		}
		communities[sc.Name] = c.ID
	}

	posts := make(map[string]uuid.UUID, len(data.Posts))
	for _, sp := range data.Posts {
		if err := seedOnePost(ctx, repos, sp, lookup, communities, posts); err != nil {
			return err
		}
	}

	for _, sn := range data.Notifications {
		userID, err := lookup(sn.User)
		if err != nil {
			return err
		}
		n := &entity.Notification{
			UserID:    userID,
			Type:      sn.Type,
			Message:   sn.Message,
			IsRead:    sn.Read,
			CreatedAt: sn.CreatedAt,
		}
		if sn.Actor != "" {
			actorID, err := lookup(sn.Actor)
			if err != nil {
				return err
			}
			n.ActorID = &actorID
		}
		if id, ok := posts[sn.Post]; ok {
			n.PostID = &id
		}
		if err := repos.Notifications.Create(ctx, n); err != nil {
			return err
		}
	}

	slog.Info("seed data loaded",
		"users", len(data.Users),
		"communities", len(data.Communities),
		"posts", len(data.Posts),
		"notifications", len(data.Notifications),
		"demo_email", DemoEmail,
	)
	return nil
}

func seedOnePost(ctx context.Context, repos *Repositories, sp seedPost, lookup func(string) (uuid.UUID, error), communities, posts map[string]uuid.UUID) error {
	authorID, err := lookup(sp.Author)
	if err != nil {
		return err
	}

	p := &entity.Post{
		Title:         sp.Title,
		Content:       sp.Content,
		Tags:          sp.Tags,
		Category:      sp.Category,
		AuthorID:      authorID,
		ImageURL:      optional(sp.ImageURL),
		Views:         sp.Views,
		TrendingScore: sp.TrendingScore,
		CreatedAt:     sp.CreatedAt,
	}
	if sp.Community != "" {
		id, ok := communities[sp.Community]
		if !ok {
			return fmt.Errorf("seed references unknown community %q", sp.Community)
		}
		p.CommunityID = &id
	}
	if err := repos.Posts.Create(ctx, p); err != nil {
		return fmt.Errorf("seed post %q: %w", sp.Title, err)
	}
	posts[sp.Title] = p.ID

	for _, username := range sp.LikedBy {
		userID, err := lookup(username)
		if err != nil {
			return err
		}
		if _, _, err := repos.Posts.ToggleLike(ctx, p.ID, userID); err != nil {
			return err
		}
	}
	for _, username := range sp.SavedBy {
		userID, err := lookup(username)
		if err != nil {
			return err
		}
		if _, err := repos.Posts.Save(ctx, p.ID, userID); err != nil {
			return err
		}
	}
	for _, sc := range sp.Comments {
		userID, err := lookup(sc.Author)
		if err != nil {
			return err
		}
		c := &entity.Comment{PostID: p.ID, AuthorID: userID, Content: sc.Content, CreatedAt: sc.CreatedAt}
		if err := repos.Posts.AddComment(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
