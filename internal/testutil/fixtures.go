package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/dom/notely/internal/domain"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	firstName string
	lastName  string
	username  string
	email     string
	password  string
}

// NewUserBuilder creates a new UserBuilder with unique username and email
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		firstName: "Test",
		lastName:  "User",
		username:  "testuser_" + suffix,
		email:     fmt.Sprintf("testuser_%s@example.com", suffix),
		password:  "testpassword123",
	}
}

func (b *UserBuilder) WithName(first, last string) *UserBuilder {
	b.firstName = first
	b.lastName = last
	return b
}

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		FirstName:    b.firstName,
		LastName:     b.lastName,
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// RegisterBody is the JSON body the register endpoint expects for this builder
func (b *UserBuilder) RegisterBody() map[string]string {
	return map[string]string{
		"firstName": b.firstName,
		"lastName":  b.lastName,
		"username":  b.username,
		"email":     b.email,
		"password":  b.password,
	}
}

// BuildAndAuthenticate registers the user through the API and returns the
// stored user along with its token
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	body, _ := json.Marshal(b.RegisterBody())
	resp, err := http.Post(ts.APIURL("/auth/register"), "application/json", bytes.NewBuffer(body))
	if err != nil {
		t.Fatalf("failed to register user: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status code: %d", resp.StatusCode)
	}

	var env Envelope[string]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	user, err := ts.Repos.User.GetByLogin(context.Background(), b.username)
	if err != nil {
		t.Fatalf("failed to load registered user: %v", err)
	}

	return user, env.Data
}

// NoteBuilder creates test notes with a builder pattern
type NoteBuilder struct {
	owner     *domain.User
	title     string
	synopsis  string
	content   string
	favorite  bool
	trashed   bool
	createdAt time.Time
}

func NewNoteBuilder() *NoteBuilder {
	return &NoteBuilder{
		title:     "Test note",
		synopsis:  "A short synopsis",
		content:   "Some content",
		createdAt: time.Now(),
	}
}

func (b *NoteBuilder) WithOwner(user *domain.User) *NoteBuilder {
	b.owner = user
	return b
}

func (b *NoteBuilder) WithTitle(title string) *NoteBuilder {
	b.title = title
	return b
}

func (b *NoteBuilder) WithContent(synopsis, content string) *NoteBuilder {
	b.synopsis = synopsis
	b.content = content
	return b
}

func (b *NoteBuilder) Favorite() *NoteBuilder {
	b.favorite = true
	return b
}

func (b *NoteBuilder) Trashed() *NoteBuilder {
	b.trashed = true
	return b
}

// CreatedAt pins the creation time, for ordering tests
func (b *NoteBuilder) CreatedAt(at time.Time) *NoteBuilder {
	b.createdAt = at
	return b
}

// Build inserts the note directly, bypassing the service
func (b *NoteBuilder) Build(t *testing.T, db *gorm.DB) *domain.Note {
	t.Helper()

	if b.owner == nil {
		t.Fatal("note builder requires an owner")
	}

	note := &domain.Note{
		ID:         uuid.New(),
		UserID:     b.owner.ID,
		Title:      b.title,
		Synopsis:   b.synopsis,
		Content:    b.content,
		IsFavorite: b.favorite,
		IsDeleted:  b.trashed,
		CreatedAt:  b.createdAt,
		UpdatedAt:  b.createdAt,
	}

	if err := db.Create(note).Error; err != nil {
		t.Fatalf("failed to create note: %v", err)
	}

	return note
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// Do sends an authenticated request and returns the response
func Do(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(CreateAuthenticatedRequest(t, method, url, body, token))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}
