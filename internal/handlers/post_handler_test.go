package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/jhagel/campushub/backend/internal/models"
	"github.com/jhagel/campushub/backend/internal/notify"
	"github.com/jhagel/campushub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Account{}, &models.Friendship{}, &models.Group{},
		&models.GroupAccount{}, &models.Notification{},
	); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func seedAccount(t *testing.T, db *gorm.DB, name string, role models.AccountRole) *models.Account {
	t.Helper()
	account := &models.Account{Name: name, Email: name + "@campus.example", Role: role}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return account
}

// noopNotifier drops events; the delete paths emit none.
type noopNotifier struct{}

func (noopNotifier) Dispatch(*notify.Event) {}

// fakePostRepository keeps posts in memory keyed by their hex ID.
type fakePostRepository struct {
	posts map[string]*models.Post
}

func newFakePostRepository() *fakePostRepository {
	return &fakePostRepository{posts: map[string]*models.Post{}}
}

func (r *fakePostRepository) CreatePost(_ context.Context, post *models.Post) error {
	if post.ID.IsZero() {
		post.ID = primitive.NewObjectID()
	}
	r.posts[post.ID.Hex()] = post
	return nil
}

func (r *fakePostRepository) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, errors.New("post not found")
	}
	return post, nil
}

func (r *fakePostRepository) GetAccountStream(context.Context, uint, int64, int64) ([]models.Post, error) {
	return nil, nil
}

func (r *fakePostRepository) GetGroupStream(context.Context, uint, int64, int64) ([]models.Post, error) {
	return nil, nil
}

func (r *fakePostRepository) GetComments(context.Context, string) ([]models.Post, error) {
	return nil, nil
}

func (r *fakePostRepository) DeletePost(_ context.Context, id string) error {
	delete(r.posts, id)
	return nil
}

// fakeMediaRepository keeps media metadata in memory keyed by hex ID.
type fakeMediaRepository struct {
	media map[string]*models.Media
}

func newFakeMediaRepository() *fakeMediaRepository {
	return &fakeMediaRepository{media: map[string]*models.Media{}}
}

func (r *fakeMediaRepository) CreateMedia(_ context.Context, media *models.Media) error {
	if media.ID.IsZero() {
		media.ID = primitive.NewObjectID()
	}
	r.media[media.ID.Hex()] = media
	return nil
}

func (r *fakeMediaRepository) GetMediaByID(_ context.Context, id string) (*models.Media, error) {
	media, ok := r.media[id]
	if !ok {
		return nil, errors.New("media not found")
	}
	return media, nil
}

func (r *fakeMediaRepository) GetGroupMedia(context.Context, uint) ([]models.Media, error) {
	return nil, nil
}

func (r *fakeMediaRepository) DeleteMedia(_ context.Context, id string) error {
	delete(r.media, id)
	return nil
}

// authedRequest builds an echo context carrying the account's JWT claims.
func authedRequest(e *echo.Echo, method, target string, account *models.Account, idParam string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(idParam)
	c.Set("account", &models.JwtCustomClaims{AccountID: account.ID, Email: account.Email})
	return c, rec
}

func TestDeletePostCascadesNotifications(t *testing.T) {
	db := openTestDB(t)
	accounts := repositories.NewPostgresAccountRepository(db)
	groups := repositories.NewPostgresGroupRepository(db)
	friendships := repositories.NewPostgresFriendshipRepository(db)
	notifications := repositories.NewPostgresNotificationRepository(db)
	posts := newFakePostRepository()

	author := seedAccount(t, db, "author", models.RoleStudent)
	readerA := seedAccount(t, db, "reader-a", models.RoleStudent)
	readerB := seedAccount(t, db, "reader-b", models.RoleStudent)

	streamID := author.ID
	post := &models.Post{OwnerID: author.ID, AccountID: &streamID, Content: "hello"}
	if err := posts.CreatePost(context.Background(), post); err != nil {
		t.Fatalf("create post: %v", err)
	}

	for _, reader := range []*models.Account{readerA, readerB} {
		n := &models.Notification{
			RecipientID:   reader.ID,
			ReferenceType: models.ReferencePost,
			ReferenceID:   post.ID.Hex(),
			Rendered:      "author posted: hello",
			TargetURL:     "/posts/" + post.ID.Hex(),
		}
		if err := notifications.Upsert(n); err != nil {
			t.Fatalf("seed notification: %v", err)
		}
	}
	unrelated := &models.Notification{
		RecipientID:   readerA.ID,
		ReferenceType: models.ReferenceFriendship,
		ReferenceID:   "1",
		Rendered:      "someone sent a contact request",
	}
	if err := notifications.Upsert(unrelated); err != nil {
		t.Fatalf("seed unrelated notification: %v", err)
	}

	h := NewPostHandler(posts, accounts, groups, friendships, notifications, noopNotifier{})
	c, rec := authedRequest(echo.New(), http.MethodDelete, "/posts/"+post.ID.Hex(), author, post.ID.Hex())

	if err := h.DeletePost(c); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if _, ok := posts.posts[post.ID.Hex()]; ok {
		t.Errorf("post still stored after delete")
	}

	var remaining int64
	db.Model(&models.Notification{}).
		Where("reference_type = ? AND reference_id = ?", models.ReferencePost, post.ID.Hex()).
		Count(&remaining)
	if remaining != 0 {
		t.Errorf("post notification rows after delete = %d, want 0", remaining)
	}

	var others int64
	db.Model(&models.Notification{}).
		Where("reference_type = ?", models.ReferenceFriendship).
		Count(&others)
	if others != 1 {
		t.Errorf("unrelated notification rows = %d, want 1", others)
	}
}

func TestDeleteMediaCascadesNotifications(t *testing.T) {
	db := openTestDB(t)
	accounts := repositories.NewPostgresAccountRepository(db)
	groups := repositories.NewPostgresGroupRepository(db)
	notifications := repositories.NewPostgresNotificationRepository(db)
	media := newFakeMediaRepository()

	uploader := seedAccount(t, db, "uploader", models.RoleStudent)
	member := seedAccount(t, db, "member", models.RoleStudent)

	file := &models.Media{OwnerID: uploader.ID, GroupID: 1, FileName: "notes.pdf"}
	if err := media.CreateMedia(context.Background(), file); err != nil {
		t.Fatalf("create media: %v", err)
	}

	n := &models.Notification{
		RecipientID:   member.ID,
		ReferenceType: models.ReferenceMedia,
		ReferenceID:   file.ID.Hex(),
		Rendered:      "uploader added notes.pdf",
	}
	if err := notifications.Upsert(n); err != nil {
		t.Fatalf("seed notification: %v", err)
	}

	h := NewMediaHandler(media, groups, accounts, notifications, noopNotifier{})
	c, rec := authedRequest(echo.New(), http.MethodDelete, "/media/"+file.ID.Hex(), uploader, file.ID.Hex())

	if err := h.DeleteMedia(c); err != nil {
		t.Fatalf("DeleteMedia: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	var remaining int64
	db.Model(&models.Notification{}).
		Where("reference_type = ? AND reference_id = ?", models.ReferenceMedia, file.ID.Hex()).
		Count(&remaining)
	if remaining != 0 {
		t.Errorf("media notification rows after delete = %d, want 0", remaining)
	}
}
