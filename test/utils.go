package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const JWTSecret = "test-secret"

const FakeStorageBaseURL = "https://storage.test/bucket"

func JsonString(model interface{}) string {
	bytes, _ := json.Marshal(model)
	return string(bytes)
}

func NewJSONRequest(method string, target string, param interface{}) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(JsonString(param)))
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Accept", "application/json")
	return req
}

func GenerateUserToken(userPk string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userPk,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	t, err := token.SignedString([]byte(JWTSecret))
	if err != nil {
		log.Fatalf("Error when signing user token for %s. Error %s ", userPk, err)
	}
	return t
}

func NewJSONAuthRequest(method string, target string, userPk string, param interface{}) *http.Request {
	req := NewJSONRequest(method, target, param)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(userPk)))
	return req
}

func NewAuthRequest(method string, target string, userPk string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(userPk)))
	return req
}

// NewMultipartAuthRequest sends image as the "image" file part plus any
// extra form fields.
func NewMultipartAuthRequest(method string, target string, userPk string, image []byte, fields map[string]string) *http.Request {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		_ = writer.WriteField(k, v)
	}
	part, _ := writer.CreateFormFile("image", "photo.jpg")
	_, _ = part.Write(image)
	_ = writer.Close()

	req := httptest.NewRequest(method, target, body)
	req.Header.Add("Content-Type", writer.FormDataContentType())
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %s", GenerateUserToken(userPk)))
	return req
}

func Contains(items []string, lookFor string) bool {
	for i := 0; i < len(items); i++ {
		if items[i] == lookFor {
			return true
		}
	}
	return false
}

func NewRefString(data string) *string {
	return &data
}

// SolidJPEG encodes a w x h JPEG with a soft gradient.
func SolidJPEG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: 120, B: uint8(y * 255 / h), A: 255})
		}
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

// NoisyJPEG encodes random pixels at full quality, which keeps the file
// large for its dimensions.
func NoisyJPEG(w, h int, seed int64) []byte {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100})
	return buf.Bytes()
}

type StoredObject struct {
	Key         string
	ContentType string
	Data        []byte
}

// FakeStorage keeps objects in memory under FakeStorageBaseURL.
type FakeStorage struct {
	mu        sync.Mutex
	Puts      []StoredObject
	Deletes   []string
	UploadErr func(key string) error
	DeleteErr error
}

func (f *FakeStorage) Upload(ctx context.Context, data []byte, key string, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		if err := f.UploadErr(key); err != nil {
			return "", err
		}
	}
	f.Puts = append(f.Puts, StoredObject{Key: key, ContentType: contentType, Data: append([]byte(nil), data...)})
	return FakeStorageBaseURL + "/" + key, nil
}

func (f *FakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Deletes = append(f.Deletes, key)
	return f.DeleteErr
}

func (f *FakeStorage) KeyFromURL(publicURL string) (string, bool) {
	prefix := FakeStorageBaseURL + "/"
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(publicURL, prefix), true
}

func (f *FakeStorage) PutKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.Puts))
	for _, p := range f.Puts {
		keys = append(keys, p.Key)
	}
	return keys
}

type FakeBackgroundRemover struct {
	mu     sync.Mutex
	Output []byte
	Err    error
	Calls  []string
	// Started, when set, receives the source URL as each call begins.
	Started chan string
	// Block, when set, is waited on before answering.
	Block chan struct{}
}

func (f *FakeBackgroundRemover) RemoveBackground(ctx context.Context, sourceURL string) ([]byte, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, sourceURL)
	f.mu.Unlock()
	if f.Started != nil {
		f.Started <- sourceURL
	}
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Output, nil
}

type FakeClothingAnalyzer struct {
	mu     sync.Mutex
	Result *models.AnalysisResult
	Err    error
	Calls  int
	// Block, when set, is waited on before answering.
	Block chan struct{}
}

func (f *FakeClothingAnalyzer) AnalyzeClothing(ctx context.Context, image []byte, mimeType string) (*models.AnalysisResult, error) {
	if f.Block != nil {
		select {
		case <-f.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Result, nil
}

type StaticSessionProvider struct {
	Session *models.Session
	Err     error
}

func (p StaticSessionProvider) ActiveSession(ctx context.Context) (*models.Session, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Session == nil {
		return nil, services.ErrUnauthorized
	}
	return p.Session, nil
}

func SessionFor(userID uuid.UUID) StaticSessionProvider {
	return StaticSessionProvider{Session: &models.Session{UserID: userID, ExpiresAt: time.Now().Add(time.Hour)}}
}

// InMemoryWardrobeStore mirrors GormWardrobeStore without a database.
type InMemoryWardrobeStore struct {
	mu        sync.Mutex
	items     []models.ClothingItem
	clock     time.Time
	CreateErr error
	// DeleteErr, when set, is consulted before each delete.
	DeleteErr func(itemID uuid.UUID) error
}

func NewInMemoryWardrobeStore() *InMemoryWardrobeStore {
	return &InMemoryWardrobeStore{clock: time.Now()}
}

func (s *InMemoryWardrobeStore) Create(ctx context.Context, item models.ClothingItem) (*models.ClothingItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	// strictly increasing timestamps keep the listing order stable
	s.clock = s.clock.Add(time.Millisecond)
	item.ID = uuid.New()
	item.CreatedAt = s.clock
	item.UpdatedAt = s.clock
	s.items = append(s.items, item)
	return &item, nil
}

func (s *InMemoryWardrobeStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.ClothingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ClothingItem
	for _, item := range s.items {
		if item.UserID == ownerID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryWardrobeStore) Get(ctx context.Context, itemID, ownerID uuid.UUID) (*models.ClothingItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == itemID && item.UserID == ownerID {
			found := item
			return &found, nil
		}
	}
	return nil, services.ErrNotFound
}

func (s *InMemoryWardrobeStore) Delete(ctx context.Context, itemID, ownerID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		if err := s.DeleteErr(itemID); err != nil {
			return 0, err
		}
	}
	for i, item := range s.items {
		if item.ID == itemID && item.UserID == ownerID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *InMemoryWardrobeStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type InMemoryPreferencesStore struct {
	mu      sync.Mutex
	byUser  map[uuid.UUID]models.StylePreferences
	SaveErr error
}

func NewInMemoryPreferencesStore() *InMemoryPreferencesStore {
	return &InMemoryPreferencesStore{byUser: map[uuid.UUID]models.StylePreferences{}}
}

func (s *InMemoryPreferencesStore) Get(ctx context.Context, userID uuid.UUID) (*models.StylePreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	preferences, ok := s.byUser[userID]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &preferences, nil
}

func (s *InMemoryPreferencesStore) Save(ctx context.Context, preferences models.StylePreferences) (*models.StylePreferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return nil, s.SaveErr
	}
	preferences.UpdatedAt = time.Now()
	s.byUser[preferences.UserID] = preferences
	return &preferences, nil
}
