package controllers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"wardrobeapi/models"
	"wardrobeapi/services"
	"wardrobeapi/tasks"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type UploadClothingIn struct {
	RemoveBackground string `form:"remove_background" validate:"omitempty,oneof=true false 1 0"`
	Category         string `form:"category" validate:"omitempty,max=50,category"`
}

type DeleteClothesIn struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=100"`
}

type ClothingItemResponse struct {
	models.ClothingItem
	Group             models.CategoryGroup `json:"group,omitempty"`
	TemperatureRanges []string             `json:"temperature_ranges,omitempty"`
}

type ClothesListResponse struct {
	Items []ClothingItemResponse `json:"items"`
}

type UploadStateResponse struct {
	Stage          models.UploadStage `json:"stage"`
	Progress       float64            `json:"progress"`
	GlobalProgress float64            `json:"global_progress"`
	Reason         string             `json:"reason,omitempty"`
	IsLoading      bool               `json:"is_loading"`
	IsTerminal     bool               `json:"is_terminal"`
}

// UploaderRegistry keeps one uploader per user so each user has their own
// in-progress guard and state. An uploader is dropped once it is idle and no
// request holds it; a failed one stays so its reason can still be read.
type UploaderRegistry struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*uploaderEntry
	factory func() *tasks.ClothingUploader
}

type uploaderEntry struct {
	uploader *tasks.ClothingUploader
	refs     int
}

func NewUploaderRegistry(factory func() *tasks.ClothingUploader) *UploaderRegistry {
	return &UploaderRegistry{
		entries: map[uuid.UUID]*uploaderEntry{},
		factory: factory,
	}
}

// Acquire returns the user's uploader. Every Acquire must be paired with
// a Release.
func (r *UploaderRegistry) Acquire(userID uuid.UUID) *tasks.ClothingUploader {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[userID]
	if !ok {
		uploader := r.factory()
		uploader.OnIdle = func() { r.evictIdle(userID, uploader) }
		entry = &uploaderEntry{uploader: uploader}
		r.entries[userID] = entry
	}
	entry.refs++
	return entry.uploader
}

func (r *UploaderRegistry) Release(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[userID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 && entry.uploader.State().Stage == models.StageIdle {
		delete(r.entries, userID)
	}
}

func (r *UploaderRegistry) evictIdle(userID uuid.UUID, uploader *tasks.ClothingUploader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[userID]
	if !ok || entry.uploader != uploader || entry.refs > 0 {
		return
	}
	if uploader.State().Stage == models.StageIdle {
		delete(r.entries, userID)
	}
}

// State is idle for users without a live uploader.
func (r *UploaderRegistry) State(userID uuid.UUID) models.UploadState {
	r.mu.Lock()
	entry, ok := r.entries[userID]
	r.mu.Unlock()
	if !ok {
		return models.IdleState()
	}
	return entry.uploader.State()
}

type ClothesController struct {
	Store     services.WardrobeStore
	Storage   services.StorageServiceProvider
	URLCache  services.URLCacheServiceProvider
	Uploaders *UploaderRegistry
}

func (controller *ClothesController) ClothingRoutes(g *echo.Group) {
	g.POST("", controller.UploadClothing)
	g.GET("", controller.ListClothes)
	g.GET("/upload-state", controller.UploadState)
	g.POST("/batch-delete", controller.DeleteClothes)
	g.GET("/:itemId", controller.GetClothing)
	g.DELETE("/:itemId", controller.DeleteClothing)
}

func (controller *ClothesController) UploadClothing(c echo.Context) error {
	ownerID, ok := c.Get("ownerID").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	var req UploadClothingIn
	if err := c.Bind(&req); err != nil {
		fmt.Println(err)
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Sorry, it seems image was not provided, please try again"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read the uploaded image"})
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Could not read the uploaded image"})
	}

	opts := models.DefaultUploadOptions()
	if req.RemoveBackground != "" {
		opts.ShouldRemoveBackground, _ = strconv.ParseBool(req.RemoveBackground)
	}
	if req.Category != "" {
		category := models.ClothingCategory(req.Category)
		opts.Category = &category
	}

	fmt.Printf("[Upload %s] Received %d bytes, remove background: %v\n", ownerID, len(raw), opts.ShouldRemoveBackground)
	observer := tasks.ProgressFunc(func(state models.UploadState) {
		fmt.Printf("[Upload %s] %s %.0f%%\n", ownerID, state.Stage, state.GlobalProgress()*100)
	})
	// the pipeline outlives the connection; a client that hangs up can still
	// follow the result through upload-state
	ctx := context.WithoutCancel(c.Request().Context())
	uploader := controller.Uploaders.Acquire(ownerID)
	defer controller.Uploaders.Release(ownerID)
	item, err := uploader.Upload(ctx, ownerID, raw, opts, observer)
	if err != nil {
		return c.JSON(StatusForError(err), map[string]string{"error": ErrorMessage(err)})
	}
	return c.JSON(http.StatusCreated, controller.presentItem(ctx, *item))
}

func (controller *ClothesController) ListClothes(c echo.Context) error {
	ownerID, ok := c.Get("ownerID").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	items, err := controller.Store.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch clothes"})
	}
	return c.JSON(http.StatusOK, ClothesListResponse{
		Items: controller.populatePresignedImages(c.Request().Context(), items),
	})
}

func (controller *ClothesController) GetClothing(c echo.Context) error {
	ownerID, ok := c.Get("ownerID").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid clothing id"})
	}
	item, err := controller.Store.Get(c.Request().Context(), itemID, ownerID)
	if errors.Is(err, services.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": ErrorMessage(err)})
	}
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch clothing"})
	}
	return c.JSON(http.StatusOK, controller.presentItem(c.Request().Context(), *item))
}

func (controller *ClothesController) DeleteClothing(c echo.Context) error {
	ownerID, ok := c.Get("ownerID").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	itemID, err := uuid.Parse(c.Param("itemId"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid clothing id"})
	}
	if err := tasks.DeleteClothingItem(c.Request().Context(), controller.Store, controller.Storage, itemID, ownerID); err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to delete clothing, please try again"})
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteClothes deletes the given items in order and stops at the first
// failure, reporting which ids were already removed.
func (controller *ClothesController) DeleteClothes(c echo.Context) error {
	ownerID, ok := c.Get("ownerID").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	var req DeleteClothesIn
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if err := c.Validate(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	deleted, err := tasks.DeleteClothingItems(c.Request().Context(), controller.Store, controller.Storage, req.IDs, ownerID)
	if err != nil {
		sentry.CaptureException(err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error":   "Failed to delete clothing, please try again",
			"deleted": deleted,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"deleted": deleted})
}

func (controller *ClothesController) UploadState(c echo.Context) error {
	ownerID, ok := c.Get("ownerID").(uuid.UUID)
	if !ok {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}
	state := controller.Uploaders.State(ownerID)
	return c.JSON(http.StatusOK, UploadStateResponse{
		Stage:          state.Stage,
		Progress:       state.Progress,
		GlobalProgress: state.GlobalProgress(),
		Reason:         state.Reason,
		IsLoading:      state.IsLoading(),
		IsTerminal:     state.IsTerminal(),
	})
}

// populatePresignedImages presents items concurrently, since every item
// may need two presigned URLs.
func (controller *ClothesController) populatePresignedImages(ctx context.Context, items []models.ClothingItem) []ClothingItemResponse {
	out := make([]ClothingItemResponse, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(index int, item models.ClothingItem) {
			defer wg.Done()
			out[index] = controller.presentItem(ctx, item)
		}(i, item)
	}
	wg.Wait()
	return out
}

func (controller *ClothesController) presentItem(ctx context.Context, item models.ClothingItem) ClothingItemResponse {
	item.ImageURL = controller.readURL(ctx, item.ImageURL)
	if item.OriginalImageURL != nil {
		original := controller.readURL(ctx, *item.OriginalImageURL)
		item.OriginalImageURL = &original
	}
	response := ClothingItemResponse{ClothingItem: item}
	if item.Category != nil {
		response.Group = item.Category.Group()
	}
	for _, weather := range item.Weather() {
		response.TemperatureRanges = append(response.TemperatureRanges, weather.TemperatureRange())
	}
	return response
}

// readURL swaps a stored public URL for a presigned one when the bucket is
// private. On failure the stored URL is returned as is.
func (controller *ClothesController) readURL(ctx context.Context, storedURL string) string {
	if controller.URLCache == nil {
		return storedURL
	}
	objectKey, ok := controller.Storage.KeyFromURL(storedURL)
	if !ok {
		return storedURL
	}
	url, err := controller.URLCache.GetReadURL(ctx, objectKey)
	if err != nil {
		log.Printf("CACHE WARNING: Presigning failed for key '%s': %v", objectKey, err)
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("failure_type", "cache_system")
			scope.SetExtra("objectKey", objectKey)
			sentry.CaptureException(err)
		})
		return storedURL
	}
	return url
}
