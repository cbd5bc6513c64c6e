package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"wardrobeapi/models"
	"wardrobeapi/services"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
)

type ProgressObserver interface {
	OnProgress(state models.UploadState)
}

type ProgressFunc func(state models.UploadState)

func (f ProgressFunc) OnProgress(state models.UploadState) {
	f(state)
}

// ClothingUploader runs the upload pipeline for one caller at a time:
// resize, optional background removal, storage upload, attribute analysis
// and persistence. Analysis failures are tolerated; everything else aborts
// the upload.
type ClothingUploader struct {
	Sessions          services.SessionProvider
	Storage           services.StorageServiceProvider
	BackgroundRemover services.BackgroundRemovalProvider
	Analyzer          services.ClothingAnalyzer
	Store             services.WardrobeStore

	Compression   services.CompressionOptions
	MaxImageBytes int
	ResetDelay    time.Duration
	Metrics       *Metrics
	Now           func() time.Time
	// OnIdle runs after a completed upload has been reset to idle.
	OnIdle func()

	busy  atomic.Bool
	runs  atomic.Uint64
	mu    sync.RWMutex
	state models.UploadState
}

func NewClothingUploader(
	sessions services.SessionProvider,
	storage services.StorageServiceProvider,
	remover services.BackgroundRemovalProvider,
	analyzer services.ClothingAnalyzer,
	store services.WardrobeStore,
) *ClothingUploader {
	return &ClothingUploader{
		Sessions:          sessions,
		Storage:           storage,
		BackgroundRemover: remover,
		Analyzer:          analyzer,
		Store:             store,
		Compression:       services.DefaultCompressionOptions(),
		MaxImageBytes:     services.DefaultImageBudget,
		ResetDelay:        time.Second,
		Now:               time.Now,
		state:             models.IdleState(),
	}
}

func (u *ClothingUploader) State() models.UploadState {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.state
}

// Upload stores raw as a new wardrobe item for userID. Observer receives
// every state change in order, synchronously, and sees completed exactly
// once on success. A second call while one is running fails with
// ErrUploadInProgress.
func (u *ClothingUploader) Upload(
	ctx context.Context,
	userID uuid.UUID,
	raw []byte,
	opts models.UploadOptions,
	observer ProgressObserver,
) (*models.ClothingItem, error) {
	if !u.busy.CompareAndSwap(false, true) {
		return nil, services.ErrUploadInProgress
	}
	defer u.busy.Store(false)
	u.Metrics.IncActive()
	defer u.Metrics.DecActive()

	run := &uploadRun{id: u.runs.Add(1), uploader: u, observer: observer, userID: userID}
	item, err := run.execute(ctx, raw, opts)
	if err != nil {
		failedStage := string(run.stage)
		if failedStage == "" {
			failedStage = "preflight"
		}
		run.finishStage("error")
		u.Metrics.IncStageFailure(failedStage)
		fmt.Printf("[Upload %s] Failed during %s: %v\n", userID, failedStage, err)
		if !isCallerError(err) {
			sentry.CaptureException(fmt.Errorf("[Upload %s] %s: %w", userID, failedStage, err))
		}
		run.emit(models.FailedState(err.Error()))
		return nil, err
	}

	run.finishStage("ok")
	run.emit(models.CompletedState())
	fmt.Printf("[Upload %s] Completed item %s\n", userID, item.ID)

	if u.ResetDelay <= 0 {
		u.resetToIdle(run.id)
	} else {
		time.AfterFunc(u.ResetDelay, func() { u.resetToIdle(run.id) })
	}
	return item, nil
}

// resetToIdle clears a completed state unless a newer run has started.
func (u *ClothingUploader) resetToIdle(runID uint64) {
	u.mu.Lock()
	reset := u.runs.Load() == runID && u.state.Stage == models.StageCompleted
	if reset {
		u.state = models.IdleState()
	}
	u.mu.Unlock()
	if reset && u.OnIdle != nil {
		u.OnIdle()
	}
}

func isCallerError(err error) bool {
	return errors.Is(err, services.ErrUnauthorized) ||
		errors.Is(err, services.ErrImageTooLarge) ||
		errors.Is(err, services.ErrInvalidImage)
}

func (u *ClothingUploader) setState(state models.UploadState) {
	u.mu.Lock()
	u.state = state
	u.mu.Unlock()
}

func (u *ClothingUploader) now() time.Time {
	if u.Now != nil {
		return u.Now()
	}
	return time.Now()
}

// NewUploadKey builds {user}/{kind}_{uuid}_{millis}{ext}. The random part
// keeps keys distinct even within the same millisecond.
func NewUploadKey(userID uuid.UUID, kind string, ext string, at time.Time) string {
	return fmt.Sprintf("%s/%s_%s_%d%s", userID, kind, uuid.NewString(), at.UnixMilli(), ext)
}

type uploadRun struct {
	id         uint64
	uploader   *ClothingUploader
	observer   ProgressObserver
	userID     uuid.UUID
	stage      models.UploadStage
	stageStart time.Time
}

func (r *uploadRun) execute(ctx context.Context, raw []byte, opts models.UploadOptions) (*models.ClothingItem, error) {
	u := r.uploader

	session, err := u.Sessions.ActiveSession(ctx)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", services.ErrUnauthorized, err)
	}
	if session.UserID != r.userID {
		return nil, fmt.Errorf("%w: session does not own user %s", services.ErrUnauthorized, r.userID)
	}

	budget := u.MaxImageBytes
	if budget <= 0 {
		budget = services.DefaultImageBudget
	}
	compressed, err := u.Compression.Compress(raw, budget)
	if err != nil {
		return nil, err
	}
	fmt.Printf("[Upload %s] Resized %d -> %d bytes\n", r.userID, len(raw), len(compressed))

	processed := compressed
	var originalURL *string
	var imageURL string

	if opts.ShouldRemoveBackground {
		r.enter(models.StageUploadingOriginal, 0)
		url, err := r.upload(ctx, "original", compressed)
		if err != nil {
			return nil, fmt.Errorf("upload original: %w", err)
		}
		originalURL = &url

		r.enter(models.StageRemovingBackground, 0)
		processed, err = u.BackgroundRemover.RemoveBackground(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("remove background: %w", err)
		}
		r.emit(models.StageState(models.StageRemovingBackground, 0.5))

		if imageURL, err = r.upload(ctx, "processed", processed); err != nil {
			return nil, fmt.Errorf("upload processed image: %w", err)
		}
		r.enter(models.StageAnalyzingClothing, 0)
	} else {
		r.enter(models.StageAnalyzingClothing, 0)
		if imageURL, err = r.upload(ctx, "processed", processed); err != nil {
			return nil, fmt.Errorf("upload processed image: %w", err)
		}
	}

	contentType, _ := services.DetectImageContentType(processed)
	analysis, err := u.Analyzer.AnalyzeClothing(ctx, processed, contentType)
	if err != nil {
		fmt.Printf("[Upload %s] Analysis failed, saving without attributes: %v\n", r.userID, err)
		sentry.CaptureException(fmt.Errorf("[Upload %s] analysis: %w", r.userID, err))
		u.Metrics.IncAnalysisDegraded()
		analysis = nil
	}

	r.enter(models.StageSavingToDatabase, 0)
	item := models.ClothingItem{
		UserID:           r.userID,
		ImageURL:         imageURL,
		OriginalImageURL: originalURL,
		Category:         opts.Category,
	}
	analysis.ApplyTo(&item)

	saved, err := u.Store.Create(ctx, item)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *uploadRun) upload(ctx context.Context, kind string, data []byte) (string, error) {
	contentType, ext := services.DetectImageContentType(data)
	key := NewUploadKey(r.userID, kind, ext, r.uploader.now())
	return r.uploader.Storage.Upload(ctx, data, key, contentType)
}

func (r *uploadRun) enter(stage models.UploadStage, progress float64) {
	r.finishStage("ok")
	r.stage = stage
	r.stageStart = time.Now()
	r.emit(models.StageState(stage, progress))
}

func (r *uploadRun) finishStage(status string) {
	if r.stage == "" {
		return
	}
	r.uploader.Metrics.ObserveStage(string(r.stage), status, time.Since(r.stageStart))
	r.stage = ""
}

func (r *uploadRun) emit(state models.UploadState) {
	r.uploader.setState(state)
	if r.observer != nil {
		r.observer.OnProgress(state)
	}
}
