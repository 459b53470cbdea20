package service

import (
	"context"
	"errors"
	"testing"

	"github.com/renfield/atelier/internal/domain"
	"github.com/renfield/atelier/internal/logger"
)

func newTestIngestion(store *fakeStore, queue *fakeQueue, index *fakeIndex, objStorage *fakeObjectStorage) *IngestionService {
	return NewIngestionService(store, queue, index, objStorage, logger.NewDefault())
}

func createInput() *CreateArtworkInput {
	return &CreateArtworkInput{
		OwnerID:     "user-1",
		Title:       "Red fox",
		Description: "A fox in autumn woods",
		Prompt:      "red fox, golden hour",
		Tags:        []string{"fox", "autumn"},
		FileKey:     "artworks/fox.png",
	}
}

func TestCreateArtwork(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	svc := newTestIngestion(store, queue, newFakeIndex(), &fakeObjectStorage{})

	artwork, err := svc.CreateArtwork(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreateArtwork() error = %v", err)
	}

	if artwork.ID == "" {
		t.Error("artwork should get an id at creation")
	}
	if artwork.Visibility != domain.ArtworkVisible {
		t.Errorf("visibility = %s, want visible", artwork.Visibility)
	}
	if artwork.FileURL != "https://cdn.example.com/artworks/fox.png" {
		t.Errorf("file URL = %s", artwork.FileURL)
	}
	if _, ok := store.artworks[artwork.ID]; !ok {
		t.Error("artwork should be persisted")
	}

	if len(queue.jobs) != 1 {
		t.Fatalf("expected 1 enqueued job, got %d", len(queue.jobs))
	}
	job := queue.jobs[0]
	if job.ArtworkID != artwork.ID {
		t.Errorf("job artwork id = %s, want %s", job.ArtworkID, artwork.ID)
	}
	if job.Title != "Red fox" || job.Prompt != "red fox, golden hour" {
		t.Error("job payload should carry the artwork's text fields")
	}
}

// Creation must succeed even when the queue is down: the record exists, it
// is just not searchable yet.
func TestCreateArtworkDecoupledFromQueueFailure(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{enqueueErr: errors.New("queue down")}
	svc := newTestIngestion(store, queue, newFakeIndex(), &fakeObjectStorage{})

	artwork, err := svc.CreateArtwork(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreateArtwork() error = %v, want nil despite queue failure", err)
	}
	if _, ok := store.artworks[artwork.ID]; !ok {
		t.Error("artwork should be persisted despite queue failure")
	}
}

func TestUpdateArtworkReenqueues(t *testing.T) {
	store := newFakeStore()
	queue := &fakeQueue{}
	svc := newTestIngestion(store, queue, newFakeIndex(), &fakeObjectStorage{})

	artwork, err := svc.CreateArtwork(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreateArtwork() error = %v", err)
	}

	newTitle := "Winter fox"
	updated, err := svc.UpdateArtwork(context.Background(), artwork.ID, &UpdateArtworkInput{Title: &newTitle})
	if err != nil {
		t.Fatalf("UpdateArtwork() error = %v", err)
	}

	if updated.Title != "Winter fox" {
		t.Errorf("title = %s, want Winter fox", updated.Title)
	}
	if updated.Prompt != "red fox, golden hour" {
		t.Error("unset fields must keep their value")
	}

	if len(queue.jobs) != 2 {
		t.Fatalf("expected 2 enqueued jobs (create + update), got %d", len(queue.jobs))
	}
	if queue.jobs[1].ArtworkID != artwork.ID {
		t.Error("update job must reuse the artwork id so the upsert replaces the stale point")
	}
	if queue.jobs[1].Title != "Winter fox" {
		t.Error("update job must carry the edited fields")
	}
}

func TestUpdateArtworkNotFound(t *testing.T) {
	svc := newTestIngestion(newFakeStore(), &fakeQueue{}, newFakeIndex(), &fakeObjectStorage{})

	title := "x"
	_, err := svc.UpdateArtwork(context.Background(), "missing", &UpdateArtworkInput{Title: &title})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateArtwork() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteArtwork(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	objStorage := &fakeObjectStorage{}
	svc := newTestIngestion(store, &fakeQueue{}, index, objStorage)

	artwork, err := svc.CreateArtwork(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreateArtwork() error = %v", err)
	}
	index.points[artwork.ID] = []float32{0.1}

	if err := svc.DeleteArtwork(context.Background(), artwork.ID); err != nil {
		t.Fatalf("DeleteArtwork() error = %v", err)
	}

	if _, ok := store.artworks[artwork.ID]; ok {
		t.Error("record should be removed")
	}
	if _, ok := index.points[artwork.ID]; ok {
		t.Error("vector point should be removed")
	}
	if len(objStorage.deleted) != 1 || objStorage.deleted[0] != "artworks/fox.png" {
		t.Errorf("stored file should be removed, got deletes %v", objStorage.deleted)
	}
}

// A transient vector-delete failure gets one immediate retry.
func TestDeleteArtworkRetriesVectorDelete(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	index.deleteErr = domain.ErrIndexUnavailable
	index.deleteFails = 1
	svc := newTestIngestion(store, &fakeQueue{}, index, &fakeObjectStorage{})

	artwork, err := svc.CreateArtwork(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreateArtwork() error = %v", err)
	}
	index.points[artwork.ID] = []float32{0.1}

	if err := svc.DeleteArtwork(context.Background(), artwork.ID); err != nil {
		t.Fatalf("DeleteArtwork() error = %v", err)
	}

	if len(index.deleteCalls) != 2 {
		t.Fatalf("expected 2 delete attempts, got %d", len(index.deleteCalls))
	}
	if _, ok := index.points[artwork.ID]; ok {
		t.Error("retry should have removed the point")
	}
}

// Even a persistent vector-delete failure must not fail the delete; the
// orphan point is dropped at query time by the join.
func TestDeleteArtworkToleratesIndexOutage(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	index.deleteErr = domain.ErrIndexUnavailable
	index.deleteFails = 2
	svc := newTestIngestion(store, &fakeQueue{}, index, &fakeObjectStorage{})

	artwork, err := svc.CreateArtwork(context.Background(), createInput())
	if err != nil {
		t.Fatalf("CreateArtwork() error = %v", err)
	}

	if err := svc.DeleteArtwork(context.Background(), artwork.ID); err != nil {
		t.Fatalf("DeleteArtwork() error = %v, want nil despite index outage", err)
	}
	if _, ok := store.artworks[artwork.ID]; ok {
		t.Error("record should be removed despite index outage")
	}
}

func TestDeleteArtworkNotFound(t *testing.T) {
	svc := newTestIngestion(newFakeStore(), &fakeQueue{}, newFakeIndex(), &fakeObjectStorage{})

	err := svc.DeleteArtwork(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("DeleteArtwork() error = %v, want ErrNotFound", err)
	}
}
