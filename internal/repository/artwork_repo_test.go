package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/renfield/atelier/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedArtwork(t *testing.T, db *gorm.DB, mutate ...func(*domain.Artwork)) *domain.Artwork {
	t.Helper()
	artwork := &domain.Artwork{
		ID:          uuid.New().String(),
		Title:       "Red fox",
		Description: "A fox in autumn woods",
		Prompt:      "red fox, golden hour",
		Tags:        domain.StringArray{"fox", "autumn"},
		OwnerID:     "user-1",
		FileURL:     "https://cdn.example.com/fox.png",
		Visibility:  domain.ArtworkVisible,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	for _, m := range mutate {
		m(artwork)
	}
	if err := db.Create(artwork).Error; err != nil {
		t.Fatalf("failed to seed artwork: %v", err)
	}
	return artwork
}

func TestArtworkGetByID(t *testing.T) {
	db := newTestDB(t)
	repo := NewArtworkRepository(db)
	ctx := context.Background()

	seeded := seedArtwork(t, db)

	got, err := repo.GetByID(ctx, seeded.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Title != "Red fox" {
		t.Errorf("title = %s", got.Title)
	}
	if len(got.Tags) != 2 {
		t.Errorf("tags = %v, want 2 elements round-tripped through JSON", got.Tags)
	}
}

func TestArtworkGetByIDNotFound(t *testing.T) {
	repo := NewArtworkRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestArtworkDeleteRemovesInteractions(t *testing.T) {
	db := newTestDB(t)
	repo := NewArtworkRepository(db)
	ctx := context.Background()

	seeded := seedArtwork(t, db)
	db.Create(&domain.ArtworkLike{ArtworkID: seeded.ID, UserID: "user-2"})
	db.Create(&domain.ArtworkSave{ArtworkID: seeded.ID, UserID: "user-2"})

	if err := repo.Delete(ctx, seeded.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var likes int64
	db.Model(&domain.ArtworkLike{}).Where("artwork_id = ?", seeded.ID).Count(&likes)
	if likes != 0 {
		t.Errorf("likes left after delete = %d, want 0", likes)
	}
	if _, err := repo.GetByID(ctx, seeded.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("record still present after delete: %v", err)
	}
}

func TestGetEnrichedByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewArtworkRepository(db)
	ctx := context.Background()

	a := seedArtwork(t, db)
	b := seedArtwork(t, db)

	db.Create(&domain.ArtworkLike{ArtworkID: a.ID, UserID: "viewer"})
	db.Create(&domain.ArtworkLike{ArtworkID: a.ID, UserID: "other"})
	db.Create(&domain.ArtworkSave{ArtworkID: b.ID, UserID: "other"})
	db.Create(&domain.ArtworkDownload{ID: uuid.New().String(), ArtworkID: a.ID, UserID: "other"})

	results, err := repo.GetEnrichedByIDs(ctx, []string{a.ID, b.ID}, "viewer")
	if err != nil {
		t.Fatalf("GetEnrichedByIDs() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	byID := map[string]domain.ArtworkResult{}
	for _, r := range results {
		byID[r.ID] = r
	}

	if byID[a.ID].LikesCount != 2 {
		t.Errorf("likes count = %d, want 2", byID[a.ID].LikesCount)
	}
	if !byID[a.ID].IsLiked {
		t.Error("viewer's own like should set IsLiked")
	}
	if byID[a.ID].DownloadsCount != 1 {
		t.Errorf("downloads count = %d, want 1", byID[a.ID].DownloadsCount)
	}
	if byID[b.ID].SavesCount != 1 {
		t.Errorf("saves count = %d, want 1", byID[b.ID].SavesCount)
	}
	if byID[b.ID].IsSaved {
		t.Error("someone else's save must not set IsSaved")
	}
}

// Hidden artworks and unknown ids are absent from enriched results; the
// caller's merge step drops the corresponding vector hits.
func TestGetEnrichedByIDsSkipsHiddenAndUnknown(t *testing.T) {
	db := newTestDB(t)
	repo := NewArtworkRepository(db)

	visible := seedArtwork(t, db)
	hidden := seedArtwork(t, db, func(a *domain.Artwork) {
		a.Visibility = domain.ArtworkHidden
	})

	results, err := repo.GetEnrichedByIDs(context.Background(),
		[]string{visible.ID, hidden.ID, "no-such-id"}, "")
	if err != nil {
		t.Fatalf("GetEnrichedByIDs() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("len(results) = %d, want 1", len(results))
	}
	if results[0].ID != visible.ID {
		t.Errorf("result id = %s, want the visible artwork", results[0].ID)
	}
}

func TestGetEnrichedByIDsAnonymousViewer(t *testing.T) {
	db := newTestDB(t)
	repo := NewArtworkRepository(db)

	a := seedArtwork(t, db)
	db.Create(&domain.ArtworkLike{ArtworkID: a.ID, UserID: "someone"})

	results, err := repo.GetEnrichedByIDs(context.Background(), []string{a.ID}, "")
	if err != nil {
		t.Fatalf("GetEnrichedByIDs() error = %v", err)
	}
	if results[0].LikesCount != 1 {
		t.Errorf("likes count = %d, want 1", results[0].LikesCount)
	}
	if results[0].IsLiked || results[0].IsSaved {
		t.Error("anonymous viewer must get false viewer flags")
	}
}

func TestFilterByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := NewArtworkRepository(db)
	ctx := context.Background()

	fox := seedArtwork(t, db)
	lake := seedArtwork(t, db, func(a *domain.Artwork) {
		a.Tags = domain.StringArray{"lake", "dawn"}
		a.OwnerID = "user-2"
	})
	old := seedArtwork(t, db, func(a *domain.Artwork) {
		a.CreatedAt = time.Now().Add(-48 * time.Hour)
	})

	ids := []string{fox.ID, lake.ID, old.ID}

	t.Run("by tag", func(t *testing.T) {
		results, err := repo.FilterByIDs(ctx, ids, FilterOptions{Tags: []string{"lake"}}, "")
		if err != nil {
			t.Fatalf("FilterByIDs() error = %v", err)
		}
		if len(results) != 1 || results[0].ID != lake.ID {
			t.Errorf("tag filter returned %d results", len(results))
		}
	})

	t.Run("by owner", func(t *testing.T) {
		results, err := repo.FilterByIDs(ctx, ids, FilterOptions{OwnerID: "user-1"}, "")
		if err != nil {
			t.Fatalf("FilterByIDs() error = %v", err)
		}
		if len(results) != 2 {
			t.Errorf("owner filter returned %d results, want 2", len(results))
		}
	})

	t.Run("by date range", func(t *testing.T) {
		from := time.Now().Add(-time.Hour)
		results, err := repo.FilterByIDs(ctx, ids, FilterOptions{From: &from}, "")
		if err != nil {
			t.Fatalf("FilterByIDs() error = %v", err)
		}
		for _, r := range results {
			if r.ID == old.ID {
				t.Error("date filter should exclude the old artwork")
			}
		}
	})

	t.Run("all tags must match", func(t *testing.T) {
		results, err := repo.FilterByIDs(ctx, ids, FilterOptions{Tags: []string{"fox", "lake"}}, "")
		if err != nil {
			t.Fatalf("FilterByIDs() error = %v", err)
		}
		if len(results) != 0 {
			t.Errorf("conjunctive tag filter returned %d results, want 0", len(results))
		}
	})

	t.Run("candidate set restricts", func(t *testing.T) {
		results, err := repo.FilterByIDs(ctx, []string{lake.ID}, FilterOptions{}, "")
		if err != nil {
			t.Fatalf("FilterByIDs() error = %v", err)
		}
		if len(results) != 1 || results[0].ID != lake.ID {
			t.Errorf("filter outside candidate set: %d results", len(results))
		}
	})
}

func TestRandomSample(t *testing.T) {
	db := newTestDB(t)
	repo := NewArtworkRepository(db)

	for i := 0; i < 5; i++ {
		seedArtwork(t, db)
	}
	seedArtwork(t, db, func(a *domain.Artwork) {
		a.Visibility = domain.ArtworkHidden
	})

	results, err := repo.RandomSample(context.Background(), 3, "")
	if err != nil {
		t.Fatalf("RandomSample() error = %v", err)
	}
	if len(results) != 3 {
		t.Errorf("len(results) = %d, want 3", len(results))
	}
	for _, r := range results {
		if r.Visibility != domain.ArtworkVisible {
			t.Error("hidden artworks must not be sampled")
		}
	}
}
