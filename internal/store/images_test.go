package store

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nmoreau/go-image-pipeline/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Image{}))
	return db
}

func testTransformations() models.Transformations {
	return models.Transformations{
		{Type: "resize", Details: "width 800"},
		{Type: "greyscale"},
		{Type: "sepia"},
		{Type: "rotate", Details: "90 degrees clockwise"},
		{Type: "quality", Details: "level 80"},
		{Type: "crop", Details: "300x300 at (50,50)"},
	}
}

func testImage(ownerID string) *models.Image {
	originalKey := "imageFile-1-" + uuid.NewString() + ".jpg"
	return &models.Image{
		UserID:                 ownerID,
		OriginalFileName:       "photo.jpg",
		OriginalKey:            originalKey,
		ProcessedKey:           "processed-" + originalKey,
		OriginalMimeType:       "image/jpeg",
		OriginalSizeBytes:      2048,
		ProcessedMimeType:      "image/jpeg",
		ProcessedSizeBytes:     1024,
		AppliedTransformations: testTransformations(),
	}
}

func TestImagesCreate(t *testing.T) {
	images := NewImages(newTestDB(t))
	ctx := context.Background()

	img := testImage("owner-a")
	require.NoError(t, images.Create(ctx, img))
	assert.NotEmpty(t, img.ID)

	got, err := images.GetByIDForOwner(ctx, "owner-a", img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.OriginalKey, got.OriginalKey)
	assert.Equal(t, img.ProcessedKey, got.ProcessedKey)
	assert.Equal(t, testTransformations(), got.AppliedTransformations)
}

func TestImagesCreateRejectsTooFewTransformations(t *testing.T) {
	images := NewImages(newTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name  string
		count int
	}{
		{name: "none", count: 0},
		{name: "one", count: 1},
		{name: "two", count: 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := testImage("owner-a")
			img.AppliedTransformations = testTransformations()[:tc.count]

			err := images.Create(ctx, img)
			require.ErrorIs(t, err, ErrTransformCount)

			// nothing persisted
			list, err := images.ListByOwner(ctx, "owner-a")
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestImagesCreateDuplicateStorageKey(t *testing.T) {
	images := NewImages(newTestDB(t))
	ctx := context.Background()

	first := testImage("owner-a")
	require.NoError(t, images.Create(ctx, first))

	dup := testImage("owner-b")
	dup.OriginalKey = first.OriginalKey
	dup.ProcessedKey = first.ProcessedKey

	err := images.Create(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestImagesListByOwner(t *testing.T) {
	images := NewImages(newTestDB(t))
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		img := testImage("owner-a")
		img.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, images.Create(ctx, img))
		ids = append(ids, img.ID)
	}
	foreign := testImage("owner-b")
	require.NoError(t, images.Create(ctx, foreign))

	list, err := images.ListByOwner(ctx, "owner-a")
	require.NoError(t, err)
	require.Len(t, list, 3)

	// newest first
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
	assert.Equal(t, ids[0], list[2].ID)

	for _, img := range list {
		assert.Equal(t, "owner-a", img.UserID, "cross-owner leakage")
	}
}

func TestImagesListByOwnerEmpty(t *testing.T) {
	images := NewImages(newTestDB(t))

	list, err := images.ListByOwner(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestImagesGetByIDForOwnerNotFoundShape(t *testing.T) {
	images := NewImages(newTestDB(t))
	ctx := context.Background()

	owned := testImage("owner-a")
	require.NoError(t, images.Create(ctx, owned))

	// a nonexistent id and another owner's id must be indistinguishable
	_, errMissing := images.GetByIDForOwner(ctx, "owner-b", uuid.NewString())
	_, errForeign := images.GetByIDForOwner(ctx, "owner-b", owned.ID)

	require.ErrorIs(t, errMissing, ErrNotFound)
	require.ErrorIs(t, errForeign, ErrNotFound)
	assert.Equal(t, errMissing, errForeign)
}
