package service_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"path"
	"strings"
	"testing"

	apperrors "github.com/pageza/recipe-api/backend/internal/errors"
	"github.com/pageza/recipe-api/backend/internal/models"
	"github.com/pageza/recipe-api/backend/internal/service"
	"github.com/pageza/recipe-api/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAttachImageStoresFile(t *testing.T) {
	f := setupRecipeTest(t)
	user := testhelpers.CreateUser(t, f.db, "cook@example.com")
	recipe := testhelpers.CreateRecipe(t, f.db, user.ID, "Cake")

	updated, err := f.images.AttachImage(context.Background(), user.ID, recipe.ID, "Photo.JPG", testhelpers.JPEG(t))
	require.NoError(t, err)
	require.NotNil(t, updated.Image)

	key := *updated.Image
	assert.True(t, strings.HasPrefix(key, "uploads/recipe/"+uintString(recipe.ID)+"/"))
	assert.Equal(t, ".jpg", path.Ext(key))
	assert.True(t, f.store.Exists(key))

	var stored models.Recipe
	require.NoError(t, f.db.First(&stored, recipe.ID).Error)
	require.NotNil(t, stored.Image)
	assert.Equal(t, key, *stored.Image)
	assert.Equal(t, "/media/"+key, f.images.URL(key))
}

func TestAttachImageDerivesExtensionFromFormat(t *testing.T) {
	f := setupRecipeTest(t)
	user := testhelpers.CreateUser(t, f.db, "cook@example.com")
	recipe := testhelpers.CreateRecipe(t, f.db, user.ID, "Cake")

	updated, err := f.images.AttachImage(context.Background(), user.ID, recipe.ID, "upload", testhelpers.PNG(t))
	require.NoError(t, err)
	assert.Equal(t, ".png", path.Ext(*updated.Image))
}

func TestAttachImageRejectsInvalidData(t *testing.T) {
	f := setupRecipeTest(t)
	user := testhelpers.CreateUser(t, f.db, "cook@example.com")
	recipe := testhelpers.CreateRecipe(t, f.db, user.ID, "Cake")
	ctx := context.Background()

	_, err := f.images.AttachImage(ctx, user.ID, recipe.ID, "x.jpg", []byte("notimage"))
	assert.Contains(t, fieldErrors(t, err)["image"], "upload a valid image")

	_, err = f.images.AttachImage(ctx, user.ID, recipe.ID, "x.jpg", nil)
	assert.Contains(t, fieldErrors(t, err), "image")

	truncated := testhelpers.JPEG(t)
	_, err = f.images.AttachImage(ctx, user.ID, recipe.ID, "x.jpg", truncated[:len(truncated)/2])
	assert.Contains(t, fieldErrors(t, err), "image")

	var stored models.Recipe
	require.NoError(t, f.db.First(&stored, recipe.ID).Error)
	assert.Nil(t, stored.Image)
}

func TestAttachImageRespectsSizeLimit(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	store := &mockStore{}
	images := service.NewRecipeImageService(db, store, 10, zaptest.NewLogger(t))
	user := testhelpers.CreateUser(t, db, "cook@example.com")
	recipe := testhelpers.CreateRecipe(t, db, user.ID, "Cake")

	_, err := images.AttachImage(context.Background(), user.ID, recipe.ID, "x.jpg", testhelpers.JPEG(t))
	assert.Contains(t, fieldErrors(t, err)["image"], "maximum size")
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// pngWithDimensions builds a PNG whose IHDR declares width x height RGBA
// pixels but whose image data is empty.
func pngWithDimensions(width, height uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := func(kind string, data []byte) {
		_ = binary.Write(&buf, binary.BigEndian, uint32(len(data)))
		body := append([]byte(kind), data...)
		buf.Write(body)
		_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(body))
	}

	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], width)
	binary.BigEndian.PutUint32(ihdr[4:8], height)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 6 // RGBA
	chunk("IHDR", ihdr)
	chunk("IDAT", nil)
	chunk("IEND", nil)
	return buf.Bytes()
}

func TestAttachImageRejectsOversizedDimensions(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	store := &mockStore{}
	images := service.NewRecipeImageService(db, store, 1<<20, zaptest.NewLogger(t))
	user := testhelpers.CreateUser(t, db, "cook@example.com")
	recipe := testhelpers.CreateRecipe(t, db, user.ID, "Cake")

	bomb := pngWithDimensions(200000, 200000)
	require.Less(t, len(bomb), 100)

	_, err := images.AttachImage(context.Background(), user.ID, recipe.ID, "x.png", bomb)
	assert.Contains(t, fieldErrors(t, err)["image"], "upload a valid image")
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	var stored models.Recipe
	require.NoError(t, db.First(&stored, recipe.ID).Error)
	assert.Nil(t, stored.Image)
}

func TestAttachImageStoreFailure(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	store := &mockStore{}
	store.On("Save", mock.Anything, mock.Anything, mock.Anything, "image/jpeg").Return(errors.New("disk full"))
	images := service.NewRecipeImageService(db, store, 1<<20, zaptest.NewLogger(t))
	user := testhelpers.CreateUser(t, db, "cook@example.com")
	recipe := testhelpers.CreateRecipe(t, db, user.ID, "Cake")

	_, err := images.AttachImage(context.Background(), user.ID, recipe.ID, "x.jpg", testhelpers.JPEG(t))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInternal, apperrors.GetCode(err))
	store.AssertExpectations(t)
}

func TestRemoveImageIsIdempotent(t *testing.T) {
	f := setupRecipeTest(t)
	user := testhelpers.CreateUser(t, f.db, "cook@example.com")
	recipe := testhelpers.CreateRecipe(t, f.db, user.ID, "Cake")
	ctx := context.Background()

	updated, err := f.images.AttachImage(ctx, user.ID, recipe.ID, "x.jpg", testhelpers.JPEG(t))
	require.NoError(t, err)
	key := *updated.Image

	require.NoError(t, f.images.RemoveImage(ctx, updated))
	assert.Nil(t, updated.Image)
	assert.False(t, f.store.Exists(key))

	require.NoError(t, f.images.RemoveImage(ctx, updated))

	// a dangling reference whose file is already gone is cleared too
	require.NoError(t, f.db.Model(recipe).Update("image", key).Error)
	recipe.Image = &key
	require.NoError(t, f.images.RemoveImage(ctx, recipe))

	var stored models.Recipe
	require.NoError(t, f.db.First(&stored, recipe.ID).Error)
	assert.Nil(t, stored.Image)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStore) URL(key string) string {
	return "/media/" + key
}
