package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/vibelens/internal/core/domain"
)

var mimeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// StoreImage saves the upload and returns its reference, images/<user>/<uuid><ext>.
func (a *Adapter) StoreImage(ctx context.Context, img domain.ImageUpload) (string, error) {
	if img.UserID == "" || strings.Contains(img.UserID, "/") {
		return "", fmt.Errorf("store image: invalid user id %q: %w", img.UserID, domain.ErrInvalidInput)
	}
	if len(img.Data) == 0 {
		return "", fmt.Errorf("store image: empty image: %w", domain.ErrInvalidInput)
	}

	id := uuid.NewString()
	ref := domain.NewImageRef(img.UserID, id, imageExtension(img))

	_, err := a.db.ExecContext(ctx, `
		INSERT INTO images (id, user_id, path, mime_type, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, img.UserID, ref, img.MIMEType, img.Data, a.now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return ref, nil
}

// LoadImage returns the bytes stored under ref.
func (a *Adapter) LoadImage(ctx context.Context, ref string) (domain.ImageInput, error) {
	row := a.db.QueryRowContext(ctx, "SELECT mime_type, data FROM images WHERE path = ?", ref)

	img := domain.ImageInput{Reference: ref}
	if err := row.Scan(&img.MIMEType, &img.Data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ImageInput{}, domain.ErrNotFound
		}
		return domain.ImageInput{}, fmt.Errorf("failed to load image: %w", err)
	}
	return img, nil
}

func imageExtension(img domain.ImageUpload) string {
	if ext, ok := mimeExtensions[img.MIMEType]; ok {
		return ext
	}
	return strings.ToLower(filepath.Ext(img.Filename))
}
