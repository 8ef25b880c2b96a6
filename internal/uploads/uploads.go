// Package uploads stores listing images in Cloudinary and returns their
// public URLs.
package uploads

import (
	"context"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"marketplace-service/internal/config"
)

// Uploader abstracts blob storage for handlers and tests.
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, adID string) (UploadedImage, error)
	Remove(ctx context.Context, publicID string) error
}

// UploadedImage is the stored blob's address.
type UploadedImage struct {
	URL      string `json:"url"`
	PublicID string `json:"public_id"`
}

// CloudinaryUploader is the production Uploader.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryUploader builds an uploader from credentials.
func NewCloudinaryUploader(cfg config.CloudinaryConfig) (*CloudinaryUploader, error) {
	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &CloudinaryUploader{client: client, folder: cfg.UploadFolder}, nil
}

// Upload stores the file under the ad's folder and returns its URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader, adID string) (UploadedImage, error) {
	publicID := fmt.Sprintf("%s/%s/%s", u.folder, adID, uuid.NewString())
	res, err := u.client.Upload.Upload(ctx, file, uploader.UploadParams{PublicID: publicID})
	if err != nil {
		return UploadedImage{}, fmt.Errorf("upload image: %w", err)
	}
	return UploadedImage{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Remove deletes a stored blob; callers treat failures as best-effort.
func (u *CloudinaryUploader) Remove(ctx context.Context, publicID string) error {
	_, err := u.client.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	return err
}
