package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Backblaze/blazer/b2"
	"github.com/plastinin/geo2topo/internal/config"
)

// b2Bucket операции над объектами бакета, которые использует B2Storage
type b2Bucket interface {
	put(ctx context.Context, name, contentType string, reader io.Reader) error
	get(ctx context.Context, name string) (io.ReadCloser, error)
	remove(ctx context.Context, name string) error
	authURL(ctx context.Context, name string, valid time.Duration) (string, error)
}

// B2Storage реализация файлового хранилища на базе Backblaze B2
type B2Storage struct {
	bucket    b2Bucket
	prefix    string
	urlExpiry time.Duration
}

// NewB2Storage создаёт новый экземпляр B2Storage
func NewB2Storage(ctx context.Context, cfg config.B2Config, urlExpiry time.Duration) (*B2Storage, error) {
	client, err := b2.NewClient(ctx, cfg.KeyID, cfg.ApplicationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create b2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to open bucket: %w", err)
	}

	return newB2Storage(&blazerBucket{bucket: bucket}, cfg.Prefix, urlExpiry), nil
}

func newB2Storage(bucket b2Bucket, prefix string, urlExpiry time.Duration) *B2Storage {
	return &B2Storage{
		bucket:    bucket,
		prefix:    prefix,
		urlExpiry: urlExpiry,
	}
}

// Upload загружает файл в B2 под ключом key
func (s *B2Storage) Upload(ctx context.Context, key string, contentType string, reader io.Reader, _ int64) error {
	if err := s.bucket.put(ctx, s.prefix+key, contentType, reader); err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

// Download скачивает файл из B2
func (s *B2Storage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := s.bucket.get(ctx, s.prefix+key)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return rc, nil
}

// Delete удаляет файл из B2
func (s *B2Storage) Delete(ctx context.Context, key string) error {
	if err := s.bucket.remove(ctx, s.prefix+key); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// GetURL возвращает ссылку с токеном авторизации для доступа к файлу
func (s *B2Storage) GetURL(ctx context.Context, key string) (string, error) {
	url, err := s.bucket.authURL(ctx, s.prefix+key, s.urlExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate authorized URL: %w", err)
	}
	return url, nil
}

type blazerBucket struct {
	bucket *b2.Bucket
}

func (b *blazerBucket) put(ctx context.Context, name, contentType string, reader io.Reader) error {
	w := b.bucket.Object(name).NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType}))
	if _, err := io.Copy(w, reader); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func (b *blazerBucket) get(ctx context.Context, name string) (io.ReadCloser, error) {
	obj := b.bucket.Object(name)

	// Проверяем, что объект существует
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return nil, fmt.Errorf("get attributes for object: %w", err)
	}
	if attrs.Status != b2.Uploaded {
		return nil, fmt.Errorf("object %s is not uploaded", name)
	}

	return obj.NewReader(ctx), nil
}

func (b *blazerBucket) remove(ctx context.Context, name string) error {
	return b.bucket.Object(name).Delete(ctx)
}

func (b *blazerBucket) authURL(ctx context.Context, name string, valid time.Duration) (string, error) {
	u, err := b.bucket.Object(name).AuthURL(ctx, valid, "")
	if err != nil {
		return "", err
	}
	return u.String(), nil
}
