package service

import (
	"codenest_backend/internal/config"
	"codenest_backend/internal/util"
	"codenest_backend/pkg/logger"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ObjectStore 头像、课时视频、封面图的存储后端
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	PutFile(ctx context.Context, key, localPath, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	URL(key string) string
}

// LocalObjectStore 写入本地目录，由 /uploads 静态路由对外提供
type LocalObjectStore struct {
	Root string
}

func (s *LocalObjectStore) target(key string) (string, error) {
	dst := filepath.Join(s.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", err
	}
	return dst, nil
}

func (s *LocalObjectStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	dst, err := s.target(key)
	if err != nil {
		return "", err
	}
	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return s.URL(key), nil
}

func (s *LocalObjectStore) PutFile(ctx context.Context, key, localPath, contentType string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", err
	}
	defer src.Close()
	return s.Put(ctx, key, src, -1, contentType)
}

func (s *LocalObjectStore) Remove(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LocalObjectStore) URL(key string) string {
	return "/uploads/" + key
}

type MinioObjectStore struct {
	Bucket string
	Client *minio.Client
}

func NewMinioObjectStore(cfg *config.StorageConfig) (*MinioObjectStore, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}
	return &MinioObjectStore{Bucket: cfg.MinioBucket, Client: client}, nil
}

func (s *MinioObjectStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := s.Client.PutObject(ctx, s.Bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return s.URL(key), nil
}

func (s *MinioObjectStore) PutFile(ctx context.Context, key, localPath, contentType string) (string, error) {
	_, err := s.Client.FPutObject(ctx, s.Bucket, key, localPath, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return s.URL(key), nil
}

func (s *MinioObjectStore) Remove(ctx context.Context, key string) error {
	return s.Client.RemoveObject(ctx, s.Bucket, key, minio.RemoveObjectOptions{})
}

func (s *MinioObjectStore) URL(key string) string {
	return "/" + s.Bucket + "/" + key
}

type OSSObjectStore struct {
	Endpoint string
	Bucket   *oss.Bucket
}

func NewOSSObjectStore(cfg *config.StorageConfig) (*OSSObjectStore, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := client.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, err
	}
	return &OSSObjectStore{Endpoint: cfg.OSSEndpoint, Bucket: bucket}, nil
}

func (s *OSSObjectStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	if err := s.Bucket.PutObject(key, reader, oss.ContentType(contentType)); err != nil {
		return "", err
	}
	return s.URL(key), nil
}

func (s *OSSObjectStore) PutFile(ctx context.Context, key, localPath, contentType string) (string, error) {
	if err := s.Bucket.PutObjectFromFile(key, localPath, oss.ContentType(contentType)); err != nil {
		return "", err
	}
	return s.URL(key), nil
}

func (s *OSSObjectStore) Remove(ctx context.Context, key string) error {
	return s.Bucket.DeleteObject(key)
}

func (s *OSSObjectStore) URL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", s.Bucket.BucketName, s.Endpoint, key)
}

type StorageService struct {
	Store ObjectStore
}

// NewStorageService 远端存储初始化失败时退回本地目录
func NewStorageService(cfg *config.StorageConfig) *StorageService {
	var (
		store ObjectStore
		err   error
	)
	switch cfg.Type {
	case util.StorageMinio:
		store, err = NewMinioObjectStore(cfg)
	case util.StorageOSS:
		store, err = NewOSSObjectStore(cfg)
	}
	if err != nil {
		logger.Log.Warn("Object storage unavailable, falling back to local disk",
			zap.String("type", cfg.Type),
			zap.Error(err),
		)
		store = nil
	}
	if store == nil {
		store = &LocalObjectStore{Root: cfg.LocalPath}
	}
	return &StorageService{Store: store}
}

// ObjectKey 生成 prefix/<uuid><ext> 形式的对象名
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join(prefix, uuid.NewString()+ext)
}

func (s *StorageService) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error) {
	return s.Store.Put(ctx, key, reader, size, contentType)
}

func (s *StorageService) PutFile(ctx context.Context, key, localPath, contentType string) (string, error) {
	return s.Store.PutFile(ctx, key, localPath, contentType)
}

func (s *StorageService) Remove(ctx context.Context, key string) error {
	return s.Store.Remove(ctx, key)
}
