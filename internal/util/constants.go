package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 文件上传相关常量
const (
	MimeVideo = "video/"
	MimeImage = "image/"

	MaxAvatarSize = 5 << 20
	MaxVideoSize  = 2 << 30
)

const (
	ForumReplyPageSize  = 50
	ForumThreadPageSize = 20
)

var (
	AllowedVideoExtensions = []string{".mp4", ".mov", ".mkv", ".webm"}
	AllowedImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
)
