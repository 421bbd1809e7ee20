package image

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/tanishqkrk-asymmetri/bookleaf-mvp-sub000/internal/config"
)

var (
	ErrInvalidImage  = errors.New("invalid image data")
	ErrNotConfigured = errors.New("image backend is not configured")
)

// maxUploadBytes bounds a decoded upload.
const maxUploadBytes = 15 << 20

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type s3Uploader struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Uploader builds an uploader for AWS S3 or any S3-compatible endpoint.
func NewS3Uploader(cfg config.S3RuntimeConfig) Uploader {
	client := s3.NewFromConfig(aws.Config{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(strings.TrimRight(cfg.Endpoint, "/"))
		}
		o.UsePathStyle = cfg.PathStyle
	})
	return &s3Uploader{client: client, bucket: cfg.Bucket, publicURL: publicBaseURL(cfg)}
}

func (u *s3Uploader) Upload(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return u.publicURL + "/" + key, nil
}

func publicBaseURL(cfg config.S3RuntimeConfig) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}

// Decoded is an upload payload after decoding.
type Decoded struct {
	Body        []byte
	ContentType string
	Ext         string
}

// Decode accepts a data URL, raw SVG markup or bare base64 and returns the
// image bytes. Anything that does not sniff as an image is rejected.
func Decode(data string) (Decoded, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Decoded{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}

	if isSVG(data) {
		return Decoded{Body: []byte(data), ContentType: "image/svg+xml", Ext: "svg"}, nil
	}

	declared := ""
	if strings.HasPrefix(data, "data:") {
		meta, payload, ok := strings.Cut(data[len("data:"):], ",")
		if !ok || !strings.HasSuffix(meta, ";base64") {
			return Decoded{}, fmt.Errorf("%w: only base64 data URLs are supported", ErrInvalidImage)
		}
		declared = strings.TrimSuffix(meta, ";base64")
		data = payload
	}

	if base64.StdEncoding.DecodedLen(len(data)) > maxUploadBytes {
		return Decoded{}, fmt.Errorf("%w: larger than %d bytes", ErrInvalidImage, maxUploadBytes)
	}
	body, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Decoded{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if declared == "image/svg+xml" && isSVG(string(body)) {
		return Decoded{Body: body, ContentType: declared, Ext: "svg"}, nil
	}

	ct := http.DetectContentType(body)
	ext, ok := imageExt[ct]
	if !ok {
		return Decoded{}, fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, ct)
	}
	return Decoded{Body: body, ContentType: ct, Ext: ext}, nil
}

var imageExt = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/bmp":  "bmp",
}

func isSVG(s string) bool {
	head := strings.ToLower(strings.TrimSpace(s))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<svg") || (strings.HasPrefix(head, "<?xml") && strings.Contains(head, "<svg"))
}

// ObjectKey builds prefix/YYYY/MM/<md5-16>-<uuid>-<name>.<ext>.
func ObjectKey(prefix, filename, ext string, payload []byte, now time.Time) string {
	name := strings.TrimSpace(filepath.Base(strings.TrimSpace(filename)))
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = sanitizeName(name)

	sum := md5.Sum(payload)
	md5Hex := hex.EncodeToString(sum[:])
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]

	file := md5Hex[:16] + "-" + id
	if name != "" {
		file += "-" + name
	}
	return path.Join(strings.Trim(prefix, "/"), now.Format("2006"), now.Format("01"), file+"."+ext)
}

func sanitizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteByte('-')
		}
		if b.Len() >= 48 {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
