// Package avatar stores profile pictures on local disk or in an S3 bucket.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxSize is the largest accepted upload.
const MaxSize = 5 << 20

// ErrUnsupportedFormat is returned for files that are not jpg, jpeg or png.
var ErrUnsupportedFormat = errors.New("unsupported file format (only .jpg, .jpeg, .png)")

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Store persists avatar images and returns the URL clients load them from.
type Store interface {
	Save(ctx context.Context, userID int64, ext string, body io.Reader, size int64) (string, error)
	// Delete removes a previously saved avatar. URLs the store does not own are ignored.
	Delete(ctx context.Context, url string) error
}

// Extension validates the uploaded file name and returns its lowercased extension.
func Extension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := contentTypes[ext]; !ok {
		return "", ErrUnsupportedFormat
	}
	return ext, nil
}

func objectName(userID int64, ext string) string {
	return fmt.Sprintf("IMG-%d-%s%s", userID, uuid.NewString(), ext)
}
