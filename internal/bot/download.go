package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/raine/copywriter-bot/internal/content"
)

const photoFetchTimeout = 30 * time.Second

// ErrImageTooLarge is returned when a photo is over the upload limit.
var ErrImageTooLarge = errors.New("image too large")

// photoFetcher pulls user photos from Telegram's file storage.
type photoFetcher struct {
	client *resty.Client
	limit  int64
}

func newPhotoFetcher(limit int64) *photoFetcher {
	return &photoFetcher{
		client: resty.New().SetTimeout(photoFetchTimeout),
		limit:  limit,
	}
}

// acceptedContentType reports whether a download may be an image. Telegram
// serves some photos as application/octet-stream; the bytes are sniffed
// afterwards either way.
func acceptedContentType(ct string) bool {
	return ct == "" || strings.HasPrefix(ct, "image/") || strings.HasPrefix(ct, "application/octet-stream")
}

// Fetch downloads url, refusing anything over the limit whether or not the
// server announced its length.
func (f *photoFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := f.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	body := res.RawBody()
	defer body.Close()

	switch {
	case res.IsError():
		return nil, fmt.Errorf("download photo: status %d", res.StatusCode())
	case !acceptedContentType(res.Header().Get("Content-Type")):
		return nil, fmt.Errorf("%w: content type %q is not an image", content.ErrValidation, res.Header().Get("Content-Type"))
	case res.RawResponse.ContentLength > f.limit:
		return nil, fmt.Errorf("%w: announced %d bytes, limit is %d", ErrImageTooLarge, res.RawResponse.ContentLength, f.limit)
	}

	data, err := io.ReadAll(io.LimitReader(body, f.limit+1))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if int64(len(data)) > f.limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrImageTooLarge, f.limit)
	}
	return data, nil
}

// FetchTelegramPhoto resolves fileID to a download URL and returns the photo
// as an uploaded image whose preview reference is the file id.
func (f *photoFetcher) FetchTelegramPhoto(ctx context.Context, resolve func(fileID string) (string, error), fileID string) (*content.UploadedImage, error) {
	url, err := resolve(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve telegram file %s: %w", fileID, err)
	}
	log.Debug().Str("fileID", fileID).Msg("fetching telegram photo")

	data, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return content.NewUploadedImage(data, fileID)
}
