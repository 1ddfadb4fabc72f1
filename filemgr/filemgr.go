package filemgr

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
)

// Upload subdirectories under static/uploads.
const (
	DirScreenshots = "screenshots"
	DirListings    = "listingpic"
)

var SupportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

func IsSupportedImage(header *multipart.FileHeader) bool {
	return SupportedImageTypes[header.Header.Get("Content-Type")]
}

// SaveUploadedImage writes the upload under static/uploads/<dir> and returns
// the public URL path. The returned value is treated as an opaque string by
// callers storing it on documents.
func SaveUploadedImage(file multipart.File, header *multipart.FileHeader, dir string) (string, error) {
	ext := filepath.Ext(header.Filename)
	filename := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	dstPath := filepath.Join("static", "uploads", dir, filename)

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return "", err
	}
	out, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err = io.Copy(out, file); err != nil {
		return "", err
	}
	return "/uploads/" + dir + "/" + filename, nil
}

// SaveThumbnail renders a 320px-wide thumbnail next to the original and
// returns its URL path. Failures are the caller's to ignore; the original
// upload already succeeded.
func SaveThumbnail(urlPath string) (string, error) {
	rel := filepath.Join("static", filepath.FromSlash(urlPath))
	img, err := imaging.Open(rel)
	if err != nil {
		return "", err
	}

	thumb := imaging.Resize(img, 320, 0, imaging.Lanczos)
	ext := filepath.Ext(rel)
	thumbPath := rel[:len(rel)-len(ext)] + "_thumb.jpg"
	if err := imaging.Save(thumb, thumbPath); err != nil {
		return "", err
	}

	thumbURL := urlPath[:len(urlPath)-len(ext)] + "_thumb.jpg"
	return thumbURL, nil
}
