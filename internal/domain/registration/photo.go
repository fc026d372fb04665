package registration

import (
	"mime"
	"strings"
)

const (
	// MaxPhotoBytes is the largest accepted upload (5MB)
	MaxPhotoBytes = 5 * 1024 * 1024
	// PhotoWidth and PhotoHeight are the fixed output dimensions of a cropped photo
	PhotoWidth  = 300
	PhotoHeight = 400
	// PhotoJPEGQuality is the encoder quality on a 1-100 scale (0.8)
	PhotoJPEGQuality = 80
	// PhotoContentType is the content type of every cropped photo
	PhotoContentType = "image/jpeg"

	aspectWidth  = 3
	aspectHeight = 4
)

// ValidatePhotoUpload rejects non-image content types and files over MaxPhotoBytes
func ValidatePhotoUpload(contentType string, size int64) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "image/") {
		return ErrInvalidPhotoType
	}
	if size <= 0 {
		return ErrInvalidPhotoType
	}
	if size > MaxPhotoBytes {
		return ErrPhotoTooLarge
	}
	return nil
}

// CropRegion is a rectangle within the source image
type CropRegion struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ComputeCropRegion returns the largest centered 3:4 region that fits in a srcW x srcH image.
// An 800x600 source yields {X:175 Y:0 Width:450 Height:600}.
func ComputeCropRegion(srcW, srcH int) CropRegion {
	if srcW <= 0 || srcH <= 0 {
		return CropRegion{}
	}
	cropW := srcW
	cropH := srcW * aspectHeight / aspectWidth
	if cropH > srcH {
		cropH = srcH
		cropW = srcH * aspectWidth / aspectHeight
	}
	return CropRegion{
		X:      (srcW - cropW) / 2,
		Y:      (srcH - cropH) / 2,
		Width:  cropW,
		Height: cropH,
	}
}

// Empty reports a region with no pixels, as very wide one-pixel-tall sources produce
func (r CropRegion) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// PhotoPreview is an uploaded image waiting for crop confirmation
type PhotoPreview struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// CroppedPhoto is the committed 300x400 JPEG
type CroppedPhoto struct {
	Data        []byte `json:"data"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// UploadedPhoto records where a cropped photo was stored
type UploadedPhoto struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func (p *CroppedPhoto) clone() *CroppedPhoto {
	if p == nil {
		return nil
	}
	c := *p
	c.Data = append([]byte(nil), p.Data...)
	return &c
}
