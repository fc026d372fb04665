// Package imaging renders guardian photos: a centered 3:4 crop scaled to 300x400 and encoded as JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	// Decoders for the formats browsers commonly upload
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	regapp "github.com/familyreg/backend/internal/application/registration"
	"github.com/familyreg/backend/internal/domain/registration"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

// maxPixels bounds decoded dimensions so a small file cannot expand into a huge raster
const maxPixels = 40_000_000

// Cropper implements PhotoCropper with x/image scalers
type Cropper struct {
	scaler  draw.Scaler
	quality int
	logger  *zap.Logger
}

// Option configures a Cropper
type Option func(*Cropper)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cropper) {
		c.logger = logger
	}
}

// WithScaler replaces the default Catmull-Rom interpolator
func WithScaler(s draw.Scaler) Option {
	return func(c *Cropper) {
		c.scaler = s
	}
}

// NewCropper creates a cropper producing PhotoWidth x PhotoHeight JPEGs at PhotoJPEGQuality
func NewCropper(opts ...Option) *Cropper {
	c := &Cropper{
		scaler:  draw.CatmullRom,
		quality: registration.PhotoJPEGQuality,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Inspect reads only the image header
func (c *Cropper) Inspect(data []byte) (regapp.ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return regapp.ImageInfo{}, fmt.Errorf("failed to read image header: %w", registration.ErrInvalidPhotoType)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels ||
		registration.ComputeCropRegion(cfg.Width, cfg.Height).Empty() {
		return regapp.ImageInfo{}, fmt.Errorf("unsupported image dimensions %dx%d: %w", cfg.Width, cfg.Height, registration.ErrInvalidPhotoType)
	}
	return regapp.ImageInfo{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Crop decodes data, takes the largest centered 3:4 region and scales it to the output size
func (c *Cropper) Crop(data []byte) (registration.CroppedPhoto, error) {
	info, err := c.Inspect(data)
	if err != nil {
		return registration.CroppedPhoto{}, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return registration.CroppedPhoto{}, fmt.Errorf("failed to decode image: %w", registration.ErrInvalidPhotoType)
	}

	b := src.Bounds()
	region := registration.ComputeCropRegion(b.Dx(), b.Dy())
	if region.Empty() {
		return registration.CroppedPhoto{}, fmt.Errorf("no 3:4 region in %dx%d image: %w", b.Dx(), b.Dy(), registration.ErrInvalidPhotoType)
	}
	srcRect := image.Rect(
		b.Min.X+region.X,
		b.Min.Y+region.Y,
		b.Min.X+region.X+region.Width,
		b.Min.Y+region.Y+region.Height,
	)

	dst := image.NewRGBA(image.Rect(0, 0, registration.PhotoWidth, registration.PhotoHeight))
	c.scaler.Scale(dst, dst.Bounds(), src, srcRect, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: c.quality}); err != nil {
		return registration.CroppedPhoto{}, fmt.Errorf("failed to encode photo: %w", err)
	}

	c.logger.Debug("photo cropped",
		zap.String("format", info.Format),
		zap.Int("source_width", info.Width),
		zap.Int("source_height", info.Height),
		zap.Int("crop_x", region.X),
		zap.Int("crop_y", region.Y),
		zap.Int("crop_width", region.Width),
		zap.Int("crop_height", region.Height),
		zap.Int("bytes", buf.Len()),
	)

	return registration.CroppedPhoto{
		Data:        buf.Bytes(),
		ContentType: registration.PhotoContentType,
		Width:       registration.PhotoWidth,
		Height:      registration.PhotoHeight,
	}, nil
}

var _ regapp.PhotoCropper = (*Cropper)(nil)
