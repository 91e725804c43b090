package exif

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"

	"picture-catalog/internal/domain"
)

// Extractor reads camera metadata with goexif. A binary without EXIF is an
// error the caller is expected to treat as "no data".
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(r io.ReadSeeker) (*domain.ExifData, error) {
	x, err := goexif.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode exif: %w", err)
	}

	data := &domain.ExifData{
		Model: camera(x),
	}

	if num, den, ok := rational(x, goexif.FNumber); ok {
		aperture := FormatAperture(num, den)
		data.Aperture = &aperture
	}
	if tag, err := x.Get(goexif.ISOSpeedRatings); err == nil {
		if iso, err := tag.Int(0); err == nil && iso > 0 {
			data.ISO = &iso
		}
	}
	if num, den, ok := rational(x, goexif.ExposureTime); ok {
		exposure := FormatExposure(num, den)
		data.Exposure = &exposure
	}
	if num, den, ok := rational(x, goexif.FocalLength); ok {
		focal := float64(num) / float64(den)
		data.FocalLength = &focal
	}

	data.Width = positiveInt(x, goexif.PixelXDimension)
	data.Height = positiveInt(x, goexif.PixelYDimension)
	if data.Width == nil || data.Height == nil {
		// exif dimensions are often missing on edited files, ask the decoder.
		if _, err := r.Seek(0, io.SeekStart); err == nil {
			if cfg, _, err := image.DecodeConfig(r); err == nil {
				data.Width = &cfg.Width
				data.Height = &cfg.Height
			}
		}
	}

	return data, nil
}

func camera(x *goexif.Exif) *string {
	var parts []string
	for _, field := range []goexif.FieldName{goexif.Make, goexif.Model} {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		s, err := tag.StringVal()
		if err != nil {
			continue
		}
		s = strings.TrimSpace(strings.TrimRight(s, "\x00"))
		if s == "" {
			continue
		}
		//most cameras repeat the make inside the model.
		if len(parts) > 0 && strings.HasPrefix(strings.ToLower(s), strings.ToLower(parts[0])) {
			parts = parts[:0]
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return nil
	}
	model := strings.Join(parts, " ")
	return &model
}

func rational(x *goexif.Exif, field goexif.FieldName) (int64, int64, bool) {
	tag, err := x.Get(field)
	if err != nil {
		return 0, 0, false
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 || num <= 0 {
		return 0, 0, false
	}
	return num, den, true
}

func positiveInt(x *goexif.Exif, field goexif.FieldName) *int {
	tag, err := x.Get(field)
	if err != nil {
		return nil
	}
	v, err := tag.Int(0)
	if err != nil || v <= 0 {
		return nil
	}
	return &v
}

// FormatAperture renders an f-number the way cameras print it, e.g. "f/2.8".
func FormatAperture(num, den int64) string {
	return "f/" + strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64)
}

// FormatExposure renders sub-second exposures as a reduced fraction ("1/250")
// and longer ones in seconds ("2.5").
func FormatExposure(num, den int64) string {
	if num >= den {
		return strconv.FormatFloat(float64(num)/float64(den), 'f', -1, 64)
	}
	g := gcd(num, den)
	return fmt.Sprintf("%d/%d", num/g, den/g)
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
