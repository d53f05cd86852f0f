package loaders

import (
	"fmt"
	"image"
	"os"

	_ "image/png"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima/engine/renderer/metadata"
)

type ImageLoader struct{}

// Load decodes a png, bmp or webp file to RGBA. params may be a
// *metadata.ImageResourceParams asking for a resize.
func (il *ImageLoader) Load(path string, params interface{}) (*metadata.Resource, error) {
	var p metadata.ImageResourceParams
	if typedParams, ok := params.(*metadata.ImageResourceParams); ok && typedParams != nil {
		p = *typedParams
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	bounds := src.Bounds()
	if p.Width != 0 && p.Height != 0 {
		bounds = image.Rect(0, 0, int(p.Width), int(p.Height))
	}
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	return &metadata.Resource{
		Type:     metadata.ResourceTypeImage,
		Name:     resourceName(path),
		FullPath: path,
		DataSize: uint64(len(dst.Pix)),
		Data: &metadata.ImageResourceData{
			Width:  uint32(dst.Rect.Dx()),
			Height: uint32(dst.Rect.Dy()),
			Pixels: dst.Pix,
		},
	}, nil
}

func (il *ImageLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	return nil
}
