package reader

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"slices"

	"github.com/tsawler/pdfcore/colorspace"
	"github.com/tsawler/pdfcore/core"
	"github.com/tsawler/pdfcore/pages"
)

// PageImage represents an image XObject of a page.
type PageImage struct {
	Name             string // XObject name (e.g., "Im1")
	ObjNum           uint32
	Width            int
	Height           int
	BitsPerComponent int
	ImageMask        bool
	ColorSpace       *colorspace.ColorSpace // nil for stencil masks
	Filter           string                 // last filter in the chain
	Data             []byte                 // decoded up to the first image codec
}

// ExtractPageImages returns the image XObjects named in the page
// resources, ordered by name. Images that cannot be read are skipped.
func (r *Reader) ExtractPageImages(page *pages.Page) ([]PageImage, error) {
	resources := page.Resources()
	xobjects := resources.GetDict("XObject")
	if xobjects == nil {
		return nil, nil
	}

	names := xobjects.Keys()
	slices.Sort(names)

	// Colour spaces stay cached until every image has been read so
	// images sharing one are parsed once.
	var loaded []core.Object
	defer func() {
		for _, obj := range loaded {
			r.doc.ReleaseColorSpace(obj, resources)
		}
	}()

	var images []PageImage
	for _, name := range names {
		stream := xobjects.GetStream(name)
		if stream == nil || stream.Dict.GetName("Subtype") != "Image" {
			continue
		}
		img, err := r.extractImage(name, stream)
		if err != nil {
			continue
		}
		if ref, ok := xobjects.GetReference(name); ok {
			img.ObjNum = ref.Num
		}
		if !img.ImageMask {
			csObj := stream.Dict.Get("ColorSpace")
			if csObj == nil {
				continue
			}
			cs, err := r.doc.LoadColorSpace(csObj, resources)
			if err != nil {
				continue
			}
			if !colorspace.IsStock(cs) {
				loaded = append(loaded, csObj)
			}
			img.ColorSpace = cs
		}
		images = append(images, *img)
	}
	return images, nil
}

// extractImage reads the geometry and payload of an image stream.
func (r *Reader) extractImage(name string, stream *core.Stream) (*PageImage, error) {
	dict := stream.Dict
	width := dict.GetInteger("Width")
	height := dict.GetInteger("Height")
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("image %s has size %dx%d", name, width, height)
	}

	img := &PageImage{
		Name:             name,
		Width:            width,
		Height:           height,
		BitsPerComponent: dict.GetInteger("BitsPerComponent"),
		ImageMask:        dict.GetBool("ImageMask", false),
	}
	if img.ImageMask {
		img.BitsPerComponent = 1
	}
	if img.BitsPerComponent == 0 {
		img.BitsPerComponent = 8
	}

	stages, err := stream.Filters()
	if err != nil {
		return nil, err
	}
	if len(stages) > 0 {
		img.Filter = stages[len(stages)-1].Name
	}
	img.Data, err = stream.Decode(r.doc.Codecs())
	if err != nil {
		return nil, fmt.Errorf("failed to decode image stream: %w", err)
	}
	return img, nil
}

// components returns the number of colour components per pixel
func (img *PageImage) components() int {
	if img.ColorSpace == nil {
		return 1
	}
	return img.ColorSpace.Components
}

// ToImage converts the image to an image.Image. JPEG payloads are decoded
// with image/jpeg; other image codecs are not supported.
func (img *PageImage) ToImage() (image.Image, error) {
	switch img.Filter {
	case "DCTDecode", "DCT":
		decoded, err := jpeg.Decode(bytes.NewReader(img.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode JPEG: %w", err)
		}
		return decoded, nil
	case "JPXDecode", "JBIG2Decode":
		return nil, fmt.Errorf("unsupported image filter %s", img.Filter)
	}

	if img.ColorSpace != nil && img.ColorSpace.Family == colorspace.Indexed {
		return img.toIndexedImage()
	}
	switch img.components() {
	case 1:
		return img.toGrayImage()
	case 3:
		return img.toRGBImage()
	case 4:
		return img.toCMYKImage()
	}
	return nil, fmt.Errorf("unsupported colour space %v", img.ColorSpace.Family)
}

// ToPNG converts the decoded pixel data to PNG format.
func (img *PageImage) ToPNG() ([]byte, error) {
	goImg, err := img.ToImage()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, goImg); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// samples unpacks the decoded rows into one byte per component, scaled
// to 0-255.
func (img *PageImage) samples(comps int) ([]byte, error) {
	bpc := img.BitsPerComponent
	switch bpc {
	case 1, 2, 4, 8:
	default:
		return nil, fmt.Errorf("unsupported bits per component: %d", bpc)
	}
	rowBytes := (img.Width*comps*bpc + 7) / 8
	if len(img.Data) < rowBytes*img.Height {
		return nil, fmt.Errorf("insufficient data: got %d, expected %d", len(img.Data), rowBytes*img.Height)
	}
	if bpc == 8 {
		return img.Data, nil
	}
	out := make([]byte, 0, img.Width*comps*img.Height)
	scale := byte(255 / (1<<bpc - 1))
	mask := byte(1<<bpc - 1)
	for y := 0; y < img.Height; y++ {
		row := img.Data[y*rowBytes : (y+1)*rowBytes]
		for i := 0; i < img.Width*comps; i++ {
			bit := i * bpc
			v := (row[bit/8] >> (8 - bpc - bit%8)) & mask
			out = append(out, v*scale)
		}
	}
	return out, nil
}

// toGrayImage converts grayscale or stencil data to an image.Gray.
func (img *PageImage) toGrayImage() (*image.Gray, error) {
	data, err := img.samples(1)
	if err != nil {
		return nil, err
	}
	goImg := image.NewGray(image.Rect(0, 0, img.Width, img.Height))
	copy(goImg.Pix, data[:img.Width*img.Height])
	return goImg, nil
}

// toRGBImage converts RGB pixel data to an image.RGBA.
func (img *PageImage) toRGBImage() (*image.RGBA, error) {
	data, err := img.samples(3)
	if err != nil {
		return nil, err
	}
	goImg := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		copy(goImg.Pix[i*4:i*4+3], data[i*3:i*3+3])
		goImg.Pix[i*4+3] = 255
	}
	return goImg, nil
}

// toCMYKImage converts CMYK pixel data to an image.RGBA.
func (img *PageImage) toCMYKImage() (*image.RGBA, error) {
	data, err := img.samples(4)
	if err != nil {
		return nil, err
	}
	goImg := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		r, g, b := color.CMYKToRGB(data[i*4], data[i*4+1], data[i*4+2], data[i*4+3])
		goImg.Pix[i*4], goImg.Pix[i*4+1], goImg.Pix[i*4+2], goImg.Pix[i*4+3] = r, g, b, 255
	}
	return goImg, nil
}

// toIndexedImage maps palette indexes through the lookup table.
func (img *PageImage) toIndexedImage() (*image.RGBA, error) {
	cs := img.ColorSpace
	baseComps := cs.Base.Components
	if img.BitsPerComponent != 8 {
		return nil, fmt.Errorf("unsupported bits per component for Indexed: %d", img.BitsPerComponent)
	}
	data, err := img.samples(1)
	if err != nil {
		return nil, err
	}
	goImg := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.Width*img.Height; i++ {
		idx := min(int(data[i]), cs.HiVal) * baseComps
		entry := cs.Lookup[idx : idx+baseComps]
		var r, g, b byte
		switch baseComps {
		case 1:
			r, g, b = entry[0], entry[0], entry[0]
		case 3:
			r, g, b = entry[0], entry[1], entry[2]
		case 4:
			r, g, b = color.CMYKToRGB(entry[0], entry[1], entry[2], entry[3])
		default:
			return nil, fmt.Errorf("unsupported Indexed base with %d components", baseComps)
		}
		goImg.Pix[i*4], goImg.Pix[i*4+1], goImg.Pix[i*4+2], goImg.Pix[i*4+3] = r, g, b, 255
	}
	return goImg, nil
}
