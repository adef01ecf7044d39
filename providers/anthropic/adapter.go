package anthropic

import (
	"fmt"
	"strings"

	llmpipeline "github.com/haowjy/llm-pipelines-go"
)

const dataURIPrefix = "data:image"

// normalizer converts host content into wire content blocks while
// enforcing the per-call image budget. One normalizer covers one call:
// both the image count and the cumulative decoded size accumulate
// across every turn of the call.
type normalizer struct {
	maxImages int
	maxSizeMB int
	maxBytes  int64

	images     int
	imageBytes int64
}

func newNormalizer(cfg llmpipeline.Config) *normalizer {
	return &normalizer{
		maxImages: cfg.MaxImages,
		maxSizeMB: cfg.MaxImageSizeMB,
		maxBytes:  int64(cfg.MaxImageSizeMB) * 1024 * 1024,
	}
}

// normalizeContent converts one turn's content into an ordered sequence
// of wire blocks. Plain-string content becomes a single text block.
// List content maps text items through unchanged and converts image
// items; item kinds other than text and image_url are dropped.
func (n *normalizer) normalizeContent(content llmpipeline.TurnContent) ([]ContentBlock, error) {
	if !content.IsList() {
		return []ContentBlock{NewTextBlock(*content.Plain)}, nil
	}

	blocks := make([]ContentBlock, 0, len(content.Items))
	for _, item := range content.Items {
		switch item.Type {
		case llmpipeline.ItemTypeText:
			blocks = append(blocks, NewTextBlock(item.Text))

		case llmpipeline.ItemTypeImageURL:
			block, err := n.convertImage(item.ImageURL)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
	}
	return blocks, nil
}

// convertImage converts one image reference, checking the count limit
// before conversion and the size ceiling after each base64 payload.
func (n *normalizer) convertImage(ref *llmpipeline.ImageRef) (ContentBlock, error) {
	if ref == nil {
		return ContentBlock{}, &llmpipeline.ValidationError{
			Field:  "image_url",
			Reason: "image item is missing its image_url payload",
			Err:    llmpipeline.ErrInvalidRequest,
		}
	}

	if n.images >= n.maxImages {
		return ContentBlock{}, &llmpipeline.ValidationError{
			Field:  "image_url",
			Value:  n.maxImages,
			Reason: fmt.Sprintf("maximum of %d images per API call exceeded", n.maxImages),
			Err:    llmpipeline.ErrInvalidRequest,
		}
	}

	var block ContentBlock
	if strings.HasPrefix(ref.URL, dataURIPrefix) {
		mediaType, data, err := splitDataURI(ref.URL)
		if err != nil {
			return ContentBlock{}, &llmpipeline.ValidationError{
				Field:  "image_url",
				Value:  ref.URL,
				Reason: "invalid image data",
				Err:    err,
			}
		}
		block = NewBase64ImageBlock(mediaType, data)

		n.imageBytes += decodedSize(data)
		if n.imageBytes > n.maxBytes {
			return ContentBlock{}, &llmpipeline.ValidationError{
				Field:  "image_url",
				Value:  n.maxSizeMB,
				Reason: fmt.Sprintf("total size of images exceeds %dMB limit", n.maxSizeMB),
				Err:    llmpipeline.ErrInvalidRequest,
			}
		}
	} else {
		block = NewURLImageBlock(ref.URL)
	}

	n.images++
	return block, nil
}

// splitDataURI splits "data:image/png;base64,AAAA" into its media type
// and base64 payload.
func splitDataURI(uri string) (mediaType, data string, err error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return "", "", fmt.Errorf("data URI has no payload separator")
	}

	meta := strings.TrimPrefix(header, "data:")
	if i := strings.IndexByte(meta, ';'); i >= 0 {
		meta = meta[:i]
	}
	if meta == "" {
		return "", "", fmt.Errorf("data URI has no media type")
	}

	return meta, payload, nil
}

// decodedSize is the decoded byte count of a base64 payload,
// ceil(len*3/4).
func decodedSize(base64Data string) int64 {
	return (int64(len(base64Data))*3 + 3) / 4
}
