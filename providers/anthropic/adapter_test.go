package anthropic

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmpipeline "github.com/haowjy/llm-pipelines-go"
)

func testConfig() llmpipeline.Config {
	return llmpipeline.Config{APIKey: "test-key"}.WithDefaults()
}

// dataURI builds a base64 data URI whose decoded payload is n bytes.
func dataURI(mediaType string, n int) string {
	payload := base64.StdEncoding.EncodeToString(make([]byte, n))
	return fmt.Sprintf("data:%s;base64,%s", mediaType, payload)
}

func TestNormalizeContentPlainString(t *testing.T) {
	norm := newNormalizer(testConfig())

	blocks, err := norm.normalizeContent(llmpipeline.TextContent("hello"))
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockTypeText, blocks[0].Type)
	assert.Equal(t, "hello", blocks[0].Text)
}

func TestNormalizeContentList(t *testing.T) {
	norm := newNormalizer(testConfig())

	content := llmpipeline.ListContent(
		llmpipeline.ContentItem{Type: llmpipeline.ItemTypeText, Text: "what is this?"},
		llmpipeline.ContentItem{
			Type:     llmpipeline.ItemTypeImageURL,
			ImageURL: &llmpipeline.ImageRef{URL: "https://example.com/cat.png"},
		},
	)

	blocks, err := norm.normalizeContent(content)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, BlockTypeText, blocks[0].Type)
	assert.Equal(t, "what is this?", blocks[0].Text)

	assert.Equal(t, BlockTypeImage, blocks[1].Type)
	require.NotNil(t, blocks[1].Source)
	assert.Equal(t, SourceTypeURL, blocks[1].Source.Type)
	assert.Equal(t, "https://example.com/cat.png", blocks[1].Source.URL)
}

func TestNormalizeContentDropsUnknownItemKinds(t *testing.T) {
	norm := newNormalizer(testConfig())

	content := llmpipeline.ListContent(
		llmpipeline.ContentItem{Type: "audio", Text: "ignored"},
		llmpipeline.ContentItem{Type: llmpipeline.ItemTypeText, Text: "kept"},
	)

	blocks, err := norm.normalizeContent(content)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "kept", blocks[0].Text)
}

func TestConvertImageDataURI(t *testing.T) {
	norm := newNormalizer(testConfig())

	uri := dataURI("image/png", 12)
	block, err := norm.convertImage(&llmpipeline.ImageRef{URL: uri})
	require.NoError(t, err)

	assert.Equal(t, BlockTypeImage, block.Type)
	require.NotNil(t, block.Source)
	assert.Equal(t, SourceTypeBase64, block.Source.Type)
	assert.Equal(t, "image/png", block.Source.MediaType)
	assert.Equal(t, strings.TrimPrefix(uri, "data:image/png;base64,"), block.Source.Data)
	assert.Empty(t, block.Source.URL)
}

func TestConvertImageNilRef(t *testing.T) {
	norm := newNormalizer(testConfig())

	_, err := norm.convertImage(nil)
	require.Error(t, err)
	assert.True(t, llmpipeline.IsValidationError(err))
}

func TestConvertImageMalformedDataURI(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"no payload separator", "data:image/png;base64"},
		{"no media type", "data:image;base64"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			norm := newNormalizer(testConfig())
			_, err := norm.convertImage(&llmpipeline.ImageRef{URL: tt.url})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid image data")
		})
	}
}

func TestImageCountLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxImages = 2
	norm := newNormalizer(cfg)

	ref := &llmpipeline.ImageRef{URL: "https://example.com/a.png"}

	// The limit itself is fine.
	for i := 0; i < 2; i++ {
		_, err := norm.convertImage(ref)
		require.NoError(t, err)
	}

	// The limit is checked before converting image N+1, so the third
	// image fails even though it was never decoded.
	_, err := norm.convertImage(ref)
	require.Error(t, err)
	assert.True(t, llmpipeline.IsValidationError(err))
	assert.Contains(t, err.Error(), "maximum of 2 images per API call exceeded")
}

func TestImageSizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxImageSizeMB = 1

	// The size estimate works from the base64 length, so padding rounds
	// the last block up to a full 3 bytes: a payload one byte short of
	// the ceiling estimates at 1048575, a full-1MB payload at 1048578.
	t.Run("estimate at the ceiling succeeds", func(t *testing.T) {
		norm := newNormalizer(cfg)
		_, err := norm.convertImage(&llmpipeline.ImageRef{URL: dataURI("image/png", 1024*1024-1)})
		assert.NoError(t, err)
	})

	t.Run("estimate over the ceiling fails", func(t *testing.T) {
		norm := newNormalizer(cfg)
		_, err := norm.convertImage(&llmpipeline.ImageRef{URL: dataURI("image/png", 1024*1024)})
		require.Error(t, err)
		assert.True(t, llmpipeline.IsValidationError(err))
		assert.Contains(t, err.Error(), "total size of images exceeds 1MB limit")
	})

	t.Run("size accumulates across images", func(t *testing.T) {
		norm := newNormalizer(cfg)
		_, err := norm.convertImage(&llmpipeline.ImageRef{URL: dataURI("image/png", 600*1024)})
		require.NoError(t, err)
		_, err = norm.convertImage(&llmpipeline.ImageRef{URL: dataURI("image/png", 600*1024)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds 1MB limit")
	})

	t.Run("url images do not count toward size", func(t *testing.T) {
		norm := newNormalizer(cfg)
		for i := 0; i < 3; i++ {
			_, err := norm.convertImage(&llmpipeline.ImageRef{URL: "https://example.com/big.png"})
			require.NoError(t, err)
		}
	})
}

func TestSplitDataURI(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		mediaType string
		data      string
		wantErr   bool
	}{
		{
			name:      "base64 png",
			uri:       "data:image/png;base64,iVBORw0KGgo=",
			mediaType: "image/png",
			data:      "iVBORw0KGgo=",
		},
		{
			name:      "no encoding parameter",
			uri:       "data:image/jpeg,rawdata",
			mediaType: "image/jpeg",
			data:      "rawdata",
		},
		{
			name:    "missing separator",
			uri:     "data:image/png;base64",
			wantErr: true,
		},
		{
			name:    "missing media type",
			uri:     "data:;base64,AAAA",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mediaType, data, err := splitDataURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.mediaType, mediaType)
			assert.Equal(t, tt.data, data)
		})
	}
}

func TestDecodedSize(t *testing.T) {
	// decodedSize estimates from the base64 length alone; padded
	// encodings round up to the ceiling.
	tests := []struct {
		payload int
	}{
		{0}, {1}, {2}, {3}, {4}, {100}, {1024},
	}

	for _, tt := range tests {
		encoded := base64.StdEncoding.EncodeToString(make([]byte, tt.payload))
		got := decodedSize(encoded)
		assert.GreaterOrEqual(t, got, int64(tt.payload))
		assert.LessOrEqual(t, got, int64(tt.payload)+2)
	}
}
