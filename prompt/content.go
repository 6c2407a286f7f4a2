package prompt

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/threadline/threadline/llm"
)

// normalizeContent resolves a content template into canonical content blocks.
// A content template is either a plain string or an ordered sequence of
// blocks, where each block is a string (shorthand for a text block) or a
// map with a "type" field mirroring the wire shape providers accept.
//
// Block order is preserved exactly. Image blocks are canonicalized to a
// single shape: a URL, inline data URI, or local file path all end up as an
// ImageBlock with a populated URL. File reads are the one potentially slow
// step; ctx is checked before each read so callers embedding this in an
// event-driven pipeline can cancel between suspension points.
func normalizeContent(ctx context.Context, content any, format TemplateFormat, vars map[string]any) ([]llm.ContentBlock, error) {
	switch c := content.(type) {
	case string:
		text, err := resolveField(c, format, vars)
		if err != nil {
			return nil, err
		}
		return []llm.ContentBlock{{Type: llm.ContentBlockTypeText, Text: text}}, nil
	case []any:
		blocks := make([]llm.ContentBlock, 0, len(c))
		for _, item := range c {
			block, err := normalizeBlock(ctx, item, format, vars)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
		return blocks, nil
	default:
		return nil, &UnsupportedContentError{Detail: fmt.Sprintf("content must be a string or block list, got %T", content)}
	}
}

func normalizeBlock(ctx context.Context, item any, format TemplateFormat, vars map[string]any) (llm.ContentBlock, error) {
	switch b := item.(type) {
	case string:
		text, err := resolveField(b, format, vars)
		if err != nil {
			return llm.ContentBlock{}, err
		}
		return llm.ContentBlock{Type: llm.ContentBlockTypeText, Text: text}, nil
	case map[string]any:
		return normalizeMapBlock(ctx, b, format, vars)
	case llm.ContentBlock:
		// Already-typed blocks still get their string fields resolved.
		return normalizeTypedBlock(b, format, vars)
	default:
		return llm.ContentBlock{}, &UnsupportedContentError{Detail: fmt.Sprintf("block must be a string or map, got %T", item)}
	}
}

func normalizeMapBlock(ctx context.Context, block map[string]any, format TemplateFormat, vars map[string]any) (llm.ContentBlock, error) {
	blockType, ok := block["type"].(string)
	if !ok {
		return llm.ContentBlock{}, &UnsupportedContentError{Detail: "block has no type field"}
	}

	switch llm.ContentBlockType(blockType) {
	case llm.ContentBlockTypeText:
		raw, ok := block["text"].(string)
		if !ok {
			return llm.ContentBlock{}, &UnsupportedContentError{Detail: "text block has no text field"}
		}
		text, err := resolveField(raw, format, vars)
		if err != nil {
			return llm.ContentBlock{}, err
		}
		return llm.ContentBlock{Type: llm.ContentBlockTypeText, Text: text}, nil

	case llm.ContentBlockTypeImageURL:
		return normalizeImageBlock(ctx, block["image_url"], format, vars)

	default:
		// Unknown block types pass through with string fields resolved.
		resolved := make(map[string]any, len(block))
		for key, value := range block {
			if s, ok := value.(string); ok {
				text, err := resolveField(s, format, vars)
				if err != nil {
					return llm.ContentBlock{}, err
				}
				resolved[key] = text
				continue
			}
			resolved[key] = value
		}
		delete(resolved, "type")
		return llm.ContentBlock{Type: llm.ContentBlockType(blockType), Extra: resolved}, nil
	}
}

// normalizeImageBlock canonicalizes the image_url field of an image block.
// Accepted shapes: a bare string (URL or data URI), or a map with "url",
// "detail", or "path" fields. A path is read from disk and inlined as a
// data:image/jpeg;base64 URI.
func normalizeImageBlock(ctx context.Context, spec any, format TemplateFormat, vars map[string]any) (llm.ContentBlock, error) {
	image := &llm.ImageBlock{}

	switch v := spec.(type) {
	case string:
		url, err := resolveField(v, format, vars)
		if err != nil {
			return llm.ContentBlock{}, err
		}
		image.URL = url
	case map[string]any:
		if raw, ok := v["url"].(string); ok {
			url, err := resolveField(raw, format, vars)
			if err != nil {
				return llm.ContentBlock{}, err
			}
			image.URL = url
		}
		if raw, ok := v["detail"].(string); ok {
			detail, err := resolveField(raw, format, vars)
			if err != nil {
				return llm.ContentBlock{}, err
			}
			image.Detail = detail
		}
		if raw, ok := v["path"].(string); ok && image.URL == "" {
			path, err := resolveField(raw, format, vars)
			if err != nil {
				return llm.ContentBlock{}, err
			}
			url, err := inlineImageFile(ctx, path)
			if err != nil {
				return llm.ContentBlock{}, err
			}
			image.URL = url
		}
		if image.URL == "" {
			return llm.ContentBlock{}, &UnsupportedContentError{Detail: "image_url block needs a url or path"}
		}
	default:
		return llm.ContentBlock{}, &UnsupportedContentError{Detail: fmt.Sprintf("image_url must be a string or map, got %T", spec)}
	}

	return llm.ContentBlock{Type: llm.ContentBlockTypeImageURL, Image: image}, nil
}

func normalizeTypedBlock(block llm.ContentBlock, format TemplateFormat, vars map[string]any) (llm.ContentBlock, error) {
	switch block.Type {
	case llm.ContentBlockTypeText:
		text, err := resolveField(block.Text, format, vars)
		if err != nil {
			return llm.ContentBlock{}, err
		}
		block.Text = text
	case llm.ContentBlockTypeImageURL:
		if block.Image != nil {
			img := *block.Image
			url, err := resolveField(img.URL, format, vars)
			if err != nil {
				return llm.ContentBlock{}, err
			}
			img.URL = url
			block.Image = &img
		}
	}
	return block, nil
}

// inlineImageFile reads a local image file and returns it as an inline
// base64 data URI.
func inlineImageFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &FileReadError{Path: path, Err: err}
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}

// resolveField substitutes placeholders in a single string field. A nil vars
// map means literal mode: the field passes through untouched. This is how
// already-resolved placeholder items avoid re-resolution.
func resolveField(s string, format TemplateFormat, vars map[string]any) (string, error) {
	if vars == nil {
		return s, nil
	}
	return Resolve(s, format, vars)
}
