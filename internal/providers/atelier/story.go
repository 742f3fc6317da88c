package atelier

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"

	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

type storyDTO struct {
	TitleEN  string `json:"title_en"`
	TitleDE  string `json:"title_de"`
	BodyEN   string `json:"body_en"`
	BodyDE   string `json:"body_de"`
	ImageURL string `json:"image_url"`
}

type storyCreateDTO struct {
	DrawingID   string `json:"drawing_id,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	Language    string `json:"language"`
}

// FetchStory retrieves an existing story for a drawing record. A 404 comes
// back as an APIError; the story pipeline translates it to a not-found
// outcome.
func (c *Client) FetchStory(ctx context.Context, recordID, imageURL string, lang domain.Language) (domain.Story, error) {
	query := url.Values{}
	query.Set("drawing_id", recordID)
	if imageURL != "" {
		query.Set("image_url", imageURL)
	}
	query.Set("language", string(lang))

	var payload storyDTO
	if err := c.getJSON(ctx, "/v1/stories", query, &payload); err != nil {
		return domain.Story{}, err
	}
	return mapStory(payload), nil
}

// CreateStory requests generation of a new story. An in-memory or on-disk
// image travels as base64; a remote reference travels as its URL.
func (c *Client) CreateStory(ctx context.Context, req ports.StoryRequest) (domain.Story, error) {
	body := storyCreateDTO{
		DrawingID: req.RecordID,
		Language:  string(req.Language),
	}

	switch src := req.Image.(type) {
	case domain.RemoteReference:
		body.ImageURL = src.URL
	case domain.InlineBytes:
		body.ImageBase64 = base64.StdEncoding.EncodeToString(src.Data)
	case domain.FileUpload:
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return domain.Story{}, fmt.Errorf("read image file: %w", err)
		}
		body.ImageBase64 = base64.StdEncoding.EncodeToString(data)
	default:
		return domain.Story{}, fmt.Errorf("unsupported image source %T", req.Image)
	}

	var payload storyDTO
	if err := c.postJSON(ctx, "/v1/stories", body, &payload); err != nil {
		return domain.Story{}, err
	}
	return mapStory(payload), nil
}

func mapStory(dto storyDTO) domain.Story {
	return domain.Story{
		Title:    domain.Bilingual{EN: dto.TitleEN, DE: dto.TitleDE},
		Body:     domain.Bilingual{EN: dto.BodyEN, DE: dto.BodyDE},
		ImageURL: dto.ImageURL,
	}
}
