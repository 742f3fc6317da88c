package atelier

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"doodletale/internal/domain"
	"doodletale/internal/ports"
)

type editOptionDTO struct {
	ID            string `json:"id"`
	TitleEN       string `json:"title_en"`
	TitleDE       string `json:"title_de"`
	DescriptionEN string `json:"description_en"`
	DescriptionDE string `json:"description_de"`
	TemplateEN    string `json:"template_en"`
	TemplateDE    string `json:"template_de"`
	Glyph         string `json:"glyph"`
	Color         string `json:"color"`
}

// FetchEditOptions loads the edit option catalog. Zero options is a valid
// response; voice-only editing stays available either way.
func (c *Client) FetchEditOptions(ctx context.Context) ([]domain.EditOption, error) {
	var payload struct {
		Options []editOptionDTO `json:"options"`
	}
	if err := c.getJSON(ctx, "/v1/edit-options", nil, &payload); err != nil {
		return nil, err
	}

	options := make([]domain.EditOption, 0, len(payload.Options))
	for _, dto := range payload.Options {
		options = append(options, domain.EditOption{
			ID:          dto.ID,
			Title:       domain.Bilingual{EN: dto.TitleEN, DE: dto.TitleDE},
			Description: domain.Bilingual{EN: dto.DescriptionEN, DE: dto.DescriptionDE},
			Template:    domain.Bilingual{EN: dto.TemplateEN, DE: dto.TemplateDE},
			Glyph:       dto.Glyph,
			Accent:      c.parseAccent(dto.Color),
		})
	}
	return options, nil
}

type editResultDTO struct {
	DrawingID   string `json:"drawing_id"`
	ImageURL    string `json:"image_url"`
	ImageBase64 string `json:"image_base64"`
}

// SubmitEdit uploads an image with its instruction as a multipart request
// and returns the edit result. A text prompt travels as a string field; a
// voice clip travels as an audio/aac part named audio.aac.
func (c *Client) SubmitEdit(ctx context.Context, req ports.EditRequest) (domain.EditResult, error) {
	fields := map[string]string{
		"language": string(req.Language),
	}
	if req.SubjectHint != "" {
		fields["subject"] = req.SubjectHint
	}
	if req.AppendToID != "" {
		fields["drawing_id"] = req.AppendToID
	}

	var parts []binaryPart
	var option *domain.EditOption
	voice := false

	switch instr := req.Instruction.(type) {
	case domain.TextPrompt:
		fields["prompt"] = instr.Text
		option = instr.Option
	case domain.VoiceClip:
		voice = true
		parts = append(parts, binaryPart{
			field:       "audio",
			filename:    "audio.aac",
			contentType: "audio/aac",
			data:        instr.Clip.Data,
		})
	default:
		return domain.EditResult{}, fmt.Errorf("unsupported instruction %T", req.Instruction)
	}

	switch src := req.Image.(type) {
	case domain.FileUpload:
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return domain.EditResult{}, fmt.Errorf("read image file: %w", err)
		}
		parts = append(parts, imagePart(filepath.Base(src.Path), data))
	case domain.InlineBytes:
		name := src.Name
		if name == "" {
			name = "image.png"
		}
		parts = append(parts, imagePart(name, src.Data))
	case domain.RemoteReference:
		fields["image_url"] = src.URL
	default:
		return domain.EditResult{}, fmt.Errorf("unsupported image source %T", req.Image)
	}

	var payload editResultDTO
	if err := c.postMultipart(ctx, "/v1/edits", fields, parts, &payload); err != nil {
		return domain.EditResult{}, err
	}
	return mapEditResult(payload, option, voice)
}

func imagePart(filename string, data []byte) binaryPart {
	return binaryPart{
		field:       "image",
		filename:    filename,
		contentType: http.DetectContentType(data),
		data:        data,
	}
}

func mapEditResult(dto editResultDTO, option *domain.EditOption, voice bool) (domain.EditResult, error) {
	result := domain.EditResult{
		RecordID: dto.DrawingID,
		URL:      dto.ImageURL,
		Option:   option,
		Voice:    voice,
	}
	if dto.ImageBase64 != "" {
		data, err := base64.StdEncoding.DecodeString(dto.ImageBase64)
		if err != nil {
			return domain.EditResult{}, &domain.MalformedResponseError{Err: fmt.Errorf("edit image payload: %w", err)}
		}
		result.Data = data
	}
	if result.URL == "" && len(result.Data) == 0 {
		return domain.EditResult{}, &domain.MalformedResponseError{Err: errors.New("edit response carries no image reference")}
	}
	return result, nil
}
