package atelier

import (
	"context"

	"go.uber.org/zap"

	"doodletale/internal/domain"
)

type categoryDTO struct {
	TitleEN       string       `json:"title_en"`
	TitleDE       string       `json:"title_de"`
	DescriptionEN string       `json:"description_en"`
	DescriptionDE string       `json:"description_de"`
	Icon          string       `json:"icon"`
	Color         string       `json:"color"`
	Drawings      []drawingDTO `json:"drawings"`
}

type drawingDTO struct {
	NameEN    string `json:"name_en"`
	NameDE    string `json:"name_de"`
	Emoji     string `json:"emoji"`
	StepCount int    `json:"step_count"`
	Thumbnail string `json:"thumbnail_url"`
}

// FetchCatalog loads the category/subject catalog. A category without a
// title in either language is skipped rather than failing the catalog, and
// an unparseable accent color falls back to the default accent.
func (c *Client) FetchCatalog(ctx context.Context) ([]domain.Category, error) {
	var payload struct {
		Categories []categoryDTO `json:"categories"`
	}
	if err := c.getJSON(ctx, "/v1/catalog", nil, &payload); err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(payload.Categories))
	for _, dto := range payload.Categories {
		category, ok := c.mapCategory(dto)
		if !ok {
			continue
		}
		categories = append(categories, category)
	}
	return categories, nil
}

func (c *Client) mapCategory(dto categoryDTO) (domain.Category, bool) {
	title := domain.Bilingual{EN: dto.TitleEN, DE: dto.TitleDE}
	if title.Empty() {
		c.log.Warn("skipping catalog category without a title", zap.String("icon", dto.Icon))
		return domain.Category{}, false
	}

	subjects := make([]domain.Subject, 0, len(dto.Drawings))
	for _, d := range dto.Drawings {
		subjects = append(subjects, domain.Subject{
			Name:      domain.Bilingual{EN: d.NameEN, DE: d.NameDE},
			Emoji:     d.Emoji,
			StepCount: d.StepCount,
			Thumbnail: d.Thumbnail,
		})
	}

	return domain.Category{
		Title:       title,
		Description: domain.Bilingual{EN: dto.DescriptionEN, DE: dto.DescriptionDE},
		Icon:        dto.Icon,
		Accent:      c.parseAccent(dto.Color),
		Subjects:    subjects,
	}, true
}

// parseAccent converts a catalog hex color, falling back to the default
// accent on malformed input instead of failing the whole response.
func (c *Client) parseAccent(raw string) domain.Color {
	if raw == "" {
		return domain.DefaultAccent
	}
	color, err := domain.ParseHexColor(raw)
	if err != nil {
		c.log.Debug("falling back to default accent", zap.String("color", raw), zap.Error(err))
		return domain.DefaultAccent
	}
	return color
}
