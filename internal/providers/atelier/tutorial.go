package atelier

import (
	"context"
	"encoding/base64"

	"go.uber.org/zap"

	"doodletale/internal/domain"
)

type tutorialRequestDTO struct {
	SubjectEN string `json:"subject_en"`
	SubjectDE string `json:"subject_de"`
	StepCount int    `json:"step_count,omitempty"`
}

type stepDTO struct {
	TextEN string `json:"text_en"`
	TextDE string `json:"text_de"`
	Image  string `json:"image_base64"`
}

// GenerateTutorial requests a generated step sequence for a subject. A step
// whose image payload fails to decode keeps its instruction text and loses
// only the image; one bad step never fails the tutorial.
func (c *Client) GenerateTutorial(ctx context.Context, subject domain.Bilingual, stepHint int) ([]domain.TutorialStep, error) {
	body := tutorialRequestDTO{
		SubjectEN: subject.EN,
		SubjectDE: subject.DE,
	}
	if stepHint > 0 {
		body.StepCount = stepHint
	}

	var payload struct {
		Steps []stepDTO `json:"steps"`
	}
	if err := c.postJSON(ctx, "/v1/tutorials", body, &payload); err != nil {
		return nil, err
	}

	steps := make([]domain.TutorialStep, 0, len(payload.Steps))
	for i, dto := range payload.Steps {
		steps = append(steps, c.mapStep(i, dto))
	}
	return steps, nil
}

func (c *Client) mapStep(index int, dto stepDTO) domain.TutorialStep {
	step := domain.TutorialStep{
		Instruction: domain.Bilingual{EN: dto.TextEN, DE: dto.TextDE},
	}
	if dto.Image == "" {
		return step
	}
	data, err := base64.StdEncoding.DecodeString(dto.Image)
	if err != nil {
		c.log.Warn("step image failed to decode, keeping step without it",
			zap.Int("step", index),
			zap.Error(err),
		)
		return step
	}
	step.Image = data
	return step
}
