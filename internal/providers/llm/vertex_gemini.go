package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	vertexgenai "cloud.google.com/go/vertexai/genai"

	"github.com/prepvoice/prepvoice/internal/models"
)

type VertexGemini struct {
	client *vertexgenai.Client

	textModel     *vertexgenai.GenerativeModel
	feedbackModel *vertexgenai.GenerativeModel
}

func NewVertexGemini(ctx context.Context, projectID, location, modelName string) (*VertexGemini, error) {
	c, err := vertexgenai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, err
	}

	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	text := c.GenerativeModel(modelName)

	feedback := c.GenerativeModel(modelName)
	feedback.GenerationConfig.ResponseMIMEType = "application/json"
	feedback.GenerationConfig.ResponseSchema = feedbackSchema()
	feedback.SystemInstruction = &vertexgenai.Content{
		Parts: []vertexgenai.Part{vertexgenai.Text(
			"You are a professional interviewer analyzing a mock interview. " +
				"Your task is to evaluate the candidate based on structured categories.",
		)},
	}

	return &VertexGemini{client: c, textModel: text, feedbackModel: feedback}, nil
}

func (v *VertexGemini) Close() error { return v.client.Close() }

func (v *VertexGemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := v.textModel.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return "", err
	}
	text := collectText(resp)
	if text == "" {
		return "", errors.New("model returned no text")
	}
	return text, nil
}

func (v *VertexGemini) GenerateFeedback(ctx context.Context, prompt string) (*models.FeedbackDraft, error) {
	resp, err := v.feedbackModel.GenerateContent(ctx, vertexgenai.Text(prompt))
	if err != nil {
		return nil, err
	}

	text := collectText(resp)
	if text == "" {
		return nil, errors.New("model returned no feedback object")
	}

	var draft models.FeedbackDraft
	if err := json.Unmarshal([]byte(text), &draft); err != nil {
		return nil, fmt.Errorf("invalid feedback object: %w", err)
	}
	return &draft, nil
}

func collectText(resp *vertexgenai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(vertexgenai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

// feedbackSchema pins the extraction output to the fixed five-category
// rubric: each category scored 0-100 with a comment, plus overall fields.
func feedbackSchema() *vertexgenai.Schema {
	return &vertexgenai.Schema{
		Type: vertexgenai.TypeObject,
		Properties: map[string]*vertexgenai.Schema{
			"totalScore": {Type: vertexgenai.TypeInteger},
			"categoryScores": {
				Type: vertexgenai.TypeArray,
				Items: &vertexgenai.Schema{
					Type: vertexgenai.TypeObject,
					Properties: map[string]*vertexgenai.Schema{
						"name": {
							Type: vertexgenai.TypeString,
							Enum: models.FeedbackCategories,
						},
						"score":   {Type: vertexgenai.TypeInteger},
						"comment": {Type: vertexgenai.TypeString},
					},
					Required: []string{"name", "score", "comment"},
				},
			},
			"strengths": {
				Type:  vertexgenai.TypeArray,
				Items: &vertexgenai.Schema{Type: vertexgenai.TypeString},
			},
			"areasForImprovement": {
				Type:  vertexgenai.TypeArray,
				Items: &vertexgenai.Schema{Type: vertexgenai.TypeString},
			},
			"finalAssessment": {Type: vertexgenai.TypeString},
		},
		Required: []string{"totalScore", "categoryScores", "strengths", "areasForImprovement", "finalAssessment"},
	}
}

var _ Provider = (*VertexGemini)(nil)
