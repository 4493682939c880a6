package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "juriscorrect",
		Subsystem: "ai",
		Name:      "correction_duration_seconds",
		Help:      "Duration of AI correction requests",
	}, []string{"model"})

	aiFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "juriscorrect",
		Subsystem: "ai",
		Name:      "correction_failures_total",
		Help:      "Number of AI correction failures",
	}, []string{"model"})
)

// maxInlineNotes bounds the number of annotations kept from a producer response.
const maxInlineNotes = 6

// OpenAIConfig defines configuration options for the OpenAI corrector.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAICorrector implements Corrector against the OpenAI chat completion API.
type OpenAICorrector struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAICorrector builds a new corrector using the provided configuration.
func NewOpenAICorrector(cfg OpenAIConfig) (*OpenAICorrector, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	tracer := otel.Tracer("github.com/juriscorrect/juriscorrect-api/pkg/ai/openai")
	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	config := openai.DefaultConfig(cfg.APIKey)
	client := openai.NewClientWithConfig(config)

	return &OpenAICorrector{
		client: client,
		cfg:    cfg,
		tracer: tracer,
		logger: logger,
	}, nil
}

// Correct sends the correction request to OpenAI and parses the response.
func (c *OpenAICorrector) Correct(parent context.Context, input CorrectionInput) (CorrectionResult, error) {
	ctx, span := c.tracer.Start(parent, "openai.correct", trace.WithAttributes(
		attribute.String("model", c.cfg.Model),
		attribute.String("exercise_kind", input.ExerciseKind),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: correctorSystemPrompt(),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildUserPrompt(input),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	}

	resp, err := c.client.CreateChatCompletion(ctx, request)
	duration := time.Since(start)
	aiDuration.WithLabelValues(c.cfg.Model).Observe(duration.Seconds())
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CorrectionResult{}, fmt.Errorf("openai correct: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		aiFailures.WithLabelValues(c.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CorrectionResult{}, err
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	result, err := parseCorrectionResponse(content)
	if err != nil {
		aiFailures.WithLabelValues(c.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return CorrectionResult{}, err
	}

	result.Raw = map[string]interface{}{
		"usage": resp.Usage,
	}

	return result, nil
}

func correctorSystemPrompt() string {
	return "Tu es un correcteur de copies de droit. Respond with a JSON object containing normalized_body (the reformatted subm" +
		"ission), global_comment (holistic feedback in French), inline_notes (an array of {tag, quote, comment} where tag is one" +
		" of green, red, orange, blue and quote is copied verbatim from normalized_body), and score ({overall, out_of: 20}). Gra" +
		"de against French legal methodology for the given exercise."
}

func buildUserPrompt(input CorrectionInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Exercice\n")
	builder.WriteString(input.ExerciseKind)
	builder.WriteString("\n\n## Sujet\n")
	builder.WriteString(input.Subject)
	builder.WriteString("\n\n## Copie\n")
	builder.WriteString(input.SourceText)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func parseCorrectionResponse(content string) (CorrectionResult, error) {
	type scorePayload struct {
		Overall float64 `json:"overall"`
		OutOf   float64 `json:"out_of"`
	}
	type payload struct {
		NormalizedBody string       `json:"normalized_body"`
		GlobalComment  string       `json:"global_comment"`
		InlineNotes    []InlineNote `json:"inline_notes"`
		Score          scorePayload `json:"score"`
	}

	var data payload
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return CorrectionResult{}, fmt.Errorf("parse correction json: %w", err)
	}

	if data.NormalizedBody == "" {
		return CorrectionResult{}, fmt.Errorf("correction response missing normalized body")
	}

	if data.Score.OutOf <= 0 {
		data.Score.OutOf = 20
	}
	if data.Score.Overall < 0 {
		data.Score.Overall = 0
	}
	if data.Score.Overall > data.Score.OutOf {
		data.Score.Overall = data.Score.OutOf
	}

	notes := make([]InlineNote, 0, len(data.InlineNotes))
	for _, note := range data.InlineNotes {
		if len(notes) == maxInlineNotes {
			break
		}
		if !validNoteTag(note.Tag) {
			note.Tag = "blue"
		}
		notes = append(notes, note)
	}

	return CorrectionResult{
		NormalizedBody: data.NormalizedBody,
		GlobalComment:  data.GlobalComment,
		InlineNotes:    notes,
		Score:          Score{Overall: data.Score.Overall, OutOf: data.Score.OutOf},
	}, nil
}

func validNoteTag(tag string) bool {
	switch tag {
	case "green", "red", "orange", "blue":
		return true
	default:
		return false
	}
}
