// Package ranker
package ranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/half-nothing/simple-wxguard/internal/interfaces/config"
	"github.com/half-nothing/simple-wxguard/internal/interfaces/log"
	. "github.com/half-nothing/simple-wxguard/internal/interfaces/pipeline"
)

const (
	maxResponseBytes = 1 << 20
	systemPrompt     = "You schedule flight training lessons. A lesson was put on weather hold. " +
		"Pick the best alternative slots from the numbered candidate list, preferring slots close to the original time " +
		"and slots whose weather is likely to be within the student's minima. " +
		"Answer only with JSON matching the schema, candidate_index is the 1-based number of the candidate."
)

// rankingSchema is sent as the strict response format of the completion
var rankingSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"proposals"},
	"properties": map[string]any{
		"proposals": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"candidate_index", "score", "rationale"},
				"properties": map[string]any{
					"candidate_index": map[string]any{"type": "integer"},
					"score":           map[string]any{"type": "integer"},
					"rationale":       map[string]any{"type": "string"},
				},
			},
		},
	},
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchemaFormat struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type responseFormat struct {
	Type       string            `json:"type"`
	JsonSchema *jsonSchemaFormat `json:"json_schema"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type rankingPickPayload struct {
	Index     *int    `json:"candidate_index"`
	Score     *int    `json:"score"`
	Rationale *string `json:"rationale"`
}

type rankingPayload struct {
	Proposals []*rankingPickPayload `json:"proposals"`
}

type candidateContext struct {
	Index    int       `json:"index"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Weekday  string    `json:"weekday"`
	Duration string    `json:"duration"`
}

type rankingContext struct {
	OriginalStart time.Time          `json:"original_start"`
	OriginalEnd   time.Time          `json:"original_end"`
	Departure     string             `json:"departure"`
	Destination   string             `json:"destination,omitempty"`
	FlightType    string             `json:"flight_type"`
	TrainingLevel string             `json:"training_level,omitempty"`
	Violations    []string           `json:"violations"`
	Observations  any                `json:"observations"`
	MaxPicks      int                `json:"max_picks"`
	Candidates    []candidateContext `json:"candidates"`
}

// ReasoningClient talks to an OpenAI compatible chat completions endpoint
type ReasoningClient struct {
	logger      log.LoggerInterface
	client      *http.Client
	baseUrl     string
	apiKey      string
	model       string
	temperature float64
}

func NewReasoningClient(logger log.LoggerInterface, config *config.ReasoningConfig) *ReasoningClient {
	return &ReasoningClient{
		logger:      logger,
		client:      &http.Client{Timeout: config.RequestDuration},
		baseUrl:     strings.TrimRight(config.BaseUrl, "/"),
		apiKey:      config.ApiKey,
		model:       config.Model,
		temperature: config.Temperature,
	}
}

func buildContext(request *RankingRequest) *rankingContext {
	summary := &rankingContext{
		Violations:   request.Violations,
		Observations: request.Observations,
		MaxPicks:     request.MaxPicks,
		Candidates:   make([]candidateContext, len(request.Candidates)),
	}
	if booking := request.Booking; booking != nil {
		summary.OriginalStart = booking.ScheduledStart
		summary.OriginalEnd = booking.ScheduledEnd
		summary.Departure = booking.DepartureAirport
		summary.Destination = booking.DestinationAirport
		summary.FlightType = booking.FlightType
		if booking.Student != nil {
			summary.TrainingLevel = booking.Student.TrainingLevel
		}
	}
	for i, candidate := range request.Candidates {
		summary.Candidates[i] = candidateContext{
			Index:    i + 1,
			Start:    candidate.Start,
			End:      candidate.End,
			Weekday:  candidate.Start.Weekday().String(),
			Duration: candidate.End.Sub(candidate.Start).String(),
		}
	}
	return summary
}

func (client *ReasoningClient) Rank(ctx context.Context, request *RankingRequest) ([]RankingPick, error) {
	userContent, err := json.Marshal(buildContext(request))
	if err != nil {
		return nil, fmt.Errorf("encode ranking context: %w", err)
	}
	body, err := json.Marshal(&chatRequest{
		Model:       client.model,
		Temperature: client.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(userContent)},
		},
		ResponseFormat: &responseFormat{
			Type:       "json_schema",
			JsonSchema: &jsonSchemaFormat{Name: "slot_ranking", Strict: true, Schema: rankingSchema},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode ranking request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseUrl+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create ranking request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if client.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+client.apiKey)
	}

	resp, err := client.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ranking request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d %s", ErrReasoningStatus, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	completion := &chatResponse{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(completion); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRanking, err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == nil {
		return nil, fmt.Errorf("%w: empty completion", ErrMalformedRanking)
	}
	client.logger.DebugF("ReasoningClient.Rank raw answer: %s", *completion.Choices[0].Message.Content)
	return parsePicks(*completion.Choices[0].Message.Content)
}

// parsePicks decodes the strict JSON answer, every field is required
func parsePicks(content string) ([]RankingPick, error) {
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.DisallowUnknownFields()
	payload := &rankingPayload{}
	if err := decoder.Decode(payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRanking, err)
	}
	if payload.Proposals == nil {
		return nil, fmt.Errorf("%w: missing proposals", ErrMalformedRanking)
	}
	picks := make([]RankingPick, 0, len(payload.Proposals))
	for i, item := range payload.Proposals {
		switch {
		case item == nil:
			return nil, fmt.Errorf("%w: proposal %d is null", ErrMalformedRanking, i)
		case item.Index == nil:
			return nil, fmt.Errorf("%w: proposal %d missing candidate_index", ErrMalformedRanking, i)
		case item.Score == nil:
			return nil, fmt.Errorf("%w: proposal %d missing score", ErrMalformedRanking, i)
		case item.Rationale == nil:
			return nil, fmt.Errorf("%w: proposal %d missing rationale", ErrMalformedRanking, i)
		}
		picks = append(picks, RankingPick{Index: *item.Index, Score: *item.Score, Rationale: strings.TrimSpace(*item.Rationale)})
	}
	return picks, nil
}
