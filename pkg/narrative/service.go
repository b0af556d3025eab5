// Package narrative turns the aggregated dashboard numbers into a short
// management summary written by an LLM. Every call that consumed tokens is
// logged to the usage ledger, including calls whose response could not be
// used.
package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/edconsult/commitdb/pkg/aggregation"
	"github.com/edconsult/commitdb/pkg/logger"
	"github.com/edconsult/commitdb/pkg/models"
	"github.com/edconsult/commitdb/pkg/usage"
	"github.com/edconsult/commitdb/pkg/week"
)

const systemPrompt = "You are an analyst for an education consulting company. " +
	"You receive weekly sales commitment figures and write a concise summary " +
	"for management: overall progress, standout consultants, teams that need " +
	"attention, and one or two concrete suggestions. Plain prose, no markdown, " +
	"at most 180 words."

// ChatClient is the slice of the OpenAI client the service needs.
// *openai.Client satisfies it.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Config for the narrative service.
type Config struct {
	Model       string  // default: gpt-4o-mini
	Temperature float32 // default: 0.7
	MaxTokens   int     // default: 500
}

// Result is a generated narrative plus what it cost.
type Result struct {
	Narrative   string         `json:"narrative"`
	Range       week.DateRange `json:"range"`
	TokensUsed  int            `json:"tokens_used"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Service generates narrative summaries from dashboard data.
type Service struct {
	client      ChatClient
	agg         *aggregation.Service
	usage       *usage.Service
	model       string
	temperature float32
	maxTokens   int
	log         logger.Logger
	now         func() time.Time
}

// NewService creates a new narrative service.
func NewService(client ChatClient, agg *aggregation.Service, usageSvc *usage.Service, cfg Config, log logger.Logger) *Service {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 500
	}
	return &Service{
		client:      client,
		agg:         agg,
		usage:       usageSvc,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		log:         log,
		now:         time.Now,
	}
}

// Summarize builds the dashboard for the actor's scope and range, asks the
// model for a narrative, and logs the consumed tokens to the usage ledger.
func (s *Service) Summarize(ctx context.Context, actor models.Actor, dr week.DateRange) (*Result, error) {
	dash, err := s.agg.GetDashboard(ctx, actor, dr)
	if err != nil {
		return nil, err
	}

	req := openai.ChatCompletionRequest{
		Model:       s.model,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(dash)},
		},
	}

	start := s.now()
	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		// No response means no token count to charge for.
		s.log.Error("narrative generation failed", "error", err, "duration", time.Since(start).String())
		return nil, fmt.Errorf("failed to generate narrative: %w", err)
	}

	// Tokens were consumed, so the call goes in the ledger even when the
	// response turns out to be unusable.
	if _, rerr := s.usage.Record(ctx, actor, resp.Usage.PromptTokens, resp.Usage.CompletionTokens, dr); rerr != nil {
		s.log.Warn("failed to record usage", "error", rerr)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("failed to generate narrative: empty response")
	}

	s.log.Info("narrative generated",
		"user", actor.Name,
		"tokens", resp.Usage.TotalTokens,
		"duration", time.Since(start).String())

	return &Result{
		Narrative:   strings.TrimSpace(resp.Choices[0].Message.Content),
		Range:       dash.Range,
		TokensUsed:  resp.Usage.TotalTokens,
		GeneratedAt: s.now(),
	}, nil
}

// buildPrompt flattens the dashboard into the plain-text figures the model
// is asked to narrate.
func buildPrompt(dash *aggregation.Dashboard) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Reporting period: %s to %s\n\n",
		dash.Range.Start.Format("2006-01-02"), dash.Range.End.Format("2006-01-02"))
	fmt.Fprintf(&b, "Overall: %d commitments, %d achieved (%d%%), %d meetings done, %d admissions closed, %d prospects in pipeline.\n\n",
		dash.Summary.TotalCommitments, dash.Summary.TotalAchieved,
		dash.Summary.OverallAchievementPercentage, dash.Summary.TotalMeetingsDone,
		dash.Summary.TotalAdmissionsClosed, dash.Summary.TotalProspects)

	if len(dash.ByConsultant) > 0 {
		b.WriteString("Per consultant:\n")
		for _, row := range dash.ByConsultant {
			fmt.Fprintf(&b, "- %s: %d commitments, %d achieved (%d%%), %d meetings, %d closed\n",
				row.Key, row.Total, row.Achieved, row.AchievementRate, row.Meetings, row.Closed)
		}
		b.WriteString("\n")
	}

	if len(dash.ByTeam) > 0 {
		b.WriteString("Per team:\n")
		for _, team := range dash.ByTeam {
			fmt.Fprintf(&b, "- %s: %d commitments, %d achieved (%d%%)\n",
				team.Key, team.Total, team.Achieved, team.AchievementRate)
		}
		b.WriteString("\n")
	}

	if len(dash.StageCounts) > 0 {
		b.WriteString("Pipeline stages:\n")
		for _, sc := range dash.StageCounts {
			fmt.Fprintf(&b, "- %s: %d\n", sc.Stage, sc.Count)
		}
	}

	return b.String()
}
