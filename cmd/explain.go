package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pable/go-match-coach/internal/analysis"
	"github.com/pable/go-match-coach/internal/model"
)

const explainSystemPrompt = `You are a Dota 2 coach. You are given the structured output of a match
analysis tool for one player, and optionally a question from that player.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise and actionable. Focus on what the player can change next game.
- Keep advice specific to the detected role.

Field glossary:
- role / role_method: detected position (Carry=1 .. Hard Support=5); "hint" means the
  data source supplied it, "heuristic" means it was derived from farm share and items.
- metric_scores: per-metric value, percentile (0-100) against players on the same hero,
  letter grade (S>=90, A>=80, B>=70, C>=50, D below) and the role weight.
- overall_score: role-weighted mean of the percentiles.
- improvement_score: mean of the farming, positioning, teamfighting, vision and
  itemization sub-scores.
- mistakes / strengths / coaching_points: rule-based findings, priority 1 is most urgent.
- progression: last hits, gold and xp at 10/20/30 minutes.
- fallbacks: parts computed from degraded data (e.g. static benchmark tables).
- final_items: the player's inventory at the end of the match.`

const defaultExplainQuestion = "What are the three most important things I should change in my next game?"

var explainAPIKey string

var explainCmd = &cobra.Command{
	Use:   "explain <match_id> <account_id> [question]",
	Short: "AI coaching grounded on a match analysis (requires ANTHROPIC_API_KEY)",
	Long: `Run (or load) the analysis of a player in a match and ask Claude to explain it.
Without a question the model is asked for the three most important changes.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().String("model", "", "Anthropic model id (default from config ai.model)")
	explainCmd.Flags().StringVar(&explainAPIKey, "api-key", "", "Anthropic API key (default: ANTHROPIC_API_KEY)")
}

// explainData is the JSON document sent to the model.
type explainData struct {
	Analysis   *model.AnalysisResult `json:"analysis"`
	FinalItems []string              `json:"final_items,omitempty"`
}

func runExplain(cmd *cobra.Command, args []string) error {
	matchID, err := analysis.ParseID(args[0])
	if err != nil {
		return err
	}
	accountID, err := analysis.ParseID(args[1])
	if err != nil {
		return err
	}
	question := defaultExplainQuestion
	if len(args) == 3 && strings.TrimSpace(args[2]) != "" {
		question = args[2]
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := commandContext(cmd)
	res, err := s.db.GetAnalysis(matchID, accountID)
	if err != nil {
		return fmt.Errorf("load analysis: %w", err)
	}
	if res == nil {
		if res, err = s.pipeline.Analyze(ctx, matchID, accountID); err != nil {
			return err
		}
	}

	data := explainData{Analysis: res}
	if names, err := finalItems(ctx, s, matchID, accountID); err != nil {
		logger.Warn("final items unavailable", zap.Error(err))
	} else {
		data.FinalItems = names
	}

	dataJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	modelID, _ := cmd.Flags().GetString("model")
	if modelID == "" {
		modelID = cfg.AI.Model
	}
	apiKey := explainAPIKey
	if apiKey == "" {
		apiKey = cfg.AI.APIKey
	}
	return callAnthropic(ctx, apiKey, modelID, string(dataJSON), question)
}

func finalItems(ctx context.Context, s *session, matchID, accountID int64) ([]string, error) {
	m, err := s.gw.Match(ctx, matchID)
	if err != nil {
		return nil, err
	}
	p := m.FindPlayer(accountID)
	if p == nil {
		return nil, fmt.Errorf("account %d not in match %d", accountID, matchID)
	}
	items, err := s.gw.Items(ctx)
	if err != nil {
		return nil, err
	}
	return analysis.InventoryNames(p, items), nil
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── Coaching ────────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: explainSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed: check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
