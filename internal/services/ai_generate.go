package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type AIGenerateService struct {
	httpClient *http.Client
	apiKey     string
	apiURL     string
	model      string
}

func NewAIGenerateService(apiKey, apiURL, model string) *AIGenerateService {
	return &AIGenerateService{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     apiKey,
		apiURL:     apiURL,
		model:      model,
	}
}

func (s *AIGenerateService) IsAvailable() bool {
	return s.apiKey != ""
}

type QuestionDraft struct {
	OptionA  string `json:"option_a"`
	OptionB  string `json:"option_b"`
	Category string `json:"category"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

const systemPrompt = `You are a "Would You Rather" question generator. The user will describe a theme. You must respond with ONLY valid JSON (no markdown, no code fences, no explanations) in the following format:

{
  "questions": [
    {"option_a": "First choice?", "option_b": "Second choice?", "category": "category-name"}
  ]
}

Rules:
- Generate exactly the requested number of questions (default 5)
- Both options must be comparable in weight so the vote split is interesting
- category must be one of: lifestyle, food, travel, tech, hypothetical, career, relationships
- Keep each option under 200 characters
- Never produce offensive, violent or sexual content
- Return ONLY the JSON object, nothing else`

// bannedKeywords filters drafts the model should not have produced.
var bannedKeywords = []string{"kill", "suicide", "nsfw", "racist", "gore"}

// Generate asks the model for would-you-rather drafts and filters out
// anything tripping the keyword list. Drafts are saved as pending
// questions by the caller, never auto-approved.
func (s *AIGenerateService) Generate(prompt string, count int) ([]QuestionDraft, error) {
	if !s.IsAvailable() {
		return nil, fmt.Errorf("AI generation is not configured")
	}
	if count <= 0 || count > 10 {
		count = 5
	}

	userPrompt := fmt.Sprintf("Theme: %s\nGenerate %d questions.", prompt, count)
	reqBody := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, s.apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("AI request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("unexpected AI response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("AI error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("AI returned no choices")
	}

	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var parsed struct {
		Questions []QuestionDraft `json:"questions"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &parsed); err != nil {
		return nil, fmt.Errorf("AI returned invalid JSON: %w", err)
	}

	drafts := make([]QuestionDraft, 0, len(parsed.Questions))
	for _, d := range parsed.Questions {
		if d.OptionA == "" || d.OptionB == "" || containsBanned(d) {
			continue
		}
		drafts = append(drafts, d)
	}
	if len(drafts) == 0 {
		return nil, fmt.Errorf("AI produced no usable questions")
	}
	return drafts, nil
}

func containsBanned(d QuestionDraft) bool {
	text := strings.ToLower(d.OptionA + " " + d.OptionB)
	for _, kw := range bannedKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
