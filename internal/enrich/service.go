package enrich

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/smilepat/vocab-cat-engine/internal/models"
)

const (
	// DefaultModel is a small fast model; explanations are two sentences.
	DefaultModel = "claude-3-5-haiku-latest"

	callTimeout = 5 * time.Second
)

// Service upgrades template explanations on rendered items to model-written
// bilingual ones. Without an API key the service is disabled and every card
// keeps its template text. Successful results are cached per (item, question
// type); a failed or blank completion is not cached, so the next card for that
// pairing calls again.
type Service struct {
	llm LLMClient

	mu    sync.RWMutex
	cache map[string]string
}

// NewService builds an enrichment service. An empty apiKey disables it.
func NewService(apiKey, model string) *Service {
	svc := &Service{cache: make(map[string]string)}
	if apiKey == "" {
		log.Printf("[enrich] no API key, explanations stay template-based")
		return svc
	}
	if model == "" {
		model = DefaultModel
	}
	svc.llm = NewAPIClient(apiKey, model)
	log.Printf("[enrich] using Anthropic API: %s", model)
	return svc
}

// NewServiceWithClient injects a client directly.
func NewServiceWithClient(llm LLMClient) *Service {
	return &Service{llm: llm, cache: make(map[string]string)}
}

func (svc *Service) Enabled() bool { return svc.llm != nil }

func cacheKey(itemID int, qt models.QuestionType) string {
	return fmt.Sprintf("%d/%d", itemID, qt)
}

// Enrich replaces the card's explanation with a model-written one. Failures
// keep the template text; the card is always left in a servable state.
func (svc *Service) Enrich(it *models.Item, card *models.RenderedItem) {
	if !svc.Enabled() || it == nil || card == nil {
		return
	}

	key := cacheKey(it.ID, card.QuestionType)
	svc.mu.RLock()
	cached, ok := svc.cache[key]
	svc.mu.RUnlock()
	if ok {
		card.Explanation = cached
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	text, err := svc.llm.Complete(ctx, systemPrompt(), userPrompt(it, card))
	if err != nil {
		log.Printf("[enrich] explain %q: %v", it.Word, err)
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	svc.mu.Lock()
	svc.cache[key] = text
	svc.mu.Unlock()
	card.Explanation = text
}
