package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"wardrobeapi/languageutil"
	"wardrobeapi/models"

	"github.com/kaptinlin/jsonrepair"
	"google.golang.org/genai"
)

// LLMModelName is the Gemini model used for attribute analysis.
type LLMModelName int32

const (
	Flash20 LLMModelName = iota
	Flash25
	FlashLite25
	Pro25
)

func (t LLMModelName) String() string {
	switch t {
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite"
	case Pro25:
		return "gemini-2.5-pro"
	default:
		return "gemini-2.0-flash"
	}
}

type ClothingAnalyzer interface {
	AnalyzeClothing(ctx context.Context, image []byte, mimeType string) (*models.AnalysisResult, error)
}

const clothingAnalysisPrompt = `Bu kıyafeti analiz et ve sonucu JSON formatında ver. Türkçe terimler kullan.

JSON format:
{
    "category": "Tişört|Gömlek|Pantolon|Etek|Elbise|Mont|vb",
    "mainColor": "Ana renk",
    "secondaryColors": ["Yan renkler listesi"],
    "style": "Minimalist|Klasik|Trend|Bohem|Sportif|Şık|Rahat|Vintage|Preppy|Cesur",
    "occasionTypes": ["İş|Günlük|Resmi|Spor|Akşam|Plaj|Seyahat|Randevu|Parti|Toplantı|Düğün|Alışveriş"],
    "weatherSuitability": ["Sıcak|Ilık|Serin|Soğuk|Yağmurlu|Karlı|Rüzgarlı"],
    "fabricType": "Pamuk, polyester, denim vb",
    "texture": "Düz, çizgili, desenli vb",
    "description": "Kısa açıklama"
}

Sadece JSON formatında cevap ver, başka metin ekleme.`

type GeminiClothingAnalyzer struct {
	client *genai.Client
	model  string
}

func NewGeminiClothingAnalyzer(ctx context.Context, apiKey string, model string) (*GeminiClothingAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	if model == "" {
		model = Flash20.String()
	}
	return &GeminiClothingAnalyzer{client: client, model: model}, nil
}

func (g *GeminiClothingAnalyzer) AnalyzeClothing(ctx context.Context, image []byte, mimeType string) (*models.AnalysisResult, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{Data: image, MIMEType: mimeType}},
		{Text: clothingAnalysisPrompt},
	}
	result, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{{Role: "user", Parts: parts}}, &genai.GenerateContentConfig{
		CandidateCount: 1,
		Temperature:    floatPointer(0.4),
	})
	if err != nil {
		fmt.Println("[Analysis] Error in GenerateContent:", err)
		return nil, &NetworkError{Op: "generate content", Err: err}
	}
	if result.UsageMetadata != nil {
		fmt.Printf("[Analysis] Tokens in: %d out: %d total: %d\n",
			result.UsageMetadata.PromptTokenCount,
			result.UsageMetadata.CandidatesTokenCount,
			result.UsageMetadata.TotalTokenCount,
		)
	}
	if result.PromptFeedback != nil && result.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: prompt blocked: %s %s", ErrInvalidResponse,
			result.PromptFeedback.BlockReason, result.PromptFeedback.BlockReasonMessage)
	}
	return ParseAnalysisResponse(result.Text())
}

// ParseAnalysisResponse turns raw model text into an AnalysisResult.
func ParseAnalysisResponse(text string) (*models.AnalysisResult, error) {
	cleaned := cleanAIResponseText(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty model response", ErrInvalidResponse)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		repaired, repairErr := jsonrepair.JSONRepair(cleaned)
		if repairErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		raw = nil
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrInvalidResponse)
	}

	result := &models.AnalysisResult{
		MainColor:       stringField(raw, "mainColor"),
		SecondaryColors: stringSliceField(raw, "secondaryColors"),
		FabricType:      stringField(raw, "fabricType"),
		Texture:         stringField(raw, "texture"),
		Description:     stringField(raw, "description"),
	}
	if value := stringField(raw, "category"); value != nil {
		if category, ok := ParseCategoryText(*value); ok {
			result.Category = &category
		}
	}
	if value := stringField(raw, "style"); value != nil {
		if style, ok := models.ParseStyleType(*value); ok {
			result.Style = &style
		}
	}
	seenOccasions := map[models.OccasionType]bool{}
	for _, value := range stringSliceField(raw, "occasionTypes") {
		if o, ok := models.ParseOccasionType(value); ok && !seenOccasions[o] {
			seenOccasions[o] = true
			result.OccasionTypes = append(result.OccasionTypes, o)
		}
	}
	seenWeather := map[models.WeatherSuitability]bool{}
	for _, value := range stringSliceField(raw, "weatherSuitability") {
		if w, ok := models.ParseWeatherSuitability(value); ok && !seenWeather[w] {
			seenWeather[w] = true
			result.WeatherSuitability = append(result.WeatherSuitability, w)
		}
	}
	return result, nil
}

// ParseCategoryText maps free text to a category. Exact raw values win,
// then keyword matching on the Turkish lower-cased text.
func ParseCategoryText(value string) (models.ClothingCategory, bool) {
	if category, ok := models.ParseClothingCategory(value); ok {
		return category, true
	}
	lowered := languageutil.Lower(value)
	switch {
	case containsAny(lowered, "tişört", "t-shirt"):
		return models.CategoryTShirt, true
	case containsAny(lowered, "gömlek", "shirt"):
		return models.CategoryShirt, true
	case containsAny(lowered, "pantolon", "jean"):
		if strings.Contains(lowered, "kot") {
			return models.CategoryJeans, true
		}
		return models.CategoryTrousers, true
	case containsAny(lowered, "etek"):
		return models.CategorySkirt, true
	case containsAny(lowered, "elbise"):
		return models.CategoryDress, true
	case containsAny(lowered, "mont", "ceket"):
		return models.CategoryJacket, true
	case containsAny(lowered, "ayakkabı"):
		return models.CategorySneakers, true
	}
	return "", false
}

func cleanAIResponseText(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func stringField(raw map[string]any, key string) *string {
	value, ok := raw[key].(string)
	if !ok {
		return nil
	}
	return &value
}

// stringSliceField is nil unless the field is a non-empty list of strings.
func stringSliceField(raw map[string]any, key string) []string {
	values, ok := raw[key].([]any)
	if !ok || len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		out = append(out, s)
	}
	return out
}
