// Package gemini はGoogle Gemini APIを使用した診断テキスト生成器を提供します。
package gemini

import (
	"context"
	"fmt"
	"iter"
	"os"

	"google.golang.org/genai"

	"stock_diagnosis/internal/feature/diagnosis/usecase"
	"stock_diagnosis/internal/feature/marketdata/domain/entity"
)

const (
	// DefaultModel はGemini APIのデフォルトモデルです。
	DefaultModel = "gemini-2.5-flash"
)

// Config はGeminiクライアントの設定です。
type Config struct {
	APIKey string // 空の場合はADC（Vertex AI）を使用
	Model  string
}

// LoadConfig は環境変数 GEMINI_API_KEY, GEMINI_MODEL から設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  os.Getenv("GEMINI_MODEL"),
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return cfg
}

// Generator はGemini APIのストリーミング生成で診断テキストを返します。
type Generator struct {
	client *genai.Client
	model  string
}

// GeneratorがDiagnosisGeneratorを実装していることをコンパイル時に検証します。
var _ usecase.DiagnosisGenerator = (*Generator)(nil)

// NewGenerator はGeneratorの新しいインスタンスを生成します。
// APIKey が空の場合はADCを使用するため、環境変数 GOOGLE_GENAI_USE_VERTEXAI, GOOGLE_CLOUD_PROJECT, GOOGLE_CLOUD_LOCATION が必要です。
func NewGenerator(ctx context.Context, cfg Config) (*Generator, error) {
	var cc *genai.ClientConfig
	if cfg.APIKey != "" {
		cc = &genai.ClientConfig{APIKey: cfg.APIKey, Backend: genai.BackendGeminiAPI}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Generator{client: client, model: model}, nil
}

// Generate はスナップショットからプロンプトを組み立て、応答の断片を受信順に返します。
func (g *Generator) Generate(ctx context.Context, snap entity.MarketSnapshot) iter.Seq2[string, error] {
	prompt := usecase.BuildPrompt(snap)
	return func(yield func(string, error) bool) {
		for resp, err := range g.client.Models.GenerateContentStream(ctx, g.model, genai.Text(prompt), nil) {
			if err != nil {
				yield("", fmt.Errorf("gemini API request failed: %w", err))
				return
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}
	}
}
