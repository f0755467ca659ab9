package di

import (
	"context"
	"log/slog"
	"os"

	"stock_diagnosis/internal/feature/diagnosis/adapters/gemini"
	"stock_diagnosis/internal/feature/diagnosis/adapters/template"
	"stock_diagnosis/internal/feature/diagnosis/usecase"
)

// NewDiagnosisGenerator returns the Gemini generator when credentials are configured
// (GEMINI_API_KEY or GOOGLE_GENAI_USE_VERTEXAI), otherwise the offline template generator.
func NewDiagnosisGenerator(ctx context.Context) usecase.DiagnosisGenerator {
	cfg := gemini.LoadConfig()
	if cfg.APIKey == "" && os.Getenv("GOOGLE_GENAI_USE_VERTEXAI") == "" {
		slog.Warn("Gemini credentials not configured; using template diagnosis generator")
		return template.NewGenerator()
	}

	g, err := gemini.NewGenerator(ctx, cfg)
	if err != nil {
		slog.Error("failed to create Gemini generator; using template diagnosis generator", "error", err)
		return template.NewGenerator()
	}
	slog.Info("Gemini diagnosis generator enabled", "model", cfg.Model)
	return g
}
