package llm

import (
	"strings"
	"testing"
)

func TestNewProvider_OpenAIRequiresKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openai"

	_, err := NewProvider(cfg)
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
}

func TestNewProvider_Ollama(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "ollama"

	p, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("expected ollama provider, got error: %v", err)
	}
	if p.Name() != "ollama" {
		t.Errorf("expected name ollama, got %s", p.Name())
	}
}

func TestNewProvider_DisabledAndUnknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = ""
	p, err := NewProvider(cfg)
	if err != nil || p != nil {
		t.Errorf("expected nil provider and nil error when disabled, got %v / %v", p, err)
	}

	cfg.Provider = "cortex"
	_, err = NewProvider(cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown inference provider") {
		t.Errorf("expected unknown provider error, got %v", err)
	}
}

func TestImageDataURL(t *testing.T) {
	if _, ok := imageDataURL("pages/page-1.pdf"); ok {
		t.Error("PDF references must not be inlined as images")
	}
	if _, ok := imageDataURL("does-not-exist.png"); ok {
		t.Error("unreadable files must not be inlined")
	}
}
