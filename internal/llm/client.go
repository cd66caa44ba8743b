// Package llm queries an OpenAI-compatible endpoint (typically a local
// Ollama server) for a structured draft extraction of one bank statement.
// The draft is never trusted: every monetary field is re-derived and audited
// downstream, which is why the prompt demands the dual representation of
// each amount (the exact document string plus the model's conversion).
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"kontocheck/internal/logger"
	"kontocheck/internal/statement"
)

// Config configures the extraction client.
type Config struct {
	BaseURL     string  // OpenAI-compatible endpoint, e.g. http://localhost:11434/v1
	APIKey      string  // ignored by Ollama but required by the client
	Model       string  // e.g. qwen3:8b
	Temperature float32
	MaxRetries  int // attempts per document
	MaxTextLen  int // document text is truncated to this many bytes
}

// Client extracts statement drafts from document text.
type Client struct {
	api    *openai.Client
	config Config
	log    zerolog.Logger
}

// NewClient creates an extraction client for the configured endpoint.
func NewClient(config Config) *Client {
	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL

	return &Client{
		api:    openai.NewClientWithConfig(clientConfig),
		config: config,
		log:    logger.WithComponent("llm"),
	}
}

// Ping verifies that the endpoint is reachable and serving models. Called
// once at startup; an unreachable endpoint is fatal for the whole batch.
func (c *Client) Ping(ctx context.Context) error {
	const op = "Ping"

	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("%s: LLM endpoint %s unreachable: %w", op, c.config.BaseURL, err)
	}
	return nil
}

// ExtractStatement sends one document's text to the model and parses the
// returned draft. Retries up to MaxRetries times on transport errors and
// malformed JSON.
func (c *Client) ExtractStatement(ctx context.Context, docText string) (*statement.Draft, error) {
	const op = "ExtractStatement"

	if len(docText) > c.config.MaxTextLen {
		docText = docText[:c.config.MaxTextLen]
	}

	c.log.Debug().
		Int("text_length", len(docText)).
		Str("model", c.config.Model).
		Msg("Sende Extraktionsanfrage")

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       c.config.Model,
			Temperature: c.config.Temperature,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: buildExtractionPrompt(docText),
				},
			},
		})
		if err != nil {
			lastErr = err
			c.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_retries", c.config.MaxRetries).
				Msg("LLM-Anfrage fehlgeschlagen, neuer Versuch")
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("no response choices")
			continue
		}

		content := resp.Choices[0].Message.Content
		draft, err := statement.ParseDraft([]byte(content))
		if err != nil {
			lastErr = fmt.Errorf("malformed draft JSON: %w", err)
			c.log.Warn().
				Err(err).
				Int("attempt", attempt).
				Msg("Antwort kein gültiges JSON, neuer Versuch")
			continue
		}

		c.log.Info().
			Int("transaktionen", len(draft.Transaktionen)).
			Int("attempt", attempt).
			Msg("Draft-Extraktion erhalten")

		return draft, nil
	}

	return nil, fmt.Errorf("%s: all %d attempts failed, last error: %w", op, c.config.MaxRetries, lastErr)
}

const systemPrompt = `Du bist ein präziser Dokumentenanalyse-Assistent für deutsche Kontoauszüge. ` +
	`Du musst JEDEN Geldbetrag ZWEIMAL angeben: einmal als Original-String exakt wie im Dokument ` +
	`(betrag_original) und einmal als konvertierte Dezimalzahl (betrag_nummer). ` +
	`Gib AUSSCHLIESSLICH gültiges JSON ohne Text davor oder danach zurück.`

// buildExtractionPrompt assembles the German extraction instructions plus
// the document text.
func buildExtractionPrompt(docText string) string {
	var prompt strings.Builder

	prompt.WriteString("KONTOAUSZUG ANALYSE MIT DUALER ZAHLENREPRÄSENTATION:\n\n")

	prompt.WriteString("WICHTIG: Für JEDEN Geldbetrag musst du ZWEI Werte angeben:\n")
	prompt.WriteString(`1. "betrag_original": Der EXAKTE String wie er im Dokument steht (mit Punkt/Komma)` + "\n")
	prompt.WriteString(`2. "betrag_nummer": Die konvertierte Dezimalzahl` + "\n\n")

	prompt.WriteString("DEUTSCHES FORMAT KONVERTIERUNG:\n")
	prompt.WriteString(`- "450.105,96" -> betrag_original: "450.105,96", betrag_nummer: 450105.96` + "\n")
	prompt.WriteString(`- "-392,33" -> betrag_original: "-392,33", betrag_nummer: -392.33` + "\n")
	prompt.WriteString(`- "37.000,00" -> betrag_original: "37.000,00", betrag_nummer: 37000.00` + "\n\n")

	prompt.WriteString("EXTRAKTIONS-STRUKTUR:\n\n")

	prompt.WriteString("1. AUSZUGSNUMMER:\n")
	prompt.WriteString(`Finde "Kontoauszug X/JAHR" -> auszug_nummer: X` + "\n\n")

	prompt.WriteString("2. ANFANGSSALDO:\n")
	prompt.WriteString(`Suche "Kontostand am [DATUM], Auszug Nr. [VORHERIGE_NR]":` + "\n")
	prompt.WriteString(`{"anfangssaldo": {"betrag_original": "...", "betrag_nummer": 0.0, "datum": "TT.MM.JJJJ", "referenz_auszug": "...", "beschreibung": "..."}}` + "\n\n")

	prompt.WriteString("3. ENDSALDO:\n")
	prompt.WriteString(`Suche "Kontostand am [DATUM] um [UHRZEIT] Uhr":` + "\n")
	prompt.WriteString(`{"endsaldo": {"betrag_original": "...", "betrag_nummer": 0.0, "datum": "TT.MM.JJJJ", "uhrzeit": "HH:MM", "beschreibung": "..."}}` + "\n\n")

	prompt.WriteString("4. TRANSAKTIONEN:\n")
	prompt.WriteString("Für JEDE Transaktion (NICHT die Kontostand-Zeilen!):\n")
	prompt.WriteString(`{"datum": "TT.MM.JJJJ", "beschreibung": "...", "betrag_original": "...", "betrag_nummer": 0.0, "valuta": "TT.MM.JJJJ falls vorhanden", "wertpapier": {"wkn": "...", "isin": "...", "name": "..."} falls Wertpapier}` + "\n\n")

	prompt.WriteString("KRITISCH:\n")
	prompt.WriteString("- ALLE Transaktionen erfassen, nicht nur die erste/letzte!\n")
	prompt.WriteString("- Original-Strings EXAKT wie im Dokument, nicht verändern!\n")
	prompt.WriteString("- Kontostand-Zeilen sind Salden, KEINE Transaktionen!\n")
	prompt.WriteString("- KEINE trailing comma nach dem letzten Feld!\n\n")

	prompt.WriteString("Dokument:\n")
	prompt.WriteString(docText)

	return prompt.String()
}
