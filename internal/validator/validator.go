// Package validator sanity-checks a geocode result against the address the
// user actually typed.
package validator

import (
	"context"
	"fmt"

	"arrival-guide/internal/genai"
	"arrival-guide/internal/models"

	"github.com/rs/zerolog/log"
)

// Generator is the generative call used for the semantic coherence check.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts genai.GenerateOptions) (*genai.Response, error)
}

// Validator combines two local heuristics with one optional AI judgment.
// It never fails: an AI error simply contributes no extra warnings.
type Validator struct {
	gen Generator
}

// New creates a validator. gen may be nil to disable the semantic check.
func New(gen Generator) *Validator {
	return &Validator{gen: gen}
}

// semanticVerdict is the strict JSON contract for the coherence judgment.
type semanticVerdict struct {
	IsValid     bool     `json:"is_valid"`
	Warnings    []string `json:"warnings"`
	Explanation string   `json:"explanation"`
}

// Validate derives warnings from the result's own confidence and accuracy,
// then asks the model whether the resolution matches the user's intent.
// IsValid is true iff the combined warnings list is empty.
func (v *Validator) Validate(ctx context.Context, result *models.GeocodeResult, originalAddress string) models.ValidationResult {
	vr := models.ValidationResult{
		Confidence: result.Confidence,
		Warnings:   []string{},
	}

	if result.Confidence < 0.5 {
		vr.Warnings = append(vr.Warnings, "low geocoding confidence")
		vr.Suggestions = append(vr.Suggestions, "add a house number to the address")
	}

	if result.Accuracy == models.AccuracyCity || result.Accuracy == models.AccuracyRegion {
		vr.Warnings = append(vr.Warnings, fmt.Sprintf("address resolved only to %s level", result.Accuracy))
		vr.Suggestions = append(vr.Suggestions, "add more detail (street, number, postal code)")
	}

	vr.Warnings = append(vr.Warnings, v.semanticWarnings(ctx, result, originalAddress)...)

	vr.IsValid = len(vr.Warnings) == 0
	return vr
}

// semanticWarnings asks the model to judge whether the resolved place is the
// one the user meant. Every failure path returns no warnings; the semantic
// check can only add signal, never block.
func (v *Validator) semanticWarnings(ctx context.Context, result *models.GeocodeResult, originalAddress string) []string {
	if v.gen == nil {
		return nil
	}

	prompt := fmt.Sprintf(`A user typed this address: %q
A geocoding service resolved it to: %q (city: %s, country: %s).

Judge whether the resolved location plausibly matches what the user typed.
For example, if the user wrote "Madrid" and the result is in Barcelona, it does not match.

Answer with ONLY a JSON object: {"is_valid": true, "warnings": [], "explanation": "..."}`,
		originalAddress, result.FormattedAddress, result.City, result.Country)

	resp, err := v.gen.Generate(ctx, prompt, genai.GenerateOptions{
		Temperature:     0,
		MaxOutputTokens: 512,
		JSONOutput:      true,
	})
	if err != nil {
		log.Warn().Err(err).Msg("validator: semantic check call failed, skipping")
		return nil
	}

	var verdict semanticVerdict
	if !genai.ParseModelJSON(resp.Text, resp.FinishReason, &verdict) {
		return nil
	}

	if verdict.IsValid {
		return nil
	}
	if len(verdict.Warnings) > 0 {
		return verdict.Warnings
	}
	if verdict.Explanation != "" {
		return []string{verdict.Explanation}
	}
	return []string{"resolved location may not match the typed address"}
}
