/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package oracle

import (
	"encoding/json"
	"fmt"
	"strings"
)

const systemPrompt = "You are a medical data normalizer. Reply with a single JSON object and nothing else."

const promptHeader = `You are a medical data normalizer. Your task is to standardize a list of given parameter names into common, well-defined medical terms.
Consider common abbreviations, synonyms, and variations in terminology.
Return a JSON object where the keys are the original parameter names and the values are the standardized parameter names.

Here are some examples of the desired standardization:
{
    "Cholesterol - Total": "Total Cholesterol",
    "Cholesterol, LDL": "LDL Cholesterol",
    "Hb": "Hemoglobin",
    "AST (SGOT)": "AST",
    "T Bilirubin": "Total Bilirubin",
    "triglyceride": "Triglycerides",
    "glucose - fasting": "Fasting Glucose",
    "vitamin d (25-oh)": "Vitamin D",
    "aspartate transaminase (sgot)": "AST",
    "Cholesterol - HDL": "HDL Cholesterol",
    "Cholesterol - LDL": "LDL Cholesterol",
    "Cholesterol- VLDL": "VLDL Cholesterol",
    "Non HDL Cholesterol": "Non-HDL Cholesterol",
    "Testosterone, total": "Total Testosterone",
    "LDL Cholesterol": "LDL Cholesterol",
    "HDL Cholesterol": "HDL Cholesterol",
    "VLDL Cholesterol": "VLDL Cholesterol",
    "ALT (SGPT)": "ALT",
    "SGPT (Alanine transaminase)": "ALT",
    "SGOT (Aspartate transaminase)": "AST",
    "Glycosylated Hemoglobin (HbA1c)": "Hemoglobin A1c"
}

Provide the results *only* as a valid JSON object. Ensure that all keys and values are enclosed in double quotes.
Do not include any other text or explanations, code blocks, or markdown formatting. Output a parsable JSON string.

Here is the JSON:

`

// BuildPrompt returns the normalization prompt for names: the instructions
// and examples followed by a JSON object with every name as a key and an
// empty value to fill in.
func BuildPrompt(names []string) string {
	var sb strings.Builder

	sb.WriteString(promptHeader)
	sb.WriteString("{\n")

	for i, name := range names {
		key, _ := json.Marshal(name)

		sb.WriteString(fmt.Sprintf("    %s: \"\"", key))

		if i < len(names)-1 {
			sb.WriteString(",")
		}

		sb.WriteString("\n")
	}

	sb.WriteString("}")

	return sb.String()
}

// ParseResponse decodes a model reply into a raw to canonical mapping.
// Markdown code fences around the object are tolerated. Anything other than
// a JSON object of string to string is ErrMalformedResponse.
func ParseResponse(text string) (map[string]string, error) {
	text = stripCodeFence(strings.TrimSpace(text))

	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return nil, fmt.Errorf("%w: reply is not a JSON object", ErrMalformedResponse)
	}

	var reply map[string]*string
	if err := json.Unmarshal([]byte(text), &reply); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	out := make(map[string]string, len(reply))

	for raw, canonical := range reply {
		if canonical == nil {
			continue
		}

		out[raw] = strings.TrimSpace(*canonical)
	}

	return out, nil
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	text = strings.TrimPrefix(text, "json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}
