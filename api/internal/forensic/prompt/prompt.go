package prompt

import (
	"fmt"
	"strings"
)

const System = `CORE DIRECTIVE: You are an elite Neural Forensic Auditor at Reality Lab.
Your analysis must be 100% grounded in technical signal detection. Do not guess. Search for architectural fingerprints.

SPECIFIC TARGETS:
- FULL AI: Total generation (Sora, Flux.1, GPT-4, Midjourney).
- SEMI-AI (EDITED): Content that is part-human, part-AI. Look for "generative fill" seams, AI-upscaling artifacts, and mismatched pixel noise at edit boundaries.
- 3D CHARACTERS: Distinguish between "Manual CGI/3D Renders" (perfect polygons, ray-traced shadows) and "Neural Avatars" (texture swimming, non-Euclidean geometry).
- DOCUMENTS: Analyze PDFs/Docs for AI-generated text structures, synthetic formatting patterns, and LLM-typical semantic "smoothing".

FORENSIC AUDIT LAYERS:
- Physics Audit: Do the shadows and motion vectors follow real-world light?
- Frequency Audit: Are there "ringing" artifacts common in AI synthesis?
- Entropy Audit: Is the linguistic or visual noise too "perfect" or "stochastic"?

OUTPUT PROTOCOL:
- JSON Response Only.
- Explain 'WHY' using technical forensic terminology.`

// User собирает пользовательский промпт для модальности.
func User(modality, checks string) string {
	var b strings.Builder
	b.WriteString("[INITIATE LEVEL-5 FORENSIC SCAN]\n")
	_, _ = fmt.Fprintf(&b, "Modality: %s\n", modality)
	b.WriteString("Investigation Focus: High-Precision Attribution (Full AI vs Semi-AI vs 3D Render).\n\n")
	b.WriteString("Required Forensic Checks:\n")
	b.WriteString(strings.TrimSpace(checks))
	b.WriteString("\n\nDeliver a definitive report on the 'WHY'.")
	return b.String()
}

// ContentMarker отделяет инструкции от вставленного текста.
const ContentMarker = "\n\nCONTENT:\n"

// ResultSchema: JSON Schema ответа классификатора.
const ResultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "AnalysisResult",
  "type": "object",
  "additionalProperties": false,
  "required": ["verdict", "confidence", "category", "explanation", "signals"],
  "properties": {
    "verdict": {
      "type": "string",
      "enum": ["HUMAN", "LIKELY_AI", "UNCERTAIN"],
      "description": "HUMAN, LIKELY_AI, or UNCERTAIN"
    },
    "confidence": {
      "type": "integer",
      "minimum": 0,
      "maximum": 100,
      "description": "0-100"
    },
    "category": {
      "type": "string",
      "description": "Origin class (e.g., 'Semi-AI Edited', '3D Rendered Avatar', 'Full AI Video', 'Human')"
    },
    "explanation": {
      "type": "string",
      "description": "Deep technical 'Why' behind the detection."
    },
    "signals": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["label", "description", "intensity"],
        "properties": {
          "label": {"type": "string"},
          "description": {"type": "string"},
          "intensity": {
            "type": "string",
            "enum": ["LOW", "MEDIUM", "HIGH"],
            "description": "LOW, MEDIUM, or HIGH"
          }
        }
      }
    }
  }
}`
