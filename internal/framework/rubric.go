package framework

import (
	"fmt"
	"slices"
	"strings"
)

// SubCriterion is one scored question inside a layer. EvaluationMechanic is the
// binding step-by-step scoring procedure and is rendered verbatim.
type SubCriterion struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Question           string `json:"question"`
	ScoreType          string `json:"score_type"`
	FailCondition      string `json:"fail_condition"`
	EvaluationMechanic string `json:"evaluation_mechanic"`
}

// Layer is one of the six rubric layers, A through F.
type Layer struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	SubCriteria []SubCriterion `json:"sub_criteria"`
}

var layers = []Layer{
	{
		ID:   "A",
		Name: "Emotional Prediction",
		SubCriteria: []SubCriterion{
			{
				ID:            "A1",
				Name:          "Emotional Response Strength",
				Question:      "Does the creative generate clear, positive emotion within the first 2–3 seconds? Is the emotion felt, not explained?",
				ScoreType:     "1-5",
				FailCondition: "Flat, neutral, or confusion-led response",
				EvaluationMechanic: `1) Isolate only the first exposure viewing.
2) Examine the first 2–3 seconds independently of narrative context.
3) Identify whether a recognisable emotion is immediately present without verbal or cognitive explanation.
4) Apply the following test: if the emotion cannot be named without explaining the story, cap score at 2.
5) Assign score based on immediacy and clarity of affective signal.
6) Lock score before proceeding.`,
			},
			{
				ID:            "A2",
				Name:          "Type of Emotion Quality",
				Question:      "Is the emotion conducive to memory formation and future choice (e.g. warmth, amusement, pride), not just surprise or shock? Does it align with brand personality?",
				ScoreType:     "weak/moderate/strong",
				FailCondition: "Emotion entertains but does not attach to the brand",
				EvaluationMechanic: `1) Identify the single dominant emotion from a fixed set (warmth, joy, amusement, reassurance, excitement, surprise, tension, other).
2) Exclude mixed or sequential emotions; select the strongest.
3) Test brand linkage: ask whether this emotion could credibly belong to multiple competing brands.
4) If yes, cap at Moderate.
5) Cross-check alignment with brand personality and category norms.
6) Assign final rating and lock.`,
			},
			{
				ID:            "A3",
				Name:          "Emotional Sustainability",
				Question:      "Would the emotion remain effective after multiple exposures? Is it irritation-resistant?",
				ScoreType:     "low/medium/high",
				FailCondition: "Joke-dependent or novelty-dependent creative",
				EvaluationMechanic: `1) Identify the emotional trigger mechanism (story, character, relationship, gag, reveal).
2) Simulate second and third exposure without surprise.
3) If emotional payoff depends on a twist, punchline, or reveal, score Low.
4) If emotion is character- or relationship-led, score Medium or High.
5) Assign score based on durability, not intensity.
6) Lock result.`,
			},
		},
	},
	{
		ID:   "B",
		Name: "Brand Linkage & Distinctiveness",
		SubCriteria: []SubCriterion{
			{
				ID:            "B1",
				Name:          "Brand Attribution Speed (Fluency)",
				Question:      "Can the brand be recognised instantly and confidently? Are distinctive brand assets clearly and early embedded?",
				ScoreType:     "poor/adequate/strong",
				FailCondition: `"Great ad, wrong brand" risk`,
				EvaluationMechanic: `1) Remove brand identifiers mentally.
2) Ask unaided: "Which brand is this for?" within first moments.
3) Assess timing and integration of distinctive assets.
4) If branding appears only at end or as overlay, cap at Adequate.
5) If misattribution is plausible, score Poor.
6) Lock score.`,
			},
			{
				ID:            "B2",
				Name:          "Memory Structure Contribution (Ehrenberg-Bass)",
				Question:      "Does this creative reinforce category entry cues or distinctive brand assets? Will it increase mental availability beyond this campaign?",
				ScoreType:     "no/partial/yes",
				FailCondition: "One-off idea with no memory continuity",
				EvaluationMechanic: `1) List known category entry cues and brand assets.
2) Map creative elements to those cues.
3) If no clear linkage exists, score No.
4) If linkage is present but inconsistent, score Partial.
5) If creative strengthens existing memory structures, score Yes.
6) Lock result.`,
			},
		},
	},
	{
		ID:   "C",
		Name: "Strategic Effectiveness Fit (Binet & Field)",
		SubCriteria: []SubCriterion{
			{
				ID:            "C1",
				Name:          "Objective Alignment",
				Question:      "Is the creative clearly optimised for Long-term brand building, Short-term activation, or is it confused?",
				ScoreType:     "clear/mixed/misaligned",
				FailCondition: "Brand-style work forced into activation roles (or vice versa)",
				EvaluationMechanic: `1) Identify dominant mechanism: emotional priming or behavioural trigger.
2) Compare mechanism to stated objective.
3) If mechanisms conflict, score Misaligned.
4) If one dominates but secondary signals interfere, score Mixed.
5) Assign Clear only when all elements support the same objective.
6) Lock score.`,
			},
			{
				ID:            "C2",
				Name:          "Expected Effect Duration",
				Question:      "Will impact persist beyond the media window?",
				ScoreType:     "short-lived/moderate/enduring",
				FailCondition: "Campaign requires constant spend to function",
				EvaluationMechanic: `1) Assess whether creative builds memory or relies on reminders.
2) If offer-, price-, or urgency-led only, score Short-lived.
3) If some memory effects present, score Moderate.
4) If creative clearly builds long-term associations, score Enduring.
5) Lock result.`,
			},
		},
	},
	{
		ID:   "D",
		Name: "Attention & Delivery Realism",
		SubCriteria: []SubCriterion{
			{
				ID:            "D1",
				Name:          "Attention Probability",
				Question:      "In the actual media environment, will this creative likely be noticed? Does it earn attention rather than assume it?",
				ScoreType:     "low/medium/high",
				FailCondition: "Relies on forced exposure assumptions",
				EvaluationMechanic: `1) Identify primary channel and viewing conditions.
2) Evaluate creative against scroll speed, clutter, sound defaults.
3) If attention relies on media weight alone, score Low.
4) If creative earns attention through pattern-break or relevance, score Medium or High.
5) Lock score.`,
			},
			{
				ID:            "D2",
				Name:          "Early Frame Performance",
				Question:      "Are the opening frames strong enough for scroll environments?",
				ScoreType:     "weak/adequate/strong",
				FailCondition: "Slow-burn concepts in fast-scroll contexts",
				EvaluationMechanic: `1) Isolate opening frames.
2) Check for immediate intrigue, brand cue, or disruption.
3) If none present, score Weak.
4) If present but delayed, score Adequate.
5) If immediate and compelling, score Strong.
6) Lock result.`,
			},
		},
	},
	{
		ID:   "E",
		Name: "Comprehension & Persuasion",
		SubCriteria: []SubCriterion{
			{
				ID:            "E1",
				Name:          "Message Take-Out Accuracy",
				Question:      "Would a typical viewer correctly articulate the intended benefit or idea?",
				ScoreType:     "clear/partial/unclear",
				FailCondition: "Ambiguity about what the brand is offering",
				EvaluationMechanic: `1) Elicit unaided take-out.
2) List all plausible interpretations.
3) If more than one materially different interpretation exists, cap at Partial.
4) If take-out is incorrect or vague, score Unclear.
5) Lock score.`,
			},
			{
				ID:            "E2",
				Name:          "Barrier Resolution (JTBD Logic)",
				Question:      "Does the creative resolve a real psychological or practical barrier?",
				ScoreType:     "no/somewhat/clearly",
				FailCondition: "Emotional but non-persuasive work",
				EvaluationMechanic: `1) Identify the primary barrier (cost, effort, trust, relevance).
2) Assess whether creative materially reduces that barrier.
3) If not addressed, score No.
4) If partially reduced, score Somewhat.
5) If clearly resolved, score Clearly.
6) Lock result.`,
			},
		},
	},
	{
		ID:   "F",
		Name: "Commercial & Operational Risk",
		SubCriteria: []SubCriterion{
			{
				// Higher rating means more risk.
				ID:            "F1",
				Name:          "Wear-Out Risk",
				Question:      "Will performance decay quickly due to repetition?",
				ScoreType:     "low/medium/high",
				FailCondition: "High wear-out with no variant strategy",
				EvaluationMechanic: `1) Identify dependence on novelty or single execution.
2) Assess modularity and variant potential.
3) If no variant path exists, score High risk.
4) Lock result.`,
			},
			{
				ID:            "F2",
				Name:          "Reputational / Regulatory Risk",
				Question:      "Any plausible backlash, compliance, or trust risks?",
				ScoreType:     "none/manageable/material",
				FailCondition: "Material risk without mitigation",
				EvaluationMechanic: `1) Stress-test against regulatory codes and cultural sensitivity.
2) Identify plausible misinterpretation scenarios.
3) If mitigation is absent or unclear, score Material.
4) Lock result.`,
			},
		},
	},
}

// AllLayers returns the rubric in layer order.
func AllLayers() []Layer {
	out := make([]Layer, len(layers))
	for i, l := range layers {
		out[i] = l.clone()
	}
	return out
}

// LayerByID looks up a layer by its letter.
func LayerByID(id string) (Layer, bool) {
	for _, l := range layers {
		if l.ID == id {
			return l.clone(), true
		}
	}
	return Layer{}, false
}

// LayersFor resolves a role's layer ids, skipping unknown ones and keeping the
// caller's order.
func LayersFor(ids []string) []Layer {
	out := make([]Layer, 0, len(ids))
	for _, id := range ids {
		if l, ok := LayerByID(id); ok {
			out = append(out, l)
		}
	}
	return out
}

// RenderLayers renders the layers as the framework section of a role prompt.
func RenderLayers(ls []Layer) string {
	sections := make([]string, 0, len(ls))
	for _, layer := range ls {
		var b strings.Builder
		fmt.Fprintf(&b, "## LAYER %s — %s\n\n", layer.ID, strings.ToUpper(layer.Name))
		for _, sc := range layer.SubCriteria {
			fmt.Fprintf(&b, "### %s. %s\n", sc.ID, sc.Name)
			fmt.Fprintf(&b, "**Question**: %s\n", sc.Question)
			fmt.Fprintf(&b, "**Score Type**: %s\n", sc.ScoreType)
			fmt.Fprintf(&b, "**Fail Condition**: %s\n\n", sc.FailCondition)
			fmt.Fprintf(&b, "**Evaluation Mechanic**:\n%s\n\n", sc.EvaluationMechanic)
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n---\n\n")
}

// ScoringInstructions is the fixed output contract every role must follow.
func ScoringInstructions() string {
	return scoringInstructions
}

const scoringInstructions = "\n## SCORING OUTPUT FORMAT (STRICT)\n\n" +
	"You must return your evaluation in the following JSON structure:\n\n" +
	"```json\n" +
	`{
  "result": "PASS" or "FAIL",
  "score": 0-10 (only if PASS, null if FAIL),
  "confidence": 0.0-1.0,
  "justification": "Comprehensive analysis including:\n1. KEY DISCOVERIES: What specific details stand out?\n2. STRATEGIC REASONING: Why does this succeed or fail?\n3. EVIDENCE: Direct quotes or descriptions from the creative",
  "layer_scores": {
    "<layer_id>": {
      "verdict": "Pass" or "Weak Pass" or "Fail",
      "sub_scores": {
        "<criterion_id>": "<score_value>",
        ...
      },
      "fail_conditions": ["list any triggered fail conditions"],
      "evidence_notes": ["factual observations only"]
    },
    ...
  }
}
` + "```\n" + `
RULES:
- Score only the layers within your defined remit
- Lock each score before proceeding to the next
- PROVIDE DEEP ANALYSIS. Do not be superficial.
- Explain WHAT you discovered and WHY it matters.
- Justification must be detailed and referenced.
`

func (l Layer) clone() Layer {
	l.SubCriteria = slices.Clone(l.SubCriteria)
	return l
}
