package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"alfredoptarigan/creative-evaluator/internal/framework"
	"alfredoptarigan/creative-evaluator/internal/models"
)

const (
	fallbackScore         = 5.0
	fallbackConfidence    = 0.3
	defaultConfidence     = 0.5
	fallbackJustification = "Failed to parse response"
	missingJustification  = "No justification provided"
	maxBraceCandidates    = 32
)

var (
	// \x60 is a backtick; raw strings cannot hold one.
	fencedJSONRegex = regexp.MustCompile("(?s)\x60\x60\x60json\\s*(.*?)\x60\x60\x60")
	fencedAnyRegex  = regexp.MustCompile("(?s)\x60\x60\x60[a-zA-Z0-9_+-]*\\s*(.*?)\x60\x60\x60")
)

// ParsedVerdict is the structured form of one model reply.
type ParsedVerdict struct {
	Result        models.RoleResult
	Score         *float64
	Confidence    float64
	Justification string
	LayerScores   []models.LayerScore
	// Unparsed is set when the reply held no decodable JSON object.
	Unparsed bool
}

// ParseVerdict never fails. Replies without a decodable object degrade to a
// neutral low-confidence PASS.
func ParseVerdict(raw string) ParsedVerdict {
	obj, ok := ExtractJSONObject(raw)
	if !ok {
		return fallbackVerdict()
	}
	return verdictFromObject(obj)
}

func fallbackVerdict() ParsedVerdict {
	score := fallbackScore
	return ParsedVerdict{
		Result:        models.ResultPass,
		Score:         &score,
		Confidence:    fallbackConfidence,
		Justification: fallbackJustification,
		Unparsed:      true,
	}
}

// ExtractJSONObject runs the extraction chain: fenced json block, any fenced
// block, strict decode, then the first balanced brace span.
func ExtractJSONObject(raw string) (map[string]any, bool) {
	candidate := raw
	if block, ok := fencedJSONBlock(raw); ok {
		candidate = block
	} else if block, ok := fencedAnyBlock(raw); ok {
		candidate = block
	}

	if obj, ok := decodeObject(candidate); ok {
		return obj, true
	}
	if obj, ok := firstBalancedObject(candidate); ok {
		return obj, true
	}
	if candidate != raw {
		return firstBalancedObject(raw)
	}
	return nil, false
}

func fencedJSONBlock(text string) (string, bool) {
	return firstSubmatch(fencedJSONRegex, text)
}

func fencedAnyBlock(text string) (string, bool) {
	return firstSubmatch(fencedAnyRegex, text)
}

func firstSubmatch(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	inner := strings.TrimSpace(m[1])
	return inner, inner != ""
}

func decodeObject(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// firstBalancedObject tries each balanced {...} span in order of its opening
// brace and returns the first that decodes.
func firstBalancedObject(text string) (map[string]any, bool) {
	offset := 0
	for attempt := 0; attempt < maxBraceCandidates; attempt++ {
		start := strings.IndexByte(text[offset:], '{')
		if start < 0 {
			return nil, false
		}
		start += offset
		if span, ok := balancedSpan(text, start); ok {
			if obj, ok := decodeObject(span); ok {
				return obj, true
			}
		}
		offset = start + 1
	}
	return nil, false
}

// balancedSpan returns text[start:end] where end closes the brace at start.
// Braces inside JSON strings are ignored.
func balancedSpan(text string, start int) (string, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func verdictFromObject(obj map[string]any) ParsedVerdict {
	v := ParsedVerdict{
		Result:        models.ResultPass,
		Confidence:    defaultConfidence,
		Justification: missingJustification,
	}

	if s, ok := obj["result"].(string); ok && strings.EqualFold(strings.TrimSpace(s), string(models.ResultFail)) {
		v.Result = models.ResultFail
	}

	if score, ok := asFloat(obj["score"]); ok && v.Result == models.ResultPass {
		score = clamp(score, 0, 10)
		v.Score = &score
	}

	if conf, ok := asFloat(obj["confidence"]); ok {
		v.Confidence = clamp(conf, 0, 1)
	}

	switch j := obj["justification"].(type) {
	case string:
		if strings.TrimSpace(j) != "" {
			v.Justification = j
		}
	case nil:
	default:
		v.Justification = fmt.Sprint(j)
	}

	v.LayerScores = parseLayerScores(obj["layer_scores"])
	return v
}

// parseLayerScores accepts either a map keyed by layer id or a list of objects
// carrying layer_id. Output is sorted by layer id.
func parseLayerScores(raw any) []models.LayerScore {
	entries := map[string]map[string]any{}

	switch data := raw.(type) {
	case map[string]any:
		for id, v := range data {
			if m, ok := v.(map[string]any); ok {
				entries[strings.TrimSpace(id)] = m
			} else {
				entries[strings.TrimSpace(id)] = map[string]any{}
			}
		}
	case []any:
		for _, v := range data {
			m, ok := v.(map[string]any)
			if !ok {
				continue
			}
			if id, ok := m["layer_id"].(string); ok && strings.TrimSpace(id) != "" {
				entries[strings.TrimSpace(id)] = m
			}
		}
	}

	ids := make([]string, 0, len(entries))
	for id := range entries {
		if id != "" {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	scores := make([]models.LayerScore, 0, len(ids))
	for _, id := range ids {
		scores = append(scores, layerScoreFrom(id, entries[id]))
	}
	return scores
}

func layerScoreFrom(id string, data map[string]any) models.LayerScore {
	ls := models.LayerScore{
		LayerID:        id,
		LayerName:      fmt.Sprintf("Layer %s", id),
		SubScores:      map[string]any{},
		FailConditions: asStrings(data["fail_conditions"]),
		EvidenceNotes:  asStrings(data["evidence_notes"]),
		Verdict:        parseLayerVerdict(data["verdict"]),
	}

	if layer, ok := framework.LayerByID(id); ok {
		ls.LayerName = layer.Name
	} else if name, ok := data["name"].(string); ok && name != "" {
		ls.LayerName = name
	}

	if subs, ok := data["sub_scores"].(map[string]any); ok {
		for k, v := range subs {
			ls.SubScores[k] = v
		}
	}
	return ls
}

func parseLayerVerdict(raw any) models.LayerVerdict {
	s, _ := raw.(string)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fail":
		return models.LayerFail
	case "weak pass", "weak_pass", "weakpass":
		return models.LayerWeakPass
	default:
		return models.LayerPass
	}
}

func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func asStrings(raw any) []string {
	list, ok := raw.([]any)
	if !ok {
		if s, ok := raw.(string); ok && strings.TrimSpace(s) != "" {
			return []string{s}
		}
		return []string{}
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				out = append(out, v)
			}
		case nil:
		default:
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
