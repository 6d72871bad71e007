package parsers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/manmitra-core/server/internal/agent/model"
	errx "github.com/manmitra-core/server/internal/core/error"
	logx "github.com/manmitra-core/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 16 * 1024
	maxReasonLen  = 500
	maxErrSnippet = 200
)

// ErrMalformedVerdict marks model output that is not a usable verdict.
var ErrMalformedVerdict = errors.New("malformed moderation verdict")

type rawVerdict struct {
	Decision   *string          `json:"decision"`
	Confidence *json.RawMessage `json:"confidence"`
	Reason     *string          `json:"reason"`
}

// ParseModerationVerdict decodes a {decision, confidence, reason} object,
// optionally wrapped in a Markdown code fence. Every field is required;
// confidence is clamped into [0,1].
func ParseModerationVerdict(content string) (res *model.ModerationResult, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "moderation_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("moderation parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			res = nil
		}
	}()

	if len(content) > maxContentLen {
		return nil, malformed("content too large (%d bytes)", len(content))
	}
	if !utf8.ValidString(content) {
		return nil, malformed("content invalid utf8")
	}

	body := stripCodeFence(content)
	if !strings.HasPrefix(body, "{") || !strings.HasSuffix(body, "}") {
		return nil, malformed("not a json object: %s", safeSnippet(body))
	}

	var raw rawVerdict
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&raw); err != nil {
		return nil, malformed("decode: %v", err)
	}

	if raw.Decision == nil {
		return nil, malformed("missing decision")
	}
	decision := model.Decision(strings.ToLower(strings.TrimSpace(*raw.Decision)))
	if decision != model.DecisionAllow && decision != model.DecisionBlock {
		return nil, malformed("unknown decision %q", safeSnippet(*raw.Decision))
	}

	if raw.Confidence == nil {
		return nil, malformed("missing confidence")
	}
	conf, err := parseConfidence(*raw.Confidence)
	if err != nil {
		return nil, err
	}

	if raw.Reason == nil || strings.TrimSpace(*raw.Reason) == "" {
		return nil, malformed("missing reason")
	}
	reason := strings.TrimSpace(*raw.Reason)
	if utf8.RuneCountInString(reason) > maxReasonLen {
		reason = string([]rune(reason)[:maxReasonLen])
	}

	return &model.ModerationResult{
		Decision:   decision,
		Confidence: conf,
		Reason:     reason,
		Method:     model.MethodModel,
	}, nil
}

// parseConfidence accepts a JSON number or a numeric string.
func parseConfidence(raw json.RawMessage) (float64, error) {
	s := string(bytes.TrimSpace(raw))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, malformed("confidence parse: %v", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, malformed("confidence invalid number")
	}
	return math.Max(0, math.Min(1, v)), nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx != -1 {
		trimmed = trimmed[idx+1:]
	}
	if end := strings.LastIndex(trimmed, "```"); end != -1 {
		trimmed = trimmed[:end]
	}
	return strings.TrimSpace(trimmed)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedVerdict, fmt.Sprintf(format, args...))
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
