package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/brixta-dev/cemtemchat/pkg/logger"
)

// Write operations are never executed off the model's tool-call channel.
// Instead the model emits the full argument object inline, wrapped in
// markers, alongside its human-readable confirmation summary. The host
// extracts and stages the payload, strips the markers, and executes only
// after the user replies "Y".
var payloadRegex = regexp.MustCompile(`(?s)\[TOOL_ARGS_JSON\](.*?)\[/TOOL_ARGS_JSON\]`)

// maxPayloadChars bounds how much marker content we are willing to parse.
// Anything larger is left in the reply untouched.
const maxPayloadChars = 50000

// targetToolKey is an explicit hint the model may include in the payload
// naming the write tool. It is consumed by classification and removed
// before the payload reaches the gateway.
const targetToolKey = "targetTool"

const fallbackWriteTool = "post_sales_order"

// writeTools is the closed set of POST operations a staged payload may
// resolve to. Hints naming anything else are ignored.
var writeTools = map[string]struct{}{
	"post_tvr_report":  {},
	"post_dvr_report":  {},
	"post_sales_order": {},
}

// ExtractPending scans a final model reply for a staged write payload.
// When one is found it returns the reply with the markers removed, the
// resolved tool name, the parsed payload, and true. Otherwise the reply
// comes back unchanged.
func ExtractPending(reply string) (string, string, map[string]interface{}, bool) {
	m := payloadRegex.FindStringSubmatch(reply)
	if m == nil {
		return reply, "", nil, false
	}

	candidate := strings.TrimSpace(m[1])
	if len(candidate) > maxPayloadChars {
		logger.WarnCF("agent", "Staged payload exceeds size cap, leaving reply untouched", map[string]interface{}{
			"size": len(candidate),
		})
		return reply, "", nil, false
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &payload); err != nil {
		logger.WarnCF("agent", "Failed to parse staged payload", map[string]interface{}{
			"error": err.Error(),
		})
		return reply, "", nil, false
	}
	if payload == nil {
		logger.WarnC("agent", "Staged payload is JSON null, leaving reply untouched")
		return reply, "", nil, false
	}

	tool := classifyWriteTool(payload)
	delete(payload, targetToolKey)

	display := strings.TrimSpace(payloadRegex.ReplaceAllString(reply, ""))
	return display, tool, payload, true
}

// classifyWriteTool resolves which POST tool a staged payload belongs to.
// An explicit targetTool hint wins; otherwise the payload is matched by the
// required fields unique to each write operation, most specific first.
func classifyWriteTool(payload map[string]interface{}) string {
	if hint, ok := payload[targetToolKey].(string); ok {
		if _, known := writeTools[hint]; known {
			return hint
		}
		if hint != "" {
			logger.WarnCF("agent", "Ignoring unknown write tool hint", map[string]interface{}{
				"hint": hint,
			})
		}
	}

	has := func(key string) bool {
		_, ok := payload[key]
		return ok
	}

	switch {
	case has("siteNameConcernedPerson") && has("clientsRemarks"):
		return "post_tvr_report"
	case has("dealerTotalPotential") && has("todayCollectionRupees"):
		return "post_dvr_report"
	case has("orderTotal") && has("estimatedDelivery"):
		return "post_sales_order"
	}

	logger.WarnC("agent", "Write tool heuristic fallback triggered")
	return fallbackWriteTool
}

// formatSubmitSuccess builds the user-facing confirmation of an executed
// write. The raw gateway result follows the headline, pretty-printed when
// it is valid JSON.
func formatSubmitSuccess(tool, result string) string {
	var sb strings.Builder
	sb.WriteString("✅ **")
	sb.WriteString(toolTitle(tool))
	sb.WriteString(" successfully submitted!**\n\n")

	var pretty map[string]interface{}
	if err := json.Unmarshal([]byte(result), &pretty); err == nil {
		if data, err := json.MarshalIndent(pretty, "", "  "); err == nil {
			sb.Write(data)
			return sb.String()
		}
	}
	sb.WriteString(result)
	return sb.String()
}

func formatSubmitFailure(tool string, err error) string {
	return "❌ Submission Failed for " + tool + ":\n" + err.Error()
}

// toolTitle turns "post_dvr_report" into "Post Dvr Report".
func toolTitle(tool string) string {
	words := strings.Split(tool, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
