package agent

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Free-tier models frequently call the get-by-id tools with empty or junk
// arguments. The rescue path recovers the ID two ways: any integer left in
// the raw (pre-sanitization) arguments, then a number spotted in the user's
// own message text.
var idPattern = regexp.MustCompile(`(?i)(?:user|dealer|report|dvr|tvr|sales order|sales|order|id)\s*#?\s*(\d+)|(\d+)\s*$`)

// rescueKeys maps each get-by-id tool to the argument name its backend
// expects.
var rescueKeys = map[string]string{
	"get_user_by_id":        "user_id",
	"get_dealer_by_id":      "dealer_id",
	"get_dvr_report_by_id":  "reportId",
	"get_tvr_report_by_id":  "reportId",
	"get_sales_order_by_id": "orderId",
}

// rescueIDFromText extracts a likely record ID from a user message: a number
// following an ID keyword, or a bare number at the end of the message.
func rescueIDFromText(text string) (int, bool) {
	m := idPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	idStr := m[1]
	if idStr == "" {
		idStr = m[2]
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, false
	}
	return id, true
}

// rescueIDFromArgs returns the first integral number found in the raw
// argument map.
func rescueIDFromArgs(raw map[string]interface{}) (int, bool) {
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			continue
		}
		if f != math.Trunc(f) {
			continue
		}
		return int(f), true
	}
	return 0, false
}

// applyIDRescue fills in the required ID argument for a get-by-id call whose
// sanitized arguments came out empty. The boolean reports whether the call
// is usable afterwards.
func applyIDRescue(tool string, raw, cleaned map[string]interface{}, textID int, hasTextID bool) bool {
	key, ok := rescueKeys[tool]
	if !ok {
		return true
	}
	if len(cleaned) > 0 {
		return true
	}

	if id, ok := rescueIDFromArgs(raw); ok {
		cleaned[key] = id
		return true
	}
	if hasTextID {
		cleaned[key] = textID
		return true
	}
	return false
}

// IsConfirmation reports whether a user message is the affirmative reply
// that releases a staged write. Only a lone "Y", any case, counts.
func IsConfirmation(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "y")
}
