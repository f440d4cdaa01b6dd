package agent

import (
	"strings"
	"testing"
)

func TestExtractPendingClassification(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantTool string
	}{
		{
			name:     "tvr by signature",
			payload:  `{"siteNameConcernedPerson":"Mr. Das","clientsRemarks":"good","userId":1}`,
			wantTool: "post_tvr_report",
		},
		{
			name:     "dvr by signature",
			payload:  `{"dealerTotalPotential":120.0,"todayCollectionRupees":5000.0,"userId":1}`,
			wantTool: "post_dvr_report",
		},
		{
			name:     "sales order by signature",
			payload:  `{"orderTotal":75000.0,"estimatedDelivery":"2026-09-10","dealerId":"D12"}`,
			wantTool: "post_sales_order",
		},
		{
			name:     "explicit hint wins over signature",
			payload:  `{"targetTool":"post_dvr_report","orderTotal":1.0,"estimatedDelivery":"2026-09-10"}`,
			wantTool: "post_dvr_report",
		},
		{
			name:     "unknown signature falls back to sales order",
			payload:  `{"foo":"bar"}`,
			wantTool: "post_sales_order",
		},
		{
			name:     "hint outside the write set is ignored",
			payload:  `{"targetTool":"get_users_list","orderTotal":1.0,"estimatedDelivery":"2026-09-10"}`,
			wantTool: "post_sales_order",
		},
		{
			name:     "hint outside the write set with no signature falls back",
			payload:  `{"targetTool":"delete_everything","foo":"bar"}`,
			wantTool: "post_sales_order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := "Summary here. [TOOL_ARGS_JSON]" + tt.payload + "[/TOOL_ARGS_JSON]"
			display, tool, payload, staged := ExtractPending(reply)
			if !staged {
				t.Fatal("expected payload to be staged")
			}
			if tool != tt.wantTool {
				t.Errorf("tool = %q, want %q", tool, tt.wantTool)
			}
			if strings.Contains(display, "TOOL_ARGS_JSON") {
				t.Errorf("markers left in display: %q", display)
			}
			if _, ok := payload[targetToolKey]; ok {
				t.Error("targetTool hint must be removed from the payload")
			}
		})
	}
}

func TestExtractPendingTVRBeatsDVRBeatsSales(t *testing.T) {
	// A payload carrying all three signatures resolves to the most specific
	// report type.
	payload := `{"siteNameConcernedPerson":"x","clientsRemarks":"y","dealerTotalPotential":1.0,"todayCollectionRupees":2.0,"orderTotal":3.0,"estimatedDelivery":"2026-01-01"}`
	_, tool, _, staged := ExtractPending("[TOOL_ARGS_JSON]" + payload + "[/TOOL_ARGS_JSON]")
	if !staged || tool != "post_tvr_report" {
		t.Errorf("got tool %q, want post_tvr_report", tool)
	}
}

func TestExtractPendingNoMarkers(t *testing.T) {
	display, _, _, staged := ExtractPending("Just a plain answer.")
	if staged {
		t.Error("nothing should be staged without markers")
	}
	if display != "Just a plain answer." {
		t.Errorf("reply changed: %q", display)
	}
}

func TestExtractPendingMalformedJSON(t *testing.T) {
	reply := "Summary. [TOOL_ARGS_JSON]{broken[/TOOL_ARGS_JSON]"
	display, _, _, staged := ExtractPending(reply)
	if staged {
		t.Error("malformed payload must not stage")
	}
	if display != reply {
		t.Errorf("reply must come back unchanged, got %q", display)
	}
}

func TestExtractPendingNonObjectPayload(t *testing.T) {
	reply := `[TOOL_ARGS_JSON]["a","b"][/TOOL_ARGS_JSON]`
	if _, _, _, staged := ExtractPending(reply); staged {
		t.Error("non-object payload must not stage")
	}
}

func TestExtractPendingNullPayload(t *testing.T) {
	reply := "Confirm? [TOOL_ARGS_JSON]null[/TOOL_ARGS_JSON]"
	display, _, _, staged := ExtractPending(reply)
	if staged {
		t.Error("null payload must not stage")
	}
	if display != reply {
		t.Errorf("reply must come back unchanged, got %q", display)
	}
}

func TestExtractPendingOversizedPayload(t *testing.T) {
	big := strings.Repeat("a", maxPayloadChars+1)
	reply := `[TOOL_ARGS_JSON]{"k":"` + big + `"}[/TOOL_ARGS_JSON]`
	display, _, _, staged := ExtractPending(reply)
	if staged {
		t.Error("oversized payload must not stage")
	}
	if display != reply {
		t.Error("oversized payload must leave reply untouched")
	}
}

func TestExtractPendingMultiline(t *testing.T) {
	reply := "Ready to submit.\n[TOOL_ARGS_JSON]\n{\n  \"orderTotal\": 10.0,\n  \"estimatedDelivery\": \"2026-09-10\"\n}\n[/TOOL_ARGS_JSON]\nReply Y or N."
	display, tool, payload, staged := ExtractPending(reply)
	if !staged {
		t.Fatal("expected multiline payload to stage")
	}
	if tool != "post_sales_order" {
		t.Errorf("tool = %q", tool)
	}
	if payload["orderTotal"] != 10.0 {
		t.Errorf("payload = %v", payload)
	}
	if display != "Ready to submit.\n\nReply Y or N." {
		t.Errorf("display = %q", display)
	}
}

func TestToolTitle(t *testing.T) {
	if got := toolTitle("post_sales_order"); got != "Post Sales Order" {
		t.Errorf("toolTitle = %q", got)
	}
}

func TestFormatSubmitSuccessPrettyPrintsJSON(t *testing.T) {
	out := formatSubmitSuccess("post_dvr_report", `{"id":99}`)
	if !strings.HasPrefix(out, "✅ **Post Dvr Report successfully submitted!**\n\n") {
		t.Errorf("headline wrong: %q", out)
	}
	if !strings.Contains(out, "\"id\": 99") {
		t.Errorf("result not pretty-printed: %q", out)
	}
}

func TestFormatSubmitSuccessNonJSONResult(t *testing.T) {
	out := formatSubmitSuccess("post_tvr_report", "created")
	if !strings.Contains(out, "created") {
		t.Errorf("raw result missing: %q", out)
	}
}
