package agent

import "testing"

func TestRescueIDFromText(t *testing.T) {
	tests := []struct {
		text   string
		wantID int
		wantOK bool
	}{
		{"show me user 42", 42, true},
		{"dealer #17 please", 17, true},
		{"get dvr 5", 5, true},
		{"sales order 1001", 1001, true},
		{"what is report id 88", 88, true},
		{"give me the details of 303", 303, true},
		{"list all dealers", 0, false},
		{"I ordered 10 bags yesterday", 0, false},
	}

	for _, tt := range tests {
		id, ok := rescueIDFromText(tt.text)
		if ok != tt.wantOK || id != tt.wantID {
			t.Errorf("rescueIDFromText(%q) = (%d, %v), want (%d, %v)", tt.text, id, ok, tt.wantID, tt.wantOK)
		}
	}
}

func TestRescueIDFromArgsSkipsNonIntegers(t *testing.T) {
	if _, ok := rescueIDFromArgs(map[string]interface{}{"lat": 26.14, "name": "x"}); ok {
		t.Error("fractional numbers are not IDs")
	}
	id, ok := rescueIDFromArgs(map[string]interface{}{"something": 9.0})
	if !ok || id != 9 {
		t.Errorf("got (%d, %v), want (9, true)", id, ok)
	}
}

func TestApplyIDRescueLeavesPopulatedArgs(t *testing.T) {
	cleaned := map[string]interface{}{"user_id": 3}
	if !applyIDRescue("get_user_by_id", nil, cleaned, 42, true) {
		t.Fatal("populated args need no rescue")
	}
	if cleaned["user_id"] != 3 {
		t.Error("rescue must not overwrite provided args")
	}
}

func TestApplyIDRescueNonIDTool(t *testing.T) {
	if !applyIDRescue("get_dealers_list", nil, map[string]interface{}{}, 0, false) {
		t.Error("non-ID tools never fail rescue")
	}
}

func TestIsConfirmation(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Y", true},
		{"y", true},
		{" y ", true},
		{"\tY\n", true},
		{"yes", false},
		{"Y please", false},
		{"N", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsConfirmation(tt.text); got != tt.want {
			t.Errorf("IsConfirmation(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
