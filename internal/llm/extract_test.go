package llm

import (
	"strings"
	"testing"
)

func TestParseUserInfo(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantMain string
		wantSub  string
		wantErr  bool
	}{
		{
			name:     "plain json",
			raw:      `{"main_category": "laptops", "sub_category": "gaming"}`,
			wantMain: "laptops",
			wantSub:  "gaming",
		},
		{
			name:     "fenced json",
			raw:      "```json\n{\"main_category\": \"laptops\", \"sub_category\": \"\"}\n```",
			wantMain: "laptops",
		},
		{
			name:     "whitespace trimmed",
			raw:      `{"main_category": "  laptops  ", "sub_category": ""}`,
			wantMain: "laptops",
		},
		{
			name:    "not json",
			raw:     "the customer has a laptop",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := parseUserInfo(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseUserInfo: %v", err)
			}
			if info.MainCategory != tt.wantMain || info.SubCategory != tt.wantSub {
				t.Errorf("info = %+v", info)
			}
		})
	}
}

func TestParseGroups(t *testing.T) {
	raw := `[{"statements": ["my printer jams"]}, {"statements": ["about my notebook", "screen flickers"]}]`
	groups, err := parseGroups(raw)
	if err != nil {
		t.Fatalf("parseGroups: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("groups = %d", len(groups))
	}
	last := groups[1]
	if len(last.Statements) != 2 {
		t.Errorf("last group = %+v", last)
	}
	if s, ok := last.Statements[1].(string); !ok || s != "screen flickers" {
		t.Errorf("statement = %v", last.Statements[1])
	}
}

func TestParseGroupsMalformed(t *testing.T) {
	if _, err := parseGroups("no groups here"); err == nil {
		t.Fatal("want error")
	}
}

func TestParseFollowUpClampsConfidence(t *testing.T) {
	res, err := parseFollowUp(`{"is_follow_up": true, "confidence": 1.7}`)
	if err != nil {
		t.Fatalf("parseFollowUp: %v", err)
	}
	if !res.IsFollowUp || res.Confidence != 1 {
		t.Errorf("res = %+v", res)
	}

	res, err = parseFollowUp(`{"is_follow_up": false, "confidence": -0.2}`)
	if err != nil {
		t.Fatalf("parseFollowUp: %v", err)
	}
	if res.IsFollowUp || res.Confidence != 0 {
		t.Errorf("res = %+v", res)
	}
}

func TestNormalizeVerdict(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"1", "1"},
		{"0", "0"},
		{" 1 ", "1"},
		{"```\n1\n```", "1"},
		{`"0"`, "0"},
		{"yes it is supported", "yes it is supported"},
	}
	for _, tt := range tests {
		if got := normalizeVerdict(tt.raw); got != tt.want {
			t.Errorf("normalizeVerdict(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestStripCodeFences(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	if got := stripCodeFences(in); got != `{"a": 1}` {
		t.Errorf("got %q", got)
	}
	if got := stripCodeFences("plain"); got != "plain" {
		t.Errorf("got %q", got)
	}
}

func TestFormatHistoryNumbersOldestFirst(t *testing.T) {
	out := formatHistory([]string{"first", "second"})
	if !strings.Contains(out, "1. first") || !strings.Contains(out, "2. second") {
		t.Errorf("out = %q", out)
	}
	if strings.Index(out, "1. first") > strings.Index(out, "2. second") {
		t.Error("history out of order")
	}
}
