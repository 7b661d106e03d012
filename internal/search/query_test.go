package search

import "testing"

func TestQuoteTerm(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single word passes through", in: "Paris", want: "Paris"},
		{name: "single word keeps quotes", in: `say"hi`, want: `say"hi`},
		{name: "phrase is quoted", in: "Clinton flew", want: `"Clinton flew"`},
		{name: "embedded quotes doubled", in: `the "big" one`, want: `"the ""big"" one"`},
		{name: "leading space makes a phrase", in: " Paris", want: `" Paris"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuoteTerm(tt.in); got != tt.want {
				t.Errorf("QuoteTerm(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildMatchQuery(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		scope Scope
		want  string
	}{
		{name: "content term", text: "Paris", scope: ScopeContent, want: "content:Paris"},
		{name: "content phrase", text: "Clinton flew", scope: ScopeContent, want: `content:"Clinton flew"`},
		{name: "filename term", text: "EFTA0001", scope: ScopeFilename, want: "filename:EFTA0001"},
		{name: "all phrase", text: `a "b"`, scope: ScopeAll, want: `content:"a ""b""" OR filename:"a ""b"""`},
		{name: "all term", text: "Paris", scope: ScopeAll, want: "content:Paris OR filename:Paris"},
		{name: "unknown scope falls back to content", text: "Paris", scope: Scope("other"), want: "content:Paris"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildMatchQuery(tt.text, tt.scope); got != tt.want {
				t.Errorf("BuildMatchQuery(%q, %s) = %q, want %q", tt.text, tt.scope, got, tt.want)
			}
		})
	}
}

func TestParseScope(t *testing.T) {
	tests := []struct {
		in   string
		want Scope
	}{
		{in: "content", want: ScopeContent},
		{in: "filename", want: ScopeFilename},
		{in: "all", want: ScopeAll},
		{in: "both", want: ScopeAll},
		{in: "Filename", want: ScopeFilename},
		{in: "", want: ScopeContent},
		{in: "bogus", want: ScopeContent},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseScope(tt.in); got != tt.want {
				t.Errorf("ParseScope(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
