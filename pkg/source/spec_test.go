package source

import "testing"

func TestParseSpec(t *testing.T) {
	tests := []struct {
		in      string
		want    Spec
		wantErr bool
	}{
		{in: "foo", want: Spec{Name: "foo"}},
		{in: "foo@1.2.3", want: Spec{Name: "foo", Version: "1.2.3"}},
		{in: "foo:1.2.3", want: Spec{Name: "foo", Version: "1.2.3"}},
		{in: "foo:1.0", wantErr: true},
		{in: "foo@", wantErr: true},
		{in: "1foo", wantErr: true},
		{in: "", wantErr: true},
		{
			in:   "https://example.com/foo#1.2.3",
			want: Spec{Name: "foo", Version: "1.2.3", URL: "https://example.com/foo"},
		},
		{
			in:   "https://example.com/repo#bar@0.1.0",
			want: Spec{Name: "bar", Version: "0.1.0", URL: "https://example.com/repo"},
		},
		{
			in:   "https://example.com/repo#bar",
			want: Spec{Name: "bar", URL: "https://example.com/repo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSpec(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSpec(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseSpec(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSpecString(t *testing.T) {
	s := Spec{Name: "foo", Version: "1.0.0", URL: CratesIOIndex}
	want := CratesIOIndex + "#foo@1.0.0"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestSpecMatches(t *testing.T) {
	s := Spec{Name: "foo", Version: "1.0.0"}
	if !s.Matches("foo", "1.0.0", DefaultIndex()) {
		t.Error("Matches() = false, want true")
	}
	if s.Matches("foo", "1.0.1", DefaultIndex()) {
		t.Error("Matches() with other version = true")
	}
	s.URL = "https://example.com/index"
	if s.Matches("foo", "1.0.0", DefaultIndex()) {
		t.Error("Matches() with other source = true")
	}
}

func TestValidateVersion(t *testing.T) {
	valid := []string{"1.0.0", "0.1.2-alpha.1", "1.2.3+build.5", "1.2.3-rc.1+meta"}
	for _, v := range valid {
		if err := ValidateVersion(v); err != nil {
			t.Errorf("ValidateVersion(%q) error: %v", v, err)
		}
	}
	invalid := []string{"", "1", "1.0", "v1.0.0", "1.0.0.0", "latest"}
	for _, v := range invalid {
		if err := ValidateVersion(v); err == nil {
			t.Errorf("ValidateVersion(%q) expected error", v)
		}
	}
}
