package normalize

import (
	"reflect"
	"testing"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John Doe", "John Doe"},
		{"  John   Doe  ", "John Doe"},
		{"", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestHandle(t *testing.T) {
	if got := Handle("  @ada "); got != "ada" {
		t.Errorf("Handle = %q, want ada", got)
	}
	if IsEmail("@ada") {
		t.Error("@ada is a handle")
	}
	if !IsEmail("ada@example.com") {
		t.Error("ada@example.com is an email")
	}
}

func TestRecipients(t *testing.T) {
	got := Recipients([]string{"B@x.com, ada", "b@x.com", "", " ada ", "cy@x.com"})
	want := []string{"b@x.com", "ada", "cy@x.com"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Recipients = %v, want %v", got, want)
	}
}
