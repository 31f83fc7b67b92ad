package inputval_test

import (
	"strings"
	"testing"

	"github.com/ideaslab/server/internal/app/system/inputval"
	"github.com/ideaslab/server/internal/domain/models"
)

func TestHandle(t *testing.T) {
	tests := []struct {
		handle string
		ok     bool
	}{
		{"alice", true},
		{"alice-42", true},
		{"a1", true},
		{"my-long-handle-name", true},

		{"", false},
		{"a", false},
		{"Alice", false},   // uppercase
		{"alice_", false},  // underscore
		{"-alice", false},  // leading hyphen
		{"alice-", false},  // trailing hyphen
		{"al--ice", false}, // double hyphen
		{"alice!", false},
		{"데브", false}, // non-ascii
		{strings.Repeat("a", 33), false},
	}

	for _, tt := range tests {
		t.Run(tt.handle, func(t *testing.T) {
			err := inputval.Handle(tt.handle)
			if (err == nil) != tt.ok {
				t.Errorf("Handle(%q): err=%v, want ok=%v", tt.handle, err, tt.ok)
			}
		})
	}
}

func TestName(t *testing.T) {
	if _, err := inputval.Name("  Alice  "); err != nil {
		t.Errorf("trimmed name should be valid: %v", err)
	}
	got, _ := inputval.Name("  Alice  ")
	if got != "Alice" {
		t.Errorf("Name: got %q, want %q", got, "Alice")
	}
	if _, err := inputval.Name("   "); err == nil {
		t.Error("blank name should be rejected")
	}
	if _, err := inputval.Name(strings.Repeat("x", 65)); err == nil {
		t.Error("over-long name should be rejected")
	}
}

func TestIntroduce_StripsMarkup(t *testing.T) {
	got, err := inputval.Introduce(`hello <script>alert("x")</script>world`)
	if err != nil {
		t.Fatalf("Introduce failed: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Errorf("markup not stripped: %q", got)
	}
}

func TestIntroduce_TooLong(t *testing.T) {
	if _, err := inputval.Introduce(strings.Repeat("x", 1001)); err == nil {
		t.Error("over-long introduce should be rejected")
	}
}

func TestLinks(t *testing.T) {
	good := models.ProfileLink{Name: "Blog", URL: "https://example.com/blog"}

	if err := inputval.Links([]models.ProfileLink{good}); err != nil {
		t.Errorf("valid link rejected: %v", err)
	}
	if err := inputval.Links(nil); err != nil {
		t.Errorf("empty list rejected: %v", err)
	}

	seven := make([]models.ProfileLink, 7)
	for i := range seven {
		seven[i] = good
	}
	if err := inputval.Links(seven); err != inputval.ErrTooManyLinks {
		t.Errorf("7 links: got %v, want ErrTooManyLinks", err)
	}

	bad := []models.ProfileLink{
		{Name: "", URL: "https://example.com"},
		{Name: "x", URL: "ftp://example.com"},
		{Name: "x", URL: "javascript:alert(1)"},
		{Name: "x", URL: "not a url"},
		{Name: "x", URL: "https://"},
	}
	for _, l := range bad {
		if err := inputval.Links([]models.ProfileLink{l}); err == nil {
			t.Errorf("link %+v should be rejected", l)
		}
	}
}
