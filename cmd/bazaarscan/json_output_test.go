package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"bazaarscan/internal/catalog"
)

func TestWriteJSONKeepsURLsLiteral(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	entry := catalog.Entry{ID: "7", Name: "Item <7>", ImageURL: "https://cdn.example/items/7.png?w=64&h=64"}
	if err := writeJSON(cmd, entry); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	got := out.String()
	for _, fragment := range []string{`"image_url": "https://cdn.example/items/7.png?w=64&h=64"`, `"name": "Item <7>"`, "\n  \"id\""} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("expected %q in\n%s", fragment, got)
		}
	}
}
