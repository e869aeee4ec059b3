package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if len(c.Conversations) == 0 {
		t.Fatal("built-in catalog is empty")
	}
	if _, ok := c.Lookup("evt-welcome"); !ok {
		t.Error("evt-welcome missing from built-in catalog")
	}

	cands := c.Candidates()
	if len(cands) != len(c.Conversations) {
		t.Fatalf("got %d candidates, want %d", len(cands), len(c.Conversations))
	}
	if cands[1].ID != "evt-playground" || cands[1].ParticipantCount != 18 {
		t.Errorf("candidate[1] = %+v", cands[1])
	}
}

func TestSeedMessages(t *testing.T) {
	c := Default()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	c.SetClock(func() time.Time { return now })

	msgs, ok := c.SeedMessages("evt-playground")
	if !ok {
		t.Fatal("no seed for evt-playground")
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d seed messages, want 3", len(msgs))
	}
	if msgs[0].SenderName != "Jordan" || !msgs[0].SentAt.Equal(now.Add(-300*time.Minute)) {
		t.Errorf("first seed = %+v", msgs[0])
	}

	if _, ok := c.SeedMessages("evt-bake-sale"); ok {
		t.Error("evt-bake-sale has no seed but SeedMessages returned ok")
	}
	if _, ok := c.SeedMessages("unknown"); ok {
		t.Error("unknown conversation returned a seed")
	}
}

func TestParseRejectsDuplicates(t *testing.T) {
	_, err := Parse("[[conversation]]\nid = \"a\"\n[[conversation]]\nid = \"a\"\n")
	if err == nil {
		t.Error("expected duplicate id error")
	}
	_, err = Parse("[[conversation]]\ntitle = \"no id\"\n")
	if err == nil {
		t.Error("expected missing id error")
	}
}

func TestParseRejectsBlankSeedText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", `""`},
		{"whitespace", `"  \t "`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := "[[conversation]]\nid = \"evt-x\"\n" +
				"[[conversation.seed]]\nsender_id = \"jordan\"\ntext = \"hello\"\n" +
				"[[conversation.seed]]\nsender_id = \"sam\"\ntext = " + tt.text + "\n"
			_, err := Parse(data)
			if err == nil {
				t.Fatal("expected blank seed text error")
			}
			if !strings.Contains(err.Error(), `"evt-x": seed 1`) {
				t.Errorf("error = %v, want it to name the conversation and seed", err)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	c, err := LoadOrDefault("/nonexistent/catalog.toml")
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Conversations) != len(Default().Conversations) {
		t.Error("missing file did not fall back to built-in catalog")
	}

	path := filepath.Join(t.TempDir(), "catalog.toml")
	content := "[[conversation]]\nid = \"evt-1\"\ntitle = \"Swim lessons\"\nparticipants = 6\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	c, err = LoadOrDefault(path)
	if err != nil {
		t.Fatal(err)
	}
	conv, ok := c.Lookup("evt-1")
	if !ok || conv.Title != "Swim lessons" || conv.Participants != 6 {
		t.Errorf("Lookup(evt-1) = %+v, %v", conv, ok)
	}
}
