package lore_test

import (
	"reflect"
	"sort"
	"testing"

	"lorebook/internal/lore"
)

func TestParseTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []lore.Token
	}{
		{
			name: "single token",
			text: "Visit the [[Tavern|tag_abc123]] for rumors.",
			want: []lore.Token{{Label: "Tavern", TagID: "tag_abc123"}},
		},
		{
			name: "tokens in order",
			text: "[[A|tag_1]] then [[B|tag_2]] and [[A again|tag_1]]",
			want: []lore.Token{{"A", "tag_1"}, {"B", "tag_2"}, {"A again", "tag_1"}},
		},
		{
			name: "empty label",
			text: "see [[|tag_x]]",
			want: []lore.Token{{Label: "", TagID: "tag_x"}},
		},
		{
			name: "bracketed label",
			text: "Visit the [[Inn [old]|tag_x]] tonight.",
			want: []lore.Token{{Label: "Inn [old]", TagID: "tag_x"}},
		},
		{
			name: "malformed token before a good one",
			text: "[[Tavern]] and [[Inn|tag_2]]",
			want: []lore.Token{{Label: "Inn", TagID: "tag_2"}},
		},
		{
			name: "malformed without pipe",
			text: "see [[Tavern]] and [[Tavern tag_1]]",
			want: []lore.Token{},
		},
		{
			name: "empty id",
			text: "see [[Tavern| ]]",
			want: []lore.Token{},
		},
		{
			name: "no tokens",
			text: "plain text",
			want: []lore.Token{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := lore.ParseTokens(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTokens() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractTagIDs(t *testing.T) {
	got := lore.ExtractTagIDs("[[A|tag_1]] [[B|tag_2]] [[A|tag_1]] [[broken]]")

	var ids []string
	for id := range got {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	if !reflect.DeepEqual(ids, []string{"tag_1", "tag_2"}) {
		t.Errorf("ExtractTagIDs() = %v, want [tag_1 tag_2]", ids)
	}
}

func TestExtractTagIDs_AgreesWithReferencesTag(t *testing.T) {
	texts := []string{
		"Visit the [[Inn [old]|tag_x]] tonight.",
		"[[[Keep]|tag_x]]",
		"[[a|b|tag_x]]",
	}
	for _, text := range texts {
		_, extracted := lore.ExtractTagIDs(text)["tag_x"]
		if referenced := lore.ReferencesTag(text, "tag_x"); extracted != referenced {
			t.Errorf("%q: ExtractTagIDs has tag_x = %v, ReferencesTag = %v", text, extracted, referenced)
		}
	}
}

func TestReferencesTag(t *testing.T) {
	text := "Visit the [[Tavern|tag_abc123]] for rumors."

	if !lore.ReferencesTag(text, "tag_abc123") {
		t.Error("ReferencesTag() = false for present tag")
	}
	if lore.ReferencesTag(text, "tag_abc") {
		t.Error("ReferencesTag() = true for id prefix")
	}
	if lore.ReferencesTag("tag_abc123 mentioned bare", "tag_abc123") {
		t.Error("ReferencesTag() = true for id outside a token")
	}
}

func TestFormatToken(t *testing.T) {
	tests := []struct {
		label string
		id    string
		want  string
	}{
		{"Tavern", "tag_1", "[[Tavern|tag_1]]"},
		{"The [Old] Mill|East", "tag_2", "[[The Old MillEast|tag_2]]"},
	}
	for _, tt := range tests {
		got := lore.FormatToken(tt.label, tt.id)
		if got != tt.want {
			t.Errorf("FormatToken(%q, %q) = %q, want %q", tt.label, tt.id, got, tt.want)
		}
		if toks := lore.ParseTokens(got); len(toks) != 1 || toks[0].TagID != tt.id {
			t.Errorf("FormatToken(%q, %q) does not parse back: %v", tt.label, tt.id, toks)
		}
	}
}

func TestRewriteTagIDs(t *testing.T) {
	mapping := map[string]string{"tag_1": "tag_new1", "tag_2": "tag_new2"}

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "rewrites known ids",
			text: "Go to [[Town|tag_1]] or [[Keep|tag_2]].",
			want: "Go to [[Town|tag_new1]] or [[Keep|tag_new2]].",
		},
		{
			name: "rewrites inside bracketed label",
			text: "[[Inn [old]|tag_1]]",
			want: "[[Inn [old]|tag_new1]]",
		},
		{
			name: "leaves unknown ids",
			text: "[[Other|tag_9]]",
			want: "[[Other|tag_9]]",
		},
		{
			name: "leaves text outside tokens",
			text: "tag_1 is not a token",
			want: "tag_1 is not a token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lore.RewriteTagIDs(tt.text, mapping); got != tt.want {
				t.Errorf("RewriteTagIDs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Rusty Flagon", "the-rusty-flagon"},
		{"Café Noir", "cafe-noir"},
		{"  --Hello, World!--  ", "hello-world"},
		{"日本", ""},
		{"a very long name that keeps going and going past the limit", "a-very-long-name-that-keeps-going-and-go"},
	}
	for _, tt := range tests {
		if got := lore.Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNanoIDGenerator(t *testing.T) {
	g := lore.NanoIDGenerator{}

	prefix := g.NewPrefix()
	if len(prefix) != lore.PrefixLength {
		t.Errorf("NewPrefix() length = %d, want %d", len(prefix), lore.PrefixLength)
	}

	id := g.NewID("Town Square")
	if len(id) != lore.PrefixLength+len("_town-square") || id[lore.PrefixLength:] != "_town-square" {
		t.Errorf("NewID() = %q, want <prefix>_town-square", id)
	}

	if bare := g.NewID("!!!"); len(bare) != lore.PrefixLength {
		t.Errorf("NewID(unsluggable) = %q, want a bare prefix", bare)
	}

	if g.NewCampaignID() == g.NewCampaignID() {
		t.Error("NewCampaignID() returned duplicates")
	}
}
