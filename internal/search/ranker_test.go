package search

import (
	"strings"
	"testing"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

func rankedDoc(id, title, excerpt, bodyText string) doc.Document {
	return doc.Document{
		ID:      id,
		Type:    "post",
		Title:   title,
		Excerpt: excerpt,
		Body: []doc.Node{
			{
				Type:     doc.BlockType,
				Key:      "b1",
				Style:    "normal",
				Children: []doc.Span{{Key: "s1", Text: bodyText}},
			},
		},
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Hello World", "hello world"},
		{"  collapse   spaces ", "collapse spaces"},
		{"夜勤のコツ。準備、確認！", "夜勤のコツ 準備 確認"},
		{"Mixed(Text)「引用」", "mixed text 引用"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTokenizeBigramsJapanese(t *testing.T) {
	tokens := Tokenize("夜勤のコツ")
	want := []string{"夜勤のコツ", "夜勤", "勤の", "のコ", "コツ"}
	if len(tokens) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(tokens), len(want), tokens)
	}
	for i, tok := range want {
		if tokens[i] != tok {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i], tok)
		}
	}
}

func TestTokenizeLatinTermsStayWhole(t *testing.T) {
	tokens := Tokenize("night shift")
	want := []string{"night", "shift"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestTokenizeMixedScript(t *testing.T) {
	tokens := Tokenize("icu夜勤手当")
	want := map[string]bool{"icu夜勤手当": true, "夜勤": true, "勤手": true, "手当": true}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want keys of %v", tokens, want)
	}
	for _, tok := range tokens {
		if !want[tok] {
			t.Errorf("unexpected token %q", tok)
		}
	}
}

func TestKeywordsSkipLatinBigrams(t *testing.T) {
	d := rankedDoc("post_a", "medication", "", "charting notes for the ward")
	for _, kw := range Keywords(d, 10) {
		if len([]rune(kw)) == 2 && kw[0] < 0x80 {
			t.Errorf("latin bigram leaked into keywords: %q", kw)
		}
	}
}

func TestRankTitleOutweighsBody(t *testing.T) {
	corpus := []doc.Document{
		rankedDoc("post_a", "Other Topic", "", strings.Repeat("nursing ", 5)),
		rankedDoc("post_b", "Nursing Basics", "", "unrelated body"),
	}
	ranked := Rank(corpus, "nursing")
	if len(ranked) != 2 {
		t.Fatalf("ranked %d docs, want 2", len(ranked))
	}
	if ranked[0].ID != "post_b" {
		t.Errorf("title match should rank first, got %s", ranked[0].ID)
	}
}

func TestRankExcludesZeroScores(t *testing.T) {
	corpus := []doc.Document{
		rankedDoc("post_a", "Night Shift Tips", "", "preparing for night shifts"),
		rankedDoc("post_b", "Unrelated", "", "budget review"),
	}
	ranked := Rank(corpus, "night shift")
	for _, d := range ranked {
		if d.ID == "post_b" {
			t.Error("zero-score document should be excluded")
		}
	}
	if len(ranked) != 1 {
		t.Fatalf("ranked %d docs, want 1", len(ranked))
	}
}

func TestRankStableTies(t *testing.T) {
	corpus := []doc.Document{
		rankedDoc("post_a", "Transfer Guide", "", ""),
		rankedDoc("post_b", "Transfer Notes", "", ""),
		rankedDoc("post_c", "Transfer Steps", "", ""),
	}
	ranked := Rank(corpus, "transfer")
	got := []string{ranked[0].ID, ranked[1].ID, ranked[2].ID}
	want := []string{"post_a", "post_b", "post_c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tie order = %v, want %v", got, want)
		}
	}
}

func TestRankJapaneseSubstring(t *testing.T) {
	corpus := []doc.Document{
		rankedDoc("post_a", "看護助手の夜勤マニュアル", "", "夜勤帯の巡回と記録の手順。"),
		rankedDoc("post_b", "日勤の申し送り", "", "日中の業務の流れ。"),
	}
	ranked := Rank(corpus, "夜勤")
	if len(ranked) != 1 || ranked[0].ID != "post_a" {
		t.Fatalf("expected only post_a, got %d docs", len(ranked))
	}
}

func TestRankEmptyQuery(t *testing.T) {
	corpus := []doc.Document{rankedDoc("post_a", "Anything", "", "text")}
	if got := Rank(corpus, "   "); got != nil {
		t.Errorf("blank query should rank nothing, got %d", len(got))
	}
}

func TestKeywordsWeightedByField(t *testing.T) {
	d := rankedDoc("post_a", "medication", "", "charting charting charting")
	kws := Keywords(d, 2)
	if len(kws) == 0 || kws[0] != "medication" {
		t.Errorf("title token should lead keywords, got %v", kws)
	}
}

func TestSnippetWindowsAroundHit(t *testing.T) {
	body := strings.Repeat("あ", 100) + "夜勤のコツ" + strings.Repeat("い", 100)
	snip := Snippet(body, "夜勤のコツ")
	if !strings.Contains(snip, "夜勤のコツ") {
		t.Fatalf("snippet missing hit: %q", snip)
	}
	if !strings.HasPrefix(snip, "…") || !strings.HasSuffix(snip, "…") {
		t.Errorf("snippet should be ellipsized on both sides: %q", snip)
	}
	if n := len([]rune(snip)); n > 2*snippetRadius+len([]rune("夜勤のコツ"))+2 {
		t.Errorf("snippet too long: %d runes", n)
	}
}

func TestSnippetNoHitTruncates(t *testing.T) {
	body := strings.Repeat("漢", 300)
	snip := Snippet(body, "absent")
	if n := len([]rune(snip)); n != 2*snippetRadius {
		t.Errorf("no-hit snippet length = %d runes, want %d", n, 2*snippetRadius)
	}
}
