package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntaxis/syntaxis/generate"
	"github.com/syntaxis/syntaxis/grammar"
	qtest "github.com/syntaxis/syntaxis/internal/testing"
	"github.com/syntaxis/syntaxis/library"
)

func newTestRepl(t *testing.T) (*repl, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	lex := generate.LexiconFunc(func(_ context.Context, pos string, f map[grammar.Category]string) (*generate.Word, error) {
		return &generate.Word{Lemma: pos, Form: pos + "-" + f[grammar.Case], Translations: []string{"x"}}, nil
	})
	var out, errOut bytes.Buffer
	return &repl{
		gen:    generate.New(lex),
		lib:    library.New(qtest.CreateTestDB(t), nil),
		out:    &out,
		errOut: &errOut,
	}, &out, &errOut
}

func TestReplSession(t *testing.T) {
	r, out, errOut := newTestRepl(t)

	input := strings.Join([]string{
		"(noun)@{nom:masc:sg}",
		"",
		":parse (article noun)@{nom:gender:sg}",
		`:save "(noun)@{acc:fem:sg}" "a noun"`,
		":ls",
		":gen 1 2",
		":bogus",
		"(noun)@$3",
		":quit",
		"(noun)@{gen:masc:sg}",
	}, "\n")
	require.NoError(t, r.run(context.Background(), strings.NewReader(input)))

	got := out.String()
	assert.Equal(t, 1, strings.Count(got, "noun-nom"))
	assert.Contains(t, got, "1.1 article")
	assert.Contains(t, got, "1.2 noun")
	assert.Contains(t, got, "saved as 1")
	assert.Contains(t, got, "(noun)@{acc:fem:sg}  # a noun")
	assert.Equal(t, 2, strings.Count(got, "noun-acc\n"))
	assert.NotContains(t, got, "noun-gen", ":quit ends the session")

	assert.Contains(t, errOut.String(), "unknown command :bogus")
	assert.Contains(t, errOut.String(), "group 1 references group 3")
}

func TestReplEndsOnEOF(t *testing.T) {
	r, out, _ := newTestRepl(t)
	require.NoError(t, r.run(context.Background(), strings.NewReader("(noun)@{nom:masc:sg}")))
	assert.Contains(t, out.String(), "noun-nom")
	assert.True(t, strings.HasSuffix(out.String(), replPrompt+"\n"))
}

func TestReplArgumentErrors(t *testing.T) {
	r, _, errOut := newTestRepl(t)
	ctx := context.Background()

	tests := []struct {
		line string
		want string
	}{
		{`:save "(noun)@{nom:masc:sg}`, "cannot split arguments"},
		{":save", "usage: :save"},
		{":gen", "usage: :gen"},
		{":gen 1 many", `invalid count "many"`},
		{":gen 9", "not found"},
		{":gen zero", `invalid template id "zero"`},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			errOut.Reset()
			assert.False(t, r.exec(ctx, tt.line))
			assert.Contains(t, errOut.String(), tt.want)
		})
	}
}

func TestReplWithoutLibrary(t *testing.T) {
	r, _, errOut := newTestRepl(t)
	r.lib = nil

	r.exec(context.Background(), ":ls")
	assert.Contains(t, errOut.String(), "template library unavailable")
}

func TestGlossOf(t *testing.T) {
	res := &generate.Result{Words: []generate.GeneratedWord{
		{Lemma: "ο", Form: "ο", Translations: []string{"the"}},
		{Lemma: "άνθρωπος", Form: "άνθρωπος", Translations: []string{"man", "human"}},
		{Lemma: "και", Form: "και"},
	}}
	assert.Equal(t, "the man και", glossOf(res))

	assert.Empty(t, glossOf(&generate.Result{Words: []generate.GeneratedWord{{Lemma: "και", Form: "και"}}}))
}
