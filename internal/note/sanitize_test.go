package note

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestSanitizeGenerated_MixedShapes(t *testing.T) {
	in := decode(t, `{"subjective":["a","b"],"objective":null,"assessment":{"x":1},"plan":"ok"}`)

	got := SanitizeGenerated(in)
	require.Equal(t, GeneratedNote{
		Subjective: "a\nb",
		Objective:  "",
		Assessment: `{"x":1}`,
		Plan:       "ok",
	}, got)
}

func TestSanitizeGenerated_NonObjectInputs(t *testing.T) {
	for _, raw := range []string{`null`, `"text"`, `42`, `["subjective"]`, `true`} {
		require.Equal(t, GeneratedNote{}, SanitizeGenerated(decode(t, raw)), raw)
	}
	require.True(t, SanitizeGenerated(nil).IsEmpty())
}

func TestSanitizeGenerated_Scalars(t *testing.T) {
	in := decode(t, `{"subjective":12,"objective":[1,2.5,null,{"bp":"120/80"}],"assessment":false,"plan":"","summary":"Stable."}`)

	got := SanitizeGenerated(in)
	require.Equal(t, "12", got.Subjective)
	require.Equal(t, "1\n2.5\n\n{\"bp\":\"120/80\"}", got.Objective)
	require.Equal(t, "false", got.Assessment)
	require.Equal(t, "", got.Plan)
	require.Equal(t, "Stable.", got.Summary)
}

func TestSanitizeGenerated_IgnoresUnknownKeys(t *testing.T) {
	got := SanitizeGenerated(decode(t, `{"diagnosis":"flu","plan":["- rest"]}`))
	require.Equal(t, GeneratedNote{Plan: "- rest"}, got)
}

func TestStatusTransitions(t *testing.T) {
	require.True(t, StatusDraft.CanTransition(StatusProcessing))
	require.True(t, StatusDraft.CanTransition(StatusCompleted))
	require.True(t, StatusProcessing.CanTransition(StatusCompleted))
	require.True(t, StatusCompleted.CanTransition(StatusProcessing))
	require.True(t, StatusCompleted.CanTransition(StatusCompleted))
	require.False(t, StatusCompleted.CanTransition(StatusDraft))
	require.False(t, StatusDraft.CanTransition(Status("archived")))
}

func TestTemplateTypeValid(t *testing.T) {
	require.True(t, TemplateGeneralMedicine.Valid())
	require.True(t, TemplateType("SOAP").Valid())
	require.False(t, TemplateType("soap").Valid())
}

func TestSanitizeJSON_KeepsTextAndKeyOrder(t *testing.T) {
	got := SanitizeJSON([]byte(`{"assessment":{"bp":"<90/60 & falling"},"plan":{"b":1,"a":2},"objective":["HR > 110", {"z":"x","a":"<y>"}],"summary":1.0}`))
	require.Equal(t, `{"bp":"<90/60 & falling"}`, got.Assessment)
	require.Equal(t, `{"b":1,"a":2}`, got.Plan)
	require.Equal(t, "HR > 110\n{\"z\":\"x\",\"a\":\"<y>\"}", got.Objective)
	require.Equal(t, "1", got.Summary)
}

func TestSanitizeGenerated_DecodedValueNotEscaped(t *testing.T) {
	got := SanitizeGenerated(decode(t, `{"assessment":{"bp":"<90/60 & falling"}}`))
	require.Equal(t, `{"bp":"<90/60 & falling"}`, got.Assessment)
}

func TestSanitizeJSON_NonObject(t *testing.T) {
	for _, raw := range []string{``, `null`, `"text"`, `[1]`, `{broken`} {
		require.True(t, SanitizeJSON([]byte(raw)).IsEmpty(), raw)
	}
	require.True(t, IsNull(nil))
	require.True(t, IsNull([]byte(" null ")))
	require.False(t, IsNull([]byte(`{}`)))
}
