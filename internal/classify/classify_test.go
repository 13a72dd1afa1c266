package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kvit-s/veribench/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prop.prp")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGetResultCategory_SingleSafeFile(t *testing.T) {
	prop := writeProp(t, "CHECK( init(main()), LTL(G ! call(__VERIFIER_error())) )")
	cat := GetResultCategory("a_true-unreach-call.c", "true", prop)
	assert.Equal(t, model.CategoryCorrect, cat)
	assert.Equal(t, 2, CalculateScore(cat, "true"))
}

func TestGetResultCategory_WrongAnswerOnReach(t *testing.T) {
	prop := writeProp(t, "CHECK( init(main()), LTL(G ! call(__VERIFIER_error())) )")
	cat := GetResultCategory("a_true-unreach-call.c", "false(reach)", prop)
	assert.Equal(t, model.CategoryWrong, cat)
	assert.Equal(t, -4, CalculateScore(cat, "false(reach)"))
}

func TestGetResultCategory_CorrectFalse(t *testing.T) {
	prop := writeProp(t, "CHECK( init(main()), LTL(G ! call(__VERIFIER_error())) )")
	cat := GetResultCategory("a_false-unreach-call.c", "false(reach)", prop)
	assert.Equal(t, model.CategoryCorrect, cat)
	assert.Equal(t, 1, CalculateScore(cat, "false(reach)"))
}

func TestGetResultCategory_MissingWithoutPropertyFile(t *testing.T) {
	for _, status := range []string{"true", "false(reach)", "unknown", "garbage"} {
		cat := GetResultCategory("a_true-unreach-call.c", status, "")
		assert.Equal(t, model.CategoryMissing, cat, "status=%s", status)
	}
}

func TestGetResultCategory_UnknownStatus(t *testing.T) {
	prop := writeProp(t, "CHECK( init(main()), LTL(G ! call(__VERIFIER_error())) )")
	assert.Equal(t, model.CategoryUnknown, GetResultCategory("a_true-unreach-call.c", "unknown", prop))
}

func TestGetResultCategory_UnrecognizedStatusIsError(t *testing.T) {
	prop := writeProp(t, "CHECK( init(main()), LTL(G ! call(__VERIFIER_error())) )")
	assert.Equal(t, model.CategoryError, GetResultCategory("a_true-unreach-call.c", "TIMEOUT", prop))
}

func TestGetResultCategory_NoIntersectionIsUnknown(t *testing.T) {
	prop := writeProp(t, "CHECK( init(main()), LTL(F end))")
	assert.Equal(t, model.CategoryUnknown, GetResultCategory("a_true-unreach-call.c", "true", prop))
}

func TestGetResultCategory_MemsafetyExpandsToThreeKinds(t *testing.T) {
	prop := writeProp(t, "CHECK( init(main()), LTL(G valid-deref))")
	assert.Equal(t, model.CategoryCorrect, GetResultCategory("a_true-valid-memsafety.c", "true", prop))

	prop2 := writeProp(t, "CHECK( init(main()), LTL(G valid-free))")
	assert.Equal(t, model.CategoryWrong, GetResultCategory("a_true-valid-memsafety.c", "false(valid-free)", prop2))
}

func TestCalculateScore_IsPureTable(t *testing.T) {
	cases := []struct {
		cat    model.ResultCategory
		status string
		want   int
	}{
		{model.CategoryCorrect, "true", 2},
		{model.CategoryCorrect, "false(reach)", 1},
		{model.CategoryWrong, "true", -8},
		{model.CategoryWrong, "false(reach)", -4},
		{model.CategoryUnknown, "unknown", 0},
		{model.CategoryMissing, "true", 0},
		{model.CategoryError, "garbage", 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CalculateScore(c.cat, c.status))
	}
}
