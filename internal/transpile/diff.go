package transpile

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Preview returns a unified diff between the rendered manifest and its
// transpiled form, for `dokctl config --diff`.
func Preview(rendered, transpiled []byte) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(rendered)),
		B:        difflib.SplitLines(string(transpiled)),
		FromFile: "rendered",
		ToFile:   "transpiled",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("compute diff: %w", err)
	}
	return text, nil
}
