package judge

import (
	"encoding/json"
	"strings"

	"github.com/jjudge-oj/grader/types"
)

// Preambles replay the supplied input for runtimes that cannot pipe stdin.
// They must not write to stdout.

const pythonPreamble = `import io as __grader_io, sys as __grader_sys, builtins as __grader_builtins
__grader_sys.stdin = __grader_io.StringIO(%s)
def __grader_input(prompt=""):
    return __grader_sys.stdin.readline().rstrip("\r\n")
__grader_builtins.input = __grader_input
`

const javascriptPreamble = `(function (lines) {
  let cursor = 0;
  const next = function () { return cursor < lines.length ? lines[cursor++] : ""; };
  globalThis.input = next;
  globalThis.prompt = next;
  globalThis.readline = next;
})(%s);
`

func preambleSupported(lang types.Language) bool {
	return lang == types.LanguagePython || lang == types.LanguageJavaScript
}

// withStdinPreamble prefixes code with an input-replaying preamble.
// Languages without a preamble are returned unchanged.
func withStdinPreamble(lang types.Language, code, input string) string {
	switch lang {
	case types.LanguagePython:
		return strings.Replace(pythonPreamble, "%s", quote(input), 1) + code
	case types.LanguageJavaScript:
		return strings.Replace(javascriptPreamble, "%s", quote(splitLines(input)), 1) + code
	default:
		return code
	}
}

// splitLines splits input on newlines, dropping the empty tail after a final newline.
func splitLines(input string) []string {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	if input == "" {
		return []string{}
	}
	lines := strings.Split(input, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// quote renders v as a JSON literal, which both Python and JavaScript accept
// as a string or array-of-strings literal.
func quote(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `""`
	}
	return string(data)
}
