// Package runner provides the code execution sandboxes that grading runs
// against: a local python3 subprocess and a Docker-backed variant.
package runner

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/kata/internal/domain"
	"github.com/felixgeelhaar/kata/internal/extract"
)

// Output markers printed by the harness. The sandbox maps them onto the
// grading error taxonomy: a load marker means the submission never became
// invokable, an error marker means this one call raised.
const (
	resultMarker = "__KATA_RESULT__"
	errorMarker  = "__KATA_ERROR__"
	loadMarker   = "__KATA_LOAD_FAILED__"
)

const (
	harnessFile  = "harness.py"
	solutionFile = "solution.py"
	payloadFile  = "payload.json"
)

// payload is what the harness reads from payload.json.
type payload struct {
	EntryPoint    string   `json:"entry_point"`
	Construct     string   `json:"construct"`
	Args          []string `json:"args"`
	NoInputMarker string   `json:"no_input_marker"`
}

// harnessFiles lays out the three files a single invocation needs.
func harnessFiles(source, entryPoint, construct string, args []string) (map[string]string, error) {
	if construct == "" {
		construct = "Solution"
	}
	p := payload{
		EntryPoint:    entryPoint,
		Construct:     construct,
		Args:          args,
		NoInputMarker: extract.NoInputMarker,
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return map[string]string{
		harnessFile:  harnessSource,
		solutionFile: source,
		payloadFile:  string(data),
	}, nil
}

var markerPattern = regexp.MustCompile(`(?m)^(__KATA_(?:RESULT|ERROR|LOAD_FAILED)__)(.*)$`)

// parseHarnessOutput maps the harness's marker line to a grading outcome.
// Output the candidate printed itself is ignored; only the last marker line
// counts.
func parseHarnessOutput(stdout, stderr string) (string, error) {
	matches := markerPattern.FindAllStringSubmatch(stdout, -1)
	if len(matches) == 0 {
		detail := strings.TrimSpace(stderr)
		if detail == "" {
			detail = "no result produced"
		}
		return "", fmt.Errorf("%w: %s", domain.ErrLoadFailure, firstLine(detail))
	}

	last := matches[len(matches)-1]
	text := strings.TrimSpace(last[2])
	switch last[1] {
	case resultMarker:
		return text, nil
	case loadMarker:
		return "", fmt.Errorf("%w: %s", domain.ErrLoadFailure, text)
	default:
		return "", fmt.Errorf("%s", text)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// harnessSource is the Python driver executed next to the candidate source.
// It compiles the candidate first so a syntax error or a missing construct
// is reported as a load failure rather than a case failure, evaluates each
// argument line best-effort (assignment prefixes stripped, literals parsed,
// anything else passed through as a string), and prints the textual form of
// the return value behind a result marker.
const harnessSource = `import ast
import json
import sys
from collections import defaultdict
from typing import Any, Dict, List, Optional, Set, Tuple, Union


def load_failed(msg):
    print("__KATA_LOAD_FAILED__" + str(msg).replace("\n", " "))
    sys.exit(0)


def call_failed(exc):
    print("__KATA_ERROR__" + type(exc).__name__ + ": " + str(exc).replace("\n", " "))
    sys.exit(0)


def eval_arg(text):
    name, sep, rest = text.partition("=")
    if sep and name.strip().isidentifier():
        text = rest.strip()
    lowered = text.lower()
    if lowered == "true":
        return True
    if lowered == "false":
        return False
    if lowered == "null":
        return None
    try:
        return ast.literal_eval(text)
    except (ValueError, SyntaxError):
        return text


def main():
    with open("payload.json") as f:
        payload = json.load(f)
    with open("solution.py") as f:
        source = f.read()

    ns = {
        "Optional": Optional,
        "List": List,
        "Dict": Dict,
        "Set": Set,
        "Tuple": Tuple,
        "Any": Any,
        "Union": Union,
        "defaultdict": defaultdict,
    }
    try:
        exec(compile(source, "solution.py", "exec"), ns)
    except Exception as exc:
        load_failed("%s: %s" % (type(exc).__name__, exc))

    construct = payload.get("construct") or "Solution"
    cls = ns.get(construct)
    if cls is None:
        load_failed("construct %r not found" % construct)
    try:
        instance = cls()
    except Exception as exc:
        load_failed("%s: %s" % (type(exc).__name__, exc))

    entry = payload.get("entry_point") or ""
    fn = getattr(instance, entry, None) if entry else None
    if fn is None:
        for name in dir(instance):
            if name.startswith("_"):
                continue
            attr = getattr(instance, name)
            if callable(attr):
                fn = attr
                break
    if fn is None:
        load_failed("no callable entry point in %r" % construct)

    raw_args = payload.get("args") or []
    marker = payload.get("no_input_marker")
    if raw_args == [marker]:
        args = []
    else:
        args = [eval_arg(a) for a in raw_args]

    try:
        result = fn(*args)
    except Exception as exc:
        call_failed(exc)

    print("__KATA_RESULT__" + str(result))


if __name__ == "__main__":
    main()
`
