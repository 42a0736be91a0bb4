// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package outputpipeline turns normalized transcript events into chat
// messages (§4.7) and rewrites a tool's argv for a resume/restart cycle.
package outputpipeline

import "strings"

// unsafeRefChars names every character a session ref may never contain;
// all of them have shell-metacharacter meaning and the ref is eventually
// interpolated into an argv the wrapper execs directly.
const unsafeRefChars = ";&|`$(){}!#<>\\'\""

// IsSafeSessionRef rejects a ref containing any shell-metacharacter (§4.7).
func IsSafeSessionRef(ref string) bool {
	return ref != "" && !strings.ContainsAny(ref, unsafeRefChars)
}

// RewriteResumeArgv rewrites argv (argv[0] is the tool name) to resume with
// ref, per the per-tool rules in §4.7. It is a pure function: given the
// same (tool, argv, ref) it always returns the same result (P6).
func RewriteResumeArgv(tool string, argv []string, ref string) ([]string, bool) {
	if !IsSafeSessionRef(ref) {
		return nil, false
	}

	switch tool {
	case "claude":
		return rewriteClaude(argv, ref), true
	case "codex":
		return rewriteCodex(argv, ref), true
	case "pi":
		return rewriteGeneric(argv, ref,
			[]string{"--continue", "-c", "--resume", "-r", "--session"},
			map[string]bool{"--resume": true, "-r": true, "--session": true},
			"--session"), true
	case "kimi":
		return rewriteGeneric(argv, ref,
			[]string{"--continue", "-C", "--session", "-S"},
			map[string]bool{"--session": true, "-S": true},
			"--session"), true
	default:
		return append(append([]string(nil), argv...), ref), true
	}
}

// rewriteClaude strips --continue/-c and --resume/-r [value], appends
// --resume <ref>.
func rewriteClaude(argv []string, ref string) []string {
	out := []string{argv[0]}
	for i := 1; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "--continue" || a == "-c":
			continue
		case a == "--resume" || a == "-r":
			if i+1 < len(argv) && !strings.HasPrefix(argv[i+1], "-") {
				i++
			}
			continue
		case strings.HasPrefix(a, "--resume="):
			continue
		default:
			out = append(out, a)
		}
	}
	return append(out, "--resume", ref)
}

// rewriteCodex strips the "resume [id]" subcommand, --resume[=|space]<id>,
// --last, exec, --json, and appends "resume <ref>".
func rewriteCodex(argv []string, ref string) []string {
	out := []string{argv[0]}
	for i := 1; i < len(argv); i++ {
		a := argv[i]
		switch {
		case a == "resume":
			if i+1 < len(argv) && !strings.HasPrefix(argv[i+1], "-") {
				i++
			}
			continue
		case a == "--resume":
			if i+1 < len(argv) && !strings.HasPrefix(argv[i+1], "-") {
				i++
			}
			continue
		case strings.HasPrefix(a, "--resume="):
			continue
		case a == "--last", a == "exec", a == "--json":
			continue
		default:
			out = append(out, a)
		}
	}
	return append(out, "resume", ref)
}

// rewriteGeneric strips each flag in stripFlags (consuming a following
// value only for flags named in takesValue) and appends
// "<appendFlag> <ref>", used for pi and kimi whose rules share this shape.
func rewriteGeneric(argv []string, ref string, stripFlags []string, takesValue map[string]bool, appendFlag string) []string {
	strip := make(map[string]bool, len(stripFlags))
	for _, f := range stripFlags {
		strip[f] = true
	}

	out := []string{argv[0]}
	for i := 1; i < len(argv); i++ {
		a := argv[i]
		if strip[a] {
			if takesValue[a] && i+1 < len(argv) && !strings.HasPrefix(argv[i+1], "-") {
				i++
			}
			continue
		}
		out = append(out, a)
	}
	return append(out, appendFlag, ref)
}
