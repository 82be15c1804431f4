// Copyright 2026 The molviz Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Dialect names the shading language a source string is written in,
// which decides how compile-time constants are spelled.
type Dialect int

const (
	// DialectGLSL emits "#define NAME VALUE" lines.
	DialectGLSL Dialect = iota
	// DialectWGSL emits "override name: type = value;" declarations.
	DialectWGSL
)

// ErrDefineValue reports a define value that is not boolean or numeric.
var ErrDefineValue = errors.New("shader: define value must be boolean or numeric")

// InjectDefines inserts constant declarations for defs into src, after
// the leading comment block and before the first line of code. This is
// a textual transform, not a preprocessor; only boolean and numeric
// values are supported. Names are emitted in sorted order so identical
// inputs produce identical source, keeping the module cache effective.
func InjectDefines(src string, dialect Dialect, defs map[string]any) (string, error) {
	if len(defs) == 0 {
		return src, nil
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	var decls []string
	for _, name := range names {
		line, err := defineLine(dialect, name, defs[name])
		if err != nil {
			return "", err
		}
		if line != "" {
			decls = append(decls, line)
		}
	}
	if len(decls) == 0 {
		return src, nil
	}

	lines := strings.Split(src, "\n")
	at := insertionPoint(lines)
	out := make([]string, 0, len(lines)+len(decls))
	out = append(out, lines[:at]...)
	out = append(out, decls...)
	out = append(out, lines[at:]...)
	return strings.Join(out, "\n"), nil
}

func defineLine(dialect Dialect, name string, value any) (string, error) {
	switch dialect {
	case DialectWGSL:
		switch v := value.(type) {
		case bool:
			return fmt.Sprintf("override %s: bool = %t;", name, v), nil
		case int, int32, int64:
			return fmt.Sprintf("override %s: i32 = %d;", name, v), nil
		case uint, uint32, uint64:
			return fmt.Sprintf("override %s: u32 = %d;", name, v), nil
		case float32:
			return fmt.Sprintf("override %s: f32 = %s;", name, formatFloat(float64(v))), nil
		case float64:
			return fmt.Sprintf("override %s: f32 = %s;", name, formatFloat(v)), nil
		}
	default:
		switch v := value.(type) {
		case bool:
			// A false flag is simply absent, matching #ifdef usage.
			if !v {
				return "", nil
			}
			return fmt.Sprintf("#define %s", name), nil
		case int, int32, int64, uint, uint32, uint64:
			return fmt.Sprintf("#define %s %d", name, v), nil
		case float32:
			return fmt.Sprintf("#define %s %s", name, formatFloat(float64(v))), nil
		case float64:
			return fmt.Sprintf("#define %s %s", name, formatFloat(v)), nil
		}
	}
	return "", fmt.Errorf("%w: %s is %T", ErrDefineValue, name, value)
}

// formatFloat keeps a decimal point so the literal stays a float in
// both dialects.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// insertionPoint returns the index of the first line that is not blank
// and not part of the leading comment block.
func insertionPoint(lines []string) int {
	inBlock := false
	for i, line := range lines {
		rest := strings.TrimSpace(line)
		if inBlock {
			if idx := strings.Index(rest, "*/"); idx >= 0 {
				inBlock = false
				rest = strings.TrimSpace(rest[idx+2:])
			} else {
				continue
			}
		}
		for {
			switch {
			case rest == "":
			case strings.HasPrefix(rest, "//"):
				rest = ""
			case strings.HasPrefix(rest, "/*"):
				if idx := strings.Index(rest[2:], "*/"); idx >= 0 {
					rest = strings.TrimSpace(rest[idx+4:])
					continue
				}
				inBlock = true
				rest = ""
			default:
				return i
			}
			break
		}
	}
	return len(lines)
}
