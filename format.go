package fitty

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-fitty/formula"
)

// FormatVersion identifies a fit entry line grammar.
type FormatVersion int

const (
	// FormatDetect picks the grammar per line with DetectFormat.
	FormatDetect FormatVersion = iota
	// FormatV1: [@]name sig bkg rebin min max params...
	FormatV1
	// FormatV2: [@]name min max rebin f1 [f2 ...] | params...
	FormatV2
)

func (v FormatVersion) String() string {
	switch v {
	case FormatDetect:
		return "detect"
	case FormatV1:
		return "v1"
	case FormatV2:
		return "v2"
	default:
		return fmt.Sprintf("FormatVersion(%d)", int(v))
	}
}

// ParseFormatVersion accepts "detect", "v1", "v2", "1" and "2".
func ParseFormatVersion(s string) (FormatVersion, error) {
	switch strings.ToLower(s) {
	case "", "detect", "auto":
		return FormatDetect, nil
	case "v1", "1":
		return FormatV1, nil
	case "v2", "2":
		return FormatV2, nil
	default:
		return FormatDetect, fmt.Errorf("fitty: unknown format version %q", s)
	}
}

const (
	disabledMarker  = "@"
	fieldSeparator  = "|"
	markerLimits    = ":"
	markerFixed     = "f"
	markerFixedLims = "F"
)

// DetectFormat selects v2 when the line carries a "|" separator and v1
// otherwise.
func DetectFormat(line string) FormatVersion {
	if strings.Contains(line, fieldSeparator) {
		return FormatV2
	}
	return FormatV1
}

// ParseLineEntry parses one line into a fit entry, compiling its formulas
// with engine. A nil engine uses expr.
func ParseLineEntry(line string, version FormatVersion, engine formula.Engine) (*FitEntry, error) {
	if engine == nil {
		engine = formula.NewExprEngine()
	}
	if version == FormatDetect {
		version = DetectFormat(line)
	}
	tokens := strings.Fields(line)
	switch version {
	case FormatV1:
		return parseV1(line, tokens, engine)
	case FormatV2:
		return parseV2(line, tokens, engine)
	default:
		return nil, formatError(line, "", fmt.Sprintf("unsupported format version %s", version))
	}
}

// FormatLineEntry renders entry in the given grammar. FormatDetect renders
// v2.
func FormatLineEntry(entry *FitEntry, version FormatVersion) (string, error) {
	if entry == nil {
		return "", fmt.Errorf("fitty: cannot format nil entry")
	}
	return formatLineEntry(entry.Name, entry, version)
}

// formatLineEntry renders entry under name, which is the registry key on
// export and may differ from entry.Name.
func formatLineEntry(name string, entry *FitEntry, version FormatVersion) (string, error) {
	if err := checkEntryName(name); err != nil {
		return "", err
	}
	for _, source := range entry.Formulas() {
		if strings.ContainsAny(source, " \t|") {
			return "", formatError("", source, "formula must be a single token")
		}
	}
	token := name
	if entry.Disabled {
		token = disabledMarker + name
	}
	switch version {
	case FormatV1:
		return formatV1(token, entry)
	case FormatV2, FormatDetect:
		return formatV2(token, entry), nil
	default:
		return "", fmt.Errorf("fitty: unsupported format version %s", version)
	}
}

// checkEntryName rejects names that would not read back as the same key.
func checkEntryName(name string) error {
	switch {
	case name == "" || strings.ContainsAny(name, " \t|"):
		return formatError("", name, "entry name must be a single token")
	case strings.HasPrefix(name, disabledMarker):
		return formatError("", name, "entry name must not start with the disabled marker")
	}
	return nil
}

// parseName strips the disabled marker from the name token.
func parseName(line, token string) (string, bool, error) {
	name, disabled := strings.CutPrefix(token, disabledMarker)
	if name == "" {
		return "", false, formatError(line, token, "missing entry name")
	}
	if strings.HasPrefix(name, disabledMarker) {
		return "", false, formatError(line, token, "repeated disabled marker")
	}
	return name, disabled, nil
}

func parseFloatToken(line, token, field string) (float64, error) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, formatError(line, token, "invalid "+field)
	}
	return v, nil
}

func parseRebinToken(line, token string) (int, error) {
	v, err := strconv.Atoi(token)
	if err != nil || v < 0 {
		return 0, formatError(line, token, "invalid rebin")
	}
	return v, nil
}

func buildEntry(line, name string, min, max float64, formulas []string, engine formula.Engine) (*FitEntry, error) {
	entry, err := NewFitEntry(name, min, max, formulas, engine)
	if err != nil {
		token := ""
		if len(formulas) > 0 {
			token = strings.Join(formulas, " ")
		}
		return nil, wrapFormatError(line, token, "invalid formula", err)
	}
	return entry, nil
}

// parseParams consumes parameter groups into entry. Every parameter needs
// exactly one group, so a line without groups is rejected unless the
// formulas carry no parameters.
func parseParams(line string, tokens []string, entry *FitEntry) error {
	count := entry.ParamCount()
	current := 0
	for i := 0; i < len(tokens); {
		if current >= count {
			return formatError(line, tokens[i], "too many parameters")
		}
		if tokens[i] == fieldSeparator {
			return formatError(line, tokens[i], "unexpected separator")
		}
		value, err := parseFloatToken(line, tokens[i], "parameter value")
		if err != nil {
			return err
		}
		next := ""
		if i+1 < len(tokens) {
			next = tokens[i+1]
		}

		var p Param
		switch next {
		case markerLimits, markerFixedLims:
			if i+3 >= len(tokens) {
				return formatError(line, tokens[i], "incomplete parameter limits")
			}
			lo, err := parseFloatToken(line, tokens[i+2], "lower limit")
			if err != nil {
				return err
			}
			hi, err := parseFloatToken(line, tokens[i+3], "upper limit")
			if err != nil {
				return err
			}
			mode := FitFree
			if next == markerFixedLims {
				mode = FitFixed
			}
			p = NewLimitedParam(value, lo, hi, mode)
			i += 4
		case markerFixed:
			p = NewParam(value, FitFixed)
			i += 2
		default:
			p = NewParam(value, FitFree)
			i++
		}
		entry.params[current] = p
		current++
	}
	if current < count {
		return formatError(line, "", fmt.Sprintf("too few parameters: got %d, want %d", current, count))
	}
	return nil
}

func writeParams(b *strings.Builder, entry *FitEntry) {
	for _, p := range entry.params {
		b.WriteString("  ")
		b.WriteString(p.String())
	}
}
