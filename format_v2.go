package fitty

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-fitty/formula"
)

const v2HeaderTokens = 5

func parseV2(line string, tokens []string, engine formula.Engine) (*FitEntry, error) {
	if len(tokens) < v2HeaderTokens {
		return nil, formatError(line, "", fmt.Sprintf("not enough header fields: got %d, want %d", len(tokens), v2HeaderTokens))
	}
	name, disabled, err := parseName(line, tokens[0])
	if err != nil {
		return nil, err
	}
	min, err := parseFloatToken(line, tokens[1], "range minimum")
	if err != nil {
		return nil, err
	}
	max, err := parseFloatToken(line, tokens[2], "range maximum")
	if err != nil {
		return nil, err
	}
	rebin, err := parseRebinToken(line, tokens[3])
	if err != nil {
		return nil, err
	}

	separator := -1
	for i := 4; i < len(tokens); i++ {
		token := tokens[i]
		if token == fieldSeparator {
			separator = i
			break
		}
		if token == markerLimits || token == markerFixed || token == markerFixedLims {
			return nil, formatError(line, token, "parameter marker among formulas")
		}
	}
	switch {
	case separator < 0:
		return nil, formatError(line, "", "missing "+fieldSeparator+" separator")
	case separator == 4:
		return nil, formatError(line, fieldSeparator, "no formula before separator")
	}

	entry, err := buildEntry(line, name, min, max, tokens[4:separator], engine)
	if err != nil {
		return nil, err
	}
	entry.Rebin = rebin
	entry.Disabled = disabled
	if err := parseParams(line, tokens[separator+1:], entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func formatV2(name string, entry *FitEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\t%s %s %d", name, formatFloat(entry.Min), formatFloat(entry.Max), entry.Rebin)
	for _, source := range entry.Formulas() {
		b.WriteString(" ")
		b.WriteString(source)
	}
	b.WriteString(" " + fieldSeparator)
	writeParams(&b, entry)
	return b.String()
}
