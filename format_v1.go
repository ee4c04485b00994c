package fitty

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-fitty/formula"
)

const (
	v1HeaderTokens = 6
	v1Formulas     = 2
)

func parseV1(line string, tokens []string, engine formula.Engine) (*FitEntry, error) {
	if len(tokens) < v1HeaderTokens {
		return nil, formatError(line, "", fmt.Sprintf("not enough header fields: got %d, want %d", len(tokens), v1HeaderTokens))
	}
	name, disabled, err := parseName(line, tokens[0])
	if err != nil {
		return nil, err
	}
	rebin, err := parseRebinToken(line, tokens[3])
	if err != nil {
		return nil, err
	}
	min, err := parseFloatToken(line, tokens[4], "range minimum")
	if err != nil {
		return nil, err
	}
	max, err := parseFloatToken(line, tokens[5], "range maximum")
	if err != nil {
		return nil, err
	}
	entry, err := buildEntry(line, name, min, max, tokens[1:3], engine)
	if err != nil {
		return nil, err
	}
	entry.Rebin = rebin
	entry.Disabled = disabled
	if err := parseParams(line, tokens[v1HeaderTokens:], entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// formatV1 needs exactly a signal and a background formula.
func formatV1(name string, entry *FitEntry) (string, error) {
	formulas := entry.Formulas()
	if len(formulas) != v1Formulas {
		return "", formatError("", name, fmt.Sprintf("v1 needs %d formulas, entry has %d", v1Formulas, len(formulas)))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\t%s %s %d %s %s", name, formulas[0], formulas[1],
		entry.Rebin, formatFloat(entry.Min), formatFloat(entry.Max))
	writeParams(&b, entry)
	return b.String(), nil
}
