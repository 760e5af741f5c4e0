package chord

import (
	"regexp"
	"strings"

	"github.com/okian/chordscan/internal/domain/model"
)

const defaultRoot = "C"

var rootPattern = regexp.MustCompile(`^([A-Ga-g])(#{1,2}|b{1,2})?`)

// kindRule pairs a predicate over the lower-cased label suffix with the kind
// it selects. Rules are evaluated in order and the first match wins, so a
// label like "Cdim" resolves to minor because the bare "m" rule runs first.
type kindRule struct {
	name  string
	match func(string) bool
	kind  model.ChordKind
}

var kindRules = []kindRule{
	{name: "maj7", match: containsAny("maj7", "δ7"), kind: model.KindMajorSeventh},
	{name: "maj", match: containsAny("maj"), kind: model.KindMajor},
	{name: "m7", match: containsAny("m7"), kind: model.KindMinorSeventh},
	{name: "m", match: hasBareM, kind: model.KindMinor},
	{name: "dim7", match: containsAny("dim7", "o7"), kind: model.KindDiminishedSeventh},
	{name: "dim", match: containsAny("dim", "o"), kind: model.KindDiminished},
	{name: "aug", match: containsAny("aug", "+"), kind: model.KindAugmented},
	{name: "sus2", match: containsAny("sus2"), kind: model.KindSuspendedSecond},
	{name: "sus", match: containsAny("sus"), kind: model.KindSuspendedFourth},
	{name: "7", match: containsAny("7"), kind: model.KindDominantSeventh},
}

// ParseLabel converts a chord label such as "F#m7" into a symbol. A missing
// or unreadable root defaults to C; an unmatched suffix is major.
func ParseLabel(label string) model.ChordSymbol {
	label = strings.TrimSpace(label)
	sym := model.ChordSymbol{Root: defaultRoot, Kind: model.KindMajor}

	rest := label
	if m := rootPattern.FindStringSubmatch(label); m != nil {
		sym.Root = strings.ToUpper(m[1])
		sym.Alter = strings.Count(m[2], "#") - strings.Count(m[2], "b")
		rest = label[len(m[0]):]
	}

	sym.Kind = classify(rest)
	return sym
}

// Suffix returns label with its root and accidental removed.
func Suffix(label string) string {
	label = strings.TrimSpace(label)
	if m := rootPattern.FindString(label); m != "" {
		return label[len(m):]
	}
	return label
}

// Kind returns the kind ParseLabel would assign to label.
func Kind(label string) model.ChordKind {
	return ParseLabel(label).Kind
}

func classify(suffix string) model.ChordKind {
	s := strings.ToLower(suffix)
	for _, r := range kindRules {
		if r.match(s) {
			return r.kind
		}
	}
	return model.KindMajor
}

func containsAny(needles ...string) func(string) bool {
	return func(s string) bool {
		for _, n := range needles {
			if strings.Contains(s, n) {
				return true
			}
		}
		return false
	}
}

// hasBareM reports an "m" that does not start "maj".
func hasBareM(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == 'm' && !strings.HasPrefix(s[i+1:], "aj") {
			return true
		}
	}
	return false
}
