package geodiv

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tomaszbartus/GeodiversityTools/internal/engine"
)

// fallbackPrefix is used when a layer name carries no alphanumeric
// characters to derive a prefix from.
const fallbackPrefix = "LYR"

// DeriveFieldName returns the default output field name for a metric
// computed from the named source layer: the first three alphanumeric
// characters of the layer name, uppercased, an underscore, and the
// metric's field suffix.
//
// Example: layer "geology_mapped", metric A_SHDI -> "GEO_SHDI".
func DeriveFieldName(layer string, m Metric) string {
	return layerPrefix(layer) + "_" + m.FieldSuffix()
}

// standardizedName returns the companion field name for the min-max
// standardized values of a run. Derived names keep their prefix and gain
// a Std marker before the suffix ("GEO_SHDI" -> "GEO_StdSHDI"); explicit
// names gain a "_Std" tail.
func standardizedName(layer, explicit string, m Metric) string {
	if explicit != "" {
		return explicit + "_Std"
	}
	return layerPrefix(layer) + "_Std" + m.FieldSuffix()
}

// layerPrefix extracts the three-character uppercased prefix from a
// layer name.
func layerPrefix(layer string) string {
	var b strings.Builder
	n := 0
	for _, r := range layer {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			n++
			if n == 3 {
				break
			}
		}
	}
	if n == 0 {
		return fallbackPrefix
	}
	return b.String()
}

// resolveFieldName applies the collision policy against the existing
// columns of the zone table. A free name is taken as-is; an existing
// numeric column of the same name is overwritten in place; an existing
// column of an incompatible type is sidestepped with a numeric suffix.
//
// The second return reports whether the resolved name overwrites an
// existing column.
func resolveFieldName(existing []FieldInfo, desired string) (string, bool, error) {
	byName := make(map[string]FieldInfo, len(existing))
	for _, f := range existing {
		byName[strings.ToLower(f.Name)] = f
	}

	f, taken := byName[strings.ToLower(desired)]
	if !taken {
		return desired, false, nil
	}
	if f.Numeric {
		return desired, true, nil
	}

	for i := 1; i < 1000; i++ {
		candidate := fmt.Sprintf("%s_%d", desired, i)
		if _, taken := byName[strings.ToLower(candidate)]; !taken {
			return candidate, false, nil
		}
	}
	return "", false, &engine.ErrConfiguration{
		Reason: fmt.Sprintf("no free field name near %q", desired),
	}
}
