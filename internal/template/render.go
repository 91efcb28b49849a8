package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Vars maps placeholder names to their substituted values
type Vars map[string]string

// Placeholders follow the {{VARIABLE_NAME}} grammar: upper-case letters,
// digits and underscores.
var placeholderPattern = regexp.MustCompile(`\{\{([A-Z][A-Z0-9_]*)\}\}`)

// Render replaces every {{NAME}} placeholder in content with its value from
// vars. All placeholders present in the content must be supplied; a missing
// variable is an error rather than a silent blank in a customer-facing
// message.
func Render(content string, vars Vars) (string, error) {
	missing := map[string]struct{}{}

	rendered := placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]

		value, ok := vars[name]
		if !ok {
			missing[name] = struct{}{}
			return match
		}

		return value
	})

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for name := range missing {
			names = append(names, name)
		}
		sort.Strings(names)

		return "", fmt.Errorf("missing template variables: %s", strings.Join(names, ", "))
	}

	return rendered, nil
}
