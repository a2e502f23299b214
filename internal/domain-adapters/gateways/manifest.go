package gateways

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ManifestPath is the location of the JAR manifest
const ManifestPath = "META-INF/MANIFEST.MF"

// ErrInvalidManifest is returned for manifests that break the header syntax
var ErrInvalidManifest = errors.New("invalid manifest")

var manifestLineBreak = regexp.MustCompile(`\r\n|\n|\r`)

// ParseManifest returns the main attributes of a JAR manifest. The main
// section ends at the first empty line; lines starting with a single space
// continue the previous value.
func ParseManifest(data []byte) (map[string]string, error) {
	attrs := make(map[string]string)
	content := strings.TrimPrefix(string(data), "\ufeff")

	lastKey := ""
	for n, line := range manifestLineBreak.Split(content, -1) {
		if line == "" {
			break
		}

		if strings.HasPrefix(line, " ") {
			if lastKey == "" {
				return nil, fmt.Errorf("%w: continuation without header on line %d", ErrInvalidManifest, n+1)
			}
			attrs[lastKey] += line[1:]
			continue
		}

		key, value, ok := strings.Cut(line, ": ")
		if !ok || key == "" {
			// "Key:" with an empty value is allowed
			if k, found := strings.CutSuffix(line, ":"); found && k != "" && !strings.Contains(k, " ") {
				key, value = k, ""
			} else {
				return nil, fmt.Errorf("%w: invalid header on line %d", ErrInvalidManifest, n+1)
			}
		}
		attrs[key] = value
		lastKey = key
	}

	return attrs, nil
}

// ManifestValue looks up a header name case-insensitively
func ManifestValue(attrs map[string]string, name string) (string, bool) {
	if v, ok := attrs[name]; ok {
		return v, true
	}
	for k, v := range attrs {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
