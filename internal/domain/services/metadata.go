package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ochairo/modulescanner/internal/domain/entities"
)

var (
	// ErrTagNotFound is returned when no line contains the start tag
	ErrTagNotFound = errors.New("tag not found")
	// ErrUnterminatedTag is returned when the start tag has no closing tag on its line
	ErrUnterminatedTag = errors.New("closing tag not found on line")
)

// TagRule pairs the opening and closing markers of a single-line element
type TagRule struct {
	Open  string
	Close string
}

// Tag returns the rule for <name>...</name>
func Tag(name string) TagRule {
	return TagRule{Open: "<" + name + ">", Close: "</" + name + ">"}
}

// Metadata tags read from maven-metadata.xml
var (
	GroupIDTag     = Tag("groupId")
	ArtifactIDTag  = Tag("artifactId")
	LatestTag      = Tag("latest")
	LastUpdatedTag = Tag("lastUpdated")
)

// ExtractTag returns the text between rule.Open and the last rule.Close on the
// first line containing rule.Open. Later lines are never consulted, even when
// the first match is unterminated.
func ExtractTag(lines []string, rule TagRule) (string, error) {
	for _, line := range lines {
		start := strings.Index(line, rule.Open)
		if start < 0 {
			continue
		}
		start += len(rule.Open)
		end := strings.LastIndex(line, rule.Close)
		if end < start {
			return "", fmt.Errorf("%s: %w", rule.Open, ErrUnterminatedTag)
		}
		return line[start:end], nil
	}
	return "", fmt.Errorf("%s: %w", rule.Open, ErrTagNotFound)
}

// ExtractMetadata reads the four fields the walker needs. Any missing field
// fails the whole record.
func ExtractMetadata(lines []string) (entities.MetadataRecord, error) {
	var record entities.MetadataRecord

	fields := []struct {
		rule TagRule
		dst  *string
	}{
		{GroupIDTag, &record.GroupID},
		{ArtifactIDTag, &record.ArtifactID},
		{LatestTag, &record.Latest},
		{LastUpdatedTag, &record.LastUpdated},
	}

	for _, f := range fields {
		value, err := ExtractTag(lines, f.rule)
		if err != nil {
			return entities.MetadataRecord{}, err
		}
		*f.dst = value
	}

	return record, nil
}

// SplitLines splits file content into lines, accepting \n and \r\n endings
func SplitLines(content string) []string {
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
