package entities

// MetadataRecord holds the fields read from a maven-metadata.xml file
type MetadataRecord struct {
	GroupID     string
	ArtifactID  string
	Latest      string
	LastUpdated string // yyyyMMddHHmmss, compared lexicographically
}

// UpdatedAfter reports whether the record is strictly newer than cutoff.
// Both values are fixed-width numeric timestamps, so byte order is time order.
func (m MetadataRecord) UpdatedAfter(cutoff string) bool {
	return m.LastUpdated > cutoff
}
