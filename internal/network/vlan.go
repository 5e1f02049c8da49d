package network

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

const (
	// maxVLANNameLen is the longest VLAN name IOS accepts.
	maxVLANNameLen = 32
	// maxDescriptionLen is the longest interface description IOS accepts.
	maxDescriptionLen = 240
)

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// VLANID derives the VLAN id of a batch. The same user, resource set and
// time bucket always yield the same id.
func (v VLANConfig) VLANID(username string, resourceNames []string, timestamp time.Time) int {
	names := slices.Clone(resourceNames)
	slices.Sort(names)

	bucket := timestamp.UTC()
	if v.TimeBucket > 0 {
		bucket = bucket.Truncate(v.TimeBucket)
	}

	h := xxhash.New()
	_, _ = h.WriteString(username)
	for _, n := range names {
		_, _ = h.WriteString("\x00")
		_, _ = h.WriteString(n)
	}
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.FormatInt(bucket.Unix(), 10))

	return v.BaseID + int(h.Sum64()%uint64(v.IDRange))
}

// VLANName returns "{prefix}_{username}_{unix timestamp}" restricted to
// characters IOS accepts and truncated to its length limit.
func (v VLANConfig) VLANName(username string, timestamp time.Time) string {
	name := fmt.Sprintf("%s_%s_%d", v.NamePrefix, username, timestamp.Unix())
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if len(name) > maxVLANNameLen {
		name = name[:maxVLANNameLen]
	}
	return name
}

// Description returns the human readable description of a batch VLAN.
// Control characters become spaces so the text stays on one CLI line.
func (v VLANConfig) Description(username string, resources int) string {
	desc := fmt.Sprintf("%s - User: %s, Resources: %d", v.DescriptionPrefix, username, resources)
	desc = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, desc)
	if len(desc) > maxDescriptionLen {
		desc = strings.ToValidUTF8(desc[:maxDescriptionLen], "")
	}
	return desc
}
