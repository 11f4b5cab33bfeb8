package source

import "strings"

// Decision is the outcome of the resolution policy.
type Decision int

const (
	// UseLocal means the local cache produced confirmed loads.
	UseLocal Decision = iota
	// QueryRemote means the cache had nothing usable and the remote service
	// is reachable.
	QueryRemote
	// NoSource means there is nothing to export.
	NoSource
)

func (d Decision) String() string {
	switch d {
	case UseLocal:
		return "local"
	case QueryRemote:
		return "remote"
	default:
		return "none"
	}
}

// Decide picks the source for a resolution given the number of confirmed
// local records and whether the remote service is reachable.
func Decide(localConfirmed int, online bool) Decision {
	switch {
	case localConfirmed > 0:
		return UseLocal
	case online:
		return QueryRemote
	default:
		return NoSource
	}
}

var statusFolder = strings.NewReplacer("_", " ", "-", " ")

// Unconfirmed reports whether status marks a load that has not been
// confirmed yet: "draft" or "pending upload" in any case, with underscores,
// hyphens or camel case in place of the space.
func Unconfirmed(status string) bool {
	s := strings.ToLower(strings.TrimSpace(statusFolder.Replace(status)))
	s = strings.Join(strings.Fields(s), " ")
	switch s {
	case "draft", "pending upload", "pendingupload":
		return true
	}
	return false
}
