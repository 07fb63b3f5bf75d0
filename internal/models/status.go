package models

// Status enumerates the review lifecycle of a beatmapset. The stored integer
// values come from the client protocol and are not contiguous in meaning, so
// ordering decisions must go through OrderValue instead of comparing the raw
// numbers.
type Status int

const (
	StatusGraveyard Status = -2
	StatusWIP       Status = -1
	StatusPending   Status = 0
	StatusRanked    Status = 1
	StatusApproved  Status = 2
	StatusQualified Status = 3
	StatusLoved     Status = 4
)

// StatusIgnored is the sentinel a per-difficulty update uses to skip an entry.
const StatusIgnored Status = -3

// Known reports whether s is a member of the status enum.
func (s Status) Known() bool {
	switch s {
	case StatusGraveyard, StatusWIP, StatusPending, StatusRanked, StatusApproved, StatusQualified, StatusLoved:
		return true
	}
	return false
}

// OrderValue returns the promotion rank used when aggregating requested
// statuses. Loved sits outside the strict ordering but dominates everything.
func (s Status) OrderValue() int {
	switch s {
	case StatusGraveyard:
		return 0
	case StatusWIP:
		return 1
	case StatusPending:
		return 2
	case StatusRanked:
		return 3
	case StatusApproved:
		return 4
	case StatusQualified:
		return 5
	case StatusLoved:
		return 6
	}
	return -1
}

// Promoted reports whether s sits above Pending in the lifecycle, meaning the
// set has passed some validation bar (Ranked, Approved, Qualified or Loved).
func (s Status) Promoted() bool {
	switch s {
	case StatusRanked, StatusApproved, StatusQualified, StatusLoved:
		return true
	}
	return false
}

func (s Status) String() string {
	switch s {
	case StatusGraveyard:
		return "Graveyard"
	case StatusWIP:
		return "WIP"
	case StatusPending:
		return "Pending"
	case StatusRanked:
		return "Ranked"
	case StatusApproved:
		return "Approved"
	case StatusQualified:
		return "Qualified"
	case StatusLoved:
		return "Loved"
	}
	return "Unknown"
}

// MaxStatus returns the highest-ranked status in the slice.
func MaxStatus(statuses []Status) Status {
	max := statuses[0]
	for _, s := range statuses[1:] {
		if s.OrderValue() > max.OrderValue() {
			max = s
		}
	}
	return max
}
