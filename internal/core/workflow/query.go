package workflow

import "slices"

// Bucket is the status filter a viewer asks for.
type Bucket string

const (
	BucketAll               Bucket = ""
	BucketPending           Bucket = "pending"
	BucketApproved          Bucket = "approved"
	BucketFullyApproved     Bucket = "fully-approved"
	BucketPartiallyApproved Bucket = "partially-approved"
	BucketRejected          Bucket = "rejected"
)

// Buckets lists every named bucket, in display order.
var Buckets = []Bucket{BucketPending, BucketApproved, BucketFullyApproved, BucketPartiallyApproved, BucketRejected}

// ParseBucket validates a raw query value.
func ParseBucket(raw string) (Bucket, error) {
	b := Bucket(raw)
	if b == BucketAll || slices.Contains(Buckets, b) {
		return b, nil
	}
	return "", Errorf(ErrUnknownBucket, "unknown status filter %q", raw)
}

// Viewer is the caller listing applications.
type Viewer struct {
	Identity string
	Role     Role
}

// Clause is a conjunction of conditions. Empty fields do not constrain.
type Clause struct {
	Statuses     []Status
	Levels       []Stage
	ExcludeLevel Stage
}

// Filter selects applications: FiledBy (when set) AND any one of Clauses (when present).
type Filter struct {
	FiledBy string
	Clauses []Clause
}

// Matches evaluates the filter against an application in memory.
func (f Filter) Matches(app Application) bool {
	if f.FiledBy != "" && app.FiledBy != f.FiledBy {
		return false
	}
	if len(f.Clauses) == 0 {
		return true
	}
	for _, c := range f.Clauses {
		if c.matches(app) {
			return true
		}
	}
	return false
}

func (c Clause) matches(app Application) bool {
	if len(c.Statuses) > 0 && !slices.Contains(c.Statuses, app.Status) {
		return false
	}
	if len(c.Levels) > 0 && !slices.Contains(c.Levels, app.CurrentLevel) {
		return false
	}
	if c.ExcludeLevel != "" && app.CurrentLevel == c.ExcludeLevel {
		return false
	}
	return true
}

// Plan builds the filter for what viewer may see in bucket.
func (p *Policy) Plan(viewer Viewer, bucket Bucket) (Filter, error) {
	if viewer.Identity == "" {
		return Filter{}, ErrUnauthorizedActor
	}
	if _, err := ParseBucket(string(bucket)); err != nil {
		return Filter{}, err
	}

	if p.IsRequester(viewer.Role) {
		f := Filter{FiledBy: viewer.Identity}
		if c, ok := statusClause(bucket); ok {
			f.Clauses = []Clause{c}
		}
		return f, nil
	}

	home, ok := p.HomeStage(viewer.Role)
	if !ok {
		return Filter{}, Errorf(ErrUnauthorizedActor, "role %s may not list applications", viewer.Role)
	}

	if bucket != BucketPending {
		var f Filter
		if c, ok := statusClause(bucket); ok {
			f.Clauses = []Clause{c}
		}
		return f, nil
	}

	idx := StageIndex(home)
	upTo := append([]Stage(nil), Stages[:idx+1]...)
	f := Filter{Clauses: []Clause{{Statuses: []Status{StatusPending}, Levels: upTo}}}
	if home == LastStage() {
		f.Clauses = append(f.Clauses, Clause{Statuses: []Status{StatusApproved}, Levels: []Stage{home}})
	}
	return f, nil
}

func statusClause(bucket Bucket) (Clause, bool) {
	switch bucket {
	case BucketPending:
		return Clause{Statuses: []Status{StatusPending}}, true
	case BucketApproved:
		return Clause{Statuses: []Status{StatusApproved}}, true
	case BucketFullyApproved:
		return Clause{Statuses: []Status{StatusApproved}, Levels: []Stage{Completed}}, true
	case BucketPartiallyApproved:
		return Clause{Statuses: []Status{StatusApproved}, ExcludeLevel: Completed}, true
	case BucketRejected:
		return Clause{Statuses: []Status{StatusRejected}}, true
	}
	return Clause{}, false
}
