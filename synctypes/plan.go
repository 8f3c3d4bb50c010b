package synctypes

// ContentDispositionInline is the disposition attached to every upload.
const ContentDispositionInline = "inline"

// PlanItem is the planned treatment of a single storage key.
type PlanItem struct {
	// Key is the full storage key, including any prefix
	Key string

	// Local is set when the key exists in the local tree
	Local *LocalFile

	// Remote is set when the key exists in the bucket
	Remote *RemoteObject

	Action       Action
	CacheControl string

	// Cache is true when CacheControl carries a positive max-age
	Cache bool

	// Invalidate marks the key for CDN invalidation
	Invalidate bool

	ContentType        string
	ContentDisposition string
	ACL                string

	// Data replaces the local file contents for inline payloads
	Data []byte
}

// Size returns the number of bytes an upload of the item would send.
func (i *PlanItem) Size() int64 {
	if i.Data != nil {
		return int64(len(i.Data))
	}
	if i.Local != nil {
		return i.Local.Size
	}
	return 0
}

// Inline reports whether the item uploads an in-memory payload.
func (i *PlanItem) Inline() bool {
	return i.Data != nil
}

// Plan is the ordered list of operations for one deployment.
type Plan struct {
	Items    []*PlanItem
	Region   string
	Bucket   string
	Endpoint string
	Prefix   string
}

// PlanStats counts plan items per action.
type PlanStats struct {
	Total      int
	ByAction   map[Action]int
	Invalidate int
	Bytes      int64
}

// Stats counts items by action. Bytes sums the upload size of Create and Update items.
func (p *Plan) Stats() PlanStats {
	stats := PlanStats{ByAction: make(map[Action]int, len(Actions))}
	for _, item := range p.Items {
		stats.Total++
		stats.ByAction[item.Action]++
		if item.Invalidate {
			stats.Invalidate++
		}
		if item.Action == ActionCreate || item.Action == ActionUpdate {
			stats.Bytes += item.Size()
		}
	}
	return stats
}

// HasChanges reports whether executing the plan would touch the bucket.
func (p *Plan) HasChanges() bool {
	for _, item := range p.Items {
		if item.Action.Mutating() {
			return true
		}
	}
	return false
}

// Filter returns the items whose action is one of actions, in plan order.
func (p *Plan) Filter(actions ...Action) []*PlanItem {
	want := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		want[a] = struct{}{}
	}
	var out []*PlanItem
	for _, item := range p.Items {
		if _, ok := want[item.Action]; ok {
			out = append(out, item)
		}
	}
	return out
}
