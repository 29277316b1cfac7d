// internal/models/viewer.go
package models

// ConnectedMetrics is a snapshot of the viewer's linked social account.
type ConnectedMetrics struct {
	FollowerCount  int64   `json:"followerCount"`
	EngagementRate float64 `json:"engagementRate"`
}

// ViewerContext describes who is asking for matches. It is built per
// request and never persisted.
type ViewerContext struct {
	Role      Role              `json:"role"`
	UserID    string            `json:"userId,omitempty"`
	Connected *ConnectedMetrics `json:"connected,omitempty"`
}

// CandidateRole is the role of the profiles this viewer is matched against.
func (v ViewerContext) CandidateRole() Role {
	return v.Role.Opposite()
}
