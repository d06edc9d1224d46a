// ABOUTME: Projection of az pipelines build records onto a compact summary.
// ABOUTME: Absent source fields stay absent; nulls pass through unchanged.

package devops

import "encoding/json"

// Build is the subset of a build record the summary reads.
type Build struct {
	ID           json.RawMessage `json:"id"`
	BuildNumber  json.RawMessage `json:"buildNumber"`
	Status       json.RawMessage `json:"status"`
	Result       json.RawMessage `json:"result"`
	SourceBranch json.RawMessage `json:"sourceBranch"`
	StartTime    json.RawMessage `json:"startTime"`
	FinishTime   json.RawMessage `json:"finishTime"`
	RequestedFor *struct {
		DisplayName json.RawMessage `json:"displayName"`
	} `json:"requestedFor"`
	Links *struct {
		Web *struct {
			Href json.RawMessage `json:"href"`
		} `json:"web"`
	} `json:"_links"`
}

// BuildSummary is one entry of list_builds output.
type BuildSummary struct {
	ID           json.RawMessage `json:"id,omitempty"`
	BuildNumber  json.RawMessage `json:"buildNumber,omitempty"`
	Status       json.RawMessage `json:"status,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	SourceBranch json.RawMessage `json:"sourceBranch,omitempty"`
	StartTime    json.RawMessage `json:"startTime,omitempty"`
	FinishTime   json.RawMessage `json:"finishTime,omitempty"`
	RequestedFor json.RawMessage `json:"requestedFor,omitempty"`
	URL          json.RawMessage `json:"url,omitempty"`
}

// SummarizeBuilds projects build records. It never fails.
func SummarizeBuilds(builds []Build) []BuildSummary {
	out := make([]BuildSummary, 0, len(builds))
	for _, b := range builds {
		s := BuildSummary{
			ID:           b.ID,
			BuildNumber:  b.BuildNumber,
			Status:       b.Status,
			Result:       b.Result,
			SourceBranch: b.SourceBranch,
			StartTime:    b.StartTime,
			FinishTime:   b.FinishTime,
		}
		if b.RequestedFor != nil {
			s.RequestedFor = b.RequestedFor.DisplayName
		}
		if b.Links != nil && b.Links.Web != nil {
			s.URL = b.Links.Web.Href
		}
		out = append(out, s)
	}
	return out
}
