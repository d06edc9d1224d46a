// ABOUTME: Projections of az resource, group, webapp and storage records.
// ABOUTME: Pure functions; absent source fields are omitted from the output.

package portal

import (
	"bytes"
	"encoding/json"
)

// Resource is the subset of `az resource list` output the projections read.
type Resource struct {
	ID                json.RawMessage `json:"id"`
	Name              json.RawMessage `json:"name"`
	Type              json.RawMessage `json:"type"`
	Location          json.RawMessage `json:"location"`
	ResourceGroup     json.RawMessage `json:"resourceGroup"`
	Tags              json.RawMessage `json:"tags"`
	ProvisioningState json.RawMessage `json:"provisioningState"`
}

// ResourceSummary is one entry of list_resources output.
type ResourceSummary struct {
	ID            json.RawMessage `json:"id,omitempty"`
	Name          json.RawMessage `json:"name,omitempty"`
	Type          json.RawMessage `json:"type,omitempty"`
	Location      json.RawMessage `json:"location,omitempty"`
	ResourceGroup json.RawMessage `json:"resourceGroup,omitempty"`
	Tags          json.RawMessage `json:"tags,omitempty"`
}

// SummarizeResources projects resource records.
func SummarizeResources(resources []Resource) []ResourceSummary {
	out := make([]ResourceSummary, 0, len(resources))
	for _, r := range resources {
		out = append(out, ResourceSummary{
			ID:            r.ID,
			Name:          r.Name,
			Type:          r.Type,
			Location:      r.Location,
			ResourceGroup: r.ResourceGroup,
			Tags:          r.Tags,
		})
	}
	return out
}

// unknownState is reported when a resource has no provisioning state.
var unknownState = json.RawMessage(`"Unknown"`)

// HealthSummary is one entry of get_resource_health output.
type HealthSummary struct {
	Name              json.RawMessage `json:"name,omitempty"`
	Type              json.RawMessage `json:"type,omitempty"`
	Location          json.RawMessage `json:"location,omitempty"`
	ResourceGroup     json.RawMessage `json:"resourceGroup,omitempty"`
	ProvisioningState json.RawMessage `json:"provisioningState"`
}

// SummarizeHealth projects resources onto their provisioning state,
// substituting "Unknown" for absent, null or empty states.
func SummarizeHealth(resources []Resource) []HealthSummary {
	out := make([]HealthSummary, 0, len(resources))
	for _, r := range resources {
		state := r.ProvisioningState
		if isFalsy(state) {
			state = unknownState
		}
		out = append(out, HealthSummary{
			Name:              r.Name,
			Type:              r.Type,
			Location:          r.Location,
			ResourceGroup:     r.ResourceGroup,
			ProvisioningState: state,
		})
	}
	return out
}

// ResourceGroup is the subset of `az group list` output the projection reads.
type ResourceGroup struct {
	Name       json.RawMessage `json:"name"`
	Location   json.RawMessage `json:"location"`
	Tags       json.RawMessage `json:"tags"`
	Properties *struct {
		ProvisioningState json.RawMessage `json:"provisioningState"`
	} `json:"properties"`
}

// ResourceGroupSummary is one entry of list_resource_groups output.
type ResourceGroupSummary struct {
	Name              json.RawMessage `json:"name,omitempty"`
	Location          json.RawMessage `json:"location,omitempty"`
	ProvisioningState json.RawMessage `json:"provisioningState,omitempty"`
	Tags              json.RawMessage `json:"tags,omitempty"`
}

// SummarizeResourceGroups projects resource group records.
func SummarizeResourceGroups(groups []ResourceGroup) []ResourceGroupSummary {
	out := make([]ResourceGroupSummary, 0, len(groups))
	for _, g := range groups {
		s := ResourceGroupSummary{Name: g.Name, Location: g.Location, Tags: g.Tags}
		if g.Properties != nil {
			s.ProvisioningState = g.Properties.ProvisioningState
		}
		out = append(out, s)
	}
	return out
}

// WebApp is the subset of `az webapp list` output the projection reads.
type WebApp struct {
	Name            json.RawMessage `json:"name"`
	ResourceGroup   json.RawMessage `json:"resourceGroup"`
	Location        json.RawMessage `json:"location"`
	State           json.RawMessage `json:"state"`
	DefaultHostName json.RawMessage `json:"defaultHostName"`
	ServerFarmID    json.RawMessage `json:"serverFarmId"`
	HTTPSOnly       json.RawMessage `json:"httpsOnly"`
	SiteConfig      *struct {
		FtpsState json.RawMessage `json:"ftpsState"`
	} `json:"siteConfig"`
}

// WebAppSummary is one entry of list_app_services output.
type WebAppSummary struct {
	Name            json.RawMessage `json:"name,omitempty"`
	ResourceGroup   json.RawMessage `json:"resourceGroup,omitempty"`
	Location        json.RawMessage `json:"location,omitempty"`
	State           json.RawMessage `json:"state,omitempty"`
	DefaultHostName json.RawMessage `json:"defaultHostName,omitempty"`
	AppServicePlan  json.RawMessage `json:"appServicePlan,omitempty"`
	HTTPSOnly       json.RawMessage `json:"httpsOnly,omitempty"`
	FtpsState       json.RawMessage `json:"ftpsState,omitempty"`
}

// SummarizeWebApps projects web app records.
func SummarizeWebApps(apps []WebApp) []WebAppSummary {
	out := make([]WebAppSummary, 0, len(apps))
	for _, a := range apps {
		s := WebAppSummary{
			Name:            a.Name,
			ResourceGroup:   a.ResourceGroup,
			Location:        a.Location,
			State:           a.State,
			DefaultHostName: a.DefaultHostName,
			AppServicePlan:  a.ServerFarmID,
			HTTPSOnly:       a.HTTPSOnly,
		}
		if a.SiteConfig != nil {
			s.FtpsState = a.SiteConfig.FtpsState
		}
		out = append(out, s)
	}
	return out
}

// StorageAccount is the subset of `az storage account list` output the projection reads.
type StorageAccount struct {
	Name          json.RawMessage `json:"name"`
	ResourceGroup json.RawMessage `json:"resourceGroup"`
	Location      json.RawMessage `json:"location"`
	Sku           *struct {
		Name json.RawMessage `json:"name"`
	} `json:"sku"`
	Kind              json.RawMessage `json:"kind"`
	ProvisioningState json.RawMessage `json:"provisioningState"`
	PrimaryEndpoints  json.RawMessage `json:"primaryEndpoints"`
}

// StorageAccountSummary is one entry of list_storage_accounts output.
type StorageAccountSummary struct {
	Name              json.RawMessage `json:"name,omitempty"`
	ResourceGroup     json.RawMessage `json:"resourceGroup,omitempty"`
	Location          json.RawMessage `json:"location,omitempty"`
	Sku               json.RawMessage `json:"sku,omitempty"`
	Kind              json.RawMessage `json:"kind,omitempty"`
	ProvisioningState json.RawMessage `json:"provisioningState,omitempty"`
	PrimaryEndpoints  json.RawMessage `json:"primaryEndpoints,omitempty"`
}

// SummarizeStorageAccounts projects storage account records.
func SummarizeStorageAccounts(accounts []StorageAccount) []StorageAccountSummary {
	out := make([]StorageAccountSummary, 0, len(accounts))
	for _, a := range accounts {
		s := StorageAccountSummary{
			Name:              a.Name,
			ResourceGroup:     a.ResourceGroup,
			Location:          a.Location,
			Kind:              a.Kind,
			ProvisioningState: a.ProvisioningState,
			PrimaryEndpoints:  a.PrimaryEndpoints,
		}
		if a.Sku != nil {
			s.Sku = a.Sku.Name
		}
		out = append(out, s)
	}
	return out
}

// isFalsy reports whether a raw value is absent, null, false, 0 or "".
func isFalsy(v json.RawMessage) bool {
	switch string(bytes.TrimSpace(v)) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}
