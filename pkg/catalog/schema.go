// pkg/catalog/schema.go
package catalog

// SourceCatalog describes the demand-signal sources this deployment
// knows about. It is served verbatim on the sources endpoint.
type SourceCatalog struct {
	Version     string             `json:"version"`
	LastUpdated string             `json:"lastUpdated"`
	Sources     []SourceDescriptor `json:"sources"`
}

// SourceDescriptor documents one connector source.
type SourceDescriptor struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description"`
	Metrics      []string `json:"metrics"`
	MockFallback bool     `json:"mockFallback"`
	RateLimit    string   `json:"rateLimit"`
	Tags         []string `json:"tags"`
}
