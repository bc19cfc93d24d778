package notion

import "encoding/json"

// Credential is one owner's access to the remote API.
type Credential struct {
	OwnerID string
	Token   string
	Version string
}

// DataSourceDescriptor is one queryable data source listed on a database.
type DataSourceDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Database is the remote collection container. Newer API versions expose
// one or more data sources per database; the property schema lives on the
// data source.
type Database struct {
	ID          string                 `json:"id"`
	Title       []RichText             `json:"title"`
	DataSources []DataSourceDescriptor `json:"data_sources"`
}

// DataSource carries the property schema of one data source.
type DataSource struct {
	ID         string                    `json:"id"`
	Name       string                    `json:"name"`
	Properties map[string]PropertySchema `json:"properties"`
}

// PropertySchema is one property definition; only the type tag matters to
// the mapper.
type PropertySchema struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// RichText is one plain-text run of a title or rich_text value.
type RichText struct {
	PlainText string `json:"plain_text"`
}

// PlainText concatenates the runs in order with no separator.
func PlainText(runs []RichText) string {
	out := ""
	for _, r := range runs {
		out += r.PlainText
	}
	return out
}

// Record is one page of a queried data source. Property values stay as
// loose JSON maps; the converter dispatches on their "type" tag.
type Record struct {
	ID         string                    `json:"id"`
	Properties map[string]map[string]any `json:"properties"`
}

// QueryResult is one page of query results plus its cursor state.
type QueryResult struct {
	Records    []Record `json:"results"`
	HasMore    bool     `json:"has_more"`
	NextCursor string   `json:"next_cursor"`
}

// Block is one node of a page's content tree as returned by the API.
// Raw holds the block object itself so type-specific payloads survive
// round-trips without this package enumerating every block type.
type Block struct {
	ID          string
	Type        string
	HasChildren bool
	Parent      ParentRef
	Raw         map[string]any
}

// ParentRef points at a block's or page's parent object.
type ParentRef struct {
	Type    string `json:"type"`
	PageID  string `json:"page_id,omitempty"`
	BlockID string `json:"block_id,omitempty"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var head struct {
		ID          string    `json:"id"`
		Type        string    `json:"type"`
		HasChildren bool      `json:"has_children"`
		Parent      ParentRef `json:"parent"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	b.ID = head.ID
	b.Type = head.Type
	b.HasChildren = head.HasChildren
	b.Parent = head.Parent
	b.Raw = raw
	return nil
}

// SearchResult is one page of a workspace-wide search.
type SearchResult struct {
	Results    []map[string]any `json:"results"`
	HasMore    bool             `json:"has_more"`
	NextCursor string           `json:"next_cursor"`
}
