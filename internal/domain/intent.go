package domain

// Task identifies what the user is asking the assistant to do.
// It is produced by the intent classifier, never by this service.
type Task string

const (
	TaskSearch  Task = "search"
	TaskCount   Task = "count"
	TaskDetails Task = "details"
	TaskError   Task = "error"
)

// Intent is the structured representation of a user utterance, as returned
// by the classifier collaborator. All fields besides Task are optional.
// The json tags match the tool-call argument names the classifier emits.
type Intent struct {
	Task       Task              `json:"task"`
	Keywords   string            `json:"keywords,omitempty"`
	SKU        string            `json:"sku,omitempty"`
	Brand      string            `json:"brand,omitempty"`
	Category   string            `json:"category,omitempty"`
	OnSale     bool              `json:"on_sale,omitempty"`
	Limit      int               `json:"limit,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Question   string            `json:"question,omitempty"`
	// Details carries the failure description when Task is TaskError.
	Details string `json:"details,omitempty"`
}

// SearchTerm returns the primary text-search seed. An explicit SKU always
// supersedes free-text keywords; they are never combined.
func (i Intent) SearchTerm() string {
	if i.SKU != "" {
		return i.SKU
	}
	return i.Keywords
}
