package dto

// PublishRecordRequest is the optional body of a publish submission. The
// record's content is already attached to the record row; the body only
// carries Ledger submission options.
type PublishRecordRequest struct {
	Privacy  string `json:"privacy,omitempty"`
	Epochs   int    `json:"epochs,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

// PublishRecordResponse is the synchronous answer to a publish submission.
// Either OperationID is set (status "publishing"; poll for resolution) or
// Locator is set (the Ledger resolved immediately).
type PublishRecordResponse struct {
	Success     bool   `json:"success"`
	RecordID    string `json:"recordId"`
	Status      string `json:"status"`
	OperationID string `json:"operationId,omitempty"`
	Locator     string `json:"locator,omitempty"`
	DatasetRoot string `json:"datasetRoot,omitempty"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// PublishStatusResponse is the poll answer for a record or operation.
// Clients poll on a fixed interval until Status is terminal.
type PublishStatusResponse struct {
	Success     bool     `json:"success"`
	Status      string   `json:"status"`
	Locator     string   `json:"locator,omitempty"`
	DatasetRoot string   `json:"datasetRoot,omitempty"`
	ExplorerURL string   `json:"explorerUrl,omitempty"`
	Score       *float64 `json:"score,omitempty"`
	Error       string   `json:"error,omitempty"`
}
