package model

// PredictionEntry is one line of the prediction ledger. Timestamp is unix
// milliseconds. ActualValue stays nil until the entry is resolved.
type PredictionEntry struct {
	ID             string   `json:"id"`
	AgentID        string   `json:"agentId"`
	Timestamp      int64    `json:"timestamp"`
	PredictedValue float64  `json:"predictedValue"`
	ActualValue    *float64 `json:"actualValue"`
	Resolved       bool     `json:"resolved"`
}

// Accuracy summarizes resolved predictions.
type Accuracy struct {
	Total    int     `json:"total"`
	Resolved int     `json:"resolved"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}
