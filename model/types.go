package model

// ActionSummary is one executed plan action.
//
// PayloadSHA256 is the hex sha256 of the opaque payload bytes; the
// payload itself is not projected.
type ActionSummary struct {
	Index         int    `json:"index"`
	Method        string `json:"method"`
	Fuse          string `json:"fuse"`
	PayloadSHA256 string `json:"payloadSHA256"`
}

// StoreEntry is one slot of the final store state, flattened.
type StoreEntry struct {
	Fuse      string `json:"fuse"`
	Direction string `json:"direction"`
	Index     int    `json:"index"`
	Value     string `json:"value"`
}

// ReceiptDocument carries canonical receipt bytes bound to their CID.
//
// JSON note: Bytes are encoded as base64 by encoding/json.
type ReceiptDocument struct {
	Bytes  []byte `json:"bytes"`
	CID    string `json:"cid"`
	Signed bool   `json:"signed"`
}

// ExecutionReport is the JSON boundary for one plan execution.
type ExecutionReport struct {
	Plan        string          `json:"plan,omitempty"`
	Actions     []ActionSummary `json:"actions"`
	Store       []StoreEntry    `json:"store"`
	Receipt     ReceiptDocument `json:"receipt"`
	ArchivedCID string          `json:"archivedCID,omitempty"`
	TotalAssets string          `json:"totalAssets,omitempty"`
}

// ChainFixture declares one simulated contract for the chain simulator.
// Exactly one of Words or Echo should be set; Revert makes every call
// to the contract fail.
type ChainFixture struct {
	Contract string   `json:"contract"`
	Words    []string `json:"words,omitempty"`
	Echo     bool     `json:"echo,omitempty"`
	Revert   bool     `json:"revert,omitempty"`
}
