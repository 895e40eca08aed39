package models

// Requests for analytics HTTP endpoints. Defined in domain for consistency and reuse.

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"300" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1m 5m 1h 1d"`
	// From and To are unix seconds; when both are set they select a range
	// instead of the newest N.
	From int64 `query:"from" json:"from" validate:"gte=0"`
	To   int64 `query:"to" json:"to" validate:"omitempty,gtefield=From"`
}

type AnalysisRequest struct {
	Symbol   string `query:"symbol" json:"symbol" validate:"required"`
	N        int    `query:"n" json:"n" default:"300" validate:"gte=1,lte=5000"`
	TF       string `query:"tf" json:"tf" default:"1d" validate:"oneof=1m 5m 1h 1d"`
	Strategy string `query:"strategy" json:"strategy" default:"combined" validate:"oneof=heuristic formula combined"`
}

type ZenithRequest struct {
	Symbol    string `param:"symbol" json:"symbol" validate:"required"`
	AssetType string `query:"asset" json:"asset_type" default:"stock" validate:"oneof=stock forex crypto"`
}

type ReplayRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	AssetType string `query:"asset" json:"asset_type" default:"stock" validate:"oneof=stock forex"`
	Range     string `query:"range" json:"range" default:"1Y" validate:"oneof=1M 3M 6M 1Y 5Y"`
}

// ReplayCommand is a control message sent by a replay client.
type ReplayCommand struct {
	Action string `json:"action" validate:"required,oneof=play pause stop seek speed status"`
	Index  int    `json:"index"`
	Speed  int    `json:"speed"`
}

// RecomputeRequest is the payload on the recompute topic.
type RecomputeRequest struct {
	Symbol    string    `json:"symbol"`
	AssetType AssetType `json:"asset_type"`
}
