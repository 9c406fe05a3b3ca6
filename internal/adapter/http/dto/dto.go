package dto

// AddPointsRequest is the request body for crediting points. Fields are
// pointers so a missing field can be told apart from a zero value.
type AddPointsRequest struct {
	Payer     *string `json:"payer" binding:"required,safe_payer"`
	Points    *int64  `json:"points" binding:"required"`
	Timestamp *string `json:"timestamp" binding:"required"`
}

// SpendRequest is the request body for spending points.
type SpendRequest struct {
	Points *int64 `json:"points" binding:"required"`
}

// TransactionResponse is the response body for a recorded transaction.
type TransactionResponse struct {
	ID        string `json:"id"`
	Payer     string `json:"payer"`
	Points    int64  `json:"points"`
	Timestamp string `json:"timestamp"`
}

// SpendResponseItem is one payer's share of a spend.
type SpendResponseItem struct {
	Payer  string `json:"payer"`
	Points int64  `json:"points"`
}
