package models

// Pipeline flag values derived from free-text order status.
const (
	PipelineFlagNone      = ""
	PipelineFlagOnHold    = "On Hold"
	PipelineFlagPipelined = "Pipelined"
)

// OrderStatusRecord holds the production metadata for one CustomInk order,
// keyed by the digits-only form of its order number so the same order
// matches plain, letter-suffixed, and dash-suffixed PO spellings.
type OrderStatusRecord struct {
	PurchaseOrderDigits string `json:"po_digits"`
	Department          string `json:"department"`
	DueDate             string `json:"dueDate"`
	Status              string `json:"status"`
	PipelineFlag        string `json:"pipelineFlag"`
}

// OrderStatusTable maps digit-only purchase orders to their records. Built
// once per batch and read-only afterward.
type OrderStatusTable map[string]OrderStatusRecord
