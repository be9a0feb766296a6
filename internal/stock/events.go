package stock

// Event bus topics published by the mutation engine. These are observability
// signals only; nothing in the sale or restore flow depends on a subscriber.
const (
	// TopicStockLow fires when a sale leaves a product at or under the
	// configured low-stock threshold.
	TopicStockLow = "stock:low"

	// TopicStockOut fires when a sale leaves a product at or under zero.
	TopicStockOut = "stock:out"

	// TopicStockUnaudited fires when stock mutated but no ledger entry could
	// be written, the accepted degraded state.
	TopicStockUnaudited = "stock:unaudited"
)

// StockAlert is the payload for the topics above.
type StockAlert struct {
	ProductId int64
	Sku       string
	Title     string
	Stock     int64
	Reason    string
}

// Bus is the minimal surface of the process event bus consumed here.
type Bus interface {
	Publish(topic string, args ...interface{})
}

type nopBus struct{}

func (nopBus) Publish(string, ...interface{}) {}
