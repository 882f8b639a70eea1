package exec

import (
	"main/internal/model"
)

// Client is the execution venue adapter consumed by the engine. Command
// methods return synchronously after handing the command to the venue;
// outcomes arrive asynchronously as order events through the runner.
type Client interface {
	ID() model.ClientID
	Venue() model.Venue
	AccountID() model.AccountID

	Connect() error
	Disconnect() error
	IsConnected() bool

	SubmitOrder(cmd Command) error
	SubmitOrderList(cmd Command) error
	ModifyOrder(cmd Command) error
	CancelOrder(cmd Command) error
	CancelAllOrders(cmd Command) error
	BatchCancelOrders(cmd Command) error
	QueryOrder(cmd Command) error

	GenerateOrderStatusReport(instrumentID model.InstrumentID, clientOrderID model.ClientOrderID) (OrderStatusReport, error)
	GenerateFillReports(instrumentID model.InstrumentID) ([]FillReport, error)
	GeneratePositionStatusReports(instrumentID model.InstrumentID) ([]PositionStatusReport, error)
}
